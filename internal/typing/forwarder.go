package typing

import (
	"context"

	"deskwire-chat/internal/remote"
)

// APIForwarder forwards typing signals through the remote chat API.
type APIForwarder struct {
	api remote.API
}

func NewAPIForwarder(api remote.API) *APIForwarder {
	return &APIForwarder{api: api}
}

func (f *APIForwarder) ForwardTyping(ctx context.Context, conversationID string, isTyping bool) error {
	return f.api.SetTypingIndicator(ctx, conversationID, isTyping)
}

// MultiForwarder fans one signal out to several sinks. The first error is
// returned after every sink has been tried.
type MultiForwarder struct {
	sinks []Forwarder
}

func NewMultiForwarder(sinks ...Forwarder) *MultiForwarder {
	return &MultiForwarder{sinks: sinks}
}

func (f *MultiForwarder) ForwardTyping(ctx context.Context, conversationID string, isTyping bool) error {
	var first error
	for _, sink := range f.sinks {
		if err := sink.ForwardTyping(ctx, conversationID, isTyping); err != nil && first == nil {
			first = err
		}
	}
	return first
}
