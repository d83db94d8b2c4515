package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"deskwire-chat/internal/domain"
	deskwire_errors "deskwire-chat/pkg/errors"
	"deskwire-chat/pkg/logger"
)

// Client talks to the remote chat backend over HTTP.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	log        *logger.Logger
}

func NewClient(baseURL, token string, timeout time.Duration, log *logger.Logger) *Client {
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		token:   token,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		log: log,
	}
}

func (c *Client) ListConversations(ctx context.Context) ([]domain.Conversation, error) {
	var out []domain.Conversation
	if err := c.do(ctx, http.MethodGet, "/conversations", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateConversation(ctx context.Context, req CreateConversationRequest) (domain.Conversation, error) {
	var out domain.Conversation
	if err := c.do(ctx, http.MethodPost, "/conversations", req, &out); err != nil {
		return domain.Conversation{}, err
	}
	return out, nil
}

func (c *Client) MarkConversationRead(ctx context.Context, conversationID string) error {
	path := fmt.Sprintf("/conversations/%s/read", url.PathEscape(conversationID))
	return c.do(ctx, http.MethodPost, path, nil, nil)
}

func (c *Client) ListMessages(ctx context.Context, conversationID string, opts ListMessagesOptions) ([]domain.Message, error) {
	path := fmt.Sprintf("/conversations/%s/messages", url.PathEscape(conversationID))
	q := url.Values{}
	if opts.Before != "" {
		q.Set("before", opts.Before)
	}
	if opts.Limit > 0 {
		q.Set("limit", strconv.Itoa(opts.Limit))
	}
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	var out []domain.Message
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) SendMessage(ctx context.Context, conversationID string, req SendMessageRequest) (domain.Message, error) {
	path := fmt.Sprintf("/conversations/%s/messages", url.PathEscape(conversationID))
	var out domain.Message
	if err := c.do(ctx, http.MethodPost, path, req, &out); err != nil {
		return domain.Message{}, err
	}
	return out, nil
}

func (c *Client) EditMessage(ctx context.Context, conversationID, messageID, body string) (domain.Message, error) {
	path := fmt.Sprintf("/conversations/%s/messages/%s", url.PathEscape(conversationID), url.PathEscape(messageID))
	var out domain.Message
	if err := c.do(ctx, http.MethodPatch, path, map[string]string{"body": body}, &out); err != nil {
		return domain.Message{}, err
	}
	return out, nil
}

func (c *Client) DeleteMessage(ctx context.Context, conversationID, messageID string) error {
	path := fmt.Sprintf("/conversations/%s/messages/%s", url.PathEscape(conversationID), url.PathEscape(messageID))
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

func (c *Client) PinMessage(ctx context.Context, conversationID, messageID string) (domain.Message, error) {
	path := fmt.Sprintf("/conversations/%s/messages/%s/pin", url.PathEscape(conversationID), url.PathEscape(messageID))
	var out domain.Message
	if err := c.do(ctx, http.MethodPost, path, nil, &out); err != nil {
		return domain.Message{}, err
	}
	return out, nil
}

func (c *Client) AddReaction(ctx context.Context, conversationID, messageID, emoji string) (domain.Message, error) {
	path := fmt.Sprintf("/conversations/%s/messages/%s/reactions", url.PathEscape(conversationID), url.PathEscape(messageID))
	var out domain.Message
	if err := c.do(ctx, http.MethodPost, path, map[string]string{"emoji": emoji}, &out); err != nil {
		return domain.Message{}, err
	}
	return out, nil
}

func (c *Client) SearchMessages(ctx context.Context, query string, opts SearchOptions) ([]domain.Message, error) {
	q := url.Values{}
	q.Set("q", query)
	if opts.ConversationID != "" {
		q.Set("conversation_id", opts.ConversationID)
	}
	var out []domain.Message
	if err := c.do(ctx, http.MethodGet, "/messages/search?"+q.Encode(), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) SetTypingIndicator(ctx context.Context, conversationID string, isTyping bool) error {
	path := fmt.Sprintf("/conversations/%s/typing", url.PathEscape(conversationID))
	return c.do(ctx, http.MethodPost, path, map[string]bool{"is_typing": isTyping}, nil)
}

func (c *Client) do(ctx context.Context, method, path string, in, out interface{}) error {
	var body *bytes.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	} else {
		body = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		if c.log != nil {
			c.log.Warnf("remote call failed: %s %s -> %d", method, path, resp.StatusCode)
		}
		return statusError(resp.StatusCode)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// statusError maps HTTP status codes onto the shared sentinel errors so
// callers can branch on the failure class without seeing HTTP details.
func statusError(code int) error {
	switch {
	case code == http.StatusUnauthorized:
		return deskwire_errors.ErrUnauthorized
	case code == http.StatusForbidden:
		return deskwire_errors.ErrForbidden
	case code == http.StatusNotFound:
		return deskwire_errors.ErrNotFound
	case code == http.StatusConflict:
		return deskwire_errors.ErrConflict
	case code == http.StatusBadRequest || code == http.StatusUnprocessableEntity:
		return deskwire_errors.ErrInvalidInput
	case code >= 500:
		return deskwire_errors.ErrServiceUnavailable
	default:
		return fmt.Errorf("unexpected status %d", code)
	}
}
