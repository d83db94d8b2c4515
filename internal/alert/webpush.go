package alert

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	webpush "github.com/SherClockHolmes/webpush-go"

	"deskwire-chat/internal/domain"
	"deskwire-chat/internal/notify"
	"deskwire-chat/pkg/logger"
)

// WebPushAlerter delivers platform alerts through Web Push (VAPID) to the
// session's browser subscription. Permission reflects whether a
// subscription was provisioned: the browser only hands one out after the
// user granted the prompt.
type WebPushAlerter struct {
	sub  *webpush.Subscription
	opts *webpush.Options
	log  *logger.Logger
}

// NewWebPushAlerter builds an alerter from a serialized browser
// subscription. An empty subscription yields a denied-permission alerter.
func NewWebPushAlerter(subscriptionJSON, vapidPublic, vapidPrivate, subscriber string, log *logger.Logger) (*WebPushAlerter, error) {
	a := &WebPushAlerter{log: log}
	if subscriptionJSON == "" {
		return a, nil
	}

	var sub webpush.Subscription
	if err := json.Unmarshal([]byte(subscriptionJSON), &sub); err != nil {
		return nil, fmt.Errorf("parse push subscription: %w", err)
	}
	a.sub = &sub
	a.opts = &webpush.Options{
		Subscriber:      subscriber,
		VAPIDPublicKey:  vapidPublic,
		VAPIDPrivateKey: vapidPrivate,
		TTL:             60,
	}
	return a, nil
}

func (a *WebPushAlerter) RequestPermission(ctx context.Context) (notify.Permission, error) {
	if a.sub == nil {
		return notify.PermissionDenied, nil
	}
	return notify.PermissionGranted, nil
}

func (a *WebPushAlerter) Alert(ctx context.Context, n domain.Notification) error {
	if a.sub == nil {
		return nil
	}

	payload, err := json.Marshal(map[string]string{
		"title":           n.Title,
		"body":            n.Body,
		"conversation_id": n.ConversationID,
		"message_id":      n.MessageID,
	})
	if err != nil {
		return err
	}

	resp, err := webpush.SendNotificationWithContext(ctx, payload, a.sub, a.opts)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 && resp.StatusCode != http.StatusGone {
		return fmt.Errorf("web push: %d", resp.StatusCode)
	}
	return nil
}
