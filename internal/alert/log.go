package alert

import (
	"context"

	"deskwire-chat/internal/domain"
	"deskwire-chat/internal/notify"
	"deskwire-chat/pkg/logger"
)

// LogAlerter writes alerts to the log. Used for headless and development
// runs where no push subscription exists.
type LogAlerter struct {
	log *logger.Logger
}

func NewLogAlerter(log *logger.Logger) *LogAlerter {
	return &LogAlerter{log: log}
}

func (a *LogAlerter) RequestPermission(ctx context.Context) (notify.Permission, error) {
	return notify.PermissionGranted, nil
}

func (a *LogAlerter) Alert(ctx context.Context, n domain.Notification) error {
	a.log.Infof("alert [%s] %s: %s", n.Kind, n.Title, n.Body)
	return nil
}
