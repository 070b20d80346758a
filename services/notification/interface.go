package notification

import (
	"context"

	"go.uber.org/zap"
)

// Dispatcher is the fire-and-forget notification collaborator. Failures are
// logged and retried by the task queue; they never fail the transition that
// requested them.
type Dispatcher interface {
	Notify(ctx context.Context, userID, templateKind string, payload map[string]string) error
}

// LogDispatcher is the default implementation used until a real channel
// (push, email provider) is wired; it records the notification and succeeds.
type LogDispatcher struct {
	Logger *zap.Logger
}

func (d *LogDispatcher) Notify(ctx context.Context, userID, templateKind string, payload map[string]string) error {
	d.Logger.Info("notification dispatched",
		zap.String("user", userID),
		zap.String("template", templateKind),
		zap.Any("payload", payload),
	)
	return nil
}
