package notify

import (
	"context"

	"go.uber.org/zap"
)

// LogNotifier records each publish to the structured log. Always configured;
// it doubles as the dispatch audit trail in environments without SMTP.
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier constructs the notifier.
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogNotifier{logger: logger}
}

// Name identifies the channel in dispatch logs.
func (n *LogNotifier) Name() string { return "log" }

// Notify writes one structured record for the publish.
func (n *LogNotifier) Notify(_ context.Context, msg Message) error {
	n.logger.Sugar().Infow("notification published",
		"notification_id", msg.NotificationID,
		"title", msg.Title,
		"category", msg.Category,
		"priority", msg.Priority,
		"recipients", msg.Recipients,
	)
	return nil
}
