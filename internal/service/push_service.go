package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/noah-isme/campus-hub-api/internal/notify"
	"github.com/noah-isme/campus-hub-api/pkg/jobs"
)

type pushRecorder interface {
	RecordPushDispatch(channel string, ok bool)
}

// PushService fans published notifications out to the configured notifier
// channels through the in-process job queue. Dispatch is telemetry-grade:
// failures are logged and counted, never surfaced to the authoring caller.
type PushService struct {
	queue     *jobs.Queue
	notifiers []notify.Notifier
	metrics   pushRecorder
	logger    *zap.Logger
}

// NewPushService constructs the service and its backing queue.
func NewPushService(notifiers []notify.Notifier, metrics pushRecorder, logger *zap.Logger, workers, retries int) *PushService {
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &PushService{notifiers: notifiers, metrics: metrics, logger: logger}
	svc.queue = jobs.NewQueue("notification-push", svc.handle, jobs.QueueConfig{
		Workers:    workers,
		MaxRetries: retries,
		Logger:     logger,
	})
	return svc
}

// Start begins queue consumption.
func (s *PushService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains the queue workers.
func (s *PushService) Stop() {
	s.queue.Stop()
}

// Enqueue schedules one push dispatch.
func (s *PushService) Enqueue(msg notify.Message) error {
	return s.queue.Enqueue(jobs.Job{
		ID:      msg.NotificationID,
		Type:    "notification.push",
		Payload: msg,
	})
}

func (s *PushService) handle(ctx context.Context, job jobs.Job) error {
	msg, ok := job.Payload.(notify.Message)
	if !ok {
		return fmt.Errorf("unexpected push payload %T", job.Payload)
	}
	var failed int
	for _, notifier := range s.notifiers {
		err := notifier.Notify(ctx, msg)
		if s.metrics != nil {
			s.metrics.RecordPushDispatch(notifier.Name(), err == nil)
		}
		if err != nil {
			failed++
			s.logger.Sugar().Warnw("push dispatch failed",
				"notification_id", msg.NotificationID, "channel", notifier.Name(), "error", err)
		}
	}
	if failed == len(s.notifiers) && failed > 0 {
		return fmt.Errorf("all %d push channels failed", failed)
	}
	return nil
}
