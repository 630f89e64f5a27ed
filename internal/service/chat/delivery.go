package chat

import (
	"context"
	"fmt"

	"SignalFlow/internal/domain/models"
	domrepo "SignalFlow/internal/domain/repository"
	applogger "SignalFlow/pkg/logger"
	"SignalFlow/pkg/queue"
)

// MsgTypeDeliverView is the queue message type for outbound views.
const MsgTypeDeliverView = "deliver_view"

// QueuedSender enqueues views for asynchronous delivery instead of calling
// the chat boundary inline. Failed deliveries are retried by the queue.
type QueuedSender struct {
	publisher queue.Publisher
}

func NewQueuedSender(p queue.Publisher) *QueuedSender {
	return &QueuedSender{publisher: p}
}

func (s *QueuedSender) Send(ctx context.Context, view *models.RenderedView) error {
	if err := s.publisher.Publish(ctx, MsgTypeDeliverView, view); err != nil {
		return fmt.Errorf("enqueue view for %s: %w", view.UserID, err)
	}
	return nil
}

// DeliveryJob consumes queued views and pushes them to the chat boundary.
type DeliveryJob struct {
	sender  domrepo.ChatSender
	metrics domrepo.Metrics
	logger  *applogger.Logger
}

func NewDeliveryJob(sender domrepo.ChatSender, m domrepo.Metrics, l *applogger.Logger) *DeliveryJob {
	return &DeliveryJob{sender: sender, metrics: m, logger: l}
}

func (j *DeliveryJob) Name() string { return "view-delivery" }

func (j *DeliveryJob) Type() string { return MsgTypeDeliverView }

func (j *DeliveryJob) Handle(ctx context.Context, payload interface{}) error {
	view, err := queue.ParsePayload[models.RenderedView](payload)
	if err != nil {
		// Undecodable payloads would fail every retry; drop them.
		j.logger.Error("discarding undecodable delivery", applogger.Error(err))
		return nil
	}

	if err := j.sender.Send(ctx, view); err != nil {
		j.metrics.RecordDelivery("retry")
		return err
	}
	j.metrics.RecordDelivery("success")
	return nil
}
