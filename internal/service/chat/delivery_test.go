package chat

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"SignalFlow/internal/domain/models"
	applogger "SignalFlow/pkg/logger"
)

type fakePublisher struct {
	msgType string
	payload interface{}
	err     error
}

func (p *fakePublisher) Publish(ctx context.Context, msgType string, payload interface{}) error {
	if p.err != nil {
		return p.err
	}
	p.msgType = msgType
	p.payload = payload
	return nil
}

type fakeSender struct {
	views []*models.RenderedView
	err   error
}

func (s *fakeSender) Send(ctx context.Context, view *models.RenderedView) error {
	if s.err != nil {
		return s.err
	}
	s.views = append(s.views, view)
	return nil
}

type testMetrics struct {
	deliveries map[string]int
}

func (m *testMetrics) RecordSignalIngested(source, instrument string)                  {}
func (m *testMetrics) RecordPayloadRejected(source, reason string)                     {}
func (m *testMetrics) RecordInteractionRouted(action string)                           {}
func (m *testMetrics) RecordStoreError(op string)                                      {}
func (m *testMetrics) RecordCollaboratorLatency(kind, outcome string, seconds float64) {}
func (m *testMetrics) RecordDelivery(outcome string) {
	if m.deliveries == nil {
		m.deliveries = make(map[string]int)
	}
	m.deliveries[outcome]++
}

func TestQueuedSenderPublishes(t *testing.T) {
	pub := &fakePublisher{}
	s := NewQueuedSender(pub)

	view := &models.RenderedView{UserID: "u1", Body: "hello"}
	if err := s.Send(context.Background(), view); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if pub.msgType != MsgTypeDeliverView {
		t.Errorf("message type = %q", pub.msgType)
	}
}

func TestDeliveryJobHandlesRawPayload(t *testing.T) {
	sender := &fakeSender{}
	metrics := &testMetrics{}
	job := NewDeliveryJob(sender, metrics, applogger.Nop())

	data, err := json.Marshal(&models.RenderedView{UserID: "u1", Body: "hello"})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if err := job.Handle(context.Background(), json.RawMessage(data)); err != nil {
		t.Fatalf("Handle: %v", err)
	}

	if len(sender.views) != 1 || sender.views[0].UserID != "u1" {
		t.Errorf("delivered = %+v", sender.views)
	}
	if metrics.deliveries["success"] != 1 {
		t.Errorf("deliveries = %v", metrics.deliveries)
	}
}

func TestDeliveryJobReturnsErrorForRetry(t *testing.T) {
	sender := &fakeSender{err: errors.New("boundary down")}
	job := NewDeliveryJob(sender, &testMetrics{}, applogger.Nop())

	data, _ := json.Marshal(&models.RenderedView{UserID: "u1"})
	if err := job.Handle(context.Background(), json.RawMessage(data)); err == nil {
		t.Fatal("expected error so the queue schedules a retry")
	}
}

func TestDeliveryJobDropsGarbage(t *testing.T) {
	sender := &fakeSender{}
	job := NewDeliveryJob(sender, &testMetrics{}, applogger.Nop())

	if err := job.Handle(context.Background(), 42); err != nil {
		t.Fatalf("garbage payload must be dropped, not retried: %v", err)
	}
	if len(sender.views) != 0 {
		t.Errorf("garbage payload was delivered: %+v", sender.views)
	}
}
