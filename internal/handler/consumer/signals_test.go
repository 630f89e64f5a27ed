package consumer

import (
	"context"
	"testing"
	"time"

	"SignalFlow/internal/domain/models"
	"SignalFlow/internal/repository"
	"SignalFlow/internal/service/normalizer"
	"SignalFlow/internal/usecase"
	"SignalFlow/pkg/cache"
	applogger "SignalFlow/pkg/logger"
)

type nopMetrics struct{}

func (nopMetrics) RecordSignalIngested(source, instrument string)                  {}
func (nopMetrics) RecordPayloadRejected(source, reason string)                     {}
func (nopMetrics) RecordInteractionRouted(action string)                           {}
func (nopMetrics) RecordStoreError(op string)                                      {}
func (nopMetrics) RecordCollaboratorLatency(kind, outcome string, seconds float64) {}
func (nopMetrics) RecordDelivery(outcome string)                                   {}

type nopSender struct{}

func (nopSender) Send(ctx context.Context, view *models.RenderedView) error { return nil }

func newHandler() (*SignalsHandler, *repository.CachedSignalStore) {
	mem := cache.NewMemoryCache()
	log := applogger.Nop()
	store := repository.NewCachedSignalStore(mem, log, nopMetrics{})
	contexts := repository.NewCachedContextManager(mem, time.Hour, log)
	dispatcher := usecase.NewViewDispatcher(contexts, nil, nopMetrics{}, log)
	ingestor := usecase.NewIngestor(normalizer.New(), store, dispatcher, nopSender{}, nopMetrics{}, log, time.Hour)
	return NewSignalsHandler("signals.inbound", ingestor, log), store
}

func TestHandleStoresSignal(t *testing.T) {
	h, store := newHandler()

	msg := []byte(`{"owner_id":"u1","payload":{"instrument":"EURUSD","direction":"buy","entry":"1.0850","stop_loss":"1.0800","take_profit":"1.0900"}}`)
	if err := h.Handle(context.Background(), msg); err != nil {
		t.Fatalf("Handle: %v", err)
	}

	ids, err := store.ListKeys(context.Background(), "u1")
	if err != nil {
		t.Fatalf("ListKeys: %v", err)
	}
	if len(ids) != 1 {
		t.Fatalf("stored %d signals, want 1", len(ids))
	}
}

func TestHandleRejectedPayloadAcknowledged(t *testing.T) {
	h, store := newHandler()

	msg := []byte(`{"owner_id":"u1","payload":{"instrument":"EURUSD","direction":"sideways"}}`)
	if err := h.Handle(context.Background(), msg); err != nil {
		t.Fatalf("rejected payload must be acknowledged, not retried: %v", err)
	}

	ids, err := store.ListKeys(context.Background(), "u1")
	if err != nil {
		t.Fatalf("ListKeys: %v", err)
	}
	if len(ids) != 0 {
		t.Errorf("rejected payload stored: %v", ids)
	}
}

func TestHandleBadEnvelope(t *testing.T) {
	h, _ := newHandler()

	if err := h.Handle(context.Background(), []byte(`not json`)); err == nil {
		t.Fatal("expected error for undecodable envelope")
	}
	if err := h.Handle(context.Background(), []byte(`{"payload":{}}`)); err == nil {
		t.Fatal("expected error for missing owner")
	}
}
