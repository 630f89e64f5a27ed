package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"SignalFlow/internal/domain/models"
	domrepo "SignalFlow/internal/domain/repository"
	"SignalFlow/pkg/cache"
	applogger "SignalFlow/pkg/logger"
)

type nopMetrics struct{}

func (nopMetrics) RecordSignalIngested(string, string)                 {}
func (nopMetrics) RecordPayloadRejected(string, string)                {}
func (nopMetrics) RecordInteractionRouted(string)                      {}
func (nopMetrics) RecordStoreError(string)                             {}
func (nopMetrics) RecordCollaboratorLatency(string, string, float64)   {}
func (nopMetrics) RecordDelivery(string)                               {}

// failingCache simulates a backend outage for every operation.
type failingCache struct{}

var errBackendDown = errors.New("connection refused")

func (failingCache) Set(context.Context, string, interface{}, time.Duration) error {
	return errBackendDown
}
func (failingCache) Get(context.Context, string, interface{}) error { return errBackendDown }
func (failingCache) Delete(context.Context, ...string) error        { return errBackendDown }
func (failingCache) ScanPrefix(context.Context, string) ([]string, error) {
	return nil, errBackendDown
}
func (failingCache) Exists(context.Context, ...string) (bool, error) { return false, errBackendDown }
func (failingCache) Expire(context.Context, string, time.Duration) (bool, error) {
	return false, errBackendDown
}
func (failingCache) TryLock(context.Context, string, time.Duration) (bool, error) {
	return false, errBackendDown
}
func (failingCache) Unlock(context.Context, string) error { return errBackendDown }
func (failingCache) Ping(context.Context) error           { return errBackendDown }

func testSignal(id, instrument string, ts time.Time) *models.Signal {
	return &models.Signal{
		ID:         id,
		Instrument: instrument,
		Direction:  models.DirectionBuy,
		Entry:      "1.0850",
		StopLoss:   "1.0800",
		TakeProfit: []string{"1.0900"},
		Timeframe:  "4H",
		Timestamp:  ts,
	}
}

func newStoreWithClock(now *time.Time) *CachedSignalStore {
	mc := cache.NewMemoryCache(cache.WithMemoryClock(func() time.Time { return *now }))
	return NewCachedSignalStore(mc, applogger.Nop(), nopMetrics{})
}

func TestSignalStorePutGet(t *testing.T) {
	now := time.Date(2025, 7, 14, 8, 0, 0, 0, time.UTC)
	store := newStoreWithClock(&now)
	ctx := context.Background()

	sig := testSignal("s1", "EURUSD", now)
	if err := store.Put(ctx, "42", sig, time.Hour); err != nil {
		t.Fatalf("put: %v", err)
	}

	got, err := store.Get(ctx, "42", "s1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Instrument != "EURUSD" || got.Entry != "1.0850" || len(got.TakeProfit) != 1 {
		t.Errorf("roundtrip mismatch: %+v", got)
	}
}

func TestSignalStoreExpiry(t *testing.T) {
	now := time.Date(2025, 7, 14, 8, 0, 0, 0, time.UTC)
	store := newStoreWithClock(&now)
	ctx := context.Background()

	if err := store.Put(ctx, "42", testSignal("s1", "EURUSD", now), time.Hour); err != nil {
		t.Fatalf("put: %v", err)
	}

	now = now.Add(time.Hour + time.Second)
	_, err := store.Get(ctx, "42", "s1")
	if !errors.Is(err, domrepo.ErrSignalNotFound) {
		t.Fatalf("expected ErrSignalNotFound after ttl, got %v", err)
	}
}

func TestSignalStoreOwnerIsolation(t *testing.T) {
	now := time.Date(2025, 7, 14, 8, 0, 0, 0, time.UTC)
	store := newStoreWithClock(&now)
	ctx := context.Background()

	_ = store.Put(ctx, "42", testSignal("s1", "EURUSD", now), time.Hour)
	_ = store.Put(ctx, "99", testSignal("s2", "GBPUSD", now), time.Hour)

	ids, err := store.ListKeys(ctx, "42")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(ids) != 1 || ids[0] != "s1" {
		t.Errorf("owner 42 keys = %v, want [s1]", ids)
	}

	if _, err := store.Get(ctx, "42", "s2"); !errors.Is(err, domrepo.ErrSignalNotFound) {
		t.Errorf("cross-owner get must be not found, got %v", err)
	}
}

func TestSignalStoreDeleteIdempotent(t *testing.T) {
	now := time.Date(2025, 7, 14, 8, 0, 0, 0, time.UTC)
	store := newStoreWithClock(&now)
	ctx := context.Background()

	_ = store.Put(ctx, "42", testSignal("s1", "EURUSD", now), time.Hour)
	if err := store.Delete(ctx, "42", "s1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := store.Delete(ctx, "42", "s1"); err != nil {
		t.Fatalf("second delete: %v", err)
	}
	if _, err := store.Get(ctx, "42", "s1"); !errors.Is(err, domrepo.ErrSignalNotFound) {
		t.Errorf("expected not found after delete, got %v", err)
	}
}

func TestSignalStoreLatest(t *testing.T) {
	now := time.Date(2025, 7, 14, 8, 0, 0, 0, time.UTC)
	store := newStoreWithClock(&now)
	ctx := context.Background()

	_ = store.Put(ctx, "42", testSignal("old", "EURUSD", now.Add(-time.Hour)), time.Hour)
	_ = store.Put(ctx, "42", testSignal("new", "GBPUSD", now), time.Hour)

	latest, err := store.Latest(ctx, "42")
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if latest.ID != "new" {
		t.Errorf("latest = %s, want new", latest.ID)
	}

	if _, err := store.Latest(ctx, "nobody"); !errors.Is(err, domrepo.ErrSignalNotFound) {
		t.Errorf("expected not found for empty owner, got %v", err)
	}
}

func TestSignalStoreUnavailableDistinctFromNotFound(t *testing.T) {
	store := NewCachedSignalStore(failingCache{}, applogger.Nop(), nopMetrics{})
	ctx := context.Background()

	_, err := store.Get(ctx, "42", "s1")
	if !errors.Is(err, domrepo.ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}
	if errors.Is(err, domrepo.ErrSignalNotFound) {
		t.Fatalf("outage must not look like not-found")
	}
}
