package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	domrepo "SignalFlow/internal/domain/repository"
	"SignalFlow/pkg/cache"
	applogger "SignalFlow/pkg/logger"
)

func newTestContextManager() *CachedContextManager {
	return NewCachedContextManager(cache.NewMemoryCache(), time.Hour, applogger.Nop())
}

func TestRestoreAfterSubView(t *testing.T) {
	m := newTestContextManager()
	ctx := context.Background()

	if err := m.EnterSignalView(ctx, "u1", "GBPUSD", "BUY", "4h"); err != nil {
		t.Fatalf("enter signal view: %v", err)
	}
	// Sub-view overwrites the current instrument for its own purposes.
	if err := m.EnterSubView(ctx, "u1", "EURUSD"); err != nil {
		t.Fatalf("enter sub view: %v", err)
	}

	ref, err := m.RestoreFromBackup(ctx, "u1")
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	if ref.Instrument != "GBPUSD" || ref.Direction != "BUY" || ref.Timeframe != "4h" {
		t.Errorf("restored %+v, want GBPUSD/BUY/4h", ref)
	}
}

func TestEnterSubViewNeverTouchesBackup(t *testing.T) {
	m := newTestContextManager()
	ctx := context.Background()

	_ = m.EnterSignalView(ctx, "u1", "GBPUSD", "BUY", "4h")
	_ = m.EnterSubView(ctx, "u1", "EURUSD")
	_ = m.EnterSubView(ctx, "u1", "USDJPY")

	c, err := m.Get(ctx, "u1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if c.BackupInstrument != "GBPUSD" || c.BackupDirection != "BUY" || c.BackupTimeframe != "4h" {
		t.Errorf("backup mutated: %+v", c)
	}
	if c.CurrentInstrument != "USDJPY" {
		t.Errorf("current instrument = %s, want USDJPY", c.CurrentInstrument)
	}
	if !c.InSignalFlow || !c.FromSignal {
		t.Errorf("flow flags lost: %+v", c)
	}
}

func TestRestoreWithEmptyTimeframe(t *testing.T) {
	m := newTestContextManager()
	ctx := context.Background()

	// Timeframe is optional on signals; its absence must not be read as a
	// missing snapshot.
	if err := m.EnterSignalView(ctx, "u1", "GBPUSD", "BUY", ""); err != nil {
		t.Fatalf("enter signal view: %v", err)
	}
	if err := m.EnterSubView(ctx, "u1", "EURUSD"); err != nil {
		t.Fatalf("enter sub view: %v", err)
	}

	ref, err := m.RestoreFromBackup(ctx, "u1")
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	if ref.Instrument != "GBPUSD" || ref.Direction != "BUY" || ref.Timeframe != "" {
		t.Errorf("restored %+v, want GBPUSD/BUY with empty timeframe", ref)
	}
}

func TestRestoreWithoutSignalView(t *testing.T) {
	m := newTestContextManager()
	ctx := context.Background()

	_, err := m.RestoreFromBackup(ctx, "nobody")
	if !errors.Is(err, domrepo.ErrNoBackup) {
		t.Fatalf("expected ErrNoBackup, got %v", err)
	}

	// A sub-view entered from the main menu must not create a backup either.
	_ = m.EnterSubView(ctx, "u2", "EURUSD")
	_, err = m.RestoreFromBackup(ctx, "u2")
	if !errors.Is(err, domrepo.ErrNoBackup) {
		t.Fatalf("expected ErrNoBackup after menu sub-view, got %v", err)
	}
}

func TestClearResetsFlowFlags(t *testing.T) {
	m := newTestContextManager()
	ctx := context.Background()

	_ = m.EnterSignalView(ctx, "u1", "GBPUSD", "BUY", "4h")
	if err := m.Clear(ctx, "u1"); err != nil {
		t.Fatalf("clear: %v", err)
	}

	c, err := m.Get(ctx, "u1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if c.InSignalFlow || c.FromSignal {
		t.Errorf("flags not cleared: %+v", c)
	}

	// Sub-views after Clear are menu-entered.
	_ = m.EnterSubView(ctx, "u1", "EURUSD")
	c, _ = m.Get(ctx, "u1")
	if c.FromSignal {
		t.Errorf("fromSignal must be false after clear")
	}
}

func TestContextManagerUnavailableBackend(t *testing.T) {
	m := NewCachedContextManager(failingCache{}, time.Hour, applogger.Nop())
	ctx := context.Background()

	err := m.EnterSignalView(ctx, "u1", "GBPUSD", "BUY", "4h")
	if !errors.Is(err, domrepo.ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}
}
