package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"SignalFlow/internal/domain/models"
	domrepo "SignalFlow/internal/domain/repository"
	"SignalFlow/pkg/cache"
	applogger "SignalFlow/pkg/logger"
)

const (
	contextLockTTL   = 3 * time.Second
	contextLockRetry = 10 * time.Millisecond
	contextLockWait  = 2 * time.Second
)

func contextKey(userID string) string {
	return "context:" + userID
}

func contextLockKey(userID string) string {
	return "context:lock:" + userID
}

// CachedContextManager implements domain.repository.ContextManager on the
// keyed TTL backend. Mutations for one user are serialized through a backend
// lock so a double-tapped interaction cannot interleave with a restore and
// corrupt the snapshot.
//
// The backup snapshot is structurally immutable outside EnterSignalView:
// no other method body writes the Backup* fields.
type CachedContextManager struct {
	cache  cache.Service
	ttl    time.Duration
	logger *applogger.Logger
}

func NewCachedContextManager(c cache.Service, ttl time.Duration, l *applogger.Logger) *CachedContextManager {
	return &CachedContextManager{cache: c, ttl: ttl, logger: l}
}

func (m *CachedContextManager) EnterSignalView(ctx context.Context, userID, instrument, direction, timeframe string) error {
	return m.withLock(ctx, userID, func(c *models.ConversationContext) error {
		c.CurrentInstrument = instrument
		c.CurrentDirection = direction
		c.CurrentTimeframe = timeframe
		c.BackupInstrument = instrument
		c.BackupDirection = direction
		c.BackupTimeframe = timeframe
		c.BackupTaken = true
		c.InSignalFlow = true
		c.FromSignal = true
		return nil
	})
}

func (m *CachedContextManager) EnterSubView(ctx context.Context, userID, instrument string) error {
	return m.withLock(ctx, userID, func(c *models.ConversationContext) error {
		if instrument != "" {
			c.CurrentInstrument = instrument
		}
		c.FromSignal = c.InSignalFlow
		return nil
	})
}

func (m *CachedContextManager) RestoreFromBackup(ctx context.Context, userID string) (models.SignalRef, error) {
	var ref models.SignalRef
	err := m.withLock(ctx, userID, func(c *models.ConversationContext) error {
		if !c.HasBackup() {
			return domrepo.ErrNoBackup
		}
		c.CurrentInstrument = c.BackupInstrument
		c.CurrentDirection = c.BackupDirection
		c.CurrentTimeframe = c.BackupTimeframe
		c.InSignalFlow = true
		c.FromSignal = true
		ref = models.SignalRef{
			Instrument: c.CurrentInstrument,
			Direction:  c.CurrentDirection,
			Timeframe:  c.CurrentTimeframe,
		}
		return nil
	})
	if err != nil {
		return models.SignalRef{}, err
	}
	return ref, nil
}

func (m *CachedContextManager) Clear(ctx context.Context, userID string) error {
	return m.withLock(ctx, userID, func(c *models.ConversationContext) error {
		c.InSignalFlow = false
		c.FromSignal = false
		return nil
	})
}

func (m *CachedContextManager) Get(ctx context.Context, userID string) (*models.ConversationContext, error) {
	var c models.ConversationContext
	err := m.cache.Get(ctx, contextKey(userID), &c)
	if err != nil {
		if errors.Is(err, cache.ErrCacheMiss) {
			return nil, domrepo.ErrNoBackup
		}
		return nil, fmt.Errorf("%w: get context %s: %v", domrepo.ErrStoreUnavailable, userID, err)
	}
	return &c, nil
}

// withLock loads the user's context under a per-user backend lock, applies
// fn, and persists the result. When fn returns an error nothing is written.
func (m *CachedContextManager) withLock(ctx context.Context, userID string, fn func(*models.ConversationContext) error) error {
	if err := m.acquire(ctx, userID); err != nil {
		return err
	}
	defer func() {
		if err := m.cache.Unlock(context.WithoutCancel(ctx), contextLockKey(userID)); err != nil {
			m.logger.Warn("context unlock failed",
				applogger.String("user_id", userID),
				applogger.Error(err))
		}
	}()

	c := &models.ConversationContext{UserID: userID}
	err := m.cache.Get(ctx, contextKey(userID), c)
	if err != nil && !errors.Is(err, cache.ErrCacheMiss) {
		return fmt.Errorf("%w: load context %s: %v", domrepo.ErrStoreUnavailable, userID, err)
	}
	c.UserID = userID

	if err := fn(c); err != nil {
		return err
	}

	if err := m.cache.Set(ctx, contextKey(userID), c, m.ttl); err != nil {
		return fmt.Errorf("%w: save context %s: %v", domrepo.ErrStoreUnavailable, userID, err)
	}
	return nil
}

func (m *CachedContextManager) acquire(ctx context.Context, userID string) error {
	deadline := time.Now().Add(contextLockWait)
	for {
		ok, err := m.cache.TryLock(ctx, contextLockKey(userID), contextLockTTL)
		if err != nil {
			return fmt.Errorf("%w: lock context %s: %v", domrepo.ErrStoreUnavailable, userID, err)
		}
		if ok {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("%w: lock context %s: timed out", domrepo.ErrStoreUnavailable, userID)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(contextLockRetry):
		}
	}
}
