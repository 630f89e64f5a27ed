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

// Signal keys are owner-scoped and the owner segment comes first, so a
// prefix scan can never cross into another owner's namespace.
func signalKey(ownerID, signalID string) string {
	return fmt.Sprintf("signal:%s:%s", ownerID, signalID)
}

func signalPrefix(ownerID string) string {
	return fmt.Sprintf("signal:%s:", ownerID)
}

// CachedSignalStore implements domain.repository.SignalStore on the keyed
// TTL backend.
type CachedSignalStore struct {
	cache   cache.Service
	logger  *applogger.Logger
	metrics domrepo.Metrics
}

func NewCachedSignalStore(c cache.Service, l *applogger.Logger, m domrepo.Metrics) *CachedSignalStore {
	return &CachedSignalStore{cache: c, logger: l, metrics: m}
}

func (s *CachedSignalStore) Put(ctx context.Context, ownerID string, signal *models.Signal, ttl time.Duration) error {
	if err := s.cache.Set(ctx, signalKey(ownerID, signal.ID), signal, ttl); err != nil {
		s.metrics.RecordStoreError("put")
		return fmt.Errorf("%w: put %s: %v", domrepo.ErrStoreUnavailable, signal.ID, err)
	}
	return nil
}

func (s *CachedSignalStore) Get(ctx context.Context, ownerID, signalID string) (*models.Signal, error) {
	var sig models.Signal
	err := s.cache.Get(ctx, signalKey(ownerID, signalID), &sig)
	if err != nil {
		if errors.Is(err, cache.ErrCacheMiss) {
			return nil, domrepo.ErrSignalNotFound
		}
		s.metrics.RecordStoreError("get")
		return nil, fmt.Errorf("%w: get %s: %v", domrepo.ErrStoreUnavailable, signalID, err)
	}
	return &sig, nil
}

func (s *CachedSignalStore) ListKeys(ctx context.Context, ownerID string) ([]string, error) {
	prefix := signalPrefix(ownerID)
	keys, err := s.cache.ScanPrefix(ctx, prefix)
	if err != nil {
		s.metrics.RecordStoreError("list")
		return nil, fmt.Errorf("%w: list owner %s: %v", domrepo.ErrStoreUnavailable, ownerID, err)
	}

	ids := make([]string, 0, len(keys))
	for _, key := range keys {
		ids = append(ids, key[len(prefix):])
	}
	return ids, nil
}

func (s *CachedSignalStore) Delete(ctx context.Context, ownerID, signalID string) error {
	if err := s.cache.Delete(ctx, signalKey(ownerID, signalID)); err != nil {
		s.metrics.RecordStoreError("delete")
		return fmt.Errorf("%w: delete %s: %v", domrepo.ErrStoreUnavailable, signalID, err)
	}
	return nil
}

// Latest returns the owner's most recently created signal. Entries that
// expire between the scan and the read are skipped.
func (s *CachedSignalStore) Latest(ctx context.Context, ownerID string) (*models.Signal, error) {
	ids, err := s.ListKeys(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	var latest *models.Signal
	for _, id := range ids {
		sig, err := s.Get(ctx, ownerID, id)
		if err != nil {
			if errors.Is(err, domrepo.ErrSignalNotFound) {
				continue
			}
			return nil, err
		}
		if latest == nil || sig.Timestamp.After(latest.Timestamp) {
			latest = sig
		}
	}
	if latest == nil {
		return nil, domrepo.ErrSignalNotFound
	}
	return latest, nil
}
