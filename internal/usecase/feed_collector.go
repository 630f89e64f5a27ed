package usecase

import (
	"context"
	"errors"

	"SignalFlow/internal/domain/models"
	domrepo "SignalFlow/internal/domain/repository"
	applogger "SignalFlow/pkg/logger"
)

// FeedCollector pulls signal payloads off the provider feed and runs them
// through the ingest path. Read errors trigger a reconnect; a rejected
// payload is logged and skipped.
type FeedCollector struct {
	feed     domrepo.SignalFeed
	ingestor *Ingestor
	logger   *applogger.Logger
}

func NewFeedCollector(feed domrepo.SignalFeed, ingestor *Ingestor, l *applogger.Logger) *FeedCollector {
	return &FeedCollector{feed: feed, ingestor: ingestor, logger: l}
}

func (c *FeedCollector) IsConnected() bool {
	return c.feed.IsConnected()
}

func (c *FeedCollector) Start(ctx context.Context) error {
	if err := c.feed.Connect(ctx); err != nil {
		return err
	}
	envCh, errCh := c.feed.Read(ctx)
	go c.consume(ctx, envCh, errCh)
	return nil
}

func (c *FeedCollector) consume(ctx context.Context, envCh <-chan *models.FeedEnvelope, errCh <-chan error) {
	for {
		select {
		case <-ctx.Done():
			return
		case err, ok := <-errCh:
			if !ok {
				// Read loop exited; a nil channel never fires again.
				errCh = nil
				continue
			}
			if err == nil {
				continue
			}
			c.logger.Warn("feed error, reconnecting", applogger.Error(err))
			envCh, errCh = c.reconnect(ctx)
			if errCh == nil {
				return
			}
		case env, ok := <-envCh:
			if !ok {
				envCh = nil
				continue
			}
			if _, err := c.ingestor.Ingest(ctx, "feed", env.OwnerID, env.Payload); err != nil {
				var rejected *domrepo.RejectedPayload
				if !errors.As(err, &rejected) {
					c.logger.Error("feed ingest failed",
						applogger.String("owner_id", env.OwnerID),
						applogger.Error(err))
				}
			}
		}
	}
}

// reconnect retries until the feed comes back or ctx ends. Attempt pacing
// lives in the feed client's Reconnect, which waits its configured delay
// before dialing. Returns nil channels when ctx ended.
func (c *FeedCollector) reconnect(ctx context.Context) (<-chan *models.FeedEnvelope, <-chan error) {
	for {
		if ctx.Err() != nil {
			return nil, nil
		}
		if err := c.feed.Reconnect(ctx); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil, nil
			}
			c.logger.Error("feed reconnect failed", applogger.Error(err))
			continue
		}
		return c.feed.Read(ctx)
	}
}

func (c *FeedCollector) Stop() error { return c.feed.Close() }
