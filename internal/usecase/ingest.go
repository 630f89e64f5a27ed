package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"SignalFlow/internal/domain/models"
	domrepo "SignalFlow/internal/domain/repository"
	"SignalFlow/internal/service/normalizer"
	applogger "SignalFlow/pkg/logger"
)

// Ingestor runs the full inbound path for one payload: normalize, persist,
// render the initial view, hand it to the chat boundary. Each payload is an
// independent unit of work; a delivery failure never unwinds the stored
// signal.
type Ingestor struct {
	normalizer *normalizer.Normalizer
	store      domrepo.SignalStore
	dispatcher *ViewDispatcher
	sender     domrepo.ChatSender
	metrics    domrepo.Metrics
	logger     *applogger.Logger
	ttl        time.Duration
}

func NewIngestor(n *normalizer.Normalizer, store domrepo.SignalStore, d *ViewDispatcher, sender domrepo.ChatSender, m domrepo.Metrics, l *applogger.Logger, ttl time.Duration) *Ingestor {
	return &Ingestor{
		normalizer: n,
		store:      store,
		dispatcher: d,
		sender:     sender,
		metrics:    m,
		logger:     l,
		ttl:        ttl,
	}
}

// Ingest processes one raw payload on behalf of ownerID. source names the
// boundary the payload arrived through, for logging and metrics only.
// Rejections surface as *repository.RejectedPayload so the transport can map
// them to a client error.
func (i *Ingestor) Ingest(ctx context.Context, source, ownerID string, raw map[string]interface{}) (*models.Signal, error) {
	sig, err := i.normalizer.Normalize(raw)
	if err != nil {
		var rejected *domrepo.RejectedPayload
		if errors.As(err, &rejected) {
			i.metrics.RecordPayloadRejected(source, rejected.Reason)
			i.logger.Warn("payload rejected",
				applogger.String("source", source),
				applogger.String("owner_id", ownerID),
				applogger.String("reason", rejected.Reason))
		}
		return nil, err
	}

	if err := i.store.Put(ctx, ownerID, sig, i.ttl); err != nil {
		return nil, fmt.Errorf("store signal %s: %w", sig.ID, err)
	}
	i.metrics.RecordSignalIngested(source, sig.Instrument)

	view, err := i.dispatcher.RenderInitialView(ctx, ownerID, sig)
	if err != nil {
		// The signal is stored and retrievable; only the announcement failed.
		i.logger.Error("initial view render failed",
			applogger.String("owner_id", ownerID),
			applogger.String("signal_id", sig.ID),
			applogger.Error(err))
		return sig, nil
	}

	if err := i.sender.Send(ctx, view); err != nil {
		i.metrics.RecordDelivery("error")
		i.logger.Error("initial view delivery failed",
			applogger.String("owner_id", ownerID),
			applogger.String("signal_id", sig.ID),
			applogger.Error(err))
		return sig, nil
	}
	i.metrics.RecordDelivery("success")

	i.logger.Info("signal ingested",
		applogger.String("source", source),
		applogger.String("owner_id", ownerID),
		applogger.String("signal_id", sig.ID),
		applogger.String("instrument", sig.Instrument))
	return sig, nil
}
