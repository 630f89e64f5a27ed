package repository

import (
	"context"
	"time"

	"SignalFlow/internal/domain/models"
)

// SignalStore persists canonical signals under an owner-scoped key with a
// bounded lifetime. Expired entries are indistinguishable from absent ones.
type SignalStore interface {
	// Put writes the signal under (ownerID, signal.ID), overwriting any
	// previous value and refreshing the expiration.
	Put(ctx context.Context, ownerID string, signal *models.Signal, ttl time.Duration) error

	// Get returns the stored signal or ErrSignalNotFound. Backend outages
	// surface as ErrStoreUnavailable.
	Get(ctx context.Context, ownerID, signalID string) (*models.Signal, error)

	// ListKeys returns all signal ids stored for the owner.
	ListKeys(ctx context.Context, ownerID string) ([]string, error)

	// Delete removes the signal. Idempotent.
	Delete(ctx context.Context, ownerID, signalID string) error

	// Latest returns the owner's most recently created signal, or
	// ErrSignalNotFound when the owner has none.
	Latest(ctx context.Context, ownerID string) (*models.Signal, error)
}

// ContextManager tracks per-user navigation state. Mutations for the same
// user are serialized. Only EnterSignalView can write the Backup* snapshot;
// the API surface makes the backup structurally immutable elsewhere.
type ContextManager interface {
	// EnterSignalView records the signal view the user is looking at and
	// snapshots it for later restoration.
	EnterSignalView(ctx context.Context, userID, instrument, direction, timeframe string) error

	// EnterSubView records that the user followed a branch. If instrument is
	// non-empty it overwrites only the current instrument. The backup
	// snapshot is never touched.
	EnterSubView(ctx context.Context, userID, instrument string) error

	// RestoreFromBackup copies the snapshot back into the current fields and
	// returns it. Returns ErrNoBackup when no signal view was entered.
	RestoreFromBackup(ctx context.Context, userID string) (models.SignalRef, error)

	// Clear resets the flow flags when the user exits the signal subtree.
	Clear(ctx context.Context, userID string) error

	// Get returns the user's context, or ErrNoBackup when none exists.
	Get(ctx context.Context, userID string) (*models.ConversationContext, error)
}

// Analyzer is an external analysis collaborator (technical, sentiment,
// calendar, AI verdict). Calls are bounded by the caller's context deadline.
type Analyzer interface {
	Kind() models.ViewKind
	Analyze(ctx context.Context, instrument string) (string, error)
}

// SignalFeed streams raw signal payloads from a provider connection.
type SignalFeed interface {
	Connect(ctx context.Context) error
	Read(ctx context.Context) (<-chan *models.FeedEnvelope, <-chan error)
	Reconnect(ctx context.Context) error
	Close() error
	IsConnected() bool
}

// ChatSender delivers a rendered view to the chat front-end boundary.
type ChatSender interface {
	Send(ctx context.Context, view *models.RenderedView) error
}

// Metrics abstracts the metrics recorder so use cases do not depend on
// Prometheus directly.
type Metrics interface {
	RecordSignalIngested(source, instrument string)
	RecordPayloadRejected(source, reason string)
	RecordInteractionRouted(action string)
	RecordStoreError(op string)
	RecordCollaboratorLatency(kind, outcome string, seconds float64)
	RecordDelivery(outcome string)
}
