package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"SignalFlow/internal/domain/models"
	domrepo "SignalFlow/internal/domain/repository"
	applogger "SignalFlow/pkg/logger"
)

// Interaction identifier prefixes. The route table is ordered most-specific
// first so "signal_flow_" style prefixes can never shadow a longer match.
const (
	prefixTechnical     = "signal_flow_technical_"
	prefixSentiment     = "signal_flow_sentiment_"
	prefixCalendar      = "signal_flow_calendar_"
	prefixVerdict       = "signal_flow_verdict_"
	prefixAnalyzeSignal = "analyze_from_signal_"
	idBackToSignal      = "back_to_signal"
	idMainMenu          = "main_menu"
)

// TechnicalID builds the interaction identifier for the technical branch.
func TechnicalID(instrument string) string { return prefixTechnical + instrument }

// SentimentID builds the interaction identifier for the sentiment branch.
func SentimentID(instrument string) string { return prefixSentiment + instrument }

// CalendarID builds the interaction identifier for the calendar branch.
func CalendarID(instrument string) string { return prefixCalendar + instrument }

// VerdictID builds the interaction identifier for the AI verdict branch.
func VerdictID(instrument string) string { return prefixVerdict + instrument }

// AnalyzeSignalID builds the control identifier embedded in an initial
// signal view, carrying (instrument, signal id).
func AnalyzeSignalID(instrument, signalID string) string {
	return fmt.Sprintf("%s%s_%s", prefixAnalyzeSignal, instrument, signalID)
}

// BackToSignalID is the literal "back to signal" identifier.
func BackToSignalID() string { return idBackToSignal }

type routeEntry struct {
	prefix  string
	literal bool
	params  int
	handle  func(ctx context.Context, r *CallbackRouter, userID string, params []string) (*models.ViewRequest, error)
}

// CallbackRouter parses inbound interaction identifiers, mutates conversation
// context, and names the downstream renderer. It holds no state of its own.
type CallbackRouter struct {
	store    domrepo.SignalStore
	contexts domrepo.ContextManager
	metrics  domrepo.Metrics
	logger   *applogger.Logger
	table    []routeEntry
}

func NewCallbackRouter(store domrepo.SignalStore, contexts domrepo.ContextManager, m domrepo.Metrics, l *applogger.Logger) *CallbackRouter {
	r := &CallbackRouter{
		store:    store,
		contexts: contexts,
		metrics:  m,
		logger:   l,
	}
	r.table = []routeEntry{
		{prefix: prefixTechnical, params: 1, handle: subViewHandler(models.ViewTechnical)},
		{prefix: prefixSentiment, params: 1, handle: subViewHandler(models.ViewSentiment)},
		{prefix: prefixCalendar, params: 1, handle: subViewHandler(models.ViewCalendar)},
		{prefix: prefixVerdict, params: 1, handle: subViewHandler(models.ViewVerdict)},
		{prefix: prefixAnalyzeSignal, params: 2, handle: analyzeSignalHandler},
		{prefix: idBackToSignal, literal: true, handle: backToSignalHandler},
		{prefix: idMainMenu, literal: true, handle: mainMenuHandler},
	}
	return r
}

// Route matches interactionID against the route table and dispatches.
// Malformed identifiers yield ErrMalformedInteraction, never a partial
// extraction.
func (r *CallbackRouter) Route(ctx context.Context, userID, interactionID string) (*models.ViewRequest, error) {
	for _, entry := range r.table {
		if entry.literal {
			if interactionID != entry.prefix {
				continue
			}
			r.metrics.RecordInteractionRouted(routeAction(entry.prefix))
			return entry.handle(ctx, r, userID, nil)
		}

		if !strings.HasPrefix(interactionID, entry.prefix) {
			continue
		}
		params, err := extractParams(interactionID[len(entry.prefix):], entry.params)
		if err != nil {
			return nil, err
		}
		r.metrics.RecordInteractionRouted(routeAction(entry.prefix))
		return entry.handle(ctx, r, userID, params)
	}

	r.logger.Warn("unroutable interaction",
		applogger.String("user_id", userID),
		applogger.String("interaction_id", interactionID))
	return nil, fmt.Errorf("%w: %q", domrepo.ErrMalformedInteraction, interactionID)
}

// routeAction is the metrics label for a matched route: its identifier
// prefix without the trailing parameter delimiter. Literal routes carry no
// delimiter, so every series label comes out in the same shape.
func routeAction(prefix string) string { return strings.TrimSuffix(prefix, "_") }

// extractParams splits the identifier remainder on the underscore delimiter.
// Single-parameter routes carry an instrument token, which never contains an
// underscore; the final parameter of a multi-parameter route absorbs the
// rest, since synthesized signal ids embed underscores.
func extractParams(rest string, want int) ([]string, error) {
	if rest == "" {
		return nil, fmt.Errorf("%w: missing parameters", domrepo.ErrMalformedInteraction)
	}

	parts := strings.SplitN(rest, "_", want)
	if len(parts) != want {
		return nil, fmt.Errorf("%w: expected %d parameters", domrepo.ErrMalformedInteraction, want)
	}
	for _, p := range parts {
		if p == "" {
			return nil, fmt.Errorf("%w: empty parameter", domrepo.ErrMalformedInteraction)
		}
	}
	if want == 1 && strings.Contains(parts[0], "_") {
		return nil, fmt.Errorf("%w: unexpected extra parameters", domrepo.ErrMalformedInteraction)
	}
	return parts, nil
}

func subViewHandler(kind models.ViewKind) func(context.Context, *CallbackRouter, string, []string) (*models.ViewRequest, error) {
	return func(ctx context.Context, r *CallbackRouter, userID string, params []string) (*models.ViewRequest, error) {
		instrument := params[0]
		if err := r.contexts.EnterSubView(ctx, userID, instrument); err != nil {
			return nil, err
		}
		return &models.ViewRequest{
			Kind:       kind,
			UserID:     userID,
			Instrument: instrument,
		}, nil
	}
}

func analyzeSignalHandler(ctx context.Context, r *CallbackRouter, userID string, params []string) (*models.ViewRequest, error) {
	instrument, signalID := params[0], params[1]

	sig, err := r.store.Get(ctx, userID, signalID)
	if err != nil {
		if errors.Is(err, domrepo.ErrSignalNotFound) {
			// The signal expired between render and tap. Nothing to show.
			r.logger.Info("signal gone, falling back to menu",
				applogger.String("user_id", userID),
				applogger.String("signal_id", signalID),
				applogger.String("instrument", instrument))
			return &models.ViewRequest{Kind: models.ViewMainMenu, UserID: userID}, nil
		}
		return nil, err
	}

	ref := sig.Ref()
	if err := r.contexts.EnterSignalView(ctx, userID, ref.Instrument, ref.Direction, ref.Timeframe); err != nil {
		return nil, err
	}
	return &models.ViewRequest{
		Kind:       models.ViewSignal,
		UserID:     userID,
		Instrument: ref.Instrument,
		Direction:  ref.Direction,
		Timeframe:  ref.Timeframe,
		SignalID:   sig.ID,
	}, nil
}

func backToSignalHandler(ctx context.Context, r *CallbackRouter, userID string, _ []string) (*models.ViewRequest, error) {
	ref, err := r.contexts.RestoreFromBackup(ctx, userID)
	if err == nil {
		return &models.ViewRequest{
			Kind:       models.ViewSignal,
			UserID:     userID,
			Instrument: ref.Instrument,
			Direction:  ref.Direction,
			Timeframe:  ref.Timeframe,
		}, nil
	}
	if !errors.Is(err, domrepo.ErrNoBackup) {
		return nil, err
	}

	// No snapshot to restore: fall back to the owner's most recent signal.
	sig, err := r.store.Latest(ctx, userID)
	if err != nil {
		if errors.Is(err, domrepo.ErrSignalNotFound) {
			return &models.ViewRequest{Kind: models.ViewMainMenu, UserID: userID}, nil
		}
		return nil, err
	}

	fallback := sig.Ref()
	if err := r.contexts.EnterSignalView(ctx, userID, fallback.Instrument, fallback.Direction, fallback.Timeframe); err != nil {
		return nil, err
	}
	return &models.ViewRequest{
		Kind:       models.ViewSignal,
		UserID:     userID,
		Instrument: fallback.Instrument,
		Direction:  fallback.Direction,
		Timeframe:  fallback.Timeframe,
		SignalID:   sig.ID,
	}, nil
}

func mainMenuHandler(ctx context.Context, r *CallbackRouter, userID string, _ []string) (*models.ViewRequest, error) {
	if err := r.contexts.Clear(ctx, userID); err != nil {
		return nil, err
	}
	return &models.ViewRequest{Kind: models.ViewMainMenu, UserID: userID}, nil
}
