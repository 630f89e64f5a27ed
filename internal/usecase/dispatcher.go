package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"SignalFlow/internal/domain/models"
	domrepo "SignalFlow/internal/domain/repository"
	applogger "SignalFlow/pkg/logger"
)

const defaultCollaboratorTimeout = 8 * time.Second

var subViewTitles = map[models.ViewKind]string{
	models.ViewTechnical: "Technical Analysis",
	models.ViewSentiment: "Market Sentiment",
	models.ViewCalendar:  "Economic Calendar",
	models.ViewVerdict:   "AI Verdict",
}

// ViewDispatcher turns routed requests and freshly ingested signals into
// rendered views. Collaborator failures degrade to an apologetic view; the
// raw error never reaches user-facing text.
type ViewDispatcher struct {
	contexts  domrepo.ContextManager
	analyzers map[models.ViewKind]domrepo.Analyzer
	metrics   domrepo.Metrics
	logger    *applogger.Logger
	timeout   time.Duration
}

type DispatcherOption func(*ViewDispatcher)

// WithCollaboratorTimeout bounds each analysis collaborator call.
func WithCollaboratorTimeout(d time.Duration) DispatcherOption {
	return func(v *ViewDispatcher) {
		if d > 0 {
			v.timeout = d
		}
	}
}

func NewViewDispatcher(contexts domrepo.ContextManager, analyzers []domrepo.Analyzer, m domrepo.Metrics, l *applogger.Logger, opts ...DispatcherOption) *ViewDispatcher {
	v := &ViewDispatcher{
		contexts:  contexts,
		analyzers: make(map[models.ViewKind]domrepo.Analyzer, len(analyzers)),
		metrics:   m,
		logger:    l,
		timeout:   defaultCollaboratorTimeout,
	}
	for _, a := range analyzers {
		v.analyzers[a.Kind()] = a
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// RenderInitialView builds the first message for a freshly ingested signal.
// On success it records the signal view in the user's context, so the view
// is never announced with context left behind.
func (v *ViewDispatcher) RenderInitialView(ctx context.Context, ownerID string, sig *models.Signal) (*models.RenderedView, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "Instrument: %s\n", sig.Instrument)
	fmt.Fprintf(&b, "Direction: %s\n", sig.Direction)
	fmt.Fprintf(&b, "Entry: %s\n", sig.Entry)
	fmt.Fprintf(&b, "Stop Loss: %s\n", sig.StopLoss)
	for i, tp := range sig.TakeProfit {
		fmt.Fprintf(&b, "Take Profit %d: %s\n", i+1, tp)
	}
	if sig.Timeframe != "" {
		fmt.Fprintf(&b, "Timeframe: %s\n", sig.Timeframe)
	}

	view := &models.RenderedView{
		UserID: ownerID,
		Title:  fmt.Sprintf("New Signal: %s %s", sig.Instrument, sig.Direction),
		Body:   b.String(),
		Buttons: []models.Button{
			{Label: "Analyze", ID: AnalyzeSignalID(sig.Instrument, sig.ID)},
			{Label: "Main Menu", ID: idMainMenu},
		},
	}

	ref := sig.Ref()
	if err := v.contexts.EnterSignalView(ctx, ownerID, ref.Instrument, ref.Direction, ref.Timeframe); err != nil {
		return nil, fmt.Errorf("enter signal view for %s: %w", ownerID, err)
	}
	return view, nil
}

// RenderSubView invokes the analysis collaborator for kind under the bounded
// timeout. A collaborator failure is logged and degraded to an apologetic
// view; only a missing analyzer registration is a hard error.
func (v *ViewDispatcher) RenderSubView(ctx context.Context, userID string, kind models.ViewKind, instrument string) (*models.RenderedView, error) {
	analyzer, ok := v.analyzers[kind]
	if !ok {
		return nil, fmt.Errorf("no analyzer registered for view %q", kind)
	}

	callCtx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()

	started := time.Now()
	text, err := analyzer.Analyze(callCtx, instrument)
	elapsed := time.Since(started).Seconds()
	if err != nil {
		v.metrics.RecordCollaboratorLatency(string(kind), "error", elapsed)
		failure := &domrepo.CollaboratorFailure{Kind: string(kind), Err: err}
		v.logger.Warn("collaborator degraded",
			applogger.String("user_id", userID),
			applogger.String("kind", string(kind)),
			applogger.String("instrument", instrument),
			applogger.Error(failure))
		return v.apologeticView(userID, kind, instrument), nil
	}
	v.metrics.RecordCollaboratorLatency(string(kind), "success", elapsed)

	return &models.RenderedView{
		UserID:  userID,
		Title:   fmt.Sprintf("%s: %s", subViewTitles[kind], instrument),
		Body:    text,
		Buttons: v.subViewButtons(),
	}, nil
}

// RenderSignalView rebuilds a signal view from a resolved triple, used on
// restoration where the full record may already be gone from the store.
func (v *ViewDispatcher) RenderSignalView(userID, instrument, direction, timeframe string) *models.RenderedView {
	body := fmt.Sprintf("Instrument: %s\nDirection: %s\n", instrument, direction)
	if timeframe != "" {
		body += fmt.Sprintf("Timeframe: %s\n", timeframe)
	}
	return &models.RenderedView{
		UserID: userID,
		Title:  fmt.Sprintf("Signal: %s %s", instrument, direction),
		Body:   body,
		Buttons: []models.Button{
			{Label: "Technical", ID: TechnicalID(instrument)},
			{Label: "Sentiment", ID: SentimentID(instrument)},
			{Label: "Calendar", ID: CalendarID(instrument)},
			{Label: "AI Verdict", ID: VerdictID(instrument)},
			{Label: "Main Menu", ID: idMainMenu},
		},
	}
}

// RenderMainMenu is the generic fallback view.
func (v *ViewDispatcher) RenderMainMenu(userID string) *models.RenderedView {
	return &models.RenderedView{
		UserID: userID,
		Title:  "Main Menu",
		Body:   "Choose an instrument or wait for the next signal.",
	}
}

// Render resolves a routed request to its renderer.
func (v *ViewDispatcher) Render(ctx context.Context, req *models.ViewRequest) (*models.RenderedView, error) {
	switch req.Kind {
	case models.ViewSignal:
		return v.RenderSignalView(req.UserID, req.Instrument, req.Direction, req.Timeframe), nil
	case models.ViewTechnical, models.ViewSentiment, models.ViewCalendar, models.ViewVerdict:
		return v.RenderSubView(ctx, req.UserID, req.Kind, req.Instrument)
	case models.ViewMainMenu:
		return v.RenderMainMenu(req.UserID), nil
	default:
		return nil, fmt.Errorf("unknown view kind %q", req.Kind)
	}
}

func (v *ViewDispatcher) apologeticView(userID string, kind models.ViewKind, instrument string) *models.RenderedView {
	return &models.RenderedView{
		UserID:  userID,
		Title:   fmt.Sprintf("%s: %s", subViewTitles[kind], instrument),
		Body:    "Sorry, this analysis is temporarily unavailable. Please try again in a moment.",
		Buttons: v.subViewButtons(),
		IsError: true,
	}
}

func (v *ViewDispatcher) subViewButtons() []models.Button {
	return []models.Button{
		{Label: "Back to Signal", ID: idBackToSignal},
		{Label: "Main Menu", ID: idMainMenu},
	}
}
