package api

import (
	"errors"

	"github.com/labstack/echo/v4"

	"SignalFlow/internal/domain/models"
	domrepo "SignalFlow/internal/domain/repository"
	"SignalFlow/internal/usecase"
	xhttp "SignalFlow/pkg/http"
	xlogger "SignalFlow/pkg/logger"
	"SignalFlow/pkg/util"
)

// SignalsHandler exposes the webhook ingest boundary, the interaction
// boundary, and the signal management API.
type SignalsHandler struct {
	logger     *xlogger.Logger
	ingestor   *usecase.Ingestor
	interactor *usecase.Interactor
	store      domrepo.SignalStore
}

func NewSignalsHandler(l *xlogger.Logger, ingestor *usecase.Ingestor, interactor *usecase.Interactor, store domrepo.SignalStore) *SignalsHandler {
	return &SignalsHandler{
		logger:     l,
		ingestor:   ingestor,
		interactor: interactor,
		store:      store,
	}
}

func (h *SignalsHandler) RegisterRoutes(e *echo.Echo) {
	e.POST("/webhook/signal", h.IngestSignal)

	g := e.Group("/api")
	g.POST("/interactions", h.HandleInteraction)
	g.GET("/signals", h.ListSignals)
	g.GET("/signals/:id", h.GetSignal)
	g.DELETE("/signals/:id", h.DeleteSignal)
}

// IngestSignal accepts an arbitrary provider payload. The owning user comes
// from the X-Owner-Id header or the owner query parameter.
func (h *SignalsHandler) IngestSignal(c echo.Context) error {
	owner := c.Request().Header.Get("X-Owner-Id")
	if owner == "" {
		owner = c.QueryParam("owner")
	}
	if owner == "" {
		return xhttp.BadRequestResponse(c, "owner is required")
	}

	raw := map[string]interface{}{}
	if err := c.Bind(&raw); err != nil {
		return xhttp.BadRequestResponse(c, "body must be a JSON object")
	}

	sig, err := h.ingestor.Ingest(c.Request().Context(), "webhook", owner, raw)
	if err != nil {
		var rejected *domrepo.RejectedPayload
		if errors.As(err, &rejected) {
			return xhttp.AppErrorResponse(c, xhttp.UnprocessableError(rejected.Reason))
		}
		h.logger.Error("ingest failed", xlogger.String("owner", owner), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.UnavailableError("signal could not be stored"))
	}

	return xhttp.AcceptedResponse(c, map[string]string{"id": sig.ID})
}

// HandleInteraction processes one interaction identifier from the chat
// front end. The user always receives a view; the status code reflects what
// happened.
func (h *SignalsHandler) HandleInteraction(c echo.Context) error {
	req := &models.InteractionRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	err := h.interactor.Handle(c.Request().Context(), req.UserID, req.InteractionID)
	switch {
	case err == nil:
		return xhttp.NoContentResponse(c)
	case errors.Is(err, domrepo.ErrMalformedInteraction):
		return xhttp.AppErrorResponse(c, xhttp.BadRequestError("unrecognized interaction"))
	case errors.Is(err, domrepo.ErrStoreUnavailable):
		return xhttp.AppErrorResponse(c, xhttp.UnavailableError("store unavailable, retry later"))
	default:
		h.logger.Error("interaction failed",
			xlogger.String("user_id", req.UserID),
			xlogger.String("interaction_id", req.InteractionID),
			xlogger.Error(err))
		return xhttp.InternalServerErrorResponse(c)
	}
}

// ListSignals returns stored signals for an owner, up to the limit query
// parameter (default 100).
func (h *SignalsHandler) ListSignals(c echo.Context) error {
	req := &models.ListSignalsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	limit := util.ParseIntDefault(c.QueryParam("limit"), 100)

	ctx := c.Request().Context()
	ids, err := h.store.ListKeys(ctx, req.Owner)
	if err != nil {
		return h.storeError(c, err)
	}
	if limit > 0 && len(ids) > limit {
		ids = ids[:limit]
	}

	signals := make([]*models.Signal, 0, len(ids))
	for _, id := range ids {
		sig, err := h.store.Get(ctx, req.Owner, id)
		if err != nil {
			if errors.Is(err, domrepo.ErrSignalNotFound) {
				// Expired between scan and fetch.
				continue
			}
			return h.storeError(c, err)
		}
		signals = append(signals, sig)
	}

	return xhttp.ListResponse(c, signals, int64(len(signals)))
}

// GetSignal returns one stored signal.
func (h *SignalsHandler) GetSignal(c echo.Context) error {
	owner := c.QueryParam("owner")
	if owner == "" {
		return xhttp.BadRequestResponse(c, "owner is required")
	}

	sig, err := h.store.Get(c.Request().Context(), owner, c.Param("id"))
	if err != nil {
		if errors.Is(err, domrepo.ErrSignalNotFound) {
			return xhttp.NotFoundResponse(c, "signal not found")
		}
		return h.storeError(c, err)
	}
	return xhttp.SuccessResponse(c, sig)
}

// DeleteSignal removes one stored signal. Idempotent.
func (h *SignalsHandler) DeleteSignal(c echo.Context) error {
	owner := c.QueryParam("owner")
	if owner == "" {
		return xhttp.BadRequestResponse(c, "owner is required")
	}

	if err := h.store.Delete(c.Request().Context(), owner, c.Param("id")); err != nil {
		return h.storeError(c, err)
	}
	return xhttp.NoContentResponse(c)
}

func (h *SignalsHandler) storeError(c echo.Context, err error) error {
	if errors.Is(err, domrepo.ErrStoreUnavailable) {
		return xhttp.AppErrorResponse(c, xhttp.UnavailableError("store unavailable, retry later"))
	}
	h.logger.Error("store operation failed", xlogger.Error(err))
	return xhttp.InternalServerErrorResponse(c)
}
