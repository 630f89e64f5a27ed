package usecase

import (
	"context"
	"errors"

	"SignalFlow/internal/domain/models"
	domrepo "SignalFlow/internal/domain/repository"
	applogger "SignalFlow/pkg/logger"
)

// Interactor handles one inbound interaction end to end: route, render,
// deliver. Recoverable faults still produce a user-facing view; the error is
// returned alongside so the transport can pick its status code.
type Interactor struct {
	router     *CallbackRouter
	dispatcher *ViewDispatcher
	sender     domrepo.ChatSender
	logger     *applogger.Logger
}

func NewInteractor(router *CallbackRouter, dispatcher *ViewDispatcher, sender domrepo.ChatSender, l *applogger.Logger) *Interactor {
	return &Interactor{
		router:     router,
		dispatcher: dispatcher,
		sender:     sender,
		logger:     l,
	}
}

// Handle routes and renders the interaction, then delivers the view. When
// routing fails recoverably the user still receives a generic view, and the
// routing error is returned for transport-level mapping.
func (i *Interactor) Handle(ctx context.Context, userID, interactionID string) error {
	req, routeErr := i.router.Route(ctx, userID, interactionID)
	if routeErr != nil {
		fallback := i.fallbackView(userID, routeErr)
		if fallback == nil {
			return routeErr
		}
		if err := i.sender.Send(ctx, fallback); err != nil {
			i.logger.Error("fallback view delivery failed",
				applogger.String("user_id", userID),
				applogger.Error(err))
		}
		return routeErr
	}

	view, err := i.dispatcher.Render(ctx, req)
	if err != nil {
		return err
	}
	return i.sender.Send(ctx, view)
}

func (i *Interactor) fallbackView(userID string, err error) *models.RenderedView {
	switch {
	case errors.Is(err, domrepo.ErrMalformedInteraction):
		return &models.RenderedView{
			UserID:  userID,
			Body:    "Sorry, that action could not be understood. Please use the buttons below the message.",
			IsError: true,
		}
	case errors.Is(err, domrepo.ErrStoreUnavailable):
		return &models.RenderedView{
			UserID:  userID,
			Body:    "Sorry, the service is temporarily unavailable. Please try again shortly.",
			IsError: true,
		}
	default:
		return nil
	}
}
