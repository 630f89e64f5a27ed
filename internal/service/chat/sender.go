package chat

import (
	"context"
	"fmt"

	"SignalFlow/internal/domain/models"
	apphttp "SignalFlow/pkg/http"
	applogger "SignalFlow/pkg/logger"
)

// Sender posts rendered views to the chat front-end boundary.
type Sender struct {
	client *apphttp.Client
	url    string
	token  string
	logger *applogger.Logger
}

func NewSender(url, token string, client *apphttp.Client, l *applogger.Logger) *Sender {
	return &Sender{
		client: client,
		url:    url,
		token:  token,
		logger: l,
	}
}

// Send delivers one rendered view. The chat boundary acknowledges with a 2xx;
// anything else is a delivery failure for the caller to handle.
func (s *Sender) Send(ctx context.Context, view *models.RenderedView) error {
	headers := map[string]string{}
	if s.token != "" {
		headers["Authorization"] = "Bearer " + s.token
	}

	err := s.client.SendAndParse(ctx, &apphttp.RequestOptions{
		Method:  apphttp.MethodPost,
		URL:     s.url,
		Headers: headers,
		Body:    view,
	}, nil)
	if err != nil {
		return fmt.Errorf("deliver view to %s: %w", view.UserID, err)
	}

	s.logger.Debug("view delivered",
		applogger.String("user_id", view.UserID),
		applogger.String("title", view.Title))
	return nil
}
