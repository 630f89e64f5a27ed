package analysis

import (
	"context"
	"fmt"
	"strings"
	"time"

	"SignalFlow/internal/domain/models"
	apphttp "SignalFlow/pkg/http"
	applogger "SignalFlow/pkg/logger"
)

const defaultRetryDelay = 200 * time.Millisecond

// response is the shape every analysis service answers with.
type response struct {
	Summary string `json:"summary"`
	Detail  string `json:"detail,omitempty"`
}

// Collaborator is one external analysis service (technical, sentiment,
// calendar, AI verdict) reached over HTTP. Transient failures are retried a
// small, fixed number of times; the caller's deadline still bounds the whole
// call.
type Collaborator struct {
	kind    models.ViewKind
	baseURL string
	client  *apphttp.Client
	retries int
	logger  *applogger.Logger
}

type Option func(*Collaborator)

// WithRetries sets how many times a failed fetch is retried.
func WithRetries(n int) Option {
	return func(c *Collaborator) {
		if n >= 0 {
			c.retries = n
		}
	}
}

func New(kind models.ViewKind, baseURL string, client *apphttp.Client, l *applogger.Logger, opts ...Option) *Collaborator {
	c := &Collaborator{
		kind:    kind,
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
		retries: 1,
		logger:  l,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func NewTechnical(baseURL string, client *apphttp.Client, l *applogger.Logger, opts ...Option) *Collaborator {
	return New(models.ViewTechnical, baseURL, client, l, opts...)
}

func NewSentiment(baseURL string, client *apphttp.Client, l *applogger.Logger, opts ...Option) *Collaborator {
	return New(models.ViewSentiment, baseURL, client, l, opts...)
}

func NewCalendar(baseURL string, client *apphttp.Client, l *applogger.Logger, opts ...Option) *Collaborator {
	return New(models.ViewCalendar, baseURL, client, l, opts...)
}

func NewVerdict(baseURL string, client *apphttp.Client, l *applogger.Logger, opts ...Option) *Collaborator {
	return New(models.ViewVerdict, baseURL, client, l, opts...)
}

func (c *Collaborator) Kind() models.ViewKind { return c.kind }

// Analyze fetches renderable text for the instrument.
func (c *Collaborator) Analyze(ctx context.Context, instrument string) (string, error) {
	var lastErr error
	for attempt := 0; attempt <= c.retries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(defaultRetryDelay):
			}
			c.logger.Debug("retrying analysis fetch",
				applogger.String("kind", string(c.kind)),
				applogger.String("instrument", instrument),
				applogger.Int("attempt", attempt))
		}

		text, err := c.fetch(ctx, instrument)
		if err == nil {
			return text, nil
		}
		lastErr = err
	}
	return "", fmt.Errorf("%s analysis for %s: %w", c.kind, instrument, lastErr)
}

func (c *Collaborator) fetch(ctx context.Context, instrument string) (string, error) {
	var resp response
	err := c.client.SendAndParse(ctx, &apphttp.RequestOptions{
		Method:      apphttp.MethodGet,
		URL:         c.baseURL + "/analyze",
		QueryParams: map[string][]string{"instrument": {instrument}},
	}, &resp)
	if err != nil {
		return "", err
	}
	if resp.Summary == "" {
		return "", fmt.Errorf("empty summary for %s", instrument)
	}
	if resp.Detail != "" {
		return resp.Summary + "\n\n" + resp.Detail, nil
	}
	return resp.Summary, nil
}
