package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	domrepo "SignalFlow/internal/domain/repository"
	"SignalFlow/internal/usecase"
	applogger "SignalFlow/pkg/logger"
)

// signalEnvelope is the message shape on the ingest topic: the owning user
// plus the raw provider payload, untouched.
type signalEnvelope struct {
	OwnerID string                 `json:"owner_id"`
	Payload map[string]interface{} `json:"payload"`
}

// SignalsHandler consumes provider payloads from the Kafka ingest topic and
// runs them through the same path as the webhook.
type SignalsHandler struct {
	topic    string
	ingestor *usecase.Ingestor
	logger   *applogger.Logger
}

func NewSignalsHandler(topic string, ingestor *usecase.Ingestor, l *applogger.Logger) *SignalsHandler {
	return &SignalsHandler{topic: topic, ingestor: ingestor, logger: l}
}

func (h *SignalsHandler) Topic() string { return h.topic }

func (h *SignalsHandler) Handle(ctx context.Context, data []byte) error {
	var env signalEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		// Not retryable; the consumer dead-letters it.
		return fmt.Errorf("decode signal envelope: %w", err)
	}
	if env.OwnerID == "" {
		return fmt.Errorf("signal envelope missing owner_id")
	}

	_, err := h.ingestor.Ingest(ctx, "kafka", env.OwnerID, env.Payload)
	if err != nil {
		var rejected *domrepo.RejectedPayload
		if errors.As(err, &rejected) {
			// Producer error. Acknowledged without storing; retrying the
			// same payload cannot succeed.
			h.logger.Warn("rejected payload on ingest topic",
				applogger.String("owner_id", env.OwnerID),
				applogger.String("reason", rejected.Reason))
			return nil
		}
		return err
	}
	return nil
}
