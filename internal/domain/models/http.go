package models

// Requests for the inbound HTTP boundary. Defined in domain for consistency
// and reuse.

// InteractionRequest carries an inbound interaction from the chat front end.
type InteractionRequest struct {
	UserID        string `json:"user_id" validate:"required"`
	InteractionID string `json:"interaction_id" validate:"required"`
}

// ListSignalsRequest queries an owner's stored signal ids.
type ListSignalsRequest struct {
	Owner string `query:"owner" json:"owner" validate:"required"`
}
