package models

// ViewKind names a downstream renderer.
type ViewKind string

const (
	ViewSignal    ViewKind = "signal"
	ViewTechnical ViewKind = "technical"
	ViewSentiment ViewKind = "sentiment"
	ViewCalendar  ViewKind = "calendar"
	ViewVerdict   ViewKind = "verdict"
	ViewMainMenu  ViewKind = "main_menu"
)

// ViewRequest names the renderer to invoke and its resolved parameters.
// Produced by the callback router; the router itself never renders text.
type ViewRequest struct {
	Kind       ViewKind `json:"kind"`
	UserID     string   `json:"userId"`
	Instrument string   `json:"instrument,omitempty"`
	Direction  string   `json:"direction,omitempty"`
	Timeframe  string   `json:"timeframe,omitempty"`
	SignalID   string   `json:"signalId,omitempty"`
}

// Button is one interaction control attached to a rendered view. ID is the
// opaque interaction identifier the chat front end echoes back.
type Button struct {
	Label string `json:"label"`
	ID    string `json:"id"`
}

// RenderedView is the output handed to the chat front-end boundary.
type RenderedView struct {
	UserID  string   `json:"userId"`
	Title   string   `json:"title,omitempty"`
	Body    string   `json:"body"`
	Buttons []Button `json:"buttons,omitempty"`
	IsError bool     `json:"isError,omitempty"`
}
