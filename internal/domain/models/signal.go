package models

import (
	"strings"
	"time"
)

// Direction is the side of a trading signal.
type Direction string

const (
	DirectionBuy  Direction = "BUY"
	DirectionSell Direction = "SELL"
)

// ParseDirection maps a raw direction value to the enum, case-insensitively.
// Invalid values are rejected, never coerced to a default.
func ParseDirection(s string) (Direction, bool) {
	switch {
	case strings.EqualFold(s, "buy"), strings.EqualFold(s, "long"):
		return DirectionBuy, true
	case strings.EqualFold(s, "sell"), strings.EqualFold(s, "short"):
		return DirectionSell, true
	}
	return "", false
}

// Signal is the canonical trading-signal record. Numeric price fields are
// stored as canonical decimal strings so no wire format introduces float
// drift. TakeProfit is always a non-empty ordered sequence.
type Signal struct {
	ID         string                 `json:"id"`
	Instrument string                 `json:"instrument"`
	Direction  Direction              `json:"direction"`
	Entry      string                 `json:"entry"`
	StopLoss   string                 `json:"stopLoss"`
	TakeProfit []string               `json:"takeProfit"`
	Timeframe  string                 `json:"timeframe"`
	Timestamp  time.Time              `json:"timestamp"`
	Extra      map[string]interface{} `json:"extra,omitempty"`
}

// Ref returns the triple needed to re-render this signal's view.
func (s *Signal) Ref() SignalRef {
	return SignalRef{
		Instrument: s.Instrument,
		Direction:  string(s.Direction),
		Timeframe:  s.Timeframe,
	}
}

// SignalRef identifies a signal view without the full record.
type SignalRef struct {
	Instrument string `json:"instrument"`
	Direction  string `json:"direction"`
	Timeframe  string `json:"timeframe"`
}

// FeedEnvelope is one inbound frame from the provider feed: the owning user
// and the raw signal payload, passed through untouched.
type FeedEnvelope struct {
	OwnerID string                 `json:"owner_id"`
	Payload map[string]interface{} `json:"payload"`
}
