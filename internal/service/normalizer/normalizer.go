package normalizer

import (
	"fmt"
	"strings"
	"time"

	"SignalFlow/internal/domain/models"
	domrepo "SignalFlow/internal/domain/repository"
	"SignalFlow/pkg/util"

	"github.com/shopspring/decimal"
)

// Alias resolution is data-driven: each canonical field lists the payload
// keys that may carry it, probed in order. Take-profit resolution follows a
// fixed priority: explicit array form, then discrete tp1..tp3 fields, then a
// scalar field. Payloads that differ only in which alias set they use must
// produce identical canonical output.
var (
	instrumentAliases = []string{"instrument", "symbol", "pair", "ticker", "market"}
	directionAliases  = []string{"direction", "side", "action"}
	entryAliases      = []string{"entry", "entry_price", "price", "open_price"}
	stopLossAliases   = []string{"stop_loss", "sl", "stopLoss", "stop"}
	timeframeAliases  = []string{"timeframe", "tf", "interval"}
	timestampAliases  = []string{"timestamp", "time", "created_at"}
	idAliases         = []string{"id", "signal_id"}

	takeProfitArrayAliases = []string{"take_profit", "take_profits", "tps", "targets"}
	takeProfitLevelAliases = [][]string{
		{"tp1", "take_profit_1"},
		{"tp2", "take_profit_2"},
		{"tp3", "take_profit_3"},
	}
	takeProfitScalarAliases = []string{"take_profit", "tp", "target"}
)

// Option configures a Normalizer.
type Option func(*Normalizer)

// WithClock overrides the time source used when a payload omits a timestamp.
func WithClock(now func() time.Time) Option {
	return func(n *Normalizer) {
		n.now = now
	}
}

// Normalizer converts arbitrary inbound payloads into canonical signals.
// Pure: no side effects beyond reading the clock for defaulted timestamps.
type Normalizer struct {
	now func() time.Time
}

func New(opts ...Option) *Normalizer {
	n := &Normalizer{now: time.Now}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Normalize reconciles raw into a canonical Signal or returns a
// RejectedPayload describing why it cannot.
func (n *Normalizer) Normalize(raw map[string]interface{}) (*models.Signal, error) {
	consumed := make(map[string]bool, len(raw))

	instrument, ok := firstString(raw, instrumentAliases, consumed)
	if !ok || strings.TrimSpace(instrument) == "" {
		return nil, domrepo.Rejectf("missing instrument")
	}
	instrument = strings.ToUpper(strings.TrimSpace(instrument))

	rawDir, ok := firstString(raw, directionAliases, consumed)
	if !ok {
		return nil, domrepo.Rejectf("missing direction")
	}
	direction, ok := models.ParseDirection(strings.TrimSpace(rawDir))
	if !ok {
		return nil, domrepo.Rejectf("invalid direction %q", rawDir)
	}

	entry, err := resolveDecimal(raw, entryAliases, consumed)
	if err != nil {
		return nil, err
	}
	if entry == "" {
		return nil, domrepo.Rejectf("missing entry price")
	}

	stopLoss, err := resolveDecimal(raw, stopLossAliases, consumed)
	if err != nil {
		return nil, err
	}
	if stopLoss == "" {
		return nil, domrepo.Rejectf("missing stop loss")
	}

	takeProfit, err := resolveTakeProfit(raw, consumed)
	if err != nil {
		return nil, err
	}
	if len(takeProfit) == 0 {
		return nil, domrepo.Rejectf("missing take profit")
	}

	timeframe, _ := firstString(raw, timeframeAliases, consumed)
	timeframe = strings.TrimSpace(timeframe)

	timestamp := n.resolveTimestamp(raw, consumed)

	id, _ := firstString(raw, idAliases, consumed)
	if strings.TrimSpace(id) == "" {
		id = fmt.Sprintf("%s_%s_%s_%d", instrument, direction, timeframe, timestamp.Unix())
	}

	extra := make(map[string]interface{})
	for k, v := range raw {
		if !consumed[k] {
			extra[k] = v
		}
	}
	if len(extra) == 0 {
		extra = nil
	}

	return &models.Signal{
		ID:         id,
		Instrument: instrument,
		Direction:  direction,
		Entry:      entry,
		StopLoss:   stopLoss,
		TakeProfit: takeProfit,
		Timeframe:  timeframe,
		Timestamp:  timestamp,
		Extra:      extra,
	}, nil
}

func (n *Normalizer) resolveTimestamp(raw map[string]interface{}, consumed map[string]bool) time.Time {
	for _, key := range timestampAliases {
		v, ok := raw[key]
		if !ok {
			continue
		}
		switch ts := v.(type) {
		case string:
			if t, ok := util.ParseTime(ts); ok {
				consumed[key] = true
				return t
			}
		case float64:
			if ts > 0 {
				consumed[key] = true
				return time.Unix(int64(ts), 0)
			}
		case int64:
			if ts > 0 {
				consumed[key] = true
				return time.Unix(ts, 0)
			}
		}
	}
	return n.now()
}

func resolveTakeProfit(raw map[string]interface{}, consumed map[string]bool) ([]string, error) {
	// 1. Explicit array form.
	for _, key := range takeProfitArrayAliases {
		arr, ok := raw[key].([]interface{})
		if !ok || len(arr) == 0 {
			continue
		}
		levels := make([]string, 0, len(arr))
		for _, v := range arr {
			s, err := canonDecimal(v)
			if err != nil {
				return nil, domrepo.Rejectf("invalid take profit value %v", v)
			}
			levels = append(levels, s)
		}
		consumed[key] = true
		return levels, nil
	}

	// 2. Discrete tp1..tp3 fields, in order.
	var levels []string
	for _, aliases := range takeProfitLevelAliases {
		for _, key := range aliases {
			v, ok := raw[key]
			if !ok {
				continue
			}
			s, err := canonDecimal(v)
			if err != nil {
				return nil, domrepo.Rejectf("invalid take profit value %v", v)
			}
			consumed[key] = true
			levels = append(levels, s)
			break
		}
	}
	if len(levels) > 0 {
		return levels, nil
	}

	// 3. Scalar field.
	for _, key := range takeProfitScalarAliases {
		v, ok := raw[key]
		if !ok {
			continue
		}
		s, err := canonDecimal(v)
		if err != nil {
			return nil, domrepo.Rejectf("invalid take profit value %v", v)
		}
		consumed[key] = true
		return []string{s}, nil
	}

	return nil, nil
}

func resolveDecimal(raw map[string]interface{}, aliases []string, consumed map[string]bool) (string, error) {
	for _, key := range aliases {
		v, ok := raw[key]
		if !ok {
			continue
		}
		s, err := canonDecimal(v)
		if err != nil {
			return "", domrepo.Rejectf("invalid %s value %v", key, v)
		}
		consumed[key] = true
		return s, nil
	}
	return "", nil
}

// canonDecimal coerces a raw numeric value to its canonical string-decimal
// form. String inputs keep their source precision verbatim once validated;
// numeric inputs render through shopspring/decimal so no binary float
// representation leaks into the canonical record.
func canonDecimal(v interface{}) (string, error) {
	switch num := v.(type) {
	case string:
		s := strings.TrimSpace(num)
		if _, err := decimal.NewFromString(s); err != nil {
			return "", err
		}
		return s, nil
	case float64:
		return decimal.NewFromFloat(num).String(), nil
	case int:
		return decimal.NewFromInt(int64(num)).String(), nil
	case int64:
		return decimal.NewFromInt(num).String(), nil
	default:
		return "", fmt.Errorf("unsupported numeric type %T", v)
	}
}

func firstString(raw map[string]interface{}, aliases []string, consumed map[string]bool) (string, bool) {
	for _, key := range aliases {
		if v, ok := raw[key]; ok {
			if s, ok := v.(string); ok {
				consumed[key] = true
				return s, true
			}
		}
	}
	return "", false
}
