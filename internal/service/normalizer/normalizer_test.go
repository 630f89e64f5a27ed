package normalizer

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"SignalFlow/internal/domain/models"
	domrepo "SignalFlow/internal/domain/repository"
)

var testClock = func() time.Time {
	return time.Date(2025, 7, 14, 8, 0, 0, 0, time.UTC)
}

func newTestNormalizer() *Normalizer {
	return New(WithClock(testClock))
}

func TestNormalizeScalarTakeProfit(t *testing.T) {
	n := newTestNormalizer()

	sig, err := n.Normalize(map[string]interface{}{
		"instrument":  "EURUSD",
		"direction":   "buy",
		"entry":       "1.0850",
		"stop_loss":   "1.0800",
		"take_profit": "1.0900",
		"timeframe":   "4H",
	})
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}

	if sig.Direction != models.DirectionBuy {
		t.Errorf("direction = %s, want BUY", sig.Direction)
	}
	if !reflect.DeepEqual(sig.TakeProfit, []string{"1.0900"}) {
		t.Errorf("takeProfit = %v, want [1.0900]", sig.TakeProfit)
	}
	if sig.Entry != "1.0850" || sig.StopLoss != "1.0800" {
		t.Errorf("entry/sl = %s/%s", sig.Entry, sig.StopLoss)
	}
	if sig.Timeframe != "4H" {
		t.Errorf("timeframe = %s, want 4H", sig.Timeframe)
	}
}

func TestNormalizeDiscreteTakeProfitLevels(t *testing.T) {
	n := newTestNormalizer()

	sig, err := n.Normalize(map[string]interface{}{
		"instrument": "GBPUSD",
		"direction":  "SELL",
		"entry":      "1.2650",
		"sl":         "1.2700",
		"tp1":        "1.2600",
		"tp2":        "1.2550",
		"tp3":        "1.2500",
	})
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}

	want := []string{"1.2600", "1.2550", "1.2500"}
	if !reflect.DeepEqual(sig.TakeProfit, want) {
		t.Errorf("takeProfit = %v, want %v", sig.TakeProfit, want)
	}
	if sig.Direction != models.DirectionSell {
		t.Errorf("direction = %s, want SELL", sig.Direction)
	}
}

func TestNormalizeAliasEquivalence(t *testing.T) {
	n := newTestNormalizer()

	variants := []map[string]interface{}{
		{
			"instrument":  "EURUSD",
			"direction":   "buy",
			"entry":       "1.0850",
			"stop_loss":   "1.0800",
			"take_profit": []interface{}{"1.0900", "1.0950"},
			"timeframe":   "1H",
		},
		{
			"symbol":    "eurusd",
			"side":      "BUY",
			"price":     "1.0850",
			"sl":        "1.0800",
			"tp1":       "1.0900",
			"tp2":       "1.0950",
			"tf":        "1H",
		},
	}

	var first *models.Signal
	for i, raw := range variants {
		sig, err := n.Normalize(raw)
		if err != nil {
			t.Fatalf("variant %d: %v", i, err)
		}
		if first == nil {
			first = sig
			continue
		}
		if !reflect.DeepEqual(sig.TakeProfit, first.TakeProfit) {
			t.Errorf("variant %d takeProfit = %v, want %v", i, sig.TakeProfit, first.TakeProfit)
		}
		if sig.Instrument != first.Instrument || sig.Direction != first.Direction ||
			sig.Entry != first.Entry || sig.StopLoss != first.StopLoss ||
			sig.Timeframe != first.Timeframe {
			t.Errorf("variant %d differs from canonical: %+v vs %+v", i, sig, first)
		}
	}
}

func TestNormalizeArrayFormWinsOverLevels(t *testing.T) {
	n := newTestNormalizer()

	sig, err := n.Normalize(map[string]interface{}{
		"instrument":  "USDJPY",
		"direction":   "sell",
		"entry":       "155.20",
		"stop_loss":   "155.80",
		"take_profit": []interface{}{"154.50"},
		"tp1":         "999.99",
	})
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if !reflect.DeepEqual(sig.TakeProfit, []string{"154.50"}) {
		t.Errorf("takeProfit = %v, array form must win", sig.TakeProfit)
	}
}

func TestNormalizeSynthesizedID(t *testing.T) {
	n := newTestNormalizer()

	sig, err := n.Normalize(map[string]interface{}{
		"instrument":  "XAUUSD",
		"direction":   "buy",
		"entry":       "2350.0",
		"stop_loss":   "2340.0",
		"take_profit": "2375.0",
		"timeframe":   "15",
	})
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}

	want := "XAUUSD_BUY_15_" + "1752480000"
	if sig.ID != want {
		t.Errorf("id = %s, want %s", sig.ID, want)
	}
	if !sig.Timestamp.Equal(testClock()) {
		t.Errorf("timestamp = %v, want clock default", sig.Timestamp)
	}
}

func TestNormalizeKeepsPayloadID(t *testing.T) {
	n := newTestNormalizer()

	sig, err := n.Normalize(map[string]interface{}{
		"id":          "provider-77",
		"instrument":  "EURUSD",
		"direction":   "buy",
		"entry":       "1.0850",
		"stop_loss":   "1.0800",
		"take_profit": "1.0900",
	})
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if sig.ID != "provider-77" {
		t.Errorf("id = %s, want provider-77", sig.ID)
	}
}

func TestNormalizeRetainsUnknownKeys(t *testing.T) {
	n := newTestNormalizer()

	sig, err := n.Normalize(map[string]interface{}{
		"instrument":  "EURUSD",
		"direction":   "buy",
		"entry":       "1.0850",
		"stop_loss":   "1.0800",
		"take_profit": "1.0900",
		"strategy":    "breakout",
		"riskReward":  "1:2",
		"aiVerdict":   map[string]interface{}{"score": 0.8},
	})
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}

	for _, key := range []string{"strategy", "riskReward", "aiVerdict"} {
		if _, ok := sig.Extra[key]; !ok {
			t.Errorf("extra missing %q: %v", key, sig.Extra)
		}
	}
	if _, ok := sig.Extra["entry"]; ok {
		t.Errorf("consumed key leaked into extra")
	}
}

func TestNormalizeNumericCoercion(t *testing.T) {
	n := newTestNormalizer()

	sig, err := n.Normalize(map[string]interface{}{
		"instrument":  "BTCUSD",
		"direction":   "buy",
		"entry":       64250.5,
		"stop_loss":   63800,
		"take_profit": []interface{}{65000.0, 66000.0},
	})
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if sig.Entry != "64250.5" {
		t.Errorf("entry = %s, want 64250.5", sig.Entry)
	}
	if sig.StopLoss != "63800" {
		t.Errorf("stopLoss = %s, want 63800", sig.StopLoss)
	}
	if !reflect.DeepEqual(sig.TakeProfit, []string{"65000", "66000"}) {
		t.Errorf("takeProfit = %v", sig.TakeProfit)
	}
}

func TestNormalizeRejections(t *testing.T) {
	n := newTestNormalizer()

	cases := []struct {
		name string
		raw  map[string]interface{}
	}{
		{"missing instrument", map[string]interface{}{
			"direction": "buy", "entry": "1", "sl": "2", "tp": "3",
		}},
		{"missing direction", map[string]interface{}{
			"instrument": "EURUSD", "entry": "1", "sl": "2", "tp": "3",
		}},
		{"invalid direction", map[string]interface{}{
			"instrument": "EURUSD", "direction": "hold", "entry": "1", "sl": "2", "tp": "3",
		}},
		{"missing entry", map[string]interface{}{
			"instrument": "EURUSD", "direction": "buy", "sl": "2", "tp": "3",
		}},
		{"missing stop loss", map[string]interface{}{
			"instrument": "EURUSD", "direction": "buy", "entry": "1", "tp": "3",
		}},
		{"missing take profit", map[string]interface{}{
			"instrument": "EURUSD", "direction": "buy", "entry": "1", "sl": "2",
		}},
		{"garbage entry", map[string]interface{}{
			"instrument": "EURUSD", "direction": "buy", "entry": "abc", "sl": "2", "tp": "3",
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := n.Normalize(tc.raw)
			var rej *domrepo.RejectedPayload
			if !errors.As(err, &rej) {
				t.Fatalf("expected RejectedPayload, got %v", err)
			}
		})
	}
}
