package chat

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"SignalFlow/internal/domain/models"
	apphttp "SignalFlow/pkg/http"
	applogger "SignalFlow/pkg/logger"
)

func TestSendDeliversView(t *testing.T) {
	var got models.RenderedView
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	s := NewSender(srv.URL, "secret", apphttp.NewClient(), applogger.Nop())
	view := &models.RenderedView{
		UserID: "u1",
		Title:  "New Signal: EURUSD BUY",
		Body:   "Entry: 1.0850",
		Buttons: []models.Button{
			{Label: "Analyze", ID: "analyze_from_signal_EURUSD_x"},
		},
	}
	if err := s.Send(context.Background(), view); err != nil {
		t.Fatalf("Send: %v", err)
	}

	if auth != "Bearer secret" {
		t.Errorf("authorization header = %q", auth)
	}
	if got.UserID != "u1" || len(got.Buttons) != 1 {
		t.Errorf("delivered view = %+v", got)
	}
}

func TestSendReportsRejection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	s := NewSender(srv.URL, "", apphttp.NewClient(), applogger.Nop())
	if err := s.Send(context.Background(), &models.RenderedView{UserID: "u1"}); err == nil {
		t.Fatal("expected error for rejected delivery")
	}
}
