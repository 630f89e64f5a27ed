package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"SignalFlow/internal/domain/models"
	domrepo "SignalFlow/internal/domain/repository"
	"SignalFlow/internal/repository"
	"SignalFlow/internal/service/normalizer"
	"SignalFlow/internal/usecase"
	"SignalFlow/pkg/cache"
	applogger "SignalFlow/pkg/logger"
)

type nopMetrics struct{}

func (nopMetrics) RecordSignalIngested(source, instrument string)                  {}
func (nopMetrics) RecordPayloadRejected(source, reason string)                     {}
func (nopMetrics) RecordInteractionRouted(action string)                           {}
func (nopMetrics) RecordStoreError(op string)                                      {}
func (nopMetrics) RecordCollaboratorLatency(kind, outcome string, seconds float64) {}
func (nopMetrics) RecordDelivery(outcome string)                                   {}

type nopSender struct{}

func (nopSender) Send(ctx context.Context, view *models.RenderedView) error { return nil }

type fixture struct {
	e     *echo.Echo
	store domrepo.SignalStore
}

func newFixture() *fixture {
	mem := cache.NewMemoryCache()
	log := applogger.Nop()
	store := repository.NewCachedSignalStore(mem, log, nopMetrics{})
	contexts := repository.NewCachedContextManager(mem, time.Hour, log)
	dispatcher := usecase.NewViewDispatcher(contexts, nil, nopMetrics{}, log)
	router := usecase.NewCallbackRouter(store, contexts, nopMetrics{}, log)
	norm := normalizer.New()
	ingestor := usecase.NewIngestor(norm, store, dispatcher, nopSender{}, nopMetrics{}, log, time.Hour)
	interactor := usecase.NewInteractor(router, dispatcher, nopSender{}, log)

	e := echo.New()
	NewSignalsHandler(log, ingestor, interactor, store).RegisterRoutes(e)
	NewHealthHandler(mem, log).RegisterRoutes(e)
	return &fixture{e: e, store: store}
}

func doJSON(e *echo.Echo, method, target, body string, headers map[string]string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestIngestSignalEndpoint(t *testing.T) {
	f := newFixture()

	body := `{"instrument":"EURUSD","direction":"buy","entry":"1.0850","stop_loss":"1.0800","take_profit":"1.0900","timeframe":"4H"}`
	rec := doJSON(f.e, http.MethodPost, "/webhook/signal", body, map[string]string{"X-Owner-Id": "u1"})
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	ids, err := f.store.ListKeys(context.Background(), "u1")
	if err != nil {
		t.Fatalf("ListKeys: %v", err)
	}
	if len(ids) != 1 {
		t.Fatalf("stored %d signals, want 1", len(ids))
	}
}

func TestIngestSignalRejectsBadPayload(t *testing.T) {
	f := newFixture()

	rec := doJSON(f.e, http.MethodPost, "/webhook/signal?owner=u1",
		`{"instrument":"EURUSD","direction":"sideways"}`, nil)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rec.Code)
	}
}

func TestIngestSignalRequiresOwner(t *testing.T) {
	f := newFixture()

	rec := doJSON(f.e, http.MethodPost, "/webhook/signal", `{"instrument":"EURUSD"}`, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestInteractionEndpointStatusMapping(t *testing.T) {
	f := newFixture()

	t.Run("malformed is a client error", func(t *testing.T) {
		rec := doJSON(f.e, http.MethodPost, "/api/interactions",
			`{"user_id":"u1","interaction_id":"signal_flow_technica_XYZ"}`, nil)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("valid interaction succeeds", func(t *testing.T) {
		rec := doJSON(f.e, http.MethodPost, "/api/interactions",
			`{"user_id":"u1","interaction_id":"main_menu"}`, nil)
		if rec.Code != http.StatusNoContent {
			t.Fatalf("status = %d, want 204, body %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("missing fields rejected", func(t *testing.T) {
		rec := doJSON(f.e, http.MethodPost, "/api/interactions", `{"user_id":"u1"}`, nil)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", rec.Code)
		}
	})
}

func TestSignalCRUD(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	sig := &models.Signal{
		ID:         "EURUSD_BUY_1H_100",
		Instrument: "EURUSD",
		Direction:  models.DirectionBuy,
		Entry:      "1.0850",
		StopLoss:   "1.0800",
		TakeProfit: []string{"1.0900"},
		Timeframe:  "1h",
		Timestamp:  time.Now(),
	}
	if err := f.store.Put(ctx, "u1", sig, time.Hour); err != nil {
		t.Fatalf("Put: %v", err)
	}

	t.Run("get", func(t *testing.T) {
		rec := doJSON(f.e, http.MethodGet, "/api/signals/EURUSD_BUY_1H_100?owner=u1", "", nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
		var resp struct {
			Data models.Signal `json:"data"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if resp.Data.Instrument != "EURUSD" {
			t.Errorf("instrument = %q", resp.Data.Instrument)
		}
	})

	t.Run("list", func(t *testing.T) {
		rec := doJSON(f.e, http.MethodGet, "/api/signals?owner=u1", "", nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
	})

	t.Run("get missing", func(t *testing.T) {
		rec := doJSON(f.e, http.MethodGet, "/api/signals/nope?owner=u1", "", nil)
		if rec.Code != http.StatusNotFound {
			t.Fatalf("status = %d, want 404", rec.Code)
		}
	})

	t.Run("delete", func(t *testing.T) {
		rec := doJSON(f.e, http.MethodDelete, "/api/signals/EURUSD_BUY_1H_100?owner=u1", "", nil)
		if rec.Code != http.StatusNoContent {
			t.Fatalf("status = %d, want 204", rec.Code)
		}
		if _, err := f.store.Get(ctx, "u1", sig.ID); !errors.Is(err, domrepo.ErrSignalNotFound) {
			t.Errorf("signal still present after delete: %v", err)
		}
	})
}

func TestHealthEndpoints(t *testing.T) {
	f := newFixture()

	if rec := doJSON(f.e, http.MethodGet, "/healthz", "", nil); rec.Code != http.StatusOK {
		t.Errorf("healthz status = %d", rec.Code)
	}
	if rec := doJSON(f.e, http.MethodGet, "/readyz", "", nil); rec.Code != http.StatusOK {
		t.Errorf("readyz status = %d", rec.Code)
	}
}
