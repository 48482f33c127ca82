package router

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/easyscale/clinic-ai-engine/internal/engine"
	"github.com/easyscale/clinic-ai-engine/internal/reasoner"
	"github.com/easyscale/clinic-ai-engine/pkg/logging"
)

type cannedReasoner struct {
	reply string
}

func (c *cannedReasoner) Complete(_ context.Context, _ reasoner.Request) (reasoner.Response, error) {
	return reasoner.Response{Text: c.reply}, nil
}

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()

	logger := logging.Default()
	svc := engine.New(engine.Options{
		Client:  &cannedReasoner{reply: `{"intentions": ["GENERAL_INFO"], "urgency_score": 1, "confidence": 0.9}`},
		Model:   "test-model",
		Timeout: time.Second,
		Logger:  logger,
	})
	cfg := &Config{
		Logger:        logger,
		EngineHandler: engine.NewHandler(svc, nil, logger),
	}

	return New(cfg)
}

func TestRouterHealthEndpoint(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}

	var resp map[string]string
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode health response: %v", err)
	}

	if resp["status"] != "ok" {
		t.Errorf("expected status 'ok', got %q", resp["status"])
	}
}

func TestRouterRouteEndpoint(t *testing.T) {
	router := newTestRouter(t)

	body, err := json.Marshal(engine.RouteRequest{LatestMessage: "Qual o horário de funcionamento?"})
	if err != nil {
		t.Fatalf("failed to marshal payload: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/v1/route", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}

	var resp engine.RouteResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Intents) == 0 {
		t.Fatalf("expected at least one intent")
	}
	if resp.Intents[0] != "GENERAL_INFO" {
		t.Errorf("expected GENERAL_INFO, got %q", resp.Intents[0])
	}
}

func TestRouterUnknownRoute(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/nope", nil)
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected status %d, got %d", http.StatusNotFound, rr.Code)
	}
}

func TestRouterCORSHeaders(t *testing.T) {
	logger := logging.Default()
	svc := engine.New(engine.Options{
		Client:  &cannedReasoner{reply: `{}`},
		Timeout: time.Second,
		Logger:  logger,
	})
	router := New(&Config{
		Logger:             logger,
		EngineHandler:      engine.NewHandler(svc, nil, logger),
		CORSAllowedOrigins: []string{"https://app.easyscale.com.br"},
	})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://app.easyscale.com.br")
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "https://app.easyscale.com.br" {
		t.Errorf("expected allow origin header, got %q", got)
	}
}
