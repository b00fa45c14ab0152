package api

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trader-gateway/internal/backend"
	"trader-gateway/internal/dashboard"
	"trader-gateway/internal/monitor"
	"trader-gateway/internal/provision"
)

// newUpstream builds a fake trading backend covering the endpoints the tests
// touch. Unhandled paths answer 404 so missing stubs surface loudly.
func newUpstream(t *testing.T, register func(mux *http.ServeMux)) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	if register != nil {
		register(mux)
	}
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestServer(t *testing.T, upstreamURL string) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	log := logrus.New()
	log.SetOutput(io.Discard)

	client := backend.New(upstreamURL, 5*time.Second)
	registry := provision.NewRegistry(
		provision.Venue{ID: "binance", Name: "Binance Futures"},
		provision.Venue{ID: "hyperliquid", Name: "Hyperliquid", Wallet: true},
	)
	resolver := provision.NewResolver(client, registry, provision.ProviderSecrets{}, nil, log)

	return NewServer(Deps{
		Backend:        client,
		Orchestrator:   provision.NewOrchestrator(resolver, client, "deepseek", log),
		Aggregator:     dashboard.NewAggregator(client, 2*time.Second, log),
		Registry:       registry,
		Metrics:        monitor.NewSystemMetrics(),
		Log:            log,
		RequestTimeout: 10 * time.Second,
		DashboardTTL:   time.Minute,
		Version:        "test",
	})
}

func doRequest(s *Server, method, path, token, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	s.Router.ServeHTTP(w, req)
	return w
}

func decodeJSON(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestHealth(t *testing.T) {
	srv := newUpstream(t, nil)
	s := newTestServer(t, srv.URL)

	w := doRequest(s, "GET", "/health", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
	body := decodeJSON(t, w)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "test", body["version"])
}

func TestRequireAuthRejectsBeforeUpstream(t *testing.T) {
	upstreamCalled := false
	srv := newUpstream(t, func(mux *http.ServeMux) {
		mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
			upstreamCalled = true
		})
	})
	s := newTestServer(t, srv.URL)

	w := doRequest(s, "GET", "/api/traders", "", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "MISSING_TOKEN", decodeJSON(t, w)["code"])

	req := httptest.NewRequest("GET", "/api/traders", nil)
	req.Header.Set("Authorization", "Token abc")
	rec := httptest.NewRecorder()
	s.Router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "INVALID_AUTH_HEADER", body["code"])

	assert.False(t, upstreamCalled)
}

func TestCreateTraderWalletVenueEndToEnd(t *testing.T) {
	var createdSpec backend.TraderSpec
	srv := newUpstream(t, func(mux *http.ServeMux) {
		mux.HandleFunc("GET /api/models", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`[{"id":"m-1","provider":"deepseek","enabled":true}]`))
		})
		mux.HandleFunc("PUT /api/exchanges/{id}", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"success":true}`))
		})
		mux.HandleFunc("POST /api/traders", func(w http.ResponseWriter, r *http.Request) {
			data, _ := io.ReadAll(r.Body)
			json.Unmarshal(data, &createdSpec)
			w.Write([]byte(`{"trader_id":"t-1","trader_name":"Alpha"}`))
		})
	})
	s := newTestServer(t, srv.URL)

	w := doRequest(s, "POST", "/api/traders", "tok",
		`{"name":"Alpha","ai_model":"deepseek","exchange":"hyperliquid","initial_balance":1000}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	body := decodeJSON(t, w)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, true, body["is_new_wallet"])
	assert.Equal(t, true, body["needs_deposit"])
	assert.Regexp(t, `^0x[0-9a-fA-F]{40}$`, body["wallet_address"])

	assert.Equal(t, "m-1", createdSpec.AIModelID)
	assert.Contains(t, createdSpec.ExchangeID, "hyperliquid_")
	assert.Equal(t, 1000.0, createdSpec.InitialBalance)
}

func TestCreateTraderUnknownVenue(t *testing.T) {
	srv := newUpstream(t, func(mux *http.ServeMux) {
		mux.HandleFunc("GET /api/models", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`[{"id":"m-1","provider":"deepseek","enabled":true}]`))
		})
	})
	s := newTestServer(t, srv.URL)

	w := doRequest(s, "POST", "/api/traders", "tok",
		`{"name":"Alpha","exchange":"kraken"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	body := decodeJSON(t, w)
	assert.Equal(t, "INVALID_VENUE", body["code"])
	assert.Equal(t, "exchange", body["step"])
}

func TestCreateTraderRejectsBadPayload(t *testing.T) {
	srv := newUpstream(t, nil)
	s := newTestServer(t, srv.URL)

	w := doRequest(s, "POST", "/api/traders", "tok", `{"exchange":"binance"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_PAYLOAD", decodeJSON(t, w)["code"])
}

func TestStopTrader(t *testing.T) {
	stopped := false
	srv := newUpstream(t, func(mux *http.ServeMux) {
		mux.HandleFunc("POST /api/traders/t-1/stop", func(w http.ResponseWriter, r *http.Request) {
			stopped = true
			assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
			w.Write([]byte(`{"status":"stopped"}`))
		})
	})
	s := newTestServer(t, srv.URL)

	w := doRequest(s, "POST", "/api/traders/t-1/stop", "tok", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, stopped)
	assert.Equal(t, true, decodeJSON(t, w)["success"])
}

func TestDashboardMissingTrader(t *testing.T) {
	srv := newUpstream(t, func(mux *http.ServeMux) {
		mux.HandleFunc("GET /api/traders/ghost/config", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		})
	})
	s := newTestServer(t, srv.URL)

	w := doRequest(s, "GET", "/api/traders/ghost/dashboard", "tok", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "TRADER_NOT_FOUND", decodeJSON(t, w)["code"])
}

func TestDecisionRoutesForwardTokenAndQuery(t *testing.T) {
	var latestCalled bool
	srv := newUpstream(t, func(mux *http.ServeMux) {
		mux.HandleFunc("GET /api/decisions", func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
			assert.Equal(t, "t-1", r.URL.Query().Get("trader_id"))
			w.Write([]byte(`{"decisions":[]}`))
		})
		mux.HandleFunc("GET /api/decisions/latest", func(w http.ResponseWriter, r *http.Request) {
			latestCalled = true
			assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
			assert.Equal(t, "t-1", r.URL.Query().Get("trader_id"))
			w.Write([]byte(`{"decisions":[{"cycle":7}]}`))
		})
	})
	s := newTestServer(t, srv.URL)

	w := doRequest(s, "GET", "/api/decisions?trader_id=t-1", "tok", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = doRequest(s, "GET", "/api/decisions/latest?trader_id=t-1", "tok", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, latestCalled)
	assert.JSONEq(t, `{"decisions":[{"cycle":7}]}`, w.Body.String())

	w = doRequest(s, "GET", "/api/decisions?trader_id=t-1", "", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestUpdateTraderPromptProxies(t *testing.T) {
	var gotBody string
	srv := newUpstream(t, func(mux *http.ServeMux) {
		mux.HandleFunc("PUT /api/trader/t-1/prompt", func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
			data, _ := io.ReadAll(r.Body)
			gotBody = string(data)
			w.Write([]byte(`{"success":true}`))
		})
	})
	s := newTestServer(t, srv.URL)

	w := doRequest(s, "PUT", "/api/traders/t-1/prompt", "tok", `{"custom_prompt":"be bold"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"custom_prompt":"be bold"}`, gotBody)
	assert.JSONEq(t, `{"success":true}`, w.Body.String())
}

func TestDashboardCacheIsTokenScoped(t *testing.T) {
	configReads := 0
	srv := newUpstream(t, func(mux *http.ServeMux) {
		mux.HandleFunc("GET /api/traders/t-1/config", func(w http.ResponseWriter, r *http.Request) {
			configReads++
			w.Write([]byte(`{"trader_id":"t-1","initial_balance":1000}`))
		})
		mux.HandleFunc("GET /", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		})
	})
	s := newTestServer(t, srv.URL)

	w := doRequest(s, "GET", "/api/traders/t-1/dashboard", "alice", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, configReads)

	// Same token hits the cache.
	w = doRequest(s, "GET", "/api/traders/t-1/dashboard", "alice", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, configReads)

	// A different token must not be served alice's view.
	w = doRequest(s, "GET", "/api/traders/t-1/dashboard", "bob", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 2, configReads)
}

func TestUpdateTraderRelaysUpstreamRejection(t *testing.T) {
	srv := newUpstream(t, func(mux *http.ServeMux) {
		mux.HandleFunc("PUT /api/traders/t-1", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnprocessableEntity)
			w.Write([]byte(`{"error":"bad leverage"}`))
		})
	})
	s := newTestServer(t, srv.URL)

	w := doRequest(s, "PUT", "/api/traders/t-1", "tok", `{"name":"Alpha"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	body := decodeJSON(t, w)
	assert.Equal(t, "UPSTREAM_REJECTED", body["code"])
	assert.Equal(t, "bad leverage", body["error"])
}

func TestLeaderboardIsPublic(t *testing.T) {
	srv := newUpstream(t, func(mux *http.ServeMux) {
		mux.HandleFunc("GET /api/competition", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`[{"trader_id":"t-1","trader_name":"Alpha","total_pnl":5}]`))
		})
	})
	s := newTestServer(t, srv.URL)

	w := doRequest(s, "GET", "/api/explorer/leaderboard", "", "")
	assert.Equal(t, http.StatusOK, w.Code)

	body := decodeJSON(t, w)
	assert.Equal(t, 1.0, body["total_count"])
}

func TestLeaderboardFailureStillListsEmptyAgents(t *testing.T) {
	srv := newUpstream(t, func(mux *http.ServeMux) {
		mux.HandleFunc("GET /api/competition", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	})
	s := newTestServer(t, srv.URL)

	w := doRequest(s, "GET", "/api/explorer/leaderboard", "", "")
	body := decodeJSON(t, w)
	assert.Equal(t, "UPSTREAM_REJECTED", body["code"])
	assert.Equal(t, []any{}, body["agents"])
	assert.Equal(t, 0.0, body["total_count"])
}

func TestVenuesEndpoint(t *testing.T) {
	srv := newUpstream(t, nil)
	s := newTestServer(t, srv.URL)

	w := doRequest(s, "GET", "/api/venues", "", "")
	assert.Equal(t, http.StatusOK, w.Code)

	body := decodeJSON(t, w)
	venues, ok := body["venues"].([]any)
	require.True(t, ok)
	assert.Len(t, venues, 2)
}

func TestCORSPreflight(t *testing.T) {
	srv := newUpstream(t, nil)
	s := newTestServer(t, srv.URL)

	req := httptest.NewRequest("OPTIONS", "/api/traders", nil)
	w := httptest.NewRecorder()
	s.Router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestRequestIDHeader(t *testing.T) {
	srv := newUpstream(t, nil)
	s := newTestServer(t, srv.URL)

	w := doRequest(s, "GET", "/health", "", "")
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	req := httptest.NewRequest("GET", "/health", nil)
	req.Header.Set("X-Request-ID", "fixed-id")
	rec := httptest.NewRecorder()
	s.Router.ServeHTTP(rec, req)
	assert.Equal(t, "fixed-id", rec.Header().Get("X-Request-ID"))
}
