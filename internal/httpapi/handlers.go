package httpapi

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"tradedesk.app/internal/audit"
	"tradedesk.app/internal/auth"
	"tradedesk.app/internal/dispatch"
	"tradedesk.app/internal/obs"
	"tradedesk.app/internal/oauthflow"
)

const maxBodyBytes = 1 << 20

// ReadyProbe reports whether the database is reachable.
type ReadyProbe struct {
	DB *sql.DB
}

func (rp ReadyProbe) Check(ctx context.Context) error {
	if rp.DB == nil {
		return nil
	}
	return rp.DB.PingContext(ctx)
}

// Deps are the services the HTTP layer fronts.
type Deps struct {
	Accounts *auth.Service
	Links    *oauthflow.Coordinator
	Trades   *dispatch.Pipeline
	AuditLog audit.Store
	Ready    ReadyProbe
	Logger   *zap.Logger
	Version  string
	// AllowedOrigins feeds CORS; see CORS for the empty and "*" cases.
	AllowedOrigins []string
}

// API is the HTTP layer.
type API struct {
	router   chi.Router
	accounts *auth.Service
	links    *oauthflow.Coordinator
	trades   *dispatch.Pipeline
	auditLog audit.Store
	ready    ReadyProbe
	logger   *zap.Logger
	version  string
}

func New(d Deps) *API {
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	a := &API{
		accounts: d.Accounts,
		links:    d.Links,
		trades:   d.Trades,
		auditLog: d.AuditLog,
		ready:    d.Ready,
		logger:   logger,
		version:  d.Version,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(LoggingJSON(logger))
	r.Use(middleware.Recoverer)
	r.Use(obs.Instrument)
	r.Use(SecurityHeaders)
	r.Use(CORS(d.AllowedOrigins))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
	})

	r.Get("/healthz", a.Healthz)
	r.Get("/readyz", a.Ready)
	r.Method(http.MethodGet, "/metrics", obs.Handler())
	r.Get("/oauth2callback", a.handleOAuthCallback)

	r.Route("/api", func(r chi.Router) {
		r.Post("/create-advisor", a.handleCreateAdvisor)
		r.Post("/login", a.handleLogin)

		r.Group(func(r chi.Router) {
			r.Use(a.requireSession)
			r.Post("/generate-auth-link", a.handleGenerateAuthLink)
			r.Post("/send-trade", a.handleSendTrade)
			r.Get("/audit-logs", a.handleAuditLogs)
		})
	})

	a.router = r
	return a
}

// Handler returns the root http.Handler.
func (a *API) Handler() http.Handler {
	return a.router
}

func (a *API) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "tradedesk-api",
		"version": a.version,
	})
}

func (a *API) Ready(w http.ResponseWriter, r *http.Request) {
	if err := a.ready.Check(r.Context()); err != nil {
		a.logger.Warn("readiness check failed", zap.Error(err))
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "not_ready",
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ready",
	})
}

// --- helpers ---

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, r *http.Request, code int, msg string) {
	payload := map[string]any{
		"error": msg,
	}
	if rid := middleware.GetReqID(r.Context()); rid != "" {
		payload["request_id"] = rid
	}
	writeJSON(w, code, payload)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	reader := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	defer reader.Close()
	dec := json.NewDecoder(reader)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is required")
		}
		return err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		if err == nil {
			return errors.New("unexpected data after JSON body")
		}
		return err
	}
	return nil
}

func parsePositiveInt(raw string, def, min, max int) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < min || v > max {
		return 0, errors.New("value out of range")
	}
	return v, nil
}
