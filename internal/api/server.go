// Package api serves the simulation over HTTP.
// GET endpoints are public (read-only observation).
// Mutating endpoints require a bearer token when an admin key is configured.
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"

	"github.com/talgya/ceo-sim/internal/decision"
	"github.com/talgya/ceo-sim/internal/engine"
	"github.com/talgya/ceo-sim/internal/workforce"
)

// BasePath prefixes every route.
const BasePath = "/api/v1"

const defaultHistoryLimit = 30

// Store is the session storage the API reads and writes.
type Store interface {
	SetCredential(ctx context.Context, credential string) error
	Credential(ctx context.Context) (string, error)
	DayReports(ctx context.Context, limit int) ([]engine.DayReport, error)
}

// Server serves the simulation state over HTTP.
type Server struct {
	Sim      *engine.Simulation
	Driver   *engine.Driver
	Store    Store  // nil disables history and credential storage
	AdminKey string // Bearer token for mutating endpoints. Empty = open.

	// OnCredential is called after a credential is stored, so the caller
	// can rebuild the decision service.
	OnCredential func(provider, credential string) error

	// CredentialLimiter guards PUT /credential. Defaults to 5 per minute.
	CredentialLimiter *RateLimiter

	// StreamPoll is how often the websocket checks for state changes.
	StreamPoll time.Duration

	streams  streamCounter
	origins  map[string]bool
	upgrader websocket.Upgrader
}

// Handler builds the router. Safe to call once per server.
func (s *Server) Handler() http.Handler {
	if s.CredentialLimiter == nil {
		s.CredentialLimiter = NewRateLimiter(5, time.Minute)
	}
	if s.StreamPoll <= 0 {
		s.StreamPoll = 100 * time.Millisecond
	}

	s.origins = allowedOrigins()
	s.upgrader = websocket.Upgrader{CheckOrigin: s.checkOrigin}

	router := chi.NewMux()
	router.Use(middleware.Recoverer)
	router.Use(corsMiddleware(s.origins))

	config := huma.DefaultConfig("CEO Simulator API", "1.0.0")
	config.Info.Description = "Idle startup simulation with an AI chief executive."
	api := humachi.New(router, config)

	v1 := huma.NewGroup(api, BasePath)
	s.registerRoutes(api, v1)

	router.Get(BasePath+"/stream", s.handleStream)
	return router
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	slog.Info("HTTP API starting", "addr", addr, "admin_auth", s.AdminKey != "")

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		slog.Info("HTTP API shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

// corsMiddleware adds CORS headers for allowed frontend origins.
// Set CEOSIM_CORS_ORIGINS to a comma-separated list of extra origins.
// Localhost dev servers are always allowed.
// allowedOrigins is the browser origin allowlist: the local dev servers
// plus CEOSIM_CORS_ORIGINS (comma separated).
func allowedOrigins() map[string]bool {
	origins := map[string]bool{
		"http://localhost:5173": true,
		"http://localhost:4173": true,
		"http://localhost:3000": true,
	}
	if env := os.Getenv("CEOSIM_CORS_ORIGINS"); env != "" {
		for _, origin := range strings.Split(env, ",") {
			origin = strings.TrimSpace(origin)
			if origin != "" {
				origins[origin] = true
			}
		}
	}
	return origins
}

func corsMiddleware(allowed map[string]bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if allowed[origin] {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			}
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (s *Server) checkBearerToken(header string) bool {
	return strings.HasPrefix(header, "Bearer ") && strings.TrimPrefix(header, "Bearer ") == s.AdminKey
}

// adminOnly is a huma middleware that requires the admin bearer token when
// one is configured.
func (s *Server) adminOnly(api huma.API) func(huma.Context, func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		if s.AdminKey != "" && !s.checkBearerToken(ctx.Header("Authorization")) {
			_ = huma.WriteErr(api, ctx, http.StatusUnauthorized, "unauthorized")
			return
		}
		next(ctx)
	}
}

type (
	statusBody struct {
		Status string `json:"status" example:"ok"`
		Day    int    `json:"day"`
		Tick   int    `json:"tick"`
	}
	pausedBody struct {
		Paused bool `json:"paused"`
	}
	speedBody struct {
		Speed float64 `json:"speed" minimum:"0" maximum:"1000" doc:"Tick speed multiplier. 0 holds the clock."`
	}
	roleInput struct {
		Body struct {
			Role string `json:"role,omitempty" doc:"dev, sales or support. Empty hires a dev or fires the newest employee."`
		} `required:"false"`
	}
	hireBody struct {
		Role workforce.Role `json:"role"`
		Cost string         `json:"cost"`
		Cash string         `json:"cash"`
	}
	personaInput struct {
		Body struct {
			Persona string `json:"persona" minLength:"1"`
		}
	}
	personaBody struct {
		Persona   decision.Persona   `json:"persona"`
		Available []decision.Persona `json:"available"`
	}
	credentialInput struct {
		Body struct {
			Provider   string `json:"provider,omitempty" doc:"openai, pollinations or anthropic. Empty keeps the configured provider."`
			Credential string `json:"credential,omitempty" required:"false" doc:"API key for the decision service. Empty with a provider reuses the stored key; empty without one switches to the offline director."`
		}
	}
	historyInput struct {
		Limit int `query:"limit" minimum:"0" maximum:"1000" default:"30"`
	}
	resultBody struct {
		OK      bool   `json:"ok"`
		Message string `json:"message,omitempty"`
	}
)

func (s *Server) registerRoutes(api huma.API, v1 *huma.Group) {
	admin := huma.Middlewares{s.adminOnly(api)}

	huma.Register(v1, huma.Operation{
		OperationID: "health",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Liveness check",
	}, func(ctx context.Context, _ *struct{}) (*struct{ Body statusBody }, error) {
		c := s.Sim.Clock()
		return &struct{ Body statusBody }{Body: statusBody{Status: "ok", Day: c.Day, Tick: c.Tick}}, nil
	})

	huma.Register(v1, huma.Operation{
		OperationID: "get-state",
		Method:      http.MethodGet,
		Path:        "/state",
		Summary:     "Current simulation snapshot",
	}, func(ctx context.Context, _ *struct{}) (*struct{ Body engine.Snapshot }, error) {
		return &struct{ Body engine.Snapshot }{Body: s.Sim.Snapshot()}, nil
	})

	huma.Register(v1, huma.Operation{
		OperationID: "toggle-pause",
		Method:      http.MethodPost,
		Path:        "/pause",
		Summary:     "Toggle between paused and playing",
		Middlewares: admin,
	}, func(ctx context.Context, _ *struct{}) (*struct{ Body pausedBody }, error) {
		paused := s.Sim.TogglePause()
		slog.Info("pause toggled", "paused", paused)
		return &struct{ Body pausedBody }{Body: pausedBody{Paused: paused}}, nil
	})

	huma.Register(v1, huma.Operation{
		OperationID: "get-speed",
		Method:      http.MethodGet,
		Path:        "/speed",
		Summary:     "Current tick speed",
	}, func(ctx context.Context, _ *struct{}) (*struct{ Body speedBody }, error) {
		return &struct{ Body speedBody }{Body: speedBody{Speed: s.speed()}}, nil
	})

	huma.Register(v1, huma.Operation{
		OperationID: "set-speed",
		Method:      http.MethodPost,
		Path:        "/speed",
		Summary:     "Change tick speed",
		Middlewares: admin,
	}, func(ctx context.Context, in *struct{ Body speedBody }) (*struct{ Body speedBody }, error) {
		if s.Driver == nil {
			return nil, huma.Error409Conflict("no tick driver running")
		}
		s.Driver.SetSpeed(in.Body.Speed)
		return &struct{ Body speedBody }{Body: speedBody{Speed: s.Driver.Speed()}}, nil
	})

	huma.Register(v1, huma.Operation{
		OperationID: "hire",
		Method:      http.MethodPost,
		Path:        "/hire",
		Summary:     "Hire one employee",
		Middlewares: admin,
	}, func(ctx context.Context, in *roleInput) (*struct{ Body hireBody }, error) {
		res, err := s.Sim.Hire(in.Body.Role)
		if err != nil {
			return nil, ledgerError(err)
		}
		return &struct{ Body hireBody }{Body: hireBody{Role: res.Role, Cost: res.Cost.String(), Cash: s.Sim.Snapshot().Cash.String()}}, nil
	})

	huma.Register(v1, huma.Operation{
		OperationID: "fire",
		Method:      http.MethodPost,
		Path:        "/fire",
		Summary:     "Let one employee go",
		Middlewares: admin,
	}, func(ctx context.Context, in *roleInput) (*struct{ Body hireBody }, error) {
		res, err := s.Sim.Fire(in.Body.Role)
		if err != nil {
			return nil, ledgerError(err)
		}
		return &struct{ Body hireBody }{Body: hireBody{Role: res.Role, Cost: res.Cost.String(), Cash: s.Sim.Snapshot().Cash.String()}}, nil
	})

	huma.Register(v1, huma.Operation{
		OperationID: "veto-decision",
		Method:      http.MethodPost,
		Path:        "/decision/veto",
		Summary:     "Veto the pending decision",
		Middlewares: admin,
	}, func(ctx context.Context, _ *struct{}) (*struct{ Body resultBody }, error) {
		if err := s.Sim.Veto(); err != nil {
			return nil, huma.Error409Conflict(err.Error())
		}
		return &struct{ Body resultBody }{Body: resultBody{OK: true}}, nil
	})

	huma.Register(v1, huma.Operation{
		OperationID: "confirm-decision",
		Method:      http.MethodPost,
		Path:        "/decision/confirm",
		Summary:     "Apply the pending decision now",
		Middlewares: admin,
	}, func(ctx context.Context, _ *struct{}) (*struct{ Body resultBody }, error) {
		if err := s.Sim.Confirm(); err != nil {
			return nil, huma.Error409Conflict(err.Error())
		}
		return &struct{ Body resultBody }{Body: resultBody{OK: true}}, nil
	})

	huma.Register(v1, huma.Operation{
		OperationID: "reset",
		Method:      http.MethodPost,
		Path:        "/reset",
		Summary:     "Start a new company",
		Middlewares: admin,
	}, func(ctx context.Context, _ *struct{}) (*struct{ Body resultBody }, error) {
		s.Sim.Reset()
		slog.Info("simulation reset via API")
		return &struct{ Body resultBody }{Body: resultBody{OK: true}}, nil
	})

	huma.Register(v1, huma.Operation{
		OperationID: "get-persona",
		Method:      http.MethodGet,
		Path:        "/persona",
		Summary:     "Active CEO persona",
	}, func(ctx context.Context, _ *struct{}) (*struct{ Body personaBody }, error) {
		return &struct{ Body personaBody }{Body: personaBody{Persona: s.Sim.Persona(), Available: decision.Personas()}}, nil
	})

	huma.Register(v1, huma.Operation{
		OperationID: "set-persona",
		Method:      http.MethodPost,
		Path:        "/persona",
		Summary:     "Change the CEO persona",
		Middlewares: admin,
	}, func(ctx context.Context, in *personaInput) (*struct{ Body personaBody }, error) {
		p, ok := s.Sim.SetPersona(in.Body.Persona)
		if !ok {
			return nil, huma.Error400BadRequest(fmt.Sprintf("unknown persona %q", in.Body.Persona))
		}
		return &struct{ Body personaBody }{Body: personaBody{Persona: p, Available: decision.Personas()}}, nil
	})

	huma.Register(v1, huma.Operation{
		OperationID: "put-credential",
		Method:      http.MethodPut,
		Path:        "/credential",
		Summary:     "Store the decision-service credential for this session",
		Middlewares: huma.Middlewares{rateLimited(api, s.CredentialLimiter), s.adminOnly(api)},
	}, func(ctx context.Context, in *credentialInput) (*struct{ Body resultBody }, error) {
		credential := strings.TrimSpace(in.Body.Credential)
		if credential == "" && in.Body.Provider != "" && s.Store != nil {
			stored, err := s.Store.Credential(ctx)
			if err != nil {
				slog.Error("read credential", "error", err)
				return nil, huma.Error500InternalServerError("could not read credential")
			}
			credential = stored
		}
		if s.Store != nil {
			if err := s.Store.SetCredential(ctx, credential); err != nil {
				slog.Error("store credential", "error", err)
				return nil, huma.Error500InternalServerError("could not store credential")
			}
		}
		if s.OnCredential != nil {
			if err := s.OnCredential(in.Body.Provider, credential); err != nil {
				return nil, huma.Error400BadRequest(err.Error())
			}
		}
		return &struct{ Body resultBody }{Body: resultBody{OK: true}}, nil
	})

	huma.Register(v1, huma.Operation{
		OperationID: "get-history",
		Method:      http.MethodGet,
		Path:        "/history",
		Summary:     "Finished days, newest first",
	}, func(ctx context.Context, in *historyInput) (*struct{ Body []engine.DayReport }, error) {
		if s.Store == nil {
			return &struct{ Body []engine.DayReport }{Body: []engine.DayReport{}}, nil
		}
		limit := in.Limit
		if limit == 0 {
			limit = defaultHistoryLimit
		}
		reports, err := s.Store.DayReports(ctx, limit)
		if err != nil {
			slog.Error("load history", "error", err)
			return nil, huma.Error500InternalServerError("could not load history")
		}
		if reports == nil {
			reports = []engine.DayReport{}
		}
		return &struct{ Body []engine.DayReport }{Body: reports}, nil
	})
}

func (s *Server) speed() float64 {
	if s.Driver == nil {
		return 0
	}
	return s.Driver.Speed()
}

// ledgerError maps workforce failures to client errors. The terminal line
// has already been written by the simulation.
func ledgerError(err error) error {
	switch {
	case errors.Is(err, workforce.ErrInsufficientFunds),
		errors.Is(err, workforce.ErrCannotAffordSeverance):
		return huma.Error422UnprocessableEntity(err.Error())
	case errors.Is(err, workforce.ErrNoMatchingWorkers):
		return huma.Error409Conflict(err.Error())
	case errors.Is(err, workforce.ErrInvalidCount):
		return huma.Error400BadRequest(err.Error())
	default:
		return huma.Error500InternalServerError(err.Error())
	}
}
