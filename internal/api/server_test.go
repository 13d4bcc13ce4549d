package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/ceo-sim/internal/decision"
	"github.com/talgya/ceo-sim/internal/director"
	"github.com/talgya/ceo-sim/internal/economy"
	"github.com/talgya/ceo-sim/internal/engine"
	"github.com/talgya/ceo-sim/internal/entropy"
	"github.com/talgya/ceo-sim/internal/persistence"
	"github.com/talgya/ceo-sim/internal/workforce"
)

type fakeStore struct {
	mu         sync.Mutex
	credential string
	reports    []engine.DayReport
}

func (f *fakeStore) SetCredential(_ context.Context, c string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.credential = c
	return nil
}

func (f *fakeStore) Credential(context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.credential, nil
}

func (f *fakeStore) DayReports(_ context.Context, limit int) ([]engine.DayReport, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if limit > 0 && limit < len(f.reports) {
		return f.reports[:limit], nil
	}
	return f.reports, nil
}

func hireDev() director.Service {
	return director.Func(func(context.Context, decision.Context) (decision.Decision, error) {
		return decision.New(decision.HireParams{Role: workforce.RoleDev, Count: 1}, "ship it", decision.RiskLow, economy.DefaultBalance()), nil
	})
}

func newTestServer(t *testing.T, configure ...func(*Server)) (*Server, *httptest.Server) {
	t.Helper()
	sim := engine.New(engine.Options{
		Rand:     &entropy.Sequence{},
		Dispatch: engine.Inline,
		Director: hireDev(),
	})
	srv := &Server{
		Sim:        sim,
		Driver:     engine.NewDriver(sim),
		Store:      &fakeStore{},
		StreamPoll: 5 * time.Millisecond,
	}
	for _, fn := range configure {
		fn(srv)
	}
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return srv, ts
}

func do(t *testing.T, method, url, token string, body any) (*http.Response, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp, out
}

func openWindow(sim *engine.Simulation) {
	sim.SetPaused(false)
	for i := 0; i < engine.WindowOpensAt; i++ {
		sim.Advance()
	}
}

func TestHealth(t *testing.T) {
	_, ts := newTestServer(t)
	resp, body := do(t, http.MethodGet, ts.URL+"/api/v1/health", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body["status"])
	assert.EqualValues(t, 1, body["day"])
}

func TestState_InitialSnapshot(t *testing.T) {
	_, ts := newTestServer(t)
	resp, body := do(t, http.MethodGet, ts.URL+"/api/v1/state", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["paused"])
	assert.Equal(t, "50000", body["cash"])
	assert.EqualValues(t, 1, body["workers"])
	assert.Equal(t, string(engine.PhaseOperating), body["phase"])
}

func TestPause_Toggles(t *testing.T) {
	srv, ts := newTestServer(t)
	resp, body := do(t, http.MethodPost, ts.URL+"/api/v1/pause", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, false, body["paused"])
	assert.False(t, srv.Sim.Snapshot().Paused)
}

func TestHireAndFire(t *testing.T) {
	srv, ts := newTestServer(t)

	resp, body := do(t, http.MethodPost, ts.URL+"/api/v1/hire", "", map[string]string{"role": "sales"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "sales", body["role"])
	assert.Equal(t, 1, srv.Sim.Snapshot().Roster.Sales)

	resp, _ = do(t, http.MethodPost, ts.URL+"/api/v1/fire", "", map[string]string{"role": "support"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Contains(t, srv.Sim.Snapshot().Terminal, engine.MsgNoMatchingWorkers)

	resp, _ = do(t, http.MethodPost, ts.URL+"/api/v1/fire", "", map[string]string{})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 0, srv.Sim.Snapshot().Roster.Sales, "empty role fires the newest hire")
}

func TestDecision_VetoAndConfirm(t *testing.T) {
	srv, ts := newTestServer(t)

	resp, _ := do(t, http.MethodPost, ts.URL+"/api/v1/decision/veto", "", nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	openWindow(srv.Sim)
	require.NotNil(t, srv.Sim.Snapshot().Pending)

	resp, _ = do(t, http.MethodPost, ts.URL+"/api/v1/decision/confirm", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 2, srv.Sim.Snapshot().Workers)

	resp, _ = do(t, http.MethodPost, ts.URL+"/api/v1/decision/veto", "", nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestDecision_VetoChargesPenalty(t *testing.T) {
	srv, ts := newTestServer(t)
	openWindow(srv.Sim)
	cash := srv.Sim.Snapshot().Cash

	resp, _ := do(t, http.MethodPost, ts.URL+"/api/v1/decision/veto", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	snap := srv.Sim.Snapshot()
	assert.Nil(t, snap.Pending)
	assert.True(t, snap.Cash.Equal(cash.Sub(decimal.NewFromInt(100))))
}

func TestReset(t *testing.T) {
	srv, ts := newTestServer(t)
	openWindow(srv.Sim)
	game := srv.Sim.Snapshot().GameID
	require.NotEmpty(t, game)

	resp, _ := do(t, http.MethodPost, ts.URL+"/api/v1/reset", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	snap := srv.Sim.Snapshot()
	assert.NotEqual(t, game, snap.GameID)
	assert.Equal(t, 1, snap.Day)
	assert.Equal(t, 0, snap.Tick)
	assert.Nil(t, snap.Pending)
}

func TestSpeed(t *testing.T) {
	srv, ts := newTestServer(t)

	resp, body := do(t, http.MethodPost, ts.URL+"/api/v1/speed", "", map[string]float64{"speed": 5})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 5, body["speed"])
	assert.Equal(t, 5.0, srv.Driver.Speed())

	resp, _ = do(t, http.MethodPost, ts.URL+"/api/v1/speed", "", map[string]float64{"speed": -1})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	_, body = do(t, http.MethodGet, ts.URL+"/api/v1/speed", "", nil)
	assert.EqualValues(t, 5, body["speed"])
}

func TestPersona(t *testing.T) {
	srv, ts := newTestServer(t)

	resp, body := do(t, http.MethodPost, ts.URL+"/api/v1/persona", "", map[string]string{"persona": "bean counter"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, string(decision.PersonaBeanCounter), body["persona"])
	assert.Equal(t, decision.PersonaBeanCounter, srv.Sim.Persona())

	resp, _ = do(t, http.MethodPost, ts.URL+"/api/v1/persona", "", map[string]string{"persona": "pirate"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, decision.PersonaBeanCounter, srv.Sim.Persona())
}

func TestAdminKey_GuardsMutations(t *testing.T) {
	srv, ts := newTestServer(t, func(s *Server) { s.AdminKey = "secret" })

	resp, _ := do(t, http.MethodGet, ts.URL+"/api/v1/state", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = do(t, http.MethodPost, ts.URL+"/api/v1/pause", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp, _ = do(t, http.MethodPost, ts.URL+"/api/v1/pause", "wrong", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.True(t, srv.Sim.Snapshot().Paused)

	resp, _ = do(t, http.MethodPost, ts.URL+"/api/v1/pause", "secret", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.False(t, srv.Sim.Snapshot().Paused)
}

func TestCredential_StoresAndNotifies(t *testing.T) {
	store := &fakeStore{}
	var gotProvider, gotKey string
	_, ts := newTestServer(t, func(s *Server) {
		s.Store = store
		s.OnCredential = func(provider, key string) error {
			gotProvider, gotKey = provider, key
			return nil
		}
	})

	resp, _ := do(t, http.MethodPut, ts.URL+"/api/v1/credential", "", map[string]string{"provider": "openai", "credential": " sk-test "})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "sk-test", store.credential)
	assert.Equal(t, "openai", gotProvider)
	assert.Equal(t, "sk-test", gotKey)
}

func TestCredential_ProviderSwitchReusesStoredKey(t *testing.T) {
	db, err := persistence.Open(persistence.DialectSQLite, filepath.Join(t.TempDir(), "session.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	type call struct{ provider, key string }
	var calls []call
	_, ts := newTestServer(t, func(s *Server) {
		s.Store = db
		s.OnCredential = func(provider, key string) error {
			calls = append(calls, call{provider, key})
			return nil
		}
	})
	url := ts.URL + "/api/v1/credential"

	resp, _ := do(t, http.MethodPut, url, "", map[string]string{"provider": "openai", "credential": "sk-live"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = do(t, http.MethodPut, url, "", map[string]string{"provider": "anthropic"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = do(t, http.MethodPut, url, "", map[string]string{})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	assert.Equal(t, []call{{"openai", "sk-live"}, {"anthropic", "sk-live"}, {"", ""}}, calls)
	stored, err := db.Credential(context.Background())
	require.NoError(t, err)
	assert.Empty(t, stored, "an empty credential without a provider clears the session key")
}

func TestCredential_RateLimited(t *testing.T) {
	_, ts := newTestServer(t, func(s *Server) {
		s.CredentialLimiter = NewRateLimiter(1, time.Minute)
	})

	resp, _ := do(t, http.MethodPut, ts.URL+"/api/v1/credential", "", map[string]string{"credential": "a"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = do(t, http.MethodPut, ts.URL+"/api/v1/credential", "", map[string]string{"credential": "b"})
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("Retry-After"))
}

func TestHistory(t *testing.T) {
	store := &fakeStore{reports: []engine.DayReport{
		{Day: 2, ClosingCash: decimal.NewFromInt(50100), Action: decision.ActionNone, Outcome: engine.OutcomeApplied},
		{Day: 1, ClosingCash: decimal.NewFromInt(50024), Action: decision.ActionHire, Outcome: engine.OutcomeVetoed},
	}}
	_, ts := newTestServer(t, func(s *Server) { s.Store = store })

	resp, err := http.Get(ts.URL + "/api/v1/history?limit=1")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var reports []map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&reports))
	require.Len(t, reports, 1)
	assert.EqualValues(t, 2, reports[0]["day"])
}

func TestStream_PushesOnChange(t *testing.T) {
	srv, ts := newTestServer(t)

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/v1/stream"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))

	var first engine.Snapshot
	require.NoError(t, conn.ReadJSON(&first))
	assert.True(t, first.Paused)

	srv.Sim.SetPaused(false)

	var next engine.Snapshot
	require.NoError(t, conn.ReadJSON(&next))
	assert.False(t, next.Paused)
	assert.Greater(t, next.Version, first.Version)
}

func TestStream_ChecksOrigin(t *testing.T) {
	t.Setenv("CEOSIM_CORS_ORIGINS", "https://ceo.example")
	_, ts := newTestServer(t)
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/v1/stream"

	_, resp, err := websocket.DefaultDialer.Dial(url, http.Header{"Origin": {"https://evil.example"}})
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	for _, origin := range []string{"https://ceo.example", "http://localhost:5173", ts.URL} {
		conn, _, err := websocket.DefaultDialer.Dial(url, http.Header{"Origin": {origin}})
		require.NoError(t, err, origin)
		conn.Close()
	}
}
