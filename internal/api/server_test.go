package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/santacall/internal/analytics"
	"github.com/santacall/internal/arcs"
	"github.com/santacall/internal/calls"
	"github.com/santacall/internal/greeting"
	"github.com/santacall/internal/tavus"
)

type stubProvider struct {
	mu        sync.Mutex
	apiKey    string
	personaID string
	err       error
	created   int
	pings     int
	reachable bool
}

func (p *stubProvider) CreateConversation(ctx context.Context, req tavus.ConversationRequest) (*tavus.Conversation, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.created++
	if p.err != nil {
		return nil, p.err
	}
	return &tavus.Conversation{
		ConversationID:  "conv-" + req.CustomMetadata["call_duration"].(string),
		ConversationURL: "https://tavus.daily.co/room",
		ExpiresAt:       "2026-12-24T20:00:00Z",
	}, nil
}

func (p *stubProvider) HasAPIKey() bool   { return p.apiKey != "" }
func (p *stubProvider) PersonaID() string { return p.personaID }

func (p *stubProvider) Ping(ctx context.Context) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pings++
	return p.reachable, nil
}

type testEnv struct {
	server   *Server
	provider *stubProvider
	store    *analytics.Store
}

func newEnv(t *testing.T, provider *stubProvider, settings calls.Settings) *testEnv {
	t.Helper()
	repo, err := arcs.LoadRepository("../arcs/testdata/conversation-arcs.yaml")
	require.NoError(t, err)

	store := analytics.NewStore()
	svc := calls.NewService(repo, greeting.NewSelector(repo.Buckets(), greeting.FixedPicker{}), provider, store, settings)
	srv := NewServer(Options{ProbeProvider: true, ProbeCacheTTL: time.Minute}, Deps{
		Calls:   svc,
		Arcs:    repo,
		Counter: store,
		Prober:  provider,
	})
	return &testEnv{server: srv, provider: provider, store: store}
}

func readyProvider() *stubProvider {
	return &stubProvider{apiKey: "key", personaID: "persona", reachable: true}
}

func (e *testEnv) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	e.server.Handler().ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestStartCall(t *testing.T) {
	env := newEnv(t, readyProvider(), calls.Settings{})

	rec := env.do(t, http.MethodPost, "/api/santa/start-call", `{"child_name":"Emma","child_age":7,"call_duration":"5min"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get(echo.HeaderXRequestID))

	res := decode[calls.StartCallResult](t, rec)
	assert.Equal(t, "conv-5min", res.ConversationID)
	assert.Equal(t, "https://tavus.daily.co/room", res.ConversationURL)
	assert.Equal(t, "2026-12-24T20:00:00Z", res.ExpiresAt)
	assert.Equal(t, "Quick Christmas Magic", res.CallMetadata.ArcName)
	assert.Equal(t, 3, res.CallMetadata.Phases)
	assert.Equal(t, "5min", res.CallMetadata.CallDuration)
	assert.Equal(t, 1, env.store.Count())
}

func TestStartCall_ValidationError(t *testing.T) {
	env := newEnv(t, readyProvider(), calls.Settings{})

	rec := env.do(t, http.MethodPost, "/api/santa/start-call", `{"child_name":"","child_age":40,"call_duration":"5min"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var body struct {
		ErrorResponse
		Details []calls.FieldError `json:"details"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Error)
	assert.Equal(t, http.StatusBadRequest, body.StatusCode)
	assert.Equal(t, rec.Header().Get(echo.HeaderXRequestID), body.RequestID)
	require.Len(t, body.Details, 2)
	assert.Equal(t, "child_name", body.Details[0].Field)
	assert.Equal(t, "child_age", body.Details[1].Field)
	assert.Equal(t, 0, env.provider.created)
}

func TestStartCall_MalformedBody(t *testing.T) {
	env := newEnv(t, readyProvider(), calls.Settings{})

	rec := env.do(t, http.MethodPost, "/api/santa/start-call", `{"child_name":"Emma","child_age":"seven"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decode[ErrorResponse](t, rec)
	assert.Equal(t, "Invalid request body", body.Message)
	assert.Equal(t, 0, env.provider.created)
}

func TestStartCall_NotConfigured(t *testing.T) {
	env := newEnv(t, &stubProvider{}, calls.Settings{})

	rec := env.do(t, http.MethodPost, "/api/santa/start-call", `{"child_name":"Emma","child_age":7,"call_duration":"5min"}`)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	body := decode[ErrorResponse](t, rec)
	assert.Contains(t, body.Message, "TAVUS_API_KEY")
	assert.Equal(t, 0, env.provider.created)
}

func TestStartCall_ProviderErrors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		status   int
		upstream int
	}{
		{"upstream status", &tavus.ProviderError{Op: "create conversation", StatusCode: 401, Message: "Invalid access token"}, http.StatusBadGateway, 401},
		{"timeout", &tavus.ProviderError{Op: "create conversation", Timeout: true, Message: "timeout connecting to provider"}, http.StatusGatewayTimeout, 0},
		{"transport", &tavus.ProviderError{Op: "create conversation", Message: "error connecting to provider"}, http.StatusServiceUnavailable, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := readyProvider()
			provider.err = tt.err
			env := newEnv(t, provider, calls.Settings{})

			rec := env.do(t, http.MethodPost, "/api/santa/start-call", `{"child_name":"Emma","child_age":7,"call_duration":"5min"}`)
			assert.Equal(t, tt.status, rec.Code)
			body := decode[ErrorResponse](t, rec)
			assert.Equal(t, tt.upstream, body.UpstreamStatus)
			assert.Equal(t, 0, env.store.Count())
		})
	}
}

func TestCompleteCall(t *testing.T) {
	env := newEnv(t, readyProvider(), calls.Settings{})
	rec := env.do(t, http.MethodPost, "/api/santa/start-call", `{"child_name":"Emma","child_age":7,"call_duration":"5min"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	for _, body := range []string{
		`{"conversation_id":"conv-5min","parent_rating":5}`,
		`{"conversation_id":"conv-5min","actual_duration_seconds":2147483647}`,
	} {
		rec = env.do(t, http.MethodPost, "/api/santa/complete-call", body)
		require.Equal(t, http.StatusBadRequest, rec.Code, body)
		resp := decode[map[string]any](t, rec)
		assert.Contains(t, fmt.Sprint(resp["details"]), "actual_duration_seconds", body)
	}
	stored, err := env.store.Get(context.Background(), "conv-5min")
	require.NoError(t, err)
	assert.False(t, stored.Completed())
	assert.Equal(t, 0.0, env.store.ComputeAggregates(context.Background()).AverageDurationSeconds)

	rec = env.do(t, http.MethodPost, "/api/santa/complete-call", `{"conversation_id":"conv-5min","actual_duration_seconds":280,"parent_rating":5,"child_enjoyed":true}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	ack := decode[CompleteCallResponse](t, rec)
	assert.Equal(t, CompleteCallResponse{Status: "success", Message: "Call completion recorded", ConversationID: "conv-5min"}, ack)

	rec = env.do(t, http.MethodPost, "/api/santa/complete-call", `{"conversation_id":"conv-5min","actual_duration_seconds":10}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/santa/complete-call", `{"conversation_id":"missing","actual_duration_seconds":10}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/santa/complete-call", `{"conversation_id":"conv-5min","actual_duration_seconds":10,"parent_rating":9}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAnalytics(t *testing.T) {
	env := newEnv(t, readyProvider(), calls.Settings{})
	for _, body := range []string{
		`{"child_name":"Emma","child_age":7,"call_duration":"5min"}`,
		`{"child_name":"Leo","child_age":10,"call_duration":"10min"}`,
	} {
		require.Equal(t, http.StatusOK, env.do(t, http.MethodPost, "/api/santa/start-call", body).Code)
	}
	require.Equal(t, http.StatusOK, env.do(t, http.MethodPost, "/api/santa/complete-call", `{"conversation_id":"conv-5min","actual_duration_seconds":300,"parent_rating":4}`).Code)

	rec := env.do(t, http.MethodGet, "/api/santa/analytics", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var stats map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, 2.0, stats["total_calls"])
	assert.Equal(t, 2.0, stats["calls_today"])
	assert.Equal(t, 300.0, stats["average_duration_seconds"])
	assert.Equal(t, 4.0, stats["average_rating"])
	assert.Equal(t, map[string]any{"5min": 1.0, "10min": 1.0}, stats["calls_by_duration"])
	assert.Equal(t, map[string]any{"7": 1.0, "10": 1.0}, stats["calls_by_age"])
}

func TestArcEndpoint(t *testing.T) {
	env := newEnv(t, readyProvider(), calls.Settings{SupportedDurations: []string{"5min", "10min", "20min"}})

	rec := env.do(t, http.MethodGet, "/api/santa/arcs/5min", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Duration         string                 `json:"duration"`
		Arc              arcs.ConversationArc   `json:"arc"`
		TimingGuidelines *arcs.TimingGuidelines `json:"timing_guidelines"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "5min", body.Duration)
	assert.Equal(t, "Quick Christmas Magic", body.Arc.Name)
	assert.Len(t, body.Arc.Phases, 3)
	require.NotNil(t, body.TimingGuidelines)
	assert.Equal(t, 15.0, body.TimingGuidelines.MaxResponseLengthSeconds)

	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodGet, "/api/santa/arcs/1h", "").Code)
	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodGet, "/api/santa/arcs/20min", "").Code)
}

func TestHealth(t *testing.T) {
	env := newEnv(t, readyProvider(), calls.Settings{})

	rec := env.do(t, http.MethodGet, "/api/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	health := decode[HealthResponse](t, rec)
	assert.Equal(t, "healthy", health.Status)
	assert.Equal(t, ServiceName, health.Service)
	assert.Equal(t, DefaultVersion, health.Version)
	assert.True(t, health.Configuration.TavusAPIKeySet)
	assert.True(t, health.Configuration.TavusPersonaIDSet)
	assert.True(t, health.Configuration.ConversationArcsLoaded)
	assert.Equal(t, []string{"10min", "5min"}, health.Configuration.ArcsAvailable)
	assert.True(t, health.TavusAPIReachable)
	assert.Equal(t, 0, health.TotalCallsTracked)

	env.do(t, http.MethodGet, "/api/health", "")
	assert.Equal(t, 1, env.provider.pings, "probe result should be cached")
}

func TestHealth_Degraded(t *testing.T) {
	env := newEnv(t, &stubProvider{reachable: true}, calls.Settings{})

	health := decode[HealthResponse](t, env.do(t, http.MethodGet, "/api/health", ""))
	assert.Equal(t, "degraded", health.Status)
	assert.False(t, health.Configuration.TavusAPIKeySet)
	assert.False(t, health.TavusAPIReachable)
	assert.Equal(t, 0, env.provider.pings)

	unreachable := readyProvider()
	unreachable.reachable = false
	env = newEnv(t, unreachable, calls.Settings{})
	health = decode[HealthResponse](t, env.do(t, http.MethodGet, "/api/health", ""))
	assert.Equal(t, "degraded", health.Status)
}

func TestRootAndUnknownRoute(t *testing.T) {
	env := newEnv(t, readyProvider(), calls.Settings{})

	rec := env.do(t, http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, rec.Code)
	root := decode[map[string]any](t, rec)
	assert.Equal(t, DefaultVersion, root["version"])
	assert.Contains(t, root["endpoints"], "start_call")

	rec = env.do(t, http.MethodGet, "/api/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.True(t, decode[ErrorResponse](t, rec).Error)
}

func TestRecoverFromPanic(t *testing.T) {
	env := newEnv(t, readyProvider(), calls.Settings{})
	env.server.echo.GET("/boom", func(c echo.Context) error { panic("kaboom") })

	rec := env.do(t, http.MethodGet, "/boom", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Internal server error", decode[ErrorResponse](t, rec).Message)
}

func TestRun_StopsOnCancel(t *testing.T) {
	env := newEnv(t, readyProvider(), calls.Settings{})
	env.server.opts.Port = 0

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- env.server.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
