package api

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/santacall/internal/calls"
)

const providerProbeKey = "tavus"

// HealthConfiguration reports what the service has been configured with.
type HealthConfiguration struct {
	TavusAPIKeySet         bool     `json:"tavus_api_key_set"`
	TavusPersonaIDSet      bool     `json:"tavus_persona_id_set"`
	ConversationArcsLoaded bool     `json:"conversation_arcs_loaded"`
	ArcsAvailable          []string `json:"arcs_available"`
}

// HealthResponse is the body of GET /api/health.
type HealthResponse struct {
	Status            string              `json:"status"`
	Service           string              `json:"service"`
	Version           string              `json:"version"`
	Timestamp         time.Time           `json:"timestamp"`
	Configuration     HealthConfiguration `json:"configuration"`
	TavusAPIReachable bool                `json:"tavus_api_reachable"`
	TotalCallsTracked int                 `json:"total_calls_tracked"`
}

// health reports readiness. It always answers 200; missing credentials, an
// empty arc catalogue or an unreachable provider make the status "degraded".
func (s *Server) health(c echo.Context) error {
	missing := map[string]bool{}
	for _, m := range s.calls.MissingCredentials() {
		missing[m] = true
	}

	cfg := HealthConfiguration{
		TavusAPIKeySet:    !missing[calls.CredentialAPIKey],
		TavusPersonaIDSet: !missing[calls.CredentialPersonaID],
		ArcsAvailable:     []string{},
	}
	if s.arcs != nil && s.arcs.Len() > 0 {
		cfg.ConversationArcsLoaded = true
		cfg.ArcsAvailable = s.arcs.Keys()
	}

	reachable := false
	if s.opts.ProbeProvider && cfg.TavusAPIKeySet {
		reachable = s.providerReachable(c.Request().Context())
	}

	status := "healthy"
	if !cfg.TavusAPIKeySet || !cfg.TavusPersonaIDSet || !cfg.ConversationArcsLoaded ||
		(s.opts.ProbeProvider && !reachable) {
		status = "degraded"
	}

	total := 0
	if s.counter != nil {
		total = s.counter.Count()
	}

	return c.JSON(http.StatusOK, HealthResponse{
		Status:            status,
		Service:           ServiceName,
		Version:           s.opts.Version,
		Timestamp:         time.Now().UTC(),
		Configuration:     cfg,
		TavusAPIReachable: reachable,
		TotalCallsTracked: total,
	})
}

// providerReachable pings the provider, caching the answer so frequent health
// checks do not hit the provider on every request.
func (s *Server) providerReachable(ctx context.Context) bool {
	if s.prober == nil {
		return false
	}
	if ok, cached := s.probes.Get(providerProbeKey); cached {
		return ok
	}

	ok, err := s.prober.Ping(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("Video provider health probe failed")
	}
	s.probes.Add(providerProbeKey, ok)
	return ok
}
