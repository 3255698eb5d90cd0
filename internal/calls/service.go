package calls

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/santacall/internal/analytics"
	"github.com/santacall/internal/arcs"
	"github.com/santacall/internal/greeting"
	"github.com/santacall/internal/prompts"
	"github.com/santacall/internal/tavus"
)

// Names reported for missing provider credentials.
const (
	CredentialAPIKey    = "TAVUS_API_KEY"
	CredentialPersonaID = "TAVUS_PERSONA_ID"
)

// Provider creates conversations on the video provider.
type Provider interface {
	CreateConversation(ctx context.Context, req tavus.ConversationRequest) (*tavus.Conversation, error)
	HasAPIKey() bool
	PersonaID() string
}

// Recorder stores call outcomes and aggregates them.
type Recorder interface {
	RecordStart(ctx context.Context, rec analytics.CallRecord) error
	RecordCompletion(ctx context.Context, conversationID string, c analytics.Completion) (analytics.CallRecord, error)
	ComputeAggregates(ctx context.Context) analytics.AggregateStats
}

// Settings are the request limits and provider call properties.
type Settings struct {
	SupportedDurations     []string
	MinAge                 int
	MaxAge                 int
	MaxNameLength          int
	ParticipantLeftTimeout int
	EnableRecording        bool
}

// DefaultSettings returns the limits used when nothing is configured.
func DefaultSettings() Settings {
	return Settings{
		SupportedDurations:     []string{"5min", "10min"},
		MinAge:                 2,
		MaxAge:                 12,
		MaxNameLength:          50,
		ParticipantLeftTimeout: 60,
	}
}

// CallMetadata echoes what the call was built from.
type CallMetadata struct {
	ChildName    string `json:"child_name"`
	ChildAge     int    `json:"child_age"`
	CallDuration string `json:"call_duration"`
	Greeting     string `json:"greeting"`
	ArcName      string `json:"arc_name"`
	Phases       int    `json:"phases"`
}

// StartCallResult is returned to the parent's browser to join the call.
type StartCallResult struct {
	ConversationID   string       `json:"conversation_id"`
	ConversationURL  string       `json:"conversation_url"`
	ExpiresAt        string       `json:"expires_at"`
	CallMetadata     CallMetadata `json:"call_metadata"`
	EstimatedEndTime time.Time    `json:"estimated_end_time"`
}

// Service orchestrates a Santa call from request to provider conversation.
type Service struct {
	arcs     *arcs.Repository
	greeter  *greeting.Selector
	prompts  *prompts.PromptBuilder
	provider Provider
	recorder Recorder
	settings Settings
	now      func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the time source used for estimated end times.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService wires the orchestrator. Zero-valued settings fall back to
// DefaultSettings field by field.
func NewService(repo *arcs.Repository, greeter *greeting.Selector, provider Provider, recorder Recorder, settings Settings, opts ...Option) *Service {
	def := DefaultSettings()
	if len(settings.SupportedDurations) == 0 {
		settings.SupportedDurations = def.SupportedDurations
	}
	if settings.MinAge == 0 {
		settings.MinAge = def.MinAge
	}
	if settings.MaxAge == 0 {
		settings.MaxAge = def.MaxAge
	}
	if settings.MaxNameLength == 0 {
		settings.MaxNameLength = def.MaxNameLength
	}
	if settings.ParticipantLeftTimeout == 0 {
		settings.ParticipantLeftTimeout = def.ParticipantLeftTimeout
	}

	s := &Service{
		arcs:     repo,
		greeter:  greeter,
		prompts:  prompts.NewPromptBuilder(),
		provider: provider,
		recorder: recorder,
		settings: settings,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Settings returns the effective settings.
func (s *Service) Settings() Settings {
	out := s.settings
	out.SupportedDurations = append([]string(nil), s.settings.SupportedDurations...)
	return out
}

// MissingCredentials lists the provider settings that are not set.
func (s *Service) MissingCredentials() []string {
	var missing []string
	if s.provider == nil || !s.provider.HasAPIKey() {
		missing = append(missing, CredentialAPIKey)
	}
	if s.provider == nil || s.provider.PersonaID() == "" {
		missing = append(missing, CredentialPersonaID)
	}
	return missing
}

// StartCall validates the request, builds the personalised prompt and asks the
// provider for a conversation. Recording the call is best-effort: a failure is
// logged and the successful result is still returned.
func (s *Service) StartCall(ctx context.Context, req StartCallRequest) (*StartCallResult, error) {
	req = req.normalize()
	if err := s.validateStart(req); err != nil {
		return nil, err
	}
	if missing := s.MissingCredentials(); len(missing) > 0 {
		return nil, &ConfigurationError{Missing: missing}
	}

	arc, err := s.arcs.Get(req.CallDuration)
	if err != nil {
		return nil, err
	}
	greet, err := s.greeter.Select(req.ChildName, req.ChildAge)
	if err != nil {
		return nil, &ConfigurationError{Err: fmt.Errorf("select greeting: %w", err)}
	}

	prompt := s.prompts.Build(prompts.Input{
		Arc:        arc,
		Greeting:   greet.Text,
		ChildName:  req.ChildName,
		ChildAge:   req.ChildAge,
		Adaptation: greet.Bucket.Adaptation,
	})

	metadata := map[string]any{
		"child_name":    req.ChildName,
		"child_age":     req.ChildAge,
		"call_duration": req.CallDuration,
		"arc_name":      arc.Name,
		"age_bucket":    greet.Bucket.Key,
	}
	if req.ParentEmail != "" {
		metadata["parent_email"] = req.ParentEmail
	}

	conv, err := s.provider.CreateConversation(ctx, tavus.ConversationRequest{
		PersonaID:             s.provider.PersonaID(),
		ConversationName:      "Santa call with " + req.ChildName,
		ConversationalContext: prompt,
		Properties: tavus.ConversationProperties{
			MaxCallDuration:        arc.TotalDurationSeconds,
			EnableRecording:        s.settings.EnableRecording,
			ParticipantLeftTimeout: s.settings.ParticipantLeftTimeout,
		},
		CustomMetadata: metadata,
	})
	if err != nil {
		log.Error().
			Err(err).
			Str("call_duration", req.CallDuration).
			Int("child_age", req.ChildAge).
			Msg("Failed to create provider conversation")
		return nil, fmt.Errorf("create conversation: %w", err)
	}

	started := s.now().UTC().Truncate(time.Second)
	estimatedEnd := started.Add(time.Duration(arc.TotalDurationSeconds) * time.Second)
	expiresAt := conv.ExpiresAt
	if expiresAt == "" {
		expiresAt = estimatedEnd.Format(time.RFC3339)
	}

	if err := s.recorder.RecordStart(ctx, analytics.CallRecord{
		ConversationID: conv.ConversationID,
		ChildAge:       req.ChildAge,
		CallDuration:   req.CallDuration,
		ParentEmail:    req.ParentEmail,
		StartedAt:      started,
	}); err != nil {
		log.Warn().
			Err(err).
			Str("conversation_id", conv.ConversationID).
			Msg("Failed to record call start; continuing")
	}

	log.Info().
		Str("conversation_id", conv.ConversationID).
		Str("call_duration", req.CallDuration).
		Str("age_bucket", greet.Bucket.Key).
		Bool("age_clamped", greet.Clamped).
		Msg("Santa call started")

	return &StartCallResult{
		ConversationID:  conv.ConversationID,
		ConversationURL: conv.ConversationURL,
		ExpiresAt:       expiresAt,
		CallMetadata: CallMetadata{
			ChildName:    req.ChildName,
			ChildAge:     req.ChildAge,
			CallDuration: req.CallDuration,
			Greeting:     greet.Text,
			ArcName:      arc.Name,
			Phases:       arc.PhaseCount(),
		},
		EstimatedEndTime: estimatedEnd,
	}, nil
}

// CompleteCall records the outcome of a finished call. Completing an unknown
// call returns analytics.ErrCallNotFound and completing one twice returns
// analytics.ErrAlreadyCompleted.
func (s *Service) CompleteCall(ctx context.Context, req CompleteCallRequest) (*analytics.CallRecord, error) {
	if err := s.validateComplete(req); err != nil {
		return nil, err
	}
	id := req.ConversationID
	rec, err := s.recorder.RecordCompletion(ctx, id, analytics.Completion{
		ActualDurationSeconds: *req.ActualDurationSeconds,
		ParentRating:          req.ParentRating,
		ParentFeedback:        req.ParentFeedback,
		ChildEnjoyed:          req.ChildEnjoyed,
	})
	if err != nil {
		return nil, err
	}

	ev := log.Info().
		Str("conversation_id", id).
		Int("actual_duration_seconds", *req.ActualDurationSeconds)
	if req.ParentRating != nil {
		ev = ev.Int("parent_rating", *req.ParentRating)
	}
	ev.Msg("Santa call completed")
	return &rec, nil
}

// Analytics returns aggregate call statistics.
func (s *Service) Analytics(ctx context.Context) analytics.AggregateStats {
	return s.recorder.ComputeAggregates(ctx)
}

// Arc returns the arc for a supported duration key.
func (s *Service) Arc(durationKey string) (arcs.ConversationArc, error) {
	verr := &ValidationError{}
	s.checkDuration(verr, durationKey)
	if err := verr.errOrNil(); err != nil {
		return arcs.ConversationArc{}, err
	}
	return s.arcs.Get(durationKey)
}
