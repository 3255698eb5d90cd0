package tavus

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/santacall/internal/retry"
)

// DefaultBaseURL is the Tavus v2 API root.
const DefaultBaseURL = "https://tavusapi.com/v2"

const maxErrorBody = 4 << 10

// Options configures a Client. Zero values fall back to defaults.
type Options struct {
	BaseURL     string
	APIKey      string
	PersonaID   string
	Timeout     time.Duration // per create-conversation call, default 30s
	PingTimeout time.Duration // per reachability probe, default 5s
	RateLimit   float64       // requests per second, 0 disables limiting
	Burst       int
	HTTPClient  *http.Client
}

// Client talks to the Tavus conversation API. It makes exactly one attempt per
// call; retrying is left to the caller.
type Client struct {
	baseURL     string
	apiKey      string
	personaID   string
	timeout     time.Duration
	pingTimeout time.Duration
	httpClient  *http.Client
	limiter     *rate.Limiter
}

// NewClient creates a provider client.
func NewClient(opts Options) *Client {
	c := &Client{
		baseURL:     strings.TrimSuffix(opts.BaseURL, "/"),
		apiKey:      opts.APIKey,
		personaID:   opts.PersonaID,
		timeout:     opts.Timeout,
		pingTimeout: opts.PingTimeout,
		httpClient:  opts.HTTPClient,
	}
	if c.baseURL == "" {
		c.baseURL = DefaultBaseURL
	}
	if c.timeout <= 0 {
		c.timeout = 30 * time.Second
	}
	if c.pingTimeout <= 0 {
		c.pingTimeout = 5 * time.Second
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{}
	}
	if opts.RateLimit > 0 {
		burst := opts.Burst
		if burst <= 0 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), burst)
	}
	return c
}

// PersonaID returns the configured persona.
func (c *Client) PersonaID() string { return c.personaID }

// HasAPIKey reports whether an API key is set.
func (c *Client) HasAPIKey() bool { return c.apiKey != "" }

// Configured reports whether both credentials are present.
func (c *Client) Configured() bool {
	return c.apiKey != "" && c.personaID != ""
}

// CreateConversation asks the provider for a new conversation. An empty
// PersonaID in req is filled from the client configuration.
func (c *Client) CreateConversation(ctx context.Context, req ConversationRequest) (*Conversation, error) {
	const op = "create conversation"

	if req.PersonaID == "" {
		req.PersonaID = c.personaID
	}
	if c.apiKey == "" || req.PersonaID == "" {
		return nil, &ProviderError{Op: op, Err: ErrMissingCredentials}
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := c.wait(ctx); err != nil {
		return nil, &ProviderError{Op: op, Message: "rate limited before request was sent", Retryable: true, Err: err}
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, &ProviderError{Op: op, Message: "failed to encode request", Err: err}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/conversations", bytes.NewReader(body))
	if err != nil {
		return nil, &ProviderError{Op: op, Message: "failed to create request", Err: err}
	}
	httpReq.Header.Set("x-api-key", c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	log.Debug().
		Str("persona_id", req.PersonaID).
		Str("conversation_name", req.ConversationName).
		Int("max_call_duration", req.Properties.MaxCallDuration).
		Msg("Creating provider conversation")

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, c.transportError(op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, statusError(op, resp)
	}

	var conv Conversation
	if err := json.NewDecoder(resp.Body).Decode(&conv); err != nil {
		return nil, &ProviderError{Op: op, StatusCode: resp.StatusCode, Message: "failed to parse response", Err: err}
	}
	if conv.ConversationID == "" || conv.ConversationURL == "" {
		return nil, &ProviderError{Op: op, StatusCode: resp.StatusCode, Message: "response missing conversation_id or conversation_url"}
	}

	log.Debug().
		Str("conversation_id", conv.ConversationID).
		Dur("elapsed", time.Since(start)).
		Msg("Provider conversation created")
	return &conv, nil
}

// Ping checks that the provider API answers. A 401 still counts as reachable:
// the service is up even if the key is wrong.
func (c *Client) Ping(ctx context.Context) (bool, error) {
	const op = "ping"

	ctx, cancel := context.WithTimeout(ctx, c.pingTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/personas", nil)
	if err != nil {
		return false, &ProviderError{Op: op, Message: "failed to create request", Err: err}
	}
	if c.apiKey != "" {
		req.Header.Set("x-api-key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, c.transportError(op, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBody))

	switch resp.StatusCode {
	case http.StatusOK, http.StatusUnauthorized:
		return true, nil
	default:
		return false, &ProviderError{Op: op, StatusCode: resp.StatusCode, Message: resp.Status}
	}
}

func (c *Client) wait(ctx context.Context) error {
	if c.limiter == nil {
		return nil
	}
	return c.limiter.Wait(ctx)
}

func (c *Client) transportError(op string, err error) *ProviderError {
	pe := &ProviderError{
		Op:        op,
		Err:       err,
		Timeout:   isTimeout(err),
		Retryable: retry.IsRetryableError(err),
	}
	if pe.Timeout {
		pe.Message = "timeout connecting to provider"
		pe.Retryable = true
	} else {
		pe.Message = "error connecting to provider"
	}
	return pe
}

func statusError(op string, resp *http.Response) *ProviderError {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	msg := strings.TrimSpace(string(raw))

	var eb errorBody
	if json.Unmarshal(raw, &eb) == nil {
		switch {
		case eb.Message != "":
			msg = eb.Message
		case eb.Error != "":
			msg = eb.Error
		case eb.Detail != "":
			msg = eb.Detail
		}
	}
	if msg == "" {
		msg = resp.Status
	}

	return &ProviderError{
		Op:         op,
		StatusCode: resp.StatusCode,
		Message:    msg,
		Retryable:  retry.IsRetryableStatus(resp.StatusCode),
		Err:        fmt.Errorf("unexpected status %d", resp.StatusCode),
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
