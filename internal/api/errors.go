package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/santacall/internal/analytics"
	"github.com/santacall/internal/arcs"
	"github.com/santacall/internal/calls"
	"github.com/santacall/internal/tavus"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error          bool      `json:"error"`
	StatusCode     int       `json:"status_code"`
	Message        string    `json:"message"`
	Timestamp      time.Time `json:"timestamp"`
	RequestID      string    `json:"request_id,omitempty"`
	Details        any       `json:"details,omitempty"`
	UpstreamStatus int       `json:"upstream_status,omitempty"`
}

// classify maps a handler error to a status code and response body.
func classify(err error) ErrorResponse {
	var (
		verr *calls.ValidationError
		cerr *calls.ConfigurationError
		perr *tavus.ProviderError
		herr *echo.HTTPError
	)

	switch {
	case errors.As(err, &verr):
		return ErrorResponse{StatusCode: http.StatusBadRequest, Message: "Invalid request", Details: verr.Fields}
	case errors.Is(err, arcs.ErrArcNotFound):
		return ErrorResponse{StatusCode: http.StatusNotFound, Message: "Conversation arc not found"}
	case errors.Is(err, analytics.ErrCallNotFound):
		return ErrorResponse{StatusCode: http.StatusNotFound, Message: "Call not found"}
	case errors.Is(err, analytics.ErrAlreadyCompleted):
		return ErrorResponse{StatusCode: http.StatusConflict, Message: "Call completion already recorded"}
	case errors.As(err, &cerr):
		resp := ErrorResponse{StatusCode: http.StatusServiceUnavailable, Message: "Service not configured"}
		if len(cerr.Missing) > 0 {
			resp.Message += ": missing " + strings.Join(cerr.Missing, ", ")
			resp.Details = map[string][]string{"missing": cerr.Missing}
		}
		return resp
	case errors.Is(err, tavus.ErrMissingCredentials):
		return ErrorResponse{StatusCode: http.StatusServiceUnavailable, Message: "Service not configured: " + tavus.ErrMissingCredentials.Error()}
	case errors.As(err, &perr):
		return classifyProvider(perr)
	case errors.As(err, &herr):
		msg := http.StatusText(herr.Code)
		if m, ok := herr.Message.(string); ok && m != "" {
			msg = m
		}
		return ErrorResponse{StatusCode: herr.Code, Message: msg}
	default:
		return ErrorResponse{StatusCode: http.StatusInternalServerError, Message: "Internal server error"}
	}
}

func classifyProvider(perr *tavus.ProviderError) ErrorResponse {
	switch {
	case perr.Timeout:
		return ErrorResponse{StatusCode: http.StatusGatewayTimeout, Message: "Video provider timed out"}
	case perr.StatusCode == 0:
		return ErrorResponse{StatusCode: http.StatusServiceUnavailable, Message: "Video provider unavailable: " + perr.Message}
	default:
		return ErrorResponse{
			StatusCode:     http.StatusBadGateway,
			Message:        fmt.Sprintf("Video provider error: %s", perr.Message),
			UpstreamStatus: perr.StatusCode,
		}
	}
}

// handleError is the echo HTTPErrorHandler for the whole API.
func (s *Server) handleError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	resp := classify(err)
	resp.Error = true
	resp.Timestamp = time.Now().UTC()
	resp.RequestID = c.Response().Header().Get(echo.HeaderXRequestID)

	ev := log.Warn()
	if resp.StatusCode >= http.StatusInternalServerError {
		ev = log.Error()
	}
	ev.Err(err).
		Int("status", resp.StatusCode).
		Str("request_id", resp.RequestID).
		Str("path", c.Path()).
		Msg("Request failed")

	var werr error
	if c.Request().Method == http.MethodHead {
		werr = c.NoContent(resp.StatusCode)
	} else {
		werr = c.JSON(resp.StatusCode, resp)
	}
	if werr != nil {
		log.Error().Err(werr).Msg("Failed to write error response")
	}
}
