package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/santacall/internal/arcs"
	"github.com/santacall/internal/calls"
)

// CompleteCallResponse acknowledges a recorded completion.
type CompleteCallResponse struct {
	Status         string `json:"status"`
	Message        string `json:"message"`
	ConversationID string `json:"conversation_id"`
}

// ArcResponse describes one conversation arc.
type ArcResponse struct {
	Duration         string                 `json:"duration"`
	Arc              arcs.ConversationArc   `json:"arc"`
	TimingGuidelines *arcs.TimingGuidelines `json:"timing_guidelines"`
}

func (s *Server) root(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"service":     "Santa Video Call API",
		"version":     s.opts.Version,
		"description": "Personalised video calls with Santa",
		"endpoints": map[string]string{
			"start_call":    "POST /api/santa/start-call",
			"complete_call": "POST /api/santa/complete-call",
			"analytics":     "GET /api/santa/analytics",
			"arc":           "GET /api/santa/arcs/:duration",
			"health":        "GET /api/health",
		},
	})
}

// startCall handles POST /api/santa/start-call.
func (s *Server) startCall(c echo.Context) error {
	var req calls.StartCallRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body").SetInternal(err)
	}

	res, err := s.calls.StartCall(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, res)
}

// completeCall handles POST /api/santa/complete-call.
func (s *Server) completeCall(c echo.Context) error {
	var req calls.CompleteCallRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body").SetInternal(err)
	}

	rec, err := s.calls.CompleteCall(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, CompleteCallResponse{
		Status:         "success",
		Message:        "Call completion recorded",
		ConversationID: rec.ConversationID,
	})
}

func (s *Server) analytics(c echo.Context) error {
	return c.JSON(http.StatusOK, s.calls.Analytics(c.Request().Context()))
}

func (s *Server) arc(c echo.Context) error {
	duration := c.Param("duration")
	arc, err := s.calls.Arc(duration)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ArcResponse{
		Duration:         duration,
		Arc:              arc,
		TimingGuidelines: arc.Timing,
	})
}
