package calls

import (
	"net/mail"
	"slices"
	"strings"
	"unicode/utf8"
)

// MaxFeedbackLength bounds free-text parent feedback, in characters.
const MaxFeedbackLength = 2000

// MaxDurationFactor bounds a reported call duration to this multiple of the
// longest arc.
const MaxDurationFactor = 3

// StartCallRequest is the body of POST /api/santa/start-call.
type StartCallRequest struct {
	ChildName    string `json:"child_name"`
	ChildAge     int    `json:"child_age"`
	CallDuration string `json:"call_duration"`
	ParentEmail  string `json:"parent_email,omitempty"`
}

// CompleteCallRequest is the body of POST /api/santa/complete-call.
type CompleteCallRequest struct {
	ConversationID        string  `json:"conversation_id"`
	ActualDurationSeconds *int    `json:"actual_duration_seconds"`
	ParentRating          *int    `json:"parent_rating,omitempty"`
	ParentFeedback        *string `json:"parent_feedback,omitempty"`
	ChildEnjoyed          *bool   `json:"child_enjoyed,omitempty"`
}

// normalize trims whitespace from free-text fields.
func (r StartCallRequest) normalize() StartCallRequest {
	r.ChildName = strings.TrimSpace(r.ChildName)
	r.CallDuration = strings.TrimSpace(r.CallDuration)
	r.ParentEmail = strings.TrimSpace(r.ParentEmail)
	return r
}

func (s *Service) validateStart(req StartCallRequest) error {
	verr := &ValidationError{}

	switch n := utf8.RuneCountInString(req.ChildName); {
	case n == 0:
		verr.add("child_name", "is required")
	case n > s.settings.MaxNameLength:
		verr.add("child_name", "must be at most %d characters", s.settings.MaxNameLength)
	}

	if req.ChildAge < s.settings.MinAge || req.ChildAge > s.settings.MaxAge {
		verr.add("child_age", "must be between %d and %d", s.settings.MinAge, s.settings.MaxAge)
	}

	s.checkDuration(verr, req.CallDuration)

	if req.ParentEmail != "" && !validEmail(req.ParentEmail) {
		verr.add("parent_email", "must be a valid email address")
	}
	return verr.errOrNil()
}

func (s *Service) checkDuration(verr *ValidationError, duration string) {
	if duration == "" {
		verr.add("call_duration", "is required")
		return
	}
	if !slices.Contains(s.settings.SupportedDurations, duration) {
		verr.add("call_duration", "must be one of %s", strings.Join(s.settings.SupportedDurations, ", "))
	}
}

func (s *Service) validateComplete(req CompleteCallRequest) error {
	verr := &ValidationError{}
	if strings.TrimSpace(req.ConversationID) == "" {
		verr.add("conversation_id", "is required")
	}
	switch d := req.ActualDurationSeconds; {
	case d == nil:
		verr.add("actual_duration_seconds", "is required")
	case *d < 0:
		verr.add("actual_duration_seconds", "must not be negative")
	case *d > s.maxCallSeconds():
		verr.add("actual_duration_seconds", "must be at most %d", s.maxCallSeconds())
	}
	if req.ParentRating != nil && (*req.ParentRating < 1 || *req.ParentRating > 5) {
		verr.add("parent_rating", "must be between 1 and 5")
	}
	if req.ParentFeedback != nil && utf8.RuneCountInString(*req.ParentFeedback) > MaxFeedbackLength {
		verr.add("parent_feedback", "must be at most %d characters", MaxFeedbackLength)
	}
	return verr.errOrNil()
}

// maxCallSeconds is the longest duration a completed call may report.
func (s *Service) maxCallSeconds() int {
	return MaxDurationFactor * s.arcs.MaxTotalDuration()
}

// validEmail accepts a bare address such as "parent@example.com". Display
// names ("Mum <mum@example.com>") are rejected.
func validEmail(addr string) bool {
	parsed, err := mail.ParseAddress(addr)
	if err != nil {
		return false
	}
	return parsed.Address == addr && strings.Contains(addr[strings.LastIndex(addr, "@"):], ".")
}
