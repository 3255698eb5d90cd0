package analytics

import "time"

// CallStatus is the lifecycle state of a recorded call.
type CallStatus string

const (
	StatusInitiated CallStatus = "initiated"
	StatusCompleted CallStatus = "completed"
)

// CallRecord is one started call and, once reported, its outcome.
type CallRecord struct {
	ConversationID string     `json:"conversation_id"`
	ChildAge       int        `json:"child_age"`
	CallDuration   string     `json:"call_duration"`
	ParentEmail    string     `json:"parent_email,omitempty"`
	Status         CallStatus `json:"status"`
	StartedAt      time.Time  `json:"started_at"`

	// Completion fields, set once by RecordCompletion.
	ActualDurationSeconds *int       `json:"actual_duration_seconds,omitempty"`
	ParentRating          *int       `json:"parent_rating,omitempty"`
	ParentFeedback        *string    `json:"parent_feedback,omitempty"`
	ChildEnjoyed          *bool      `json:"child_enjoyed,omitempty"`
	CompletedAt           *time.Time `json:"completed_at,omitempty"`
}

// Completed reports whether outcome data has been recorded.
func (r CallRecord) Completed() bool {
	return r.Status == StatusCompleted
}

// Completion is the outcome reported after a call ends.
type Completion struct {
	ActualDurationSeconds int
	ParentRating          *int
	ParentFeedback        *string
	ChildEnjoyed          *bool
}

// AggregateStats is a read-time projection over all call records.
type AggregateStats struct {
	TotalCalls             int            `json:"total_calls"`
	CallsToday             int            `json:"calls_today"`
	AverageDurationSeconds float64        `json:"average_duration_seconds"`
	AverageRating          float64        `json:"average_rating"`
	CallsByDuration        map[string]int `json:"calls_by_duration"`
	CallsByAge             map[int]int    `json:"calls_by_age"`
}

func cloneRecord(r *CallRecord) CallRecord {
	out := *r
	if r.ActualDurationSeconds != nil {
		v := *r.ActualDurationSeconds
		out.ActualDurationSeconds = &v
	}
	if r.ParentRating != nil {
		v := *r.ParentRating
		out.ParentRating = &v
	}
	if r.ParentFeedback != nil {
		v := *r.ParentFeedback
		out.ParentFeedback = &v
	}
	if r.ChildEnjoyed != nil {
		v := *r.ChildEnjoyed
		out.ChildEnjoyed = &v
	}
	if r.CompletedAt != nil {
		v := *r.CompletedAt
		out.CompletedAt = &v
	}
	return out
}
