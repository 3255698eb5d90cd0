package analytics

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

var (
	ErrCallNotFound     = errors.New("analytics: call not found")
	ErrAlreadyCompleted = errors.New("analytics: call already completed")
	ErrDuplicateCall    = errors.New("analytics: call already recorded")
	ErrInvalidRecord    = errors.New("analytics: invalid call record")
)

// Store is a threadsafe in-memory call store. Records live for the lifetime of
// the process.
type Store struct {
	mu    sync.RWMutex
	byID  map[string]*CallRecord
	order []string
	now   func() time.Time
	loc   *time.Location
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithLocation sets the timezone that decides which calendar day "today" is.
func WithLocation(loc *time.Location) Option {
	return func(s *Store) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// NewStore creates an empty store reporting days in UTC unless configured.
func NewStore(opts ...Option) *Store {
	s := &Store{
		byID: make(map[string]*CallRecord),
		now:  time.Now,
		loc:  time.UTC,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RecordStart stores a newly initiated call. StartedAt defaults to now.
func (s *Store) RecordStart(ctx context.Context, rec CallRecord) error {
	if rec.ConversationID == "" {
		return fmt.Errorf("%w: empty conversation id", ErrInvalidRecord)
	}
	if rec.ChildAge <= 0 {
		return fmt.Errorf("%w: child age must be positive", ErrInvalidRecord)
	}
	if rec.CallDuration == "" {
		return fmt.Errorf("%w: empty call duration", ErrInvalidRecord)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[rec.ConversationID]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateCall, rec.ConversationID)
	}
	if rec.StartedAt.IsZero() {
		rec.StartedAt = s.now()
	}
	rec.Status = StatusInitiated
	rec.ActualDurationSeconds = nil
	rec.ParentRating = nil
	rec.ParentFeedback = nil
	rec.ChildEnjoyed = nil
	rec.CompletedAt = nil

	stored := cloneRecord(&rec)
	s.byID[rec.ConversationID] = &stored
	s.order = append(s.order, rec.ConversationID)
	return nil
}

// RecordCompletion fills in the outcome of a call exactly once. A second
// completion for the same id is rejected with ErrAlreadyCompleted and leaves
// the record unchanged.
func (s *Store) RecordCompletion(ctx context.Context, conversationID string, c Completion) (CallRecord, error) {
	if c.ParentRating != nil && (*c.ParentRating < 1 || *c.ParentRating > 5) {
		return CallRecord{}, fmt.Errorf("%w: rating %d outside 1-5", ErrInvalidRecord, *c.ParentRating)
	}
	if c.ActualDurationSeconds < 0 {
		return CallRecord{}, fmt.Errorf("%w: negative duration", ErrInvalidRecord)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.byID[conversationID]
	if !ok {
		return CallRecord{}, fmt.Errorf("%w: %s", ErrCallNotFound, conversationID)
	}
	if rec.Completed() {
		return CallRecord{}, fmt.Errorf("%w: %s", ErrAlreadyCompleted, conversationID)
	}

	done := s.now()
	dur := c.ActualDurationSeconds
	updated := *rec
	updated.Status = StatusCompleted
	updated.ActualDurationSeconds = &dur
	updated.ParentRating = c.ParentRating
	updated.ParentFeedback = c.ParentFeedback
	updated.ChildEnjoyed = c.ChildEnjoyed
	updated.CompletedAt = &done

	stored := cloneRecord(&updated)
	s.byID[conversationID] = &stored
	return cloneRecord(&stored), nil
}

// Get returns a copy of the record for conversationID.
func (s *Store) Get(ctx context.Context, conversationID string) (CallRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.byID[conversationID]
	if !ok {
		return CallRecord{}, fmt.Errorf("%w: %s", ErrCallNotFound, conversationID)
	}
	return cloneRecord(rec), nil
}

// Snapshot returns copies of all records in start order.
func (s *Store) Snapshot(ctx context.Context) []CallRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]CallRecord, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, cloneRecord(s.byID[id]))
	}
	return out
}

// Count returns the number of calls started.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}

// ComputeAggregates recomputes statistics from a consistent snapshot.
func (s *Store) ComputeAggregates(ctx context.Context) AggregateStats {
	records := s.Snapshot(ctx)
	return Aggregate(records, s.now(), s.loc)
}
