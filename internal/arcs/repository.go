package arcs

import (
	"fmt"
	"sort"
	"strings"
)

// Repository serves arcs and age buckets from a validated catalogue. It is
// read-only after construction and safe for concurrent use.
type Repository struct {
	arcs    map[string]ConversationArc
	keys    []string
	buckets []AgeBucket
}

// NewRepository indexes cat. The catalogue is copied so later changes to it
// cannot leak into the repository.
func NewRepository(cat *Catalog) *Repository {
	r := &Repository{arcs: make(map[string]ConversationArc)}
	if cat == nil {
		return r
	}
	for key, arc := range cat.Arcs {
		r.arcs[key] = arc.clone()
		r.keys = append(r.keys, key)
	}
	sort.Strings(r.keys)
	for _, b := range cat.Buckets {
		r.buckets = append(r.buckets, b.clone())
	}
	return r
}

// LoadRepository loads the catalogue at path and indexes it.
func LoadRepository(path string) (*Repository, error) {
	cat, err := Load(path)
	if err != nil {
		return nil, err
	}
	return NewRepository(cat), nil
}

// Get returns the arc for durationKey or ErrArcNotFound.
func (r *Repository) Get(durationKey string) (ConversationArc, error) {
	arc, ok := r.arcs[durationKey]
	if !ok {
		return ConversationArc{}, fmt.Errorf("%w: %q", ErrArcNotFound, durationKey)
	}
	return arc.clone(), nil
}

// Timing returns the response pacing for durationKey, or nil when the
// catalogue has none.
func (r *Repository) Timing(durationKey string) *TimingGuidelines {
	arc, ok := r.arcs[durationKey]
	if !ok || arc.Timing == nil {
		return nil
	}
	t := *arc.Timing
	return &t
}

// MaxTotalDuration returns the longest arc's total duration in seconds.
func (r *Repository) MaxTotalDuration() int {
	longest := 0
	for _, arc := range r.arcs {
		longest = max(longest, arc.TotalDurationSeconds)
	}
	return longest
}

// Keys returns the configured duration keys in sorted order.
func (r *Repository) Keys() []string {
	return append([]string(nil), r.keys...)
}

// Len returns the number of arcs loaded.
func (r *Repository) Len() int {
	return len(r.arcs)
}

// Buckets returns the age buckets sorted by minimum age.
func (r *Repository) Buckets() []AgeBucket {
	out := make([]AgeBucket, len(r.buckets))
	for i, b := range r.buckets {
		out[i] = b.clone()
	}
	return out
}

// RequireDurations checks that every key has an arc.
func (r *Repository) RequireDurations(keys []string) error {
	var missing []string
	for _, k := range keys {
		if _, ok := r.arcs[k]; !ok {
			missing = append(missing, k)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrArcNotFound, strings.Join(missing, ", "))
	}
	return nil
}
