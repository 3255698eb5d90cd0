package greeting

import (
	"errors"
	"fmt"
	"strings"

	"github.com/santacall/internal/arcs"
)

// ChildTerm is the gender-neutral word substituted for the {child} placeholder.
const ChildTerm = "child"

var (
	// ErrInvalidAge is returned for ages below 1.
	ErrInvalidAge = errors.New("greeting: age must be a positive integer")
	// ErrNoBuckets is returned when the selector has no age buckets to choose from.
	ErrNoBuckets = errors.New("greeting: no age buckets configured")
)

// Greeting is a rendered greeting with the bucket and template it came from.
type Greeting struct {
	Text          string
	Bucket        arcs.AgeBucket
	TemplateIndex int
	// Clamped is true when the age fell outside every bucket and the nearest
	// bucket was used instead.
	Clamped bool
}

// Selector classifies ages into buckets and renders greeting templates.
type Selector struct {
	buckets []arcs.AgeBucket
	picker  Picker
}

// NewSelector returns a selector over buckets, which must be sorted by MinAge
// and non-overlapping (as produced by arcs.Repository.Buckets).
func NewSelector(buckets []arcs.AgeBucket, picker Picker) *Selector {
	if picker == nil {
		picker = FixedPicker{}
	}
	return &Selector{
		buckets: buckets,
		picker:  picker,
	}
}

// Classify returns the bucket for age. Ages outside every configured range are
// clamped to the nearest bucket: below the lowest range goes to the first
// bucket, above the highest to the last, and ages in a gap go to the bucket
// with the closest edge (ties favour the younger bucket).
func (s *Selector) Classify(age int) (arcs.AgeBucket, bool, error) {
	if age < 1 {
		return arcs.AgeBucket{}, false, fmt.Errorf("%w: %d", ErrInvalidAge, age)
	}
	if len(s.buckets) == 0 {
		return arcs.AgeBucket{}, false, ErrNoBuckets
	}

	best, bestDist := 0, -1
	for i, b := range s.buckets {
		if b.Contains(age) {
			return b, false, nil
		}
		d := b.MinAge - age
		if age > b.MaxAge {
			d = age - b.MaxAge
		}
		if bestDist < 0 || d < bestDist {
			best, bestDist = i, d
		}
	}
	return s.buckets[best], true, nil
}

// Select classifies childAge, picks a template and substitutes childName.
func (s *Selector) Select(childName string, childAge int) (Greeting, error) {
	bucket, clamped, err := s.Classify(childAge)
	if err != nil {
		return Greeting{}, err
	}
	if len(bucket.Templates) == 0 {
		return Greeting{}, fmt.Errorf("greeting: bucket %q has no templates", bucket.Key)
	}
	idx := s.picker.Pick(len(bucket.Templates))
	r := strings.NewReplacer(arcs.NamePlaceholder, childName, "{child}", ChildTerm)
	return Greeting{
		Text:          r.Replace(bucket.Templates[idx]),
		Bucket:        bucket,
		TemplateIndex: idx,
		Clamped:       clamped,
	}, nil
}

// Text is Select without the bucket details.
func (s *Selector) Text(childName string, childAge int) (string, error) {
	g, err := s.Select(childName, childAge)
	if err != nil {
		return "", err
	}
	return g.Text, nil
}
