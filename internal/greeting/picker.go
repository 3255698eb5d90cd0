package greeting

import (
	"fmt"
	"math/rand"
	"sync"
	"time"
)

// Picker chooses one of n templates. Implementations must return a value in [0, n).
type Picker interface {
	Pick(n int) int
}

// FixedPicker always picks the same index (modulo n). Index 0 is "first template".
type FixedPicker struct {
	Index int
}

func (p FixedPicker) Pick(n int) int {
	if n <= 0 {
		return 0
	}
	i := p.Index % n
	if i < 0 {
		i += n
	}
	return i
}

// RandomPicker picks uniformly using its own seeded source.
type RandomPicker struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

// NewRandomPicker returns a RandomPicker. A zero seed seeds from the clock.
func NewRandomPicker(seed int64) *RandomPicker {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &RandomPicker{rnd: rand.New(rand.NewSource(seed))}
}

func (p *RandomPicker) Pick(n int) int {
	if n <= 0 {
		return 0
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.rnd.Intn(n)
}

// Selection policies accepted by NewPicker.
const (
	PolicyRandom = "random"
	PolicyFirst  = "first"
)

// NewPicker builds a picker from a configured policy name.
func NewPicker(policy string, seed int64) (Picker, error) {
	switch policy {
	case "", PolicyRandom:
		return NewRandomPicker(seed), nil
	case PolicyFirst:
		return FixedPicker{}, nil
	default:
		return nil, fmt.Errorf("unknown greeting selection policy %q", policy)
	}
}
