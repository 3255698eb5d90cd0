package arcs

import (
	"errors"
	"strings"
)

// ErrArcNotFound is returned when no arc is configured for a duration key.
var ErrArcNotFound = errors.New("arcs: arc not found")

// ConfigError reports an unreadable or invalid arc catalogue.
type ConfigError struct {
	Path     string
	Problems []string
	Err      error
}

func (e *ConfigError) Error() string {
	var b strings.Builder
	b.WriteString("arc catalogue")
	if e.Path != "" {
		b.WriteString(" ")
		b.WriteString(e.Path)
	}
	b.WriteString(": ")
	b.WriteString(strings.Join(e.Problems, "; "))
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *ConfigError) Unwrap() error { return e.Err }
