package arcs

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepository_Get(t *testing.T) {
	repo, err := LoadRepository("testdata/conversation-arcs.yaml")
	require.NoError(t, err)

	arc, err := repo.Get("10min")
	require.NoError(t, err)
	assert.Equal(t, "Extended North Pole Visit", arc.Name)
	assert.Equal(t, 5, arc.PhaseCount())

	_, err = repo.Get("15min")
	assert.True(t, errors.Is(err, ErrArcNotFound))
	assert.Contains(t, err.Error(), `"15min"`)
}

func TestRepository_ReturnsCopies(t *testing.T) {
	repo, err := LoadRepository("testdata/conversation-arcs.yaml")
	require.NoError(t, err)

	arc, err := repo.Get("5min")
	require.NoError(t, err)
	arc.Phases[0].Name = "mutated"
	arc.Phases[0].Goals[0] = "mutated"
	arc.Timing.MaxResponseLengthSeconds = 99

	again, err := repo.Get("5min")
	require.NoError(t, err)
	assert.Equal(t, "warm_greeting", again.Phases[0].Name)
	assert.Equal(t, "Greet the child by name", again.Phases[0].Goals[0])
	assert.Equal(t, 15.0, again.Timing.MaxResponseLengthSeconds)

	buckets := repo.Buckets()
	buckets[0].Templates[0] = "mutated"
	assert.NotEqual(t, "mutated", repo.Buckets()[0].Templates[0])
}

func TestRepository_KeysAndRequireDurations(t *testing.T) {
	repo, err := LoadRepository("testdata/conversation-arcs.yaml")
	require.NoError(t, err)

	assert.Equal(t, []string{"10min", "5min"}, repo.Keys())
	assert.Equal(t, 2, repo.Len())
	assert.NoError(t, repo.RequireDurations([]string{"5min", "10min"}))

	err = repo.RequireDurations([]string{"5min", "20min"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrArcNotFound))
	assert.Contains(t, err.Error(), "20min")
}

func TestNewRepository_Nil(t *testing.T) {
	repo := NewRepository(nil)
	assert.Equal(t, 0, repo.Len())
	_, err := repo.Get("5min")
	assert.ErrorIs(t, err, ErrArcNotFound)
}

func TestRepository_Timing(t *testing.T) {
	repo, err := LoadRepository("testdata/conversation-arcs.yaml")
	require.NoError(t, err)

	timing := repo.Timing("5min")
	require.NotNil(t, timing)
	assert.Equal(t, 8.0, timing.AverageResponseLengthSeconds)
	assert.Equal(t, 1.5, timing.PauseBetweenResponsesSeconds)

	assert.Nil(t, repo.Timing("10min"))
	assert.Nil(t, repo.Timing("unknown"))
}

func TestRepository_MaxTotalDuration(t *testing.T) {
	repo, err := LoadRepository("testdata/conversation-arcs.yaml")
	require.NoError(t, err)
	assert.Equal(t, 600, repo.MaxTotalDuration())

	assert.Equal(t, 0, NewRepository(nil).MaxTotalDuration())
}
