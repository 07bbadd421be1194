package brackets

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dosada05/belote-manager/models"
)

func TestPreliminaryGeneratorFourTeams(t *testing.T) {
	pairs, err := NewPreliminaryGenerator().Generate(GenerateParams{
		Entrants: EntrantsFromIDs([]int{1, 2, 3, 4}),
	})
	require.NoError(t, err)

	assert.Equal(t, []Pair{
		{TeamAID: 1, TeamBID: 2},
		{TeamAID: 1, TeamBID: 3},
		{TeamAID: 1, TeamBID: 4},
		{TeamAID: 2, TeamBID: 3},
		{TeamAID: 2, TeamBID: 4},
		{TeamAID: 3, TeamBID: 4},
	}, pairs)
}

func TestPreliminaryGeneratorCompleteness(t *testing.T) {
	for n := 2; n <= 12; n++ {
		ids := make([]int, n)
		for i := range ids {
			ids[i] = 100 + i
		}
		pairs, err := NewPreliminaryGenerator().Generate(GenerateParams{Entrants: EntrantsFromIDs(ids)})
		require.NoError(t, err)
		require.Len(t, pairs, n*(n-1)/2)

		seen := make(map[[2]int]bool)
		for _, p := range pairs {
			assert.NotEqual(t, p.TeamAID, p.TeamBID)
			key := pairKey(p)
			assert.False(t, seen[key], "pair %v generated twice", key)
			seen[key] = true
		}
	}
}

func TestPreliminaryGeneratorCapIsPrefix(t *testing.T) {
	gen := NewPreliminaryGenerator()
	entrants := EntrantsFromIDs([]int{5, 6, 7, 8, 9})

	full, err := gen.Generate(GenerateParams{Entrants: entrants})
	require.NoError(t, err)

	for k := 1; k < len(full); k++ {
		capped, err := gen.Generate(GenerateParams{Entrants: entrants, MaxMatches: k})
		require.NoError(t, err)
		assert.Equal(t, full[:k], capped)
	}

	over, err := gen.Generate(GenerateParams{Entrants: entrants, MaxMatches: 100})
	require.NoError(t, err)
	assert.Equal(t, full, over)
}

func TestPreliminaryGeneratorInsufficientTeams(t *testing.T) {
	for _, ids := range [][]int{nil, {1}} {
		_, err := NewPreliminaryGenerator().Generate(GenerateParams{Entrants: EntrantsFromIDs(ids)})
		assert.ErrorIs(t, err, ErrInsufficientTeams)
	}
}

func TestCoverPreliminariesAfterCappedRound(t *testing.T) {
	history := []models.Match{prelim(1, 1, 2, 100, 60, true), prelim(2, 1, 3, 100, 60, true)}

	got := CoverPreliminaries([]int{1, 2, 3, 4}, []int{4}, history)

	assert.Equal(t, []Pair{{TeamAID: 2, TeamBID: 4}}, got.Pairs)
	assert.Empty(t, got.Unpaired)
	assert.Zero(t, got.Repeats)
}

func TestCoverPreliminariesPairsUncoveredTogether(t *testing.T) {
	history := []models.Match{prelim(1, 1, 2, 100, 60, true)}

	got := CoverPreliminaries([]int{1, 2, 3, 4, 5}, []int{5, 3, 4}, history)

	assert.Equal(t, []Pair{
		{TeamAID: 3, TeamBID: 4},
		{TeamAID: 1, TeamBID: 5},
	}, got.Pairs)
	assert.Empty(t, got.Unpaired)
}

func TestCoverPreliminariesIgnoresUnknownAndDuplicateTeams(t *testing.T) {
	history := []models.Match{prelim(1, 1, 2, 100, 60, true), prelim(2, 1, 3, 100, 60, true)}

	got := CoverPreliminaries([]int{1, 2, 3, 4}, []int{4, 4, 99}, history)

	assert.Equal(t, []Pair{{TeamAID: 2, TeamBID: 4}}, got.Pairs)
	assert.Empty(t, got.Unpaired)
}

func TestCoverPreliminariesNoOpponentLeft(t *testing.T) {
	got := CoverPreliminaries([]int{7}, []int{7}, nil)
	assert.Empty(t, got.Pairs)
	assert.Equal(t, []int{7}, got.Unpaired)

	// Main-round matches do not count as meetings.
	got = CoverPreliminaries([]int{1, 2}, []int{2}, []models.Match{principal(1, 1, 1, 2, winner(1))})
	assert.Equal(t, []Pair{{TeamAID: 1, TeamBID: 2}}, got.Pairs)
}
