package brackets

import (
	"errors"
	"math/rand/v2"
)

var ErrInsufficientTeams = errors.New("not enough teams to generate pairs (minimum 2 required)")

// Pair is a proposed matchup. Nothing is persisted until the pair is confirmed.
type Pair struct {
	TeamAID int `json:"team_a_id"`
	TeamBID int `json:"team_b_id"`
}

// Entrant is a team as seen by a round generator.
type Entrant struct {
	TeamID int `json:"team_id"`
	Points int `json:"points"` // preliminary points, ignored by the preliminary generator
}

type GenerateParams struct {
	Entrants   []Entrant
	MaxMatches int // <= 0 means unlimited
}

type RoundGenerator interface {
	Generate(params GenerateParams) ([]Pair, error)

	GetName() string
}

// Shuffler is the source of randomness for pairing. *rand.Rand satisfies it,
// so tests can pass a seeded generator.
type Shuffler interface {
	Shuffle(n int, swap func(i, j int))
}

type globalShuffler struct{}

func (globalShuffler) Shuffle(n int, swap func(i, j int)) {
	rand.Shuffle(n, swap)
}

// DefaultShuffler uses the goroutine-safe top-level math/rand/v2 source.
func DefaultShuffler() Shuffler {
	return globalShuffler{}
}

func truncatePairs(pairs []Pair, maxMatches int) []Pair {
	if maxMatches > 0 && len(pairs) > maxMatches {
		return pairs[:maxMatches]
	}
	return pairs
}

// EntrantsFromIDs wraps plain team ids, keeping their order.
func EntrantsFromIDs(ids []int) []Entrant {
	entrants := make([]Entrant, len(ids))
	for i, id := range ids {
		entrants[i] = Entrant{TeamID: id}
	}
	return entrants
}
