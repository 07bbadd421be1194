package brackets

import (
	"fmt"
	"sort"
)

type MainRoundGenerator struct {
	shuffler Shuffler
}

func NewMainRoundGenerator(shuffler Shuffler) RoundGenerator {
	if shuffler == nil {
		shuffler = DefaultShuffler()
	}
	return &MainRoundGenerator{shuffler: shuffler}
}

func (g *MainRoundGenerator) GetName() string {
	return "MainRound"
}

// Generate seeds entrants by preliminary points and pairs neighbours.
// Entrants tied on points form a bucket that is shuffled in place, so the order
// between different point totals is kept while equal teams meet at random.
// With an odd count the last entrant of the sequence gets no pair.
func (g *MainRoundGenerator) Generate(params GenerateParams) ([]Pair, error) {
	if len(params.Entrants) < 2 {
		return nil, fmt.Errorf("%w: found %d", ErrInsufficientTeams, len(params.Entrants))
	}

	seq := SeedByPoints(params.Entrants, g.shuffler)

	pairs := make([]Pair, 0, len(seq)/2)
	for i := 0; i+1 < len(seq); i += 2 {
		pairs = append(pairs, Pair{TeamAID: seq[i].TeamID, TeamBID: seq[i+1].TeamID})
	}
	return truncatePairs(pairs, params.MaxMatches), nil
}

// SeedByPoints returns a copy of entrants sorted by points descending with the
// members of every equal-points bucket shuffled.
func SeedByPoints(entrants []Entrant, shuffler Shuffler) []Entrant {
	seq := make([]Entrant, len(entrants))
	copy(seq, entrants)
	sort.SliceStable(seq, func(i, j int) bool {
		return seq[i].Points > seq[j].Points
	})

	for start := 0; start < len(seq); {
		end := start + 1
		for end < len(seq) && seq[end].Points == seq[start].Points {
			end++
		}
		bucket := seq[start:end]
		if len(bucket) > 1 {
			shuffler.Shuffle(len(bucket), func(i, j int) {
				bucket[i], bucket[j] = bucket[j], bucket[i]
			})
		}
		start = end
	}
	return seq
}
