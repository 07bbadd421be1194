package brackets

import (
	"fmt"
	"sort"

	"github.com/Dosada05/belote-manager/models"
)

type PreliminaryGenerator struct{}

func NewPreliminaryGenerator() RoundGenerator {
	return &PreliminaryGenerator{}
}

func (g *PreliminaryGenerator) GetName() string {
	return "Preliminary"
}

// Generate enumerates every unordered pair (i < j) of the entrants in the order
// they were given, which for preliminaries is registration order. A positive
// MaxMatches keeps only the first pairs of that enumeration.
func (g *PreliminaryGenerator) Generate(params GenerateParams) ([]Pair, error) {
	entrants := params.Entrants
	if len(entrants) < 2 {
		return nil, fmt.Errorf("%w: found %d", ErrInsufficientTeams, len(entrants))
	}

	total := len(entrants) * (len(entrants) - 1) / 2
	if params.MaxMatches > 0 && params.MaxMatches < total {
		total = params.MaxMatches
	}

	pairs := make([]Pair, 0, total)
	for i := 0; i < len(entrants) && len(pairs) < total; i++ {
		for j := i + 1; j < len(entrants) && len(pairs) < total; j++ {
			pairs = append(pairs, Pair{TeamAID: entrants[i].TeamID, TeamBID: entrants[j].TeamID})
		}
	}
	return pairs, nil
}

// CoverPreliminaries pairs every team of uncovered with a registered opponent
// it has not met in the preliminaries. Two uncovered teams are paired together
// first. Otherwise the opponent with the fewest preliminary matches is used,
// registration order breaking ties. No cap applies: only the missing matches
// are proposed, on top of the ones already stored.
func CoverPreliminaries(teamIDs, uncovered []int, history []models.Match) PairingResult {
	position := make(map[int]int, len(teamIDs))
	for i, id := range teamIDs {
		if _, ok := position[id]; !ok {
			position[id] = i
		}
	}

	met := make(map[int]map[int]bool)
	played := make(map[int]int)
	meet := func(a, b int) {
		for _, x := range [2][2]int{{a, b}, {b, a}} {
			if met[x[0]] == nil {
				met[x[0]] = make(map[int]bool)
			}
			met[x[0]][x[1]] = true
		}
		played[a]++
		played[b]++
	}
	for i := range history {
		m := &history[i]
		if m.MatchType.IsPreliminary() {
			meet(m.TeamAID, m.TeamBID)
		}
	}

	waiting := make([]int, 0, len(uncovered))
	for _, id := range dedupe(uncovered) {
		if _, ok := position[id]; ok {
			waiting = append(waiting, id)
		}
	}
	sort.SliceStable(waiting, func(i, j int) bool { return position[waiting[i]] < position[waiting[j]] })

	result := PairingResult{}
	add := func(a, b int) {
		if position[b] < position[a] {
			a, b = b, a
		}
		result.Pairs = append(result.Pairs, Pair{TeamAID: a, TeamBID: b})
		meet(a, b)
	}

	for len(waiting) > 0 {
		team := waiting[0]
		waiting = waiting[1:]

		if k := indexUnmet(waiting, team, met); k >= 0 {
			opponent := waiting[k]
			waiting = append(waiting[:k], waiting[k+1:]...)
			add(team, opponent)
			continue
		}

		opponent, found := 0, false
		for _, id := range teamIDs {
			if id == team || met[team][id] {
				continue
			}
			if !found || played[id] < played[opponent] {
				opponent, found = id, true
			}
		}
		if !found {
			result.Unpaired = append(result.Unpaired, team)
			continue
		}
		add(team, opponent)
	}
	return result
}

func indexUnmet(ids []int, team int, met map[int]map[int]bool) int {
	for k, id := range ids {
		if id != team && !met[team][id] {
			return k
		}
	}
	return -1
}
