package brackets

import (
	"sort"

	"github.com/Dosada05/belote-manager/models"
)

// defaultSearchBudget bounds the zero-repeat search. Fields are tens of teams,
// far below what this budget can explore exhaustively in practice.
const defaultSearchBudget = 200_000

// PairingResult is a proposal for the next main round.
type PairingResult struct {
	Pairs    []Pair `json:"pairs"`
	Unpaired []int  `json:"unpaired,omitempty"`
	Repeats  int    `json:"repeats"`
}

type RematchAvoidingPairer struct {
	shuffler     Shuffler
	searchBudget int
}

func NewRematchAvoidingPairer(shuffler Shuffler) *RematchAvoidingPairer {
	if shuffler == nil {
		shuffler = DefaultShuffler()
	}
	return &RematchAvoidingPairer{shuffler: shuffler, searchBudget: defaultSearchBudget}
}

// FacedOpponents collects, per team, the opponents already met in main rounds.
func FacedOpponents(history []models.Match) map[int]map[int]bool {
	faced := make(map[int]map[int]bool)
	add := func(a, b int) {
		if faced[a] == nil {
			faced[a] = make(map[int]bool)
		}
		faced[a][b] = true
	}
	for i := range history {
		m := &history[i]
		if !m.MatchType.IsPrincipal() {
			continue
		}
		add(m.TeamAID, m.TeamBID)
		add(m.TeamBID, m.TeamAID)
	}
	return faced
}

// Pair proposes matchups for teamIDs without repeating a main-round matchup
// from history whenever a complete repeat-free pairing can be found. Otherwise
// it falls back to a greedy pass that accepts repeats only where no fresh
// opponent is left. With an odd number of teams exactly one stays unpaired.
func (p *RematchAvoidingPairer) Pair(teamIDs []int, history []models.Match) PairingResult {
	faced := FacedOpponents(history)
	order := p.pickOrder(dedupe(teamIDs), faced)

	if pairs, unpaired, ok := p.searchWithoutRepeats(order, faced); ok {
		return PairingResult{Pairs: pairs, Unpaired: unpaired}
	}
	return greedyPairing(order, faced)
}

// pickOrder puts teams with fewer past opponents first; ties are shuffled.
func (p *RematchAvoidingPairer) pickOrder(teamIDs []int, faced map[int]map[int]bool) []int {
	order := make([]int, len(teamIDs))
	copy(order, teamIDs)
	p.shuffler.Shuffle(len(order), func(i, j int) {
		order[i], order[j] = order[j], order[i]
	})
	sort.SliceStable(order, func(i, j int) bool {
		return len(faced[order[i]]) < len(faced[order[j]])
	})
	return order
}

func (p *RematchAvoidingPairer) searchWithoutRepeats(order []int, faced map[int]map[int]bool) ([]Pair, []int, bool) {
	used := make([]bool, len(order))
	pairs := make([]Pair, 0, len(order)/2)
	canDrop := len(order)%2 == 1
	dropped := -1
	steps := 0

	var solve func() bool
	solve = func() bool {
		steps++
		if steps > p.searchBudget {
			return false
		}
		i := 0
		for i < len(order) && used[i] {
			i++
		}
		if i == len(order) {
			return true
		}

		used[i] = true
		for j := i + 1; j < len(order); j++ {
			if used[j] || faced[order[i]][order[j]] {
				continue
			}
			used[j] = true
			pairs = append(pairs, Pair{TeamAID: order[i], TeamBID: order[j]})
			if solve() {
				return true
			}
			pairs = pairs[:len(pairs)-1]
			used[j] = false
		}
		if canDrop && dropped < 0 {
			dropped = i
			if solve() {
				return true
			}
			dropped = -1
		}
		used[i] = false
		return false
	}

	if !solve() {
		return nil, nil, false
	}
	var unpaired []int
	if dropped >= 0 {
		unpaired = []int{order[dropped]}
	}
	return pairs, unpaired, true
}

func greedyPairing(order []int, faced map[int]map[int]bool) PairingResult {
	used := make([]bool, len(order))
	result := PairingResult{Pairs: make([]Pair, 0, len(order)/2)}

	for i := range order {
		if used[i] {
			continue
		}
		used[i] = true

		partner := -1
		for j := i + 1; j < len(order); j++ {
			if !used[j] && !faced[order[i]][order[j]] {
				partner = j
				break
			}
		}
		if partner < 0 {
			for j := i + 1; j < len(order); j++ {
				if !used[j] {
					partner = j
					result.Repeats++
					break
				}
			}
		}
		if partner < 0 {
			result.Unpaired = append(result.Unpaired, order[i])
			continue
		}
		used[partner] = true
		result.Pairs = append(result.Pairs, Pair{TeamAID: order[i], TeamBID: order[partner]})
	}
	return result
}

func dedupe(ids []int) []int {
	seen := make(map[int]bool, len(ids))
	out := make([]int, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
