package brackets

import (
	"math/rand/v2"

	"github.com/Dosada05/belote-manager/models"
)

func seeded(seed uint64) Shuffler {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// identityShuffler leaves every slice untouched.
type identityShuffler struct{}

func (identityShuffler) Shuffle(int, func(i, j int)) {}

func teams(ids ...int) []models.Team {
	out := make([]models.Team, len(ids))
	for i, id := range ids {
		out[i] = models.Team{ID: id}
	}
	return out
}

func winner(id int) *int { return &id }

func prelim(id, a, b, scoreA, scoreB int, decided bool) models.Match {
	m := models.Match{ID: id, MatchType: models.Preliminary, TeamAID: a, TeamBID: b, ScoreA: scoreA, ScoreB: scoreB}
	if decided {
		if scoreA >= scoreB {
			m.WinnerID = winner(a)
		} else {
			m.WinnerID = winner(b)
		}
	}
	return m
}

func principal(id, round, a, b int, winnerID *int) models.Match {
	return models.Match{ID: id, MatchType: models.MustPrincipal(round), TeamAID: a, TeamBID: b, WinnerID: winnerID}
}

func pairKey(p Pair) [2]int {
	return [2]int{min(p.TeamAID, p.TeamBID), max(p.TeamAID, p.TeamBID)}
}
