package brackets

import (
	"sort"

	"github.com/Dosada05/belote-manager/models"
)

type RankedTeam struct {
	Team        models.Team `json:"team"`
	Wins        int         `json:"wins"`
	Losses      int         `json:"losses"`
	PrelimScore int         `json:"prelim_score"`
	Rank        int         `json:"rank"`
}

// ComputeStandings ranks teams by wins desc, then preliminary score desc, then
// losses asc. Remaining ties keep the input order. Matches involving teams not
// in the list are ignored for the missing side.
func ComputeStandings(teams []models.Team, matches []models.Match) []RankedTeam {
	standings := make([]RankedTeam, len(teams))
	index := make(map[int]*RankedTeam, len(teams))
	for i, t := range teams {
		standings[i] = RankedTeam{Team: t}
		index[t.ID] = &standings[i]
	}

	for i := range matches {
		m := &matches[i]
		a, b := index[m.TeamAID], index[m.TeamBID]

		if m.MatchType.IsPreliminary() {
			if a != nil {
				a.PrelimScore += m.ScoreA
			}
			if b != nil {
				b.PrelimScore += m.ScoreB
			}
			continue
		}

		if m.WinnerID == nil {
			continue
		}
		for _, side := range []*RankedTeam{a, b} {
			if side == nil {
				continue
			}
			if *m.WinnerID == side.Team.ID {
				side.Wins++
			} else {
				side.Losses++
			}
		}
	}

	sort.SliceStable(standings, func(i, j int) bool {
		si, sj := standings[i], standings[j]
		if si.Wins != sj.Wins {
			return si.Wins > sj.Wins
		}
		if si.PrelimScore != sj.PrelimScore {
			return si.PrelimScore > sj.PrelimScore
		}
		return si.Losses < sj.Losses
	})
	for i := range standings {
		standings[i].Rank = i + 1
	}
	return standings
}
