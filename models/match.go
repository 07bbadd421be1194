package models

import "time"

type Match struct {
	ID           int       `json:"id" db:"id"`
	TournamentID int       `json:"tournament_id" db:"tournament_id"`
	MatchType    MatchType `json:"match_type" db:"match_type"`
	TeamAID      int       `json:"team_a_id" db:"team_a_id"`
	TeamBID      int       `json:"team_b_id" db:"team_b_id"`
	ScoreA       int       `json:"score_a" db:"score_a"`
	ScoreB       int       `json:"score_b" db:"score_b"`
	WinnerID     *int      `json:"winner_id,omitempty" db:"winner_id"` // nil means undecided or draw
	CreatedAt    time.Time `json:"created_at" db:"created_at"`

	TeamA *Team `json:"team_a,omitempty" db:"-"`
	TeamB *Team `json:"team_b,omitempty" db:"-"`
}

// Involves reports whether the team plays in this match.
func (m *Match) Involves(teamID int) bool {
	return m.TeamAID == teamID || m.TeamBID == teamID
}

// Opponent returns the other side of the match, or 0 if the team did not play.
func (m *Match) Opponent(teamID int) int {
	switch teamID {
	case m.TeamAID:
		return m.TeamBID
	case m.TeamBID:
		return m.TeamAID
	}
	return 0
}

func (m *Match) IsDecided() bool {
	return m.WinnerID != nil
}
