package models

import "time"

// TeamTournamentStats is the cached per-tournament projection of a team's results.
// It is rebuilt by the write paths; live standings are computed from matches.
type TeamTournamentStats struct {
	TeamID       int       `json:"team_id" db:"team_id"`
	TournamentID int       `json:"tournament_id" db:"tournament_id"`
	PrelimPoints int       `json:"prelim_points" db:"prelim_points"`
	Wins         int       `json:"wins" db:"wins"`
	Losses       int       `json:"losses" db:"losses"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`

	Team *Team `json:"team,omitempty" db:"-"`
}
