package models

import "time"

type Registration struct {
	TeamID           int       `json:"team_id" db:"team_id"`
	TournamentID     int       `json:"tournament_id" db:"tournament_id"`
	RegistrationDate time.Time `json:"registration_date" db:"registration_date"`

	Team *Team `json:"team,omitempty" db:"-"`
}
