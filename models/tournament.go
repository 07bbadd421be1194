package models

import "time"

// TournamentStatus mirrors the tournaments_status_check constraint.
type TournamentStatus string

const (
	StatusUpcoming   TournamentStatus = "upcoming"
	StatusInProgress TournamentStatus = "in_progress"
	StatusCompleted  TournamentStatus = "completed"
)

func (s TournamentStatus) IsValid() bool {
	switch s {
	case StatusUpcoming, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

type Tournament struct {
	ID        int              `json:"id" db:"id"`
	Name      string           `json:"name" db:"name"`
	Date      time.Time        `json:"date" db:"date"`
	Status    TournamentStatus `json:"status" db:"status"`
	CreatedAt time.Time        `json:"created_at" db:"created_at"`

	// Optional linked entities, populated by services.
	Teams   []Team        `json:"teams,omitempty" db:"-"`
	Configs []MatchConfig `json:"configs,omitempty" db:"-"`
}
