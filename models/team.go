package models

import "time"

type Team struct {
	ID        int       `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Player1   string    `json:"player1" db:"player1"`
	Player2   string    `json:"player2" db:"player2"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
