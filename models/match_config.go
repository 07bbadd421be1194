package models

type MatchConfig struct {
	ID           int       `json:"id" db:"id"`
	TournamentID int       `json:"tournament_id" db:"tournament_id"`
	MatchType    MatchType `json:"match_type" db:"match_type"`
	IsEnabled    bool      `json:"is_enabled" db:"is_enabled"`
	MaxMatches   *int      `json:"max_matches,omitempty" db:"max_matches"` // nil means unlimited
}

// Limit returns the configured cap, 0 when unlimited.
func (c *MatchConfig) Limit() int {
	if c == nil || c.MaxMatches == nil || *c.MaxMatches < 0 {
		return 0
	}
	return *c.MaxMatches
}
