package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Dosada05/belote-manager/models"
)

type StatsRepository interface {
	// EnsureRow creates a zeroed stats row unless one already exists.
	EnsureRow(ctx context.Context, exec SQLExecutor, teamID, tournamentID int) error
	ResetPrelimPoints(ctx context.Context, exec SQLExecutor, tournamentID int) error
	// ListByTournament returns rows sorted by prelim_points desc, then registration order.
	ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) ([]models.TeamTournamentStats, error)
	Upsert(ctx context.Context, exec SQLExecutor, stats *models.TeamTournamentStats) error
}

type postgresStatsRepository struct {
	db *sql.DB
}

func NewPostgresStatsRepository(db *sql.DB) StatsRepository {
	return &postgresStatsRepository{db: db}
}

func (r *postgresStatsRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresStatsRepository) EnsureRow(ctx context.Context, exec SQLExecutor, teamID, tournamentID int) error {
	query := `
		INSERT INTO team_tournament_stats (team_id, tournament_id)
		VALUES ($1, $2)
		ON CONFLICT (team_id, tournament_id) DO NOTHING`
	if _, err := r.getExecutor(exec).ExecContext(ctx, query, teamID, tournamentID); err != nil {
		return fmt.Errorf("failed to ensure stats row t:%d team:%d: %w", tournamentID, teamID, err)
	}
	return nil
}

func (r *postgresStatsRepository) ResetPrelimPoints(ctx context.Context, exec SQLExecutor, tournamentID int) error {
	query := `UPDATE team_tournament_stats SET prelim_points = 0, updated_at = NOW() WHERE tournament_id = $1`
	if _, err := r.getExecutor(exec).ExecContext(ctx, query, tournamentID); err != nil {
		return fmt.Errorf("failed to reset prelim points for tournament %d: %w", tournamentID, err)
	}
	return nil
}

func (r *postgresStatsRepository) ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) ([]models.TeamTournamentStats, error) {
	query := `
		SELECT s.team_id, s.tournament_id, s.prelim_points, s.wins, s.losses, s.updated_at,
		       t.id, t.name, t.player1, t.player2, t.created_at
		FROM team_tournament_stats s
		JOIN teams t ON t.id = s.team_id
		JOIN registrations reg ON reg.team_id = s.team_id AND reg.tournament_id = s.tournament_id
		WHERE s.tournament_id = $1
		ORDER BY s.prelim_points DESC, reg.registration_date ASC, s.team_id ASC`

	rows, err := r.getExecutor(exec).QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list stats for tournament %d: %w", tournamentID, err)
	}
	defer rows.Close()

	stats := make([]models.TeamTournamentStats, 0)
	for rows.Next() {
		var s models.TeamTournamentStats
		var team models.Team
		if scanErr := rows.Scan(
			&s.TeamID, &s.TournamentID, &s.PrelimPoints, &s.Wins, &s.Losses, &s.UpdatedAt,
			&team.ID, &team.Name, &team.Player1, &team.Player2, &team.CreatedAt,
		); scanErr != nil {
			return nil, fmt.Errorf("failed to scan stats row: %w", scanErr)
		}
		s.Team = &team
		stats = append(stats, s)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during stats rows iteration: %w", err)
	}
	return stats, nil
}

func (r *postgresStatsRepository) Upsert(ctx context.Context, exec SQLExecutor, s *models.TeamTournamentStats) error {
	query := `
		INSERT INTO team_tournament_stats (team_id, tournament_id, prelim_points, wins, losses, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		ON CONFLICT (team_id, tournament_id) DO UPDATE SET
			prelim_points = EXCLUDED.prelim_points,
			wins = EXCLUDED.wins,
			losses = EXCLUDED.losses,
			updated_at = EXCLUDED.updated_at
		RETURNING updated_at`
	err := r.getExecutor(exec).QueryRowContext(ctx, query, s.TeamID, s.TournamentID, s.PrelimPoints, s.Wins, s.Losses).
		Scan(&s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert stats t:%d team:%d: %w", s.TournamentID, s.TeamID, err)
	}
	return nil
}
