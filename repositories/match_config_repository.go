package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/belote-manager/models"
)

var (
	ErrMatchConfigNotFound = errors.New("match config not found")
	ErrMatchConfigConflict = errors.New("match config already exists for this match type")
	ErrMatchConfigInvalid  = errors.New("match config tournament does not exist")
)

type MatchConfigRepository interface {
	Create(ctx context.Context, exec SQLExecutor, cfg *models.MatchConfig) error
	// GetByType returns ErrMatchConfigNotFound when no config exists for the type.
	GetByType(ctx context.Context, exec SQLExecutor, tournamentID int, matchType models.MatchType) (*models.MatchConfig, error)
	ListByTournament(ctx context.Context, tournamentID int) ([]models.MatchConfig, error)
	Update(ctx context.Context, exec SQLExecutor, cfg *models.MatchConfig) error
	Delete(ctx context.Context, tournamentID int, matchType models.MatchType) error
}

type postgresMatchConfigRepository struct {
	db *sql.DB
}

func NewPostgresMatchConfigRepository(db *sql.DB) MatchConfigRepository {
	return &postgresMatchConfigRepository{db: db}
}

func (r *postgresMatchConfigRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const matchConfigColumns = `id, tournament_id, match_type, is_enabled, max_matches`

func scanMatchConfig(row rowScanner) (*models.MatchConfig, error) {
	var c models.MatchConfig
	var maxMatches sql.NullInt64
	if err := row.Scan(&c.ID, &c.TournamentID, &c.MatchType, &c.IsEnabled, &maxMatches); err != nil {
		return nil, err
	}
	if maxMatches.Valid {
		v := int(maxMatches.Int64)
		c.MaxMatches = &v
	}
	return &c, nil
}

func (r *postgresMatchConfigRepository) Create(ctx context.Context, exec SQLExecutor, cfg *models.MatchConfig) error {
	query := `
		INSERT INTO match_configs (tournament_id, match_type, is_enabled, max_matches)
		VALUES ($1, $2, $3, $4)
		RETURNING id`

	err := r.getExecutor(exec).QueryRowContext(ctx, query,
		cfg.TournamentID, cfg.MatchType, cfg.IsEnabled, cfg.MaxMatches,
	).Scan(&cfg.ID)
	return r.handleMatchConfigError(err)
}

func (r *postgresMatchConfigRepository) GetByType(ctx context.Context, exec SQLExecutor, tournamentID int, matchType models.MatchType) (*models.MatchConfig, error) {
	query := `SELECT ` + matchConfigColumns + ` FROM match_configs WHERE tournament_id = $1 AND match_type = $2`
	cfg, err := scanMatchConfig(r.getExecutor(exec).QueryRowContext(ctx, query, tournamentID, matchType))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchConfigNotFound
		}
		return nil, fmt.Errorf("failed to get %s config for tournament %d: %w", matchType, tournamentID, err)
	}
	return cfg, nil
}

func (r *postgresMatchConfigRepository) ListByTournament(ctx context.Context, tournamentID int) ([]models.MatchConfig, error) {
	query := `SELECT ` + matchConfigColumns + ` FROM match_configs WHERE tournament_id = $1 ORDER BY id ASC`
	rows, err := r.db.QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list match configs for tournament %d: %w", tournamentID, err)
	}
	defer rows.Close()

	configs := make([]models.MatchConfig, 0)
	for rows.Next() {
		cfg, scanErr := scanMatchConfig(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan match config row: %w", scanErr)
		}
		configs = append(configs, *cfg)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during match config rows iteration: %w", err)
	}
	return configs, nil
}

func (r *postgresMatchConfigRepository) Update(ctx context.Context, exec SQLExecutor, cfg *models.MatchConfig) error {
	query := `UPDATE match_configs SET is_enabled = $1, max_matches = $2 WHERE tournament_id = $3 AND match_type = $4`
	result, err := r.getExecutor(exec).ExecContext(ctx, query, cfg.IsEnabled, cfg.MaxMatches, cfg.TournamentID, cfg.MatchType)
	if err != nil {
		return r.handleMatchConfigError(err)
	}
	return checkAffectedRows(result, ErrMatchConfigNotFound)
}

func (r *postgresMatchConfigRepository) Delete(ctx context.Context, tournamentID int, matchType models.MatchType) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM match_configs WHERE tournament_id = $1 AND match_type = $2`, tournamentID, matchType)
	if err != nil {
		return fmt.Errorf("failed to delete %s config for tournament %d: %w", matchType, tournamentID, err)
	}
	return checkAffectedRows(result, ErrMatchConfigNotFound)
}

func (r *postgresMatchConfigRepository) handleMatchConfigError(err error) error {
	if err == nil {
		return nil
	}
	if pqErr, ok := asPQError(err); ok {
		switch pqErr.Code {
		case pqUniqueViolation:
			if pqErr.Constraint == "match_configs_tournament_id_match_type_key" {
				return ErrMatchConfigConflict
			}
		case pqForeignKeyViolation:
			return ErrMatchConfigInvalid
		}
	}
	return err
}
