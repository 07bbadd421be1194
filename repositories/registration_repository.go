package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/belote-manager/models"
)

var (
	ErrRegistrationNotFound    = errors.New("registration not found")
	ErrRegistrationConflict    = errors.New("team is already registered for this tournament")
	ErrRegistrationTeamInvalid = errors.New("registration team or tournament does not exist")
	ErrRegistrationInUse       = errors.New("registration is referenced by matches")
)

type RegistrationRepository interface {
	Create(ctx context.Context, exec SQLExecutor, reg *models.Registration) error
	Get(ctx context.Context, exec SQLExecutor, tournamentID, teamID int) (*models.Registration, error)
	// ListTeams returns the registered teams in registration order.
	ListTeams(ctx context.Context, exec SQLExecutor, tournamentID int) ([]models.Team, error)
	ListByTournament(ctx context.Context, tournamentID int) ([]models.Registration, error)
	Delete(ctx context.Context, exec SQLExecutor, tournamentID, teamID int) error
}

type postgresRegistrationRepository struct {
	db *sql.DB
}

func NewPostgresRegistrationRepository(db *sql.DB) RegistrationRepository {
	return &postgresRegistrationRepository{db: db}
}

func (r *postgresRegistrationRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresRegistrationRepository) Create(ctx context.Context, exec SQLExecutor, reg *models.Registration) error {
	query := `
		INSERT INTO registrations (team_id, tournament_id)
		VALUES ($1, $2)
		RETURNING registration_date`

	err := r.getExecutor(exec).QueryRowContext(ctx, query, reg.TeamID, reg.TournamentID).Scan(&reg.RegistrationDate)
	if err != nil {
		if pqErr, ok := asPQError(err); ok {
			switch pqErr.Code {
			case pqUniqueViolation:
				return ErrRegistrationConflict
			case pqForeignKeyViolation:
				return ErrRegistrationTeamInvalid
			}
		}
		return fmt.Errorf("failed to create registration: %w", err)
	}
	return nil
}

func (r *postgresRegistrationRepository) Get(ctx context.Context, exec SQLExecutor, tournamentID, teamID int) (*models.Registration, error) {
	query := `
		SELECT team_id, tournament_id, registration_date
		FROM registrations
		WHERE tournament_id = $1 AND team_id = $2`

	var reg models.Registration
	err := r.getExecutor(exec).QueryRowContext(ctx, query, tournamentID, teamID).
		Scan(&reg.TeamID, &reg.TournamentID, &reg.RegistrationDate)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRegistrationNotFound
		}
		return nil, fmt.Errorf("failed to get registration t:%d team:%d: %w", tournamentID, teamID, err)
	}
	return &reg, nil
}

func (r *postgresRegistrationRepository) ListTeams(ctx context.Context, exec SQLExecutor, tournamentID int) ([]models.Team, error) {
	query := `
		SELECT t.id, t.name, t.player1, t.player2, t.created_at
		FROM registrations reg
		JOIN teams t ON t.id = reg.team_id
		WHERE reg.tournament_id = $1
		ORDER BY reg.registration_date ASC, t.id ASC`

	rows, err := r.getExecutor(exec).QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list registered teams for tournament %d: %w", tournamentID, err)
	}
	defer rows.Close()

	teams := make([]models.Team, 0)
	for rows.Next() {
		team, scanErr := scanTeam(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan registered team: %w", scanErr)
		}
		teams = append(teams, *team)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during registered team rows iteration: %w", err)
	}
	return teams, nil
}

func (r *postgresRegistrationRepository) ListByTournament(ctx context.Context, tournamentID int) ([]models.Registration, error) {
	query := `
		SELECT reg.team_id, reg.tournament_id, reg.registration_date,
		       t.id, t.name, t.player1, t.player2, t.created_at
		FROM registrations reg
		JOIN teams t ON t.id = reg.team_id
		WHERE reg.tournament_id = $1
		ORDER BY reg.registration_date ASC, t.id ASC`

	rows, err := r.db.QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list registrations for tournament %d: %w", tournamentID, err)
	}
	defer rows.Close()

	registrations := make([]models.Registration, 0)
	for rows.Next() {
		var reg models.Registration
		var team models.Team
		if scanErr := rows.Scan(
			&reg.TeamID, &reg.TournamentID, &reg.RegistrationDate,
			&team.ID, &team.Name, &team.Player1, &team.Player2, &team.CreatedAt,
		); scanErr != nil {
			return nil, fmt.Errorf("failed to scan registration row: %w", scanErr)
		}
		reg.Team = &team
		registrations = append(registrations, reg)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during registration rows iteration: %w", err)
	}
	return registrations, nil
}

func (r *postgresRegistrationRepository) Delete(ctx context.Context, exec SQLExecutor, tournamentID, teamID int) error {
	query := `DELETE FROM registrations WHERE tournament_id = $1 AND team_id = $2`
	result, err := r.getExecutor(exec).ExecContext(ctx, query, tournamentID, teamID)
	if err != nil {
		if pqErr, ok := asPQError(err); ok && pqErr.Code == pqForeignKeyViolation {
			return ErrRegistrationInUse
		}
		return fmt.Errorf("failed to delete registration t:%d team:%d: %w", tournamentID, teamID, err)
	}
	return checkAffectedRows(result, ErrRegistrationNotFound)
}
