package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/Dosada05/belote-manager/models"
)

var (
	ErrMatchNotFound          = errors.New("match not found")
	ErrMatchTeamNotRegistered = errors.New("match team is not registered for the tournament")
	ErrMatchSelfPlay          = errors.New("match team cannot play itself")
	ErrMatchWinnerInvalid     = errors.New("match winner must be one of the two teams")
)

// MatchFilter narrows ListByTournament. The zero value lists every match.
type MatchFilter struct {
	MatchType     *models.MatchType
	PrincipalOnly bool
}

type MatchRepository interface {
	Create(ctx context.Context, exec SQLExecutor, match *models.Match) error
	GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Match, error)
	ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int, filter MatchFilter) ([]models.Match, error)
	// ReplaceMatches deletes every match of matchType in the tournament and
	// inserts matches. Without a caller transaction it opens its own.
	ReplaceMatches(ctx context.Context, exec SQLExecutor, tournamentID int, matchType models.MatchType, matches []models.Match) (int, error)
	DeletePrincipal(ctx context.Context, exec SQLExecutor, tournamentID int) (int, error)
	UpdateResult(ctx context.Context, exec SQLExecutor, id int, scoreA, scoreB int, winnerID *int) error
	Delete(ctx context.Context, exec SQLExecutor, id int) error
	CountByTeam(ctx context.Context, exec SQLExecutor, tournamentID, teamID int) (int, error)
}

type postgresMatchRepository struct {
	db *sql.DB
}

func NewPostgresMatchRepository(db *sql.DB) MatchRepository {
	return &postgresMatchRepository{db: db}
}

func (r *postgresMatchRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const matchColumns = `id, tournament_id, match_type, team_a_id, team_b_id, score_a, score_b, winner_id, created_at`

func scanMatch(row rowScanner) (*models.Match, error) {
	var m models.Match
	var winner sql.NullInt64
	if err := row.Scan(
		&m.ID, &m.TournamentID, &m.MatchType, &m.TeamAID, &m.TeamBID,
		&m.ScoreA, &m.ScoreB, &winner, &m.CreatedAt,
	); err != nil {
		return nil, err
	}
	if winner.Valid {
		w := int(winner.Int64)
		m.WinnerID = &w
	}
	return &m, nil
}

func (r *postgresMatchRepository) Create(ctx context.Context, exec SQLExecutor, m *models.Match) error {
	query := `
		INSERT INTO matches (tournament_id, match_type, team_a_id, team_b_id, score_a, score_b, winner_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at`

	err := r.getExecutor(exec).QueryRowContext(ctx, query,
		m.TournamentID, m.MatchType, m.TeamAID, m.TeamBID, m.ScoreA, m.ScoreB, m.WinnerID,
	).Scan(&m.ID, &m.CreatedAt)
	return r.handleMatchError(err)
}

func (r *postgresMatchRepository) GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Match, error) {
	query := `SELECT ` + matchColumns + ` FROM matches WHERE id = $1`
	m, err := scanMatch(r.getExecutor(exec).QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("failed to get match %d: %w", id, err)
	}
	return m, nil
}

func (r *postgresMatchRepository) ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int, filter MatchFilter) ([]models.Match, error) {
	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT ` + matchColumns + ` FROM matches WHERE tournament_id = $1`)

	args := []interface{}{tournamentID}
	if filter.MatchType != nil {
		args = append(args, *filter.MatchType)
		queryBuilder.WriteString(" AND match_type = $" + strconv.Itoa(len(args)))
	} else if filter.PrincipalOnly {
		args = append(args, models.Preliminary)
		queryBuilder.WriteString(" AND match_type <> $" + strconv.Itoa(len(args)))
	}
	queryBuilder.WriteString(" ORDER BY id ASC")

	rows, err := r.getExecutor(exec).QueryContext(ctx, queryBuilder.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query matches for tournament %d: %w", tournamentID, err)
	}
	defer rows.Close()

	matches := make([]models.Match, 0)
	for rows.Next() {
		m, scanErr := scanMatch(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan match row: %w", scanErr)
		}
		matches = append(matches, *m)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during match rows iteration: %w", err)
	}
	return matches, nil
}

func (r *postgresMatchRepository) ReplaceMatches(ctx context.Context, exec SQLExecutor, tournamentID int, matchType models.MatchType, matches []models.Match) (count int, err error) {
	if exec == nil {
		err = NewTxManager(r.db).WithinTx(ctx, func(tx SQLExecutor) error {
			count, err = r.replace(ctx, tx, tournamentID, matchType, matches)
			return err
		})
		return count, err
	}
	return r.replace(ctx, exec, tournamentID, matchType, matches)
}

func (r *postgresMatchRepository) replace(ctx context.Context, exec SQLExecutor, tournamentID int, matchType models.MatchType, matches []models.Match) (int, error) {
	if _, err := exec.ExecContext(ctx, `DELETE FROM matches WHERE tournament_id = $1 AND match_type = $2`, tournamentID, matchType); err != nil {
		return 0, fmt.Errorf("failed to delete %s matches for tournament %d: %w", matchType, tournamentID, err)
	}
	for i := range matches {
		matches[i].TournamentID = tournamentID
		matches[i].MatchType = matchType
		if err := r.Create(ctx, exec, &matches[i]); err != nil {
			return 0, fmt.Errorf("failed to insert %s match %d/%d: %w", matchType, i+1, len(matches), err)
		}
	}
	return len(matches), nil
}

func (r *postgresMatchRepository) DeletePrincipal(ctx context.Context, exec SQLExecutor, tournamentID int) (int, error) {
	result, err := r.getExecutor(exec).ExecContext(ctx,
		`DELETE FROM matches WHERE tournament_id = $1 AND match_type <> $2`, tournamentID, models.Preliminary)
	if err != nil {
		return 0, fmt.Errorf("failed to delete main round matches for tournament %d: %w", tournamentID, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to check affected rows: %w", err)
	}
	return int(n), nil
}

func (r *postgresMatchRepository) UpdateResult(ctx context.Context, exec SQLExecutor, id int, scoreA, scoreB int, winnerID *int) error {
	query := `UPDATE matches SET score_a = $1, score_b = $2, winner_id = $3 WHERE id = $4`
	result, err := r.getExecutor(exec).ExecContext(ctx, query, scoreA, scoreB, winnerID, id)
	if err != nil {
		return r.handleMatchError(err)
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

func (r *postgresMatchRepository) Delete(ctx context.Context, exec SQLExecutor, id int) error {
	result, err := r.getExecutor(exec).ExecContext(ctx, `DELETE FROM matches WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete match %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

func (r *postgresMatchRepository) CountByTeam(ctx context.Context, exec SQLExecutor, tournamentID, teamID int) (int, error) {
	query := `SELECT COUNT(*) FROM matches WHERE tournament_id = $1 AND (team_a_id = $2 OR team_b_id = $2)`
	var n int
	if err := r.getExecutor(exec).QueryRowContext(ctx, query, tournamentID, teamID).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count matches of team %d in tournament %d: %w", teamID, tournamentID, err)
	}
	return n, nil
}

func (r *postgresMatchRepository) handleMatchError(err error) error {
	if err == nil {
		return nil
	}
	if pqErr, ok := asPQError(err); ok {
		switch pqErr.Constraint {
		case "matches_team_a_registration_fkey", "matches_team_b_registration_fkey":
			return ErrMatchTeamNotRegistered
		case "matches_distinct_teams":
			return ErrMatchSelfPlay
		case "matches_winner_is_participant":
			return ErrMatchWinnerInvalid
		}
	}
	return err
}
