package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Dosada05/belote-manager/brackets"
	"github.com/Dosada05/belote-manager/models"
	"github.com/Dosada05/belote-manager/repositories"
)

// Notifier pushes live updates to clients following a tournament.
type Notifier interface {
	Publish(tournamentID int, messageType string, payload interface{})
}

type noopNotifier struct{}

func (noopNotifier) Publish(int, string, interface{}) {}

func notifierOrNoop(n Notifier) Notifier {
	if n == nil {
		return noopNotifier{}
	}
	return n
}

func isServiceError(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrValidationFailed) ||
		errors.Is(err, ErrConflict) ||
		errors.Is(err, ErrStorage)
}

// translateError maps repository sentinels to service errors. Errors already
// carrying a service category pass through; anything else is a storage failure.
func translateError(op string, err error) error {
	if err == nil || isServiceError(err) {
		return err
	}
	switch {
	case errors.Is(err, repositories.ErrTournamentNotFound):
		return ErrTournamentNotFound
	case errors.Is(err, repositories.ErrTeamNotFound):
		return ErrTeamNotFound
	case errors.Is(err, repositories.ErrTeamNameConflict):
		return ErrTeamNameConflict
	case errors.Is(err, repositories.ErrTeamInUse):
		return ErrTeamInUse
	case errors.Is(err, repositories.ErrMatchNotFound):
		return ErrMatchNotFound
	case errors.Is(err, repositories.ErrMatchTeamNotRegistered):
		return ErrTeamNotRegistered
	case errors.Is(err, repositories.ErrMatchSelfPlay):
		return ErrSelfMatch
	case errors.Is(err, repositories.ErrMatchWinnerInvalid):
		return ErrInvalidWinner
	case errors.Is(err, repositories.ErrMatchConfigNotFound):
		return ErrMatchConfigNotFound
	case errors.Is(err, repositories.ErrMatchConfigConflict):
		return ErrMatchConfigConflict
	case errors.Is(err, repositories.ErrMatchConfigInvalid):
		return ErrTournamentNotFound
	case errors.Is(err, repositories.ErrRegistrationNotFound):
		return ErrRegistrationNotFound
	case errors.Is(err, repositories.ErrRegistrationConflict):
		return ErrRegistrationConflict
	case errors.Is(err, repositories.ErrRegistrationTeamInvalid):
		return ErrTeamNotFound
	case errors.Is(err, repositories.ErrRegistrationInUse):
		return ErrTeamHasMatches
	case errors.Is(err, brackets.ErrInsufficientTeams):
		return fmt.Errorf("%w (%v)", ErrInsufficientTeams, err)
	}
	return storageError(op, err)
}

// isValidStatusTransition allows only forward moves: upcoming → in_progress → completed.
func isValidStatusTransition(current, next models.TournamentStatus) bool {
	if current == next {
		return true
	}
	allowedTransitions := map[models.TournamentStatus][]models.TournamentStatus{
		models.StatusUpcoming:   {models.StatusInProgress},
		models.StatusInProgress: {models.StatusCompleted},
		models.StatusCompleted:  {},
	}
	for _, allowedNextStatus := range allowedTransitions[current] {
		if next == allowedNextStatus {
			return true
		}
	}
	return false
}

// validateMatchConfig enforces the two invariants every create/update keeps:
// preliminaries stay enabled, and the first main round stays enabled with at
// least one match.
func validateMatchConfig(cfg *models.MatchConfig) error {
	if cfg.MaxMatches != nil && *cfg.MaxMatches < 0 {
		return fmt.Errorf("%w: max_matches cannot be negative", ErrConfigViolation)
	}
	switch {
	case cfg.MatchType.IsPreliminary():
		if !cfg.IsEnabled {
			return fmt.Errorf("%w: %s must remain enabled", ErrConfigViolation, cfg.MatchType)
		}
	case cfg.MatchType.Round() == 1:
		if !cfg.IsEnabled {
			return fmt.Errorf("%w: %s must remain enabled", ErrConfigViolation, cfg.MatchType)
		}
		if cfg.MaxMatches == nil || *cfg.MaxMatches < 1 {
			return fmt.Errorf("%w: %s max_matches must be at least 1", ErrConfigViolation, cfg.MatchType)
		}
	}
	return nil
}

func isMandatoryMatchType(mt models.MatchType) bool {
	return mt.IsPreliminary() || mt.Round() == 1
}

// defaultMatchConfigs are created with every tournament.
func defaultMatchConfigs(tournamentID int) []models.MatchConfig {
	one := 1
	return []models.MatchConfig{
		{TournamentID: tournamentID, MatchType: models.Preliminary, IsEnabled: true},
		{TournamentID: tournamentID, MatchType: models.MustPrincipal(1), IsEnabled: true, MaxMatches: &one},
	}
}

// findConfig returns nil without error when the tournament has no config for mt.
func findConfig(ctx context.Context, repo repositories.MatchConfigRepository, exec repositories.SQLExecutor, tournamentID int, mt models.MatchType) (*models.MatchConfig, error) {
	cfg, err := repo.GetByType(ctx, exec, tournamentID, mt)
	if errors.Is(err, repositories.ErrMatchConfigNotFound) {
		return nil, nil
	}
	return cfg, err
}

// rebuildStats recomputes the cached stats projection from the matches.
func rebuildStats(ctx context.Context, exec repositories.SQLExecutor, tournamentID int,
	registrationRepo repositories.RegistrationRepository,
	matchRepo repositories.MatchRepository,
	statsRepo repositories.StatsRepository,
) error {
	teams, err := registrationRepo.ListTeams(ctx, exec, tournamentID)
	if err != nil {
		return err
	}
	matches, err := matchRepo.ListByTournament(ctx, exec, tournamentID, repositories.MatchFilter{})
	if err != nil {
		return err
	}
	for _, ranked := range brackets.ComputeStandings(teams, matches) {
		stats := &models.TeamTournamentStats{
			TeamID:       ranked.Team.ID,
			TournamentID: tournamentID,
			PrelimPoints: ranked.PrelimScore,
			Wins:         ranked.Wins,
			Losses:       ranked.Losses,
		}
		if err := statsRepo.Upsert(ctx, exec, stats); err != nil {
			return err
		}
	}
	return nil
}

func phaseLabel(mt models.MatchType) string {
	if mt.IsPreliminary() {
		return "preliminary"
	}
	return "main"
}

func pairsToMatches(tournamentID int, mt models.MatchType, pairs []brackets.Pair) []models.Match {
	matches := make([]models.Match, len(pairs))
	for i, p := range pairs {
		matches[i] = models.Match{
			TournamentID: tournamentID,
			MatchType:    mt,
			TeamAID:      p.TeamAID,
			TeamBID:      p.TeamBID,
		}
	}
	return matches
}

func normalizeName(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func errorsIsStorage(err error) bool {
	return errors.Is(err, ErrStorage)
}

func isNotFound(err error) bool {
	return errors.Is(err, repositories.ErrRegistrationNotFound) ||
		errors.Is(err, repositories.ErrTeamNotFound) ||
		errors.Is(err, repositories.ErrMatchNotFound) ||
		errors.Is(err, repositories.ErrTournamentNotFound) ||
		errors.Is(err, repositories.ErrMatchConfigNotFound)
}
