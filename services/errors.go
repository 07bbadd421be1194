package services

import (
	"errors"
	"fmt"

	"github.com/Dosada05/belote-manager/brackets"
)

// Error categories. Every specific error below wraps one of them, so handlers
// can map with errors.Is on the category alone.
var (
	ErrNotFound         = errors.New("requested resource not found")
	ErrValidationFailed = errors.New("validation failed")
	ErrConflict         = errors.New("conflict with current state")
	ErrStorage          = errors.New("storage failure")
)

var (
	ErrTournamentNotFound   = fmt.Errorf("%w: tournament not found", ErrNotFound)
	ErrTeamNotFound         = fmt.Errorf("%w: team not found", ErrNotFound)
	ErrMatchNotFound        = fmt.Errorf("%w: match not found", ErrNotFound)
	ErrMatchConfigNotFound  = fmt.Errorf("%w: match config not found", ErrNotFound)
	ErrRegistrationNotFound = fmt.Errorf("%w: team is not registered for this tournament", ErrNotFound)
)

var (
	// ErrInsufficientTeams also matches brackets.ErrInsufficientTeams.
	ErrInsufficientTeams = fmt.Errorf("%w: %w", ErrValidationFailed, brackets.ErrInsufficientTeams)
	ErrConfigViolation   = fmt.Errorf("%w: match config violation", ErrValidationFailed)

	ErrTeamNameRequired                  = fmt.Errorf("%w: team name is required", ErrValidationFailed)
	ErrTeamPlayersRequired               = fmt.Errorf("%w: both player names are required", ErrValidationFailed)
	ErrTournamentNameRequired            = fmt.Errorf("%w: tournament name is required", ErrValidationFailed)
	ErrTournamentDateRequired            = fmt.Errorf("%w: tournament date is required", ErrValidationFailed)
	ErrTournamentInvalidStatus           = fmt.Errorf("%w: invalid tournament status", ErrValidationFailed)
	ErrTournamentInvalidStatusTransition = fmt.Errorf("%w: invalid tournament status transition", ErrValidationFailed)
	ErrTournamentCompleted               = fmt.Errorf("%w: tournament is already completed", ErrValidationFailed)
	ErrInvalidMatchType                  = fmt.Errorf("%w: invalid match type", ErrValidationFailed)
	ErrSelfMatch                         = fmt.Errorf("%w: a team cannot play itself", ErrValidationFailed)
	ErrTeamNotRegistered                 = fmt.Errorf("%w: team is not registered for this tournament", ErrValidationFailed)
	ErrTeamPairedTwice                   = fmt.Errorf("%w: a team appears in more than one pair", ErrValidationFailed)
	ErrInvalidWinner                     = fmt.Errorf("%w: winner must be one of the two teams", ErrValidationFailed)
	ErrInvalidScore                      = fmt.Errorf("%w: scores cannot be negative", ErrValidationFailed)
	ErrNoPairs                           = fmt.Errorf("%w: at least one pair is required", ErrValidationFailed)
	ErrMatchTypeDisabled                 = fmt.Errorf("%w: match type is disabled for this tournament", ErrValidationFailed)
	ErrStageActionNotAllowed             = fmt.Errorf("%w: action not allowed at the current tournament stage", ErrValidationFailed)
)

var (
	ErrRegistrationConflict     = fmt.Errorf("%w: team is already registered for this tournament", ErrConflict)
	ErrMatchConfigConflict      = fmt.Errorf("%w: config already exists for this match type", ErrConflict)
	ErrTeamNameConflict         = fmt.Errorf("%w: team name is already in use", ErrConflict)
	ErrTeamInUse                = fmt.Errorf("%w: team is registered to a tournament", ErrConflict)
	ErrTeamHasMatches           = fmt.Errorf("%w: team already has matches in this tournament", ErrConflict)
	ErrMandatoryConfig          = fmt.Errorf("%w: mandatory match config cannot be deleted", ErrConflict)
	ErrPreliminaryAlreadyPlayed = fmt.Errorf("%w: these teams already have a preliminary match", ErrConflict)
)

// storageError hides repository details behind ErrStorage while keeping the
// cause for logs.
func storageError(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStorage, op, err)
}
