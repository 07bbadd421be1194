package services

import (
	"context"
	"log/slog"

	"github.com/Dosada05/belote-manager/models"
	"github.com/Dosada05/belote-manager/repositories"
)

type RegistrationService interface {
	Register(ctx context.Context, tournamentID, teamID int) (*models.Registration, error)
	List(ctx context.Context, tournamentID int) ([]models.Registration, error)
	Unregister(ctx context.Context, tournamentID, teamID int) error
}

type registrationService struct {
	txManager        repositories.TxManager
	tournamentRepo   repositories.TournamentRepository
	teamRepo         repositories.TeamRepository
	registrationRepo repositories.RegistrationRepository
	matchRepo        repositories.MatchRepository
	statsRepo        repositories.StatsRepository
	logger           *slog.Logger
}

func NewRegistrationService(
	txManager repositories.TxManager,
	tournamentRepo repositories.TournamentRepository,
	teamRepo repositories.TeamRepository,
	registrationRepo repositories.RegistrationRepository,
	matchRepo repositories.MatchRepository,
	statsRepo repositories.StatsRepository,
	logger *slog.Logger,
) RegistrationService {
	return &registrationService{
		txManager:        txManager,
		tournamentRepo:   tournamentRepo,
		teamRepo:         teamRepo,
		registrationRepo: registrationRepo,
		matchRepo:        matchRepo,
		statsRepo:        statsRepo,
		logger:           logger.With(slog.String("service", "registration")),
	}
}

// Register adds the team to the tournament and creates its stats row in the
// same transaction.
func (s *registrationService) Register(ctx context.Context, tournamentID, teamID int) (*models.Registration, error) {
	team, err := s.teamRepo.GetByID(ctx, teamID)
	if err != nil {
		return nil, translateError("get team", err)
	}

	reg := &models.Registration{TeamID: teamID, TournamentID: tournamentID}
	err = s.txManager.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		tournament, err := s.tournamentRepo.GetForUpdate(ctx, exec, tournamentID)
		if err != nil {
			return err
		}
		if tournament.Status == models.StatusCompleted {
			return ErrTournamentCompleted
		}
		if err := s.registrationRepo.Create(ctx, exec, reg); err != nil {
			return err
		}
		return s.statsRepo.EnsureRow(ctx, exec, teamID, tournamentID)
	})
	if err != nil {
		return nil, translateError("register team", err)
	}

	reg.Team = team
	s.logger.Info("team registered", slog.Int("tournament_id", tournamentID), slog.Int("team_id", teamID))
	return reg, nil
}

func (s *registrationService) List(ctx context.Context, tournamentID int) ([]models.Registration, error) {
	if _, err := s.tournamentRepo.GetByID(ctx, nil, tournamentID); err != nil {
		return nil, translateError("get tournament", err)
	}
	regs, err := s.registrationRepo.ListByTournament(ctx, tournamentID)
	if err != nil {
		return nil, translateError("list registrations", err)
	}
	if regs == nil {
		return []models.Registration{}, nil
	}
	return regs, nil
}

// Unregister is refused once the team has a match in the tournament.
func (s *registrationService) Unregister(ctx context.Context, tournamentID, teamID int) error {
	err := s.txManager.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		tournament, err := s.tournamentRepo.GetForUpdate(ctx, exec, tournamentID)
		if err != nil {
			return err
		}
		if tournament.Status == models.StatusCompleted {
			return ErrTournamentCompleted
		}
		if _, err := s.registrationRepo.Get(ctx, exec, tournamentID, teamID); err != nil {
			return err
		}
		played, err := s.matchRepo.CountByTeam(ctx, exec, tournamentID, teamID)
		if err != nil {
			return err
		}
		if played > 0 {
			return ErrTeamHasMatches
		}
		return s.registrationRepo.Delete(ctx, exec, tournamentID, teamID)
	})
	if err != nil {
		return translateError("unregister team", err)
	}
	s.logger.Info("team unregistered", slog.Int("tournament_id", tournamentID), slog.Int("team_id", teamID))
	return nil
}
