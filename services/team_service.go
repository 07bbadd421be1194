package services

import (
	"context"
	"log/slog"

	"github.com/Dosada05/belote-manager/models"
	"github.com/Dosada05/belote-manager/repositories"
)

type TeamInput struct {
	Name    string `json:"name"`
	Player1 string `json:"player1"`
	Player2 string `json:"player2"`
}

type TeamService interface {
	Create(ctx context.Context, input TeamInput) (*models.Team, error)
	GetByID(ctx context.Context, id int) (*models.Team, error)
	List(ctx context.Context) ([]models.Team, error)
	Update(ctx context.Context, id int, input TeamInput) (*models.Team, error)
	Delete(ctx context.Context, id int) error
}

type teamService struct {
	teamRepo repositories.TeamRepository
	logger   *slog.Logger
}

func NewTeamService(teamRepo repositories.TeamRepository, logger *slog.Logger) TeamService {
	return &teamService{teamRepo: teamRepo, logger: logger.With(slog.String("service", "team"))}
}

func validateTeamInput(input TeamInput) (TeamInput, error) {
	input.Name = normalizeName(input.Name)
	input.Player1 = normalizeName(input.Player1)
	input.Player2 = normalizeName(input.Player2)
	if input.Name == "" {
		return input, ErrTeamNameRequired
	}
	if input.Player1 == "" || input.Player2 == "" {
		return input, ErrTeamPlayersRequired
	}
	return input, nil
}

func (s *teamService) Create(ctx context.Context, input TeamInput) (*models.Team, error) {
	input, err := validateTeamInput(input)
	if err != nil {
		return nil, err
	}
	team := &models.Team{Name: input.Name, Player1: input.Player1, Player2: input.Player2}
	if err := s.teamRepo.Create(ctx, team); err != nil {
		return nil, translateError("create team", err)
	}
	s.logger.Info("team created", slog.Int("team_id", team.ID), slog.String("name", team.Name))
	return team, nil
}

func (s *teamService) GetByID(ctx context.Context, id int) (*models.Team, error) {
	team, err := s.teamRepo.GetByID(ctx, id)
	if err != nil {
		return nil, translateError("get team", err)
	}
	return team, nil
}

func (s *teamService) List(ctx context.Context) ([]models.Team, error) {
	teams, err := s.teamRepo.List(ctx)
	if err != nil {
		return nil, translateError("list teams", err)
	}
	if teams == nil {
		return []models.Team{}, nil
	}
	return teams, nil
}

func (s *teamService) Update(ctx context.Context, id int, input TeamInput) (*models.Team, error) {
	input, err := validateTeamInput(input)
	if err != nil {
		return nil, err
	}
	team, err := s.teamRepo.GetByID(ctx, id)
	if err != nil {
		return nil, translateError("get team", err)
	}
	team.Name, team.Player1, team.Player2 = input.Name, input.Player1, input.Player2
	if err := s.teamRepo.Update(ctx, team); err != nil {
		return nil, translateError("update team", err)
	}
	return team, nil
}

// Delete refuses teams still registered to a tournament.
func (s *teamService) Delete(ctx context.Context, id int) error {
	if err := s.teamRepo.Delete(ctx, id); err != nil {
		return translateError("delete team", err)
	}
	s.logger.Info("team deleted", slog.Int("team_id", id))
	return nil
}
