package services

import (
	"context"
	"errors"
	"log/slog"

	"github.com/Dosada05/belote-manager/models"
	"github.com/Dosada05/belote-manager/repositories"
)

type MatchConfigInput struct {
	MatchType  models.MatchType `json:"match_type"`
	IsEnabled  bool             `json:"is_enabled"`
	MaxMatches *int             `json:"max_matches"`
}

type MatchConfigService interface {
	List(ctx context.Context, tournamentID int) ([]models.MatchConfig, error)
	Get(ctx context.Context, tournamentID int, matchType models.MatchType) (*models.MatchConfig, error)
	Create(ctx context.Context, tournamentID int, input MatchConfigInput) (*models.MatchConfig, error)
	// Update replaces is_enabled and max_matches of an existing config.
	Update(ctx context.Context, tournamentID int, input MatchConfigInput) (*models.MatchConfig, error)
	Delete(ctx context.Context, tournamentID int, matchType models.MatchType) error
}

type matchConfigService struct {
	txManager      repositories.TxManager
	tournamentRepo repositories.TournamentRepository
	configRepo     repositories.MatchConfigRepository
	logger         *slog.Logger
}

func NewMatchConfigService(
	txManager repositories.TxManager,
	tournamentRepo repositories.TournamentRepository,
	configRepo repositories.MatchConfigRepository,
	logger *slog.Logger,
) MatchConfigService {
	return &matchConfigService{
		txManager:      txManager,
		tournamentRepo: tournamentRepo,
		configRepo:     configRepo,
		logger:         logger.With(slog.String("service", "match_config")),
	}
}

func (s *matchConfigService) List(ctx context.Context, tournamentID int) ([]models.MatchConfig, error) {
	if _, err := s.tournamentRepo.GetByID(ctx, nil, tournamentID); err != nil {
		return nil, translateError("get tournament", err)
	}
	configs, err := s.configRepo.ListByTournament(ctx, tournamentID)
	if err != nil {
		return nil, translateError("list match configs", err)
	}
	if configs == nil {
		return []models.MatchConfig{}, nil
	}
	return configs, nil
}

func (s *matchConfigService) Get(ctx context.Context, tournamentID int, matchType models.MatchType) (*models.MatchConfig, error) {
	cfg, err := s.configRepo.GetByType(ctx, nil, tournamentID, matchType)
	if err != nil {
		return nil, translateError("get match config", err)
	}
	return cfg, nil
}

func (s *matchConfigService) Create(ctx context.Context, tournamentID int, input MatchConfigInput) (*models.MatchConfig, error) {
	cfg := &models.MatchConfig{
		TournamentID: tournamentID,
		MatchType:    input.MatchType,
		IsEnabled:    input.IsEnabled,
		MaxMatches:   input.MaxMatches,
	}
	if err := validateMatchConfig(cfg); err != nil {
		return nil, err
	}

	err := s.txManager.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		if _, err := s.tournamentRepo.GetForUpdate(ctx, exec, tournamentID); err != nil {
			return err
		}
		return s.configRepo.Create(ctx, exec, cfg)
	})
	if err != nil {
		return nil, translateError("create match config", err)
	}
	s.logger.Info("match config created",
		slog.Int("tournament_id", tournamentID),
		slog.String("match_type", cfg.MatchType.String()))
	return cfg, nil
}

func (s *matchConfigService) Update(ctx context.Context, tournamentID int, input MatchConfigInput) (*models.MatchConfig, error) {
	var cfg *models.MatchConfig
	err := s.txManager.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		if _, err := s.tournamentRepo.GetForUpdate(ctx, exec, tournamentID); err != nil {
			return err
		}
		var err error
		cfg, err = s.configRepo.GetByType(ctx, exec, tournamentID, input.MatchType)
		if err != nil {
			return err
		}
		cfg.IsEnabled = input.IsEnabled
		cfg.MaxMatches = input.MaxMatches
		if err := validateMatchConfig(cfg); err != nil {
			return err
		}
		return s.configRepo.Update(ctx, exec, cfg)
	})
	if err != nil {
		return nil, translateError("update match config", err)
	}
	return cfg, nil
}

func (s *matchConfigService) Delete(ctx context.Context, tournamentID int, matchType models.MatchType) error {
	if isMandatoryMatchType(matchType) {
		return ErrMandatoryConfig
	}
	if err := s.configRepo.Delete(ctx, tournamentID, matchType); err != nil {
		if errors.Is(err, repositories.ErrMatchConfigNotFound) {
			return ErrMatchConfigNotFound
		}
		return translateError("delete match config", err)
	}
	return nil
}
