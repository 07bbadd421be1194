package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Dosada05/belote-manager/brackets"
	"github.com/Dosada05/belote-manager/metrics"
	"github.com/Dosada05/belote-manager/models"
	"github.com/Dosada05/belote-manager/repositories"
)

type CreateMatchInput struct {
	MatchType models.MatchType `json:"match_type"`
	TeamAID   int              `json:"team_a_id"`
	TeamBID   int              `json:"team_b_id"`
}

// ResultInput is a match result. When WinnerID is nil and the scores differ,
// the higher score wins; equal scores leave the match undecided.
type ResultInput struct {
	ScoreA   int  `json:"score_a"`
	ScoreB   int  `json:"score_b"`
	WinnerID *int `json:"winner_id"`
}

type MatchService interface {
	ListByTournament(ctx context.Context, tournamentID int, matchType *models.MatchType) ([]models.Match, error)
	GetByID(ctx context.Context, id int) (*models.Match, error)
	Create(ctx context.Context, tournamentID int, input CreateMatchInput) (*models.Match, error)
	RecordResult(ctx context.Context, id int, input ResultInput) (*models.Match, error)
	Delete(ctx context.Context, id int) error
}

type matchService struct {
	txManager        repositories.TxManager
	tournamentRepo   repositories.TournamentRepository
	registrationRepo repositories.RegistrationRepository
	matchRepo        repositories.MatchRepository
	statsRepo        repositories.StatsRepository
	notifier         Notifier
	metrics          metrics.Recorder
	logger           *slog.Logger
}

func NewMatchService(
	txManager repositories.TxManager,
	tournamentRepo repositories.TournamentRepository,
	registrationRepo repositories.RegistrationRepository,
	matchRepo repositories.MatchRepository,
	statsRepo repositories.StatsRepository,
	notifier Notifier,
	recorder metrics.Recorder,
	logger *slog.Logger,
) MatchService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &matchService{
		txManager:        txManager,
		tournamentRepo:   tournamentRepo,
		registrationRepo: registrationRepo,
		matchRepo:        matchRepo,
		statsRepo:        statsRepo,
		notifier:         notifierOrNoop(notifier),
		metrics:          recorder,
		logger:           logger.With(slog.String("service", "match")),
	}
}

func (s *matchService) ListByTournament(ctx context.Context, tournamentID int, matchType *models.MatchType) ([]models.Match, error) {
	if _, err := s.tournamentRepo.GetByID(ctx, nil, tournamentID); err != nil {
		return nil, translateError("get tournament", err)
	}
	matches, err := s.matchRepo.ListByTournament(ctx, nil, tournamentID, repositories.MatchFilter{MatchType: matchType})
	if err != nil {
		return nil, translateError("list matches", err)
	}
	if matches == nil {
		return []models.Match{}, nil
	}
	return matches, nil
}

func (s *matchService) GetByID(ctx context.Context, id int) (*models.Match, error) {
	match, err := s.matchRepo.GetByID(ctx, nil, id)
	if err != nil {
		return nil, translateError("get match", err)
	}
	return match, nil
}

// Create adds a single match outside round generation.
func (s *matchService) Create(ctx context.Context, tournamentID int, input CreateMatchInput) (*models.Match, error) {
	if input.TeamAID <= 0 || input.TeamBID <= 0 {
		return nil, fmt.Errorf("%w: team ids must be positive", ErrValidationFailed)
	}
	if input.TeamAID == input.TeamBID {
		return nil, ErrSelfMatch
	}

	match := &models.Match{
		TournamentID: tournamentID,
		MatchType:    input.MatchType,
		TeamAID:      input.TeamAID,
		TeamBID:      input.TeamBID,
	}
	err := s.txManager.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		tournament, err := s.tournamentRepo.GetForUpdate(ctx, exec, tournamentID)
		if err != nil {
			return err
		}
		if tournament.Status == models.StatusCompleted {
			return ErrTournamentCompleted
		}
		for _, teamID := range []int{input.TeamAID, input.TeamBID} {
			if _, err := s.registrationRepo.Get(ctx, exec, tournamentID, teamID); err != nil {
				if isNotFound(err) {
					return fmt.Errorf("%w: team %d", ErrTeamNotRegistered, teamID)
				}
				return err
			}
		}
		return s.matchRepo.Create(ctx, exec, match)
	})
	if err != nil {
		return nil, translateError("create match", err)
	}

	s.notifier.Publish(tournamentID, brackets.MessageMatchUpdated, match)
	return match, nil
}

// RecordResult stores the scores and winner, then refreshes the stats
// projection inside the same transaction.
func (s *matchService) RecordResult(ctx context.Context, id int, input ResultInput) (*models.Match, error) {
	if input.ScoreA < 0 || input.ScoreB < 0 {
		return nil, ErrInvalidScore
	}

	var match *models.Match
	err := s.txManager.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		var err error
		match, err = s.matchRepo.GetByID(ctx, exec, id)
		if err != nil {
			return err
		}
		tournament, err := s.tournamentRepo.GetForUpdate(ctx, exec, match.TournamentID)
		if err != nil {
			return err
		}
		if tournament.Status == models.StatusCompleted {
			return ErrTournamentCompleted
		}

		winnerID, err := resolveWinner(match, input)
		if err != nil {
			return err
		}
		if err := s.matchRepo.UpdateResult(ctx, exec, id, input.ScoreA, input.ScoreB, winnerID); err != nil {
			return err
		}
		match.ScoreA, match.ScoreB, match.WinnerID = input.ScoreA, input.ScoreB, winnerID

		return rebuildStats(ctx, exec, match.TournamentID, s.registrationRepo, s.matchRepo, s.statsRepo)
	})
	if err != nil {
		err = translateError("record match result", err)
		s.metrics.OperationFailed("record match result")
		s.logger.Warn("failed to record match result", slog.Int("match_id", id), slog.Any("error", err))
		return nil, err
	}

	s.metrics.ResultRecorded()
	s.logger.Info("match result recorded",
		slog.Int("match_id", id),
		slog.Int("tournament_id", match.TournamentID),
		slog.Int("score_a", match.ScoreA),
		slog.Int("score_b", match.ScoreB))
	s.notifier.Publish(match.TournamentID, brackets.MessageMatchUpdated, match)
	return match, nil
}

func resolveWinner(match *models.Match, input ResultInput) (*int, error) {
	if input.WinnerID != nil {
		if !match.Involves(*input.WinnerID) {
			return nil, fmt.Errorf("%w: team %d", ErrInvalidWinner, *input.WinnerID)
		}
		w := *input.WinnerID
		return &w, nil
	}
	switch {
	case input.ScoreA > input.ScoreB:
		w := match.TeamAID
		return &w, nil
	case input.ScoreB > input.ScoreA:
		w := match.TeamBID
		return &w, nil
	}
	return nil, nil
}

func (s *matchService) Delete(ctx context.Context, id int) error {
	var tournamentID int
	err := s.txManager.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		match, err := s.matchRepo.GetByID(ctx, exec, id)
		if err != nil {
			return err
		}
		tournamentID = match.TournamentID
		tournament, err := s.tournamentRepo.GetForUpdate(ctx, exec, tournamentID)
		if err != nil {
			return err
		}
		if tournament.Status == models.StatusCompleted {
			return ErrTournamentCompleted
		}
		if err := s.matchRepo.Delete(ctx, exec, id); err != nil {
			return err
		}
		return rebuildStats(ctx, exec, tournamentID, s.registrationRepo, s.matchRepo, s.statsRepo)
	})
	if err != nil {
		return translateError("delete match", err)
	}
	s.notifier.Publish(tournamentID, brackets.MessageMatchUpdated, map[string]interface{}{
		"match_id": id,
		"deleted":  true,
	})
	return nil
}
