package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Dosada05/belote-manager/brackets"
	"github.com/Dosada05/belote-manager/models"
	"github.com/Dosada05/belote-manager/repositories"
	"github.com/Dosada05/belote-manager/storage"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

type CreateTournamentInput struct {
	Name string    `json:"name"`
	Date time.Time `json:"date"`
}

type UpdateTournamentInput struct {
	Name *string    `json:"name"`
	Date *time.Time `json:"date"`
}

type ListTournamentsInput struct {
	Status *models.TournamentStatus
	Limit  int
	Offset int
}

// CompletionResult is returned by Complete. ArchiveURL is empty when no
// archive store is configured or the upload failed.
type CompletionResult struct {
	Tournament *models.Tournament    `json:"tournament"`
	Standings  []brackets.RankedTeam `json:"standings"`
	ArchiveURL string                `json:"archive_url,omitempty"`
}

type TournamentService interface {
	Create(ctx context.Context, input CreateTournamentInput) (*models.Tournament, error)
	GetByID(ctx context.Context, id int) (*models.Tournament, error)
	List(ctx context.Context, input ListTournamentsInput) ([]models.Tournament, error)
	UpdateDetails(ctx context.Context, id int, input UpdateTournamentInput) (*models.Tournament, error)
	UpdateStatus(ctx context.Context, id int, status models.TournamentStatus) (*models.Tournament, error)
	Start(ctx context.Context, id int) (*models.Tournament, error)
	Complete(ctx context.Context, id int) (*CompletionResult, error)
	Delete(ctx context.Context, id int) error
}

type tournamentService struct {
	txManager        repositories.TxManager
	tournamentRepo   repositories.TournamentRepository
	registrationRepo repositories.RegistrationRepository
	configRepo       repositories.MatchConfigRepository
	matchRepo        repositories.MatchRepository
	uploader         storage.FileUploader
	notifier         Notifier
	logger           *slog.Logger
}

// NewTournamentService builds the service. uploader may be nil, in which case
// completed tournaments are not archived.
func NewTournamentService(
	txManager repositories.TxManager,
	tournamentRepo repositories.TournamentRepository,
	registrationRepo repositories.RegistrationRepository,
	configRepo repositories.MatchConfigRepository,
	matchRepo repositories.MatchRepository,
	uploader storage.FileUploader,
	notifier Notifier,
	logger *slog.Logger,
) TournamentService {
	return &tournamentService{
		txManager:        txManager,
		tournamentRepo:   tournamentRepo,
		registrationRepo: registrationRepo,
		configRepo:       configRepo,
		matchRepo:        matchRepo,
		uploader:         uploader,
		notifier:         notifierOrNoop(notifier),
		logger:           logger.With(slog.String("service", "tournament")),
	}
}

func (s *tournamentService) Create(ctx context.Context, input CreateTournamentInput) (*models.Tournament, error) {
	name := normalizeName(input.Name)
	if name == "" {
		return nil, ErrTournamentNameRequired
	}
	if input.Date.IsZero() {
		return nil, ErrTournamentDateRequired
	}

	tournament := &models.Tournament{
		Name:   name,
		Date:   input.Date,
		Status: models.StatusUpcoming,
	}

	err := s.txManager.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		if err := s.tournamentRepo.Create(ctx, exec, tournament); err != nil {
			return err
		}
		configs := defaultMatchConfigs(tournament.ID)
		for i := range configs {
			if err := s.configRepo.Create(ctx, exec, &configs[i]); err != nil {
				return err
			}
		}
		tournament.Configs = configs
		return nil
	})
	if err != nil {
		return nil, translateError("create tournament", err)
	}

	s.logger.Info("tournament created", slog.Int("tournament_id", tournament.ID), slog.String("name", tournament.Name))
	return tournament, nil
}

// GetByID returns the tournament with its registered teams and match configs.
func (s *tournamentService) GetByID(ctx context.Context, id int) (*models.Tournament, error) {
	tournament, err := s.tournamentRepo.GetByID(ctx, nil, id)
	if err != nil {
		return nil, translateError("get tournament", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		teams, err := s.registrationRepo.ListTeams(gctx, nil, id)
		tournament.Teams = teams
		return err
	})
	g.Go(func() error {
		configs, err := s.configRepo.ListByTournament(gctx, id)
		tournament.Configs = configs
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, translateError("load tournament details", err)
	}
	return tournament, nil
}

func (s *tournamentService) List(ctx context.Context, input ListTournamentsInput) ([]models.Tournament, error) {
	if input.Status != nil && !input.Status.IsValid() {
		return nil, ErrTournamentInvalidStatus
	}
	limit := input.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	offset := input.Offset
	if offset < 0 {
		offset = 0
	}

	tournaments, err := s.tournamentRepo.List(ctx, repositories.ListTournamentsFilter{
		Status: input.Status,
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		return nil, translateError("list tournaments", err)
	}
	return tournaments, nil
}

func (s *tournamentService) UpdateDetails(ctx context.Context, id int, input UpdateTournamentInput) (*models.Tournament, error) {
	var tournament *models.Tournament
	err := s.txManager.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		var err error
		tournament, err = s.tournamentRepo.GetForUpdate(ctx, exec, id)
		if err != nil {
			return err
		}
		if tournament.Status == models.StatusCompleted {
			return ErrTournamentCompleted
		}
		if input.Name != nil {
			name := normalizeName(*input.Name)
			if name == "" {
				return ErrTournamentNameRequired
			}
			tournament.Name = name
		}
		if input.Date != nil {
			if input.Date.IsZero() {
				return ErrTournamentDateRequired
			}
			tournament.Date = *input.Date
		}
		return s.tournamentRepo.Update(ctx, exec, tournament)
	})
	if err != nil {
		return nil, translateError("update tournament", err)
	}
	return tournament, nil
}

// UpdateStatus moves the tournament forward. Completion goes through Complete
// so the stage check and archive always run.
func (s *tournamentService) UpdateStatus(ctx context.Context, id int, status models.TournamentStatus) (*models.Tournament, error) {
	if !status.IsValid() {
		return nil, ErrTournamentInvalidStatus
	}
	if status == models.StatusCompleted {
		result, err := s.Complete(ctx, id)
		if err != nil {
			return nil, err
		}
		return result.Tournament, nil
	}
	return s.transition(ctx, id, status)
}

func (s *tournamentService) Start(ctx context.Context, id int) (*models.Tournament, error) {
	return s.transition(ctx, id, models.StatusInProgress)
}

func (s *tournamentService) transition(ctx context.Context, id int, status models.TournamentStatus) (*models.Tournament, error) {
	var tournament *models.Tournament
	var changed bool
	err := s.txManager.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		var err error
		tournament, err = s.tournamentRepo.GetForUpdate(ctx, exec, id)
		if err != nil {
			return err
		}
		if !isValidStatusTransition(tournament.Status, status) {
			return fmt.Errorf("%w: %s -> %s", ErrTournamentInvalidStatusTransition, tournament.Status, status)
		}
		if tournament.Status == status {
			return nil
		}
		if err := s.tournamentRepo.UpdateStatus(ctx, exec, id, status); err != nil {
			return err
		}
		tournament.Status = status
		changed = true
		return nil
	})
	if err != nil {
		return nil, translateError("update tournament status", err)
	}

	if changed {
		s.logger.Info("tournament status changed", slog.Int("tournament_id", id), slog.String("status", string(status)))
		s.notifier.Publish(id, brackets.MessageStatusChanged, map[string]interface{}{
			"tournament_id": id,
			"status":        status,
		})
	}
	return tournament, nil
}

// Complete closes a tournament whose main rounds are all played and archives
// the final standings. The stage is read under the tournament row lock so a
// concurrent result change cannot slip in between the check and the update.
func (s *tournamentService) Complete(ctx context.Context, id int) (*CompletionResult, error) {
	var tournament *models.Tournament
	var standings []brackets.RankedTeam
	err := s.txManager.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		var err error
		tournament, err = s.tournamentRepo.GetForUpdate(ctx, exec, id)
		if err != nil {
			return err
		}
		teams, err := s.registrationRepo.ListTeams(ctx, exec, id)
		if err != nil {
			return err
		}
		matches, err := s.matchRepo.ListByTournament(ctx, exec, id, repositories.MatchFilter{})
		if err != nil {
			return err
		}
		mainConfig, err := findConfig(ctx, s.configRepo, exec, id, models.MustPrincipal(1))
		if err != nil {
			return err
		}

		stage := brackets.DetermineStage(brackets.StageInput{
			Tournament: *tournament,
			Teams:      teams,
			Matches:    matches,
			MainConfig: mainConfig,
		})
		if stage.Stage != brackets.StageAllRoundsComplete {
			return fmt.Errorf("%w: tournament is at stage %s", ErrStageActionNotAllowed, stage.Stage)
		}
		if !isValidStatusTransition(tournament.Status, models.StatusCompleted) {
			return fmt.Errorf("%w: %s -> %s", ErrTournamentInvalidStatusTransition, tournament.Status, models.StatusCompleted)
		}
		standings = brackets.ComputeStandings(teams, matches)

		if err := s.tournamentRepo.UpdateStatus(ctx, exec, id, models.StatusCompleted); err != nil {
			return err
		}
		tournament.Status = models.StatusCompleted
		return nil
	})
	if err != nil {
		return nil, translateError("complete tournament", err)
	}

	s.logger.Info("tournament status changed", slog.Int("tournament_id", id), slog.String("status", string(models.StatusCompleted)))
	s.notifier.Publish(id, brackets.MessageStatusChanged, map[string]interface{}{
		"tournament_id": id,
		"status":        models.StatusCompleted,
	})

	result := &CompletionResult{Tournament: tournament, Standings: standings}
	result.ArchiveURL = s.archiveStandings(ctx, tournament, standings)
	return result, nil
}

// archiveStandings uploads the final standings. Failure is logged, never
// returned: the tournament is already completed.
func (s *tournamentService) archiveStandings(ctx context.Context, tournament *models.Tournament, standings []brackets.RankedTeam) string {
	if s.uploader == nil {
		return ""
	}
	body, err := json.Marshal(map[string]interface{}{
		"tournament":  tournament,
		"standings":   standings,
		"archived_at": time.Now().UTC(),
	})
	if err != nil {
		s.logger.Error("failed to encode standings archive", slog.Int("tournament_id", tournament.ID), slog.Any("error", err))
		return ""
	}

	key := storage.StandingsArchiveKey(tournament.ID)
	uploaded, err := s.uploader.Upload(ctx, key, "application/json", bytes.NewReader(body))
	if err != nil {
		s.logger.Error("failed to archive standings", slog.Int("tournament_id", tournament.ID), slog.String("key", key), slog.Any("error", err))
		return ""
	}
	s.logger.Info("standings archived", slog.Int("tournament_id", tournament.ID), slog.String("location", uploaded.Location))
	return uploaded.Location
}

func (s *tournamentService) Delete(ctx context.Context, id int) error {
	if err := s.tournamentRepo.Delete(ctx, id); err != nil {
		return translateError("delete tournament", err)
	}
	if s.uploader != nil {
		key := storage.StandingsArchiveKey(id)
		if err := s.uploader.Delete(ctx, key); err != nil {
			s.logger.Warn("failed to delete standings archive", slog.Int("tournament_id", id), slog.Any("error", err))
		}
	}
	s.logger.Info("tournament deleted", slog.Int("tournament_id", id))
	return nil
}
