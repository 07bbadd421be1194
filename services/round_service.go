package services

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/Dosada05/belote-manager/brackets"
	"github.com/Dosada05/belote-manager/metrics"
	"github.com/Dosada05/belote-manager/models"
	"github.com/Dosada05/belote-manager/repositories"
)

// GenerationResult reports how many matches a generation or confirmation wrote.
type GenerationResult struct {
	MatchType    models.MatchType `json:"match_type"`
	CreatedCount int              `json:"created_count"`
}

// Proposal is a set of suggested pairs. Nothing is stored until ConfirmPairs.
type Proposal struct {
	MatchType models.MatchType `json:"match_type"`
	Stage     brackets.Stage   `json:"stage"`
	Pairs     []brackets.Pair  `json:"pairs"`
	Unpaired  []int            `json:"unpaired,omitempty"`
	Repeats   int              `json:"repeats"`
}

type RoundService interface {
	GeneratePreliminaryRound(ctx context.Context, tournamentID int) (*GenerationResult, error)
	GenerateMainRound(ctx context.Context, tournamentID int) (*GenerationResult, error)
	ComputeStandings(ctx context.Context, tournamentID int) ([]brackets.RankedTeam, error)
	ComputeStage(ctx context.Context, tournamentID int) (*brackets.StageDescriptor, error)
	ProposePairs(ctx context.Context, tournamentID int) (*Proposal, error)
	ConfirmPairs(ctx context.Context, tournamentID int, matchType models.MatchType, pairs []brackets.Pair) (*GenerationResult, error)
}

type roundService struct {
	txManager        repositories.TxManager
	tournamentRepo   repositories.TournamentRepository
	registrationRepo repositories.RegistrationRepository
	matchRepo        repositories.MatchRepository
	configRepo       repositories.MatchConfigRepository
	statsRepo        repositories.StatsRepository

	prelimGenerator brackets.RoundGenerator
	mainGenerator   brackets.RoundGenerator
	pairer          *brackets.RematchAvoidingPairer

	notifier Notifier
	metrics  metrics.Recorder
	logger   *slog.Logger
}

func NewRoundService(
	txManager repositories.TxManager,
	tournamentRepo repositories.TournamentRepository,
	registrationRepo repositories.RegistrationRepository,
	matchRepo repositories.MatchRepository,
	configRepo repositories.MatchConfigRepository,
	statsRepo repositories.StatsRepository,
	shuffler brackets.Shuffler,
	notifier Notifier,
	recorder metrics.Recorder,
	logger *slog.Logger,
) RoundService {
	if shuffler == nil {
		shuffler = brackets.DefaultShuffler()
	}
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &roundService{
		txManager:        txManager,
		tournamentRepo:   tournamentRepo,
		registrationRepo: registrationRepo,
		matchRepo:        matchRepo,
		configRepo:       configRepo,
		statsRepo:        statsRepo,
		prelimGenerator:  brackets.NewPreliminaryGenerator(),
		mainGenerator:    brackets.NewMainRoundGenerator(shuffler),
		pairer:           brackets.NewRematchAvoidingPairer(shuffler),
		notifier:         notifierOrNoop(notifier),
		metrics:          recorder,
		logger:           logger.With(slog.String("service", "round")),
	}
}

// GeneratePreliminaryRound replaces the preliminary matches with a full
// round-robin over the registered teams and zeroes preliminary points.
func (s *roundService) GeneratePreliminaryRound(ctx context.Context, tournamentID int) (*GenerationResult, error) {
	const op = "generate preliminary round"
	var created int

	err := s.txManager.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		tournament, err := s.tournamentRepo.GetForUpdate(ctx, exec, tournamentID)
		if err != nil {
			return err
		}
		if tournament.Status == models.StatusCompleted {
			return ErrTournamentCompleted
		}

		teams, err := s.registrationRepo.ListTeams(ctx, exec, tournamentID)
		if err != nil {
			return err
		}
		cfg, err := findConfig(ctx, s.configRepo, exec, tournamentID, models.Preliminary)
		if err != nil {
			return err
		}
		if cfg != nil && !cfg.IsEnabled {
			return fmt.Errorf("%w: %s", ErrMatchTypeDisabled, models.Preliminary)
		}

		pairs, err := s.prelimGenerator.Generate(brackets.GenerateParams{
			Entrants:   brackets.EntrantsFromIDs(teamIDs(teams)),
			MaxMatches: cfg.Limit(),
		})
		if err != nil {
			return err
		}

		if err := s.statsRepo.ResetPrelimPoints(ctx, exec, tournamentID); err != nil {
			return err
		}
		for _, team := range teams {
			if err := s.statsRepo.EnsureRow(ctx, exec, team.ID, tournamentID); err != nil {
				return err
			}
		}
		created, err = s.matchRepo.ReplaceMatches(ctx, exec, tournamentID, models.Preliminary, pairsToMatches(tournamentID, models.Preliminary, pairs))
		return err
	})
	if err != nil {
		return nil, s.fail(op, tournamentID, err)
	}

	return s.generated(tournamentID, models.Preliminary, created), nil
}

// GenerateMainRound seeds teams by preliminary points and writes the first
// main round. Every existing main-round match is discarded.
func (s *roundService) GenerateMainRound(ctx context.Context, tournamentID int) (*GenerationResult, error) {
	const op = "generate main round"
	matchType := models.MustPrincipal(1)
	var created int
	var promoted bool

	err := s.txManager.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		tournament, err := s.tournamentRepo.GetForUpdate(ctx, exec, tournamentID)
		if err != nil {
			return err
		}
		if tournament.Status == models.StatusCompleted {
			return ErrTournamentCompleted
		}

		stats, err := s.statsRepo.ListByTournament(ctx, exec, tournamentID)
		if err != nil {
			return err
		}
		cfg, err := findConfig(ctx, s.configRepo, exec, tournamentID, matchType)
		if err != nil {
			return err
		}
		if cfg != nil && !cfg.IsEnabled {
			return fmt.Errorf("%w: %s", ErrMatchTypeDisabled, matchType)
		}

		entrants := make([]brackets.Entrant, len(stats))
		for i, st := range stats {
			entrants[i] = brackets.Entrant{TeamID: st.TeamID, Points: st.PrelimPoints}
		}
		pairs, err := s.mainGenerator.Generate(brackets.GenerateParams{
			Entrants:   entrants,
			MaxMatches: cfg.Limit(),
		})
		if err != nil {
			return err
		}

		if _, err := s.matchRepo.DeletePrincipal(ctx, exec, tournamentID); err != nil {
			return err
		}
		created, err = s.matchRepo.ReplaceMatches(ctx, exec, tournamentID, matchType, pairsToMatches(tournamentID, matchType, pairs))
		if err != nil {
			return err
		}
		if err := rebuildStats(ctx, exec, tournamentID, s.registrationRepo, s.matchRepo, s.statsRepo); err != nil {
			return err
		}

		if tournament.Status == models.StatusUpcoming {
			if err := s.tournamentRepo.UpdateStatus(ctx, exec, tournamentID, models.StatusInProgress); err != nil {
				return err
			}
			promoted = true
		}
		return nil
	})
	if err != nil {
		return nil, s.fail(op, tournamentID, err)
	}

	if promoted {
		s.notifier.Publish(tournamentID, brackets.MessageStatusChanged, map[string]interface{}{
			"tournament_id": tournamentID,
			"status":        models.StatusInProgress,
		})
	}
	return s.generated(tournamentID, matchType, created), nil
}

func (s *roundService) ComputeStandings(ctx context.Context, tournamentID int) ([]brackets.RankedTeam, error) {
	snap, err := s.loadSnapshot(ctx, tournamentID)
	if err != nil {
		return nil, translateError("compute standings", err)
	}
	return brackets.ComputeStandings(snap.teams, snap.matches), nil
}

func (s *roundService) ComputeStage(ctx context.Context, tournamentID int) (*brackets.StageDescriptor, error) {
	snap, err := s.loadSnapshot(ctx, tournamentID)
	if err != nil {
		return nil, translateError("compute stage", err)
	}
	desc := snap.stage()
	return &desc, nil
}

// ProposePairs suggests the pairs for whatever the stage controller says comes
// next. It never writes.
func (s *roundService) ProposePairs(ctx context.Context, tournamentID int) (*Proposal, error) {
	const op = "propose pairs"
	snap, err := s.loadSnapshot(ctx, tournamentID)
	if err != nil {
		return nil, translateError(op, err)
	}

	desc := snap.stage()
	switch desc.Stage {
	case brackets.StageNeedsPreliminaries:
		if !hasPreliminaries(snap.matches) {
			pairs, err := s.prelimGenerator.Generate(brackets.GenerateParams{
				Entrants:   brackets.EntrantsFromIDs(teamIDs(snap.teams)),
				MaxMatches: snap.prelimConfig.Limit(),
			})
			if err != nil {
				return nil, translateError(op, err)
			}
			return &Proposal{MatchType: models.Preliminary, Stage: desc.Stage, Pairs: pairs}, nil
		}

		// Some preliminaries exist: propose only what covers the teams left out.
		result := brackets.CoverPreliminaries(teamIDs(snap.teams), desc.TeamsWithoutPreliminaries, snap.matches)
		if len(result.Pairs) == 0 {
			return nil, fmt.Errorf("%w: no opponent for teams %v", ErrInsufficientTeams, result.Unpaired)
		}
		return &Proposal{
			MatchType: models.Preliminary,
			Stage:     desc.Stage,
			Pairs:     result.Pairs,
			Unpaired:  result.Unpaired,
		}, nil

	case brackets.StageNeedsMainRound:
		if len(desc.EligibleTeamIDs) < 2 {
			return nil, fmt.Errorf("%w: %d eligible for round %d", ErrInsufficientTeams, len(desc.EligibleTeamIDs), desc.Round)
		}
		result := s.pairer.Pair(desc.EligibleTeamIDs, snap.matches)
		return &Proposal{
			MatchType: models.MustPrincipal(desc.Round),
			Stage:     desc.Stage,
			Pairs:     result.Pairs,
			Unpaired:  result.Unpaired,
			Repeats:   result.Repeats,
		}, nil
	}

	return nil, fmt.Errorf("%w: %s", ErrStageActionNotAllowed, desc.Stage)
}

// ConfirmPairs stores pairs as matches of matchType. Preliminary pairs are
// added to the preliminaries already stored, and a pair that already met there
// is refused. Main-round pairs replace the matches of that round.
func (s *roundService) ConfirmPairs(ctx context.Context, tournamentID int, matchType models.MatchType, pairs []brackets.Pair) (*GenerationResult, error) {
	const op = "confirm pairs"
	if err := validatePairs(matchType, pairs); err != nil {
		return nil, err
	}

	var created int
	var promoted bool
	err := s.txManager.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		tournament, err := s.tournamentRepo.GetForUpdate(ctx, exec, tournamentID)
		if err != nil {
			return err
		}
		if tournament.Status == models.StatusCompleted {
			return ErrTournamentCompleted
		}

		teams, err := s.registrationRepo.ListTeams(ctx, exec, tournamentID)
		if err != nil {
			return err
		}
		registered := make(map[int]bool, len(teams))
		for _, t := range teams {
			registered[t.ID] = true
		}
		for _, p := range pairs {
			for _, id := range []int{p.TeamAID, p.TeamBID} {
				if !registered[id] {
					return fmt.Errorf("%w: team %d", ErrTeamNotRegistered, id)
				}
			}
		}

		cfg, err := findConfig(ctx, s.configRepo, exec, tournamentID, matchType)
		if err != nil {
			return err
		}
		if cfg != nil && !cfg.IsEnabled {
			return fmt.Errorf("%w: %s", ErrMatchTypeDisabled, matchType)
		}

		if matchType.IsPreliminary() {
			created, err = s.appendPreliminaries(ctx, exec, tournamentID, pairs)
		} else {
			created, err = s.matchRepo.ReplaceMatches(ctx, exec, tournamentID, matchType, pairsToMatches(tournamentID, matchType, pairs))
		}
		if err != nil {
			return err
		}
		if err := rebuildStats(ctx, exec, tournamentID, s.registrationRepo, s.matchRepo, s.statsRepo); err != nil {
			return err
		}

		if matchType.IsPrincipal() {
			if tournament.Status == models.StatusUpcoming {
				if err := s.tournamentRepo.UpdateStatus(ctx, exec, tournamentID, models.StatusInProgress); err != nil {
					return err
				}
				promoted = true
			}
		}
		return nil
	})
	if err != nil {
		return nil, s.fail(op, tournamentID, err)
	}

	if promoted {
		s.notifier.Publish(tournamentID, brackets.MessageStatusChanged, map[string]interface{}{
			"tournament_id": tournamentID,
			"status":        models.StatusInProgress,
		})
	}
	return s.generated(tournamentID, matchType, created), nil
}

func (s *roundService) appendPreliminaries(ctx context.Context, exec repositories.SQLExecutor, tournamentID int, pairs []brackets.Pair) (int, error) {
	prelim := models.Preliminary
	existing, err := s.matchRepo.ListByTournament(ctx, exec, tournamentID, repositories.MatchFilter{MatchType: &prelim})
	if err != nil {
		return 0, err
	}
	played := make(map[[2]int]bool, len(existing))
	for _, m := range existing {
		played[[2]int{min(m.TeamAID, m.TeamBID), max(m.TeamAID, m.TeamBID)}] = true
	}
	for _, p := range pairs {
		if played[[2]int{min(p.TeamAID, p.TeamBID), max(p.TeamAID, p.TeamBID)}] {
			return 0, fmt.Errorf("%w: %d vs %d", ErrPreliminaryAlreadyPlayed, p.TeamAID, p.TeamBID)
		}
	}

	matches := pairsToMatches(tournamentID, models.Preliminary, pairs)
	for i := range matches {
		if err := s.matchRepo.Create(ctx, exec, &matches[i]); err != nil {
			return 0, err
		}
	}
	return len(matches), nil
}

func hasPreliminaries(matches []models.Match) bool {
	for i := range matches {
		if matches[i].MatchType.IsPreliminary() {
			return true
		}
	}
	return false
}

// validatePairs checks what can be checked without storage. A team may play
// several preliminary matches, but each unordered pair only once; in a main
// round a team plays at most once.
func validatePairs(matchType models.MatchType, pairs []brackets.Pair) error {
	if len(pairs) == 0 {
		return ErrNoPairs
	}
	seenTeams := make(map[int]bool, len(pairs)*2)
	seenPairs := make(map[[2]int]bool, len(pairs))
	for _, p := range pairs {
		if p.TeamAID <= 0 || p.TeamBID <= 0 {
			return fmt.Errorf("%w: team ids must be positive", ErrValidationFailed)
		}
		if p.TeamAID == p.TeamBID {
			return fmt.Errorf("%w: team %d", ErrSelfMatch, p.TeamAID)
		}
		if matchType.IsPreliminary() {
			key := [2]int{min(p.TeamAID, p.TeamBID), max(p.TeamAID, p.TeamBID)}
			if seenPairs[key] {
				return fmt.Errorf("%w: %d vs %d listed twice", ErrValidationFailed, key[0], key[1])
			}
			seenPairs[key] = true
			continue
		}
		for _, id := range []int{p.TeamAID, p.TeamBID} {
			if seenTeams[id] {
				return fmt.Errorf("%w: team %d", ErrTeamPairedTwice, id)
			}
			seenTeams[id] = true
		}
	}
	return nil
}

func (s *roundService) generated(tournamentID int, matchType models.MatchType, created int) *GenerationResult {
	s.metrics.RoundGenerated(phaseLabel(matchType), created)
	s.logger.Info("round generated",
		slog.Int("tournament_id", tournamentID),
		slog.String("match_type", matchType.String()),
		slog.Int("created", created))
	s.notifier.Publish(tournamentID, brackets.MessageRoundGenerated, map[string]interface{}{
		"tournament_id": tournamentID,
		"match_type":    matchType,
		"created_count": created,
	})
	return &GenerationResult{MatchType: matchType, CreatedCount: created}
}

func (s *roundService) fail(op string, tournamentID int, err error) error {
	err = translateError(op, err)
	s.metrics.OperationFailed(op)
	level := slog.LevelWarn
	if errorsIsStorage(err) {
		level = slog.LevelError
	}
	s.logger.Log(context.Background(), level, op+" failed",
		slog.Int("tournament_id", tournamentID),
		slog.Any("error", err))
	return err
}

// tournamentSnapshot is everything the pure bracket functions need.
type tournamentSnapshot struct {
	tournament   *models.Tournament
	teams        []models.Team
	matches      []models.Match
	prelimConfig *models.MatchConfig
	mainConfig   *models.MatchConfig
}

func (snap *tournamentSnapshot) stage() brackets.StageDescriptor {
	return brackets.DetermineStage(brackets.StageInput{
		Tournament: *snap.tournament,
		Teams:      snap.teams,
		Matches:    snap.matches,
		MainConfig: snap.mainConfig,
	})
}

func (s *roundService) loadSnapshot(ctx context.Context, tournamentID int) (*tournamentSnapshot, error) {
	tournament, err := s.tournamentRepo.GetByID(ctx, nil, tournamentID)
	if err != nil {
		return nil, err
	}
	snap := &tournamentSnapshot{tournament: tournament}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		snap.teams, err = s.registrationRepo.ListTeams(gctx, nil, tournamentID)
		return err
	})
	g.Go(func() error {
		var err error
		snap.matches, err = s.matchRepo.ListByTournament(gctx, nil, tournamentID, repositories.MatchFilter{})
		return err
	})
	g.Go(func() error {
		var err error
		snap.prelimConfig, err = findConfig(gctx, s.configRepo, nil, tournamentID, models.Preliminary)
		return err
	})
	g.Go(func() error {
		var err error
		snap.mainConfig, err = findConfig(gctx, s.configRepo, nil, tournamentID, models.MustPrincipal(1))
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return snap, nil
}

func teamIDs(teams []models.Team) []int {
	ids := make([]int, len(teams))
	for i, t := range teams {
		ids[i] = t.ID
	}
	return ids
}
