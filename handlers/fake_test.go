package handlers

import (
	"context"

	"github.com/Dosada05/belote-manager/brackets"
	"github.com/Dosada05/belote-manager/models"
	"github.com/Dosada05/belote-manager/services"
)

// ------------------------
// Fake Round Service
// ------------------------

type FakeRoundService struct {
	trace []string

	GeneratePreliminaryRoundFunc func(ctx context.Context, tournamentID int) (*services.GenerationResult, error)
	GenerateMainRoundFunc        func(ctx context.Context, tournamentID int) (*services.GenerationResult, error)
	ComputeStandingsFunc         func(ctx context.Context, tournamentID int) ([]brackets.RankedTeam, error)
	ComputeStageFunc             func(ctx context.Context, tournamentID int) (*brackets.StageDescriptor, error)
	ProposePairsFunc             func(ctx context.Context, tournamentID int) (*services.Proposal, error)
	ConfirmPairsFunc             func(ctx context.Context, tournamentID int, matchType models.MatchType, pairs []brackets.Pair) (*services.GenerationResult, error)
}

func NewFakeRoundService() *FakeRoundService {
	return &FakeRoundService{trace: []string{}}
}

func (f *FakeRoundService) record(step string) { f.trace = append(f.trace, step) }

func (f *FakeRoundService) Trace() []string { return f.trace }

func (f *FakeRoundService) GeneratePreliminaryRound(ctx context.Context, tournamentID int) (*services.GenerationResult, error) {
	f.record("GeneratePreliminaryRound")
	if f.GeneratePreliminaryRoundFunc != nil {
		return f.GeneratePreliminaryRoundFunc(ctx, tournamentID)
	}
	return &services.GenerationResult{MatchType: models.Preliminary}, nil
}

func (f *FakeRoundService) GenerateMainRound(ctx context.Context, tournamentID int) (*services.GenerationResult, error) {
	f.record("GenerateMainRound")
	if f.GenerateMainRoundFunc != nil {
		return f.GenerateMainRoundFunc(ctx, tournamentID)
	}
	return &services.GenerationResult{MatchType: models.MustPrincipal(1)}, nil
}

func (f *FakeRoundService) ComputeStandings(ctx context.Context, tournamentID int) ([]brackets.RankedTeam, error) {
	f.record("ComputeStandings")
	if f.ComputeStandingsFunc != nil {
		return f.ComputeStandingsFunc(ctx, tournamentID)
	}
	return []brackets.RankedTeam{}, nil
}

func (f *FakeRoundService) ComputeStage(ctx context.Context, tournamentID int) (*brackets.StageDescriptor, error) {
	f.record("ComputeStage")
	if f.ComputeStageFunc != nil {
		return f.ComputeStageFunc(ctx, tournamentID)
	}
	return &brackets.StageDescriptor{}, nil
}

func (f *FakeRoundService) ProposePairs(ctx context.Context, tournamentID int) (*services.Proposal, error) {
	f.record("ProposePairs")
	if f.ProposePairsFunc != nil {
		return f.ProposePairsFunc(ctx, tournamentID)
	}
	return &services.Proposal{}, nil
}

func (f *FakeRoundService) ConfirmPairs(ctx context.Context, tournamentID int, matchType models.MatchType, pairs []brackets.Pair) (*services.GenerationResult, error) {
	f.record("ConfirmPairs")
	if f.ConfirmPairsFunc != nil {
		return f.ConfirmPairsFunc(ctx, tournamentID, matchType, pairs)
	}
	return &services.GenerationResult{MatchType: matchType, CreatedCount: len(pairs)}, nil
}

// ------------------------
// Fake Tournament Service
// ------------------------

type FakeTournamentService struct {
	trace []string

	CreateFunc        func(ctx context.Context, input services.CreateTournamentInput) (*models.Tournament, error)
	GetByIDFunc       func(ctx context.Context, id int) (*models.Tournament, error)
	ListFunc          func(ctx context.Context, input services.ListTournamentsInput) ([]models.Tournament, error)
	UpdateDetailsFunc func(ctx context.Context, id int, input services.UpdateTournamentInput) (*models.Tournament, error)
	UpdateStatusFunc  func(ctx context.Context, id int, status models.TournamentStatus) (*models.Tournament, error)
	StartFunc         func(ctx context.Context, id int) (*models.Tournament, error)
	CompleteFunc      func(ctx context.Context, id int) (*services.CompletionResult, error)
	DeleteFunc        func(ctx context.Context, id int) error
}

func NewFakeTournamentService() *FakeTournamentService {
	return &FakeTournamentService{trace: []string{}}
}

func (f *FakeTournamentService) record(step string) { f.trace = append(f.trace, step) }

func (f *FakeTournamentService) Trace() []string { return f.trace }

func (f *FakeTournamentService) Create(ctx context.Context, input services.CreateTournamentInput) (*models.Tournament, error) {
	f.record("Create")
	if f.CreateFunc != nil {
		return f.CreateFunc(ctx, input)
	}
	return &models.Tournament{ID: 1, Name: input.Name, Date: input.Date, Status: models.StatusUpcoming}, nil
}

func (f *FakeTournamentService) GetByID(ctx context.Context, id int) (*models.Tournament, error) {
	f.record("GetByID")
	if f.GetByIDFunc != nil {
		return f.GetByIDFunc(ctx, id)
	}
	return &models.Tournament{ID: id}, nil
}

func (f *FakeTournamentService) List(ctx context.Context, input services.ListTournamentsInput) ([]models.Tournament, error) {
	f.record("List")
	if f.ListFunc != nil {
		return f.ListFunc(ctx, input)
	}
	return []models.Tournament{}, nil
}

func (f *FakeTournamentService) UpdateDetails(ctx context.Context, id int, input services.UpdateTournamentInput) (*models.Tournament, error) {
	f.record("UpdateDetails")
	if f.UpdateDetailsFunc != nil {
		return f.UpdateDetailsFunc(ctx, id, input)
	}
	return &models.Tournament{ID: id}, nil
}

func (f *FakeTournamentService) UpdateStatus(ctx context.Context, id int, status models.TournamentStatus) (*models.Tournament, error) {
	f.record("UpdateStatus")
	if f.UpdateStatusFunc != nil {
		return f.UpdateStatusFunc(ctx, id, status)
	}
	return &models.Tournament{ID: id, Status: status}, nil
}

func (f *FakeTournamentService) Start(ctx context.Context, id int) (*models.Tournament, error) {
	f.record("Start")
	if f.StartFunc != nil {
		return f.StartFunc(ctx, id)
	}
	return &models.Tournament{ID: id, Status: models.StatusInProgress}, nil
}

func (f *FakeTournamentService) Complete(ctx context.Context, id int) (*services.CompletionResult, error) {
	f.record("Complete")
	if f.CompleteFunc != nil {
		return f.CompleteFunc(ctx, id)
	}
	return &services.CompletionResult{Tournament: &models.Tournament{ID: id, Status: models.StatusCompleted}}, nil
}

func (f *FakeTournamentService) Delete(ctx context.Context, id int) error {
	f.record("Delete")
	if f.DeleteFunc != nil {
		return f.DeleteFunc(ctx, id)
	}
	return nil
}

// ------------------------
// Fake Match Service
// ------------------------

type FakeMatchService struct {
	trace []string

	ListByTournamentFunc func(ctx context.Context, tournamentID int, matchType *models.MatchType) ([]models.Match, error)
	GetByIDFunc          func(ctx context.Context, id int) (*models.Match, error)
	CreateFunc           func(ctx context.Context, tournamentID int, input services.CreateMatchInput) (*models.Match, error)
	RecordResultFunc     func(ctx context.Context, id int, input services.ResultInput) (*models.Match, error)
	DeleteFunc           func(ctx context.Context, id int) error
}

func NewFakeMatchService() *FakeMatchService {
	return &FakeMatchService{trace: []string{}}
}

func (f *FakeMatchService) record(step string) { f.trace = append(f.trace, step) }

func (f *FakeMatchService) Trace() []string { return f.trace }

func (f *FakeMatchService) ListByTournament(ctx context.Context, tournamentID int, matchType *models.MatchType) ([]models.Match, error) {
	f.record("ListByTournament")
	if f.ListByTournamentFunc != nil {
		return f.ListByTournamentFunc(ctx, tournamentID, matchType)
	}
	return []models.Match{}, nil
}

func (f *FakeMatchService) GetByID(ctx context.Context, id int) (*models.Match, error) {
	f.record("GetByID")
	if f.GetByIDFunc != nil {
		return f.GetByIDFunc(ctx, id)
	}
	return &models.Match{ID: id}, nil
}

func (f *FakeMatchService) Create(ctx context.Context, tournamentID int, input services.CreateMatchInput) (*models.Match, error) {
	f.record("Create")
	if f.CreateFunc != nil {
		return f.CreateFunc(ctx, tournamentID, input)
	}
	return &models.Match{ID: 1, TournamentID: tournamentID, MatchType: input.MatchType, TeamAID: input.TeamAID, TeamBID: input.TeamBID}, nil
}

func (f *FakeMatchService) RecordResult(ctx context.Context, id int, input services.ResultInput) (*models.Match, error) {
	f.record("RecordResult")
	if f.RecordResultFunc != nil {
		return f.RecordResultFunc(ctx, id, input)
	}
	return &models.Match{ID: id, ScoreA: input.ScoreA, ScoreB: input.ScoreB, WinnerID: input.WinnerID}, nil
}

func (f *FakeMatchService) Delete(ctx context.Context, id int) error {
	f.record("Delete")
	if f.DeleteFunc != nil {
		return f.DeleteFunc(ctx, id)
	}
	return nil
}

// ------------------------
// Fake Team Service
// ------------------------

type FakeTeamService struct {
	trace []string

	CreateFunc  func(ctx context.Context, input services.TeamInput) (*models.Team, error)
	GetByIDFunc func(ctx context.Context, id int) (*models.Team, error)
	ListFunc    func(ctx context.Context) ([]models.Team, error)
	UpdateFunc  func(ctx context.Context, id int, input services.TeamInput) (*models.Team, error)
	DeleteFunc  func(ctx context.Context, id int) error
}

func NewFakeTeamService() *FakeTeamService {
	return &FakeTeamService{trace: []string{}}
}

func (f *FakeTeamService) record(step string) { f.trace = append(f.trace, step) }

func (f *FakeTeamService) Trace() []string { return f.trace }

func (f *FakeTeamService) Create(ctx context.Context, input services.TeamInput) (*models.Team, error) {
	f.record("Create")
	if f.CreateFunc != nil {
		return f.CreateFunc(ctx, input)
	}
	return &models.Team{ID: 1, Name: input.Name, Player1: input.Player1, Player2: input.Player2}, nil
}

func (f *FakeTeamService) GetByID(ctx context.Context, id int) (*models.Team, error) {
	f.record("GetByID")
	if f.GetByIDFunc != nil {
		return f.GetByIDFunc(ctx, id)
	}
	return &models.Team{ID: id}, nil
}

func (f *FakeTeamService) List(ctx context.Context) ([]models.Team, error) {
	f.record("List")
	if f.ListFunc != nil {
		return f.ListFunc(ctx)
	}
	return []models.Team{}, nil
}

func (f *FakeTeamService) Update(ctx context.Context, id int, input services.TeamInput) (*models.Team, error) {
	f.record("Update")
	if f.UpdateFunc != nil {
		return f.UpdateFunc(ctx, id, input)
	}
	return &models.Team{ID: id, Name: input.Name}, nil
}

func (f *FakeTeamService) Delete(ctx context.Context, id int) error {
	f.record("Delete")
	if f.DeleteFunc != nil {
		return f.DeleteFunc(ctx, id)
	}
	return nil
}
