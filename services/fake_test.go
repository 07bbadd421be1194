package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Dosada05/belote-manager/brackets"
	"github.com/Dosada05/belote-manager/models"
	"github.com/Dosada05/belote-manager/repositories"
	"github.com/Dosada05/belote-manager/storage"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// ------------------------
// In-memory store backing every fake repository
// ------------------------

type statsKey struct{ teamID, tournamentID int }

type configKey struct {
	tournamentID int
	matchType    models.MatchType
}

type storeState struct {
	nextID        int
	teams         map[int]models.Team
	tournaments   map[int]models.Tournament
	registrations []models.Registration
	configs       map[configKey]models.MatchConfig
	matches       map[int]models.Match
	stats         map[statsKey]models.TeamTournamentStats
}

func (s storeState) clone() storeState {
	c := storeState{
		nextID:        s.nextID,
		teams:         make(map[int]models.Team, len(s.teams)),
		tournaments:   make(map[int]models.Tournament, len(s.tournaments)),
		registrations: append([]models.Registration(nil), s.registrations...),
		configs:       make(map[configKey]models.MatchConfig, len(s.configs)),
		matches:       make(map[int]models.Match, len(s.matches)),
		stats:         make(map[statsKey]models.TeamTournamentStats, len(s.stats)),
	}
	for k, v := range s.teams {
		c.teams[k] = v
	}
	for k, v := range s.tournaments {
		c.tournaments[k] = v
	}
	for k, v := range s.configs {
		c.configs[k] = v
	}
	for k, v := range s.matches {
		c.matches[k] = v
	}
	for k, v := range s.stats {
		c.stats[k] = v
	}
	return c
}

type memStore struct {
	mu    sync.Mutex
	trace []string
	state storeState

	// FailFunc, when set, can make any recorded step fail.
	FailFunc func(step string) error
}

func newMemStore() *memStore {
	return &memStore{state: storeState{
		nextID:      1,
		teams:       map[int]models.Team{},
		tournaments: map[int]models.Tournament{},
		configs:     map[configKey]models.MatchConfig{},
		matches:     map[int]models.Match{},
		stats:       map[statsKey]models.TeamTournamentStats{},
	}}
}

// record must be called with mu held.
func (s *memStore) record(step string) error {
	s.trace = append(s.trace, step)
	if s.FailFunc != nil {
		return s.FailFunc(step)
	}
	return nil
}

func (s *memStore) Trace() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.trace...)
}

func (s *memStore) ResetTrace() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.trace = nil
}

var mutatingSteps = []string{
	".Create", ".Update", ".Delete", ".Replace", ".Reset", ".Ensure", ".Upsert",
}

// Mutations returns the recorded steps that write.
func (s *memStore) Mutations() []string {
	var out []string
	for _, step := range s.Trace() {
		for _, m := range mutatingSteps {
			if strings.Contains(step, m) {
				out = append(out, step)
				break
			}
		}
	}
	return out
}

func (s *memStore) id() int {
	id := s.state.nextID
	s.state.nextID++
	return id
}

func (s *memStore) isRegistered(tournamentID, teamID int) bool {
	for _, r := range s.state.registrations {
		if r.TournamentID == tournamentID && r.TeamID == teamID {
			return true
		}
	}
	return false
}

// --- seeding helpers for tests ---

func (s *memStore) addTeam(name string) models.Team {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := models.Team{ID: s.id(), Name: name, Player1: name + " one", Player2: name + " two", CreatedAt: time.Now()}
	s.state.teams[t.ID] = t
	return t
}

func (s *memStore) addTournament(status models.TournamentStatus) models.Tournament {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := models.Tournament{ID: s.id(), Name: fmt.Sprintf("Cup %d", s.state.nextID), Date: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), Status: status}
	s.state.tournaments[t.ID] = t
	for _, cfg := range defaultMatchConfigs(t.ID) {
		cfg.ID = s.id()
		s.state.configs[configKey{t.ID, cfg.MatchType}] = cfg
	}
	return t
}

func (s *memStore) register(tournamentID int, teams ...models.Team) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range teams {
		s.state.registrations = append(s.state.registrations, models.Registration{
			TeamID: t.ID, TournamentID: tournamentID, RegistrationDate: time.Now(),
		})
		key := statsKey{t.ID, tournamentID}
		if _, ok := s.state.stats[key]; !ok {
			s.state.stats[key] = models.TeamTournamentStats{TeamID: t.ID, TournamentID: tournamentID}
		}
	}
}

func (s *memStore) setConfig(cfg models.MatchConfig) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.configs[configKey{cfg.TournamentID, cfg.MatchType}] = cfg
}

func (s *memStore) addMatch(m models.Match) models.Match {
	s.mu.Lock()
	defer s.mu.Unlock()
	m.ID = s.id()
	s.state.matches[m.ID] = m
	return m
}

func (s *memStore) setStats(st models.TeamTournamentStats) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.stats[statsKey{st.TeamID, st.TournamentID}] = st
}

func (s *memStore) matchesOf(tournamentID int) []models.Match {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sortedMatches(tournamentID, nil)
}

func (s *memStore) statsOf(teamID, tournamentID int) (models.TeamTournamentStats, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.state.stats[statsKey{teamID, tournamentID}]
	return st, ok
}

func (s *memStore) tournament(id int) models.Tournament {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.tournaments[id]
}

func (s *memStore) config(tournamentID int, mt models.MatchType) (models.MatchConfig, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cfg, ok := s.state.configs[configKey{tournamentID, mt}]
	return cfg, ok
}

func (s *memStore) sortedMatches(tournamentID int, keep func(models.Match) bool) []models.Match {
	var out []models.Match
	for _, m := range s.state.matches {
		if m.TournamentID == tournamentID && (keep == nil || keep(m)) {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// ------------------------
// Fake TxManager: rolls the store back when fn fails
// ------------------------

type fakeTxManager struct{ store *memStore }

func (f fakeTxManager) WithinTx(ctx context.Context, fn func(exec repositories.SQLExecutor) error) error {
	f.store.mu.Lock()
	if err := f.store.record("Tx.Begin"); err != nil {
		f.store.mu.Unlock()
		return err
	}
	snapshot := f.store.state.clone()
	f.store.mu.Unlock()

	if err := fn(nil); err != nil {
		f.store.mu.Lock()
		f.store.state = snapshot
		f.store.trace = append(f.store.trace, "Tx.Rollback")
		f.store.mu.Unlock()
		return err
	}

	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	return f.store.record("Tx.Commit")
}

// ------------------------
// Fake repositories
// ------------------------

type fakeTeamRepo struct{ s *memStore }

func (r fakeTeamRepo) Create(ctx context.Context, team *models.Team) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.record("Team.Create"); err != nil {
		return err
	}
	for _, t := range r.s.state.teams {
		if strings.EqualFold(t.Name, team.Name) {
			return repositories.ErrTeamNameConflict
		}
	}
	team.ID = r.s.id()
	team.CreatedAt = time.Now()
	r.s.state.teams[team.ID] = *team
	return nil
}

func (r fakeTeamRepo) GetByID(ctx context.Context, id int) (*models.Team, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.record("Team.GetByID"); err != nil {
		return nil, err
	}
	t, ok := r.s.state.teams[id]
	if !ok {
		return nil, repositories.ErrTeamNotFound
	}
	return &t, nil
}

func (r fakeTeamRepo) List(ctx context.Context) ([]models.Team, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.record("Team.List"); err != nil {
		return nil, err
	}
	var out []models.Team
	for _, t := range r.s.state.teams {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r fakeTeamRepo) Update(ctx context.Context, team *models.Team) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.record("Team.Update"); err != nil {
		return err
	}
	if _, ok := r.s.state.teams[team.ID]; !ok {
		return repositories.ErrTeamNotFound
	}
	for _, t := range r.s.state.teams {
		if t.ID != team.ID && strings.EqualFold(t.Name, team.Name) {
			return repositories.ErrTeamNameConflict
		}
	}
	r.s.state.teams[team.ID] = *team
	return nil
}

func (r fakeTeamRepo) Delete(ctx context.Context, id int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.record("Team.Delete"); err != nil {
		return err
	}
	if _, ok := r.s.state.teams[id]; !ok {
		return repositories.ErrTeamNotFound
	}
	for _, reg := range r.s.state.registrations {
		if reg.TeamID == id {
			return repositories.ErrTeamInUse
		}
	}
	delete(r.s.state.teams, id)
	return nil
}

type fakeTournamentRepo struct{ s *memStore }

func (r fakeTournamentRepo) Create(ctx context.Context, exec repositories.SQLExecutor, t *models.Tournament) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.record("Tournament.Create"); err != nil {
		return err
	}
	t.ID = r.s.id()
	t.CreatedAt = time.Now()
	stored := *t
	stored.Teams, stored.Configs = nil, nil
	r.s.state.tournaments[t.ID] = stored
	return nil
}

func (r fakeTournamentRepo) get(step string, id int) (*models.Tournament, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.record(step); err != nil {
		return nil, err
	}
	t, ok := r.s.state.tournaments[id]
	if !ok {
		return nil, repositories.ErrTournamentNotFound
	}
	return &t, nil
}

func (r fakeTournamentRepo) GetByID(ctx context.Context, exec repositories.SQLExecutor, id int) (*models.Tournament, error) {
	return r.get("Tournament.GetByID", id)
}

func (r fakeTournamentRepo) GetForUpdate(ctx context.Context, exec repositories.SQLExecutor, id int) (*models.Tournament, error) {
	return r.get("Tournament.GetForUpdate", id)
}

func (r fakeTournamentRepo) List(ctx context.Context, filter repositories.ListTournamentsFilter) ([]models.Tournament, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.record("Tournament.List"); err != nil {
		return nil, err
	}
	var out []models.Tournament
	for _, t := range r.s.state.tournaments {
		if filter.Status == nil || t.Status == *filter.Status {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if filter.Offset >= len(out) {
		return nil, nil
	}
	out = out[filter.Offset:]
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (r fakeTournamentRepo) Update(ctx context.Context, exec repositories.SQLExecutor, t *models.Tournament) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.record("Tournament.Update"); err != nil {
		return err
	}
	stored, ok := r.s.state.tournaments[t.ID]
	if !ok {
		return repositories.ErrTournamentNotFound
	}
	stored.Name, stored.Date = t.Name, t.Date
	r.s.state.tournaments[t.ID] = stored
	return nil
}

func (r fakeTournamentRepo) UpdateStatus(ctx context.Context, exec repositories.SQLExecutor, id int, status models.TournamentStatus) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.record("Tournament.UpdateStatus"); err != nil {
		return err
	}
	stored, ok := r.s.state.tournaments[id]
	if !ok {
		return repositories.ErrTournamentNotFound
	}
	stored.Status = status
	r.s.state.tournaments[id] = stored
	return nil
}

func (r fakeTournamentRepo) Delete(ctx context.Context, id int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.record("Tournament.Delete"); err != nil {
		return err
	}
	if _, ok := r.s.state.tournaments[id]; !ok {
		return repositories.ErrTournamentNotFound
	}
	delete(r.s.state.tournaments, id)
	regs := r.s.state.registrations[:0]
	for _, reg := range r.s.state.registrations {
		if reg.TournamentID != id {
			regs = append(regs, reg)
		}
	}
	r.s.state.registrations = regs
	for k := range r.s.state.configs {
		if k.tournamentID == id {
			delete(r.s.state.configs, k)
		}
	}
	for k, m := range r.s.state.matches {
		if m.TournamentID == id {
			delete(r.s.state.matches, k)
		}
	}
	for k := range r.s.state.stats {
		if k.tournamentID == id {
			delete(r.s.state.stats, k)
		}
	}
	return nil
}

type fakeRegistrationRepo struct{ s *memStore }

func (r fakeRegistrationRepo) Create(ctx context.Context, exec repositories.SQLExecutor, reg *models.Registration) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.record("Registration.Create"); err != nil {
		return err
	}
	if _, ok := r.s.state.tournaments[reg.TournamentID]; !ok {
		return repositories.ErrRegistrationTeamInvalid
	}
	if _, ok := r.s.state.teams[reg.TeamID]; !ok {
		return repositories.ErrRegistrationTeamInvalid
	}
	if r.s.isRegistered(reg.TournamentID, reg.TeamID) {
		return repositories.ErrRegistrationConflict
	}
	reg.RegistrationDate = time.Now()
	r.s.state.registrations = append(r.s.state.registrations, *reg)
	return nil
}

func (r fakeRegistrationRepo) Get(ctx context.Context, exec repositories.SQLExecutor, tournamentID, teamID int) (*models.Registration, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.record("Registration.Get"); err != nil {
		return nil, err
	}
	for _, reg := range r.s.state.registrations {
		if reg.TournamentID == tournamentID && reg.TeamID == teamID {
			return &reg, nil
		}
	}
	return nil, repositories.ErrRegistrationNotFound
}

func (r fakeRegistrationRepo) ListTeams(ctx context.Context, exec repositories.SQLExecutor, tournamentID int) ([]models.Team, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.record("Registration.ListTeams"); err != nil {
		return nil, err
	}
	var out []models.Team
	for _, reg := range r.s.state.registrations {
		if reg.TournamentID == tournamentID {
			out = append(out, r.s.state.teams[reg.TeamID])
		}
	}
	return out, nil
}

func (r fakeRegistrationRepo) ListByTournament(ctx context.Context, tournamentID int) ([]models.Registration, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.record("Registration.ListByTournament"); err != nil {
		return nil, err
	}
	var out []models.Registration
	for _, reg := range r.s.state.registrations {
		if reg.TournamentID == tournamentID {
			team := r.s.state.teams[reg.TeamID]
			reg.Team = &team
			out = append(out, reg)
		}
	}
	return out, nil
}

func (r fakeRegistrationRepo) Delete(ctx context.Context, exec repositories.SQLExecutor, tournamentID, teamID int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.record("Registration.Delete"); err != nil {
		return err
	}
	for i, reg := range r.s.state.registrations {
		if reg.TournamentID == tournamentID && reg.TeamID == teamID {
			r.s.state.registrations = append(r.s.state.registrations[:i:i], r.s.state.registrations[i+1:]...)
			delete(r.s.state.stats, statsKey{teamID, tournamentID})
			return nil
		}
	}
	return repositories.ErrRegistrationNotFound
}

type fakeConfigRepo struct{ s *memStore }

func (r fakeConfigRepo) Create(ctx context.Context, exec repositories.SQLExecutor, cfg *models.MatchConfig) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.record("Config.Create"); err != nil {
		return err
	}
	if _, ok := r.s.state.tournaments[cfg.TournamentID]; !ok {
		return repositories.ErrMatchConfigInvalid
	}
	key := configKey{cfg.TournamentID, cfg.MatchType}
	if _, ok := r.s.state.configs[key]; ok {
		return repositories.ErrMatchConfigConflict
	}
	cfg.ID = r.s.id()
	r.s.state.configs[key] = *cfg
	return nil
}

func (r fakeConfigRepo) GetByType(ctx context.Context, exec repositories.SQLExecutor, tournamentID int, mt models.MatchType) (*models.MatchConfig, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.record("Config.GetByType"); err != nil {
		return nil, err
	}
	cfg, ok := r.s.state.configs[configKey{tournamentID, mt}]
	if !ok {
		return nil, repositories.ErrMatchConfigNotFound
	}
	return &cfg, nil
}

func (r fakeConfigRepo) ListByTournament(ctx context.Context, tournamentID int) ([]models.MatchConfig, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.record("Config.ListByTournament"); err != nil {
		return nil, err
	}
	var out []models.MatchConfig
	for k, cfg := range r.s.state.configs {
		if k.tournamentID == tournamentID {
			out = append(out, cfg)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MatchType.Round() < out[j].MatchType.Round() })
	return out, nil
}

func (r fakeConfigRepo) Update(ctx context.Context, exec repositories.SQLExecutor, cfg *models.MatchConfig) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.record("Config.Update"); err != nil {
		return err
	}
	key := configKey{cfg.TournamentID, cfg.MatchType}
	if _, ok := r.s.state.configs[key]; !ok {
		return repositories.ErrMatchConfigNotFound
	}
	r.s.state.configs[key] = *cfg
	return nil
}

func (r fakeConfigRepo) Delete(ctx context.Context, tournamentID int, mt models.MatchType) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.record("Config.Delete"); err != nil {
		return err
	}
	key := configKey{tournamentID, mt}
	if _, ok := r.s.state.configs[key]; !ok {
		return repositories.ErrMatchConfigNotFound
	}
	delete(r.s.state.configs, key)
	return nil
}

type fakeMatchRepo struct{ s *memStore }

// insert must be called with mu held.
func (r fakeMatchRepo) insert(m *models.Match) error {
	if m.TeamAID == m.TeamBID {
		return repositories.ErrMatchSelfPlay
	}
	if !r.s.isRegistered(m.TournamentID, m.TeamAID) || !r.s.isRegistered(m.TournamentID, m.TeamBID) {
		return repositories.ErrMatchTeamNotRegistered
	}
	m.ID = r.s.id()
	m.CreatedAt = time.Now()
	r.s.state.matches[m.ID] = *m
	return nil
}

func (r fakeMatchRepo) Create(ctx context.Context, exec repositories.SQLExecutor, m *models.Match) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.record("Match.Create"); err != nil {
		return err
	}
	return r.insert(m)
}

func (r fakeMatchRepo) GetByID(ctx context.Context, exec repositories.SQLExecutor, id int) (*models.Match, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.record("Match.GetByID"); err != nil {
		return nil, err
	}
	m, ok := r.s.state.matches[id]
	if !ok {
		return nil, repositories.ErrMatchNotFound
	}
	return &m, nil
}

func (r fakeMatchRepo) ListByTournament(ctx context.Context, exec repositories.SQLExecutor, tournamentID int, filter repositories.MatchFilter) ([]models.Match, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.record("Match.ListByTournament"); err != nil {
		return nil, err
	}
	return r.s.sortedMatches(tournamentID, func(m models.Match) bool {
		if filter.MatchType != nil && m.MatchType != *filter.MatchType {
			return false
		}
		return !filter.PrincipalOnly || m.MatchType.IsPrincipal()
	}), nil
}

func (r fakeMatchRepo) ReplaceMatches(ctx context.Context, exec repositories.SQLExecutor, tournamentID int, mt models.MatchType, matches []models.Match) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.record("Match.ReplaceMatches"); err != nil {
		return 0, err
	}
	for id, m := range r.s.state.matches {
		if m.TournamentID == tournamentID && m.MatchType == mt {
			delete(r.s.state.matches, id)
		}
	}
	for i := range matches {
		matches[i].TournamentID, matches[i].MatchType = tournamentID, mt
		if err := r.insert(&matches[i]); err != nil {
			return 0, err
		}
	}
	return len(matches), nil
}

func (r fakeMatchRepo) DeletePrincipal(ctx context.Context, exec repositories.SQLExecutor, tournamentID int) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.record("Match.DeletePrincipal"); err != nil {
		return 0, err
	}
	n := 0
	for id, m := range r.s.state.matches {
		if m.TournamentID == tournamentID && m.MatchType.IsPrincipal() {
			delete(r.s.state.matches, id)
			n++
		}
	}
	return n, nil
}

func (r fakeMatchRepo) UpdateResult(ctx context.Context, exec repositories.SQLExecutor, id int, scoreA, scoreB int, winnerID *int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.record("Match.UpdateResult"); err != nil {
		return err
	}
	m, ok := r.s.state.matches[id]
	if !ok {
		return repositories.ErrMatchNotFound
	}
	if winnerID != nil && !m.Involves(*winnerID) {
		return repositories.ErrMatchWinnerInvalid
	}
	m.ScoreA, m.ScoreB, m.WinnerID = scoreA, scoreB, winnerID
	r.s.state.matches[id] = m
	return nil
}

func (r fakeMatchRepo) Delete(ctx context.Context, exec repositories.SQLExecutor, id int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.record("Match.Delete"); err != nil {
		return err
	}
	if _, ok := r.s.state.matches[id]; !ok {
		return repositories.ErrMatchNotFound
	}
	delete(r.s.state.matches, id)
	return nil
}

func (r fakeMatchRepo) CountByTeam(ctx context.Context, exec repositories.SQLExecutor, tournamentID, teamID int) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.record("Match.CountByTeam"); err != nil {
		return 0, err
	}
	n := 0
	for _, m := range r.s.state.matches {
		if m.TournamentID == tournamentID && m.Involves(teamID) {
			n++
		}
	}
	return n, nil
}

type fakeStatsRepo struct{ s *memStore }

func (r fakeStatsRepo) EnsureRow(ctx context.Context, exec repositories.SQLExecutor, teamID, tournamentID int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.record("Stats.EnsureRow"); err != nil {
		return err
	}
	key := statsKey{teamID, tournamentID}
	if _, ok := r.s.state.stats[key]; !ok {
		r.s.state.stats[key] = models.TeamTournamentStats{TeamID: teamID, TournamentID: tournamentID}
	}
	return nil
}

func (r fakeStatsRepo) ResetPrelimPoints(ctx context.Context, exec repositories.SQLExecutor, tournamentID int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.record("Stats.ResetPrelimPoints"); err != nil {
		return err
	}
	for k, st := range r.s.state.stats {
		if k.tournamentID == tournamentID {
			st.PrelimPoints = 0
			r.s.state.stats[k] = st
		}
	}
	return nil
}

func (r fakeStatsRepo) ListByTournament(ctx context.Context, exec repositories.SQLExecutor, tournamentID int) ([]models.TeamTournamentStats, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.record("Stats.ListByTournament"); err != nil {
		return nil, err
	}
	var out []models.TeamTournamentStats
	for _, reg := range r.s.state.registrations {
		if reg.TournamentID != tournamentID {
			continue
		}
		if st, ok := r.s.state.stats[statsKey{reg.TeamID, tournamentID}]; ok {
			out = append(out, st)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].PrelimPoints > out[j].PrelimPoints })
	return out, nil
}

func (r fakeStatsRepo) Upsert(ctx context.Context, exec repositories.SQLExecutor, st *models.TeamTournamentStats) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.record("Stats.Upsert"); err != nil {
		return err
	}
	r.s.state.stats[statsKey{st.TeamID, st.TournamentID}] = *st
	return nil
}

// ------------------------
// Fake Notifier and uploader
// ------------------------

type publishedMessage struct {
	TournamentID int
	Type         string
	Payload      interface{}
}

type fakeNotifier struct {
	mu       sync.Mutex
	messages []publishedMessage
}

func (n *fakeNotifier) Publish(tournamentID int, messageType string, payload interface{}) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, publishedMessage{tournamentID, messageType, payload})
}

func (n *fakeNotifier) Types() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, len(n.messages))
	for i, m := range n.messages {
		out[i] = m.Type
	}
	return out
}

type FakeUploader struct {
	trace []string
	mu    sync.Mutex
	Files map[string][]byte

	UploadFunc func(ctx context.Context, key, contentType string, reader io.Reader) (*storage.UploadResult, error)
}

func newFakeUploader() *FakeUploader {
	return &FakeUploader{Files: map[string][]byte{}}
}

func (f *FakeUploader) Upload(ctx context.Context, key, contentType string, reader io.Reader) (*storage.UploadResult, error) {
	f.mu.Lock()
	f.trace = append(f.trace, "Upload")
	f.mu.Unlock()
	if f.UploadFunc != nil {
		return f.UploadFunc(ctx, key, contentType, reader)
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	f.Files[key] = data
	f.mu.Unlock()
	return &storage.UploadResult{Key: key, Location: f.GetPublicURL(key)}, nil
}

func (f *FakeUploader) Delete(ctx context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.trace = append(f.trace, "Delete")
	delete(f.Files, key)
	return nil
}

func (f *FakeUploader) GetPublicURL(key string) string {
	return "https://archive.example.com/" + key
}

// ------------------------
// Wiring
// ------------------------

type testEnv struct {
	store    *memStore
	notifier *fakeNotifier
	uploader *FakeUploader

	rounds        RoundService
	tournaments   TournamentService
	teams         TeamService
	registrations RegistrationService
	configs       MatchConfigService
	matches       MatchService
}

func newTestEnv(shuffler brackets.Shuffler) *testEnv {
	store := newMemStore()
	notifier := &fakeNotifier{}
	uploader := newFakeUploader()
	logger := discardLogger()

	tx := fakeTxManager{store}
	teamRepo := fakeTeamRepo{store}
	tournamentRepo := fakeTournamentRepo{store}
	registrationRepo := fakeRegistrationRepo{store}
	configRepo := fakeConfigRepo{store}
	matchRepo := fakeMatchRepo{store}
	statsRepo := fakeStatsRepo{store}

	rounds := NewRoundService(tx, tournamentRepo, registrationRepo, matchRepo, configRepo, statsRepo, shuffler, notifier, nil, logger)
	return &testEnv{
		store:         store,
		notifier:      notifier,
		uploader:      uploader,
		rounds:        rounds,
		tournaments:   NewTournamentService(tx, tournamentRepo, registrationRepo, configRepo, matchRepo, uploader, notifier, logger),
		teams:         NewTeamService(teamRepo, logger),
		registrations: NewRegistrationService(tx, tournamentRepo, teamRepo, registrationRepo, matchRepo, statsRepo, logger),
		configs:       NewMatchConfigService(tx, tournamentRepo, configRepo, logger),
		matches:       NewMatchService(tx, tournamentRepo, registrationRepo, matchRepo, statsRepo, notifier, nil, logger),
	}
}

// seedTournament creates a tournament with n registered teams, in order.
func (e *testEnv) seedTournament(status models.TournamentStatus, n int) (models.Tournament, []models.Team) {
	tournament := e.store.addTournament(status)
	teams := make([]models.Team, n)
	for i := range teams {
		teams[i] = e.store.addTeam(fmt.Sprintf("Team %c", 'A'+i))
	}
	e.store.register(tournament.ID, teams...)
	e.store.ResetTrace()
	return tournament, teams
}
