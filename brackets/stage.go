package brackets

import (
	"github.com/Dosada05/belote-manager/models"
)

type Stage string

const (
	StageNotStarted              Stage = "not_started"
	StageNeedsPreliminaries      Stage = "needs_preliminaries"
	StagePreliminariesInProgress Stage = "preliminaries_in_progress"
	StageNeedsMainRound          Stage = "needs_main_round"
	StageMainRoundInProgress     Stage = "main_round_in_progress"
	StageAllRoundsComplete       Stage = "all_rounds_complete"
	StageCompleted               Stage = "completed"
)

type Action string

const (
	ActionNone                  Action = "none"
	ActionStartTournament       Action = "start_tournament"
	ActionGeneratePreliminaries Action = "generate_preliminaries"
	ActionEnterResults          Action = "enter_results"
	ActionProposeMainRound      Action = "propose_main_round"
	ActionCompleteTournament    Action = "complete_tournament"
)

const defaultMaxRounds = 1

type StageInput struct {
	Tournament models.Tournament
	Teams      []models.Team
	Matches    []models.Match
	MainConfig *models.MatchConfig // principal_1, may be nil
}

// StageDescriptor tells where a tournament is and what may happen next.
// Round is set for the main-round stages only.
type StageDescriptor struct {
	Stage           Stage  `json:"stage"`
	Action          Action `json:"action"`
	Round           int    `json:"round,omitempty"`
	RoundsCompleted int    `json:"rounds_completed"`
	MaxRounds       int    `json:"max_rounds"`

	TeamsWithoutPreliminaries []int `json:"teams_without_preliminaries,omitempty"`
	PendingMatchIDs           []int `json:"pending_match_ids,omitempty"`
	EligibleTeamIDs           []int `json:"eligible_team_ids,omitempty"`
}

// NextMatchType is the match type the next proposal would be confirmed as.
func (d StageDescriptor) NextMatchType() (models.MatchType, bool) {
	switch d.Stage {
	case StageNeedsPreliminaries:
		return models.Preliminary, true
	case StageNeedsMainRound:
		return models.MustPrincipal(d.Round), true
	}
	return models.MatchType{}, false
}

// DetermineStage derives the lifecycle stage from stored data only.
func DetermineStage(in StageInput) StageDescriptor {
	maxRounds := defaultMaxRounds
	if limit := in.MainConfig.Limit(); limit > 0 {
		maxRounds = limit
	}
	desc := StageDescriptor{MaxRounds: maxRounds}

	switch in.Tournament.Status {
	case models.StatusCompleted:
		desc.Stage, desc.Action = StageCompleted, ActionNone
		return desc
	case models.StatusUpcoming:
		desc.Stage, desc.Action = StageNotStarted, ActionStartTournament
		return desc
	}

	prelimCount := make(map[int]int, len(in.Teams))
	mainCount := make(map[int]int, len(in.Teams))
	var pendingPrelims []int
	for i := range in.Matches {
		m := &in.Matches[i]
		switch {
		case m.MatchType.IsPreliminary():
			prelimCount[m.TeamAID]++
			prelimCount[m.TeamBID]++
			if !m.IsDecided() {
				pendingPrelims = append(pendingPrelims, m.ID)
			}
		case m.IsDecided():
			// A main-round match counts as played once it has a winner.
			mainCount[m.TeamAID]++
			mainCount[m.TeamBID]++
		}
	}

	for _, t := range in.Teams {
		if prelimCount[t.ID] == 0 {
			desc.TeamsWithoutPreliminaries = append(desc.TeamsWithoutPreliminaries, t.ID)
		}
	}
	if len(in.Teams) == 0 || len(desc.TeamsWithoutPreliminaries) > 0 {
		desc.Stage, desc.Action = StageNeedsPreliminaries, ActionGeneratePreliminaries
		return desc
	}

	if len(pendingPrelims) > 0 {
		desc.Stage, desc.Action = StagePreliminariesInProgress, ActionEnterResults
		desc.PendingMatchIDs = pendingPrelims
		return desc
	}

	roundsCompleted := -1
	for _, t := range in.Teams {
		if roundsCompleted < 0 || mainCount[t.ID] < roundsCompleted {
			roundsCompleted = mainCount[t.ID]
		}
	}
	desc.RoundsCompleted = roundsCompleted

	if roundsCompleted >= maxRounds {
		desc.Stage, desc.Action = StageAllRoundsComplete, ActionCompleteTournament
		return desc
	}

	current := roundsCompleted + 1
	var currentRoundSize int
	var pending []int
	for i := range in.Matches {
		m := &in.Matches[i]
		if m.MatchType.Round() != current {
			continue
		}
		currentRoundSize++
		if !m.IsDecided() {
			pending = append(pending, m.ID)
		}
	}
	if len(pending) > 0 {
		desc.Stage, desc.Action, desc.Round = StageMainRoundInProgress, ActionEnterResults, current
		desc.PendingMatchIDs = pending
		return desc
	}

	// A decided current round means the lagging teams were left out of it,
	// so they are proposed for the round after.
	next := current
	if currentRoundSize > 0 {
		next = current + 1
	}
	desc.Stage, desc.Action, desc.Round = StageNeedsMainRound, ActionProposeMainRound, next
	for _, t := range in.Teams {
		if mainCount[t.ID] == roundsCompleted {
			desc.EligibleTeamIDs = append(desc.EligibleTeamIDs, t.ID)
		}
	}
	return desc
}
