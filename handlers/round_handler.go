package handlers

import (
	"errors"
	"net/http"

	"github.com/Dosada05/belote-manager/brackets"
	"github.com/Dosada05/belote-manager/models"
	"github.com/Dosada05/belote-manager/services"
)

type RoundHandler struct {
	roundService services.RoundService
}

func NewRoundHandler(rs services.RoundService) *RoundHandler {
	return &RoundHandler{roundService: rs}
}

type confirmPairsRequest struct {
	MatchType *models.MatchType `json:"match_type"`
	Pairs     []brackets.Pair   `json:"pairs"`
}

// GeneratePreliminaryRound godoc
// @Summary Generate the preliminary round-robin
// @Description Replaces every preliminary match and resets preliminary points.
// @Tags rounds
// @Produce json
// @Param tournamentID path int true "Tournament ID"
// @Success 201 {object} services.GenerationResult
// @Failure 404 {object} map[string]string
// @Failure 422 {object} map[string]string "Fewer than two teams"
// @Router /tournaments/{tournamentID}/rounds/preliminary [post]
func (h *RoundHandler) GeneratePreliminaryRound(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	result, err := h.roundService.GeneratePreliminaryRound(r.Context(), tournamentID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, result, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// GenerateMainRound godoc
// @Summary Generate principal_1 from preliminary points
// @Description Discards every main-round match and starts the tournament if it is upcoming.
// @Tags rounds
// @Produce json
// @Param tournamentID path int true "Tournament ID"
// @Success 201 {object} services.GenerationResult
// @Failure 404 {object} map[string]string
// @Failure 422 {object} map[string]string "Fewer than two teams"
// @Router /tournaments/{tournamentID}/rounds/main [post]
func (h *RoundHandler) GenerateMainRound(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	result, err := h.roundService.GenerateMainRound(r.Context(), tournamentID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, result, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ProposePairs godoc
// @Summary Suggest the pairs of the next round without saving them
// @Tags rounds
// @Produce json
// @Param tournamentID path int true "Tournament ID"
// @Success 200 {object} services.Proposal
// @Failure 400 {object} map[string]string "Nothing to propose at this stage"
// @Failure 404 {object} map[string]string
// @Router /tournaments/{tournamentID}/rounds/proposal [get]
func (h *RoundHandler) ProposePairs(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	proposal, err := h.roundService.ProposePairs(r.Context(), tournamentID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, proposal, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ConfirmPairs godoc
// @Summary Save pairs as the matches of a match type
// @Tags rounds
// @Accept json
// @Produce json
// @Param tournamentID path int true "Tournament ID"
// @Param pairs body confirmPairsRequest true "Match type and pairs"
// @Success 201 {object} services.GenerationResult
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /tournaments/{tournamentID}/rounds/confirm [post]
func (h *RoundHandler) ConfirmPairs(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var req confirmPairsRequest
	if err := readJSON(w, r, &req); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if req.MatchType == nil {
		badRequestResponse(w, r, errors.New("match_type is required"))
		return
	}

	result, err := h.roundService.ConfirmPairs(r.Context(), tournamentID, *req.MatchType, req.Pairs)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, result, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// GetStandings godoc
// @Summary Ranked standings
// @Tags rounds
// @Produce json
// @Param tournamentID path int true "Tournament ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]string
// @Router /tournaments/{tournamentID}/standings [get]
func (h *RoundHandler) GetStandings(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	standings, err := h.roundService.ComputeStandings(r.Context(), tournamentID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"standings": standings}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// GetStage godoc
// @Summary Current stage and next action
// @Tags rounds
// @Produce json
// @Param tournamentID path int true "Tournament ID"
// @Success 200 {object} brackets.StageDescriptor
// @Failure 404 {object} map[string]string
// @Router /tournaments/{tournamentID}/stage [get]
func (h *RoundHandler) GetStage(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	stage, err := h.roundService.ComputeStage(r.Context(), tournamentID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, stage, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
