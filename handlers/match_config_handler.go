package handlers

import (
	"net/http"

	"github.com/Dosada05/belote-manager/services"
)

type MatchConfigHandler struct {
	configService services.MatchConfigService
}

func NewMatchConfigHandler(cs services.MatchConfigService) *MatchConfigHandler {
	return &MatchConfigHandler{configService: cs}
}

type updateMatchConfigRequest struct {
	IsEnabled  bool `json:"is_enabled"`
	MaxMatches *int `json:"max_matches"`
}

// ListMatchConfigs godoc
// @Summary List match configs of a tournament
// @Tags configs
// @Produce json
// @Param tournamentID path int true "Tournament ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]string
// @Router /tournaments/{tournamentID}/configs [get]
func (h *MatchConfigHandler) ListMatchConfigs(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	configs, err := h.configService.List(r.Context(), tournamentID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"configs": configs}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// GetMatchConfig godoc
// @Summary Get the config of one match type
// @Tags configs
// @Produce json
// @Param tournamentID path int true "Tournament ID"
// @Param matchType path string true "preliminaires or principal_N"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /tournaments/{tournamentID}/configs/{matchType} [get]
func (h *MatchConfigHandler) GetMatchConfig(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	matchType, err := getMatchTypeFromURL(r, "matchType")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	cfg, err := h.configService.Get(r.Context(), tournamentID, matchType)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"config": cfg}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// CreateMatchConfig godoc
// @Summary Add a config for a match type
// @Tags configs
// @Accept json
// @Produce json
// @Param tournamentID path int true "Tournament ID"
// @Param config body services.MatchConfigInput true "Config"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} map[string]string
// @Failure 409 {object} map[string]string "Config already exists"
// @Router /tournaments/{tournamentID}/configs [post]
func (h *MatchConfigHandler) CreateMatchConfig(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input services.MatchConfigInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	cfg, err := h.configService.Create(r.Context(), tournamentID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"config": cfg}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// UpdateMatchConfig godoc
// @Summary Replace is_enabled and max_matches of a config
// @Tags configs
// @Accept json
// @Produce json
// @Param tournamentID path int true "Tournament ID"
// @Param matchType path string true "preliminaires or principal_N"
// @Param config body updateMatchConfigRequest true "New values"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /tournaments/{tournamentID}/configs/{matchType} [put]
func (h *MatchConfigHandler) UpdateMatchConfig(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	matchType, err := getMatchTypeFromURL(r, "matchType")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var req updateMatchConfigRequest
	if err := readJSON(w, r, &req); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	cfg, err := h.configService.Update(r.Context(), tournamentID, services.MatchConfigInput{
		MatchType:  matchType,
		IsEnabled:  req.IsEnabled,
		MaxMatches: req.MaxMatches,
	})
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"config": cfg}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// DeleteMatchConfig godoc
// @Summary Delete an optional match config
// @Tags configs
// @Param tournamentID path int true "Tournament ID"
// @Param matchType path string true "principal_N with N >= 2"
// @Success 204
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string "Mandatory config"
// @Router /tournaments/{tournamentID}/configs/{matchType} [delete]
func (h *MatchConfigHandler) DeleteMatchConfig(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	matchType, err := getMatchTypeFromURL(r, "matchType")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.configService.Delete(r.Context(), tournamentID, matchType); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
