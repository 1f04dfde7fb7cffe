package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/keimalab/keima-server/internal/domain"
	"github.com/keimalab/keima-server/internal/repository"
)

// CoinsHandler serves balance lookups and the admin balance override.
type CoinsHandler struct {
	ledgerRepo *repository.LedgerRepository
}

// NewCoinsHandler creates a CoinsHandler.
func NewCoinsHandler(ledgerRepo *repository.LedgerRepository) *CoinsHandler {
	return &CoinsHandler{ledgerRepo: ledgerRepo}
}

// GetCoins godoc
// GET /api/coins?team=red&race_id=3
// Without race_id the latest balance is returned. Unknown teams read as 0.
func (h *CoinsHandler) GetCoins(c *gin.Context) {
	team := c.Query("team")
	if team == "" {
		respondError(c, http.StatusBadRequest, "ERR_VALIDATION", "team query parameter is required")
		return
	}

	var raceID *int64
	if raw := c.Query("race_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id < 0 {
			respondError(c, http.StatusBadRequest, "ERR_VALIDATION", "race_id must be a non-negative integer")
			return
		}
		raceID = &id
	}

	coins, err := h.ledgerRepo.GetCoins(c.Request.Context(), team, raceID)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "ERR_INTERNAL", "could not read balance")
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{
		"team_name": team,
		"coins":     coins,
	})
}

// History godoc
// GET /api/coins/history?team=red&limit=50&offset=0
// Balance entries newest first.
func (h *CoinsHandler) History(c *gin.Context) {
	team := c.Query("team")
	if team == "" {
		respondError(c, http.StatusBadRequest, "ERR_VALIDATION", "team query parameter is required")
		return
	}

	limit := 50
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 200 {
			respondError(c, http.StatusBadRequest, "ERR_VALIDATION", "limit must be between 1 and 200")
			return
		}
		limit = n
	}
	offset := 0
	if raw := c.Query("offset"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			respondError(c, http.StatusBadRequest, "ERR_VALIDATION", "offset must be non-negative")
			return
		}
		offset = n
	}

	entries, err := h.ledgerRepo.History(c.Request.Context(), team, limit, offset)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "ERR_INTERNAL", "could not read history")
		return
	}
	respondList(c, entries, len(entries))
}

// SetCoins godoc
// POST /api/admin/coins
// Body: {"team_name":"red","coins":100,"race_id":3}  (race_id optional)
func (h *CoinsHandler) SetCoins(c *gin.Context) {
	var body domain.SetCoinsRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		respondError(c, http.StatusBadRequest, "ERR_VALIDATION", err.Error())
		return
	}
	if body.TeamName == "" {
		respondError(c, http.StatusBadRequest, "ERR_VALIDATION", "team_name is required")
		return
	}
	if body.Coins < 0 {
		respondError(c, http.StatusBadRequest, "ERR_VALIDATION", "coins must be non-negative")
		return
	}
	if body.RaceID != nil && *body.RaceID < 0 {
		respondError(c, http.StatusBadRequest, "ERR_VALIDATION", "race_id must be non-negative")
		return
	}

	if err := h.ledgerRepo.SetCoins(c.Request.Context(), body.TeamName, body.Coins, body.RaceID); err != nil {
		respondError(c, http.StatusInternalServerError, "ERR_INTERNAL", "could not set balance")
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{
		"team_name": body.TeamName,
		"coins":     body.Coins,
	})
}
