package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/keimalab/keima-server/internal/config"
	"github.com/keimalab/keima-server/internal/domain"
	"github.com/keimalab/keima-server/internal/repository"
	"github.com/keimalab/keima-server/internal/service"
	"github.com/keimalab/keima-server/internal/ws"
)

// RaceHandler serves the race state snapshot and the admin lifecycle
// endpoints (open, close, advance, result, settle).
type RaceHandler struct {
	raceSvc    *service.RaceService
	settleSvc  *service.SettlementService
	resultRepo *repository.ResultRepository
	cfg        *config.Config
	hub        *ws.Hub
}

// NewRaceHandler creates a RaceHandler. hub may be nil in tests.
func NewRaceHandler(
	raceSvc *service.RaceService,
	settleSvc *service.SettlementService,
	resultRepo *repository.ResultRepository,
	cfg *config.Config,
	hub *ws.Hub,
) *RaceHandler {
	return &RaceHandler{
		raceSvc:    raceSvc,
		settleSvc:  settleSvc,
		resultRepo: resultRepo,
		cfg:        cfg,
		hub:        hub,
	}
}

// raceStateBody is the JSON shape of a race state snapshot.
func raceStateBody(state domain.RaceState) gin.H {
	return gin.H{
		"race_id":     state.RaceID,
		"ticket_buy":  state.TicketBuy,
		"ticket_paid": state.TicketPaid,
		"phase":       state.Phase(),
	}
}

// GetRace godoc
// GET /api/race
func (h *RaceHandler) GetRace(c *gin.Context) {
	respondSuccess(c, http.StatusOK, raceStateBody(h.raceSvc.Current()))
}

// Open godoc
// POST /api/admin/race/open
// Body: {"race_id":3}
func (h *RaceHandler) Open(c *gin.Context) {
	var body struct {
		RaceID *int64 `json:"race_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		respondError(c, http.StatusBadRequest, "ERR_VALIDATION", err.Error())
		return
	}
	if *body.RaceID < 0 {
		respondError(c, http.StatusBadRequest, "ERR_VALIDATION", "race_id must be non-negative")
		return
	}

	state := h.raceSvc.Open(*body.RaceID)
	if h.hub != nil {
		h.hub.BroadcastRaceOpened(ws.RaceOpenedMessage{
			Type:      ws.MsgTypeRaceOpened,
			RaceID:    state.RaceID,
			Timestamp: time.Now().UTC(),
		})
	}
	respondSuccess(c, http.StatusOK, raceStateBody(state))
}

// Close godoc
// POST /api/admin/race/close
func (h *RaceHandler) Close(c *gin.Context) {
	state, err := h.raceSvc.Close()
	if err != nil {
		respondError(c, http.StatusConflict, "ERR_INVALID_TRANSITION", err.Error())
		return
	}
	if h.hub != nil {
		h.hub.BroadcastRaceClosed(ws.RaceClosedMessage{
			Type:      ws.MsgTypeRaceClosed,
			RaceID:    state.RaceID,
			Timestamp: time.Now().UTC(),
		})
	}
	respondSuccess(c, http.StatusOK, raceStateBody(state))
}

// Advance godoc
// POST /api/admin/race/advance
// Body: {"race_id":4}
func (h *RaceHandler) Advance(c *gin.Context) {
	var body struct {
		RaceID *int64 `json:"race_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		respondError(c, http.StatusBadRequest, "ERR_VALIDATION", err.Error())
		return
	}
	if *body.RaceID < 0 {
		respondError(c, http.StatusBadRequest, "ERR_VALIDATION", "race_id must be non-negative")
		return
	}

	state, err := h.raceSvc.Advance(*body.RaceID)
	if err != nil {
		respondError(c, http.StatusConflict, "ERR_INVALID_TRANSITION", err.Error())
		return
	}
	respondSuccess(c, http.StatusOK, raceStateBody(state))
}

// PostResult godoc
// POST /api/admin/result
// Body: {"result":[2,1,4,3]} — full finishing order for the current race.
func (h *RaceHandler) PostResult(c *gin.Context) {
	var body struct {
		Result []int `json:"result" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		respondError(c, http.StatusBadRequest, "ERR_VALIDATION", err.Error())
		return
	}
	if err := domain.ValidateResult(body.Result, h.cfg.Game.PlayerCount); err != nil {
		respondError(c, http.StatusBadRequest, "ERR_VALIDATION", err.Error())
		return
	}

	state := h.raceSvc.Current()
	if state.TicketBuy {
		respondError(c, http.StatusConflict, "ERR_PURCHASE_STILL_OPEN", domain.ErrPurchaseStillOpen.Error())
		return
	}

	if err := h.resultRepo.Save(c.Request.Context(), state.RaceID, body.Result); err != nil {
		if errors.Is(err, domain.ErrResultExists) {
			respondError(c, http.StatusConflict, "ERR_RESULT_EXISTS", err.Error())
			return
		}
		respondError(c, http.StatusInternalServerError, "ERR_INTERNAL", "could not save result")
		return
	}
	respondSuccess(c, http.StatusCreated, gin.H{
		"race_id": state.RaceID,
		"result":  body.Result,
	})
}

// Settle godoc
// POST /api/admin/settle
// Body: {"race_id":3}
func (h *RaceHandler) Settle(c *gin.Context) {
	var body struct {
		RaceID *int64 `json:"race_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		respondError(c, http.StatusBadRequest, "ERR_VALIDATION", err.Error())
		return
	}

	balances, err := h.settleSvc.Settle(c.Request.Context(), *body.RaceID)
	if err != nil {
		switch {
		case domain.IsNotFound(err):
			respondError(c, http.StatusNotFound, "ERR_RESULT_NOT_FOUND", err.Error())
		case domain.IsConflict(err):
			respondError(c, http.StatusConflict, "ERR_SETTLEMENT_CONFLICT", err.Error())
		default:
			respondError(c, http.StatusInternalServerError, "ERR_INTERNAL", "could not settle race")
		}
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{
		"race_id":  *body.RaceID,
		"balances": balances,
	})
}
