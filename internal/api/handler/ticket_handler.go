package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/keimalab/keima-server/internal/domain"
	"github.com/keimalab/keima-server/internal/service"
)

// TicketHandler serves ticket purchase and listing endpoints.
type TicketHandler struct {
	ticketSvc *service.TicketService
	raceSvc   *service.RaceService
}

// NewTicketHandler creates a TicketHandler.
func NewTicketHandler(ticketSvc *service.TicketService, raceSvc *service.RaceService) *TicketHandler {
	return &TicketHandler{ticketSvc: ticketSvc, raceSvc: raceSvc}
}

// Buy godoc
// POST /api/tickets
// Body: {"team_name":"red","tickets":[{"ticket_type":"win","picks":[2],"unit":3}]}
func (h *TicketHandler) Buy(c *gin.Context) {
	var body struct {
		TeamName string                 `json:"team_name" binding:"required"`
		Tickets  []domain.TicketRequest `json:"tickets"   binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		respondError(c, http.StatusBadRequest, "ERR_VALIDATION", err.Error())
		return
	}

	receipt, err := h.ticketSvc.Buy(c.Request.Context(), body.TeamName, body.Tickets)
	if err != nil {
		switch {
		case domain.IsValidation(err):
			respondError(c, http.StatusBadRequest, "ERR_VALIDATION", err.Error())
		case errors.Is(err, domain.ErrInsufficientCoins):
			respondError(c, http.StatusPaymentRequired, "ERR_INSUFFICIENT_COINS", err.Error())
		case errors.Is(err, domain.ErrPurchaseClosed):
			respondError(c, http.StatusConflict, "ERR_PURCHASE_CLOSED", err.Error())
		default:
			respondError(c, http.StatusInternalServerError, "ERR_INTERNAL", "could not buy tickets")
		}
		return
	}
	respondSuccess(c, http.StatusCreated, receipt)
}

// List godoc
// GET /api/tickets?team=red&race_id=3
// race_id defaults to the current race.
func (h *TicketHandler) List(c *gin.Context) {
	team := c.Query("team")
	if team == "" {
		respondError(c, http.StatusBadRequest, "ERR_VALIDATION", "team query parameter is required")
		return
	}

	raceID := h.raceSvc.Current().RaceID
	if raw := c.Query("race_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id < 0 {
			respondError(c, http.StatusBadRequest, "ERR_VALIDATION", "race_id must be a non-negative integer")
			return
		}
		raceID = id
	}

	tickets, err := h.ticketSvc.TeamTickets(c.Request.Context(), team, raceID)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "ERR_INTERNAL", "could not list tickets")
		return
	}
	respondList(c, tickets, len(tickets))
}
