package server

import (
	"net/http"

	"raceledger/models"
	"raceledger/service"
)

// WagerHandler serves bet creation and race settlement endpoints
type WagerHandler struct {
	wagers service.WagerService
}

// NewWagerHandler creates a WagerHandler
func NewWagerHandler(wagers service.WagerService) *WagerHandler {
	return &WagerHandler{wagers: wagers}
}

type createBetRequest struct {
	UserID   int64 `json:"userId"`
	RivalID  int64 `json:"rivalId"`
	Cantidad int64 `json:"cantidad"`
}

type createBetResponse struct {
	Status string      `json:"status"`
	Bet    *models.Bet `json:"bet"`
}

// CreateBet opens a pending bet with both stakes locked.
// POST /api/bet/create
func (h *WagerHandler) CreateBet(w http.ResponseWriter, r *http.Request) {
	var req createBetRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	bet, err := h.wagers.CreateBet(r.Context(), req.UserID, req.RivalID, req.Cantidad)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, createBetResponse{Status: "ok", Bet: bet})
}

type raceResultRequest struct {
	UserID   int64   `json:"userId"`
	RivalID  int64   `json:"rivalId"`
	Tiempo   float64 `json:"tiempo"`
	Gano     bool    `json:"gano"`
	Posicion int     `json:"posicion"`
}

type resolutionResponse struct {
	Status   string      `json:"status"`
	WinnerID int64       `json:"winnerId"`
	LoserID  int64       `json:"loserId"`
	Payout   int64       `json:"payout"`
	Bet      *models.Bet `json:"bet"`
}

// SubmitResult settles the pending bet between the named pair from a
// structured race result.
// POST /api/race/result
func (h *WagerHandler) SubmitResult(w http.ResponseWriter, r *http.Request) {
	var req raceResultRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}
	if req.UserID <= 0 || req.RivalID <= 0 {
		writeBadRequest(w, "missing userId or rivalId")
		return
	}

	resolution, err := h.wagers.ResolveRace(r.Context(), models.StructuredOutcome{
		UserID:   req.UserID,
		RivalID:  req.RivalID,
		RaceTime: req.Tiempo,
		Won:      req.Gano,
		Position: req.Posicion,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, resolutionResponse{
		Status:   "ok",
		WinnerID: resolution.WinnerID,
		LoserID:  resolution.LoserID,
		Payout:   resolution.Payout,
		Bet:      resolution.Bet,
	})
}

type simpleResultRequest struct {
	Resultado string `json:"resultado"`
}

// SubmitSimpleResult settles the most recent pending bet from a free-text
// "gana player N" result.
// POST /api/race/result-simple
func (h *WagerHandler) SubmitSimpleResult(w http.ResponseWriter, r *http.Request) {
	var req simpleResultRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	outcome, err := service.ParseRaceResultText(req.Resultado)
	if err != nil {
		writeError(w, err)
		return
	}

	resolution, err := h.wagers.ResolveRace(r.Context(), outcome)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, resolutionResponse{
		Status:   "ok",
		WinnerID: resolution.WinnerID,
		LoserID:  resolution.LoserID,
		Payout:   resolution.Payout,
		Bet:      resolution.Bet,
	})
}
