package server

import (
	"net/http"

	"raceledger/service"
)

// AccountHandler serves balance and catalog read endpoints
type AccountHandler struct {
	accounts    service.AccountService
	marketplace service.MarketplaceService
}

// NewAccountHandler creates an AccountHandler
func NewAccountHandler(accounts service.AccountService, marketplace service.MarketplaceService) *AccountHandler {
	return &AccountHandler{
		accounts:    accounts,
		marketplace: marketplace,
	}
}

// GetBalance returns a user's ledger account.
// GET /api/balance/{userId}
func (h *AccountHandler) GetBalance(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "userId")
	if err != nil {
		writeBadRequest(w, "invalid user id")
		return
	}

	account, err := h.accounts.GetAccount(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, account)
}

// ListCars returns the car catalog.
// GET /api/cars
func (h *AccountHandler) ListCars(w http.ResponseWriter, r *http.Request) {
	cars, err := h.marketplace.Catalog(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, cars)
}
