package server

import (
	"net/http"

	"raceledger/models"
	"raceledger/service"
)

// MarketplaceHandler serves marketplace listing and purchase endpoints
type MarketplaceHandler struct {
	marketplace service.MarketplaceService
}

// NewMarketplaceHandler creates a MarketplaceHandler
func NewMarketplaceHandler(marketplace service.MarketplaceService) *MarketplaceHandler {
	return &MarketplaceHandler{marketplace: marketplace}
}

type sellRequest struct {
	CarID    int64  `json:"carId"`
	SellerID int64  `json:"sellerId"`
	Price    int64  `json:"price"`
	Currency string `json:"currency"`
}

type sellResponse struct {
	Status  string          `json:"status"`
	Listing *models.Listing `json:"listing"`
}

// purchaseResponse flattens the purchase fields next to the status marker
type purchaseResponse struct {
	Status string `json:"status"`
	*models.PurchaseResult
}

// Sell lists a car for sale.
// POST /api/marketplace/sell
func (h *MarketplaceHandler) Sell(w http.ResponseWriter, r *http.Request) {
	var req sellRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	listing, err := h.marketplace.ListForSale(r.Context(), req.CarID, req.SellerID, req.Price, req.Currency)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, sellResponse{Status: "ok", Listing: listing})
}

// Listings returns the marketplace view of the car catalog.
// GET /api/marketplace/listings
func (h *MarketplaceHandler) Listings(w http.ResponseWriter, r *http.Request) {
	entries, err := h.marketplace.Listings(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, entries)
}

type buyRequest struct {
	ListingID int64 `json:"listingId"`
	BuyerID   int64 `json:"buyerId"`
}

// Buy settles a listed sale.
// POST /api/marketplace/buy
func (h *MarketplaceHandler) Buy(w http.ResponseWriter, r *http.Request) {
	var req buyRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	result, err := h.marketplace.Buy(r.Context(), req.ListingID, req.BuyerID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, purchaseResponse{Status: "ok", PurchaseResult: result})
}

type shopBuyRequest struct {
	CarID int64 `json:"carId"`
}

// ShopBuy sells a catalog car directly to the caller.
// POST /api/shop/buy
func (h *MarketplaceHandler) ShopBuy(w http.ResponseWriter, r *http.Request) {
	buyerID, ok := callerID(r)
	if !ok {
		writeBadRequest(w, "missing caller identity")
		return
	}

	var req shopBuyRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	result, err := h.marketplace.BuyFromShop(r.Context(), req.CarID, buyerID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, purchaseResponse{Status: "ok", PurchaseResult: result})
}
