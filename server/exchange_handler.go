package server

import (
	"net/http"
	"strconv"

	"raceledger/models"
	"raceledger/service"
)

// ExchangeHandler serves order book and direct transfer endpoints
type ExchangeHandler struct {
	exchange service.ExchangeService
}

// NewExchangeHandler creates an ExchangeHandler
func NewExchangeHandler(exchange service.ExchangeService) *ExchangeHandler {
	return &ExchangeHandler{exchange: exchange}
}

type createOrderRequest struct {
	Side   string `json:"side"`
	Type   string `json:"type"`
	Amount int64  `json:"amount"`
	Pair   string `json:"pair"`
	Price  *int64 `json:"price,omitempty"`
}

// CreateOrder posts a standing order owned by the caller.
// POST /api/exchange/order
func (h *ExchangeHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := callerID(r)
	if !ok {
		writeBadRequest(w, "missing caller identity")
		return
	}

	var req createOrderRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	order, err := h.exchange.CreateOrder(r.Context(), ownerID,
		models.OrderSide(req.Side), models.OrderKind(req.Type), req.Amount, req.Pair, req.Price)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, order)
}

// OrderBook returns the open orders for a pair.
// GET /api/exchange/orderbook?pair=
func (h *ExchangeHandler) OrderBook(w http.ResponseWriter, r *http.Request) {
	pair := r.URL.Query().Get("pair")

	book, err := h.exchange.OrderBook(r.Context(), pair)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, book)
}

type cancelOrderRequest struct {
	OrderID int64 `json:"orderId"`
}

type cancelOrderResponse struct {
	Status string        `json:"status"`
	Order  *models.Order `json:"order"`
}

// CancelOrder cancels an order owned by the caller.
// POST /api/exchange/order/cancel
func (h *ExchangeHandler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := callerID(r)
	if !ok {
		writeBadRequest(w, "missing caller identity")
		return
	}

	var req cancelOrderRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	order, err := h.exchange.CancelOrder(r.Context(), ownerID, req.OrderID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, cancelOrderResponse{Status: "cancelled", Order: order})
}

// RecentTrades returns the latest settled transfers for a pair.
// GET /api/exchange/recent-trades?pair=&limit=
func (h *ExchangeHandler) RecentTrades(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	pair := q.Get("pair")

	limit := 0
	if raw := q.Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			limit = n
		}
	}

	trades, err := h.exchange.RecentTrades(r.Context(), pair, limit)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, trades)
}

type tokenTransferRequest struct {
	FromUserID int64  `json:"fromUserId"`
	ToUserID   int64  `json:"toUserId"`
	Token      string `json:"token"`
	Amount     int64  `json:"amount"`
}

// transferResponse flattens the settled record next to the status marker
type transferResponse struct {
	Status string `json:"status"`
	*models.ExchangeRecord
}

// TransferToken moves balance directly between two users.
// POST /api/exchange/token
func (h *ExchangeHandler) TransferToken(w http.ResponseWriter, r *http.Request) {
	var req tokenTransferRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	record, err := h.exchange.TransferToken(r.Context(), req.FromUserID, req.ToUserID, req.Token, req.Amount)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, transferResponse{Status: "ok", ExchangeRecord: record})
}

type nftTransferRequest struct {
	FromUserID int64 `json:"fromUserId"`
	ToUserID   int64 `json:"toUserId"`
	NFT        int64 `json:"nft"`
}

type nftTransferResponse struct {
	Status string `json:"status"`
	*models.NFTRecord
}

// TransferNFT moves a car directly between two users.
// POST /api/exchange/nft
func (h *ExchangeHandler) TransferNFT(w http.ResponseWriter, r *http.Request) {
	var req nftTransferRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	record, err := h.exchange.TransferNFT(r.Context(), req.FromUserID, req.ToUserID, req.NFT)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, nftTransferResponse{Status: "ok", NFTRecord: record})
}
