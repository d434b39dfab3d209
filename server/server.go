// Package server exposes the settlement engine over HTTP.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"
)

// Config holds the HTTP server configuration
type Config struct {
	Port int
}

// Handlers aggregates the HTTP handlers the server registers
type Handlers struct {
	Wager       *WagerHandler
	Marketplace *MarketplaceHandler
	Exchange    *ExchangeHandler
	Account     *AccountHandler
}

// Server is the HTTP API server for the settlement engine
type Server struct {
	httpServer *http.Server
}

// NewServer creates a Server with all routes registered and the middleware
// chain applied.
func NewServer(cfg Config, handlers Handlers) *Server {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/bet/create", handlers.Wager.CreateBet)
	mux.HandleFunc("POST /api/race/result", handlers.Wager.SubmitResult)
	mux.HandleFunc("POST /api/race/result-simple", handlers.Wager.SubmitSimpleResult)

	mux.HandleFunc("POST /api/marketplace/sell", handlers.Marketplace.Sell)
	mux.HandleFunc("GET /api/marketplace/listings", handlers.Marketplace.Listings)
	mux.HandleFunc("POST /api/marketplace/buy", handlers.Marketplace.Buy)
	mux.HandleFunc("POST /api/shop/buy", handlers.Marketplace.ShopBuy)

	mux.HandleFunc("POST /api/exchange/order", handlers.Exchange.CreateOrder)
	mux.HandleFunc("GET /api/exchange/orderbook", handlers.Exchange.OrderBook)
	mux.HandleFunc("POST /api/exchange/order/cancel", handlers.Exchange.CancelOrder)
	mux.HandleFunc("GET /api/exchange/recent-trades", handlers.Exchange.RecentTrades)
	mux.HandleFunc("POST /api/exchange/token", handlers.Exchange.TransferToken)
	mux.HandleFunc("POST /api/exchange/nft", handlers.Exchange.TransferNFT)

	mux.HandleFunc("GET /api/balance/{userId}", handlers.Account.GetBalance)
	mux.HandleFunc("GET /api/cars", handlers.Account.ListCars)

	var h http.Handler = mux
	h = withCallerID(h)
	h = requestLogging(h)

	return &Server{
		httpServer: &http.Server{
			Addr:         fmt.Sprintf(":%d", cfg.Port),
			Handler:      h,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
	}
}

// Start begins listening for HTTP requests. It blocks until the server
// stops or fails.
func (s *Server) Start() error {
	log.WithField("addr", s.httpServer.Addr).Info("API server starting")
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server: listen: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server, waiting for in-flight
// requests within the context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	log.Info("API server shutting down")
	return s.httpServer.Shutdown(ctx)
}
