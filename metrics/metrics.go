// Package metrics exposes settlement counters over Prometheus and serves
// the /metrics and /healthz sidecar endpoints.
package metrics

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"raceledger/events"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Settlement counters, incremented from event bus subscriptions so the
// settlement path itself never touches the registry.
type Collector struct {
	BetsCreated    prometheus.Counter
	BetsResolved   prometheus.Counter
	PayoutTotal    prometheus.Counter
	ListingsSold   prometheus.Counter
	OrdersCreated  prometheus.Counter
	OrdersCanceled prometheus.Counter
	Transfers      *prometheus.CounterVec
}

// NewCollector creates and registers the settlement counters
func NewCollector() *Collector {
	c := &Collector{
		BetsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "raceledger_bets_created_total",
			Help: "Bets opened with both stakes locked",
		}),
		BetsResolved: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "raceledger_bets_resolved_total",
			Help: "Bets settled and paid out",
		}),
		PayoutTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "raceledger_payout_units_total",
			Help: "Total payout volume in base currency units",
		}),
		ListingsSold: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "raceledger_listings_sold_total",
			Help: "Marketplace and shop sales settled",
		}),
		OrdersCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "raceledger_orders_created_total",
			Help: "Standing orders posted",
		}),
		OrdersCanceled: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "raceledger_orders_cancelled_total",
			Help: "Standing orders cancelled",
		}),
		Transfers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "raceledger_transfers_total",
			Help: "Direct transfers settled, by asset kind",
		}, []string{"kind"}),
	}

	prometheus.MustRegister(
		c.BetsCreated,
		c.BetsResolved,
		c.PayoutTotal,
		c.ListingsSold,
		c.OrdersCreated,
		c.OrdersCanceled,
		c.Transfers,
	)

	return c
}

// Observe wires the counters to the event bus
func (c *Collector) Observe(bus *events.Bus) {
	bus.Subscribe(events.EventTypeBetCreated, func(ctx context.Context, e events.Event) {
		c.BetsCreated.Inc()
	})
	bus.Subscribe(events.EventTypeBetResolved, func(ctx context.Context, e events.Event) {
		c.BetsResolved.Inc()
		if ev, ok := e.(events.BetResolvedEvent); ok {
			c.PayoutTotal.Add(float64(ev.Payout))
		}
	})
	bus.Subscribe(events.EventTypeListingSold, func(ctx context.Context, e events.Event) {
		c.ListingsSold.Inc()
	})
	bus.Subscribe(events.EventTypeOrderCreated, func(ctx context.Context, e events.Event) {
		c.OrdersCreated.Inc()
	})
	bus.Subscribe(events.EventTypeOrderCancelled, func(ctx context.Context, e events.Event) {
		c.OrdersCanceled.Inc()
	})
	bus.Subscribe(events.EventTypeTokenTransferred, func(ctx context.Context, e events.Event) {
		c.Transfers.WithLabelValues("token").Inc()
	})
	bus.Subscribe(events.EventTypeNFTTransferred, func(ctx context.Context, e events.Event) {
		c.Transfers.WithLabelValues("nft").Inc()
	})
}

// HealthFunc reports whether a dependency is reachable
type HealthFunc func(ctx context.Context) error

// StartServer starts a lightweight HTTP server for /metrics and /healthz
// on its own port, detached from the API server.
func StartServer(port string, healthFn HealthFunc) *http.Server {
	mux := http.NewServeMux()

	mux.Handle("/metrics", promhttp.Handler())

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 500*time.Millisecond)
		defer cancel()

		if err := healthFn(ctx); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(fmt.Sprintf("unhealthy: %v", err)))
			return
		}

		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: mux,
	}

	go func() {
		_ = srv.ListenAndServe()
	}()

	return srv
}
