// Package metrics exposes Prometheus instrumentation for the execution core.
// Collectors register themselves with the default registry at import time;
// binaries that want to serve them mount promhttp.Handler themselves.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	OrdersSubmitted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "meridian_orders_submitted_total",
			Help: "Orders accepted by the engine, by side",
		},
		[]string{"side"},
	)

	OrdersRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "meridian_orders_rejected_total",
			Help: "Orders rejected before execution, by reason",
		},
		[]string{"reason"},
	)

	OrdersFilled = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "meridian_orders_filled_total",
			Help: "Orders that reached a terminal filled state",
		},
	)

	OrdersCancelled = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "meridian_orders_cancelled_total",
			Help: "Orders cancelled before completion",
		},
	)

	OpenOrders = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "meridian_open_orders",
			Help: "Orders currently resting in the engine",
		},
	)

	OpenPositions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "meridian_open_positions",
			Help: "Symbols with a non-flat position",
		},
	)

	TickQueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "meridian_tick_queue_depth",
			Help: "Market ticks buffered in the ingestion ring",
		},
	)

	RealizedPnL = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "meridian_realized_pnl_usd",
			Help: "Cumulative realized profit and loss in USD",
		},
	)
)
