package server

import "github.com/prometheus/client_golang/prometheus"

var (
	gatewayConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "tsetmc_gateway_connections",
			Help: "Currently connected websocket subscribers",
		},
	)
	gatewayMessagesSent = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tsetmc_gateway_messages_sent_total",
			Help: "Broadcast snapshots queued to subscribers by topic",
		},
		[]string{"topic"},
	)
	gatewaySlowClientsDropped = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "tsetmc_gateway_slow_clients_dropped_total",
			Help: "Subscribers disconnected because their send queue was full",
		},
	)
	gatewayBroadcastDropped = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "tsetmc_gateway_broadcast_dropped_total",
			Help: "Change batches dropped because the broadcast queue was full",
		},
	)
	gatewayProtocolErrors = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "tsetmc_gateway_protocol_errors_total",
			Help: "Rejected client request frames",
		},
	)
)

func init() {
	prometheus.MustRegister(gatewayConnections)
	prometheus.MustRegister(gatewayMessagesSent)
	prometheus.MustRegister(gatewaySlowClientsDropped)
	prometheus.MustRegister(gatewayBroadcastDropped)
	prometheus.MustRegister(gatewayProtocolErrors)
}
