package metrics

import (
	promgrpc "github.com/grpc-ecosystem/go-grpc-prometheus"
	"github.com/prometheus/client_golang/prometheus"
)

// NewGRPCServerMetrics регистрирует метрики gRPC-сервера (grpc_server_*).
// Повторный вызов возвращает уже зарегистрированный экземпляр.
func NewGRPCServerMetrics(registerer prometheus.Registerer) *promgrpc.ServerMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	serverMetrics := promgrpc.NewServerMetrics()
	serverMetrics.EnableHandlingTimeHistogram()
	return register(registerer, "grpc_server", serverMetrics)
}
