// Package api provides interfaces for dependency injection
package api

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/ssargent/boconv/pkg/metrics"
	"go.uber.org/zap"
)

// ServerStarter defines the interface for starting the API server
type ServerStarter interface {
	// StartServer serves objects until ctx is cancelled
	StartServer(ctx context.Context, objects Objects, stats StatsProvider, config ServerConfig) error
}

// ServerFactory creates server instances
type ServerFactory interface {
	// CreateServerStarter creates a server starter
	CreateServerStarter(m *metrics.Metrics, gatherer prometheus.Gatherer, logger *zap.Logger) ServerStarter
}
