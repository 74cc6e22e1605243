// Package api provides factory implementations for dependency injection
package api

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/ssargent/boconv/pkg/metrics"
	"go.uber.org/zap"
)

// DefaultServerFactory is the default implementation of ServerFactory
type DefaultServerFactory struct{}

// NewServerFactory creates a new server factory
func NewServerFactory() ServerFactory {
	return &DefaultServerFactory{}
}

// CreateServerStarter creates a server starter
func (f *DefaultServerFactory) CreateServerStarter(m *metrics.Metrics, gatherer prometheus.Gatherer, logger *zap.Logger) ServerStarter {
	return &DefaultServerStarter{metrics: m, gatherer: gatherer, logger: logger}
}

// DefaultServerStarter is the default implementation of ServerStarter
type DefaultServerStarter struct {
	metrics  *metrics.Metrics
	gatherer prometheus.Gatherer
	logger   *zap.Logger
}

// StartServer starts the API server with the given configuration
func (s *DefaultServerStarter) StartServer(ctx context.Context, objects Objects, stats StatsProvider, config ServerConfig) error {
	server := NewServer(objects, stats, config, s.metrics, s.logger)
	return Serve(ctx, server, s.gatherer)
}
