// Package api provides factory implementations for dependency injection
package api

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// DefaultServerFactory is the default implementation of ServerFactory
type DefaultServerFactory struct{}

// NewServerFactory creates a new server factory
func NewServerFactory() ServerFactory {
	return &DefaultServerFactory{}
}

// CreateServerStarter creates a server starter
func (f *DefaultServerFactory) CreateServerStarter(logger *zap.Logger, reg *prometheus.Registry) ServerStarter {
	return &DefaultServerStarter{logger: logger, registry: reg}
}

// DefaultServerStarter is the default implementation of ServerStarter
type DefaultServerStarter struct {
	logger   *zap.Logger
	registry *prometheus.Registry
}

// StartServer starts the API server with the given configuration
func (s *DefaultServerStarter) StartServer(ctx context.Context, layouts Layouts, config ServerConfig) error {
	return StartServer(ctx, layouts, config, s.logger, NewMetrics(s.registry))
}
