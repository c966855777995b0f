// Package di provides dependency injection container
package di

import (
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/ssargent/flatrec/pkg/api" //nolint:depguard
	"github.com/ssargent/flatrec/pkg/batch"
	"github.com/ssargent/flatrec/pkg/layout"
	"github.com/ssargent/flatrec/pkg/schema"
	"github.com/ssargent/flatrec/pkg/types"
)

// Container holds all the dependencies for the application. The type
// registry and the schema builder are created once and shared by every
// codec built from the container.
type Container struct {
	registry      *types.Registry
	catalog       *schema.Catalog
	builder       *schema.Builder
	metrics       *prometheus.Registry
	batchOnce     sync.Once
	batchMetrics  *batch.Metrics
	logger        *zap.Logger
	serverFactory api.ServerFactory
}

// NewContainer creates a new dependency injection container. Extra
// handlers are consulted before the built-in ones.
func NewContainer(logger *zap.Logger, extra ...types.Handler) *Container {
	if logger == nil {
		logger = zap.NewNop()
	}
	registry := types.NewRegistry(extra...)
	catalog := schema.NewCatalog()
	return &Container{
		registry:      registry,
		catalog:       catalog,
		builder:       schema.NewBuilder(schema.Chain{catalog, schema.Tags{}}, registry),
		metrics:       prometheus.NewRegistry(),
		logger:        logger,
		serverFactory: api.NewServerFactory(),
	}
}

// Registry returns the type handler registry
func (c *Container) Registry() *types.Registry {
	return c.registry
}

// Builder returns the shared schema builder
func (c *Container) Builder() *schema.Builder {
	return c.builder
}

// Logger returns the application logger
func (c *Container) Logger() *zap.Logger {
	return c.logger
}

// MetricsRegistry returns the Prometheus registry shared by the API and
// batch jobs
func (c *Container) MetricsRegistry() *prometheus.Registry {
	return c.metrics
}

// LoadLayouts reads and compiles the layout document at path
func (c *Container) LoadLayouts(path string) (*layout.Set, error) {
	doc, err := layout.Load(path)
	if err != nil {
		return nil, err
	}
	set, err := layout.Compile(doc, c.catalog, c.builder)
	if err != nil {
		return nil, fmt.Errorf("failed to compile layouts from %s: %w", path, err)
	}
	c.logger.Debug("layouts compiled", zap.String("path", path), zap.Strings("names", set.Names()))
	return set, nil
}

// BatchMetrics returns the batch job metrics, registering them with the
// shared registry on first use
func (c *Container) BatchMetrics() *batch.Metrics {
	c.batchOnce.Do(func() {
		c.batchMetrics = batch.NewMetrics(c.metrics)
	})
	return c.batchMetrics
}

// GetServerFactory returns the server factory
func (c *Container) GetServerFactory() api.ServerFactory {
	return c.serverFactory
}

// SetServerFactory allows overriding the server factory (for testing)
func (c *Container) SetServerFactory(factory api.ServerFactory) {
	c.serverFactory = factory
}
