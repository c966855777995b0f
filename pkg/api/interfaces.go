// Package api provides interfaces for dependency injection
package api

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/ssargent/flatrec/pkg/codec"
	"github.com/ssargent/flatrec/pkg/layout"
)

// Layouts is the set of compiled layouts served by the API
type Layouts interface {
	// Get returns the layout called name
	Get(name string) (*layout.Entry, bool)

	// Entries returns every layout in document order
	Entries() []*layout.Entry

	// Poly returns a dispatcher over the layouts declaring a match pattern
	Poly() (*codec.Poly, error)
}

// ServerStarter defines the interface for starting the API server
type ServerStarter interface {
	// StartServer serves layouts until ctx is done
	StartServer(ctx context.Context, layouts Layouts, config ServerConfig) error
}

// ServerFactory creates server instances
type ServerFactory interface {
	// CreateServerStarter creates a server starter logging to logger and
	// registering metrics with reg
	CreateServerStarter(logger *zap.Logger, reg *prometheus.Registry) ServerStarter
}
