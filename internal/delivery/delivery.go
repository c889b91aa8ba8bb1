// Package delivery defines the common contract for servable transports.
package delivery

import "context"

// Delivery is a servable transport (HTTP server, background worker). Serve
// blocks until the transport stops; shutdown is driven by the fx lifecycle.
type Delivery interface {
	Serve(ctx context.Context) error
}
