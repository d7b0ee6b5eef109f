// Package delivery defines the transport-facing entry points of the application.
package delivery

import "context"

// Delivery is implemented by every transport the application can serve on.
type Delivery interface {
	Serve(ctx context.Context) error
}
