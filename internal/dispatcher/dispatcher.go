package dispatcher

import (
	"context"
	"errors"
	"fmt"

	"github.com/commentera/commentera-api/internal/model"
)

var (
	ErrNotReady  = fmt.Errorf("endpoint not ready")
	ErrNoAcquire = fmt.Errorf("endpoint not acquired")
)

// Dispatcher fans one badge event out to every configured webhook endpoint.
// Unlike a load-balanced pool, webhooks are broadcast targets: each endpoint
// gets each event, with per-endpoint retry attempts and breaker gating.
type Dispatcher struct {
	endpoints   []Endpoint
	maxAttempts int
}

func NewDispatcher(endpoints []Endpoint, maxAttempts int) *Dispatcher {
	if maxAttempts < 1 {
		maxAttempts = 2
	}

	return &Dispatcher{endpoints: endpoints, maxAttempts: maxAttempts}
}

// Endpoints returns the number of configured destinations.
func (d *Dispatcher) Endpoints() int { return len(d.endpoints) }

func (d *Dispatcher) tryOnce(ctx context.Context, ep Endpoint, ev model.BadgeEvent) error {
	if !ep.Ready() {
		return ErrNotReady
	}

	if !ep.Acquire() {
		return ErrNoAcquire
	}

	return ep.Deliver(ctx, ev)
}

// Broadcast delivers ev to all endpoints. Failures are joined; a partial
// failure does not abort remaining endpoints.
func (d *Dispatcher) Broadcast(ctx context.Context, ev model.BadgeEvent) error {
	var errs []error
	for _, ep := range d.endpoints {
		var last error
		for i := 0; i < d.maxAttempts; i++ {
			if err := d.tryOnce(ctx, ep, ev); err == nil {
				last = nil
				break
			} else {
				last = err
			}
		}
		if last != nil {
			errs = append(errs, fmt.Errorf("webhook %s: %w", ep.Name(), last))
		}
	}

	return errors.Join(errs...)
}
