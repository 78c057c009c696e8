// Package listeners subscribes marketplace reactions to domain events.
package listeners

import (
	"context"

	"github.com/shashiranjanraj/bazaar/pkg/event"
	"github.com/shashiranjanraj/bazaar/pkg/logger"
	"github.com/shashiranjanraj/bazaar/pkg/metrics"
)

// CatalogCache is the part of the catalog service that listing writes touch.
type CatalogCache interface {
	Invalidate(ctx context.Context) error
}

// Register wires every listener. Call it once at boot.
func Register(catalog CatalogCache) {
	event.Listen(event.ListingChanged, func(ctx context.Context, p interface{}) {
		lp, _ := p.(event.ListingPayload)
		metrics.ListingEvents.WithLabelValues(lp.Action).Inc()
		if err := catalog.Invalidate(ctx); err != nil {
			logger.WithCtx(ctx).Warn("catalog: invalidate failed", "listing_id", lp.ListingID, "error", err)
		}
	})

	event.Listen(event.RequestCreated, func(ctx context.Context, p interface{}) {
		rp, _ := p.(event.RequestPayload)
		metrics.RequestTransitions.WithLabelValues(rp.Status).Inc()
		logger.WithCtx(ctx).Info("request created", "request_id", rp.RequestID, "listing_id", rp.ListingID)
	})

	event.Listen(event.RequestTransitioned, func(ctx context.Context, p interface{}) {
		rp, _ := p.(event.RequestPayload)
		metrics.RequestTransitions.WithLabelValues(rp.Status).Inc()
	})
}
