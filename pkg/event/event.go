// Package event is an in-process, synchronous event dispatcher. Services fire
// domain events; listeners registered at boot keep caches and metrics in step.
//
//	event.Listen(event.ListingChanged, func(ctx context.Context, p any) { ... })
//	event.Fire(ctx, event.ListingChanged, ListingEvent{...})
package event

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"

	"github.com/shashiranjanraj/bazaar/pkg/logger"
)

const (
	// ListingChanged carries a ListingPayload after create, update or delete.
	ListingChanged = "listing.changed"
	// RequestTransitioned carries a RequestPayload after accept or reject.
	RequestTransitioned = "request.transitioned"
	// RequestCreated carries a RequestPayload for a new pending request.
	RequestCreated = "request.created"
)

type ListingPayload struct {
	ListingID string
	SellerID  string
	Action    string // created | updated | deleted
}

type RequestPayload struct {
	RequestID string
	ListingID string
	SellerID  string
	BuyerID   string
	Status    string
}

type Handler func(ctx context.Context, payload interface{})

var (
	mu       sync.RWMutex
	handlers = map[string][]Handler{}
)

func Listen(name string, h Handler) {
	mu.Lock()
	defer mu.Unlock()
	handlers[name] = append(handlers[name], h)
}

// Fire runs every listener for name in registration order. A panicking
// listener is logged and does not stop the others.
func Fire(ctx context.Context, name string, payload interface{}) {
	mu.RLock()
	hs := append([]Handler(nil), handlers[name]...)
	mu.RUnlock()

	for _, h := range hs {
		call(ctx, name, h, payload)
	}
}

func call(ctx context.Context, name string, h Handler, payload interface{}) {
	defer func() {
		if r := recover(); r != nil {
			logger.WithCtx(ctx).Error("event: listener panicked",
				"event", name,
				"panic", fmt.Sprint(r),
				"stack", string(debug.Stack()),
			)
		}
	}()
	h(ctx, payload)
}

// Flush removes all listeners. Tests call it between cases.
func Flush() {
	mu.Lock()
	defer mu.Unlock()
	handlers = map[string][]Handler{}
}
