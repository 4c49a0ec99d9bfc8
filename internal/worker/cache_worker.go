package worker

import (
	"context"

	"github.com/spec-kit/estate-service/internal/events"
	"github.com/spec-kit/estate-service/internal/persistence"
)

// StartCacheWorker subscribes search-cache invalidation to listing mutations.
func StartCacheWorker(dispatcher events.Dispatcher, cache *persistence.SearchCache) {
	if dispatcher == nil || cache == nil {
		return
	}

	invalidate := func(ctx context.Context, _ events.Event) error {
		cache.Invalidate(ctx)
		return nil
	}

	dispatcher.Subscribe(events.EventHouseCreated, invalidate)
	dispatcher.Subscribe(events.EventHouseUpdated, invalidate)
	dispatcher.Subscribe(events.EventHouseDeleted, invalidate)
}
