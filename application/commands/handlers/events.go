package handlers

import (
	"context"

	"go.uber.org/zap"

	"github.com/thismakesmehappy/NewApiTest-sub000/application/ports"
	"github.com/thismakesmehappy/NewApiTest-sub000/domain/events"
)

type eventSource interface {
	GetUncommittedEvents() []events.DomainEvent
	MarkEventsAsCommitted()
}

// publishEvents sends the aggregate's pending events. The write has already
// succeeded at this point, so a publish failure is logged and swallowed.
func publishEvents(ctx context.Context, publisher ports.EventPublisher, logger *zap.Logger, source eventSource) {
	pending := source.GetUncommittedEvents()
	source.MarkEventsAsCommitted()
	if publisher == nil || len(pending) == 0 {
		return
	}
	if err := publisher.PublishBatch(ctx, pending); err != nil {
		logger.Warn("Failed to publish domain events",
			zap.Int("count", len(pending)),
			zap.String("aggregateID", pending[0].GetAggregateID()),
			zap.Error(err),
		)
	}
}
