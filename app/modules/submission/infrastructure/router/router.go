// Package submissionrouter wires the submission module's event
// subscriptions onto a watermill router.
package submissionrouter

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill/message"

	phaseevents "github.com/girder/covalic/app/modules/phase/domain/events"
	submissionevents "github.com/girder/covalic/app/modules/submission/domain/events"
	submissionhandlers "github.com/girder/covalic/app/modules/submission/infrastructure/handlers"
	"github.com/girder/covalic/app/shared/attr"
	"github.com/girder/covalic/app/shared/eventbus"
	"github.com/girder/covalic/app/shared/handlerwrapper"
)

// SubmissionRouter registers the submission module's subscriptions and
// publishes any messages its handlers produce.
type SubmissionRouter struct {
	logger     *slog.Logger
	Router     *message.Router
	subscriber eventbus.EventBus
	publisher  eventbus.EventBus
}

// NewSubmissionRouter creates a new SubmissionRouter.
func NewSubmissionRouter(
	logger *slog.Logger,
	router *message.Router,
	subscriber eventbus.EventBus,
	publisher eventbus.EventBus,
) *SubmissionRouter {
	return &SubmissionRouter{
		logger:     logger,
		Router:     router,
		subscriber: subscriber,
		publisher:  publisher,
	}
}

// Configure registers the handlers. The middleware stack lives on the
// shared router and is installed once at app assembly.
func (r *SubmissionRouter) Configure(ctx context.Context, handlers *submissionhandlers.SubmissionHandlers) error {
	return r.registerHandlers(ctx, handlers)
}

func (r *SubmissionRouter) registerHandlers(ctx context.Context, handlers *submissionhandlers.SubmissionHandlers) error {
	eventsToHandlers := map[string]message.HandlerFunc{
		phaseevents.PhaseACLChangedSubject:        handlers.PhaseACLChanged,
		phaseevents.PhaseMetricsChangedSubject:    handlers.PhaseMetricsChanged,
		submissionevents.ScoringJobStatusSubject:  handlers.ScoringJobStatus,
	}

	for topic, handlerFunc := range eventsToHandlers {
		handlerName := fmt.Sprintf("submission.%s", topic)
		r.Router.AddHandler(
			handlerName,
			topic,
			r.subscriber,
			"",
			nil,
			func(msg *message.Message) ([]*message.Message, error) {
				messages, err := handlerFunc(msg)
				if err != nil {
					r.logger.ErrorContext(ctx, "Error processing message",
						attr.String("handler", handlerName),
						attr.String("message_id", msg.UUID),
						attr.Error(err),
					)
					return nil, err
				}
				for _, m := range messages {
					topic := m.Metadata.Get(handlerwrapper.TopicMetadataKey)
					if topic == "" {
						r.logger.Error("No publish topic on outgoing message, dropping",
							attr.String("handler", handlerName),
							attr.String("message_id", m.UUID),
						)
						continue
					}
					if err := r.publisher.Publish(topic, m); err != nil {
						return nil, fmt.Errorf("failed to publish to %s: %w", topic, err)
					}
				}
				return nil, nil
			},
		)
	}
	return nil
}

// Close shuts the underlying router down.
func (r *SubmissionRouter) Close() error {
	return r.Router.Close()
}
