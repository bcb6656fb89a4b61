// Package challengerouter wires the challenge module's event subscriptions
// onto the shared watermill router. The middleware stack lives on the router
// itself and is installed once at app assembly.
package challengerouter

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill/message"

	challengeevents "github.com/girder/covalic/app/modules/challenge/domain/events"
	challengehandlers "github.com/girder/covalic/app/modules/challenge/infrastructure/handlers"
	"github.com/girder/covalic/app/shared/attr"
	"github.com/girder/covalic/app/shared/eventbus"
	"github.com/girder/covalic/app/shared/handlerwrapper"
)

// ChallengeRouter registers the challenge module's subscriptions and
// publishes any messages its handlers produce.
type ChallengeRouter struct {
	logger     *slog.Logger
	Router     *message.Router
	subscriber eventbus.EventBus
	publisher  eventbus.EventBus
}

// NewChallengeRouter creates a new ChallengeRouter.
func NewChallengeRouter(
	logger *slog.Logger,
	router *message.Router,
	subscriber eventbus.EventBus,
	publisher eventbus.EventBus,
) *ChallengeRouter {
	return &ChallengeRouter{
		logger:     logger,
		Router:     router,
		subscriber: subscriber,
		publisher:  publisher,
	}
}

// Configure registers the handlers.
func (r *ChallengeRouter) Configure(ctx context.Context, handlers *challengehandlers.ChallengeHandlers) error {
	eventsToHandlers := map[string]message.HandlerFunc{
		challengeevents.ChallengeSavedSubject: handlers.ChallengeSaved,
	}

	for topic, handlerFunc := range eventsToHandlers {
		handlerName := fmt.Sprintf("challenge.%s", topic)
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
func (r *ChallengeRouter) Close() error {
	return r.Router.Close()
}
