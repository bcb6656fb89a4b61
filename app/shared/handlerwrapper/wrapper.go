package handlerwrapper

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/girder/covalic/app/shared/attr"
	"github.com/girder/covalic/app/shared/observability"
)

// TopicMetadataKey carries the destination topic on messages produced by a
// handler; the module router publishes to it.
const TopicMetadataKey = "topic"

// Result is one outgoing event produced by a handler.
type Result struct {
	Topic   string
	Payload any
}

// Wrap adapts a typed handler function into a watermill HandlerFunc with the
// common tracing, logging, metrics and payload unmarshaling applied.
func Wrap[T any](
	handlerName string,
	logger *slog.Logger,
	metrics observability.OperationMetrics,
	tracer trace.Tracer,
	fn func(ctx context.Context, payload *T) ([]Result, error),
) message.HandlerFunc {
	return func(msg *message.Message) ([]*message.Message, error) {
		ctx, span := tracer.Start(msg.Context(), handlerName, trace.WithAttributes(
			attribute.String("handler", handlerName),
			attribute.String("message_id", msg.UUID),
		))
		defer span.End()

		correlationID := middleware.MessageCorrelationID(msg)
		ctx = attr.WithCorrelationID(ctx, correlationID)

		metrics.RecordOperationAttempt(handlerName)
		start := time.Now()
		defer func() {
			metrics.RecordOperationDuration(handlerName, time.Since(start))
		}()

		logger.InfoContext(ctx, handlerName+" triggered",
			attr.ExtractCorrelationID(ctx),
			attr.String("message_id", msg.UUID),
		)

		payload := new(T)
		if err := json.Unmarshal(msg.Payload, payload); err != nil {
			logger.ErrorContext(ctx, "Failed to unmarshal payload",
				attr.ExtractCorrelationID(ctx),
				attr.Error(err),
			)
			metrics.RecordOperationFailure(handlerName)
			return nil, fmt.Errorf("failed to unmarshal payload for %s: %w", handlerName, err)
		}

		results, err := fn(ctx, payload)
		if err != nil {
			logger.ErrorContext(ctx, "Error in "+handlerName,
				attr.ExtractCorrelationID(ctx),
				attr.Error(err),
			)
			metrics.RecordOperationFailure(handlerName)
			span.RecordError(err)
			return nil, err
		}

		out := make([]*message.Message, 0, len(results))
		for _, r := range results {
			body, err := json.Marshal(r.Payload)
			if err != nil {
				metrics.RecordOperationFailure(handlerName)
				return nil, fmt.Errorf("failed to marshal outgoing payload for %s: %w", r.Topic, err)
			}
			m := message.NewMessage(watermill.NewUUID(), body)
			m.Metadata.Set(TopicMetadataKey, r.Topic)
			middleware.SetCorrelationID(correlationID, m)
			out = append(out, m)
		}

		metrics.RecordOperationSuccess(handlerName)
		logger.InfoContext(ctx, handlerName+" completed",
			attr.ExtractCorrelationID(ctx),
			attr.Int("outgoing_messages", len(out)),
		)
		return out, nil
	}
}
