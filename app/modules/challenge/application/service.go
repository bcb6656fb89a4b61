package challengeservice

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

	challengedb "github.com/girder/covalic/app/modules/challenge/infrastructure/repositories"
	"github.com/girder/covalic/app/shared"
	"github.com/girder/covalic/app/shared/attr"
	"github.com/girder/covalic/app/shared/eventbus"
	"github.com/girder/covalic/app/shared/observability"
	"github.com/girder/covalic/app/shared/storage"
)

// PhaseCascade is what the challenge module asks of the phase module during
// removal and subtree accounting.
type PhaseCascade interface {
	RemoveByChallenge(ctx context.Context, challengeID shared.ChallengeID) error
	SubtreeCountByChallenge(ctx context.Context, challengeID shared.ChallengeID) (int, error)
}

// ChallengeService implements the Service interface.
type ChallengeService struct {
	repo        challengedb.Repository
	phases      PhaseCascade
	collections storage.CollectionService
	folders     storage.FolderService
	eventBus    eventbus.EventBus
	logger      *slog.Logger
	metrics     observability.OperationMetrics
	tracer      trace.Tracer
}

// NewChallengeService creates a new ChallengeService.
func NewChallengeService(
	repo challengedb.Repository,
	phases PhaseCascade,
	collections storage.CollectionService,
	folders storage.FolderService,
	eventBus eventbus.EventBus,
	logger *slog.Logger,
	metrics observability.OperationMetrics,
	tracer trace.Tracer,
) *ChallengeService {
	return &ChallengeService{
		repo:        repo,
		phases:      phases,
		collections: collections,
		folders:     folders,
		eventBus:    eventBus,
		logger:      logger,
		metrics:     metrics,
		tracer:      tracer,
	}
}

// operationFunc is the generic signature for service operation functions.
type operationFunc[T any] func(ctx context.Context) (T, error)

// withTelemetry wraps a service operation with tracing, metrics, and panic
// recovery.
func withTelemetry[T any](
	s *ChallengeService,
	ctx context.Context,
	operationName string,
	subjectID fmt.Stringer,
	op operationFunc[T],
) (result T, err error) {
	ctx, span := s.tracer.Start(ctx, operationName, trace.WithAttributes(
		attribute.String("operation", operationName),
		attribute.String("subject_id", subjectID.String()),
	))
	defer span.End()

	s.metrics.RecordOperationAttempt(operationName)

	startTime := time.Now()
	defer func() {
		s.metrics.RecordOperationDuration(operationName, time.Since(startTime))
	}()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in %s: %v", operationName, r)
			s.logger.ErrorContext(ctx, "Critical panic recovered",
				attr.ExtractCorrelationID(ctx),
				attr.Stringer("subject_id", subjectID),
				attr.Error(err),
			)
			s.metrics.RecordOperationFailure(operationName)
			span.RecordError(err)
		}
	}()

	result, err = op(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "Operation failed",
			attr.ExtractCorrelationID(ctx),
			attr.String("operation", operationName),
			attr.Stringer("subject_id", subjectID),
			attr.Error(err),
		)
		s.metrics.RecordOperationFailure(operationName)
		span.RecordError(err)
		return result, fmt.Errorf("%s: %w", operationName, err)
	}

	s.metrics.RecordOperationSuccess(operationName)
	return result, nil
}

// publishEvent marshals the payload and publishes it on the given topic,
// propagating the correlation ID from the context.
func (s *ChallengeService) publishEvent(ctx context.Context, topic string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal %s payload: %w", topic, err)
	}

	msg := message.NewMessage(watermill.NewUUID(), data)
	if id := attr.CorrelationID(ctx); id != "" {
		middleware.SetCorrelationID(id, msg)
	}

	if err := s.eventBus.Publish(topic, msg); err != nil {
		return fmt.Errorf("failed to publish %s: %w", topic, err)
	}
	return nil
}
