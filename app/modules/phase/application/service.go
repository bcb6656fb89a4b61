package phaseservice

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

	challengetypes "github.com/girder/covalic/app/modules/challenge/domain/types"
	phasedb "github.com/girder/covalic/app/modules/phase/infrastructure/repositories"
	"github.com/girder/covalic/app/shared"
	"github.com/girder/covalic/app/shared/attr"
	"github.com/girder/covalic/app/shared/eventbus"
	"github.com/girder/covalic/app/shared/observability"
	"github.com/girder/covalic/app/shared/storage"
)

// ChallengeProvider is the slice of challenge state the phase module needs.
type ChallengeProvider interface {
	GetByID(ctx context.Context, id shared.ChallengeID) (*challengetypes.Challenge, error)
}

// SubmissionCascade is what the phase module asks of the submission module:
// cascading removal, rescoring fan-out, score recomputation and counting.
type SubmissionCascade interface {
	RemoveByPhase(ctx context.Context, phaseID shared.PhaseID) error
	RescorePhase(ctx context.Context, phaseID shared.PhaseID) (int, error)
	RecomputeOverallScores(ctx context.Context, phaseID shared.PhaseID) (int, error)
	CountByPhase(ctx context.Context, phaseID shared.PhaseID) (int, error)
}

// PhaseService implements the Service interface.
type PhaseService struct {
	repo        phasedb.Repository
	challenges  ChallengeProvider
	submissions SubmissionCascade
	folders     storage.FolderService
	groups      storage.GroupService
	eventBus    eventbus.EventBus
	logger      *slog.Logger
	metrics     observability.OperationMetrics
	tracer      trace.Tracer
}

// NewPhaseService creates a new PhaseService.
func NewPhaseService(
	repo phasedb.Repository,
	challenges ChallengeProvider,
	submissions SubmissionCascade,
	folders storage.FolderService,
	groups storage.GroupService,
	eventBus eventbus.EventBus,
	logger *slog.Logger,
	metrics observability.OperationMetrics,
	tracer trace.Tracer,
) *PhaseService {
	return &PhaseService{
		repo:        repo,
		challenges:  challenges,
		submissions: submissions,
		folders:     folders,
		groups:      groups,
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
	s *PhaseService,
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
func (s *PhaseService) publishEvent(ctx context.Context, topic string, payload any) error {
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
