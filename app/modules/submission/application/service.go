package submissionservice

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

	phasetypes "github.com/girder/covalic/app/modules/phase/domain/types"
	submissiondb "github.com/girder/covalic/app/modules/submission/infrastructure/repositories"
	"github.com/girder/covalic/app/shared"
	"github.com/girder/covalic/app/shared/attr"
	"github.com/girder/covalic/app/shared/eventbus"
	"github.com/girder/covalic/app/shared/observability"
	"github.com/girder/covalic/app/shared/storage"
	"github.com/girder/covalic/pkg/jwt"
)

// PhaseProvider is the slice of phase persistence the submission module
// needs: reading phase state and extending its ACL for the scoring user.
type PhaseProvider interface {
	GetByID(ctx context.Context, id shared.PhaseID) (*phasetypes.Phase, error)
	UpdateAccess(ctx context.Context, id shared.PhaseID, access shared.AccessList) error
}

// ScoreDispatchQueue enqueues scoring-dispatch work for asynchronous
// execution.
type ScoreDispatchQueue interface {
	EnqueueScoreDispatch(ctx context.Context, submissionID shared.SubmissionID, rescoring bool) error
}

// ScoringOptions carries the dispatch configuration.
type ScoringOptions struct {
	// ScoringUserID is the identity the scoring workers run as. Dispatch
	// fails with a configuration error when it is empty or unknown.
	ScoringUserID string
	DefaultImage  string
	TokenTTL      time.Duration
	// APIBaseURL is the externally reachable prefix baked into the data
	// and callback URLs handed to workers.
	APIBaseURL string
}

// SubmissionService implements the Service interface.
type SubmissionService struct {
	repo     submissiondb.Repository
	phases   PhaseProvider
	folders  storage.FolderService
	users    storage.UserDirectory
	eventBus eventbus.EventBus
	queue    ScoreDispatchQueue
	tokens   jwt.Service
	opts     ScoringOptions
	logger   *slog.Logger
	metrics  observability.OperationMetrics
	tracer   trace.Tracer
}

// NewSubmissionService creates a new SubmissionService.
func NewSubmissionService(
	repo submissiondb.Repository,
	phases PhaseProvider,
	folders storage.FolderService,
	users storage.UserDirectory,
	eventBus eventbus.EventBus,
	queue ScoreDispatchQueue,
	tokens jwt.Service,
	opts ScoringOptions,
	logger *slog.Logger,
	metrics observability.OperationMetrics,
	tracer trace.Tracer,
) *SubmissionService {
	return &SubmissionService{
		repo:     repo,
		phases:   phases,
		folders:  folders,
		users:    users,
		eventBus: eventBus,
		queue:    queue,
		tokens:   tokens,
		opts:     opts,
		logger:   logger,
		metrics:  metrics,
		tracer:   tracer,
	}
}

// operationFunc is the generic signature for service operation functions.
type operationFunc[T any] func(ctx context.Context) (T, error)

// withTelemetry wraps a service operation with tracing, metrics, and panic
// recovery. Domain errors pass through unwrapped aside from the operation
// prefix so callers can still classify them.
func withTelemetry[T any](
	s *SubmissionService,
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
func (s *SubmissionService) publishEvent(ctx context.Context, topic string, payload any) error {
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
