// Package submissionhandlers adapts the submission service to the event
// bus: phase ACL changes resync folder access, metric changes recompute
// overall scores, and scoring-job status transitions get recorded.
package submissionhandlers

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill/message"
	"go.opentelemetry.io/otel/trace"

	phaseevents "github.com/girder/covalic/app/modules/phase/domain/events"
	submissionevents "github.com/girder/covalic/app/modules/submission/domain/events"
	submissionservice "github.com/girder/covalic/app/modules/submission/application"
	"github.com/girder/covalic/app/shared"
	"github.com/girder/covalic/app/shared/handlerwrapper"
	"github.com/girder/covalic/app/shared/observability"
)

// SubmissionHandlers holds the wrapped watermill handlers for the
// submission module's subscriptions.
type SubmissionHandlers struct {
	PhaseACLChanged     message.HandlerFunc
	PhaseMetricsChanged message.HandlerFunc
	ScoringJobStatus    message.HandlerFunc
}

// NewSubmissionHandlers creates the submission module's event handlers.
func NewSubmissionHandlers(
	service submissionservice.Service,
	logger *slog.Logger,
	metrics observability.OperationMetrics,
	tracer trace.Tracer,
) *SubmissionHandlers {
	return &SubmissionHandlers{
		PhaseACLChanged: handlerwrapper.Wrap("HandlePhaseACLChanged", logger, metrics, tracer,
			func(ctx context.Context, payload *phaseevents.PhaseACLChangedEvent) ([]handlerwrapper.Result, error) {
				phaseID, err := shared.ParsePhaseID(payload.PhaseID)
				if err != nil {
					return nil, fmt.Errorf("invalid phase ID %q: %w", payload.PhaseID, err)
				}
				return nil, service.SyncPhaseFolderAccess(ctx, phaseID)
			}),

		PhaseMetricsChanged: handlerwrapper.Wrap("HandlePhaseMetricsChanged", logger, metrics, tracer,
			func(ctx context.Context, payload *phaseevents.PhaseMetricsChangedEvent) ([]handlerwrapper.Result, error) {
				phaseID, err := shared.ParsePhaseID(payload.PhaseID)
				if err != nil {
					return nil, fmt.Errorf("invalid phase ID %q: %w", payload.PhaseID, err)
				}
				_, err = service.RecomputeOverallScores(ctx, phaseID)
				return nil, err
			}),

		ScoringJobStatus: handlerwrapper.Wrap("HandleScoringJobStatus", logger, metrics, tracer,
			func(ctx context.Context, payload *submissionevents.ScoringJobStatusEvent) ([]handlerwrapper.Result, error) {
				jobID, err := shared.ParseJobID(payload.JobID)
				if err != nil {
					return nil, fmt.Errorf("invalid job ID %q: %w", payload.JobID, err)
				}
				return nil, service.HandleJobStatus(ctx, jobID, shared.JobStatus(payload.Status))
			}),
	}
}
