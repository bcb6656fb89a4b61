// Package submissionqueue schedules scoring dispatches on a River job
// queue backed by Postgres.
package submissionqueue

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"

	"github.com/girder/covalic/app/shared"
	"github.com/girder/covalic/app/shared/attr"
	"github.com/girder/covalic/app/shared/observability"
)

// ScoringQueueName is the dedicated River queue for scoring dispatches.
const ScoringQueueName = "scoring"

// Dispatcher performs the actual dispatch work once a job is picked up.
type Dispatcher interface {
	DispatchScoring(ctx context.Context, id shared.SubmissionID, rescoring bool) error
}

// QueueService enqueues and works scoring dispatch jobs.
//
// The submission service both feeds this queue and handles its jobs, so the
// dispatcher is bound after construction via Bind rather than passed to
// NewQueueService.
type QueueService struct {
	client     *river.Client[pgx.Tx]
	pool       *pgxpool.Pool
	logger     *slog.Logger
	metrics    observability.OperationMetrics
	dispatcher atomic.Pointer[Dispatcher]
}

// NewQueueService creates the River client and registers the dispatch worker.
func NewQueueService(ctx context.Context, dsn string, logger *slog.Logger, metrics observability.OperationMetrics) (*QueueService, error) {
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse DSN: %w", err)
	}

	// River requires pgx, not database/sql.
	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create pgx pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	service := &QueueService{
		pool:    pool,
		logger:  logger,
		metrics: metrics,
	}

	workers := river.NewWorkers()
	river.AddWorker(workers, &scoreDispatchWorker{service: service})

	client, err := river.NewClient(riverpgxv5.New(pool), &river.Config{
		Queues: map[string]river.QueueConfig{
			river.QueueDefault: {MaxWorkers: 10},
			ScoringQueueName:   {MaxWorkers: 25},
		},
		Workers: workers,
	})
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to create River client: %w", err)
	}
	service.client = client

	logger.InfoContext(ctx, "Submission queue service initialized")
	return service, nil
}

// Bind attaches the dispatcher that worked jobs delegate to. It must be
// called before Start.
func (s *QueueService) Bind(dispatcher Dispatcher) {
	s.dispatcher.Store(&dispatcher)
}

// Start begins working jobs.
func (s *QueueService) Start(ctx context.Context) error {
	if s.dispatcher.Load() == nil {
		return fmt.Errorf("queue started without a dispatcher")
	}
	if err := s.client.Start(ctx); err != nil {
		return fmt.Errorf("failed to start River client: %w", err)
	}
	s.logger.InfoContext(ctx, "Submission queue service started")
	return nil
}

// Stop drains in-flight jobs and closes the pool.
func (s *QueueService) Stop(ctx context.Context) error {
	if err := s.client.Stop(ctx); err != nil {
		return fmt.Errorf("failed to stop River client: %w", err)
	}
	s.pool.Close()
	s.logger.InfoContext(ctx, "Submission queue service stopped")
	return nil
}

// EnqueueScoreDispatch queues a scoring run for the submission. Duplicate
// enqueues of the same submission and rescoring flag collapse into one
// pending job.
func (s *QueueService) EnqueueScoreDispatch(ctx context.Context, submissionID shared.SubmissionID, rescoring bool) error {
	start := time.Now()
	s.metrics.RecordOperationAttempt("EnqueueScoreDispatch")

	job := ScoreDispatchJob{
		SubmissionID: submissionID.String(),
		Rescoring:    rescoring,
	}
	result, err := s.client.Insert(ctx, job, &river.InsertOpts{
		Queue: ScoringQueueName,
		UniqueOpts: river.UniqueOpts{
			ByArgs: true,
		},
	})
	if err != nil {
		s.metrics.RecordOperationFailure("EnqueueScoreDispatch")
		return fmt.Errorf("failed to enqueue score dispatch: %w", err)
	}

	s.metrics.RecordOperationSuccess("EnqueueScoreDispatch")
	s.metrics.RecordOperationDuration("EnqueueScoreDispatch", time.Since(start))
	s.logger.InfoContext(ctx, "Score dispatch enqueued",
		attr.Stringer("submission_id", submissionID),
		attr.Bool("rescoring", rescoring),
		attr.Int64("job_id", result.Job.ID),
	)
	return nil
}

// scoreDispatchWorker hands queued jobs to the bound dispatcher.
type scoreDispatchWorker struct {
	river.WorkerDefaults[ScoreDispatchJob]
	service *QueueService
}

func (w *scoreDispatchWorker) Work(ctx context.Context, job *river.Job[ScoreDispatchJob]) error {
	dispatcher := w.service.dispatcher.Load()
	if dispatcher == nil {
		return fmt.Errorf("no dispatcher bound")
	}

	submissionID, err := shared.ParseSubmissionID(job.Args.SubmissionID)
	if err != nil {
		// A malformed ID never becomes valid; cancel instead of retrying.
		return river.JobCancel(fmt.Errorf("invalid submission ID %q: %w", job.Args.SubmissionID, err))
	}

	w.service.logger.InfoContext(ctx, "Working score dispatch job",
		attr.Stringer("submission_id", submissionID),
		attr.Bool("rescoring", job.Args.Rescoring),
		attr.Int("attempt", job.Attempt),
	)
	return (*dispatcher).DispatchScoring(ctx, submissionID, job.Args.Rescoring)
}
