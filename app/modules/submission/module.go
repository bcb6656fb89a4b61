// Package submission assembles the submission module: service, event
// handlers, router registration and the scoring dispatch queue.
package submission

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/ThreeDotsLabs/watermill/message"

	submissionservice "github.com/girder/covalic/app/modules/submission/application"
	submissionhandlers "github.com/girder/covalic/app/modules/submission/infrastructure/handlers"
	submissionqueue "github.com/girder/covalic/app/modules/submission/infrastructure/queue"
	submissiondb "github.com/girder/covalic/app/modules/submission/infrastructure/repositories"
	submissionrouter "github.com/girder/covalic/app/modules/submission/infrastructure/router"
	"github.com/girder/covalic/app/shared/eventbus"
	"github.com/girder/covalic/app/shared/observability"
	"github.com/girder/covalic/app/shared/storage"
	"github.com/girder/covalic/config"
	"github.com/girder/covalic/pkg/jwt"
)

// Module bundles the submission module's running pieces.
type Module struct {
	Service    submissionservice.Service
	Router     *submissionrouter.SubmissionRouter
	Queue      *submissionqueue.QueueService
	cancelFunc context.CancelFunc
	logger     *slog.Logger
}

// NewSubmissionModule wires the submission service, its queue, and its event
// subscriptions.
func NewSubmissionModule(
	ctx context.Context,
	cfg *config.Config,
	obs *observability.Observability,
	repo submissiondb.Repository,
	phases submissionservice.PhaseProvider,
	folders storage.FolderService,
	users storage.UserDirectory,
	eventBus eventbus.EventBus,
	tokens jwt.Service,
	router *message.Router,
) (*Module, error) {
	logger := obs.Logger.With("module", "submission")
	metrics := observability.NewOperationMetrics(obs.Registry, "submission")

	queue, err := submissionqueue.NewQueueService(ctx, cfg.Postgres.DSN, logger, metrics)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize dispatch queue: %w", err)
	}

	service := submissionservice.NewSubmissionService(
		repo,
		phases,
		folders,
		users,
		eventBus,
		queue,
		tokens,
		submissionservice.ScoringOptions{
			ScoringUserID: cfg.Scoring.UserID,
			DefaultImage:  cfg.Scoring.DefaultImage,
			TokenTTL:      cfg.Scoring.TokenTTL,
			APIBaseURL:    cfg.HTTP.APIBaseURL,
		},
		logger,
		metrics,
		obs.Tracer,
	)
	queue.Bind(service)

	handlers := submissionhandlers.NewSubmissionHandlers(service, logger, metrics, obs.Tracer)

	subRouter := submissionrouter.NewSubmissionRouter(logger, router, eventBus, eventBus)
	if err := subRouter.Configure(ctx, handlers); err != nil {
		return nil, fmt.Errorf("failed to configure submission router: %w", err)
	}

	return &Module{
		Service: service,
		Router:  subRouter,
		Queue:   queue,
		logger:  logger,
	}, nil
}

// Run starts the dispatch queue and blocks until the context is canceled.
func (m *Module) Run(ctx context.Context, wg *sync.WaitGroup) error {
	ctx, cancel := context.WithCancel(ctx)
	m.cancelFunc = cancel
	defer cancel()
	if wg != nil {
		defer wg.Done()
	}

	if err := m.Queue.Start(ctx); err != nil {
		return fmt.Errorf("failed to start dispatch queue: %w", err)
	}
	m.logger.Info("Submission module started")

	<-ctx.Done()
	m.logger.Info("Submission module stopped")
	return nil
}

// Close stops the queue and cancels the module context.
func (m *Module) Close() error {
	if m.cancelFunc != nil {
		m.cancelFunc()
	}
	return m.Queue.Stop(context.Background())
}
