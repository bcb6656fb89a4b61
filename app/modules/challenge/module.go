// Package challenge assembles the challenge module: service, event handlers
// and router registration.
package challenge

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill/message"

	challengeservice "github.com/girder/covalic/app/modules/challenge/application"
	challengehandlers "github.com/girder/covalic/app/modules/challenge/infrastructure/handlers"
	challengedb "github.com/girder/covalic/app/modules/challenge/infrastructure/repositories"
	challengerouter "github.com/girder/covalic/app/modules/challenge/infrastructure/router"
	"github.com/girder/covalic/app/shared/eventbus"
	"github.com/girder/covalic/app/shared/observability"
	"github.com/girder/covalic/app/shared/storage"
)

// Module bundles the challenge module's running pieces.
type Module struct {
	Service challengeservice.Service
	Router  *challengerouter.ChallengeRouter
	logger  *slog.Logger
}

// NewChallengeModule wires the challenge service and its event
// subscriptions.
func NewChallengeModule(
	ctx context.Context,
	obs *observability.Observability,
	repo challengedb.Repository,
	phases challengeservice.PhaseCascade,
	collections storage.CollectionService,
	folders storage.FolderService,
	eventBus eventbus.EventBus,
	router *message.Router,
) (*Module, error) {
	logger := obs.Logger.With("module", "challenge")
	metrics := observability.NewOperationMetrics(obs.Registry, "challenge")

	service := challengeservice.NewChallengeService(
		repo,
		phases,
		collections,
		folders,
		eventBus,
		logger,
		metrics,
		obs.Tracer,
	)

	handlers := challengehandlers.NewChallengeHandlers(service, logger, metrics, obs.Tracer)

	chRouter := challengerouter.NewChallengeRouter(logger, router, eventBus, eventBus)
	if err := chRouter.Configure(ctx, handlers); err != nil {
		return nil, fmt.Errorf("failed to configure challenge router: %w", err)
	}

	return &Module{Service: service, Router: chRouter, logger: logger}, nil
}
