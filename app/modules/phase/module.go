// Package phase assembles the phase module.
package phase

import (
	"log/slog"

	phaseservice "github.com/girder/covalic/app/modules/phase/application"
	phasedb "github.com/girder/covalic/app/modules/phase/infrastructure/repositories"
	"github.com/girder/covalic/app/shared/eventbus"
	"github.com/girder/covalic/app/shared/observability"
	"github.com/girder/covalic/app/shared/storage"
)

// Module bundles the phase module's running pieces. The phase module only
// publishes events, so there is no router to run.
type Module struct {
	Service phaseservice.Service
	logger  *slog.Logger
}

// NewPhaseModule wires the phase service.
func NewPhaseModule(
	obs *observability.Observability,
	repo phasedb.Repository,
	challenges phaseservice.ChallengeProvider,
	submissions phaseservice.SubmissionCascade,
	folders storage.FolderService,
	groups storage.GroupService,
	eventBus eventbus.EventBus,
) *Module {
	logger := obs.Logger.With("module", "phase")
	metrics := observability.NewOperationMetrics(obs.Registry, "phase")

	service := phaseservice.NewPhaseService(
		repo,
		challenges,
		submissions,
		folders,
		groups,
		eventBus,
		logger,
		metrics,
		obs.Tracer,
	)

	return &Module{Service: service, logger: logger}
}
