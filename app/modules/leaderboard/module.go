// Package leaderboard assembles the leaderboard read model.
package leaderboard

import (
	"log/slog"

	leaderboardservice "github.com/girder/covalic/app/modules/leaderboard/application"
	"github.com/girder/covalic/app/shared/observability"
)

// Module bundles the leaderboard module's running pieces.
type Module struct {
	Service leaderboardservice.Service
	logger  *slog.Logger
}

// NewLeaderboardModule wires the leaderboard service over the phase and
// submission read interfaces.
func NewLeaderboardModule(
	obs *observability.Observability,
	phases leaderboardservice.PhaseProvider,
	submissions leaderboardservice.SubmissionProvider,
) *Module {
	logger := obs.Logger.With("module", "leaderboard")
	metrics := observability.NewOperationMetrics(obs.Registry, "leaderboard")

	service := leaderboardservice.NewLeaderboardService(
		phases,
		submissions,
		logger,
		metrics,
		obs.Tracer,
	)

	return &Module{Service: service, logger: logger}
}
