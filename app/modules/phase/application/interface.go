package phaseservice

import (
	"context"

	phasetypes "github.com/girder/covalic/app/modules/phase/domain/types"
	"github.com/girder/covalic/app/shared"
)

// Service is the phase module's application surface.
type Service interface {
	// CreatePhase provisions the phase with its participant group and
	// storage folders under the challenge's collection.
	CreatePhase(ctx context.Context, actor shared.Identity, params phasetypes.CreateParams) (*phasetypes.Phase, error)

	// GetPhase loads one phase, enforcing read access.
	GetPhase(ctx context.Context, actor shared.Identity, id shared.PhaseID) (*phasetypes.Phase, error)

	// ListPhases returns the challenge's phases the actor can see, in
	// ordinal order.
	ListPhases(ctx context.Context, actor shared.Identity, challengeID shared.ChallengeID) ([]phasetypes.Phase, error)

	// UpdatePhase edits phase fields.
	UpdatePhase(ctx context.Context, actor shared.Identity, id shared.PhaseID, params phasetypes.UpdateParams) (*phasetypes.Phase, error)

	// SetMetrics replaces the phase's metric weights, optionally copying
	// them from another phase. A change triggers overall-score
	// recomputation through the metrics-changed event.
	SetMetrics(ctx context.Context, actor shared.Identity, id shared.PhaseID, metrics shared.MetricWeights, copyFrom *shared.PhaseID) (*phasetypes.Phase, error)

	// SetScoringInfo replaces the phase's scoring-container override.
	SetScoringInfo(ctx context.Context, actor shared.Identity, id shared.PhaseID, task *shared.ScoreTask) (*phasetypes.Phase, error)

	// UpdateAccess replaces the phase's access list and announces the
	// change so submission folder ACLs resynchronize.
	UpdateAccess(ctx context.Context, actor shared.Identity, id shared.PhaseID, access shared.AccessList) error

	// JoinPhase adds the actor to the phase's participant group.
	JoinPhase(ctx context.Context, actor shared.Identity, id shared.PhaseID) error

	// RescorePhase queues a rescore of every latest scored submission.
	RescorePhase(ctx context.Context, actor shared.Identity, id shared.PhaseID) (int, error)

	// RemovePhase removes the phase, its submissions and its folders.
	RemovePhase(ctx context.Context, actor shared.Identity, id shared.PhaseID) error

	// RemoveByChallenge removes all of a challenge's phases as part of the
	// challenge cascade. No access check of its own.
	RemoveByChallenge(ctx context.Context, challengeID shared.ChallengeID) error

	// SubtreeCount reports how many records a phase removal would destroy:
	// the phase itself plus its submissions.
	SubtreeCount(ctx context.Context, actor shared.Identity, id shared.PhaseID) (int, error)

	// SubtreeCountByChallenge totals SubtreeCount over a challenge's
	// phases.
	SubtreeCountByChallenge(ctx context.Context, challengeID shared.ChallengeID) (int, error)
}

var _ Service = (*PhaseService)(nil)
