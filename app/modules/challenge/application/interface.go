package challengeservice

import (
	"context"

	challengetypes "github.com/girder/covalic/app/modules/challenge/domain/types"
	"github.com/girder/covalic/app/shared"
)

// Service is the challenge module's application surface.
type Service interface {
	CreateChallenge(ctx context.Context, actor shared.Identity, params challengetypes.CreateParams) (*challengetypes.Challenge, error)
	GetChallenge(ctx context.Context, actor shared.Identity, id shared.ChallengeID) (*challengetypes.Challenge, error)
	ListChallenges(ctx context.Context, actor shared.Identity, timeframe challengetypes.Timeframe, limit, offset int) ([]challengetypes.Challenge, error)
	UpdateChallenge(ctx context.Context, actor shared.Identity, id shared.ChallengeID, params challengetypes.UpdateParams) (*challengetypes.Challenge, error)
	UpdateAccess(ctx context.Context, actor shared.Identity, id shared.ChallengeID, access shared.AccessList) error
	RemoveChallenge(ctx context.Context, actor shared.Identity, id shared.ChallengeID) error
	// SubtreeCount reports how many records a removal would destroy.
	SubtreeCount(ctx context.Context, actor shared.Identity, id shared.ChallengeID) (int, error)
	// SyncAssetsFolderAccess mirrors the challenge ACL onto its assets
	// folder. Driven by the saved event.
	SyncAssetsFolderAccess(ctx context.Context, challengeID shared.ChallengeID) error
}

var _ Service = (*ChallengeService)(nil)
