package challengeservice

import (
	"context"

	"github.com/girder/covalic/app/shared"
	"github.com/girder/covalic/app/shared/attr"
)

// SyncAssetsFolderAccess mirrors the challenge's access list onto its assets
// folder. Driven by the saved event and safe to re-run at any time.
func (s *ChallengeService) SyncAssetsFolderAccess(ctx context.Context, id shared.ChallengeID) error {
	_, err := withTelemetry(s, ctx, "SyncAssetsFolderAccess", id, func(ctx context.Context) (struct{}, error) {
		challenge, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return struct{}{}, err
		}
		// Rows predating assets-folder provisioning carry no reference.
		if challenge.AssetsFolderID.IsNil() {
			return struct{}{}, nil
		}

		folder, err := s.folders.Load(ctx, challenge.AssetsFolderID)
		if err != nil {
			return struct{}{}, err
		}
		if folder.Access.Equal(challenge.Access) {
			return struct{}{}, nil
		}

		if err := s.folders.ApplyAccess(ctx, challenge.AssetsFolderID, challenge.Access); err != nil {
			return struct{}{}, err
		}
		s.logger.InfoContext(ctx, "Assets folder access updated",
			attr.ExtractCorrelationID(ctx),
			attr.Stringer("challenge_id", id),
			attr.Stringer("folder_id", challenge.AssetsFolderID),
		)
		return struct{}{}, nil
	})
	return err
}
