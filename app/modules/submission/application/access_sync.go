package submissionservice

import (
	"context"

	phasetypes "github.com/girder/covalic/app/modules/phase/domain/types"
	submissiontypes "github.com/girder/covalic/app/modules/submission/domain/types"
	"github.com/girder/covalic/app/shared"
	"github.com/girder/covalic/app/shared/attr"
)

// SyncPhaseFolderAccess reconciles every submission folder's ACL in the
// phase with the phase's administrator set. Driven by the phase ACL change
// event and safe to re-run at any time.
func (s *SubmissionService) SyncPhaseFolderAccess(ctx context.Context, phaseID shared.PhaseID) error {
	_, err := withTelemetry(s, ctx, "SyncPhaseFolderAccess", phaseID, func(ctx context.Context) (struct{}, error) {
		phase, err := s.phases.GetByID(ctx, phaseID)
		if err != nil {
			return struct{}{}, err
		}

		subs, err := s.repo.List(ctx, submissiontypes.ListParams{PhaseID: phaseID})
		if err != nil {
			return struct{}{}, err
		}

		folderIDs := make([]shared.FolderID, 0, len(subs))
		seen := make(map[shared.FolderID]bool, len(subs))
		for _, sub := range subs {
			if !seen[sub.FolderID] {
				seen[sub.FolderID] = true
				folderIDs = append(folderIDs, sub.FolderID)
			}
		}
		return struct{}{}, s.updateFolderAccess(ctx, phase, folderIDs)
	})
	return err
}

// updateFolderAccess brings each folder's ACL in line with the phase: users
// who are neither the folder creator nor phase administrators lose access,
// and every phase administrator holds at least READ. Folders already in the
// desired state are not rewritten.
func (s *SubmissionService) updateFolderAccess(ctx context.Context, phase *phasetypes.Phase, folderIDs []shared.FolderID) error {
	adminIDs := phase.Access.AdminUserIDs()
	adminSet := make(map[shared.UserID]bool, len(adminIDs))
	for _, id := range adminIDs {
		adminSet[id] = true
	}

	for _, folderID := range folderIDs {
		folder, err := s.folders.Load(ctx, folderID)
		if err != nil {
			return err
		}

		desired := folder.Access
		changed := false

		for _, u := range folder.Access.Users {
			if u.UserID == folder.CreatorID || adminSet[u.UserID] {
				continue
			}
			desired = desired.WithUserAccess(u.UserID, shared.AccessNone)
			changed = true
		}
		for _, id := range adminIDs {
			if desired.UserLevel(id) < shared.AccessRead {
				desired = desired.WithUserAccess(id, shared.AccessRead)
				changed = true
			}
		}

		if !changed {
			continue
		}
		if err := s.folders.ApplyAccess(ctx, folderID, desired); err != nil {
			return err
		}
		s.logger.InfoContext(ctx, "Submission folder access updated",
			attr.ExtractCorrelationID(ctx),
			attr.Stringer("phase_id", phase.ID),
			attr.Stringer("folder_id", folderID),
		)
	}
	return nil
}
