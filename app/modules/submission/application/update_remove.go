package submissionservice

import (
	"context"

	submissiontypes "github.com/girder/covalic/app/modules/submission/domain/types"
	"github.com/girder/covalic/app/shared"
	"github.com/girder/covalic/app/shared/attr"
	"github.com/girder/covalic/app/shared/errs"
)

// UpdateSubmission edits caller-editable fields. The creator and phase
// admins may edit; the approach may only change while the submission is
// unscored since it keys the latest-flag group.
func (s *SubmissionService) UpdateSubmission(ctx context.Context, actor shared.Identity, id shared.SubmissionID, params submissiontypes.UpdateParams) (*submissiontypes.Submission, error) {
	return withTelemetry(s, ctx, "UpdateSubmission", id, func(ctx context.Context) (*submissiontypes.Submission, error) {
		sub, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		phase, err := s.phases.GetByID(ctx, sub.PhaseID)
		if err != nil {
			return nil, err
		}

		if sub.CreatorID != actor.UserID && phase.Access.LevelFor(actor) < shared.AccessAdmin {
			return nil, errs.Access("you may not edit this submission")
		}

		if params.Title != nil {
			if *params.Title == "" {
				return nil, errs.ValidationField("title", "submission title is required")
			}
			sub.Title = *params.Title
		}
		if params.Approach != nil && *params.Approach != sub.Approach {
			if sub.Scored() {
				return nil, errs.ValidationField("approach", "the approach of a scored submission may not change")
			}
			sub.Approach = *params.Approach
		}
		if params.Organization != nil {
			sub.Organization = *params.Organization
		}
		if params.OrganizationURL != nil {
			sub.OrganizationURL = *params.OrganizationURL
		}
		if params.DocumentationURL != nil {
			sub.DocumentationURL = *params.DocumentationURL
		}
		if params.Meta != nil {
			sub.Meta = params.Meta
		}

		if err := s.repo.UpdateFields(ctx, sub); err != nil {
			return nil, err
		}
		return sub, nil
	})
}

// RemoveSubmission deletes one submission together with its backing folder.
// The creator and phase admins may remove.
func (s *SubmissionService) RemoveSubmission(ctx context.Context, actor shared.Identity, id shared.SubmissionID) error {
	_, err := withTelemetry(s, ctx, "RemoveSubmission", id, func(ctx context.Context) (struct{}, error) {
		sub, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return struct{}{}, err
		}
		phase, err := s.phases.GetByID(ctx, sub.PhaseID)
		if err != nil {
			return struct{}{}, err
		}

		if sub.CreatorID != actor.UserID && phase.Access.LevelFor(actor) < shared.AccessAdmin {
			return struct{}{}, errs.Access("you may not remove this submission")
		}

		s.removeFolder(ctx, sub.FolderID)
		return struct{}{}, s.repo.Delete(ctx, id)
	})
	return err
}

// RemoveByPhase deletes all of a phase's submissions and their backing
// folders as part of the phase removal cascade.
func (s *SubmissionService) RemoveByPhase(ctx context.Context, phaseID shared.PhaseID) error {
	_, err := withTelemetry(s, ctx, "RemoveByPhase", phaseID, func(ctx context.Context) (struct{}, error) {
		folderIDs, err := s.repo.DeleteByPhase(ctx, phaseID)
		if err != nil {
			return struct{}{}, err
		}
		for _, folderID := range folderIDs {
			s.removeFolder(ctx, folderID)
		}
		s.logger.InfoContext(ctx, "Phase submissions removed",
			attr.ExtractCorrelationID(ctx),
			attr.Stringer("phase_id", phaseID),
			attr.Int("submission_folders", len(folderIDs)),
		)
		return struct{}{}, nil
	})
	return err
}

// removeFolder deletes a submission's upload folder. A failure leaves an
// orphaned folder behind, which is recoverable, so it only warns.
func (s *SubmissionService) removeFolder(ctx context.Context, folderID shared.FolderID) {
	if err := s.folders.Remove(ctx, folderID); err != nil {
		s.logger.WarnContext(ctx, "Failed to remove submission folder",
			attr.ExtractCorrelationID(ctx),
			attr.Stringer("folder_id", folderID),
			attr.Error(err),
		)
	}
}
