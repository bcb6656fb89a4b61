package phaseservice

import (
	"context"

	phasetypes "github.com/girder/covalic/app/modules/phase/domain/types"
	"github.com/girder/covalic/app/shared"
	"github.com/girder/covalic/app/shared/attr"
	"github.com/girder/covalic/app/shared/errs"
)

// RemovePhase removes the phase, its submissions and its storage folders.
func (s *PhaseService) RemovePhase(ctx context.Context, actor shared.Identity, id shared.PhaseID) error {
	_, err := withTelemetry(s, ctx, "RemovePhase", id, func(ctx context.Context) (struct{}, error) {
		phase, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return struct{}{}, err
		}
		if phase.Access.LevelFor(actor) < shared.AccessAdmin {
			return struct{}{}, errs.Access("administrator access is required to remove this phase")
		}
		return struct{}{}, s.removePhase(ctx, phase)
	})
	return err
}

// RemoveByChallenge removes every phase of a challenge. Part of the
// challenge removal cascade; access is the caller's concern.
func (s *PhaseService) RemoveByChallenge(ctx context.Context, challengeID shared.ChallengeID) error {
	_, err := withTelemetry(s, ctx, "RemoveByChallenge", challengeID, func(ctx context.Context) (struct{}, error) {
		phases, err := s.repo.ListByChallenge(ctx, challengeID)
		if err != nil {
			return struct{}{}, err
		}
		for i := range phases {
			if err := s.removePhase(ctx, &phases[i]); err != nil {
				return struct{}{}, err
			}
		}
		return struct{}{}, nil
	})
	return err
}

// removePhase cascades one phase's removal: submissions first, then the
// phase-owned folders, then the row. Submission folders belong to their
// uploaders and are not touched.
func (s *PhaseService) removePhase(ctx context.Context, phase *phasetypes.Phase) error {
	if err := s.submissions.RemoveByPhase(ctx, phase.ID); err != nil {
		return err
	}

	for _, folderID := range []shared.FolderID{phase.FolderID, phase.GroundTruthFolderID, phase.TestDataFolderID} {
		if folderID.IsNil() {
			continue
		}
		if err := s.folders.Remove(ctx, folderID); err != nil {
			s.logger.WarnContext(ctx, "Failed to remove phase folder",
				attr.ExtractCorrelationID(ctx),
				attr.Stringer("phase_id", phase.ID),
				attr.Stringer("folder_id", folderID),
				attr.Error(err),
			)
		}
	}

	if err := s.repo.Delete(ctx, phase.ID); err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "Phase removed",
		attr.ExtractCorrelationID(ctx),
		attr.Stringer("phase_id", phase.ID),
		attr.Stringer("challenge_id", phase.ChallengeID),
	)
	return nil
}

// SubtreeCount reports how many records removing the phase would destroy:
// the phase row plus each of its submissions.
func (s *PhaseService) SubtreeCount(ctx context.Context, actor shared.Identity, id shared.PhaseID) (int, error) {
	return withTelemetry(s, ctx, "SubtreeCount", id, func(ctx context.Context) (int, error) {
		phase, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return 0, err
		}
		if phase.Access.LevelFor(actor) < shared.AccessAdmin {
			return 0, errs.Access("administrator access is required to inspect this phase")
		}
		count, err := s.submissions.CountByPhase(ctx, id)
		if err != nil {
			return 0, err
		}
		return count + 1, nil
	})
}

// SubtreeCountByChallenge totals the subtree sizes of every phase in a
// challenge, without an access check.
func (s *PhaseService) SubtreeCountByChallenge(ctx context.Context, challengeID shared.ChallengeID) (int, error) {
	return withTelemetry(s, ctx, "SubtreeCountByChallenge", challengeID, func(ctx context.Context) (int, error) {
		phases, err := s.repo.ListByChallenge(ctx, challengeID)
		if err != nil {
			return 0, err
		}
		total := 0
		for _, phase := range phases {
			count, err := s.submissions.CountByPhase(ctx, phase.ID)
			if err != nil {
				return 0, err
			}
			total += count + 1
		}
		return total, nil
	})
}
