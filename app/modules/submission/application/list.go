package submissionservice

import (
	"context"

	phasetypes "github.com/girder/covalic/app/modules/phase/domain/types"
	submissiontypes "github.com/girder/covalic/app/modules/submission/domain/types"
	"github.com/girder/covalic/app/shared"
	"github.com/girder/covalic/app/shared/errs"
)

// GetSubmission loads one submission. Score fields are withheld on
// hide-scores phases from everyone below phase admin.
func (s *SubmissionService) GetSubmission(ctx context.Context, actor shared.Identity, id shared.SubmissionID) (*submissiontypes.Submission, error) {
	return withTelemetry(s, ctx, "GetSubmission", id, func(ctx context.Context) (*submissiontypes.Submission, error) {
		sub, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		phase, err := s.phases.GetByID(ctx, sub.PhaseID)
		if err != nil {
			return nil, err
		}

		level := phase.Access.LevelFor(actor)
		if level < shared.AccessRead && sub.CreatorID != actor.UserID {
			return nil, errs.Access("you do not have access to this submission")
		}

		if hideScoresFrom(phase, level) {
			redactScores(sub)
		}
		return sub, nil
	})
}

// ListSubmissions pages a phase's submissions. On hide-scores phases,
// non-admin readers get redacted rows and may not sort by score.
func (s *SubmissionService) ListSubmissions(ctx context.Context, actor shared.Identity, params submissiontypes.ListParams) ([]submissiontypes.Submission, error) {
	return withTelemetry(s, ctx, "ListSubmissions", params.PhaseID, func(ctx context.Context) ([]submissiontypes.Submission, error) {
		phase, err := s.phases.GetByID(ctx, params.PhaseID)
		if err != nil {
			return nil, err
		}

		level := phase.Access.LevelFor(actor)
		if level < shared.AccessRead {
			return nil, errs.Access("you do not have access to this phase")
		}

		hidden := hideScoresFrom(phase, level)
		if hidden && params.SortField == "overallScore" {
			return nil, errs.Access("score-based sorting is not available on this phase")
		}

		subs, err := s.repo.List(ctx, params)
		if err != nil {
			return nil, err
		}
		if hidden {
			for i := range subs {
				redactScores(&subs[i])
			}
		}
		return subs, nil
	})
}

// ListApproaches returns the approach names a user has submitted under in a
// phase. Users may list their own; listing another user's requires phase
// admin.
func (s *SubmissionService) ListApproaches(ctx context.Context, actor shared.Identity, phaseID shared.PhaseID, userID shared.UserID) ([]string, error) {
	return withTelemetry(s, ctx, "ListApproaches", phaseID, func(ctx context.Context) ([]string, error) {
		if userID != actor.UserID {
			phase, err := s.phases.GetByID(ctx, phaseID)
			if err != nil {
				return nil, err
			}
			if phase.Access.LevelFor(actor) < shared.AccessAdmin {
				return nil, errs.Access("administrator access is required to list another user's approaches")
			}
		}
		return s.repo.ListApproaches(ctx, phaseID, userID)
	})
}

// CountByPhase reports how many submissions a phase holds.
func (s *SubmissionService) CountByPhase(ctx context.Context, phaseID shared.PhaseID) (int, error) {
	return s.repo.CountByPhase(ctx, phaseID)
}

// hideScoresFrom reports whether score fields must be withheld from a
// reader at the given phase access level.
func hideScoresFrom(phase *phasetypes.Phase, level shared.AccessLevel) bool {
	return phase.HideScores && level < shared.AccessAdmin
}

func redactScores(sub *submissiontypes.Submission) {
	sub.Score = nil
	sub.OverallScore = nil
}
