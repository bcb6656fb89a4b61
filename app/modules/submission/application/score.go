package submissionservice

import (
	"context"

	"github.com/girder/covalic/app/modules/submission/domain/scoring"
	submissionevents "github.com/girder/covalic/app/modules/submission/domain/events"
	submissiontypes "github.com/girder/covalic/app/modules/submission/domain/types"
	"github.com/girder/covalic/app/shared"
	"github.com/girder/covalic/app/shared/attr"
	"github.com/girder/covalic/app/shared/errs"
)

// ApplyScore records the raw score matrix posted by the scoring worker. It
// aggregates the per-metric averages, computes the weighted overall score,
// settles the latest flag, invalidates the scoring credential and notifies
// the submitter and phase administrators.
//
// Posting against an already-scored submission replaces its score wholesale.
// That is how rescoring lands its result, so there is no first-write-wins
// guard here; the credential revocation below keeps a worker from posting
// twice on one token.
func (s *SubmissionService) ApplyScore(ctx context.Context, actor shared.Identity, id shared.SubmissionID, raw shared.ScoreMatrix) (*submissiontypes.Submission, error) {
	return withTelemetry(s, ctx, "ApplyScore", id, func(ctx context.Context) (*submissiontypes.Submission, error) {
		sub, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		phase, err := s.phases.GetByID(ctx, sub.PhaseID)
		if err != nil {
			return nil, err
		}

		if phase.Access.LevelFor(actor) < shared.AccessAdmin {
			return nil, errs.Access("administrator access on the phase is required to post scores")
		}
		if len(raw) == 0 {
			return nil, errs.Validation("score payload contains no datasets")
		}

		aggregated := scoring.ComputeAverageScores(raw)
		overall := scoring.ComputeOverallScore(aggregated, phase.Metrics)

		// Promotion to latest happens only on the first scoring of a
		// submission; rescoring an already-scored one keeps flags as-is.
		makeLatest := sub.OverallScore == nil

		if err := s.repo.MarkScored(ctx, id, aggregated, overall, makeLatest); err != nil {
			return nil, err
		}
		sub.Score = aggregated
		sub.OverallScore = &overall
		if makeLatest {
			sub.Latest = true
		}

		rescoring := false
		if sub.JobID != nil {
			if job, err := s.repo.GetJob(ctx, *sub.JobID); err == nil {
				rescoring = job.Rescoring
			}
			if err := s.repo.RevokeJobToken(ctx, *sub.JobID); err != nil {
				s.logger.WarnContext(ctx, "Failed to revoke scoring token",
					attr.ExtractCorrelationID(ctx),
					attr.Stringer("job_id", *sub.JobID),
					attr.Error(err),
				)
			}
			if err := s.repo.UpdateJobStatus(ctx, *sub.JobID, shared.JobStatusSuccess); err != nil {
				s.logger.WarnContext(ctx, "Failed to mark scoring job complete",
					attr.ExtractCorrelationID(ctx),
					attr.Stringer("job_id", *sub.JobID),
					attr.Error(err),
				)
			}
		}

		s.sendScoredEmails(ctx, sub, phase, rescoring)

		if err := s.publishEvent(ctx, submissionevents.SubmissionScoredSubject, submissionevents.SubmissionScoredEvent{
			SubmissionID: sub.ID.String(),
			PhaseID:      phase.ID.String(),
			CreatorID:    sub.CreatorID.String(),
			OverallScore: overall,
			Latest:       sub.Latest,
		}); err != nil {
			s.logger.WarnContext(ctx, "Failed to publish scored event",
				attr.ExtractCorrelationID(ctx),
				attr.Stringer("submission_id", sub.ID),
				attr.Error(err),
			)
		}

		return sub, nil
	})
}

// RescoreSubmission re-dispatches scoring for a submission that currently
// represents its group. Rescoring a superseded submission would fight the
// latest flag, so it is rejected.
func (s *SubmissionService) RescoreSubmission(ctx context.Context, actor shared.Identity, id shared.SubmissionID) error {
	_, err := withTelemetry(s, ctx, "RescoreSubmission", id, func(ctx context.Context) (struct{}, error) {
		sub, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return struct{}{}, err
		}
		phase, err := s.phases.GetByID(ctx, sub.PhaseID)
		if err != nil {
			return struct{}{}, err
		}

		if phase.Access.LevelFor(actor) < shared.AccessAdmin {
			return struct{}{}, errs.Access("administrator access on the phase is required to rescore")
		}
		if !sub.Latest {
			return struct{}{}, errs.Validation("only the latest submission of its approach may be rescored")
		}

		return struct{}{}, s.queue.EnqueueScoreDispatch(ctx, id, true)
	})
	return err
}

// RescorePhase queues a rescore for every latest scored submission in the
// phase and returns how many were queued.
func (s *SubmissionService) RescorePhase(ctx context.Context, phaseID shared.PhaseID) (int, error) {
	return withTelemetry(s, ctx, "RescorePhase", phaseID, func(ctx context.Context) (int, error) {
		subs, err := s.repo.ListLatestScored(ctx, phaseID)
		if err != nil {
			return 0, err
		}
		for _, sub := range subs {
			if err := s.queue.EnqueueScoreDispatch(ctx, sub.ID, true); err != nil {
				return 0, errs.External("failed to queue rescore", err)
			}
		}
		return len(subs), nil
	})
}

// RecomputeOverallScores rebuilds overall scores from the stored score
// matrices after the phase's metric weights change. Every scored submission
// in the phase is rewritten, superseded ones included, since score history
// views read them too. The matrices already carry their Average row, so only
// the weighted reduction reruns; latest flags never move here.
func (s *SubmissionService) RecomputeOverallScores(ctx context.Context, phaseID shared.PhaseID) (int, error) {
	return withTelemetry(s, ctx, "RecomputeOverallScores", phaseID, func(ctx context.Context) (int, error) {
		phase, err := s.phases.GetByID(ctx, phaseID)
		if err != nil {
			return 0, err
		}
		subs, err := s.repo.ListScored(ctx, phaseID)
		if err != nil {
			return 0, err
		}

		for _, sub := range subs {
			overall := scoring.ComputeOverallScore(sub.Score, phase.Metrics)
			if err := s.repo.UpdateOverallScore(ctx, sub.ID, overall); err != nil {
				return 0, err
			}
		}

		s.logger.InfoContext(ctx, "Overall scores recomputed",
			attr.ExtractCorrelationID(ctx),
			attr.Stringer("phase_id", phaseID),
			attr.Int("submissions", len(subs)),
		)
		return len(subs), nil
	})
}
