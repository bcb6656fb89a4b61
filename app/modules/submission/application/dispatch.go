package submissionservice

import (
	"context"
	"fmt"

	phasetypes "github.com/girder/covalic/app/modules/phase/domain/types"
	submissionevents "github.com/girder/covalic/app/modules/submission/domain/events"
	submissiondb "github.com/girder/covalic/app/modules/submission/infrastructure/repositories"
	"github.com/girder/covalic/app/shared"
	"github.com/girder/covalic/app/shared/attr"
	"github.com/girder/covalic/app/shared/errs"
)

// DispatchScoring issues a scoring credential for the submission, applies
// the access grants the scoring worker needs and publishes the dispatch
// event. Runs from the job queue, so every step is safe to repeat.
func (s *SubmissionService) DispatchScoring(ctx context.Context, id shared.SubmissionID, rescoring bool) error {
	_, err := withTelemetry(s, ctx, "DispatchScoring", id, func(ctx context.Context) (struct{}, error) {
		sub, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return struct{}{}, err
		}
		phase, err := s.phases.GetByID(ctx, sub.PhaseID)
		if err != nil {
			return struct{}{}, err
		}

		scoringUser, err := s.resolveScoringUser(ctx)
		if err != nil {
			return struct{}{}, err
		}

		if err := s.grantScoringAccess(ctx, scoringUser.UserID, sub.FolderID, phase); err != nil {
			return struct{}{}, errs.External("failed to grant scoring access", err)
		}

		token, tokenID, err := s.tokens.GenerateScoringToken(scoringUser.UserID.String(), id.String(), s.opts.TokenTTL)
		if err != nil {
			return struct{}{}, fmt.Errorf("failed to issue scoring token: %w", err)
		}

		job := &submissiondb.ScoringJob{
			SubmissionID: id,
			Status:       shared.JobStatusQueued,
			TokenID:      tokenID,
			Rescoring:    rescoring,
		}
		if err := s.repo.CreateJob(ctx, job); err != nil {
			return struct{}{}, err
		}
		if err := s.repo.SetJobID(ctx, id, job.ID); err != nil {
			return struct{}{}, err
		}

		image := s.opts.DefaultImage
		args := []string{
			fmt.Sprintf("--groundtruth=%s/folder/%s/download", s.opts.APIBaseURL, phase.GroundTruthFolderID),
			fmt.Sprintf("--submission=%s/folder/%s/download", s.opts.APIBaseURL, sub.FolderID),
		}
		if phase.ScoreTask != nil {
			if phase.ScoreTask.DockerImage != "" {
				image = phase.ScoreTask.DockerImage
			}
			if len(phase.ScoreTask.DockerArgs) > 0 {
				args = phase.ScoreTask.DockerArgs
			}
		}

		event := submissionevents.ScoringJobDispatchEvent{
			JobID:        job.ID.String(),
			SubmissionID: id.String(),
			PhaseID:      phase.ID.String(),
			Image:        image,
			Args:         args,
			Token:        token,
			ScoreURL:     fmt.Sprintf("%s/covalic_submission/%s/score", s.opts.APIBaseURL, id),
			StatusURL:    fmt.Sprintf("%s/covalic_job/%s/status", s.opts.APIBaseURL, job.ID),
			LogURL:       fmt.Sprintf("%s/covalic_job/%s/log", s.opts.APIBaseURL, job.ID),
			Rescoring:    rescoring,
		}
		if err := s.publishEvent(ctx, submissionevents.ScoringJobDispatchSubject, event); err != nil {
			return struct{}{}, err
		}

		s.logger.InfoContext(ctx, "Scoring job dispatched",
			attr.ExtractCorrelationID(ctx),
			attr.Stringer("submission_id", id),
			attr.Stringer("job_id", job.ID),
			attr.String("image", image),
			attr.Bool("rescoring", rescoring),
		)
		return struct{}{}, nil
	})
	return err
}

// resolveScoringUser maps the configured scoring identity to a directory
// entry. A missing or unknown identity is a configuration error, not an
// access error.
func (s *SubmissionService) resolveScoringUser(ctx context.Context) (*shared.Identity, error) {
	if s.opts.ScoringUserID == "" {
		return nil, errs.Configuration("no scoring user is configured")
	}
	userID, err := shared.ParseUserID(s.opts.ScoringUserID)
	if err != nil {
		return nil, errs.Configuration("the configured scoring user ID is not a valid UUID")
	}
	user, err := s.users.Load(ctx, userID)
	if err != nil {
		return nil, errs.Configuration("the configured scoring user does not exist")
	}
	return &shared.Identity{UserID: user.ID, Name: user.Name, Email: user.Email}, nil
}

// grantScoringAccess gives the scoring user READ on the submission and
// ground-truth folders and ADMIN on the phase. All three grants are
// idempotent.
func (s *SubmissionService) grantScoringAccess(ctx context.Context, scoringUserID shared.UserID, folderID shared.FolderID, phase *phasetypes.Phase) error {
	if err := s.folders.SetUserAccess(ctx, folderID, scoringUserID, shared.AccessRead); err != nil {
		return err
	}
	if err := s.folders.SetUserAccess(ctx, phase.GroundTruthFolderID, scoringUserID, shared.AccessRead); err != nil {
		return err
	}
	if phase.Access.UserLevel(scoringUserID) < shared.AccessAdmin {
		updated := phase.Access.WithUserAccess(scoringUserID, shared.AccessAdmin)
		if err := s.phases.UpdateAccess(ctx, phase.ID, updated); err != nil {
			return err
		}
		phase.Access = updated
	}
	return nil
}
