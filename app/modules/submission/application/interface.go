package submissionservice

import (
	"context"

	submissiontypes "github.com/girder/covalic/app/modules/submission/domain/types"
	"github.com/girder/covalic/app/shared"
)

// Service is the submission module's application surface. Every operation
// takes the acting identity explicitly; there is no ambient user.
type Service interface {
	// CreateSubmission validates the phase gates and field flags, records
	// the submission, synchronizes its folder ACL and queues scoring.
	CreateSubmission(ctx context.Context, actor shared.Identity, params submissiontypes.CreateParams) (*submissiontypes.Submission, error)

	// GetSubmission loads one submission, applying score hiding.
	GetSubmission(ctx context.Context, actor shared.Identity, id shared.SubmissionID) (*submissiontypes.Submission, error)

	// ListSubmissions pages a phase's submissions, applying score hiding.
	ListSubmissions(ctx context.Context, actor shared.Identity, params submissiontypes.ListParams) ([]submissiontypes.Submission, error)

	// ListApproaches returns the approach names a user has submitted under.
	ListApproaches(ctx context.Context, actor shared.Identity, phaseID shared.PhaseID, userID shared.UserID) ([]string, error)

	// UpdateSubmission edits caller-editable fields.
	UpdateSubmission(ctx context.Context, actor shared.Identity, id shared.SubmissionID, params submissiontypes.UpdateParams) (*submissiontypes.Submission, error)

	// RemoveSubmission deletes one submission.
	RemoveSubmission(ctx context.Context, actor shared.Identity, id shared.SubmissionID) error

	// CountByPhase reports how many submissions a phase holds. Used by the
	// subtree accounting shown before destructive removals.
	CountByPhase(ctx context.Context, phaseID shared.PhaseID) (int, error)

	// RemoveByPhase deletes all of a phase's submissions. Used by the phase
	// cascade; it performs no access check of its own.
	RemoveByPhase(ctx context.Context, phaseID shared.PhaseID) error

	// ApplyScore records a raw score matrix posted by the scoring worker:
	// aggregation, overall score, latest-flag settlement, credential
	// invalidation and notification emails.
	ApplyScore(ctx context.Context, actor shared.Identity, id shared.SubmissionID, raw shared.ScoreMatrix) (*submissiontypes.Submission, error)

	// RescoreSubmission re-runs scoring for a latest submission.
	RescoreSubmission(ctx context.Context, actor shared.Identity, id shared.SubmissionID) error

	// RescorePhase re-runs scoring for every latest scored submission in a
	// phase. No access check; callers gate on phase admin.
	RescorePhase(ctx context.Context, phaseID shared.PhaseID) (int, error)

	// RecomputeOverallScores rebuilds overall scores from stored score
	// matrices after a metric weight change. It never touches latest flags.
	RecomputeOverallScores(ctx context.Context, phaseID shared.PhaseID) (int, error)

	// SyncPhaseFolderAccess reconciles every submission folder's ACL in a
	// phase with the phase's administrator set.
	SyncPhaseFolderAccess(ctx context.Context, phaseID shared.PhaseID) error

	// DispatchScoring issues the scoring credential, applies the idempotent
	// access grants and publishes the dispatch event for one submission.
	DispatchScoring(ctx context.Context, id shared.SubmissionID, rescoring bool) error

	// HandleJobStatus records a scoring-job transition, sending failure
	// notifications when the job errored.
	HandleJobStatus(ctx context.Context, jobID shared.JobID, status shared.JobStatus) error

	// AppendJobLog appends worker output to the job log.
	AppendJobLog(ctx context.Context, jobID shared.JobID, lines []string) error

	// VerifyScoringCredential checks a scoring token: signature, scope,
	// submission binding and revocation.
	VerifyScoringCredential(ctx context.Context, token string, id shared.SubmissionID) error

	// VerifyJobCredential checks a scoring token against the submission the
	// job belongs to.
	VerifyJobCredential(ctx context.Context, token string, jobID shared.JobID) error
}

var _ Service = (*SubmissionService)(nil)
