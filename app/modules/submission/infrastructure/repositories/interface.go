package submissiondb

import (
	"context"

	submissiontypes "github.com/girder/covalic/app/modules/submission/domain/types"
	"github.com/girder/covalic/app/shared"
)

// Repository is the persistence contract for submissions and their scoring
// jobs.
//
// Error semantics:
//   - errs.ErrNotFound: record does not exist
//   - other errors: infrastructure failures
type Repository interface {
	// Create inserts the submission, assigning its ID.
	Create(ctx context.Context, sub *submissiontypes.Submission) error

	// GetByID retrieves one submission.
	GetByID(ctx context.Context, id shared.SubmissionID) (*submissiontypes.Submission, error)

	// UpdateFields persists the caller-editable fields (title, approach,
	// organization, documentation, meta) of an existing submission.
	UpdateFields(ctx context.Context, sub *submissiontypes.Submission) error

	// Delete removes one submission row.
	Delete(ctx context.Context, id shared.SubmissionID) error

	// DeleteByPhase removes all of a phase's submissions and returns the
	// folder IDs they referenced, for storage cleanup.
	DeleteByPhase(ctx context.Context, phaseID shared.PhaseID) ([]shared.FolderID, error)

	// List returns a page of a phase's submissions per the filter and sort
	// in params.
	List(ctx context.Context, params submissiontypes.ListParams) ([]submissiontypes.Submission, error)

	// CountByPhase reports how many submissions a phase holds.
	CountByPhase(ctx context.Context, phaseID shared.PhaseID) (int, error)

	// ListApproaches returns the distinct approach names a user has
	// submitted under in a phase, with the default approach materialized.
	ListApproaches(ctx context.Context, phaseID shared.PhaseID, userID shared.UserID) ([]string, error)

	// ListLatestScored returns every latest, scored submission in a phase.
	// Used for rescoring.
	ListLatestScored(ctx context.Context, phaseID shared.PhaseID) ([]submissiontypes.Submission, error)

	// ListScored returns every scored submission in a phase, latest or not.
	// Used for overall-score recomputation after a weight change.
	ListScored(ctx context.Context, phaseID shared.PhaseID) ([]submissiontypes.Submission, error)

	// MarkScored records the score and overall score. When makeLatest is
	// set it also promotes the submission and demotes the previous latest
	// sibling in the same (phase, creator, approach) group, atomically.
	MarkScored(ctx context.Context, id shared.SubmissionID, score shared.ScoreMatrix, overall float64, makeLatest bool) error

	// UpdateOverallScore rewrites only the overall score. It never touches
	// the latest flag.
	UpdateOverallScore(ctx context.Context, id shared.SubmissionID, overall float64) error

	// SetJobID links the submission to its dispatched scoring job.
	SetJobID(ctx context.Context, id shared.SubmissionID, jobID shared.JobID) error

	// CreateJob inserts a scoring-job row, assigning its ID.
	CreateJob(ctx context.Context, job *ScoringJob) error

	// GetJob retrieves one scoring job.
	GetJob(ctx context.Context, id shared.JobID) (*submissiontypes.ScoringJob, error)

	// UpdateJobStatus records a job state transition.
	UpdateJobStatus(ctx context.Context, id shared.JobID, status shared.JobStatus) error

	// AppendJobLog appends lines to the job's progress log.
	AppendJobLog(ctx context.Context, id shared.JobID, lines []string) error

	// RevokeJobToken invalidates the job's scoring credential.
	RevokeJobToken(ctx context.Context, id shared.JobID) error

	// IsTokenRevoked reports whether the credential with the given token ID
	// has been invalidated. Unknown token IDs count as revoked.
	IsTokenRevoked(ctx context.Context, tokenID string) (bool, error)
}
