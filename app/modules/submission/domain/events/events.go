package submissionevents

// Stream names
const (
	ScoringStreamName    = "scoring"
	SubmissionStreamName = "submission"
)

// Submission and scoring event subjects
const (
	ScoringJobDispatchSubject = "scoring.job.dispatch.v1"
	ScoringJobStatusSubject   = "scoring.job.status.v1"
	SubmissionScoredSubject   = "submission.scored.v1"
)

// ScoringJobDispatchEvent carries everything a scoring worker needs to run
// one submission's metrics container and post results back.
type ScoringJobDispatchEvent struct {
	JobID        string   `json:"job_id"`
	SubmissionID string   `json:"submission_id"`
	PhaseID      string   `json:"phase_id"`
	Image        string   `json:"image"`
	Args         []string `json:"args"`
	// Token is the time-boxed scoring credential; it is invalidated once
	// the score is posted.
	Token string `json:"token"`
	// ScoreURL and StatusURL are the callback endpoints for results and
	// job progress.
	ScoreURL  string `json:"score_url"`
	StatusURL string `json:"status_url"`
	LogURL    string `json:"log_url"`
	Rescoring bool   `json:"rescoring"`
}

// ScoringJobStatusEvent reports a scoring job's state transitions back into
// the platform.
type ScoringJobStatusEvent struct {
	JobID        string `json:"job_id"`
	SubmissionID string `json:"submission_id"`
	Status       string `json:"status"`
}

// SubmissionScoredEvent is published after a score is recorded and the
// latest flag settled.
type SubmissionScoredEvent struct {
	SubmissionID string  `json:"submission_id"`
	PhaseID      string  `json:"phase_id"`
	CreatorID    string  `json:"creator_id"`
	OverallScore float64 `json:"overall_score"`
	Latest       bool    `json:"latest"`
}
