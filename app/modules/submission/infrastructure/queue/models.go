package submissionqueue

// ScoreDispatchJob carries one submission through the scoring pipeline.
// Dispatch runs out-of-band so the HTTP request that created the submission
// never blocks on token minting or ACL grants, and failed dispatches retry.
type ScoreDispatchJob struct {
	SubmissionID string `json:"submission_id"`
	Rescoring    bool   `json:"rescoring"`
}

// Kind returns the job type identifier for River.
func (ScoreDispatchJob) Kind() string { return "score_dispatch" }
