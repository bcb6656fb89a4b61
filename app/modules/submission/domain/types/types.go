// Package submissiontypes defines the submission aggregate and the
// parameter types its operations accept.
package submissiontypes

import (
	"time"

	"github.com/girder/covalic/app/shared"
)

// Submission is one scored entry a participant makes against a phase. The
// folder holding the uploaded results lives in the storage service; the
// submission row owns the lifecycle and score state.
type Submission struct {
	ID               shared.SubmissionID
	PhaseID          shared.PhaseID
	CreatorID        shared.UserID
	CreatorName      string
	FolderID         shared.FolderID
	Created          time.Time
	Title            string
	// Approach is always materialized for callers; the unnamed approach
	// reads as "default" even though it is stored as NULL.
	Approach         string
	Organization     string
	OrganizationURL  string
	DocumentationURL string
	Meta             map[string]any
	// Score is nil until the scoring job posts results.
	Score        shared.ScoreMatrix
	OverallScore *float64
	// Latest marks the submission that represents its (phase, creator,
	// approach) group on the leaderboard.
	Latest bool
	JobID  *shared.JobID
}

// Scored reports whether the scoring pipeline has completed for this
// submission.
func (s *Submission) Scored() bool {
	return s.Score != nil && s.OverallScore != nil
}

// CreateParams carries the caller-supplied fields of a new submission.
type CreateParams struct {
	PhaseID          shared.PhaseID
	FolderID         shared.FolderID
	Title            string
	Approach         string
	Organization     string
	OrganizationURL  string
	DocumentationURL string
	Meta             map[string]any
	// Created overrides the submission timestamp; admin-only.
	Created *time.Time
	// CreatorID attributes the submission to another user; admin-only.
	CreatorID *shared.UserID
}

// UpdateParams carries caller-editable submission fields; nil pointers
// leave the stored value untouched.
type UpdateParams struct {
	Title            *string
	Approach         *string
	Organization     *string
	OrganizationURL  *string
	DocumentationURL *string
	Meta             map[string]any
}

// ListParams selects and orders a phase's submissions.
type ListParams struct {
	PhaseID    shared.PhaseID
	UserID     *shared.UserID
	Approach   *string
	LatestOnly bool
	SortField  string
	SortDesc   bool
	Limit      int
	Offset     int
}

// ScoringJob tracks one dispatched scoring run and the credential it was
// issued.
type ScoringJob struct {
	ID           shared.JobID
	SubmissionID shared.SubmissionID
	Status       shared.JobStatus
	TokenID      string
	Rescoring    bool
	Log          []string
	Created      time.Time
	Updated      time.Time
}
