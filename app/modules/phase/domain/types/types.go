// Package phasetypes defines the phase aggregate and its parameter types.
package phasetypes

import (
	"time"

	"github.com/girder/covalic/app/shared"
)

// Phase is one stage of a challenge. It owns the submission rules, the
// metric weights, the scoring-task definition and the folders submissions
// and ground truth live in.
type Phase struct {
	ID           shared.PhaseID
	ChallengeID  shared.ChallengeID
	Name         string
	Description  string
	Instructions string
	// Ordinal fixes the display order of a challenge's phases.
	Ordinal   int
	Active    bool
	Public    bool
	CreatorID shared.UserID
	Created   time.Time
	Updated   time.Time
	StartDate *time.Time
	EndDate   *time.Time

	// ParticipantGroupID is the group users join to submit; its members get
	// READ on the phase when they join.
	ParticipantGroupID  shared.GroupID
	FolderID            shared.FolderID
	GroundTruthFolderID shared.FolderID
	TestDataFolderID    shared.FolderID

	Metrics   shared.MetricWeights
	ScoreTask *shared.ScoreTask

	// HideScores withholds score fields from non-admin readers.
	HideScores bool
	// MatchSubmissions links submissions across phases by approach.
	MatchSubmissions bool

	EnableOrganization      bool
	EnableOrganizationURL   bool
	EnableDocumentationURL  bool
	RequireOrganization     bool
	RequireOrganizationURL  bool
	RequireDocumentationURL bool

	Access shared.AccessList
	Meta   map[string]any
}

// AcceptsSubmissions reports whether ordinary participants may submit.
// Admins bypass this gate.
func (p *Phase) AcceptsSubmissions() bool {
	return p.Active
}

// CreateParams carries the caller-supplied fields of a new phase.
type CreateParams struct {
	ChallengeID  shared.ChallengeID
	Name         string
	Description  string
	Instructions string
	Ordinal      int
	Active       bool
	Public       bool
	StartDate    *time.Time
	EndDate      *time.Time
	HideScores   bool

	MatchSubmissions bool

	EnableOrganization      bool
	EnableOrganizationURL   bool
	EnableDocumentationURL  bool
	RequireOrganization     bool
	RequireOrganizationURL  bool
	RequireDocumentationURL bool

	Meta map[string]any
}

// UpdateParams carries mutable phase fields; nil pointers leave the stored
// value untouched.
type UpdateParams struct {
	Name         *string
	Description  *string
	Instructions *string
	Ordinal      *int
	Active       *bool
	StartDate    *time.Time
	EndDate      *time.Time
	HideScores   *bool

	MatchSubmissions *bool

	EnableOrganization      *bool
	EnableOrganizationURL   *bool
	EnableDocumentationURL  *bool
	RequireOrganization     *bool
	RequireOrganizationURL  *bool
	RequireDocumentationURL *bool

	Meta map[string]any
}
