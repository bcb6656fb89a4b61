package submissiondb

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	submissiontypes "github.com/girder/covalic/app/modules/submission/domain/types"
	"github.com/girder/covalic/app/shared"
)

// Submission is the persisted submission row. Approach is NULL for the
// unnamed default approach; the mapping layer materializes "default" so the
// rest of the system never sees the NULL.
type Submission struct {
	bun.BaseModel `bun:"table:submissions,alias:s"`

	ID               shared.SubmissionID `bun:"id,pk,type:uuid"`
	PhaseID          shared.PhaseID      `bun:"phase_id,type:uuid,notnull"`
	CreatorID        shared.UserID       `bun:"creator_id,type:uuid,notnull"`
	CreatorName      string              `bun:"creator_name,notnull"`
	FolderID         shared.FolderID     `bun:"folder_id,type:uuid,notnull"`
	Created          time.Time           `bun:"created,nullzero,notnull,default:current_timestamp"`
	Title            string              `bun:"title,notnull"`
	Approach         *string             `bun:"approach"`
	Organization     string              `bun:"organization,nullzero"`
	OrganizationURL  string              `bun:"organization_url,nullzero"`
	DocumentationURL string              `bun:"documentation_url,nullzero"`
	Meta             map[string]any      `bun:"meta,type:jsonb"`
	Score            shared.ScoreMatrix  `bun:"score,type:jsonb,nullzero"`
	OverallScore     *float64            `bun:"overall_score"`
	Latest           bool                `bun:"latest,notnull,default:false"`
	JobID            *shared.JobID       `bun:"job_id,type:uuid"`
}

var _ bun.BeforeInsertHook = (*Submission)(nil)

func (s *Submission) BeforeInsert(ctx context.Context, _ *bun.InsertQuery) error {
	if s.ID.IsNil() {
		s.ID = shared.SubmissionID(uuid.New())
	}
	return nil
}

// ScoringJob tracks one dispatched scoring run, its progress log and the
// credential issued for it.
type ScoringJob struct {
	bun.BaseModel `bun:"table:scoring_jobs,alias:sj"`

	ID           shared.JobID        `bun:"id,pk,type:uuid"`
	SubmissionID shared.SubmissionID `bun:"submission_id,type:uuid,notnull"`
	Status       shared.JobStatus    `bun:"status,notnull"`
	TokenID      string              `bun:"token_id,notnull"`
	TokenRevoked bool                `bun:"token_revoked,notnull,default:false"`
	Rescoring    bool                `bun:"rescoring,notnull,default:false"`
	Log          []string            `bun:"log,type:jsonb"`
	Created      time.Time           `bun:"created,nullzero,notnull,default:current_timestamp"`
	Updated      time.Time           `bun:"updated,nullzero,notnull,default:current_timestamp"`
}

var _ bun.BeforeInsertHook = (*ScoringJob)(nil)

func (j *ScoringJob) BeforeInsert(ctx context.Context, _ *bun.InsertQuery) error {
	if j.ID.IsNil() {
		j.ID = shared.JobID(uuid.New())
	}
	return nil
}

// normalizeApproach maps the caller-facing approach name to storage form.
// Empty and "default" both mean the unnamed approach and store as NULL.
func normalizeApproach(approach string) *string {
	if approach == "" || approach == shared.DefaultApproach {
		return nil
	}
	return &approach
}

func materializeApproach(approach *string) string {
	if approach == nil {
		return shared.DefaultApproach
	}
	return *approach
}

func toDomain(m *Submission) *submissiontypes.Submission {
	return &submissiontypes.Submission{
		ID:               m.ID,
		PhaseID:          m.PhaseID,
		CreatorID:        m.CreatorID,
		CreatorName:      m.CreatorName,
		FolderID:         m.FolderID,
		Created:          m.Created,
		Title:            m.Title,
		Approach:         materializeApproach(m.Approach),
		Organization:     m.Organization,
		OrganizationURL:  m.OrganizationURL,
		DocumentationURL: m.DocumentationURL,
		Meta:             m.Meta,
		Score:            m.Score,
		OverallScore:     m.OverallScore,
		Latest:           m.Latest,
		JobID:            m.JobID,
	}
}

func fromDomain(s *submissiontypes.Submission) *Submission {
	return &Submission{
		ID:               s.ID,
		PhaseID:          s.PhaseID,
		CreatorID:        s.CreatorID,
		CreatorName:      s.CreatorName,
		FolderID:         s.FolderID,
		Created:          s.Created,
		Title:            s.Title,
		Approach:         normalizeApproach(s.Approach),
		Organization:     s.Organization,
		OrganizationURL:  s.OrganizationURL,
		DocumentationURL: s.DocumentationURL,
		Meta:             s.Meta,
		Score:            s.Score,
		OverallScore:     s.OverallScore,
		Latest:           s.Latest,
		JobID:            s.JobID,
	}
}

func jobToDomain(m *ScoringJob) *submissiontypes.ScoringJob {
	return &submissiontypes.ScoringJob{
		ID:           m.ID,
		SubmissionID: m.SubmissionID,
		Status:       m.Status,
		TokenID:      m.TokenID,
		Rescoring:    m.Rescoring,
		Log:          m.Log,
		Created:      m.Created,
		Updated:      m.Updated,
	}
}
