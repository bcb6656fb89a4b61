package phasedb

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	phasetypes "github.com/girder/covalic/app/modules/phase/domain/types"
	"github.com/girder/covalic/app/shared"
)

// Phase is the persisted phase row. The access list, metric weights and
// scoring task live in jsonb since they are read and written whole.
type Phase struct {
	bun.BaseModel `bun:"table:phases,alias:p"`

	ID           shared.PhaseID     `bun:"id,pk,type:uuid"`
	ChallengeID  shared.ChallengeID `bun:"challenge_id,type:uuid,notnull"`
	Name         string             `bun:"name,notnull"`
	Description  string             `bun:"description,nullzero"`
	Instructions string             `bun:"instructions,nullzero"`
	Ordinal      int                `bun:"ordinal,notnull,default:0"`
	Active       bool               `bun:"active,notnull,default:false"`
	Public       bool               `bun:"public,notnull,default:false"`
	CreatorID    shared.UserID      `bun:"creator_id,type:uuid,notnull"`
	Created      time.Time          `bun:"created,nullzero,notnull,default:current_timestamp"`
	Updated      time.Time          `bun:"updated,nullzero,notnull,default:current_timestamp"`
	StartDate    *time.Time         `bun:"start_date"`
	EndDate      *time.Time         `bun:"end_date"`

	ParticipantGroupID  shared.GroupID  `bun:"participant_group_id,type:uuid,notnull"`
	FolderID            shared.FolderID `bun:"folder_id,type:uuid,notnull"`
	GroundTruthFolderID shared.FolderID `bun:"ground_truth_folder_id,type:uuid,notnull"`
	TestDataFolderID    shared.FolderID `bun:"test_data_folder_id,type:uuid,notnull"`

	Metrics   shared.MetricWeights `bun:"metrics,type:jsonb"`
	ScoreTask *shared.ScoreTask    `bun:"score_task,type:jsonb"`

	HideScores       bool `bun:"hide_scores,notnull,default:false"`
	MatchSubmissions bool `bun:"match_submissions,notnull,default:true"`

	EnableOrganization      bool `bun:"enable_organization,notnull,default:false"`
	EnableOrganizationURL   bool `bun:"enable_organization_url,notnull,default:false"`
	EnableDocumentationURL  bool `bun:"enable_documentation_url,notnull,default:false"`
	RequireOrganization     bool `bun:"require_organization,notnull,default:false"`
	RequireOrganizationURL  bool `bun:"require_organization_url,notnull,default:false"`
	RequireDocumentationURL bool `bun:"require_documentation_url,notnull,default:false"`

	Access shared.AccessList `bun:"access,type:jsonb,notnull"`
	Meta   map[string]any    `bun:"meta,type:jsonb"`
}

var _ bun.BeforeInsertHook = (*Phase)(nil)

func (p *Phase) BeforeInsert(ctx context.Context, _ *bun.InsertQuery) error {
	if p.ID.IsNil() {
		p.ID = shared.PhaseID(uuid.New())
	}
	return nil
}

func toDomain(m *Phase) *phasetypes.Phase {
	return &phasetypes.Phase{
		ID:                      m.ID,
		ChallengeID:             m.ChallengeID,
		Name:                    m.Name,
		Description:             m.Description,
		Instructions:            m.Instructions,
		Ordinal:                 m.Ordinal,
		Active:                  m.Active,
		Public:                  m.Public,
		CreatorID:               m.CreatorID,
		Created:                 m.Created,
		Updated:                 m.Updated,
		StartDate:               m.StartDate,
		EndDate:                 m.EndDate,
		ParticipantGroupID:      m.ParticipantGroupID,
		FolderID:                m.FolderID,
		GroundTruthFolderID:     m.GroundTruthFolderID,
		TestDataFolderID:        m.TestDataFolderID,
		Metrics:                 m.Metrics,
		ScoreTask:               m.ScoreTask,
		HideScores:              m.HideScores,
		MatchSubmissions:        m.MatchSubmissions,
		EnableOrganization:      m.EnableOrganization,
		EnableOrganizationURL:   m.EnableOrganizationURL,
		EnableDocumentationURL:  m.EnableDocumentationURL,
		RequireOrganization:     m.RequireOrganization,
		RequireOrganizationURL:  m.RequireOrganizationURL,
		RequireDocumentationURL: m.RequireDocumentationURL,
		Access:                  m.Access,
		Meta:                    m.Meta,
	}
}

func fromDomain(p *phasetypes.Phase) *Phase {
	return &Phase{
		ID:                      p.ID,
		ChallengeID:             p.ChallengeID,
		Name:                    p.Name,
		Description:             p.Description,
		Instructions:            p.Instructions,
		Ordinal:                 p.Ordinal,
		Active:                  p.Active,
		Public:                  p.Public,
		CreatorID:               p.CreatorID,
		Created:                 p.Created,
		Updated:                 p.Updated,
		StartDate:               p.StartDate,
		EndDate:                 p.EndDate,
		ParticipantGroupID:      p.ParticipantGroupID,
		FolderID:                p.FolderID,
		GroundTruthFolderID:     p.GroundTruthFolderID,
		TestDataFolderID:        p.TestDataFolderID,
		Metrics:                 p.Metrics,
		ScoreTask:               p.ScoreTask,
		HideScores:              p.HideScores,
		MatchSubmissions:        p.MatchSubmissions,
		EnableOrganization:      p.EnableOrganization,
		EnableOrganizationURL:   p.EnableOrganizationURL,
		EnableDocumentationURL:  p.EnableDocumentationURL,
		RequireOrganization:     p.RequireOrganization,
		RequireOrganizationURL:  p.RequireOrganizationURL,
		RequireDocumentationURL: p.RequireDocumentationURL,
		Access:                  p.Access,
		Meta:                    p.Meta,
	}
}
