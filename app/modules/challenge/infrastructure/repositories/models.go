package challengedb

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	challengetypes "github.com/girder/covalic/app/modules/challenge/domain/types"
	"github.com/girder/covalic/app/shared"
)

// Challenge is the persisted challenge row. Name carries a unique index;
// uniqueness is enforced by the database, not by a read-then-write check.
type Challenge struct {
	bun.BaseModel `bun:"table:challenges,alias:c"`

	ID             shared.ChallengeID  `bun:"id,pk,type:uuid"`
	Name           string              `bun:"name,notnull,unique"`
	Description    string              `bun:"description,nullzero"`
	Instructions   string              `bun:"instructions,nullzero"`
	Organizers     string              `bun:"organizers,nullzero"`
	CreatorID      shared.UserID       `bun:"creator_id,type:uuid,notnull"`
	CollectionID   shared.CollectionID `bun:"collection_id,type:uuid,notnull"`
	AssetsFolderID shared.FolderID     `bun:"assets_folder_id,type:uuid,notnull"`
	Created        time.Time           `bun:"created,nullzero,notnull,default:current_timestamp"`
	Updated        time.Time           `bun:"updated,nullzero,notnull,default:current_timestamp"`
	StartDate      *time.Time          `bun:"start_date"`
	EndDate        *time.Time          `bun:"end_date"`
	Public         bool                `bun:"public,notnull,default:false"`
	ThumbnailIDs   []shared.FolderID   `bun:"thumbnail_ids,type:jsonb"`
	Access         shared.AccessList   `bun:"access,type:jsonb,notnull"`
}

var _ bun.BeforeInsertHook = (*Challenge)(nil)

func (c *Challenge) BeforeInsert(ctx context.Context, _ *bun.InsertQuery) error {
	if c.ID.IsNil() {
		c.ID = shared.ChallengeID(uuid.New())
	}
	return nil
}

func toDomain(m *Challenge) *challengetypes.Challenge {
	return &challengetypes.Challenge{
		ID:             m.ID,
		Name:           m.Name,
		Description:    m.Description,
		Instructions:   m.Instructions,
		Organizers:     m.Organizers,
		CreatorID:      m.CreatorID,
		CollectionID:   m.CollectionID,
		AssetsFolderID: m.AssetsFolderID,
		Created:        m.Created,
		Updated:        m.Updated,
		StartDate:      m.StartDate,
		EndDate:        m.EndDate,
		Public:         m.Public,
		ThumbnailIDs:   m.ThumbnailIDs,
		Access:         m.Access,
	}
}

func fromDomain(c *challengetypes.Challenge) *Challenge {
	return &Challenge{
		ID:             c.ID,
		Name:           c.Name,
		Description:    c.Description,
		Instructions:   c.Instructions,
		Organizers:     c.Organizers,
		CreatorID:      c.CreatorID,
		CollectionID:   c.CollectionID,
		AssetsFolderID: c.AssetsFolderID,
		Created:        c.Created,
		Updated:        c.Updated,
		StartDate:      c.StartDate,
		EndDate:        c.EndDate,
		Public:         c.Public,
		ThumbnailIDs:   c.ThumbnailIDs,
		Access:         c.Access,
	}
}
