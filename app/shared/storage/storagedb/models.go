// Package storagedb is the Postgres-backed implementation of the storage
// boundary: collections, folders, groups and the user directory.
package storagedb

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/girder/covalic/app/shared"
	"github.com/girder/covalic/app/shared/storage"
)

type Collection struct {
	bun.BaseModel `bun:"table:collections,alias:c"`

	ID        shared.CollectionID `bun:"id,pk,type:uuid"`
	Name      string              `bun:"name,notnull,unique"`
	CreatorID shared.UserID       `bun:"creator_id,type:uuid,notnull"`
	Public    bool                `bun:"public,notnull,default:false"`
	Access    shared.AccessList   `bun:"access,type:jsonb,notnull"`
	Created   time.Time           `bun:"created,nullzero,notnull,default:current_timestamp"`
}

type Folder struct {
	bun.BaseModel `bun:"table:folders,alias:f"`

	ID           shared.FolderID      `bun:"id,pk,type:uuid"`
	Name         string               `bun:"name,notnull"`
	Description  string               `bun:"description,nullzero"`
	CollectionID *shared.CollectionID `bun:"collection_id,type:uuid"`
	ParentID     *shared.FolderID     `bun:"parent_id,type:uuid"`
	CreatorID    shared.UserID        `bun:"creator_id,type:uuid,notnull"`
	Public       bool                 `bun:"public,notnull,default:false"`
	Access       shared.AccessList    `bun:"access,type:jsonb,notnull"`
	Created      time.Time            `bun:"created,nullzero,notnull,default:current_timestamp"`
}

type Group struct {
	bun.BaseModel `bun:"table:groups,alias:g"`

	ID        shared.GroupID `bun:"id,pk,type:uuid"`
	Name      string         `bun:"name,notnull,unique"`
	CreatorID shared.UserID  `bun:"creator_id,type:uuid,notnull"`
	Public    bool           `bun:"public,notnull,default:false"`
	Created   time.Time      `bun:"created,nullzero,notnull,default:current_timestamp"`
}

type GroupMember struct {
	bun.BaseModel `bun:"table:group_members,alias:gm"`

	GroupID shared.GroupID `bun:"group_id,pk,type:uuid"`
	UserID  shared.UserID  `bun:"user_id,pk,type:uuid"`
	Added   time.Time      `bun:"added,nullzero,notnull,default:current_timestamp"`
}

type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID        shared.UserID `bun:"id,pk,type:uuid"`
	Name      string        `bun:"name,notnull"`
	Email     string        `bun:"email,notnull,unique"`
	SiteAdmin bool          `bun:"site_admin,notnull,default:false"`
	Created   time.Time     `bun:"created,nullzero,notnull,default:current_timestamp"`
}

var (
	_ bun.BeforeInsertHook = (*Collection)(nil)
	_ bun.BeforeInsertHook = (*Folder)(nil)
	_ bun.BeforeInsertHook = (*Group)(nil)
)

func (c *Collection) BeforeInsert(ctx context.Context, _ *bun.InsertQuery) error {
	if c.ID.IsNil() {
		c.ID = shared.CollectionID(uuid.New())
	}
	return nil
}

func (f *Folder) BeforeInsert(ctx context.Context, _ *bun.InsertQuery) error {
	if f.ID.IsNil() {
		f.ID = shared.FolderID(uuid.New())
	}
	return nil
}

func (g *Group) BeforeInsert(ctx context.Context, _ *bun.InsertQuery) error {
	if g.ID.IsNil() {
		g.ID = shared.GroupID(uuid.New())
	}
	return nil
}

func collectionToDomain(m *Collection) *storage.Collection {
	return &storage.Collection{
		ID:        m.ID,
		Name:      m.Name,
		CreatorID: m.CreatorID,
		Public:    m.Public,
		Access:    m.Access,
	}
}

func folderToDomain(m *Folder) *storage.Folder {
	return &storage.Folder{
		ID:        m.ID,
		Name:      m.Name,
		CreatorID: m.CreatorID,
		Public:    m.Public,
		Access:    m.Access,
		Created:   m.Created,
	}
}

func groupToDomain(m *Group) *storage.Group {
	return &storage.Group{
		ID:     m.ID,
		Name:   m.Name,
		Public: m.Public,
	}
}

func userToDomain(m *User) *storage.User {
	return &storage.User{
		ID:        m.ID,
		Name:      m.Name,
		Email:     m.Email,
		SiteAdmin: m.SiteAdmin,
	}
}
