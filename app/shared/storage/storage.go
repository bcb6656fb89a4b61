// Package storage defines the boundary to the generic object-storage and
// access-control service the platform sits on. Collections, folders, groups
// and users are owned by that service; the core only consumes these
// interfaces and imposes its own invariants over them.
package storage

import (
	"context"
	"time"

	"github.com/girder/covalic/app/shared"
)

// Folder is a storage folder with its access list.
type Folder struct {
	ID        shared.FolderID
	Name      string
	CreatorID shared.UserID
	Public    bool
	Access    shared.AccessList
	Created   time.Time
}

// Collection is a top-level storage container backing a challenge.
type Collection struct {
	ID        shared.CollectionID
	Name      string
	CreatorID shared.UserID
	Public    bool
	Access    shared.AccessList
}

// Group is a named user group; each phase gets a participant group.
type Group struct {
	ID     shared.GroupID
	Name   string
	Public bool
}

// User is the directory view of a platform user.
type User struct {
	ID        shared.UserID
	Name      string
	Email     string
	SiteAdmin bool
}

// CreateFolderParams describes a folder to provision.
type CreateFolderParams struct {
	Name         string
	Description  string
	CollectionID shared.CollectionID
	ParentID     shared.FolderID
	Creator      shared.UserID
	Public       bool
	ReuseExisting bool
}

// FolderService provides folders and their ACLs.
type FolderService interface {
	Load(ctx context.Context, id shared.FolderID) (*Folder, error)
	Create(ctx context.Context, params CreateFolderParams) (*Folder, error)
	Remove(ctx context.Context, id shared.FolderID) error
	// SetUserAccess grants, changes or (with AccessNone) revokes one user's
	// access on a folder.
	SetUserAccess(ctx context.Context, id shared.FolderID, user shared.UserID, level shared.AccessLevel) error
	SetGroupAccess(ctx context.Context, id shared.FolderID, group shared.GroupID, level shared.AccessLevel) error
	// ApplyAccess replaces the folder's access list wholesale.
	ApplyAccess(ctx context.Context, id shared.FolderID, acl shared.AccessList) error
}

// CollectionService provides the challenge-level storage containers.
type CollectionService interface {
	FindByName(ctx context.Context, name string) (*Collection, error)
	Create(ctx context.Context, name string, creator shared.UserID, public bool) (*Collection, error)
	Load(ctx context.Context, id shared.CollectionID) (*Collection, error)
	Remove(ctx context.Context, id shared.CollectionID) error
}

// GroupService provides participant groups.
type GroupService interface {
	FindByName(ctx context.Context, name string) (*Group, error)
	Create(ctx context.Context, name string, creator shared.UserID, public bool) (*Group, error)
	AddMember(ctx context.Context, id shared.GroupID, user shared.UserID) error
}

// UserDirectory resolves user IDs to directory entries.
type UserDirectory interface {
	Load(ctx context.Context, id shared.UserID) (*User, error)
	// EmailsForUsers returns the addresses for the given users, skipping
	// unknown IDs.
	EmailsForUsers(ctx context.Context, ids []shared.UserID) ([]string, error)
}
