package storagedb

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/uptrace/bun"

	"github.com/girder/covalic/app/shared"
	"github.com/girder/covalic/app/shared/errs"
	"github.com/girder/covalic/app/shared/storage"
)

// FolderDB implements storage.FolderService on Postgres.
type FolderDB struct {
	DB *bun.DB
}

// CollectionDB implements storage.CollectionService on Postgres.
type CollectionDB struct {
	DB *bun.DB
}

// GroupDB implements storage.GroupService on Postgres.
type GroupDB struct {
	DB *bun.DB
}

// UserDB implements storage.UserDirectory on Postgres.
type UserDB struct {
	DB *bun.DB
}

var (
	_ storage.FolderService     = (*FolderDB)(nil)
	_ storage.CollectionService = (*CollectionDB)(nil)
	_ storage.GroupService      = (*GroupDB)(nil)
	_ storage.UserDirectory     = (*UserDB)(nil)
)

// Load returns a folder by ID, or errs.ErrNotFound.
func (db *FolderDB) Load(ctx context.Context, id shared.FolderID) (*storage.Folder, error) {
	folder := new(Folder)
	err := db.DB.NewSelect().Model(folder).Where("f.id = ?", id).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, fmt.Errorf("failed to load folder: %w", err)
	}
	return folderToDomain(folder), nil
}

// Create provisions a folder. With ReuseExisting set, a folder with the same
// name under the same parent is returned instead of a duplicate.
func (db *FolderDB) Create(ctx context.Context, params storage.CreateFolderParams) (*storage.Folder, error) {
	if params.ReuseExisting {
		existing := new(Folder)
		q := db.DB.NewSelect().Model(existing).Where("f.name = ?", params.Name)
		if !params.CollectionID.IsNil() {
			q = q.Where("f.collection_id = ?", params.CollectionID)
		}
		if !params.ParentID.IsNil() {
			q = q.Where("f.parent_id = ?", params.ParentID)
		}
		if err := q.Scan(ctx); err == nil {
			return folderToDomain(existing), nil
		}
	}

	model := &Folder{
		Name:        params.Name,
		Description: params.Description,
		CreatorID:   params.Creator,
		Public:      params.Public,
		Access:      shared.AccessList{Public: params.Public}.WithUserAccess(params.Creator, shared.AccessAdmin),
	}
	if !params.CollectionID.IsNil() {
		model.CollectionID = &params.CollectionID
	}
	if !params.ParentID.IsNil() {
		model.ParentID = &params.ParentID
	}
	if _, err := db.DB.NewInsert().Model(model).Exec(ctx); err != nil {
		return nil, fmt.Errorf("failed to create folder: %w", err)
	}
	return folderToDomain(model), nil
}

// Remove deletes a folder row. Missing rows are not an error so cascades can
// retry safely.
func (db *FolderDB) Remove(ctx context.Context, id shared.FolderID) error {
	_, err := db.DB.NewDelete().Model((*Folder)(nil)).Where("id = ?", id).Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to remove folder: %w", err)
	}
	return nil
}

// SetUserAccess grants, changes or (with AccessNone) revokes one user's
// access on a folder.
func (db *FolderDB) SetUserAccess(ctx context.Context, id shared.FolderID, user shared.UserID, level shared.AccessLevel) error {
	folder, err := db.Load(ctx, id)
	if err != nil {
		return err
	}
	return db.ApplyAccess(ctx, id, folder.Access.WithUserAccess(user, level))
}

// SetGroupAccess grants, changes or (with AccessNone) revokes one group's
// access on a folder.
func (db *FolderDB) SetGroupAccess(ctx context.Context, id shared.FolderID, group shared.GroupID, level shared.AccessLevel) error {
	folder, err := db.Load(ctx, id)
	if err != nil {
		return err
	}
	return db.ApplyAccess(ctx, id, folder.Access.WithGroupAccess(group, level))
}

// ApplyAccess replaces the folder's access list wholesale.
func (db *FolderDB) ApplyAccess(ctx context.Context, id shared.FolderID, acl shared.AccessList) error {
	encoded, err := json.Marshal(acl)
	if err != nil {
		return fmt.Errorf("failed to encode access list: %w", err)
	}
	res, err := db.DB.NewUpdate().
		Model((*Folder)(nil)).
		Set("access = ?::jsonb", string(encoded)).
		Set("public = ?", acl.Public).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to update folder access: %w", err)
	}
	return requireRows(res)
}

// FindByName returns a collection by exact name, or errs.ErrNotFound.
func (db *CollectionDB) FindByName(ctx context.Context, name string) (*storage.Collection, error) {
	collection := new(Collection)
	err := db.DB.NewSelect().Model(collection).Where("c.name = ?", name).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find collection: %w", err)
	}
	return collectionToDomain(collection), nil
}

// Create inserts a collection with the creator as admin.
func (db *CollectionDB) Create(ctx context.Context, name string, creator shared.UserID, public bool) (*storage.Collection, error) {
	model := &Collection{
		Name:      name,
		CreatorID: creator,
		Public:    public,
		Access:    shared.AccessList{Public: public}.WithUserAccess(creator, shared.AccessAdmin),
	}
	if _, err := db.DB.NewInsert().Model(model).Exec(ctx); err != nil {
		return nil, fmt.Errorf("failed to create collection: %w", err)
	}
	return collectionToDomain(model), nil
}

// Load returns a collection by ID, or errs.ErrNotFound.
func (db *CollectionDB) Load(ctx context.Context, id shared.CollectionID) (*storage.Collection, error) {
	collection := new(Collection)
	err := db.DB.NewSelect().Model(collection).Where("c.id = ?", id).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, fmt.Errorf("failed to load collection: %w", err)
	}
	return collectionToDomain(collection), nil
}

// Remove deletes a collection row.
func (db *CollectionDB) Remove(ctx context.Context, id shared.CollectionID) error {
	_, err := db.DB.NewDelete().Model((*Collection)(nil)).Where("id = ?", id).Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to remove collection: %w", err)
	}
	return nil
}

// FindByName returns a group by exact name, or errs.ErrNotFound.
func (db *GroupDB) FindByName(ctx context.Context, name string) (*storage.Group, error) {
	group := new(Group)
	err := db.DB.NewSelect().Model(group).Where("g.name = ?", name).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find group: %w", err)
	}
	return groupToDomain(group), nil
}

// Create inserts a group.
func (db *GroupDB) Create(ctx context.Context, name string, creator shared.UserID, public bool) (*storage.Group, error) {
	model := &Group{
		Name:      name,
		CreatorID: creator,
		Public:    public,
	}
	if _, err := db.DB.NewInsert().Model(model).Exec(ctx); err != nil {
		return nil, fmt.Errorf("failed to create group: %w", err)
	}
	return groupToDomain(model), nil
}

// AddMember adds a user to a group; re-adding is a no-op.
func (db *GroupDB) AddMember(ctx context.Context, id shared.GroupID, user shared.UserID) error {
	_, err := db.DB.NewInsert().
		Model(&GroupMember{GroupID: id, UserID: user}).
		On("CONFLICT (group_id, user_id) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to add group member: %w", err)
	}
	return nil
}

// Load returns a user by ID, or errs.ErrNotFound.
func (db *UserDB) Load(ctx context.Context, id shared.UserID) (*storage.User, error) {
	user := new(User)
	err := db.DB.NewSelect().Model(user).Where("u.id = ?", id).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return userToDomain(user), nil
}

// GroupsForUser returns the IDs of the groups the user belongs to. The API
// layer resolves these into the request identity.
func (db *UserDB) GroupsForUser(ctx context.Context, id shared.UserID) ([]shared.GroupID, error) {
	var groupIDs []shared.GroupID
	err := db.DB.NewSelect().
		Model((*GroupMember)(nil)).
		Column("group_id").
		Where("gm.user_id = ?", id).
		Scan(ctx, &groupIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve group membership: %w", err)
	}
	return groupIDs, nil
}

// EmailsForUsers returns the addresses for the given users. Unknown IDs are
// skipped rather than erroring so one stale admin entry cannot block mail to
// the rest.
func (db *UserDB) EmailsForUsers(ctx context.Context, ids []shared.UserID) ([]string, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var emails []string
	err := db.DB.NewSelect().
		Model((*User)(nil)).
		Column("email").
		Where("u.id IN (?)", bun.In(ids)).
		Scan(ctx, &emails)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve user emails: %w", err)
	}
	return emails, nil
}

func requireRows(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return errs.ErrNotFound
	}
	return nil
}
