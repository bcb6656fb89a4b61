package storagemigrations

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"

	"github.com/girder/covalic/app/shared/storage/storagedb"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Creating storage tables...")

		if _, err := db.NewCreateTable().Model((*storagedb.User)(nil)).IfNotExists().Exec(ctx); err != nil {
			return err
		}
		if _, err := db.NewCreateTable().Model((*storagedb.Collection)(nil)).IfNotExists().Exec(ctx); err != nil {
			return err
		}
		if _, err := db.NewCreateTable().Model((*storagedb.Folder)(nil)).IfNotExists().Exec(ctx); err != nil {
			return err
		}
		if _, err := db.NewCreateTable().Model((*storagedb.Group)(nil)).IfNotExists().Exec(ctx); err != nil {
			return err
		}
		if _, err := db.NewCreateTable().Model((*storagedb.GroupMember)(nil)).IfNotExists().Exec(ctx); err != nil {
			return err
		}

		// Folder reuse looks up by name within a parent container.
		if _, err := db.NewRaw("CREATE INDEX IF NOT EXISTS idx_folders_collection_name ON folders (collection_id, name)").Exec(ctx); err != nil {
			return err
		}
		if _, err := db.NewRaw("CREATE INDEX IF NOT EXISTS idx_group_members_user ON group_members (user_id)").Exec(ctx); err != nil {
			return err
		}

		fmt.Println("Storage tables created successfully!")
		return nil
	}, func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Dropping storage tables...")

		for _, model := range []any{
			(*storagedb.GroupMember)(nil),
			(*storagedb.Group)(nil),
			(*storagedb.Folder)(nil),
			(*storagedb.Collection)(nil),
			(*storagedb.User)(nil),
		} {
			if _, err := db.NewDropTable().Model(model).IfExists().Exec(ctx); err != nil {
				return err
			}
		}

		fmt.Println("Storage tables dropped successfully!")
		return nil
	})
}
