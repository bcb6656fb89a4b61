package phasemigrations

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"

	phasedb "github.com/girder/covalic/app/modules/phase/infrastructure/repositories"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Creating phases table...")

		if _, err := db.NewCreateTable().Model((*phasedb.Phase)(nil)).IfNotExists().Exec(ctx); err != nil {
			return err
		}

		if _, err := db.NewRaw("CREATE INDEX IF NOT EXISTS idx_phases_challenge ON phases (challenge_id, ordinal)").Exec(ctx); err != nil {
			return err
		}

		fmt.Println("Phases table created successfully!")
		return nil
	}, func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Dropping phases table...")

		if _, err := db.NewDropTable().Model((*phasedb.Phase)(nil)).IfExists().Exec(ctx); err != nil {
			return err
		}

		fmt.Println("Phases table dropped successfully!")
		return nil
	})
}
