package challengemigrations

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"

	challengedb "github.com/girder/covalic/app/modules/challenge/infrastructure/repositories"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Creating challenges table...")

		if _, err := db.NewCreateTable().Model((*challengedb.Challenge)(nil)).IfNotExists().Exec(ctx); err != nil {
			return err
		}

		if _, err := db.NewRaw("CREATE UNIQUE INDEX IF NOT EXISTS idx_challenges_name ON challenges (name)").Exec(ctx); err != nil {
			return err
		}

		fmt.Println("Challenges table created successfully!")
		return nil
	}, func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Dropping challenges table...")

		if _, err := db.NewDropTable().Model((*challengedb.Challenge)(nil)).IfExists().Exec(ctx); err != nil {
			return err
		}

		fmt.Println("Challenges table dropped successfully!")
		return nil
	})
}
