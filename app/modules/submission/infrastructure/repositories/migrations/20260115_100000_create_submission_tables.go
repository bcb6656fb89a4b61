package submissionmigrations

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"

	submissiondb "github.com/girder/covalic/app/modules/submission/infrastructure/repositories"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Creating submissions and scoring_jobs tables...")

		if _, err := db.NewCreateTable().Model((*submissiondb.Submission)(nil)).IfNotExists().Exec(ctx); err != nil {
			return err
		}
		if _, err := db.NewCreateTable().Model((*submissiondb.ScoringJob)(nil)).IfNotExists().Exec(ctx); err != nil {
			return err
		}

		// The leaderboard reads latest rows per phase ordered by score.
		if _, err := db.NewRaw("CREATE INDEX IF NOT EXISTS idx_submissions_phase_latest ON submissions (phase_id, latest, overall_score DESC)").Exec(ctx); err != nil {
			return err
		}
		// The sibling demotion on promotion is keyed on this group.
		if _, err := db.NewRaw("CREATE INDEX IF NOT EXISTS idx_submissions_group ON submissions (phase_id, creator_id, approach)").Exec(ctx); err != nil {
			return err
		}
		if _, err := db.NewRaw("CREATE INDEX IF NOT EXISTS idx_scoring_jobs_submission ON scoring_jobs (submission_id)").Exec(ctx); err != nil {
			return err
		}
		if _, err := db.NewRaw("CREATE INDEX IF NOT EXISTS idx_scoring_jobs_token ON scoring_jobs (token_id)").Exec(ctx); err != nil {
			return err
		}

		fmt.Println("Submission tables created successfully!")
		return nil
	}, func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Dropping submissions and scoring_jobs tables...")

		if _, err := db.NewDropTable().Model((*submissiondb.ScoringJob)(nil)).IfExists().Exec(ctx); err != nil {
			return err
		}
		if _, err := db.NewDropTable().Model((*submissiondb.Submission)(nil)).IfExists().Exec(ctx); err != nil {
			return err
		}

		fmt.Println("Submission tables dropped successfully!")
		return nil
	})
}
