package submissiondb

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	submissiontypes "github.com/girder/covalic/app/modules/submission/domain/types"
	"github.com/girder/covalic/app/shared"
	"github.com/girder/covalic/app/shared/errs"
)

func (db *SubmissionDBImpl) CreateJob(ctx context.Context, job *ScoringJob) error {
	if _, err := db.DB.NewInsert().Model(job).Exec(ctx); err != nil {
		return fmt.Errorf("failed to insert scoring job: %w", err)
	}
	return nil
}

func (db *SubmissionDBImpl) GetJob(ctx context.Context, id shared.JobID) (*submissiontypes.ScoringJob, error) {
	model := new(ScoringJob)
	err := db.DB.NewSelect().Model(model).Where("sj.id = ?", id).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get scoring job: %w", err)
	}
	return jobToDomain(model), nil
}

func (db *SubmissionDBImpl) UpdateJobStatus(ctx context.Context, id shared.JobID, status shared.JobStatus) error {
	res, err := db.DB.NewUpdate().
		Model((*ScoringJob)(nil)).
		Set("status = ?", status).
		Set("updated = ?", time.Now()).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to update job status: %w", err)
	}
	return requireRows(res)
}

func (db *SubmissionDBImpl) AppendJobLog(ctx context.Context, id shared.JobID, lines []string) error {
	if len(lines) == 0 {
		return nil
	}
	encoded, err := json.Marshal(lines)
	if err != nil {
		return fmt.Errorf("failed to encode job log lines: %w", err)
	}
	res, err := db.DB.NewUpdate().
		Model((*ScoringJob)(nil)).
		Set("log = COALESCE(log, '[]'::jsonb) || ?::jsonb", string(encoded)).
		Set("updated = ?", time.Now()).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to append job log: %w", err)
	}
	return requireRows(res)
}

func (db *SubmissionDBImpl) RevokeJobToken(ctx context.Context, id shared.JobID) error {
	res, err := db.DB.NewUpdate().
		Model((*ScoringJob)(nil)).
		Set("token_revoked = TRUE").
		Set("updated = ?", time.Now()).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to revoke job token: %w", err)
	}
	return requireRows(res)
}

// IsTokenRevoked treats unknown token IDs as revoked so a forged or stale
// credential can never slip through as valid.
func (db *SubmissionDBImpl) IsTokenRevoked(ctx context.Context, tokenID string) (bool, error) {
	model := new(ScoringJob)
	err := db.DB.NewSelect().
		Model(model).
		Column("token_revoked").
		Where("token_id = ?", tokenID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return true, nil
		}
		return false, fmt.Errorf("failed to check token revocation: %w", err)
	}
	return model.TokenRevoked, nil
}
