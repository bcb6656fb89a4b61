package submissiondb

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/uptrace/bun"

	submissiontypes "github.com/girder/covalic/app/modules/submission/domain/types"
	"github.com/girder/covalic/app/shared"
	"github.com/girder/covalic/app/shared/errs"
)

// SubmissionDBImpl handles database operations for submissions.
type SubmissionDBImpl struct {
	DB *bun.DB
}

var _ Repository = (*SubmissionDBImpl)(nil)

// sortColumns whitelists the sortable fields and maps them to columns.
var sortColumns = map[string]string{
	"created":      "created",
	"title":        "title",
	"creatorName":  "creator_name",
	"overallScore": "overall_score",
}

// SortColumn resolves a caller-facing sort field to its column, reporting
// whether the field is sortable at all.
func SortColumn(field string) (string, bool) {
	col, ok := sortColumns[field]
	return col, ok
}

func (db *SubmissionDBImpl) Create(ctx context.Context, sub *submissiontypes.Submission) error {
	model := fromDomain(sub)
	if _, err := db.DB.NewInsert().Model(model).Exec(ctx); err != nil {
		return fmt.Errorf("failed to insert submission: %w", err)
	}
	sub.ID = model.ID
	sub.Created = model.Created
	return nil
}

func (db *SubmissionDBImpl) GetByID(ctx context.Context, id shared.SubmissionID) (*submissiontypes.Submission, error) {
	model := new(Submission)
	err := db.DB.NewSelect().Model(model).Where("s.id = ?", id).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get submission: %w", err)
	}
	return toDomain(model), nil
}

func (db *SubmissionDBImpl) UpdateFields(ctx context.Context, sub *submissiontypes.Submission) error {
	model := fromDomain(sub)
	res, err := db.DB.NewUpdate().
		Model(model).
		Column("title", "approach", "organization", "organization_url", "documentation_url", "meta").
		WherePK().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to update submission: %w", err)
	}
	return requireRows(res)
}

func (db *SubmissionDBImpl) Delete(ctx context.Context, id shared.SubmissionID) error {
	res, err := db.DB.NewDelete().
		Model((*Submission)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete submission: %w", err)
	}
	return requireRows(res)
}

func (db *SubmissionDBImpl) DeleteByPhase(ctx context.Context, phaseID shared.PhaseID) ([]shared.FolderID, error) {
	var folderIDs []shared.FolderID
	err := db.DB.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		if err := tx.NewSelect().
			Model((*Submission)(nil)).
			Column("folder_id").
			Where("phase_id = ?", phaseID).
			Scan(ctx, &folderIDs); err != nil {
			return err
		}
		_, err := tx.NewDelete().
			Model((*Submission)(nil)).
			Where("phase_id = ?", phaseID).
			Exec(ctx)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to delete phase submissions: %w", err)
	}
	return folderIDs, nil
}

func (db *SubmissionDBImpl) List(ctx context.Context, params submissiontypes.ListParams) ([]submissiontypes.Submission, error) {
	var models []Submission
	q := db.DB.NewSelect().
		Model(&models).
		Where("s.phase_id = ?", params.PhaseID)

	if params.UserID != nil {
		q = q.Where("s.creator_id = ?", *params.UserID)
	}
	if params.Approach != nil {
		q = q.Where("s.approach IS NOT DISTINCT FROM ?", normalizeApproach(*params.Approach))
	}
	if latestFilterApplies(params) {
		q = q.Where("s.latest = TRUE")
	}

	col, ok := SortColumn(params.SortField)
	if !ok {
		col = "created"
	}
	dir := "ASC"
	if params.SortDesc {
		dir = "DESC"
	}
	if col == "overall_score" {
		q = q.OrderExpr("s.overall_score " + dir + " NULLS LAST")
	} else {
		q = q.OrderExpr("s." + col + " " + dir)
	}

	if params.Limit > 0 {
		q = q.Limit(params.Limit)
	}
	if params.Offset > 0 {
		q = q.Offset(params.Offset)
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("failed to list submissions: %w", err)
	}

	subs := make([]submissiontypes.Submission, 0, len(models))
	for i := range models {
		subs = append(subs, *toDomain(&models[i]))
	}
	return subs, nil
}

// latestFilterApplies reports whether the latest filter participates in a
// list query. A user filter shows the user's full history, so it wins.
func latestFilterApplies(params submissiontypes.ListParams) bool {
	return params.LatestOnly && params.UserID == nil
}

func (db *SubmissionDBImpl) CountByPhase(ctx context.Context, phaseID shared.PhaseID) (int, error) {
	count, err := db.DB.NewSelect().
		Model((*Submission)(nil)).
		Where("phase_id = ?", phaseID).
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count submissions: %w", err)
	}
	return count, nil
}

func (db *SubmissionDBImpl) ListApproaches(ctx context.Context, phaseID shared.PhaseID, userID shared.UserID) ([]string, error) {
	var approaches []*string
	err := db.DB.NewSelect().
		Model((*Submission)(nil)).
		ColumnExpr("DISTINCT approach").
		Where("phase_id = ?", phaseID).
		Where("creator_id = ?", userID).
		OrderExpr("approach ASC NULLS FIRST").
		Scan(ctx, &approaches)
	if err != nil {
		return nil, fmt.Errorf("failed to list approaches: %w", err)
	}

	return approachNames(approaches), nil
}

// approachNames materializes the stored approach column values and prepends
// the default approach when nothing has been submitted under it yet. The
// default is always offered.
func approachNames(stored []*string) []string {
	out := make([]string, 0, len(stored)+1)
	hasDefault := false
	for _, a := range stored {
		name := materializeApproach(a)
		if name == shared.DefaultApproach {
			hasDefault = true
		}
		out = append(out, name)
	}
	if !hasDefault {
		out = append([]string{shared.DefaultApproach}, out...)
	}
	return out
}

func (db *SubmissionDBImpl) ListLatestScored(ctx context.Context, phaseID shared.PhaseID) ([]submissiontypes.Submission, error) {
	var models []Submission
	err := db.DB.NewSelect().
		Model(&models).
		Where("s.phase_id = ?", phaseID).
		Where("s.latest = TRUE").
		Where("s.score IS NOT NULL").
		Order("created ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list scored submissions: %w", err)
	}

	subs := make([]submissiontypes.Submission, 0, len(models))
	for i := range models {
		subs = append(subs, *toDomain(&models[i]))
	}
	return subs, nil
}

func (db *SubmissionDBImpl) ListScored(ctx context.Context, phaseID shared.PhaseID) ([]submissiontypes.Submission, error) {
	var models []Submission
	err := db.DB.NewSelect().
		Model(&models).
		Where("s.phase_id = ?", phaseID).
		Where("s.score IS NOT NULL").
		Order("created ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list scored submissions: %w", err)
	}

	subs := make([]submissiontypes.Submission, 0, len(models))
	for i := range models {
		subs = append(subs, *toDomain(&models[i]))
	}
	return subs, nil
}

// MarkScored writes the score inside a transaction. Promotion and sibling
// demotion happen as one conditional bulk update keyed on the (phase,
// creator, approach) group, so two concurrent promotions cannot both leave
// their row latest.
func (db *SubmissionDBImpl) MarkScored(ctx context.Context, id shared.SubmissionID, score shared.ScoreMatrix, overall float64, makeLatest bool) error {
	err := db.DB.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		row := new(Submission)
		if err := tx.NewSelect().
			Model(row).
			Column("id", "phase_id", "creator_id", "approach").
			Where("s.id = ?", id).
			For("UPDATE").
			Scan(ctx); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return errs.ErrNotFound
			}
			return err
		}

		encoded, err := json.Marshal(score)
		if err != nil {
			return fmt.Errorf("failed to encode score: %w", err)
		}
		q := tx.NewUpdate().
			Model((*Submission)(nil)).
			Set("score = ?::jsonb", string(encoded)).
			Set("overall_score = ?", overall).
			Where("id = ?", id)
		if makeLatest {
			q = q.Set("latest = TRUE")
		}
		if _, err := q.Exec(ctx); err != nil {
			return err
		}

		if makeLatest {
			_, err := tx.NewUpdate().
				Model((*Submission)(nil)).
				Set("latest = FALSE").
				Where("phase_id = ?", row.PhaseID).
				Where("creator_id = ?", row.CreatorID).
				Where("approach IS NOT DISTINCT FROM ?", row.Approach).
				Where("id != ?", id).
				Where("latest = TRUE").
				Exec(ctx)
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return err
		}
		return fmt.Errorf("failed to mark submission scored: %w", err)
	}
	return nil
}

func (db *SubmissionDBImpl) UpdateOverallScore(ctx context.Context, id shared.SubmissionID, overall float64) error {
	res, err := db.DB.NewUpdate().
		Model((*Submission)(nil)).
		Set("overall_score = ?", overall).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to update overall score: %w", err)
	}
	return requireRows(res)
}

func (db *SubmissionDBImpl) SetJobID(ctx context.Context, id shared.SubmissionID, jobID shared.JobID) error {
	res, err := db.DB.NewUpdate().
		Model((*Submission)(nil)).
		Set("job_id = ?", jobID).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to set submission job: %w", err)
	}
	return requireRows(res)
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
