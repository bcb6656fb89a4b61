package phasedb

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	phasetypes "github.com/girder/covalic/app/modules/phase/domain/types"
	"github.com/girder/covalic/app/shared"
	"github.com/girder/covalic/app/shared/errs"
)

// Repository is the persistence contract for phases.
//
// Error semantics:
//   - errs.ErrNotFound: record does not exist
//   - other errors: infrastructure failures
type Repository interface {
	Create(ctx context.Context, phase *phasetypes.Phase) error
	GetByID(ctx context.Context, id shared.PhaseID) (*phasetypes.Phase, error)
	Update(ctx context.Context, phase *phasetypes.Phase) error
	Delete(ctx context.Context, id shared.PhaseID) error
	// ListByChallenge returns a challenge's phases in ordinal order.
	ListByChallenge(ctx context.Context, challengeID shared.ChallengeID) ([]phasetypes.Phase, error)
	// CountByChallenge reports how many phases a challenge has.
	CountByChallenge(ctx context.Context, challengeID shared.ChallengeID) (int, error)
	// UpdateAccess replaces the phase's access list.
	UpdateAccess(ctx context.Context, id shared.PhaseID, access shared.AccessList) error
	// UpdateMetrics replaces the phase's metric weight set.
	UpdateMetrics(ctx context.Context, id shared.PhaseID, metrics shared.MetricWeights) error
}

// PhaseDBImpl handles database operations for phases.
type PhaseDBImpl struct {
	DB *bun.DB
}

var _ Repository = (*PhaseDBImpl)(nil)

func (db *PhaseDBImpl) Create(ctx context.Context, phase *phasetypes.Phase) error {
	model := fromDomain(phase)
	if _, err := db.DB.NewInsert().Model(model).Exec(ctx); err != nil {
		return fmt.Errorf("failed to insert phase: %w", err)
	}
	phase.ID = model.ID
	phase.Created = model.Created
	phase.Updated = model.Updated
	return nil
}

func (db *PhaseDBImpl) GetByID(ctx context.Context, id shared.PhaseID) (*phasetypes.Phase, error) {
	model := new(Phase)
	err := db.DB.NewSelect().Model(model).Where("p.id = ?", id).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get phase: %w", err)
	}
	return toDomain(model), nil
}

func (db *PhaseDBImpl) Update(ctx context.Context, phase *phasetypes.Phase) error {
	model := fromDomain(phase)
	model.Updated = time.Now()
	res, err := db.DB.NewUpdate().
		Model(model).
		ExcludeColumn("id", "challenge_id", "creator_id", "created").
		WherePK().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to update phase: %w", err)
	}
	return requireRows(res)
}

func (db *PhaseDBImpl) Delete(ctx context.Context, id shared.PhaseID) error {
	res, err := db.DB.NewDelete().
		Model((*Phase)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete phase: %w", err)
	}
	return requireRows(res)
}

func (db *PhaseDBImpl) ListByChallenge(ctx context.Context, challengeID shared.ChallengeID) ([]phasetypes.Phase, error) {
	var models []Phase
	err := db.DB.NewSelect().
		Model(&models).
		Where("p.challenge_id = ?", challengeID).
		Order("ordinal ASC", "created ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list phases: %w", err)
	}

	phases := make([]phasetypes.Phase, 0, len(models))
	for i := range models {
		phases = append(phases, *toDomain(&models[i]))
	}
	return phases, nil
}

func (db *PhaseDBImpl) CountByChallenge(ctx context.Context, challengeID shared.ChallengeID) (int, error) {
	count, err := db.DB.NewSelect().
		Model((*Phase)(nil)).
		Where("challenge_id = ?", challengeID).
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count phases: %w", err)
	}
	return count, nil
}

func (db *PhaseDBImpl) UpdateAccess(ctx context.Context, id shared.PhaseID, access shared.AccessList) error {
	encoded, err := json.Marshal(access)
	if err != nil {
		return fmt.Errorf("failed to encode access list: %w", err)
	}
	res, err := db.DB.NewUpdate().
		Model((*Phase)(nil)).
		Set("access = ?::jsonb", string(encoded)).
		Set("updated = ?", time.Now()).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to update phase access: %w", err)
	}
	return requireRows(res)
}

func (db *PhaseDBImpl) UpdateMetrics(ctx context.Context, id shared.PhaseID, metrics shared.MetricWeights) error {
	encoded, err := json.Marshal(metrics)
	if err != nil {
		return fmt.Errorf("failed to encode metric weights: %w", err)
	}
	res, err := db.DB.NewUpdate().
		Model((*Phase)(nil)).
		Set("metrics = ?::jsonb", string(encoded)).
		Set("updated = ?", time.Now()).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to update phase metrics: %w", err)
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
