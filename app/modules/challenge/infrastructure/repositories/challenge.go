package challengedb

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/driver/pgdriver"

	challengetypes "github.com/girder/covalic/app/modules/challenge/domain/types"
	"github.com/girder/covalic/app/shared"
	"github.com/girder/covalic/app/shared/errs"
)

// ErrDuplicateName reports a challenge-name uniqueness violation.
var ErrDuplicateName = errors.New("challenge name already in use")

// Repository is the persistence contract for challenges.
//
// Error semantics:
//   - errs.ErrNotFound: record does not exist
//   - ErrDuplicateName: unique name constraint violated
//   - other errors: infrastructure failures
type Repository interface {
	Create(ctx context.Context, challenge *challengetypes.Challenge) error
	GetByID(ctx context.Context, id shared.ChallengeID) (*challengetypes.Challenge, error)
	GetByName(ctx context.Context, name string) (*challengetypes.Challenge, error)
	Update(ctx context.Context, challenge *challengetypes.Challenge) error
	Delete(ctx context.Context, id shared.ChallengeID) error
	List(ctx context.Context, limit, offset int) ([]challengetypes.Challenge, error)
	// UpdateAccess replaces the challenge's access list.
	UpdateAccess(ctx context.Context, id shared.ChallengeID, access shared.AccessList) error
}

// ChallengeDBImpl handles database operations for challenges.
type ChallengeDBImpl struct {
	DB *bun.DB
}

var _ Repository = (*ChallengeDBImpl)(nil)

func (db *ChallengeDBImpl) Create(ctx context.Context, challenge *challengetypes.Challenge) error {
	model := fromDomain(challenge)
	if _, err := db.DB.NewInsert().Model(model).Exec(ctx); err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateName
		}
		return fmt.Errorf("failed to insert challenge: %w", err)
	}
	challenge.ID = model.ID
	challenge.Created = model.Created
	challenge.Updated = model.Updated
	return nil
}

func (db *ChallengeDBImpl) GetByID(ctx context.Context, id shared.ChallengeID) (*challengetypes.Challenge, error) {
	model := new(Challenge)
	err := db.DB.NewSelect().Model(model).Where("c.id = ?", id).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get challenge: %w", err)
	}
	return toDomain(model), nil
}

func (db *ChallengeDBImpl) GetByName(ctx context.Context, name string) (*challengetypes.Challenge, error) {
	model := new(Challenge)
	err := db.DB.NewSelect().Model(model).Where("c.name = ?", name).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get challenge by name: %w", err)
	}
	return toDomain(model), nil
}

func (db *ChallengeDBImpl) Update(ctx context.Context, challenge *challengetypes.Challenge) error {
	model := fromDomain(challenge)
	model.Updated = time.Now()
	res, err := db.DB.NewUpdate().
		Model(model).
		ExcludeColumn("id", "creator_id", "collection_id", "assets_folder_id", "created").
		WherePK().
		Exec(ctx)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateName
		}
		return fmt.Errorf("failed to update challenge: %w", err)
	}
	return requireRows(res)
}

func (db *ChallengeDBImpl) Delete(ctx context.Context, id shared.ChallengeID) error {
	res, err := db.DB.NewDelete().
		Model((*Challenge)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete challenge: %w", err)
	}
	return requireRows(res)
}

func (db *ChallengeDBImpl) List(ctx context.Context, limit, offset int) ([]challengetypes.Challenge, error) {
	var models []Challenge
	q := db.DB.NewSelect().
		Model(&models).
		Order("name ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if offset > 0 {
		q = q.Offset(offset)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("failed to list challenges: %w", err)
	}

	challenges := make([]challengetypes.Challenge, 0, len(models))
	for i := range models {
		challenges = append(challenges, *toDomain(&models[i]))
	}
	return challenges, nil
}

func (db *ChallengeDBImpl) UpdateAccess(ctx context.Context, id shared.ChallengeID, access shared.AccessList) error {
	encoded, err := json.Marshal(access)
	if err != nil {
		return fmt.Errorf("failed to encode access list: %w", err)
	}
	res, err := db.DB.NewUpdate().
		Model((*Challenge)(nil)).
		Set("access = ?::jsonb", string(encoded)).
		Set("updated = ?", time.Now()).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to update challenge access: %w", err)
	}
	return requireRows(res)
}

func isUniqueViolation(err error) bool {
	var pgErr pgdriver.Error
	if errors.As(err, &pgErr) {
		return pgErr.Field('C') == "23505"
	}
	return strings.Contains(err.Error(), "duplicate key value")
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
