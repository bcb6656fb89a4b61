package challengedb

import (
	"context"

	challengetypes "github.com/girder/covalic/app/modules/challenge/domain/types"
	"github.com/girder/covalic/app/shared"
)

// FakeRepository is a fake implementation of Repository for testing.
type FakeRepository struct {
	CreateFn       func(ctx context.Context, challenge *challengetypes.Challenge) error
	GetByIDFn      func(ctx context.Context, id shared.ChallengeID) (*challengetypes.Challenge, error)
	GetByNameFn    func(ctx context.Context, name string) (*challengetypes.Challenge, error)
	UpdateFn       func(ctx context.Context, challenge *challengetypes.Challenge) error
	DeleteFn       func(ctx context.Context, id shared.ChallengeID) error
	ListFn         func(ctx context.Context, limit, offset int) ([]challengetypes.Challenge, error)
	UpdateAccessFn func(ctx context.Context, id shared.ChallengeID, access shared.AccessList) error
}

var _ Repository = (*FakeRepository)(nil)

func (f *FakeRepository) Create(ctx context.Context, challenge *challengetypes.Challenge) error {
	if f.CreateFn != nil {
		return f.CreateFn(ctx, challenge)
	}
	return nil
}

func (f *FakeRepository) GetByID(ctx context.Context, id shared.ChallengeID) (*challengetypes.Challenge, error) {
	if f.GetByIDFn != nil {
		return f.GetByIDFn(ctx, id)
	}
	return &challengetypes.Challenge{ID: id}, nil
}

func (f *FakeRepository) GetByName(ctx context.Context, name string) (*challengetypes.Challenge, error) {
	if f.GetByNameFn != nil {
		return f.GetByNameFn(ctx, name)
	}
	return &challengetypes.Challenge{Name: name}, nil
}

func (f *FakeRepository) Update(ctx context.Context, challenge *challengetypes.Challenge) error {
	if f.UpdateFn != nil {
		return f.UpdateFn(ctx, challenge)
	}
	return nil
}

func (f *FakeRepository) Delete(ctx context.Context, id shared.ChallengeID) error {
	if f.DeleteFn != nil {
		return f.DeleteFn(ctx, id)
	}
	return nil
}

func (f *FakeRepository) List(ctx context.Context, limit, offset int) ([]challengetypes.Challenge, error) {
	if f.ListFn != nil {
		return f.ListFn(ctx, limit, offset)
	}
	return nil, nil
}

func (f *FakeRepository) UpdateAccess(ctx context.Context, id shared.ChallengeID, access shared.AccessList) error {
	if f.UpdateAccessFn != nil {
		return f.UpdateAccessFn(ctx, id, access)
	}
	return nil
}
