package phasedb

import (
	"context"

	phasetypes "github.com/girder/covalic/app/modules/phase/domain/types"
	"github.com/girder/covalic/app/shared"
)

// FakeRepository is a fake implementation of Repository for testing.
type FakeRepository struct {
	CreateFn           func(ctx context.Context, phase *phasetypes.Phase) error
	GetByIDFn          func(ctx context.Context, id shared.PhaseID) (*phasetypes.Phase, error)
	UpdateFn           func(ctx context.Context, phase *phasetypes.Phase) error
	DeleteFn           func(ctx context.Context, id shared.PhaseID) error
	ListByChallengeFn  func(ctx context.Context, challengeID shared.ChallengeID) ([]phasetypes.Phase, error)
	CountByChallengeFn func(ctx context.Context, challengeID shared.ChallengeID) (int, error)
	UpdateAccessFn     func(ctx context.Context, id shared.PhaseID, access shared.AccessList) error
	UpdateMetricsFn    func(ctx context.Context, id shared.PhaseID, metrics shared.MetricWeights) error
}

var _ Repository = (*FakeRepository)(nil)

func (f *FakeRepository) Create(ctx context.Context, phase *phasetypes.Phase) error {
	if f.CreateFn != nil {
		return f.CreateFn(ctx, phase)
	}
	return nil
}

func (f *FakeRepository) GetByID(ctx context.Context, id shared.PhaseID) (*phasetypes.Phase, error) {
	if f.GetByIDFn != nil {
		return f.GetByIDFn(ctx, id)
	}
	return &phasetypes.Phase{ID: id}, nil
}

func (f *FakeRepository) Update(ctx context.Context, phase *phasetypes.Phase) error {
	if f.UpdateFn != nil {
		return f.UpdateFn(ctx, phase)
	}
	return nil
}

func (f *FakeRepository) Delete(ctx context.Context, id shared.PhaseID) error {
	if f.DeleteFn != nil {
		return f.DeleteFn(ctx, id)
	}
	return nil
}

func (f *FakeRepository) ListByChallenge(ctx context.Context, challengeID shared.ChallengeID) ([]phasetypes.Phase, error) {
	if f.ListByChallengeFn != nil {
		return f.ListByChallengeFn(ctx, challengeID)
	}
	return nil, nil
}

func (f *FakeRepository) CountByChallenge(ctx context.Context, challengeID shared.ChallengeID) (int, error) {
	if f.CountByChallengeFn != nil {
		return f.CountByChallengeFn(ctx, challengeID)
	}
	return 0, nil
}

func (f *FakeRepository) UpdateAccess(ctx context.Context, id shared.PhaseID, access shared.AccessList) error {
	if f.UpdateAccessFn != nil {
		return f.UpdateAccessFn(ctx, id, access)
	}
	return nil
}

func (f *FakeRepository) UpdateMetrics(ctx context.Context, id shared.PhaseID, metrics shared.MetricWeights) error {
	if f.UpdateMetricsFn != nil {
		return f.UpdateMetricsFn(ctx, id, metrics)
	}
	return nil
}
