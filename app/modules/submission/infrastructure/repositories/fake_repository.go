package submissiondb

import (
	"context"

	submissiontypes "github.com/girder/covalic/app/modules/submission/domain/types"
	"github.com/girder/covalic/app/shared"
)

// FakeRepository is a fake implementation of Repository for testing.
type FakeRepository struct {
	CreateFn           func(ctx context.Context, sub *submissiontypes.Submission) error
	GetByIDFn          func(ctx context.Context, id shared.SubmissionID) (*submissiontypes.Submission, error)
	UpdateFieldsFn     func(ctx context.Context, sub *submissiontypes.Submission) error
	DeleteFn           func(ctx context.Context, id shared.SubmissionID) error
	DeleteByPhaseFn    func(ctx context.Context, phaseID shared.PhaseID) ([]shared.FolderID, error)
	ListFn             func(ctx context.Context, params submissiontypes.ListParams) ([]submissiontypes.Submission, error)
	CountByPhaseFn     func(ctx context.Context, phaseID shared.PhaseID) (int, error)
	ListApproachesFn   func(ctx context.Context, phaseID shared.PhaseID, userID shared.UserID) ([]string, error)
	ListLatestScoredFn func(ctx context.Context, phaseID shared.PhaseID) ([]submissiontypes.Submission, error)
	ListScoredFn       func(ctx context.Context, phaseID shared.PhaseID) ([]submissiontypes.Submission, error)

	MarkScoredFn         func(ctx context.Context, id shared.SubmissionID, score shared.ScoreMatrix, overall float64, makeLatest bool) error
	UpdateOverallScoreFn func(ctx context.Context, id shared.SubmissionID, overall float64) error
	SetJobIDFn           func(ctx context.Context, id shared.SubmissionID, jobID shared.JobID) error

	CreateJobFn       func(ctx context.Context, job *ScoringJob) error
	GetJobFn          func(ctx context.Context, id shared.JobID) (*submissiontypes.ScoringJob, error)
	UpdateJobStatusFn func(ctx context.Context, id shared.JobID, status shared.JobStatus) error
	AppendJobLogFn    func(ctx context.Context, id shared.JobID, lines []string) error
	RevokeJobTokenFn  func(ctx context.Context, id shared.JobID) error
	IsTokenRevokedFn  func(ctx context.Context, tokenID string) (bool, error)
}

var _ Repository = (*FakeRepository)(nil)

func (f *FakeRepository) Create(ctx context.Context, sub *submissiontypes.Submission) error {
	if f.CreateFn != nil {
		return f.CreateFn(ctx, sub)
	}
	return nil
}

func (f *FakeRepository) GetByID(ctx context.Context, id shared.SubmissionID) (*submissiontypes.Submission, error) {
	if f.GetByIDFn != nil {
		return f.GetByIDFn(ctx, id)
	}
	return &submissiontypes.Submission{ID: id}, nil
}

func (f *FakeRepository) UpdateFields(ctx context.Context, sub *submissiontypes.Submission) error {
	if f.UpdateFieldsFn != nil {
		return f.UpdateFieldsFn(ctx, sub)
	}
	return nil
}

func (f *FakeRepository) Delete(ctx context.Context, id shared.SubmissionID) error {
	if f.DeleteFn != nil {
		return f.DeleteFn(ctx, id)
	}
	return nil
}

func (f *FakeRepository) DeleteByPhase(ctx context.Context, phaseID shared.PhaseID) ([]shared.FolderID, error) {
	if f.DeleteByPhaseFn != nil {
		return f.DeleteByPhaseFn(ctx, phaseID)
	}
	return nil, nil
}

func (f *FakeRepository) List(ctx context.Context, params submissiontypes.ListParams) ([]submissiontypes.Submission, error) {
	if f.ListFn != nil {
		return f.ListFn(ctx, params)
	}
	return nil, nil
}

func (f *FakeRepository) CountByPhase(ctx context.Context, phaseID shared.PhaseID) (int, error) {
	if f.CountByPhaseFn != nil {
		return f.CountByPhaseFn(ctx, phaseID)
	}
	return 0, nil
}

func (f *FakeRepository) ListApproaches(ctx context.Context, phaseID shared.PhaseID, userID shared.UserID) ([]string, error) {
	if f.ListApproachesFn != nil {
		return f.ListApproachesFn(ctx, phaseID, userID)
	}
	return nil, nil
}

func (f *FakeRepository) ListLatestScored(ctx context.Context, phaseID shared.PhaseID) ([]submissiontypes.Submission, error) {
	if f.ListLatestScoredFn != nil {
		return f.ListLatestScoredFn(ctx, phaseID)
	}
	return nil, nil
}

func (f *FakeRepository) ListScored(ctx context.Context, phaseID shared.PhaseID) ([]submissiontypes.Submission, error) {
	if f.ListScoredFn != nil {
		return f.ListScoredFn(ctx, phaseID)
	}
	return nil, nil
}

func (f *FakeRepository) MarkScored(ctx context.Context, id shared.SubmissionID, score shared.ScoreMatrix, overall float64, makeLatest bool) error {
	if f.MarkScoredFn != nil {
		return f.MarkScoredFn(ctx, id, score, overall, makeLatest)
	}
	return nil
}

func (f *FakeRepository) UpdateOverallScore(ctx context.Context, id shared.SubmissionID, overall float64) error {
	if f.UpdateOverallScoreFn != nil {
		return f.UpdateOverallScoreFn(ctx, id, overall)
	}
	return nil
}

func (f *FakeRepository) SetJobID(ctx context.Context, id shared.SubmissionID, jobID shared.JobID) error {
	if f.SetJobIDFn != nil {
		return f.SetJobIDFn(ctx, id, jobID)
	}
	return nil
}

func (f *FakeRepository) CreateJob(ctx context.Context, job *ScoringJob) error {
	if f.CreateJobFn != nil {
		return f.CreateJobFn(ctx, job)
	}
	return nil
}

func (f *FakeRepository) GetJob(ctx context.Context, id shared.JobID) (*submissiontypes.ScoringJob, error) {
	if f.GetJobFn != nil {
		return f.GetJobFn(ctx, id)
	}
	return &submissiontypes.ScoringJob{ID: id}, nil
}

func (f *FakeRepository) UpdateJobStatus(ctx context.Context, id shared.JobID, status shared.JobStatus) error {
	if f.UpdateJobStatusFn != nil {
		return f.UpdateJobStatusFn(ctx, id, status)
	}
	return nil
}

func (f *FakeRepository) AppendJobLog(ctx context.Context, id shared.JobID, lines []string) error {
	if f.AppendJobLogFn != nil {
		return f.AppendJobLogFn(ctx, id, lines)
	}
	return nil
}

func (f *FakeRepository) RevokeJobToken(ctx context.Context, id shared.JobID) error {
	if f.RevokeJobTokenFn != nil {
		return f.RevokeJobTokenFn(ctx, id)
	}
	return nil
}

func (f *FakeRepository) IsTokenRevoked(ctx context.Context, tokenID string) (bool, error) {
	if f.IsTokenRevokedFn != nil {
		return f.IsTokenRevokedFn(ctx, tokenID)
	}
	return false, nil
}
