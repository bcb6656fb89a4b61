// Package leaderboardservice is the read model over scored submissions: the
// ranked leaderboard for a phase, spreadsheet export, and per-participant
// score history charts.
package leaderboardservice

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/trace"

	phasetypes "github.com/girder/covalic/app/modules/phase/domain/types"
	submissiontypes "github.com/girder/covalic/app/modules/submission/domain/types"
	"github.com/girder/covalic/app/shared"
	"github.com/girder/covalic/app/shared/errs"
	"github.com/girder/covalic/app/shared/observability"
)

// PhaseProvider is the slice of phase persistence the leaderboard needs.
type PhaseProvider interface {
	GetByID(ctx context.Context, id shared.PhaseID) (*phasetypes.Phase, error)
}

// SubmissionProvider is the slice of submission persistence the leaderboard
// needs.
type SubmissionProvider interface {
	List(ctx context.Context, params submissiontypes.ListParams) ([]submissiontypes.Submission, error)
}

// Entry is one ranked row of a phase's leaderboard.
type Entry struct {
	Rank         int                  `json:"rank"`
	SubmissionID shared.SubmissionID  `json:"submissionId"`
	CreatorID    shared.UserID        `json:"creatorId"`
	CreatorName  string               `json:"creatorName"`
	Title        string               `json:"title"`
	Approach     string               `json:"approach"`
	OverallScore float64              `json:"overallScore"`
	Metrics      []shared.MetricValue `json:"metrics"`
	Created      time.Time            `json:"created"`
}

// LeaderboardService implements the Service interface.
type LeaderboardService struct {
	phases      PhaseProvider
	submissions SubmissionProvider
	logger      *slog.Logger
	metrics     observability.OperationMetrics
	tracer      trace.Tracer
}

// Service is the leaderboard module's application surface.
type Service interface {
	// GetLeaderboard returns the phase's latest submissions ranked by
	// overall score.
	GetLeaderboard(ctx context.Context, actor shared.Identity, phaseID shared.PhaseID, limit, offset int) ([]Entry, error)

	// ExportXLSX renders the full leaderboard as a spreadsheet.
	ExportXLSX(ctx context.Context, actor shared.Identity, phaseID shared.PhaseID) ([]byte, error)

	// ScoreHistoryChart renders a PNG chart of one participant's overall
	// scores over time for an approach.
	ScoreHistoryChart(ctx context.Context, actor shared.Identity, phaseID shared.PhaseID, userID shared.UserID, approach string) ([]byte, error)
}

var _ Service = (*LeaderboardService)(nil)

// NewLeaderboardService creates a new LeaderboardService.
func NewLeaderboardService(
	phases PhaseProvider,
	submissions SubmissionProvider,
	logger *slog.Logger,
	metrics observability.OperationMetrics,
	tracer trace.Tracer,
) *LeaderboardService {
	return &LeaderboardService{
		phases:      phases,
		submissions: submissions,
		logger:      logger,
		metrics:     metrics,
		tracer:      tracer,
	}
}

// GetLeaderboard returns the phase's latest submissions ranked by overall
// score, highest first. On hide-scores phases the leaderboard only exists
// for phase admins.
func (s *LeaderboardService) GetLeaderboard(ctx context.Context, actor shared.Identity, phaseID shared.PhaseID, limit, offset int) ([]Entry, error) {
	ctx, span := s.tracer.Start(ctx, "GetLeaderboard")
	defer span.End()
	s.metrics.RecordOperationAttempt("GetLeaderboard")

	subs, err := s.rankedSubmissions(ctx, actor, phaseID, limit, offset)
	if err != nil {
		s.metrics.RecordOperationFailure("GetLeaderboard")
		return nil, err
	}

	entries := make([]Entry, 0, len(subs))
	for i, sub := range subs {
		entries = append(entries, toEntry(&sub, offset+i+1))
	}
	s.metrics.RecordOperationSuccess("GetLeaderboard")
	return entries, nil
}

// rankedSubmissions loads the latest scored submissions of the phase in
// leaderboard order, after the access and hide-scores gates.
func (s *LeaderboardService) rankedSubmissions(ctx context.Context, actor shared.Identity, phaseID shared.PhaseID, limit, offset int) ([]submissiontypes.Submission, error) {
	phase, err := s.phases.GetByID(ctx, phaseID)
	if err != nil {
		return nil, err
	}
	level := phase.Access.LevelFor(actor)
	if level < shared.AccessRead {
		return nil, errs.Access("you do not have access to this phase")
	}
	if phase.HideScores && level < shared.AccessAdmin {
		return nil, errs.Access("scores are hidden on this phase")
	}

	subs, err := s.submissions.List(ctx, submissiontypes.ListParams{
		PhaseID:    phaseID,
		LatestOnly: true,
		SortField:  "overallScore",
		SortDesc:   true,
		Limit:      limit,
		Offset:     offset,
	})
	if err != nil {
		return nil, err
	}

	// Unscored latest rows carry no overall score and do not rank.
	ranked := subs[:0]
	for _, sub := range subs {
		if sub.OverallScore != nil {
			ranked = append(ranked, sub)
		}
	}
	return ranked, nil
}

func toEntry(sub *submissiontypes.Submission, rank int) Entry {
	entry := Entry{
		Rank:         rank,
		SubmissionID: sub.ID,
		CreatorID:    sub.CreatorID,
		CreatorName:  sub.CreatorName,
		Title:        sub.Title,
		Approach:     sub.Approach,
		OverallScore: *sub.OverallScore,
		Created:      sub.Created,
	}
	// The Average row heads the aggregated matrix.
	if len(sub.Score) > 0 && sub.Score[0].Dataset == shared.AverageDataset {
		entry.Metrics = sub.Score[0].Metrics
	}
	return entry
}
