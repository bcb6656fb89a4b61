package leaderboardservice

import (
	"bytes"
	"context"
	"time"

	"github.com/wcharczuk/go-chart/v2"

	submissiontypes "github.com/girder/covalic/app/modules/submission/domain/types"
	"github.com/girder/covalic/app/shared"
)

// ScoreHistoryChart renders a PNG line chart of one participant's overall
// scores over time under an approach. It covers every scored submission of
// the participant, not just the latest, so progress is visible.
func (s *LeaderboardService) ScoreHistoryChart(ctx context.Context, actor shared.Identity, phaseID shared.PhaseID, userID shared.UserID, approach string) ([]byte, error) {
	ctx, span := s.tracer.Start(ctx, "ScoreHistoryChart")
	defer span.End()
	s.metrics.RecordOperationAttempt("ScoreHistoryChart")

	// The access and hide-scores gates are the leaderboard's.
	if _, err := s.rankedSubmissions(ctx, actor, phaseID, 1, 0); err != nil {
		s.metrics.RecordOperationFailure("ScoreHistoryChart")
		return nil, err
	}

	subs, err := s.submissions.List(ctx, submissiontypes.ListParams{
		PhaseID:   phaseID,
		UserID:    &userID,
		Approach:  &approach,
		SortField: "created",
	})
	if err != nil {
		s.metrics.RecordOperationFailure("ScoreHistoryChart")
		return nil, err
	}

	var xValues []time.Time
	var yValues []float64
	for _, sub := range subs {
		if sub.OverallScore == nil {
			continue
		}
		xValues = append(xValues, sub.Created)
		yValues = append(yValues, *sub.OverallScore)
	}
	if len(xValues) == 0 {
		return renderNoDataPlaceholder()
	}
	if len(xValues) == 1 {
		// A single point renders an empty range; duplicate it so the
		// chart still draws.
		xValues = append(xValues, xValues[0].Add(time.Minute))
		yValues = append(yValues, yValues[0])
	}

	graph := chart.Chart{
		Width:  800,
		Height: 400,
		XAxis: chart.XAxis{
			Name:           "Date",
			ValueFormatter: chart.TimeValueFormatterWithFormat("2006-01-02"),
		},
		YAxis: chart.YAxis{
			Name: "Overall score",
		},
		Series: []chart.Series{
			chart.TimeSeries{
				Name:    "Score history",
				XValues: xValues,
				YValues: yValues,
				Style: chart.Style{
					StrokeWidth: 2,
					DotWidth:    4,
				},
			},
		},
	}

	buffer := bytes.NewBuffer([]byte{})
	if err := graph.Render(chart.PNG, buffer); err != nil {
		s.metrics.RecordOperationFailure("ScoreHistoryChart")
		return nil, err
	}
	s.metrics.RecordOperationSuccess("ScoreHistoryChart")
	return buffer.Bytes(), nil
}

// renderNoDataPlaceholder draws an empty chart frame so callers always get
// a valid image.
func renderNoDataPlaceholder() ([]byte, error) {
	now := time.Now()
	graph := chart.Chart{
		Width:  800,
		Height: 400,
		Series: []chart.Series{
			chart.TimeSeries{
				XValues: []time.Time{now.Add(-time.Hour), now},
				YValues: []float64{0, 0},
				Style:   chart.Style{StrokeWidth: 1},
			},
		},
	}
	buffer := bytes.NewBuffer([]byte{})
	if err := graph.Render(chart.PNG, buffer); err != nil {
		return nil, err
	}
	return buffer.Bytes(), nil
}
