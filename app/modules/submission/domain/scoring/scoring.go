// Package scoring holds the pure score-aggregation functions: per-metric
// averaging across datasets and the weighted overall score used to order a
// phase's leaderboard.
package scoring

import (
	"sort"

	"github.com/girder/covalic/app/shared"
)

// ComputeAverageScores averages each metric's non-null values across all
// datasets reporting it and prepends a synthetic "Average" dataset row, its
// metrics sorted by name. Datasets reporting null for a metric are excluded
// from that metric's average, not treated as zero.
//
// Not idempotent: a second call would fold the Average row into the
// averages. Callers invoke it exactly once per raw score payload, and at
// least one dataset must have a non-null value for each metric of interest.
func ComputeAverageScores(score shared.ScoreMatrix) shared.ScoreMatrix {
	sums := make(map[string]float64)
	counts := make(map[string]int)
	var names []string

	for _, ds := range score {
		for _, m := range ds.Metrics {
			if _, seen := counts[m.Name]; !seen {
				names = append(names, m.Name)
				counts[m.Name] = 0
			}
			if m.Value != nil {
				sums[m.Name] += *m.Value
				counts[m.Name]++
			}
		}
	}
	sort.Strings(names)

	avgRow := shared.DatasetScore{
		Dataset: shared.AverageDataset,
		Metrics: make([]shared.MetricValue, 0, len(names)),
	}
	for _, name := range names {
		mv := shared.MetricValue{Name: name}
		if n := counts[name]; n > 0 {
			avg := sums[name] / float64(n)
			mv.Value = &avg
		}
		avgRow.Metrics = append(avgRow.Metrics, mv)
	}

	result := make(shared.ScoreMatrix, 0, len(score)+1)
	result = append(result, avgRow)
	result = append(result, score...)
	return result
}

// ComputeOverallScore reduces the aggregated score matrix to the single
// weighted scalar used for leaderboard ordering. It reads the Average row
// (the matrix head, so ComputeAverageScores must have run first) and sums
// value times weight for each metric. Metrics missing from the weight map
// weigh zero; metrics in the map but absent from the submission contribute
// nothing.
func ComputeOverallScore(score shared.ScoreMatrix, weights shared.MetricWeights) float64 {
	if len(score) == 0 {
		return 0
	}

	var overall float64
	for _, m := range score[0].Metrics {
		if m.Value == nil {
			continue
		}
		overall += *m.Value * weights[m.Name].Weight
	}
	return overall
}
