package shared

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// AverageDataset is the name of the synthetic dataset row holding per-metric
// averages, prepended to a score matrix by the aggregator.
const AverageDataset = "Average"

// DefaultApproach is the sentinel approach label. Submissions created with an
// empty or "default" approach are stored with no approach value and
// materialized back to this sentinel on read.
const DefaultApproach = "default"

// MetricValue is a single metric measurement for one dataset. Value is nil
// when the scoring worker could not produce a value for that dataset.
type MetricValue struct {
	Name  string   `json:"name"`
	Value *float64 `json:"value"`
}

// metricValueWire mirrors MetricValue for JSON, with Value loose enough to
// accept numbers, the string forms of non-finite floats, and null.
type metricValueWire struct {
	Name  string          `json:"name"`
	Value json.RawMessage `json:"value"`
}

// UnmarshalJSON accepts numeric, string ("NaN", "+Inf", ...) and null values.
// Scoring workers report non-finite metric values as strings because JSON has
// no literal for them.
func (m *MetricValue) UnmarshalJSON(data []byte) error {
	var wire metricValueWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	m.Name = wire.Name
	m.Value = nil

	if len(wire.Value) == 0 || string(wire.Value) == "null" {
		return nil
	}

	var f float64
	if err := json.Unmarshal(wire.Value, &f); err == nil {
		m.Value = &f
		return nil
	}

	var s string
	if err := json.Unmarshal(wire.Value, &s); err != nil {
		return fmt.Errorf("metric %q: value must be a number, string or null", wire.Name)
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("metric %q: unparseable value %q", wire.Name, s)
	}
	m.Value = &f
	return nil
}

// MarshalJSON writes non-finite values in their string form so the document
// remains valid JSON end to end.
func (m MetricValue) MarshalJSON() ([]byte, error) {
	type alias struct {
		Name  string `json:"name"`
		Value any    `json:"value"`
	}
	out := alias{Name: m.Name}
	if m.Value != nil {
		if math.IsNaN(*m.Value) || math.IsInf(*m.Value, 0) {
			out.Value = strconv.FormatFloat(*m.Value, 'f', -1, 64)
		} else {
			out.Value = *m.Value
		}
	}
	return json.Marshal(out)
}

// DatasetScore is the per-dataset row of a score matrix.
type DatasetScore struct {
	Dataset string        `json:"dataset"`
	Metrics []MetricValue `json:"metrics"`
}

// ScoreMatrix is the ordered list of per-dataset scores reported by the
// scoring worker, with the synthetic Average row at the head once aggregated.
type ScoreMatrix []DatasetScore

// MetricWeight wraps a single metric's weighting value.
type MetricWeight struct {
	Weight float64 `json:"weight"`
}

// MetricWeights maps metric names to their weights for a phase.
type MetricWeights map[string]MetricWeight

// Equal reports whether two weight maps have the same key set and values.
// A change in either triggers a full-phase overall-score recompute.
func (w MetricWeights) Equal(other MetricWeights) bool {
	if len(w) != len(other) {
		return false
	}
	for name, mw := range w {
		ow, ok := other[name]
		if !ok || ow.Weight != mw.Weight {
			return false
		}
	}
	return true
}

// ScoreTask is a phase's optional scoring-container override.
type ScoreTask struct {
	DockerImage string   `json:"dockerImage,omitempty"`
	DockerArgs  []string `json:"dockerArgs,omitempty"`
}

// TaskInput describes one input the job runner fetches over authenticated
// HTTP before starting the container.
type TaskInput struct {
	ID       string            `json:"id"`
	URL      string            `json:"url"`
	Filename string            `json:"filename"`
	Headers  map[string]string `json:"headers,omitempty"`
}

// TaskOutput describes where the job runner delivers a produced output.
type TaskOutput struct {
	ID      string            `json:"id"`
	Method  string            `json:"method"`
	URL     string            `json:"url"`
	Headers map[string]string `json:"headers,omitempty"`
}

// TaskSpec is the descriptor handed to the external job runner.
type TaskSpec struct {
	Name      string       `json:"name"`
	Image     string       `json:"image"`
	Args      []string     `json:"args"`
	Inputs    []TaskInput  `json:"inputs"`
	Outputs   []TaskOutput `json:"outputs"`
	StatusURL string       `json:"statusCallback"`
}

// JobStatus is the lifecycle state reported by the job runner.
type JobStatus string

const (
	JobStatusQueued  JobStatus = "queued"
	JobStatusRunning JobStatus = "running"
	JobStatusSuccess JobStatus = "success"
	JobStatusError   JobStatus = "error"
)

// ScoreJobType tags scoring jobs so the failure handler only reacts to its
// own job class.
const ScoreJobType = "covalic_score"

// JobLogPrefix marks worker log lines that are safe to surface to the
// submitting user. Lines without the prefix only go to administrators.
const JobLogPrefix = "covalic: "
