package phaseevents

// Stream names
const (
	PhaseStreamName = "phase"
)

// Phase-related event subjects
const (
	PhaseACLChangedSubject     = "phase.acl.changed.v1"
	PhaseMetricsChangedSubject = "phase.metrics.changed.v1"
)

// PhaseACLChangedEvent is published when a phase's access list changes so
// submission folder ACLs can be resynchronized.
type PhaseACLChangedEvent struct {
	PhaseID string `json:"phase_id"`
}

// PhaseMetricsChangedEvent is published when a phase's metric weight set
// changes in a way that affects stored overall scores.
type PhaseMetricsChangedEvent struct {
	PhaseID string `json:"phase_id"`
}
