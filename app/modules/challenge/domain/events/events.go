package challengeevents

// Stream names
const (
	ChallengeStreamName = "challenge"
)

// Challenge-related event subjects
const (
	ChallengeSavedSubject = "challenge.saved.v1"
)

// ChallengeSavedEvent is published after a challenge is created or updated
// so search indexes and caches can refresh.
type ChallengeSavedEvent struct {
	ChallengeID string `json:"challenge_id"`
	Name        string `json:"name"`
	Created     bool   `json:"created"`
}
