package eventbus

import "context"

// Stream definitions for the platform's fixed event set. Subjects are
// enumerated rather than wildcarded so an unknown topic is a wiring bug,
// not silently routed traffic.
var streamDefinitions = map[string][]string{
	"challenge": {
		"challenge.saved.v1",
	},
	"phase": {
		"phase.acl.changed.v1",
		"phase.metrics.changed.v1",
	},
	"scoring": {
		"scoring.job.dispatch.v1",
		"scoring.job.status.v1",
	},
	"submission": {
		"submission.scored.v1",
	},
	"notification": {
		"notification.email.v1",
	},
}

// InitializeStreams provisions every stream the platform publishes to.
// Called once at startup.
func InitializeStreams(ctx context.Context, bus EventBus) error {
	for name, subjects := range streamDefinitions {
		if err := bus.EnsureStream(ctx, name, subjects...); err != nil {
			return err
		}
	}
	return nil
}
