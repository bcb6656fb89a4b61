// Package challengehandlers adapts the challenge service to the event bus:
// saved challenges get their assets folder ACL re-synced.
package challengehandlers

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill/message"
	"go.opentelemetry.io/otel/trace"

	challengeservice "github.com/girder/covalic/app/modules/challenge/application"
	challengeevents "github.com/girder/covalic/app/modules/challenge/domain/events"
	"github.com/girder/covalic/app/shared"
	"github.com/girder/covalic/app/shared/handlerwrapper"
	"github.com/girder/covalic/app/shared/observability"
)

// ChallengeHandlers holds the wrapped watermill handlers for the challenge
// module's subscriptions.
type ChallengeHandlers struct {
	ChallengeSaved message.HandlerFunc
}

// NewChallengeHandlers creates the challenge module's event handlers.
func NewChallengeHandlers(
	service challengeservice.Service,
	logger *slog.Logger,
	metrics observability.OperationMetrics,
	tracer trace.Tracer,
) *ChallengeHandlers {
	return &ChallengeHandlers{
		ChallengeSaved: handlerwrapper.Wrap("HandleChallengeSaved", logger, metrics, tracer,
			func(ctx context.Context, payload *challengeevents.ChallengeSavedEvent) ([]handlerwrapper.Result, error) {
				challengeID, err := shared.ParseChallengeID(payload.ChallengeID)
				if err != nil {
					return nil, fmt.Errorf("invalid challenge ID %q: %w", payload.ChallengeID, err)
				}
				return nil, service.SyncAssetsFolderAccess(ctx, challengeID)
			}),
	}
}
