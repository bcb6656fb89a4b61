package phaseservice

import (
	"context"
	"time"

	phaseevents "github.com/girder/covalic/app/modules/phase/domain/events"
	phasetypes "github.com/girder/covalic/app/modules/phase/domain/types"
	"github.com/girder/covalic/app/shared"
	"github.com/girder/covalic/app/shared/attr"
	"github.com/girder/covalic/app/shared/errs"
)

// GetPhase loads one phase, requiring read access.
func (s *PhaseService) GetPhase(ctx context.Context, actor shared.Identity, id shared.PhaseID) (*phasetypes.Phase, error) {
	return withTelemetry(s, ctx, "GetPhase", id, func(ctx context.Context) (*phasetypes.Phase, error) {
		phase, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if phase.Access.LevelFor(actor) < shared.AccessRead {
			return nil, errs.Access("you do not have access to this phase")
		}
		return phase, nil
	})
}

// ListPhases returns the challenge's phases visible to the actor.
func (s *PhaseService) ListPhases(ctx context.Context, actor shared.Identity, challengeID shared.ChallengeID) ([]phasetypes.Phase, error) {
	return withTelemetry(s, ctx, "ListPhases", challengeID, func(ctx context.Context) ([]phasetypes.Phase, error) {
		phases, err := s.repo.ListByChallenge(ctx, challengeID)
		if err != nil {
			return nil, err
		}
		visible := phases[:0]
		for _, phase := range phases {
			if phase.Access.LevelFor(actor) >= shared.AccessRead {
				visible = append(visible, phase)
			}
		}
		return visible, nil
	})
}

// UpdatePhase edits phase fields; requires phase admin.
func (s *PhaseService) UpdatePhase(ctx context.Context, actor shared.Identity, id shared.PhaseID, params phasetypes.UpdateParams) (*phasetypes.Phase, error) {
	return withTelemetry(s, ctx, "UpdatePhase", id, func(ctx context.Context) (*phasetypes.Phase, error) {
		phase, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if phase.Access.LevelFor(actor) < shared.AccessAdmin {
			return nil, errs.Access("administrator access is required to edit this phase")
		}

		applyUpdate(phase, params)
		if err := validateDateRange(phase.StartDate, phase.EndDate); err != nil {
			return nil, err
		}

		if err := s.repo.Update(ctx, phase); err != nil {
			return nil, err
		}
		return phase, nil
	})
}

// validateDateRange rejects a start date on or after the end date. Either
// bound may be open.
func validateDateRange(start, end *time.Time) error {
	if start != nil && end != nil && !start.Before(*end) {
		return errs.ValidationField("startDate", "start date must be before end date")
	}
	return nil
}

func applyUpdate(phase *phasetypes.Phase, params phasetypes.UpdateParams) {
	if params.Name != nil {
		phase.Name = *params.Name
	}
	if params.Description != nil {
		phase.Description = *params.Description
	}
	if params.Instructions != nil {
		phase.Instructions = *params.Instructions
	}
	if params.Ordinal != nil {
		phase.Ordinal = *params.Ordinal
	}
	if params.Active != nil {
		phase.Active = *params.Active
	}
	if params.StartDate != nil {
		phase.StartDate = params.StartDate
	}
	if params.EndDate != nil {
		phase.EndDate = params.EndDate
	}
	if params.HideScores != nil {
		phase.HideScores = *params.HideScores
	}
	if params.MatchSubmissions != nil {
		phase.MatchSubmissions = *params.MatchSubmissions
	}
	if params.EnableOrganization != nil {
		phase.EnableOrganization = *params.EnableOrganization
	}
	if params.EnableOrganizationURL != nil {
		phase.EnableOrganizationURL = *params.EnableOrganizationURL
	}
	if params.EnableDocumentationURL != nil {
		phase.EnableDocumentationURL = *params.EnableDocumentationURL
	}
	if params.RequireOrganization != nil {
		phase.RequireOrganization = *params.RequireOrganization
	}
	if params.RequireOrganizationURL != nil {
		phase.RequireOrganizationURL = *params.RequireOrganizationURL
	}
	if params.RequireDocumentationURL != nil {
		phase.RequireDocumentationURL = *params.RequireDocumentationURL
	}
	if params.Meta != nil {
		phase.Meta = params.Meta
	}
}

// SetMetrics replaces the phase's metric weights. With copyFrom set, the
// weights come from another phase the actor administers. When the effective
// weight set actually changes, the metrics-changed event fans out an
// overall-score recomputation.
func (s *PhaseService) SetMetrics(ctx context.Context, actor shared.Identity, id shared.PhaseID, metrics shared.MetricWeights, copyFrom *shared.PhaseID) (*phasetypes.Phase, error) {
	return withTelemetry(s, ctx, "SetMetrics", id, func(ctx context.Context) (*phasetypes.Phase, error) {
		phase, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if phase.Access.LevelFor(actor) < shared.AccessAdmin {
			return nil, errs.Access("administrator access is required to edit metrics")
		}

		if copyFrom != nil {
			source, err := s.repo.GetByID(ctx, *copyFrom)
			if err != nil {
				return nil, err
			}
			if source.Access.LevelFor(actor) < shared.AccessAdmin {
				return nil, errs.Access("administrator access on the source phase is required to copy its metrics")
			}
			metrics = source.Metrics
		}
		if metrics == nil {
			metrics = shared.MetricWeights{}
		}

		changed := !phase.Metrics.Equal(metrics)
		if err := s.repo.UpdateMetrics(ctx, id, metrics); err != nil {
			return nil, err
		}
		phase.Metrics = metrics

		if changed {
			if err := s.publishEvent(ctx, phaseevents.PhaseMetricsChangedSubject, phaseevents.PhaseMetricsChangedEvent{
				PhaseID: id.String(),
			}); err != nil {
				return nil, err
			}
			s.logger.InfoContext(ctx, "Phase metrics changed",
				attr.ExtractCorrelationID(ctx),
				attr.Stringer("phase_id", id),
				attr.Int("metric_count", len(metrics)),
			)
		}
		return phase, nil
	})
}

// SetScoringInfo replaces the phase's scoring-container override.
func (s *PhaseService) SetScoringInfo(ctx context.Context, actor shared.Identity, id shared.PhaseID, task *shared.ScoreTask) (*phasetypes.Phase, error) {
	return withTelemetry(s, ctx, "SetScoringInfo", id, func(ctx context.Context) (*phasetypes.Phase, error) {
		phase, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if phase.Access.LevelFor(actor) < shared.AccessAdmin {
			return nil, errs.Access("administrator access is required to edit scoring info")
		}

		phase.ScoreTask = task
		if err := s.repo.Update(ctx, phase); err != nil {
			return nil, err
		}
		return phase, nil
	})
}

// UpdateAccess replaces the phase's access list and publishes the ACL
// change so submission folder ACLs get reconciled.
func (s *PhaseService) UpdateAccess(ctx context.Context, actor shared.Identity, id shared.PhaseID, access shared.AccessList) error {
	_, err := withTelemetry(s, ctx, "UpdateAccess", id, func(ctx context.Context) (struct{}, error) {
		phase, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return struct{}{}, err
		}
		if phase.Access.LevelFor(actor) < shared.AccessAdmin {
			return struct{}{}, errs.Access("administrator access is required to edit the access list")
		}

		if err := s.repo.UpdateAccess(ctx, id, access); err != nil {
			return struct{}{}, err
		}

		return struct{}{}, s.publishEvent(ctx, phaseevents.PhaseACLChangedSubject, phaseevents.PhaseACLChangedEvent{
			PhaseID: id.String(),
		})
	})
	return err
}

// JoinPhase adds the actor to the phase's participant group so they can
// submit.
func (s *PhaseService) JoinPhase(ctx context.Context, actor shared.Identity, id shared.PhaseID) error {
	_, err := withTelemetry(s, ctx, "JoinPhase", id, func(ctx context.Context) (struct{}, error) {
		phase, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return struct{}{}, err
		}
		if phase.Access.LevelFor(actor) < shared.AccessRead {
			return struct{}{}, errs.Access("you do not have access to this phase")
		}
		if actor.InGroup(phase.ParticipantGroupID) {
			return struct{}{}, nil
		}
		if err := s.groups.AddMember(ctx, phase.ParticipantGroupID, actor.UserID); err != nil {
			return struct{}{}, errs.External("failed to join participant group", err)
		}
		return struct{}{}, nil
	})
	return err
}

// RescorePhase queues a rescore of every latest scored submission in the
// phase.
func (s *PhaseService) RescorePhase(ctx context.Context, actor shared.Identity, id shared.PhaseID) (int, error) {
	return withTelemetry(s, ctx, "RescorePhase", id, func(ctx context.Context) (int, error) {
		phase, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return 0, err
		}
		if phase.Access.LevelFor(actor) < shared.AccessAdmin {
			return 0, errs.Access("administrator access is required to rescore a phase")
		}
		return s.submissions.RescorePhase(ctx, id)
	})
}
