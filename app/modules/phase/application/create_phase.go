package phaseservice

import (
	"context"
	"fmt"
	"strings"

	phasetypes "github.com/girder/covalic/app/modules/phase/domain/types"
	"github.com/girder/covalic/app/shared"
	"github.com/girder/covalic/app/shared/attr"
	"github.com/girder/covalic/app/shared/errs"
	"github.com/girder/covalic/app/shared/storage"
)

// CreatePhase provisions a phase under a challenge: its participant group,
// its submission, ground-truth and test-data folders, and an access list
// seeded with the creator as administrator.
func (s *PhaseService) CreatePhase(ctx context.Context, actor shared.Identity, params phasetypes.CreateParams) (*phasetypes.Phase, error) {
	return withTelemetry(s, ctx, "CreatePhase", params.ChallengeID, func(ctx context.Context) (*phasetypes.Phase, error) {
		challenge, err := s.challenges.GetByID(ctx, params.ChallengeID)
		if err != nil {
			return nil, err
		}
		if challenge.Access.LevelFor(actor) < shared.AccessAdmin {
			return nil, errs.Access("administrator access on the challenge is required to create phases")
		}
		if strings.TrimSpace(params.Name) == "" {
			return nil, errs.ValidationField("name", "phase name is required")
		}
		if err := validateDateRange(params.StartDate, params.EndDate); err != nil {
			return nil, err
		}

		ordinal := params.Ordinal
		if ordinal == 0 {
			// Default to the end of the challenge's phase list.
			count, err := s.repo.CountByChallenge(ctx, params.ChallengeID)
			if err != nil {
				return nil, err
			}
			ordinal = count
		}

		group, err := s.ensureParticipantGroup(ctx, challenge.Name, params.Name, actor.UserID)
		if err != nil {
			return nil, errs.External("failed to provision participant group", err)
		}

		phaseFolder, err := s.ensureFolder(ctx, challenge.CollectionID, params.Name, actor.UserID, params.Public)
		if err != nil {
			return nil, errs.External("failed to provision phase folder", err)
		}
		groundTruth, err := s.ensureFolder(ctx, challenge.CollectionID, params.Name+" ground truth", actor.UserID, false)
		if err != nil {
			return nil, errs.External("failed to provision ground truth folder", err)
		}
		testData, err := s.ensureFolder(ctx, challenge.CollectionID, params.Name+" test data", actor.UserID, params.Public)
		if err != nil {
			return nil, errs.External("failed to provision test data folder", err)
		}

		access := shared.AccessList{Public: params.Public}
		access = access.WithUserAccess(actor.UserID, shared.AccessAdmin)
		access = access.WithGroupAccess(group.ID, shared.AccessRead)

		phase := &phasetypes.Phase{
			ChallengeID:             params.ChallengeID,
			Name:                    params.Name,
			Description:             params.Description,
			Instructions:            params.Instructions,
			Ordinal:                 ordinal,
			Active:                  params.Active,
			Public:                  params.Public,
			CreatorID:               actor.UserID,
			StartDate:               params.StartDate,
			EndDate:                 params.EndDate,
			ParticipantGroupID:      group.ID,
			FolderID:                phaseFolder.ID,
			GroundTruthFolderID:     groundTruth.ID,
			TestDataFolderID:        testData.ID,
			Metrics:                 shared.MetricWeights{},
			HideScores:              params.HideScores,
			MatchSubmissions:        params.MatchSubmissions,
			EnableOrganization:      params.EnableOrganization,
			EnableOrganizationURL:   params.EnableOrganizationURL,
			EnableDocumentationURL:  params.EnableDocumentationURL,
			RequireOrganization:     params.RequireOrganization,
			RequireOrganizationURL:  params.RequireOrganizationURL,
			RequireDocumentationURL: params.RequireDocumentationURL,
			Access:                  access,
			Meta:                    params.Meta,
		}
		if err := s.repo.Create(ctx, phase); err != nil {
			return nil, err
		}

		s.logger.InfoContext(ctx, "Phase created",
			attr.ExtractCorrelationID(ctx),
			attr.Stringer("phase_id", phase.ID),
			attr.Stringer("challenge_id", challenge.ID),
			attr.String("name", phase.Name),
		)
		return phase, nil
	})
}

// ensureParticipantGroup finds or creates the phase's participant group.
func (s *PhaseService) ensureParticipantGroup(ctx context.Context, challengeName, phaseName string, creator shared.UserID) (*storage.Group, error) {
	name := fmt.Sprintf("%s %s participants", challengeName, phaseName)
	group, err := s.groups.FindByName(ctx, name)
	if err == nil {
		return group, nil
	}
	return s.groups.Create(ctx, name, creator, true)
}

func (s *PhaseService) ensureFolder(ctx context.Context, collectionID shared.CollectionID, name string, creator shared.UserID, public bool) (*storage.Folder, error) {
	return s.folders.Create(ctx, storage.CreateFolderParams{
		Name:          name,
		CollectionID:  collectionID,
		Creator:       creator,
		Public:        public,
		ReuseExisting: true,
	})
}
