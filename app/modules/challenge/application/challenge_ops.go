package challengeservice

import (
	"context"
	"errors"
	"strings"
	"time"

	challengeevents "github.com/girder/covalic/app/modules/challenge/domain/events"
	challengetypes "github.com/girder/covalic/app/modules/challenge/domain/types"
	challengedb "github.com/girder/covalic/app/modules/challenge/infrastructure/repositories"
	"github.com/girder/covalic/app/shared"
	"github.com/girder/covalic/app/shared/attr"
	"github.com/girder/covalic/app/shared/errs"
	"github.com/girder/covalic/app/shared/storage"
)

// CreateChallenge records a challenge and provisions its storage
// collection. Name uniqueness is enforced by the database.
func (s *ChallengeService) CreateChallenge(ctx context.Context, actor shared.Identity, params challengetypes.CreateParams) (*challengetypes.Challenge, error) {
	return withTelemetry(s, ctx, "CreateChallenge", actor.UserID, func(ctx context.Context) (*challengetypes.Challenge, error) {
		name := strings.TrimSpace(params.Name)
		if name == "" {
			return nil, errs.ValidationField("name", "challenge name is required")
		}
		if err := validateDateRange(params.StartDate, params.EndDate); err != nil {
			return nil, err
		}

		collection, err := s.ensureCollection(ctx, name, actor.UserID, params.Public)
		if err != nil {
			return nil, errs.External("failed to provision challenge collection", err)
		}

		assets, err := s.ensureAssetsFolder(ctx, collection.ID, actor.UserID, params.Public)
		if err != nil {
			return nil, errs.External("failed to provision challenge assets folder", err)
		}

		access := shared.AccessList{Public: params.Public}
		access = access.WithUserAccess(actor.UserID, shared.AccessAdmin)

		challenge := &challengetypes.Challenge{
			Name:           name,
			Description:    params.Description,
			Instructions:   params.Instructions,
			Organizers:     params.Organizers,
			CreatorID:      actor.UserID,
			CollectionID:   collection.ID,
			AssetsFolderID: assets.ID,
			StartDate:      params.StartDate,
			EndDate:        params.EndDate,
			Public:         params.Public,
			Access:         access,
		}
		if err := s.repo.Create(ctx, challenge); err != nil {
			if errors.Is(err, challengedb.ErrDuplicateName) {
				return nil, errs.ValidationField("name", "a challenge with that name already exists")
			}
			return nil, err
		}

		s.announceSaved(ctx, challenge, true)

		s.logger.InfoContext(ctx, "Challenge created",
			attr.ExtractCorrelationID(ctx),
			attr.Stringer("challenge_id", challenge.ID),
			attr.String("name", challenge.Name),
		)
		return challenge, nil
	})
}

// GetChallenge loads one challenge, requiring read access.
func (s *ChallengeService) GetChallenge(ctx context.Context, actor shared.Identity, id shared.ChallengeID) (*challengetypes.Challenge, error) {
	return withTelemetry(s, ctx, "GetChallenge", id, func(ctx context.Context) (*challengetypes.Challenge, error) {
		challenge, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if challenge.Access.LevelFor(actor) < shared.AccessRead {
			return nil, errs.Access("you do not have access to this challenge")
		}
		return challenge, nil
	})
}

// ListChallenges returns challenges visible to the actor, optionally
// filtered to a timeframe.
func (s *ChallengeService) ListChallenges(ctx context.Context, actor shared.Identity, timeframe challengetypes.Timeframe, limit, offset int) ([]challengetypes.Challenge, error) {
	return withTelemetry(s, ctx, "ListChallenges", actor.UserID, func(ctx context.Context) ([]challengetypes.Challenge, error) {
		challenges, err := s.repo.List(ctx, limit, offset)
		if err != nil {
			return nil, err
		}

		now := time.Now()
		visible := challenges[:0]
		for _, challenge := range challenges {
			if challenge.Access.LevelFor(actor) < shared.AccessRead {
				continue
			}
			if !challenge.InTimeframe(timeframe, now) {
				continue
			}
			visible = append(visible, challenge)
		}
		return visible, nil
	})
}

// UpdateChallenge edits challenge fields; requires challenge admin.
func (s *ChallengeService) UpdateChallenge(ctx context.Context, actor shared.Identity, id shared.ChallengeID, params challengetypes.UpdateParams) (*challengetypes.Challenge, error) {
	return withTelemetry(s, ctx, "UpdateChallenge", id, func(ctx context.Context) (*challengetypes.Challenge, error) {
		challenge, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if challenge.Access.LevelFor(actor) < shared.AccessAdmin {
			return nil, errs.Access("administrator access is required to edit this challenge")
		}

		if params.Name != nil {
			name := strings.TrimSpace(*params.Name)
			if name == "" {
				return nil, errs.ValidationField("name", "challenge name is required")
			}
			challenge.Name = name
		}
		if params.Description != nil {
			challenge.Description = *params.Description
		}
		if params.Instructions != nil {
			challenge.Instructions = *params.Instructions
		}
		if params.Organizers != nil {
			challenge.Organizers = *params.Organizers
		}
		if params.StartDate != nil {
			challenge.StartDate = params.StartDate
		}
		if params.EndDate != nil {
			challenge.EndDate = params.EndDate
		}
		if params.Public != nil {
			challenge.Public = *params.Public
			challenge.Access.Public = *params.Public
		}
		if params.ThumbnailIDs != nil {
			challenge.ThumbnailIDs = params.ThumbnailIDs
		}
		if err := validateDateRange(challenge.StartDate, challenge.EndDate); err != nil {
			return nil, err
		}

		if err := s.repo.Update(ctx, challenge); err != nil {
			if errors.Is(err, challengedb.ErrDuplicateName) {
				return nil, errs.ValidationField("name", "a challenge with that name already exists")
			}
			return nil, err
		}

		s.announceSaved(ctx, challenge, false)
		return challenge, nil
	})
}

// UpdateAccess replaces the challenge's access list.
func (s *ChallengeService) UpdateAccess(ctx context.Context, actor shared.Identity, id shared.ChallengeID, access shared.AccessList) error {
	_, err := withTelemetry(s, ctx, "UpdateAccess", id, func(ctx context.Context) (struct{}, error) {
		challenge, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return struct{}{}, err
		}
		if challenge.Access.LevelFor(actor) < shared.AccessAdmin {
			return struct{}{}, errs.Access("administrator access is required to edit the access list")
		}
		if err := s.repo.UpdateAccess(ctx, id, access); err != nil {
			return struct{}{}, err
		}
		challenge.Access = access
		s.announceSaved(ctx, challenge, false)
		return struct{}{}, nil
	})
	return err
}

// RemoveChallenge removes the challenge, cascading to its phases and their
// submissions, then drops the backing collection.
func (s *ChallengeService) RemoveChallenge(ctx context.Context, actor shared.Identity, id shared.ChallengeID) error {
	_, err := withTelemetry(s, ctx, "RemoveChallenge", id, func(ctx context.Context) (struct{}, error) {
		challenge, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return struct{}{}, err
		}
		if challenge.Access.LevelFor(actor) < shared.AccessAdmin {
			return struct{}{}, errs.Access("administrator access is required to remove this challenge")
		}

		if err := s.phases.RemoveByChallenge(ctx, id); err != nil {
			return struct{}{}, err
		}

		if err := s.collections.Remove(ctx, challenge.CollectionID); err != nil {
			s.logger.WarnContext(ctx, "Failed to remove challenge collection",
				attr.ExtractCorrelationID(ctx),
				attr.Stringer("challenge_id", id),
				attr.Stringer("collection_id", challenge.CollectionID),
				attr.Error(err),
			)
		}

		if err := s.repo.Delete(ctx, id); err != nil {
			return struct{}{}, err
		}

		s.logger.InfoContext(ctx, "Challenge removed",
			attr.ExtractCorrelationID(ctx),
			attr.Stringer("challenge_id", id),
		)
		return struct{}{}, nil
	})
	return err
}

// SubtreeCount reports how many records removing the challenge would
// destroy: the challenge, its phases and all their submissions.
func (s *ChallengeService) SubtreeCount(ctx context.Context, actor shared.Identity, id shared.ChallengeID) (int, error) {
	return withTelemetry(s, ctx, "SubtreeCount", id, func(ctx context.Context) (int, error) {
		challenge, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return 0, err
		}
		if challenge.Access.LevelFor(actor) < shared.AccessAdmin {
			return 0, errs.Access("administrator access is required to inspect this challenge")
		}
		count, err := s.phases.SubtreeCountByChallenge(ctx, id)
		if err != nil {
			return 0, err
		}
		return count + 1, nil
	})
}

// ensureCollection finds or creates the storage collection backing the
// challenge.
func (s *ChallengeService) ensureCollection(ctx context.Context, name string, creator shared.UserID, public bool) (*storage.Collection, error) {
	collection, err := s.collections.FindByName(ctx, name)
	if err == nil {
		return collection, nil
	}
	return s.collections.Create(ctx, name, creator, public)
}

// ensureAssetsFolder finds or creates the Assets folder under the challenge
// collection. Its ACL is kept in line with the challenge's by the saved
// event handler.
func (s *ChallengeService) ensureAssetsFolder(ctx context.Context, collectionID shared.CollectionID, creator shared.UserID, public bool) (*storage.Folder, error) {
	return s.folders.Create(ctx, storage.CreateFolderParams{
		Name:          "Assets",
		CollectionID:  collectionID,
		Creator:       creator,
		Public:        public,
		ReuseExisting: true,
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

// announceSaved publishes the saved event; a failed publish is logged, not
// fatal, since the row is already durable.
func (s *ChallengeService) announceSaved(ctx context.Context, challenge *challengetypes.Challenge, created bool) {
	err := s.publishEvent(ctx, challengeevents.ChallengeSavedSubject, challengeevents.ChallengeSavedEvent{
		ChallengeID: challenge.ID.String(),
		Name:        challenge.Name,
		Created:     created,
	})
	if err != nil {
		s.logger.WarnContext(ctx, "Failed to publish challenge saved event",
			attr.ExtractCorrelationID(ctx),
			attr.Stringer("challenge_id", challenge.ID),
			attr.Error(err),
		)
	}
}
