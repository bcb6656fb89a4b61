package submissionservice

import (
	"context"
	"strings"
	"time"

	phasetypes "github.com/girder/covalic/app/modules/phase/domain/types"
	submissiontypes "github.com/girder/covalic/app/modules/submission/domain/types"
	"github.com/girder/covalic/app/shared"
	"github.com/girder/covalic/app/shared/attr"
	"github.com/girder/covalic/app/shared/errs"
)

// CreateSubmission validates the phase's gates and field flags, records the
// submission, synchronizes the folder ACL and queues scoring dispatch.
func (s *SubmissionService) CreateSubmission(ctx context.Context, actor shared.Identity, params submissiontypes.CreateParams) (*submissiontypes.Submission, error) {
	return withTelemetry(s, ctx, "CreateSubmission", params.PhaseID, func(ctx context.Context) (*submissiontypes.Submission, error) {
		phase, err := s.phases.GetByID(ctx, params.PhaseID)
		if err != nil {
			return nil, err
		}

		level := phase.Access.LevelFor(actor)
		admin := level >= shared.AccessAdmin

		// Inactive phases reject submissions from everyone but admins.
		if !phase.AcceptsSubmissions() && !admin {
			return nil, errs.Validation("you may not submit to this phase because it is not currently active")
		}
		if !admin && !actor.InGroup(phase.ParticipantGroupID) {
			return nil, errs.Access("you must join the phase before submitting to it")
		}
		if (params.Created != nil || params.CreatorID != nil) && !admin {
			return nil, errs.Access("administrator access is required to override submission attribution")
		}

		if err := validateSubmissionFields(phase, &params); err != nil {
			return nil, err
		}

		creatorID := actor.UserID
		if params.CreatorID != nil {
			creatorID = *params.CreatorID
		}
		creator, err := s.users.Load(ctx, creatorID)
		if err != nil {
			return nil, err
		}

		folder, err := s.folders.Load(ctx, params.FolderID)
		if err != nil {
			return nil, err
		}
		if !admin && folder.CreatorID != actor.UserID && folder.Access.UserLevel(actor.UserID) < shared.AccessRead {
			return nil, errs.Access("you do not have access to the submission folder")
		}

		created := time.Now()
		if params.Created != nil {
			created = *params.Created
		}

		sub := &submissiontypes.Submission{
			PhaseID:          phase.ID,
			CreatorID:        creatorID,
			CreatorName:      creator.Name,
			FolderID:         folder.ID,
			Created:          created,
			Title:            params.Title,
			Approach:         params.Approach,
			Organization:     params.Organization,
			OrganizationURL:  params.OrganizationURL,
			DocumentationURL: params.DocumentationURL,
			Meta:             params.Meta,
		}
		if err := s.repo.Create(ctx, sub); err != nil {
			return nil, err
		}

		if err := s.updateFolderAccess(ctx, phase, []shared.FolderID{folder.ID}); err != nil {
			// The submission exists; a grant failure must not lose it. The
			// ACL sweep on the next phase ACL change repairs this.
			s.logger.WarnContext(ctx, "Folder access sync failed after submission create",
				attr.ExtractCorrelationID(ctx),
				attr.Stringer("submission_id", sub.ID),
				attr.Error(err),
			)
		}

		if err := s.queue.EnqueueScoreDispatch(ctx, sub.ID, false); err != nil {
			return nil, errs.External("failed to queue scoring", err)
		}

		s.logger.InfoContext(ctx, "Submission created",
			attr.ExtractCorrelationID(ctx),
			attr.Stringer("submission_id", sub.ID),
			attr.Stringer("phase_id", phase.ID),
			attr.Stringer("creator_id", creatorID),
		)
		return sub, nil
	})
}

// validateSubmissionFields enforces the title requirement and the phase's
// enable/require flags for the optional descriptive fields. Flags are
// checked at creation time only.
func validateSubmissionFields(phase *phasetypes.Phase, params *submissiontypes.CreateParams) error {
	if strings.TrimSpace(params.Title) == "" {
		return errs.ValidationField("title", "submission title is required")
	}

	if !phase.MatchSubmissions {
		// Approaches only mean something when submissions are matched
		// across a creator's history.
		params.Approach = ""
	}

	type fieldFlag struct {
		name    string
		value   string
		enabled bool
		require bool
	}
	for _, f := range []fieldFlag{
		{"organization", params.Organization, phase.EnableOrganization, phase.RequireOrganization},
		{"organizationUrl", params.OrganizationURL, phase.EnableOrganizationURL, phase.RequireOrganizationURL},
		{"documentationUrl", params.DocumentationURL, phase.EnableDocumentationURL, phase.RequireDocumentationURL},
	} {
		if !f.enabled && f.value != "" {
			return errs.ValidationField(f.name, "field is not enabled for this phase")
		}
		if f.enabled && f.require && strings.TrimSpace(f.value) == "" {
			return errs.ValidationField(f.name, "field is required by this phase")
		}
	}
	return nil
}
