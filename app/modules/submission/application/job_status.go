package submissionservice

import (
	"context"
	"fmt"
	"strings"

	notificationevents "github.com/girder/covalic/app/modules/notification/domain/events"
	phasetypes "github.com/girder/covalic/app/modules/phase/domain/types"
	submissiontypes "github.com/girder/covalic/app/modules/submission/domain/types"
	"github.com/girder/covalic/app/shared"
	"github.com/girder/covalic/app/shared/attr"
	"github.com/girder/covalic/app/shared/errs"
	"github.com/girder/covalic/pkg/jwt"
)

// HandleJobStatus records a scoring-job transition. Error transitions fan
// out failure notifications: administrators get the full log, the submitter
// gets only the curated lines, and nobody mails the submitter during a
// rescore they never asked for.
func (s *SubmissionService) HandleJobStatus(ctx context.Context, jobID shared.JobID, status shared.JobStatus) error {
	_, err := withTelemetry(s, ctx, "HandleJobStatus", jobID, func(ctx context.Context) (struct{}, error) {
		if err := s.repo.UpdateJobStatus(ctx, jobID, status); err != nil {
			return struct{}{}, err
		}
		if status != shared.JobStatusError {
			return struct{}{}, nil
		}

		job, err := s.repo.GetJob(ctx, jobID)
		if err != nil {
			return struct{}{}, err
		}
		if err := s.repo.RevokeJobToken(ctx, jobID); err != nil {
			s.logger.WarnContext(ctx, "Failed to revoke token of failed job",
				attr.ExtractCorrelationID(ctx),
				attr.Stringer("job_id", jobID),
				attr.Error(err),
			)
		}

		sub, err := s.repo.GetByID(ctx, job.SubmissionID)
		if err != nil {
			return struct{}{}, err
		}
		phase, err := s.phases.GetByID(ctx, sub.PhaseID)
		if err != nil {
			return struct{}{}, err
		}

		s.sendFailureEmails(ctx, sub, phase, job)
		return struct{}{}, nil
	})
	return err
}

// AppendJobLog appends scoring-worker output lines to the job's log.
func (s *SubmissionService) AppendJobLog(ctx context.Context, jobID shared.JobID, lines []string) error {
	_, err := withTelemetry(s, ctx, "AppendJobLog", jobID, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, s.repo.AppendJobLog(ctx, jobID, lines)
	})
	return err
}

// VerifyScoringCredential checks the scoring token's signature, scope,
// submission binding and revocation state.
func (s *SubmissionService) VerifyScoringCredential(ctx context.Context, token string, id shared.SubmissionID) error {
	claims, err := s.tokens.ValidateToken(token)
	if err != nil {
		return errs.Access("invalid scoring credential")
	}
	if claims.Scope != jwt.ScopeScoring || claims.SubmissionID != id.String() {
		return errs.Access("the scoring credential does not cover this submission")
	}
	revoked, err := s.repo.IsTokenRevoked(ctx, claims.ID)
	if err != nil {
		return err
	}
	if revoked {
		return errs.Access("the scoring credential has been revoked")
	}
	return nil
}

// VerifyJobCredential checks a scoring token against the submission the job
// belongs to. Status and log callbacks are addressed by job ID, so the
// submission binding is resolved through the job row.
func (s *SubmissionService) VerifyJobCredential(ctx context.Context, token string, jobID shared.JobID) error {
	job, err := s.repo.GetJob(ctx, jobID)
	if err != nil {
		return err
	}
	return s.VerifyScoringCredential(ctx, token, job.SubmissionID)
}

// sendScoredEmails notifies the submitter and the phase administrators that
// a score landed. The submitter is skipped during rescoring.
func (s *SubmissionService) sendScoredEmails(ctx context.Context, sub *submissiontypes.Submission, phase *phasetypes.Phase, rescoring bool) {
	if !rescoring {
		if addrs, err := s.users.EmailsForUsers(ctx, []shared.UserID{sub.CreatorID}); err == nil && len(addrs) > 0 {
			s.publishEmail(ctx, addrs,
				"Your submission has been scored",
				fmt.Sprintf("<p>Your submission <b>%s</b> to phase <b>%s</b> has been scored.</p>", sub.Title, phase.Name))
		}
	}
	if addrs, err := s.users.EmailsForUsers(ctx, phase.Access.AdminUserIDs()); err == nil && len(addrs) > 0 {
		s.publishEmail(ctx, addrs,
			fmt.Sprintf("Submission scored in %s", phase.Name),
			fmt.Sprintf("<p>The submission <b>%s</b> by %s has been scored.</p>", sub.Title, sub.CreatorName))
	}
}

// sendFailureEmails notifies about a failed scoring job. Administrators see
// the full log; the submitter only sees lines with the curated prefix, and
// nothing at all when the failure came from a rescore.
func (s *SubmissionService) sendFailureEmails(ctx context.Context, sub *submissiontypes.Submission, phase *phasetypes.Phase, job *submissiontypes.ScoringJob) {
	fullLog := strings.Join(job.Log, "\n")
	if addrs, err := s.users.EmailsForUsers(ctx, phase.Access.AdminUserIDs()); err == nil && len(addrs) > 0 {
		s.publishEmail(ctx, addrs,
			fmt.Sprintf("Submission processing failed in %s", phase.Name),
			fmt.Sprintf("<p>Scoring of submission <b>%s</b> by %s failed.</p><pre>%s</pre>", sub.Title, sub.CreatorName, fullLog))
	}

	if job.Rescoring {
		return
	}

	var curated []string
	for _, line := range job.Log {
		if strings.HasPrefix(line, shared.JobLogPrefix) {
			curated = append(curated, strings.TrimPrefix(line, shared.JobLogPrefix))
		}
	}
	if addrs, err := s.users.EmailsForUsers(ctx, []shared.UserID{sub.CreatorID}); err == nil && len(addrs) > 0 {
		body := fmt.Sprintf("<p>Processing of your submission <b>%s</b> failed.</p>", sub.Title)
		if len(curated) > 0 {
			body += fmt.Sprintf("<pre>%s</pre>", strings.Join(curated, "\n"))
		}
		s.publishEmail(ctx, addrs, "Your submission could not be processed", body)
	}
}

func (s *SubmissionService) publishEmail(ctx context.Context, to []string, subject, html string) {
	err := s.publishEvent(ctx, notificationevents.NotificationEmailSubject, notificationevents.EmailEvent{
		To:      to,
		Subject: subject,
		HTML:    html,
	})
	if err != nil {
		s.logger.WarnContext(ctx, "Failed to publish email notification",
			attr.ExtractCorrelationID(ctx),
			attr.String("subject", subject),
			attr.Error(err),
		)
	}
}
