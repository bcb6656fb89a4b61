package api

import (
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	submissiontypes "github.com/girder/covalic/app/modules/submission/domain/types"
	"github.com/girder/covalic/app/shared"
	"github.com/girder/covalic/app/shared/errs"
)

type submissionResponse struct {
	ID               shared.SubmissionID `json:"_id"`
	PhaseID          shared.PhaseID      `json:"phaseId"`
	CreatorID        shared.UserID       `json:"creatorId"`
	CreatorName      string              `json:"creatorName"`
	FolderID         shared.FolderID     `json:"folderId"`
	Created          time.Time           `json:"created"`
	Title            string              `json:"title"`
	Approach         string              `json:"approach"`
	Organization     string              `json:"organization,omitempty"`
	OrganizationURL  string              `json:"organizationUrl,omitempty"`
	DocumentationURL string              `json:"documentationUrl,omitempty"`
	Meta             map[string]any      `json:"meta,omitempty"`
	Score            shared.ScoreMatrix  `json:"score,omitempty"`
	// OverallScore is a number, or the string form of a non-finite value.
	OverallScore any            `json:"overallScore"`
	Latest       bool           `json:"latest"`
	JobID        *shared.JobID  `json:"jobId,omitempty"`
}

func toSubmissionResponse(sub *submissiontypes.Submission) submissionResponse {
	return submissionResponse{
		ID:               sub.ID,
		PhaseID:          sub.PhaseID,
		CreatorID:        sub.CreatorID,
		CreatorName:      sub.CreatorName,
		FolderID:         sub.FolderID,
		Created:          sub.Created,
		Title:            sub.Title,
		Approach:         sub.Approach,
		Organization:     sub.Organization,
		OrganizationURL:  sub.OrganizationURL,
		DocumentationURL: sub.DocumentationURL,
		Meta:             sub.Meta,
		Score:            sub.Score,
		OverallScore:     coerceFloat(sub.OverallScore),
		Latest:           sub.Latest,
		JobID:            sub.JobID,
	}
}

// coerceFloat keeps non-finite overall scores representable in JSON, the
// same way MetricValue renders them.
func coerceFloat(v *float64) any {
	if v == nil {
		return nil
	}
	if math.IsNaN(*v) || math.IsInf(*v, 0) {
		return strconv.FormatFloat(*v, 'f', -1, 64)
	}
	return *v
}

type submissionCreateRequest struct {
	PhaseID          shared.PhaseID  `json:"phaseId"`
	FolderID         shared.FolderID `json:"folderId"`
	Title            string          `json:"title"`
	Approach         string          `json:"approach"`
	Organization     string          `json:"organization"`
	OrganizationURL  string          `json:"organizationUrl"`
	DocumentationURL string          `json:"documentationUrl"`
	Meta             map[string]any  `json:"meta"`
	Created          *time.Time      `json:"created"`
	CreatorID        *shared.UserID  `json:"creatorId"`
}

func (s *Server) createSubmission(w http.ResponseWriter, r *http.Request) {
	var req submissionCreateRequest
	if err := decodeBody(r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}
	sub, err := s.submissions.CreateSubmission(r.Context(), identityFrom(r), submissiontypes.CreateParams{
		PhaseID:          req.PhaseID,
		FolderID:         req.FolderID,
		Title:            req.Title,
		Approach:         req.Approach,
		Organization:     req.Organization,
		OrganizationURL:  req.OrganizationURL,
		DocumentationURL: req.DocumentationURL,
		Meta:             req.Meta,
		Created:          req.Created,
		CreatorID:        req.CreatorID,
	})
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusCreated, toSubmissionResponse(sub))
}

// submissionListParams decodes the list query string. The latest filter is
// on unless the caller opts out with latest=false.
func submissionListParams(r *http.Request) (submissiontypes.ListParams, error) {
	phaseID, err := shared.ParsePhaseID(r.URL.Query().Get("phaseId"))
	if err != nil {
		return submissiontypes.ListParams{}, errs.ValidationField("phaseId", "invalid phase ID")
	}
	params := submissiontypes.ListParams{
		PhaseID:    phaseID,
		LatestOnly: r.URL.Query().Get("latest") != "false",
		SortField:  r.URL.Query().Get("sort"),
		SortDesc:   r.URL.Query().Get("sortdir") == "-1",
		Limit:      queryInt(r, "limit", 50),
		Offset:     queryInt(r, "offset", 0),
	}
	if v := r.URL.Query().Get("userId"); v != "" {
		userID, err := shared.ParseUserID(v)
		if err != nil {
			return submissiontypes.ListParams{}, errs.ValidationField("userId", "invalid user ID")
		}
		params.UserID = &userID
	}
	if v := r.URL.Query().Get("approach"); v != "" {
		params.Approach = &v
	}
	return params, nil
}

func (s *Server) listSubmissions(w http.ResponseWriter, r *http.Request) {
	params, err := submissionListParams(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	subs, err := s.submissions.ListSubmissions(r.Context(), identityFrom(r), params)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	out := make([]submissionResponse, 0, len(subs))
	for i := range subs {
		out = append(out, toSubmissionResponse(&subs[i]))
	}
	s.respondJSON(w, http.StatusOK, out)
}

func (s *Server) listApproaches(w http.ResponseWriter, r *http.Request) {
	phaseID, err := shared.ParsePhaseID(r.URL.Query().Get("phaseId"))
	if err != nil {
		s.respondError(w, r, errs.ValidationField("phaseId", "invalid phase ID"))
		return
	}
	userID := identityFrom(r).UserID
	if v := r.URL.Query().Get("userId"); v != "" {
		userID, err = shared.ParseUserID(v)
		if err != nil {
			s.respondError(w, r, errs.ValidationField("userId", "invalid user ID"))
			return
		}
	}
	approaches, err := s.submissions.ListApproaches(r.Context(), identityFrom(r), phaseID, userID)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, approaches)
}

func (s *Server) getSubmission(w http.ResponseWriter, r *http.Request) {
	id, err := shared.ParseSubmissionID(chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, r, errs.ValidationField("id", "invalid submission ID"))
		return
	}
	sub, err := s.submissions.GetSubmission(r.Context(), identityFrom(r), id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, toSubmissionResponse(sub))
}

type submissionUpdateRequest struct {
	Title            *string        `json:"title"`
	Approach         *string        `json:"approach"`
	Organization     *string        `json:"organization"`
	OrganizationURL  *string        `json:"organizationUrl"`
	DocumentationURL *string        `json:"documentationUrl"`
	Meta             map[string]any `json:"meta"`
}

func (s *Server) updateSubmission(w http.ResponseWriter, r *http.Request) {
	id, err := shared.ParseSubmissionID(chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, r, errs.ValidationField("id", "invalid submission ID"))
		return
	}
	var req submissionUpdateRequest
	if err := decodeBody(r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}
	sub, err := s.submissions.UpdateSubmission(r.Context(), identityFrom(r), id, submissiontypes.UpdateParams{
		Title:            req.Title,
		Approach:         req.Approach,
		Organization:     req.Organization,
		OrganizationURL:  req.OrganizationURL,
		DocumentationURL: req.DocumentationURL,
		Meta:             req.Meta,
	})
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, toSubmissionResponse(sub))
}

func (s *Server) removeSubmission(w http.ResponseWriter, r *http.Request) {
	id, err := shared.ParseSubmissionID(chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, r, errs.ValidationField("id", "invalid submission ID"))
		return
	}
	if err := s.submissions.RemoveSubmission(r.Context(), identityFrom(r), id); err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"message": "submission removed"})
}

func (s *Server) rescoreSubmission(w http.ResponseWriter, r *http.Request) {
	id, err := shared.ParseSubmissionID(chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, r, errs.ValidationField("id", "invalid submission ID"))
		return
	}
	if err := s.submissions.RescoreSubmission(r.Context(), identityFrom(r), id); err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"message": "rescore queued"})
}
