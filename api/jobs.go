package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/girder/covalic/app/shared"
	"github.com/girder/covalic/app/shared/errs"
)

// postScore is the scoring worker's results callback. It authenticates with
// the per-submission scoring token, not a user session.
func (s *Server) postScore(w http.ResponseWriter, r *http.Request) {
	id, err := shared.ParseSubmissionID(chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, r, errs.ValidationField("id", "invalid submission ID"))
		return
	}
	token := bearerToken(r)
	if err := s.submissions.VerifyScoringCredential(r.Context(), token, id); err != nil {
		s.respondError(w, r, err)
		return
	}

	var raw shared.ScoreMatrix
	if err := decodeBody(r, &raw); err != nil {
		s.respondError(w, r, err)
		return
	}

	// The score is applied as the scoring identity, which holds phase admin
	// from the dispatch grants.
	actor, err := s.scoringActor(r, token)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	sub, err := s.submissions.ApplyScore(r.Context(), actor, id, raw)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, toSubmissionResponse(sub))
}

type jobStatusRequest struct {
	Status shared.JobStatus `json:"status"`
}

func (s *Server) postJobStatus(w http.ResponseWriter, r *http.Request) {
	jobID, err := shared.ParseJobID(chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, r, errs.ValidationField("id", "invalid job ID"))
		return
	}
	if err := s.submissions.VerifyJobCredential(r.Context(), bearerToken(r), jobID); err != nil {
		s.respondError(w, r, err)
		return
	}
	var req jobStatusRequest
	if err := decodeBody(r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}
	if err := s.submissions.HandleJobStatus(r.Context(), jobID, req.Status); err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"message": "status recorded"})
}

type jobLogRequest struct {
	Log []string `json:"log"`
}

func (s *Server) postJobLog(w http.ResponseWriter, r *http.Request) {
	jobID, err := shared.ParseJobID(chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, r, errs.ValidationField("id", "invalid job ID"))
		return
	}
	if err := s.submissions.VerifyJobCredential(r.Context(), bearerToken(r), jobID); err != nil {
		s.respondError(w, r, err)
		return
	}
	var req jobLogRequest
	if err := decodeBody(r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}
	if err := s.submissions.AppendJobLog(r.Context(), jobID, req.Log); err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"message": "log appended"})
}

// scoringActor resolves the scoring identity named in a verified scoring
// token.
func (s *Server) scoringActor(r *http.Request, token string) (shared.Identity, error) {
	claims, err := s.tokens.ValidateToken(token)
	if err != nil {
		return shared.Identity{}, errs.Access("invalid scoring credential")
	}
	userID, err := shared.ParseUserID(claims.Subject)
	if err != nil {
		return shared.Identity{}, errs.Access("invalid scoring credential")
	}
	return s.identities.Resolve(r.Context(), userID)
}
