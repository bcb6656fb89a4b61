package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	phasetypes "github.com/girder/covalic/app/modules/phase/domain/types"
	"github.com/girder/covalic/app/shared"
	"github.com/girder/covalic/app/shared/errs"
)

type phaseResponse struct {
	ID           shared.PhaseID     `json:"_id"`
	ChallengeID  shared.ChallengeID `json:"challengeId"`
	Name         string             `json:"name"`
	Description  string             `json:"description,omitempty"`
	Instructions string             `json:"instructions,omitempty"`
	Ordinal      int                `json:"ordinal"`
	Active       bool               `json:"active"`
	Public       bool               `json:"public"`
	CreatorID    shared.UserID      `json:"creatorId"`
	Created      time.Time          `json:"created"`
	Updated      time.Time          `json:"updated"`
	StartDate    *time.Time         `json:"startDate,omitempty"`
	EndDate      *time.Time         `json:"endDate,omitempty"`

	ParticipantGroupID  shared.GroupID  `json:"participantGroupId"`
	FolderID            shared.FolderID `json:"folderId"`
	GroundTruthFolderID shared.FolderID `json:"groundTruthFolderId"`
	TestDataFolderID    shared.FolderID `json:"testDataFolderId"`

	Metrics   shared.MetricWeights `json:"metrics,omitempty"`
	ScoreTask *shared.ScoreTask    `json:"scoreTask,omitempty"`

	HideScores       bool `json:"hideScores"`
	MatchSubmissions bool `json:"matchSubmissions"`

	EnableOrganization      bool `json:"enableOrganization"`
	EnableOrganizationURL   bool `json:"enableOrganizationUrl"`
	EnableDocumentationURL  bool `json:"enableDocumentationUrl"`
	RequireOrganization     bool `json:"requireOrganization"`
	RequireOrganizationURL  bool `json:"requireOrganizationUrl"`
	RequireDocumentationURL bool `json:"requireDocumentationUrl"`

	Meta map[string]any `json:"meta,omitempty"`
}

func toPhaseResponse(p *phasetypes.Phase) phaseResponse {
	return phaseResponse{
		ID:                      p.ID,
		ChallengeID:             p.ChallengeID,
		Name:                    p.Name,
		Description:             p.Description,
		Instructions:            p.Instructions,
		Ordinal:                 p.Ordinal,
		Active:                  p.Active,
		Public:                  p.Public,
		CreatorID:               p.CreatorID,
		Created:                 p.Created,
		Updated:                 p.Updated,
		StartDate:               p.StartDate,
		EndDate:                 p.EndDate,
		ParticipantGroupID:      p.ParticipantGroupID,
		FolderID:                p.FolderID,
		GroundTruthFolderID:     p.GroundTruthFolderID,
		TestDataFolderID:        p.TestDataFolderID,
		Metrics:                 p.Metrics,
		ScoreTask:               p.ScoreTask,
		HideScores:              p.HideScores,
		MatchSubmissions:        p.MatchSubmissions,
		EnableOrganization:      p.EnableOrganization,
		EnableOrganizationURL:   p.EnableOrganizationURL,
		EnableDocumentationURL:  p.EnableDocumentationURL,
		RequireOrganization:     p.RequireOrganization,
		RequireOrganizationURL:  p.RequireOrganizationURL,
		RequireDocumentationURL: p.RequireDocumentationURL,
		Meta:                    p.Meta,
	}
}

type phaseCreateRequest struct {
	ChallengeID shared.ChallengeID `json:"challengeId"`
	phaseFields
}

type phaseFields struct {
	Name         *string    `json:"name"`
	Description  *string    `json:"description"`
	Instructions *string    `json:"instructions"`
	Ordinal      *int       `json:"ordinal"`
	Active       *bool      `json:"active"`
	Public       *bool      `json:"public"`
	StartDate    *time.Time `json:"startDate"`
	EndDate      *time.Time `json:"endDate"`
	HideScores   *bool      `json:"hideScores"`

	MatchSubmissions *bool `json:"matchSubmissions"`

	EnableOrganization      *bool `json:"enableOrganization"`
	EnableOrganizationURL   *bool `json:"enableOrganizationUrl"`
	EnableDocumentationURL  *bool `json:"enableDocumentationUrl"`
	RequireOrganization     *bool `json:"requireOrganization"`
	RequireOrganizationURL  *bool `json:"requireOrganizationUrl"`
	RequireDocumentationURL *bool `json:"requireDocumentationUrl"`

	Meta map[string]any `json:"meta"`
}

func (s *Server) createPhase(w http.ResponseWriter, r *http.Request) {
	var req phaseCreateRequest
	if err := decodeBody(r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}

	params := phasetypes.CreateParams{
		ChallengeID:      req.ChallengeID,
		StartDate:        req.StartDate,
		EndDate:          req.EndDate,
		MatchSubmissions: true,
		Meta:             req.Meta,
	}
	if req.Name != nil {
		params.Name = *req.Name
	}
	if req.Description != nil {
		params.Description = *req.Description
	}
	if req.Instructions != nil {
		params.Instructions = *req.Instructions
	}
	if req.Ordinal != nil {
		params.Ordinal = *req.Ordinal
	}
	if req.Active != nil {
		params.Active = *req.Active
	}
	if req.Public != nil {
		params.Public = *req.Public
	}
	if req.HideScores != nil {
		params.HideScores = *req.HideScores
	}
	if req.MatchSubmissions != nil {
		params.MatchSubmissions = *req.MatchSubmissions
	}
	if req.EnableOrganization != nil {
		params.EnableOrganization = *req.EnableOrganization
	}
	if req.EnableOrganizationURL != nil {
		params.EnableOrganizationURL = *req.EnableOrganizationURL
	}
	if req.EnableDocumentationURL != nil {
		params.EnableDocumentationURL = *req.EnableDocumentationURL
	}
	if req.RequireOrganization != nil {
		params.RequireOrganization = *req.RequireOrganization
	}
	if req.RequireOrganizationURL != nil {
		params.RequireOrganizationURL = *req.RequireOrganizationURL
	}
	if req.RequireDocumentationURL != nil {
		params.RequireDocumentationURL = *req.RequireDocumentationURL
	}

	phase, err := s.phases.CreatePhase(r.Context(), identityFrom(r), params)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusCreated, toPhaseResponse(phase))
}

func (s *Server) listPhases(w http.ResponseWriter, r *http.Request) {
	challengeID, err := shared.ParseChallengeID(chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, r, errs.ValidationField("id", "invalid challenge ID"))
		return
	}
	phases, err := s.phases.ListPhases(r.Context(), identityFrom(r), challengeID)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	out := make([]phaseResponse, 0, len(phases))
	for i := range phases {
		out = append(out, toPhaseResponse(&phases[i]))
	}
	s.respondJSON(w, http.StatusOK, out)
}

func (s *Server) getPhase(w http.ResponseWriter, r *http.Request) {
	id, err := shared.ParsePhaseID(chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, r, errs.ValidationField("id", "invalid phase ID"))
		return
	}
	phase, err := s.phases.GetPhase(r.Context(), identityFrom(r), id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, toPhaseResponse(phase))
}

func (s *Server) updatePhase(w http.ResponseWriter, r *http.Request) {
	id, err := shared.ParsePhaseID(chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, r, errs.ValidationField("id", "invalid phase ID"))
		return
	}
	var req phaseFields
	if err := decodeBody(r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}
	phase, err := s.phases.UpdatePhase(r.Context(), identityFrom(r), id, phasetypes.UpdateParams{
		Name:                    req.Name,
		Description:             req.Description,
		Instructions:            req.Instructions,
		Ordinal:                 req.Ordinal,
		Active:                  req.Active,
		StartDate:               req.StartDate,
		EndDate:                 req.EndDate,
		HideScores:              req.HideScores,
		MatchSubmissions:        req.MatchSubmissions,
		EnableOrganization:      req.EnableOrganization,
		EnableOrganizationURL:   req.EnableOrganizationURL,
		EnableDocumentationURL:  req.EnableDocumentationURL,
		RequireOrganization:     req.RequireOrganization,
		RequireOrganizationURL:  req.RequireOrganizationURL,
		RequireDocumentationURL: req.RequireDocumentationURL,
		Meta:                    req.Meta,
	})
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, toPhaseResponse(phase))
}

func (s *Server) removePhase(w http.ResponseWriter, r *http.Request) {
	id, err := shared.ParsePhaseID(chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, r, errs.ValidationField("id", "invalid phase ID"))
		return
	}
	if err := s.phases.RemovePhase(r.Context(), identityFrom(r), id); err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"message": "phase removed"})
}

func (s *Server) phaseSubtreeCount(w http.ResponseWriter, r *http.Request) {
	id, err := shared.ParsePhaseID(chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, r, errs.ValidationField("id", "invalid phase ID"))
		return
	}
	count, err := s.phases.SubtreeCount(r.Context(), identityFrom(r), id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]int{"count": count})
}

func (s *Server) updatePhaseAccess(w http.ResponseWriter, r *http.Request) {
	id, err := shared.ParsePhaseID(chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, r, errs.ValidationField("id", "invalid phase ID"))
		return
	}
	var access shared.AccessList
	if err := decodeBody(r, &access); err != nil {
		s.respondError(w, r, err)
		return
	}
	if err := s.phases.UpdateAccess(r.Context(), identityFrom(r), id, access); err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"message": "access updated"})
}

func (s *Server) setPhaseMetrics(w http.ResponseWriter, r *http.Request) {
	id, err := shared.ParsePhaseID(chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, r, errs.ValidationField("id", "invalid phase ID"))
		return
	}

	var copyFrom *shared.PhaseID
	if v := r.URL.Query().Get("copyFrom"); v != "" {
		source, err := shared.ParsePhaseID(v)
		if err != nil {
			s.respondError(w, r, errs.ValidationField("copyFrom", "invalid phase ID"))
			return
		}
		copyFrom = &source
	}

	var metrics shared.MetricWeights
	if copyFrom == nil {
		if err := decodeBody(r, &metrics); err != nil {
			s.respondError(w, r, err)
			return
		}
	}

	phase, err := s.phases.SetMetrics(r.Context(), identityFrom(r), id, metrics, copyFrom)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, toPhaseResponse(phase))
}

func (s *Server) setPhaseScoringInfo(w http.ResponseWriter, r *http.Request) {
	id, err := shared.ParsePhaseID(chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, r, errs.ValidationField("id", "invalid phase ID"))
		return
	}
	var task *shared.ScoreTask
	if err := decodeBody(r, &task); err != nil {
		s.respondError(w, r, err)
		return
	}
	phase, err := s.phases.SetScoringInfo(r.Context(), identityFrom(r), id, task)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, toPhaseResponse(phase))
}

func (s *Server) joinPhase(w http.ResponseWriter, r *http.Request) {
	id, err := shared.ParsePhaseID(chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, r, errs.ValidationField("id", "invalid phase ID"))
		return
	}
	if err := s.phases.JoinPhase(r.Context(), identityFrom(r), id); err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"message": "joined phase"})
}

func (s *Server) rescorePhase(w http.ResponseWriter, r *http.Request) {
	id, err := shared.ParsePhaseID(chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, r, errs.ValidationField("id", "invalid phase ID"))
		return
	}
	count, err := s.phases.RescorePhase(r.Context(), identityFrom(r), id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]int{"rescored": count})
}
