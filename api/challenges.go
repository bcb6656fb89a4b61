package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	challengetypes "github.com/girder/covalic/app/modules/challenge/domain/types"
	"github.com/girder/covalic/app/shared"
	"github.com/girder/covalic/app/shared/errs"
)

type challengeResponse struct {
	ID           shared.ChallengeID  `json:"_id"`
	Name         string              `json:"name"`
	Description  string              `json:"description,omitempty"`
	Instructions string              `json:"instructions,omitempty"`
	Organizers   string              `json:"organizers,omitempty"`
	CreatorID    shared.UserID       `json:"creatorId"`
	CollectionID shared.CollectionID `json:"collectionId"`
	Created      time.Time           `json:"created"`
	Updated      time.Time           `json:"updated"`
	StartDate    *time.Time          `json:"startDate,omitempty"`
	EndDate      *time.Time          `json:"endDate,omitempty"`
	Public       bool                `json:"public"`
}

func toChallengeResponse(c *challengetypes.Challenge) challengeResponse {
	return challengeResponse{
		ID:           c.ID,
		Name:         c.Name,
		Description:  c.Description,
		Instructions: c.Instructions,
		Organizers:   c.Organizers,
		CreatorID:    c.CreatorID,
		CollectionID: c.CollectionID,
		Created:      c.Created,
		Updated:      c.Updated,
		StartDate:    c.StartDate,
		EndDate:      c.EndDate,
		Public:       c.Public,
	}
}

type challengeRequest struct {
	Name         *string    `json:"name"`
	Description  *string    `json:"description"`
	Instructions *string    `json:"instructions"`
	Organizers   *string    `json:"organizers"`
	StartDate    *time.Time `json:"startDate"`
	EndDate      *time.Time `json:"endDate"`
	Public       *bool      `json:"public"`
}

func (s *Server) createChallenge(w http.ResponseWriter, r *http.Request) {
	var req challengeRequest
	if err := decodeBody(r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}
	params := challengetypes.CreateParams{
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
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
	if req.Organizers != nil {
		params.Organizers = *req.Organizers
	}
	if req.Public != nil {
		params.Public = *req.Public
	}

	challenge, err := s.challenges.CreateChallenge(r.Context(), identityFrom(r), params)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusCreated, toChallengeResponse(challenge))
}

func (s *Server) listChallenges(w http.ResponseWriter, r *http.Request) {
	timeframe := challengetypes.Timeframe(r.URL.Query().Get("timeframe"))
	if timeframe == "" {
		timeframe = challengetypes.TimeframeAll
	}
	challenges, err := s.challenges.ListChallenges(r.Context(), identityFrom(r),
		timeframe, queryInt(r, "limit", 50), queryInt(r, "offset", 0))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	out := make([]challengeResponse, 0, len(challenges))
	for i := range challenges {
		out = append(out, toChallengeResponse(&challenges[i]))
	}
	s.respondJSON(w, http.StatusOK, out)
}

func (s *Server) getChallenge(w http.ResponseWriter, r *http.Request) {
	id, err := shared.ParseChallengeID(chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, r, errs.ValidationField("id", "invalid challenge ID"))
		return
	}
	challenge, err := s.challenges.GetChallenge(r.Context(), identityFrom(r), id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, toChallengeResponse(challenge))
}

func (s *Server) updateChallenge(w http.ResponseWriter, r *http.Request) {
	id, err := shared.ParseChallengeID(chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, r, errs.ValidationField("id", "invalid challenge ID"))
		return
	}
	var req challengeRequest
	if err := decodeBody(r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}
	challenge, err := s.challenges.UpdateChallenge(r.Context(), identityFrom(r), id, challengetypes.UpdateParams{
		Name:         req.Name,
		Description:  req.Description,
		Instructions: req.Instructions,
		Organizers:   req.Organizers,
		StartDate:    req.StartDate,
		EndDate:      req.EndDate,
		Public:       req.Public,
	})
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, toChallengeResponse(challenge))
}

func (s *Server) removeChallenge(w http.ResponseWriter, r *http.Request) {
	id, err := shared.ParseChallengeID(chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, r, errs.ValidationField("id", "invalid challenge ID"))
		return
	}
	if err := s.challenges.RemoveChallenge(r.Context(), identityFrom(r), id); err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"message": "challenge removed"})
}

func (s *Server) challengeSubtreeCount(w http.ResponseWriter, r *http.Request) {
	id, err := shared.ParseChallengeID(chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, r, errs.ValidationField("id", "invalid challenge ID"))
		return
	}
	count, err := s.challenges.SubtreeCount(r.Context(), identityFrom(r), id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]int{"count": count})
}

func (s *Server) updateChallengeAccess(w http.ResponseWriter, r *http.Request) {
	id, err := shared.ParseChallengeID(chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, r, errs.ValidationField("id", "invalid challenge ID"))
		return
	}
	var access shared.AccessList
	if err := decodeBody(r, &access); err != nil {
		s.respondError(w, r, err)
		return
	}
	if err := s.challenges.UpdateAccess(r.Context(), identityFrom(r), id, access); err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"message": "access updated"})
}
