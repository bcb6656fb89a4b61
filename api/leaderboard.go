package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/girder/covalic/app/shared"
	"github.com/girder/covalic/app/shared/errs"
)

func (s *Server) getLeaderboard(w http.ResponseWriter, r *http.Request) {
	phaseID, err := shared.ParsePhaseID(chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, r, errs.ValidationField("id", "invalid phase ID"))
		return
	}
	entries, err := s.leaderboard.GetLeaderboard(r.Context(), identityFrom(r), phaseID,
		queryInt(r, "limit", 50), queryInt(r, "offset", 0))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, entries)
}

func (s *Server) exportLeaderboard(w http.ResponseWriter, r *http.Request) {
	phaseID, err := shared.ParsePhaseID(chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, r, errs.ValidationField("id", "invalid phase ID"))
		return
	}
	data, err := s.leaderboard.ExportXLSX(r.Context(), identityFrom(r), phaseID)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="leaderboard.xlsx"`)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		s.logger.ErrorContext(r.Context(), "Failed to write export response", "error", err)
	}
}

func (s *Server) scoreHistoryChart(w http.ResponseWriter, r *http.Request) {
	phaseID, err := shared.ParsePhaseID(chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, r, errs.ValidationField("id", "invalid phase ID"))
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
	approach := r.URL.Query().Get("approach")
	if approach == "" {
		approach = shared.DefaultApproach
	}

	png, err := s.leaderboard.ScoreHistoryChart(r.Context(), identityFrom(r), phaseID, userID, approach)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(png); err != nil {
		s.logger.ErrorContext(r.Context(), "Failed to write chart response", "error", err)
	}
}
