// Package api is the HTTP surface over the application services. Handlers
// decode, call a service and map the error taxonomy onto status codes; no
// domain rules live here.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/time/rate"

	challengeservice "github.com/girder/covalic/app/modules/challenge/application"
	leaderboardservice "github.com/girder/covalic/app/modules/leaderboard/application"
	phaseservice "github.com/girder/covalic/app/modules/phase/application"
	submissionservice "github.com/girder/covalic/app/modules/submission/application"
	"github.com/girder/covalic/app/shared"
	"github.com/girder/covalic/app/shared/attr"
	"github.com/girder/covalic/app/shared/errs"
	"github.com/girder/covalic/pkg/jwt"
)

// IdentityResolver turns an authenticated user ID into the full request
// identity, including group membership.
type IdentityResolver interface {
	Resolve(ctx context.Context, userID shared.UserID) (shared.Identity, error)
}

// Server holds the API dependencies and the assembled router.
type Server struct {
	challenges  challengeservice.Service
	phases      phaseservice.Service
	submissions submissionservice.Service
	leaderboard leaderboardservice.Service
	tokens      jwt.Service
	identities  IdentityResolver
	logger      *slog.Logger

	// callbackLimiter throttles the scoring-worker callback routes; the
	// interactive routes are not limited.
	callbackLimiter *rate.Limiter
}

// NewServer assembles the API server.
func NewServer(
	challenges challengeservice.Service,
	phases phaseservice.Service,
	submissions submissionservice.Service,
	leaderboard leaderboardservice.Service,
	tokens jwt.Service,
	identities IdentityResolver,
	logger *slog.Logger,
) *Server {
	return &Server{
		challenges:      challenges,
		phases:          phases,
		submissions:     submissions,
		leaderboard:     leaderboard,
		tokens:          tokens,
		identities:      identities,
		logger:          logger,
		callbackLimiter: rate.NewLimiter(rate.Limit(20), 40),
	}
}

// Routes builds the chi router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Route("/api/v1", func(r chi.Router) {
		// Scoring-worker callbacks authenticate with the scoring token, not
		// a user session.
		r.Group(func(r chi.Router) {
			r.Use(s.limitCallbacks)
			r.Post("/covalic_submission/{id}/score", s.postScore)
			r.Post("/covalic_job/{id}/status", s.postJobStatus)
			r.Post("/covalic_job/{id}/log", s.postJobLog)
		})

		r.Group(func(r chi.Router) {
			r.Use(s.authenticate)

			r.Route("/challenge", func(r chi.Router) {
				r.Post("/", s.createChallenge)
				r.Get("/", s.listChallenges)
				r.Get("/{id}", s.getChallenge)
				r.Put("/{id}", s.updateChallenge)
				r.Delete("/{id}", s.removeChallenge)
				r.Get("/{id}/subtree_count", s.challengeSubtreeCount)
				r.Put("/{id}/access", s.updateChallengeAccess)
				r.Get("/{id}/phase", s.listPhases)
			})

			r.Route("/challenge_phase", func(r chi.Router) {
				r.Post("/", s.createPhase)
				r.Get("/{id}", s.getPhase)
				r.Put("/{id}", s.updatePhase)
				r.Delete("/{id}", s.removePhase)
				r.Get("/{id}/subtree_count", s.phaseSubtreeCount)
				r.Put("/{id}/access", s.updatePhaseAccess)
				r.Put("/{id}/metrics", s.setPhaseMetrics)
				r.Put("/{id}/scoring_info", s.setPhaseScoringInfo)
				r.Post("/{id}/participant", s.joinPhase)
				r.Post("/{id}/rescore", s.rescorePhase)
				r.Get("/{id}/leaderboard", s.getLeaderboard)
				r.Get("/{id}/leaderboard/export", s.exportLeaderboard)
				r.Get("/{id}/score_history", s.scoreHistoryChart)
			})

			r.Route("/covalic_submission", func(r chi.Router) {
				r.Post("/", s.createSubmission)
				r.Get("/", s.listSubmissions)
				r.Get("/approaches", s.listApproaches)
				r.Get("/{id}", s.getSubmission)
				r.Put("/{id}", s.updateSubmission)
				r.Delete("/{id}", s.removeSubmission)
				r.Post("/{id}/rescore", s.rescoreSubmission)
			})
		})
	})

	return r
}

type ctxKey int

const identityKey ctxKey = 0

// authenticate validates the bearer token and loads the request identity.
func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			s.respondError(w, r, errs.Access("authentication required"))
			return
		}
		claims, err := s.tokens.ValidateToken(token)
		if err != nil || claims.Scope != jwt.ScopeUser {
			s.respondError(w, r, errs.Access("invalid session token"))
			return
		}
		userID, err := shared.ParseUserID(claims.Subject)
		if err != nil {
			s.respondError(w, r, errs.Access("invalid session token"))
			return
		}
		identity, err := s.identities.Resolve(r.Context(), userID)
		if err != nil {
			s.respondError(w, r, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), identityKey, identity)))
	})
}

func (s *Server) limitCallbacks(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.callbackLimiter.Allow() {
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func identityFrom(r *http.Request) shared.Identity {
	identity, _ := r.Context().Value(identityKey).(shared.Identity)
	return identity
}

// bearerToken extracts the credential from the Authorization header or the
// Girder-Token header the scoring workers send.
func bearerToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	return r.Header.Get("Girder-Token")
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			s.logger.Error("Failed to encode response", attr.Error(err))
		}
	}
}

// respondError maps the domain error taxonomy onto HTTP status codes.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, errs.ErrNotFound):
		status = http.StatusNotFound
	case errs.IsValidation(err):
		status = http.StatusBadRequest
	case errs.IsAccess(err):
		status = http.StatusForbidden
	case errs.IsConfiguration(err):
		status = http.StatusServiceUnavailable
	}
	if status >= 500 {
		s.logger.ErrorContext(r.Context(), "Request failed",
			attr.String("path", r.URL.Path),
			attr.Error(err),
		)
	}
	s.respondJSON(w, status, map[string]string{"message": err.Error()})
}

func queryInt(r *http.Request, key string, fallback int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func decodeBody(r *http.Request, into any) error {
	if err := json.NewDecoder(r.Body).Decode(into); err != nil {
		return errs.Validation("malformed request body")
	}
	return nil
}
