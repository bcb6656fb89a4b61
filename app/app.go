// Package app wires the platform together: database, event bus, modules,
// HTTP API and metrics.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/components/metrics"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"

	"github.com/girder/covalic/api"
	"github.com/girder/covalic/app/modules/challenge"
	challengedb "github.com/girder/covalic/app/modules/challenge/infrastructure/repositories"
	challengeevents "github.com/girder/covalic/app/modules/challenge/domain/events"
	"github.com/girder/covalic/app/modules/leaderboard"
	notificationevents "github.com/girder/covalic/app/modules/notification/domain/events"
	"github.com/girder/covalic/app/modules/phase"
	phaseevents "github.com/girder/covalic/app/modules/phase/domain/events"
	phasedb "github.com/girder/covalic/app/modules/phase/infrastructure/repositories"
	"github.com/girder/covalic/app/modules/submission"
	submissionevents "github.com/girder/covalic/app/modules/submission/domain/events"
	submissiondb "github.com/girder/covalic/app/modules/submission/infrastructure/repositories"
	"github.com/girder/covalic/app/shared"
	"github.com/girder/covalic/app/shared/eventbus"
	"github.com/girder/covalic/app/shared/observability"
	"github.com/girder/covalic/app/shared/storage/storagedb"
	"github.com/girder/covalic/config"
	"github.com/girder/covalic/pkg/jwt"
)

// App is the assembled application.
type App struct {
	Config        *config.Config
	Observability *observability.Observability
	DB            *bun.DB
	EventBus      eventbus.EventBus
	Router        *message.Router

	ChallengeModule   *challenge.Module
	PhaseModule       *phase.Module
	SubmissionModule  *submission.Module
	LeaderboardModule *leaderboard.Module

	APIServer *api.Server
}

// streamSubjects is the fixed event surface of the platform. One JetStream
// stream carries all of it.
var streamSubjects = []string{
	challengeevents.ChallengeSavedSubject,
	phaseevents.PhaseACLChangedSubject,
	phaseevents.PhaseMetricsChangedSubject,
	submissionevents.ScoringJobDispatchSubject,
	submissionevents.ScoringJobStatusSubject,
	submissionevents.SubmissionScoredSubject,
	notificationevents.NotificationEmailSubject,
}

// NewApp constructs the full application from configuration.
func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	obs := observability.New(cfg.Observability, "covalic")

	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(cfg.Postgres.DSN)))
	db := bun.NewDB(sqldb, pgdialect.New())
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	bus, err := eventbus.New(ctx, cfg.NATS.URL, obs.Logger)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	if err := bus.EnsureStream(ctx, "covalic", streamSubjects...); err != nil {
		return nil, fmt.Errorf("failed to ensure event stream: %w", err)
	}

	router, err := message.NewRouter(message.RouterConfig{}, watermill.NewSlogLogger(obs.Logger))
	if err != nil {
		return nil, fmt.Errorf("failed to create message router: %w", err)
	}
	metricsBuilder := metrics.NewPrometheusMetricsBuilder(obs.Registry, "covalic", "router")
	metricsBuilder.AddPrometheusRouterMetrics(router)
	router.AddMiddleware(
		middleware.CorrelationID,
		middleware.Recoverer,
		middleware.Retry{MaxRetries: 3}.Middleware,
	)

	challengeRepo := &challengedb.ChallengeDBImpl{DB: db}
	phaseRepo := &phasedb.PhaseDBImpl{DB: db}
	submissionRepo := &submissiondb.SubmissionDBImpl{DB: db}

	folders := &storagedb.FolderDB{DB: db}
	collections := &storagedb.CollectionDB{DB: db}
	groups := &storagedb.GroupDB{DB: db}
	users := &storagedb.UserDB{DB: db}

	tokens := jwt.NewService(cfg.JWT.Secret, cfg.JWT.DefaultTTL)

	submissionModule, err := submission.NewSubmissionModule(ctx, cfg, obs,
		submissionRepo, phaseRepo, folders, users, bus, tokens, router)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize submission module: %w", err)
	}

	phaseModule := phase.NewPhaseModule(obs, phaseRepo, challengeRepo,
		submissionModule.Service, folders, groups, bus)

	challengeModule, err := challenge.NewChallengeModule(ctx, obs, challengeRepo,
		phaseModule.Service, collections, folders, bus, router)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize challenge module: %w", err)
	}

	leaderboardModule := leaderboard.NewLeaderboardModule(obs, phaseRepo, submissionRepo)

	apiServer := api.NewServer(
		challengeModule.Service,
		phaseModule.Service,
		submissionModule.Service,
		leaderboardModule.Service,
		tokens,
		&identityResolver{users: users},
		obs.Logger,
	)

	return &App{
		Config:            cfg,
		Observability:     obs,
		DB:                db,
		EventBus:          bus,
		Router:            router,
		ChallengeModule:   challengeModule,
		PhaseModule:       phaseModule,
		SubmissionModule:  submissionModule,
		LeaderboardModule: leaderboardModule,
		APIServer:         apiServer,
	}, nil
}

// MetricsHandler serves the Prometheus registry.
func (a *App) MetricsHandler() http.Handler {
	return promhttp.HandlerFor(a.Observability.Registry, promhttp.HandlerOpts{})
}

// Close releases the app's connections. The router and HTTP servers are shut
// down by Run before this is called.
func (a *App) Close() error {
	var firstErr error
	if err := a.SubmissionModule.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := a.EventBus.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := a.DB.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

// identityResolver builds request identities from the user directory and
// group membership.
type identityResolver struct {
	users *storagedb.UserDB
}

func (r *identityResolver) Resolve(ctx context.Context, userID shared.UserID) (shared.Identity, error) {
	user, err := r.users.Load(ctx, userID)
	if err != nil {
		return shared.Identity{}, err
	}
	groups, err := r.users.GroupsForUser(ctx, userID)
	if err != nil {
		return shared.Identity{}, err
	}
	return shared.Identity{
		UserID:    user.ID,
		Name:      user.Name,
		Email:     user.Email,
		SiteAdmin: user.SiteAdmin,
		Groups:    groups,
	}, nil
}
