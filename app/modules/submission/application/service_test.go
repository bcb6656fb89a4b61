package submissionservice

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace/noop"

	notificationevents "github.com/girder/covalic/app/modules/notification/domain/events"
	phasetypes "github.com/girder/covalic/app/modules/phase/domain/types"
	submissionevents "github.com/girder/covalic/app/modules/submission/domain/events"
	submissiontypes "github.com/girder/covalic/app/modules/submission/domain/types"
	submissiondb "github.com/girder/covalic/app/modules/submission/infrastructure/repositories"
	"github.com/girder/covalic/app/shared"
	"github.com/girder/covalic/app/shared/errs"
	"github.com/girder/covalic/app/shared/observability"
	"github.com/girder/covalic/app/shared/storage"
	"github.com/girder/covalic/pkg/jwt"
)

type testEnv struct {
	repo    *submissiondb.FakeRepository
	phases  *FakePhaseProvider
	folders *FakeFolderService
	users   *FakeUserDirectory
	bus     *FakeEventBus
	queue   *FakeDispatchQueue
	tokens  jwt.Service
	svc     *SubmissionService
}

func newTestEnv(opts ScoringOptions) *testEnv {
	env := &testEnv{
		repo:    &submissiondb.FakeRepository{},
		phases:  &FakePhaseProvider{},
		folders: &FakeFolderService{},
		users:   &FakeUserDirectory{Users: map[shared.UserID]*storage.User{}},
		bus:     &FakeEventBus{},
		queue:   &FakeDispatchQueue{},
		tokens:  jwt.NewService("test-secret", time.Hour),
	}
	env.svc = NewSubmissionService(
		env.repo,
		env.phases,
		env.folders,
		env.users,
		env.bus,
		env.queue,
		env.tokens,
		opts,
		slog.New(slog.NewTextHandler(io.Discard, nil)),
		observability.NoOpMetrics{},
		noop.NewTracerProvider().Tracer("test"),
	)
	return env
}

func TestService_CreateSubmission(t *testing.T) {
	ctx := context.Background()

	phaseID := shared.PhaseID(uuid.New())
	groupID := shared.GroupID(uuid.New())
	folderID := shared.FolderID(uuid.New())
	actorID := shared.UserID(uuid.New())
	adminID := shared.UserID(uuid.New())

	participant := shared.Identity{UserID: actorID, Name: "Alice", Groups: []shared.GroupID{groupID}}
	admin := shared.Identity{UserID: adminID, Name: "Admin"}

	basePhase := func() *phasetypes.Phase {
		return &phasetypes.Phase{
			ID:                 phaseID,
			Name:               "Testing",
			Active:             true,
			ParticipantGroupID: groupID,
			MatchSubmissions:   true,
			Access: shared.AccessList{
				Users: []shared.UserAccess{{UserID: adminID, Level: shared.AccessAdmin}},
			},
		}
	}
	baseParams := func() submissiontypes.CreateParams {
		return submissiontypes.CreateParams{
			PhaseID:  phaseID,
			FolderID: folderID,
			Title:    "my entry",
			Approach: "cnn",
		}
	}

	tests := []struct {
		name   string
		actor  shared.Identity
		params func() submissiontypes.CreateParams
		phase  func() *phasetypes.Phase
		setup  func(env *testEnv)
		verify func(t *testing.T, env *testEnv, sub *submissiontypes.Submission, err error)
	}{
		{
			name:   "participant success queues scoring",
			actor:  participant,
			params: baseParams,
			phase:  basePhase,
			verify: func(t *testing.T, env *testEnv, sub *submissiontypes.Submission, err error) {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if sub.CreatorID != actorID {
					t.Errorf("expected creator %s, got %s", actorID, sub.CreatorID)
				}
				if sub.Approach != "cnn" {
					t.Errorf("expected approach preserved, got %q", sub.Approach)
				}
				if len(env.queue.Enqueued) != 1 {
					t.Fatalf("expected one queued dispatch, got %d", len(env.queue.Enqueued))
				}
				if env.queue.Enqueued[0].Rescoring {
					t.Error("initial scoring must not be flagged as rescoring")
				}
			},
		},
		{
			name:   "inactive phase rejects participants",
			actor:  participant,
			params: baseParams,
			phase: func() *phasetypes.Phase {
				p := basePhase()
				p.Active = false
				return p
			},
			verify: func(t *testing.T, env *testEnv, sub *submissiontypes.Submission, err error) {
				if !errs.IsValidation(err) {
					t.Fatalf("expected validation error, got %v", err)
				}
				if len(env.queue.Enqueued) != 0 {
					t.Error("nothing may be queued on rejection")
				}
			},
		},
		{
			name:   "inactive phase still accepts admins",
			actor:  admin,
			params: baseParams,
			phase: func() *phasetypes.Phase {
				p := basePhase()
				p.Active = false
				return p
			},
			verify: func(t *testing.T, env *testEnv, sub *submissiontypes.Submission, err error) {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
			},
		},
		{
			name:   "non-member rejected",
			actor:  shared.Identity{UserID: actorID},
			params: baseParams,
			phase:  basePhase,
			verify: func(t *testing.T, env *testEnv, sub *submissiontypes.Submission, err error) {
				if !errs.IsAccess(err) {
					t.Fatalf("expected access error, got %v", err)
				}
			},
		},
		{
			name:  "attribution override requires admin",
			actor: participant,
			params: func() submissiontypes.CreateParams {
				p := baseParams()
				other := shared.UserID(uuid.New())
				p.CreatorID = &other
				return p
			},
			phase: basePhase,
			verify: func(t *testing.T, env *testEnv, sub *submissiontypes.Submission, err error) {
				if !errs.IsAccess(err) {
					t.Fatalf("expected access error, got %v", err)
				}
			},
		},
		{
			name:  "admin may override created timestamp",
			actor: admin,
			params: func() submissiontypes.CreateParams {
				p := baseParams()
				created := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
				p.Created = &created
				return p
			},
			phase: basePhase,
			verify: func(t *testing.T, env *testEnv, sub *submissiontypes.Submission, err error) {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if !sub.Created.Equal(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)) {
					t.Errorf("expected overridden timestamp, got %v", sub.Created)
				}
			},
		},
		{
			name:  "missing title rejected",
			actor: participant,
			params: func() submissiontypes.CreateParams {
				p := baseParams()
				p.Title = "   "
				return p
			},
			phase: basePhase,
			verify: func(t *testing.T, env *testEnv, sub *submissiontypes.Submission, err error) {
				var ve *errs.ValidationError
				if !errors.As(err, &ve) || ve.Field != "title" {
					t.Fatalf("expected title validation error, got %v", err)
				}
			},
		},
		{
			name:  "disabled field rejected when provided",
			actor: participant,
			params: func() submissiontypes.CreateParams {
				p := baseParams()
				p.Organization = "Kitware"
				return p
			},
			phase: basePhase,
			verify: func(t *testing.T, env *testEnv, sub *submissiontypes.Submission, err error) {
				var ve *errs.ValidationError
				if !errors.As(err, &ve) || ve.Field != "organization" {
					t.Fatalf("expected organization validation error, got %v", err)
				}
			},
		},
		{
			name:   "required field enforced",
			actor:  participant,
			params: baseParams,
			phase: func() *phasetypes.Phase {
				p := basePhase()
				p.EnableDocumentationURL = true
				p.RequireDocumentationURL = true
				return p
			},
			verify: func(t *testing.T, env *testEnv, sub *submissiontypes.Submission, err error) {
				var ve *errs.ValidationError
				if !errors.As(err, &ve) || ve.Field != "documentationUrl" {
					t.Fatalf("expected documentationUrl validation error, got %v", err)
				}
			},
		},
		{
			name:   "approach dropped when submissions are unmatched",
			actor:  participant,
			params: baseParams,
			phase: func() *phasetypes.Phase {
				p := basePhase()
				p.MatchSubmissions = false
				return p
			},
			verify: func(t *testing.T, env *testEnv, sub *submissiontypes.Submission, err error) {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if sub.Approach != "" {
					t.Errorf("expected approach cleared, got %q", sub.Approach)
				}
			},
		},
		{
			name:   "inaccessible folder rejected",
			actor:  participant,
			params: baseParams,
			phase:  basePhase,
			setup: func(env *testEnv) {
				env.folders.LoadFn = func(ctx context.Context, id shared.FolderID) (*storage.Folder, error) {
					return &storage.Folder{ID: id, CreatorID: shared.UserID(uuid.New())}, nil
				}
			},
			verify: func(t *testing.T, env *testEnv, sub *submissiontypes.Submission, err error) {
				if !errs.IsAccess(err) {
					t.Fatalf("expected access error, got %v", err)
				}
			},
		},
		{
			name:   "queue failure surfaces",
			actor:  participant,
			params: baseParams,
			phase:  basePhase,
			setup: func(env *testEnv) {
				env.queue.EnqueueScoreDispatchFn = func(ctx context.Context, id shared.SubmissionID, rescoring bool) error {
					return errors.New("river is down")
				}
			},
			verify: func(t *testing.T, env *testEnv, sub *submissiontypes.Submission, err error) {
				if err == nil {
					t.Fatal("expected error")
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(ScoringOptions{})
			env.users.Users[actorID] = &storage.User{ID: actorID, Name: "Alice", Email: "alice@example.com"}
			env.users.Users[adminID] = &storage.User{ID: adminID, Name: "Admin", Email: "admin@example.com"}
			phase := tt.phase()
			env.phases.GetByIDFn = func(ctx context.Context, id shared.PhaseID) (*phasetypes.Phase, error) {
				return phase, nil
			}
			if env.folders.LoadFn == nil {
				env.folders.LoadFn = func(ctx context.Context, id shared.FolderID) (*storage.Folder, error) {
					return &storage.Folder{ID: id, CreatorID: tt.actor.UserID}, nil
				}
			}
			if tt.setup != nil {
				tt.setup(env)
			}

			sub, err := env.svc.CreateSubmission(ctx, tt.actor, tt.params())
			tt.verify(t, env, sub, err)
		})
	}
}

func TestService_ApplyScore(t *testing.T) {
	ctx := context.Background()

	subID := shared.SubmissionID(uuid.New())
	phaseID := shared.PhaseID(uuid.New())
	creatorID := shared.UserID(uuid.New())
	adminID := shared.UserID(uuid.New())
	jobID := shared.JobID(uuid.New())

	admin := shared.Identity{UserID: adminID, Name: "Admin"}

	v := func(f float64) *float64 { return &f }
	raw := shared.ScoreMatrix{
		{Dataset: "ds1", Metrics: []shared.MetricValue{{Name: "acc", Value: v(0.5)}}},
		{Dataset: "ds2", Metrics: []shared.MetricValue{{Name: "acc", Value: v(1.0)}}},
	}

	newPhase := func() *phasetypes.Phase {
		return &phasetypes.Phase{
			ID:      phaseID,
			Name:    "Final",
			Metrics: shared.MetricWeights{"acc": {Weight: 2}},
			Access: shared.AccessList{
				Users: []shared.UserAccess{{UserID: adminID, Level: shared.AccessAdmin}},
			},
		}
	}

	t.Run("first scoring promotes to latest and notifies", func(t *testing.T) {
		env := newTestEnv(ScoringOptions{})
		env.users.Users[creatorID] = &storage.User{ID: creatorID, Email: "creator@example.com"}
		env.users.Users[adminID] = &storage.User{ID: adminID, Email: "admin@example.com"}
		env.phases.GetByIDFn = func(ctx context.Context, id shared.PhaseID) (*phasetypes.Phase, error) {
			return newPhase(), nil
		}
		env.repo.GetByIDFn = func(ctx context.Context, id shared.SubmissionID) (*submissiontypes.Submission, error) {
			return &submissiontypes.Submission{ID: id, PhaseID: phaseID, CreatorID: creatorID, Title: "entry", JobID: &jobID}, nil
		}

		var gotOverall float64
		var gotLatest bool
		env.repo.MarkScoredFn = func(ctx context.Context, id shared.SubmissionID, score shared.ScoreMatrix, overall float64, makeLatest bool) error {
			if score[0].Dataset != shared.AverageDataset {
				t.Errorf("expected the Average row at the head, got %q", score[0].Dataset)
			}
			gotOverall = overall
			gotLatest = makeLatest
			return nil
		}
		revoked := false
		env.repo.RevokeJobTokenFn = func(ctx context.Context, id shared.JobID) error {
			revoked = true
			return nil
		}

		sub, err := env.svc.ApplyScore(ctx, admin, subID, raw)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		// Average of 0.5 and 1.0 is 0.75, weighted by 2.
		if gotOverall != 1.5 {
			t.Errorf("expected overall 1.5, got %v", gotOverall)
		}
		if !gotLatest {
			t.Error("first scoring must promote the submission to latest")
		}
		if !sub.Latest {
			t.Error("returned submission must carry the latest flag")
		}
		if !revoked {
			t.Error("the scoring credential must be revoked after the score lands")
		}
		if got := len(env.bus.Published(notificationevents.NotificationEmailSubject)); got != 2 {
			t.Errorf("expected submitter and admin emails, got %d", got)
		}
		if got := len(env.bus.Published(submissionevents.SubmissionScoredSubject)); got != 1 {
			t.Errorf("expected one scored event, got %d", got)
		}
	})

	t.Run("rescoring keeps flags and skips the submitter email", func(t *testing.T) {
		env := newTestEnv(ScoringOptions{})
		env.users.Users[creatorID] = &storage.User{ID: creatorID, Email: "creator@example.com"}
		env.users.Users[adminID] = &storage.User{ID: adminID, Email: "admin@example.com"}
		env.phases.GetByIDFn = func(ctx context.Context, id shared.PhaseID) (*phasetypes.Phase, error) {
			return newPhase(), nil
		}
		env.repo.GetByIDFn = func(ctx context.Context, id shared.SubmissionID) (*submissiontypes.Submission, error) {
			return &submissiontypes.Submission{
				ID: id, PhaseID: phaseID, CreatorID: creatorID, Title: "entry",
				OverallScore: v(0.2), JobID: &jobID, Latest: true,
			}, nil
		}
		env.repo.GetJobFn = func(ctx context.Context, id shared.JobID) (*submissiontypes.ScoringJob, error) {
			return &submissiontypes.ScoringJob{ID: id, SubmissionID: subID, Rescoring: true}, nil
		}
		env.repo.MarkScoredFn = func(ctx context.Context, id shared.SubmissionID, score shared.ScoreMatrix, overall float64, makeLatest bool) error {
			if makeLatest {
				t.Error("rescoring an already-scored submission must not move the latest flag")
			}
			return nil
		}

		if _, err := env.svc.ApplyScore(ctx, admin, subID, raw); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := len(env.bus.Published(notificationevents.NotificationEmailSubject)); got != 1 {
			t.Errorf("expected only the admin email during a rescore, got %d", got)
		}
	})

	t.Run("non-admin rejected", func(t *testing.T) {
		env := newTestEnv(ScoringOptions{})
		env.phases.GetByIDFn = func(ctx context.Context, id shared.PhaseID) (*phasetypes.Phase, error) {
			return newPhase(), nil
		}
		_, err := env.svc.ApplyScore(ctx, shared.Identity{UserID: creatorID}, subID, raw)
		if !errs.IsAccess(err) {
			t.Fatalf("expected access error, got %v", err)
		}
	})

	t.Run("empty payload rejected", func(t *testing.T) {
		env := newTestEnv(ScoringOptions{})
		env.phases.GetByIDFn = func(ctx context.Context, id shared.PhaseID) (*phasetypes.Phase, error) {
			return newPhase(), nil
		}
		_, err := env.svc.ApplyScore(ctx, admin, subID, shared.ScoreMatrix{})
		if !errs.IsValidation(err) {
			t.Fatalf("expected validation error, got %v", err)
		}
	})
}

func TestService_DispatchScoring(t *testing.T) {
	ctx := context.Background()

	subID := shared.SubmissionID(uuid.New())
	phaseID := shared.PhaseID(uuid.New())
	folderID := shared.FolderID(uuid.New())
	gtFolderID := shared.FolderID(uuid.New())
	scoringUserID := shared.UserID(uuid.New())

	newEnv := func(opts ScoringOptions) *testEnv {
		env := newTestEnv(opts)
		env.users.Users[scoringUserID] = &storage.User{ID: scoringUserID, Name: "Scoring Bot", Email: "bot@example.com"}
		env.repo.GetByIDFn = func(ctx context.Context, id shared.SubmissionID) (*submissiontypes.Submission, error) {
			return &submissiontypes.Submission{ID: id, PhaseID: phaseID, FolderID: folderID}, nil
		}
		env.phases.GetByIDFn = func(ctx context.Context, id shared.PhaseID) (*phasetypes.Phase, error) {
			return &phasetypes.Phase{ID: id, GroundTruthFolderID: gtFolderID}, nil
		}
		return env
	}

	t.Run("no scoring user configured", func(t *testing.T) {
		env := newEnv(ScoringOptions{DefaultImage: "covalic/metrics:latest"})
		err := env.svc.DispatchScoring(ctx, subID, false)
		if !errs.IsConfiguration(err) {
			t.Fatalf("expected configuration error, got %v", err)
		}
	})

	t.Run("unknown scoring user", func(t *testing.T) {
		env := newEnv(ScoringOptions{ScoringUserID: uuid.NewString(), DefaultImage: "covalic/metrics:latest"})
		err := env.svc.DispatchScoring(ctx, subID, false)
		if !errs.IsConfiguration(err) {
			t.Fatalf("expected configuration error, got %v", err)
		}
	})

	t.Run("success grants access and publishes the dispatch event", func(t *testing.T) {
		env := newEnv(ScoringOptions{
			ScoringUserID: scoringUserID.String(),
			DefaultImage:  "covalic/metrics:latest",
			TokenTTL:      time.Hour,
			APIBaseURL:    "https://challenge.example.com/api/v1",
		})

		var createdJob *submissiondb.ScoringJob
		env.repo.CreateJobFn = func(ctx context.Context, job *submissiondb.ScoringJob) error {
			job.ID = shared.JobID(uuid.New())
			createdJob = job
			return nil
		}
		var linkedJobID shared.JobID
		env.repo.SetJobIDFn = func(ctx context.Context, id shared.SubmissionID, jobID shared.JobID) error {
			linkedJobID = jobID
			return nil
		}

		if err := env.svc.DispatchScoring(ctx, subID, false); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		grants := 0
		for _, step := range env.folders.Trace() {
			if step == "SetUserAccess" {
				grants++
			}
		}
		if grants != 2 {
			t.Errorf("expected READ grants on the submission and ground-truth folders, got %d", grants)
		}
		updated := false
		for _, step := range env.phases.Trace() {
			if step == "UpdateAccess" {
				updated = true
			}
		}
		if !updated {
			t.Error("the scoring user must be promoted to phase admin")
		}

		if createdJob == nil {
			t.Fatal("expected a scoring job row")
		}
		if createdJob.Status != shared.JobStatusQueued {
			t.Errorf("expected queued job, got %s", createdJob.Status)
		}
		if createdJob.TokenID == "" {
			t.Error("the job must record its credential ID")
		}
		if linkedJobID != createdJob.ID {
			t.Error("the submission must link to the created job")
		}

		msgs := env.bus.Published(submissionevents.ScoringJobDispatchSubject)
		if len(msgs) != 1 {
			t.Fatalf("expected one dispatch event, got %d", len(msgs))
		}
		var event submissionevents.ScoringJobDispatchEvent
		if err := json.Unmarshal(msgs[0].Payload, &event); err != nil {
			t.Fatalf("failed to decode dispatch event: %v", err)
		}
		if event.Image != "covalic/metrics:latest" {
			t.Errorf("expected the default image, got %q", event.Image)
		}
		if len(event.Args) != 2 ||
			!strings.Contains(event.Args[0], gtFolderID.String()) ||
			!strings.Contains(event.Args[1], folderID.String()) {
			t.Errorf("unexpected args: %v", event.Args)
		}
		if !strings.HasPrefix(event.ScoreURL, "https://challenge.example.com/api/v1/covalic_submission/") {
			t.Errorf("unexpected score URL: %s", event.ScoreURL)
		}
		if event.Token == "" {
			t.Error("the dispatch event must carry the scoring credential")
		}
		if err := env.svc.VerifyScoringCredential(ctx, event.Token, subID); err != nil {
			t.Errorf("the issued credential must verify for the submission: %v", err)
		}
	})

	t.Run("score task overrides image and args", func(t *testing.T) {
		env := newEnv(ScoringOptions{
			ScoringUserID: scoringUserID.String(),
			DefaultImage:  "covalic/metrics:latest",
			TokenTTL:      time.Hour,
		})
		env.phases.GetByIDFn = func(ctx context.Context, id shared.PhaseID) (*phasetypes.Phase, error) {
			return &phasetypes.Phase{
				ID:                  id,
				GroundTruthFolderID: gtFolderID,
				ScoreTask: &shared.ScoreTask{
					DockerImage: "custom/scorer:2",
					DockerArgs:  []string{"--mode=strict"},
				},
			}, nil
		}

		if err := env.svc.DispatchScoring(ctx, subID, true); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		msgs := env.bus.Published(submissionevents.ScoringJobDispatchSubject)
		var event submissionevents.ScoringJobDispatchEvent
		if err := json.Unmarshal(msgs[0].Payload, &event); err != nil {
			t.Fatalf("failed to decode dispatch event: %v", err)
		}
		if event.Image != "custom/scorer:2" {
			t.Errorf("expected the override image, got %q", event.Image)
		}
		if len(event.Args) != 1 || event.Args[0] != "--mode=strict" {
			t.Errorf("expected the override args, got %v", event.Args)
		}
		if !event.Rescoring {
			t.Error("the rescoring flag must pass through to the event")
		}
	})
}

func TestService_VerifyScoringCredential(t *testing.T) {
	ctx := context.Background()
	subID := shared.SubmissionID(uuid.New())
	scoringUser := uuid.NewString()

	env := newTestEnv(ScoringOptions{})
	token, tokenID, err := env.tokens.GenerateScoringToken(scoringUser, subID.String(), time.Hour)
	if err != nil {
		t.Fatalf("failed to issue token: %v", err)
	}

	t.Run("valid credential", func(t *testing.T) {
		if err := env.svc.VerifyScoringCredential(ctx, token, subID); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("wrong submission", func(t *testing.T) {
		other := shared.SubmissionID(uuid.New())
		if err := env.svc.VerifyScoringCredential(ctx, token, other); !errs.IsAccess(err) {
			t.Fatalf("expected access error, got %v", err)
		}
	})

	t.Run("user token rejected", func(t *testing.T) {
		userToken, err := env.tokens.GenerateUserToken(scoringUser, time.Hour)
		if err != nil {
			t.Fatalf("failed to issue token: %v", err)
		}
		if err := env.svc.VerifyScoringCredential(ctx, userToken, subID); !errs.IsAccess(err) {
			t.Fatalf("expected access error, got %v", err)
		}
	})

	t.Run("garbage token rejected", func(t *testing.T) {
		if err := env.svc.VerifyScoringCredential(ctx, "not-a-token", subID); !errs.IsAccess(err) {
			t.Fatalf("expected access error, got %v", err)
		}
	})

	t.Run("revoked credential rejected", func(t *testing.T) {
		env.repo.IsTokenRevokedFn = func(ctx context.Context, id string) (bool, error) {
			return id == tokenID, nil
		}
		defer func() { env.repo.IsTokenRevokedFn = nil }()
		if err := env.svc.VerifyScoringCredential(ctx, token, subID); !errs.IsAccess(err) {
			t.Fatalf("expected access error, got %v", err)
		}
	})
}

func TestService_HandleJobStatus(t *testing.T) {
	ctx := context.Background()

	jobID := shared.JobID(uuid.New())
	subID := shared.SubmissionID(uuid.New())
	phaseID := shared.PhaseID(uuid.New())
	creatorID := shared.UserID(uuid.New())
	adminID := shared.UserID(uuid.New())

	setup := func(rescoring bool, log []string) *testEnv {
		env := newTestEnv(ScoringOptions{})
		env.users.Users[creatorID] = &storage.User{ID: creatorID, Email: "creator@example.com"}
		env.users.Users[adminID] = &storage.User{ID: adminID, Email: "admin@example.com"}
		env.repo.GetJobFn = func(ctx context.Context, id shared.JobID) (*submissiontypes.ScoringJob, error) {
			return &submissiontypes.ScoringJob{ID: id, SubmissionID: subID, Rescoring: rescoring, Log: log}, nil
		}
		env.repo.GetByIDFn = func(ctx context.Context, id shared.SubmissionID) (*submissiontypes.Submission, error) {
			return &submissiontypes.Submission{ID: id, PhaseID: phaseID, CreatorID: creatorID, Title: "entry"}, nil
		}
		env.phases.GetByIDFn = func(ctx context.Context, id shared.PhaseID) (*phasetypes.Phase, error) {
			return &phasetypes.Phase{
				ID:   id,
				Name: "Final",
				Access: shared.AccessList{
					Users: []shared.UserAccess{{UserID: adminID, Level: shared.AccessAdmin}},
				},
			}, nil
		}
		return env
	}

	t.Run("non-error transition only records", func(t *testing.T) {
		env := setup(false, nil)
		var recorded shared.JobStatus
		env.repo.UpdateJobStatusFn = func(ctx context.Context, id shared.JobID, status shared.JobStatus) error {
			recorded = status
			return nil
		}
		if err := env.svc.HandleJobStatus(ctx, jobID, shared.JobStatusRunning); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if recorded != shared.JobStatusRunning {
			t.Errorf("expected running recorded, got %s", recorded)
		}
		if got := len(env.bus.Published(notificationevents.NotificationEmailSubject)); got != 0 {
			t.Errorf("expected no emails, got %d", got)
		}
	})

	t.Run("error transition routes curated log to the submitter", func(t *testing.T) {
		log := []string{
			shared.JobLogPrefix + "ground truth file missing",
			"Traceback (most recent call last):",
		}
		env := setup(false, log)
		if err := env.svc.HandleJobStatus(ctx, jobID, shared.JobStatusError); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		msgs := env.bus.Published(notificationevents.NotificationEmailSubject)
		if len(msgs) != 2 {
			t.Fatalf("expected admin and submitter emails, got %d", len(msgs))
		}
		var adminMail, userMail notificationevents.EmailEvent
		if err := json.Unmarshal(msgs[0].Payload, &adminMail); err != nil {
			t.Fatalf("failed to decode admin email: %v", err)
		}
		if err := json.Unmarshal(msgs[1].Payload, &userMail); err != nil {
			t.Fatalf("failed to decode submitter email: %v", err)
		}
		if !strings.Contains(adminMail.HTML, "Traceback") {
			t.Error("administrators must receive the full log")
		}
		if strings.Contains(userMail.HTML, "Traceback") {
			t.Error("the submitter must not see unprefixed log lines")
		}
		if !strings.Contains(userMail.HTML, "ground truth file missing") {
			t.Error("the submitter must see the curated lines")
		}
	})

	t.Run("rescore failures never mail the submitter", func(t *testing.T) {
		env := setup(true, []string{shared.JobLogPrefix + "oops"})
		if err := env.svc.HandleJobStatus(ctx, jobID, shared.JobStatusError); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := len(env.bus.Published(notificationevents.NotificationEmailSubject)); got != 1 {
			t.Errorf("expected only the admin email, got %d", got)
		}
	})
}

func TestService_GetSubmission(t *testing.T) {
	ctx := context.Background()

	subID := shared.SubmissionID(uuid.New())
	phaseID := shared.PhaseID(uuid.New())
	creatorID := shared.UserID(uuid.New())
	adminID := shared.UserID(uuid.New())
	readerID := shared.UserID(uuid.New())

	v := func(f float64) *float64 { return &f }

	setup := func(hideScores bool) *testEnv {
		env := newTestEnv(ScoringOptions{})
		env.repo.GetByIDFn = func(ctx context.Context, id shared.SubmissionID) (*submissiontypes.Submission, error) {
			return &submissiontypes.Submission{
				ID: id, PhaseID: phaseID, CreatorID: creatorID,
				Score:        shared.ScoreMatrix{{Dataset: shared.AverageDataset}},
				OverallScore: v(0.9),
			}, nil
		}
		env.phases.GetByIDFn = func(ctx context.Context, id shared.PhaseID) (*phasetypes.Phase, error) {
			return &phasetypes.Phase{
				ID:         id,
				HideScores: hideScores,
				Access: shared.AccessList{
					Users: []shared.UserAccess{
						{UserID: adminID, Level: shared.AccessAdmin},
						{UserID: readerID, Level: shared.AccessRead},
					},
				},
			}, nil
		}
		return env
	}

	t.Run("stranger rejected", func(t *testing.T) {
		env := setup(false)
		_, err := env.svc.GetSubmission(ctx, shared.Identity{UserID: shared.UserID(uuid.New())}, subID)
		if !errs.IsAccess(err) {
			t.Fatalf("expected access error, got %v", err)
		}
	})

	t.Run("creator may read without phase access", func(t *testing.T) {
		env := setup(false)
		sub, err := env.svc.GetSubmission(ctx, shared.Identity{UserID: creatorID}, subID)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if sub.OverallScore == nil {
			t.Error("scores must be visible on an open phase")
		}
	})

	t.Run("hide scores redacts for readers", func(t *testing.T) {
		env := setup(true)
		sub, err := env.svc.GetSubmission(ctx, shared.Identity{UserID: readerID}, subID)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if sub.Score != nil || sub.OverallScore != nil {
			t.Error("expected score fields withheld from non-admin readers")
		}
	})

	t.Run("hide scores spares admins", func(t *testing.T) {
		env := setup(true)
		sub, err := env.svc.GetSubmission(ctx, shared.Identity{UserID: adminID}, subID)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if sub.OverallScore == nil {
			t.Error("admins must always see scores")
		}
	})
}

func TestService_ListSubmissions(t *testing.T) {
	ctx := context.Background()

	phaseID := shared.PhaseID(uuid.New())
	readerID := shared.UserID(uuid.New())
	adminID := shared.UserID(uuid.New())

	v := func(f float64) *float64 { return &f }

	env := newTestEnv(ScoringOptions{})
	env.phases.GetByIDFn = func(ctx context.Context, id shared.PhaseID) (*phasetypes.Phase, error) {
		return &phasetypes.Phase{
			ID:         id,
			HideScores: true,
			Access: shared.AccessList{
				Users: []shared.UserAccess{
					{UserID: readerID, Level: shared.AccessRead},
					{UserID: adminID, Level: shared.AccessAdmin},
				},
			},
		}, nil
	}
	env.repo.ListFn = func(ctx context.Context, params submissiontypes.ListParams) ([]submissiontypes.Submission, error) {
		return []submissiontypes.Submission{
			{PhaseID: params.PhaseID, OverallScore: v(0.5), Score: shared.ScoreMatrix{{Dataset: shared.AverageDataset}}},
		}, nil
	}

	t.Run("score sort denied while scores are hidden", func(t *testing.T) {
		_, err := env.svc.ListSubmissions(ctx, shared.Identity{UserID: readerID}, submissiontypes.ListParams{
			PhaseID:   phaseID,
			SortField: "overallScore",
		})
		if !errs.IsAccess(err) {
			t.Fatalf("expected access error, got %v", err)
		}
	})

	t.Run("rows redacted for readers", func(t *testing.T) {
		subs, err := env.svc.ListSubmissions(ctx, shared.Identity{UserID: readerID}, submissiontypes.ListParams{PhaseID: phaseID})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if subs[0].OverallScore != nil || subs[0].Score != nil {
			t.Error("expected redacted rows")
		}
	})

	t.Run("admin sees scores and may sort by them", func(t *testing.T) {
		subs, err := env.svc.ListSubmissions(ctx, shared.Identity{UserID: adminID}, submissiontypes.ListParams{
			PhaseID:   phaseID,
			SortField: "overallScore",
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if subs[0].OverallScore == nil {
			t.Error("expected scores for admins")
		}
	})

	t.Run("no phase access rejected", func(t *testing.T) {
		_, err := env.svc.ListSubmissions(ctx, shared.Identity{UserID: shared.UserID(uuid.New())}, submissiontypes.ListParams{PhaseID: phaseID})
		if !errs.IsAccess(err) {
			t.Fatalf("expected access error, got %v", err)
		}
	})
}

func TestService_UpdateSubmission(t *testing.T) {
	ctx := context.Background()

	subID := shared.SubmissionID(uuid.New())
	phaseID := shared.PhaseID(uuid.New())
	creatorID := shared.UserID(uuid.New())

	v := func(f float64) *float64 { return &f }
	str := func(s string) *string { return &s }

	setup := func(scored bool) *testEnv {
		env := newTestEnv(ScoringOptions{})
		env.repo.GetByIDFn = func(ctx context.Context, id shared.SubmissionID) (*submissiontypes.Submission, error) {
			sub := &submissiontypes.Submission{ID: id, PhaseID: phaseID, CreatorID: creatorID, Title: "entry", Approach: "cnn"}
			if scored {
				sub.Score = shared.ScoreMatrix{{Dataset: shared.AverageDataset}}
				sub.OverallScore = v(0.5)
			}
			return sub, nil
		}
		return env
	}

	t.Run("creator edits title", func(t *testing.T) {
		env := setup(false)
		var persisted *submissiontypes.Submission
		env.repo.UpdateFieldsFn = func(ctx context.Context, sub *submissiontypes.Submission) error {
			persisted = sub
			return nil
		}
		sub, err := env.svc.UpdateSubmission(ctx, shared.Identity{UserID: creatorID}, subID, submissiontypes.UpdateParams{Title: str("renamed")})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if sub.Title != "renamed" || persisted == nil || persisted.Title != "renamed" {
			t.Error("expected the title change persisted")
		}
	})

	t.Run("approach frozen once scored", func(t *testing.T) {
		env := setup(true)
		_, err := env.svc.UpdateSubmission(ctx, shared.Identity{UserID: creatorID}, subID, submissiontypes.UpdateParams{Approach: str("svm")})
		var ve *errs.ValidationError
		if !errors.As(err, &ve) || ve.Field != "approach" {
			t.Fatalf("expected approach validation error, got %v", err)
		}
	})

	t.Run("approach editable while unscored", func(t *testing.T) {
		env := setup(false)
		sub, err := env.svc.UpdateSubmission(ctx, shared.Identity{UserID: creatorID}, subID, submissiontypes.UpdateParams{Approach: str("svm")})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if sub.Approach != "svm" {
			t.Errorf("expected approach change, got %q", sub.Approach)
		}
	})

	t.Run("empty title rejected", func(t *testing.T) {
		env := setup(false)
		_, err := env.svc.UpdateSubmission(ctx, shared.Identity{UserID: creatorID}, subID, submissiontypes.UpdateParams{Title: str("")})
		if !errs.IsValidation(err) {
			t.Fatalf("expected validation error, got %v", err)
		}
	})

	t.Run("stranger rejected", func(t *testing.T) {
		env := setup(false)
		_, err := env.svc.UpdateSubmission(ctx, shared.Identity{UserID: shared.UserID(uuid.New())}, subID, submissiontypes.UpdateParams{Title: str("x")})
		if !errs.IsAccess(err) {
			t.Fatalf("expected access error, got %v", err)
		}
	})
}

func TestService_RemoveSubmission(t *testing.T) {
	ctx := context.Background()

	subID := shared.SubmissionID(uuid.New())
	phaseID := shared.PhaseID(uuid.New())
	creatorID := shared.UserID(uuid.New())
	folderID := shared.FolderID(uuid.New())

	setup := func() *testEnv {
		env := newTestEnv(ScoringOptions{})
		env.repo.GetByIDFn = func(ctx context.Context, id shared.SubmissionID) (*submissiontypes.Submission, error) {
			return &submissiontypes.Submission{ID: id, PhaseID: phaseID, CreatorID: creatorID, FolderID: folderID}, nil
		}
		return env
	}

	t.Run("creator removes row and backing folder", func(t *testing.T) {
		env := setup()
		var removedFolder *shared.FolderID
		env.folders.RemoveFn = func(ctx context.Context, id shared.FolderID) error {
			removedFolder = &id
			return nil
		}
		deleted := false
		env.repo.DeleteFn = func(ctx context.Context, id shared.SubmissionID) error {
			deleted = true
			return nil
		}
		if err := env.svc.RemoveSubmission(ctx, shared.Identity{UserID: creatorID}, subID); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if removedFolder == nil || *removedFolder != folderID {
			t.Error("expected the backing folder removed")
		}
		if !deleted {
			t.Error("expected the submission row deleted")
		}
	})

	t.Run("folder removal failure does not block the delete", func(t *testing.T) {
		env := setup()
		env.folders.RemoveFn = func(ctx context.Context, id shared.FolderID) error {
			return errors.New("storage unavailable")
		}
		deleted := false
		env.repo.DeleteFn = func(ctx context.Context, id shared.SubmissionID) error {
			deleted = true
			return nil
		}
		if err := env.svc.RemoveSubmission(ctx, shared.Identity{UserID: creatorID}, subID); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !deleted {
			t.Error("expected the submission row deleted despite the folder failure")
		}
	})

	t.Run("stranger rejected", func(t *testing.T) {
		env := setup()
		err := env.svc.RemoveSubmission(ctx, shared.Identity{UserID: shared.UserID(uuid.New())}, subID)
		if !errs.IsAccess(err) {
			t.Fatalf("expected access error, got %v", err)
		}
		if got := env.folders.Trace(); len(got) != 0 {
			t.Errorf("expected no folder calls, got %v", got)
		}
	})
}

func TestService_RemoveByPhase(t *testing.T) {
	ctx := context.Background()
	phaseID := shared.PhaseID(uuid.New())
	folderA := shared.FolderID(uuid.New())
	folderB := shared.FolderID(uuid.New())

	env := newTestEnv(ScoringOptions{})
	env.repo.DeleteByPhaseFn = func(ctx context.Context, id shared.PhaseID) ([]shared.FolderID, error) {
		return []shared.FolderID{folderA, folderB}, nil
	}
	removed := map[shared.FolderID]bool{}
	env.folders.RemoveFn = func(ctx context.Context, id shared.FolderID) error {
		removed[id] = true
		return nil
	}

	if err := env.svc.RemoveByPhase(ctx, phaseID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !removed[folderA] || !removed[folderB] {
		t.Errorf("expected both submission folders removed, got %v", removed)
	}
}

func TestService_ListApproaches(t *testing.T) {
	ctx := context.Background()

	phaseID := shared.PhaseID(uuid.New())
	ownerID := shared.UserID(uuid.New())
	adminID := shared.UserID(uuid.New())

	env := newTestEnv(ScoringOptions{})
	env.phases.GetByIDFn = func(ctx context.Context, id shared.PhaseID) (*phasetypes.Phase, error) {
		return &phasetypes.Phase{
			ID: id,
			Access: shared.AccessList{
				Users: []shared.UserAccess{{UserID: adminID, Level: shared.AccessAdmin}},
			},
		}, nil
	}
	env.repo.ListApproachesFn = func(ctx context.Context, phaseID shared.PhaseID, userID shared.UserID) ([]string, error) {
		return []string{shared.DefaultApproach, "cnn"}, nil
	}

	t.Run("own approaches need no phase access", func(t *testing.T) {
		approaches, err := env.svc.ListApproaches(ctx, shared.Identity{UserID: ownerID}, phaseID, ownerID)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(approaches) != 2 {
			t.Errorf("expected two approaches, got %v", approaches)
		}
	})

	t.Run("another user's approaches require admin", func(t *testing.T) {
		_, err := env.svc.ListApproaches(ctx, shared.Identity{UserID: ownerID}, phaseID, adminID)
		if !errs.IsAccess(err) {
			t.Fatalf("expected access error, got %v", err)
		}
		if _, err := env.svc.ListApproaches(ctx, shared.Identity{UserID: adminID}, phaseID, ownerID); err != nil {
			t.Fatalf("unexpected error for admin: %v", err)
		}
	})
}

func TestService_RescoreSubmission(t *testing.T) {
	ctx := context.Background()

	subID := shared.SubmissionID(uuid.New())
	phaseID := shared.PhaseID(uuid.New())
	adminID := shared.UserID(uuid.New())
	admin := shared.Identity{UserID: adminID}

	setup := func(latest bool) *testEnv {
		env := newTestEnv(ScoringOptions{})
		env.repo.GetByIDFn = func(ctx context.Context, id shared.SubmissionID) (*submissiontypes.Submission, error) {
			return &submissiontypes.Submission{ID: id, PhaseID: phaseID, Latest: latest}, nil
		}
		env.phases.GetByIDFn = func(ctx context.Context, id shared.PhaseID) (*phasetypes.Phase, error) {
			return &phasetypes.Phase{
				ID: id,
				Access: shared.AccessList{
					Users: []shared.UserAccess{{UserID: adminID, Level: shared.AccessAdmin}},
				},
			}, nil
		}
		return env
	}

	t.Run("queues a rescore for the latest submission", func(t *testing.T) {
		env := setup(true)
		if err := env.svc.RescoreSubmission(ctx, admin, subID); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(env.queue.Enqueued) != 1 || !env.queue.Enqueued[0].Rescoring {
			t.Fatalf("expected one rescoring dispatch, got %+v", env.queue.Enqueued)
		}
	})

	t.Run("superseded submission rejected", func(t *testing.T) {
		env := setup(false)
		if err := env.svc.RescoreSubmission(ctx, admin, subID); !errs.IsValidation(err) {
			t.Fatalf("expected validation error, got %v", err)
		}
	})

	t.Run("non-admin rejected", func(t *testing.T) {
		env := setup(true)
		err := env.svc.RescoreSubmission(ctx, shared.Identity{UserID: shared.UserID(uuid.New())}, subID)
		if !errs.IsAccess(err) {
			t.Fatalf("expected access error, got %v", err)
		}
	})
}

func TestService_RescorePhase(t *testing.T) {
	ctx := context.Background()
	phaseID := shared.PhaseID(uuid.New())

	env := newTestEnv(ScoringOptions{})
	env.repo.ListLatestScoredFn = func(ctx context.Context, id shared.PhaseID) ([]submissiontypes.Submission, error) {
		return []submissiontypes.Submission{
			{ID: shared.SubmissionID(uuid.New())},
			{ID: shared.SubmissionID(uuid.New())},
		}, nil
	}

	count, err := env.svc.RescorePhase(ctx, phaseID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 2 {
		t.Errorf("expected 2 queued, got %d", count)
	}
	if len(env.queue.Enqueued) != 2 {
		t.Fatalf("expected 2 dispatches, got %d", len(env.queue.Enqueued))
	}
	for _, e := range env.queue.Enqueued {
		if !e.Rescoring {
			t.Error("phase rescores must be flagged as rescoring")
		}
	}
}

func TestService_RecomputeOverallScores(t *testing.T) {
	ctx := context.Background()
	phaseID := shared.PhaseID(uuid.New())
	v := func(f float64) *float64 { return &f }

	env := newTestEnv(ScoringOptions{})
	env.phases.GetByIDFn = func(ctx context.Context, id shared.PhaseID) (*phasetypes.Phase, error) {
		return &phasetypes.Phase{ID: id, Metrics: shared.MetricWeights{"acc": {Weight: 10}}}, nil
	}
	matrix := func(acc float64) shared.ScoreMatrix {
		return shared.ScoreMatrix{{
			Dataset: shared.AverageDataset,
			Metrics: []shared.MetricValue{{Name: "acc", Value: v(acc)}},
		}}
	}
	// One group with history: the superseded submission must be rewritten
	// too, not just the row currently flagged latest.
	supersededID := shared.SubmissionID(uuid.New())
	latestID := shared.SubmissionID(uuid.New())
	env.repo.ListScoredFn = func(ctx context.Context, id shared.PhaseID) ([]submissiontypes.Submission, error) {
		return []submissiontypes.Submission{
			{ID: supersededID, Score: matrix(0.2), OverallScore: v(0.2), Latest: false},
			{ID: latestID, Score: matrix(0.4), OverallScore: v(0.4), Latest: true},
		}, nil
	}
	updates := map[shared.SubmissionID]float64{}
	env.repo.UpdateOverallScoreFn = func(ctx context.Context, id shared.SubmissionID, overall float64) error {
		updates[id] = overall
		return nil
	}

	count, err := env.svc.RecomputeOverallScores(ctx, phaseID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 2 {
		t.Errorf("expected 2 recomputed, got %d", count)
	}
	if got := updates[supersededID]; got != 2 {
		t.Errorf("expected superseded overall 2 from the new weights, got %v", got)
	}
	if got := updates[latestID]; got != 4 {
		t.Errorf("expected latest overall 4 from the new weights, got %v", got)
	}
}

func TestService_SyncPhaseFolderAccess(t *testing.T) {
	ctx := context.Background()

	phaseID := shared.PhaseID(uuid.New())
	adminID := shared.UserID(uuid.New())
	creatorID := shared.UserID(uuid.New())
	strayID := shared.UserID(uuid.New())
	dirtyFolder := shared.FolderID(uuid.New())
	cleanFolder := shared.FolderID(uuid.New())

	env := newTestEnv(ScoringOptions{})
	env.phases.GetByIDFn = func(ctx context.Context, id shared.PhaseID) (*phasetypes.Phase, error) {
		return &phasetypes.Phase{
			ID: id,
			Access: shared.AccessList{
				Users: []shared.UserAccess{{UserID: adminID, Level: shared.AccessAdmin}},
			},
		}, nil
	}
	env.repo.ListFn = func(ctx context.Context, params submissiontypes.ListParams) ([]submissiontypes.Submission, error) {
		return []submissiontypes.Submission{
			{FolderID: dirtyFolder},
			{FolderID: dirtyFolder},
			{FolderID: cleanFolder},
		}, nil
	}
	env.folders.LoadFn = func(ctx context.Context, id shared.FolderID) (*storage.Folder, error) {
		if id == dirtyFolder {
			return &storage.Folder{
				ID:        id,
				CreatorID: creatorID,
				Access: shared.AccessList{
					Users: []shared.UserAccess{
						{UserID: creatorID, Level: shared.AccessAdmin},
						{UserID: strayID, Level: shared.AccessRead},
					},
				},
			}, nil
		}
		return &storage.Folder{
			ID:        id,
			CreatorID: creatorID,
			Access: shared.AccessList{
				Users: []shared.UserAccess{
					{UserID: creatorID, Level: shared.AccessAdmin},
					{UserID: adminID, Level: shared.AccessRead},
				},
			},
		}, nil
	}

	applied := map[shared.FolderID]shared.AccessList{}
	env.folders.ApplyAccessFn = func(ctx context.Context, id shared.FolderID, acl shared.AccessList) error {
		applied[id] = acl
		return nil
	}

	if err := env.svc.SyncPhaseFolderAccess(ctx, phaseID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(applied) != 1 {
		t.Fatalf("expected exactly the dirty folder rewritten, got %d rewrites", len(applied))
	}
	acl, ok := applied[dirtyFolder]
	if !ok {
		t.Fatal("expected the dirty folder to be rewritten")
	}
	if acl.UserLevel(strayID) != shared.AccessNone {
		t.Error("stray access must be revoked")
	}
	if acl.UserLevel(adminID) < shared.AccessRead {
		t.Error("phase admins must gain READ")
	}
	if acl.UserLevel(creatorID) != shared.AccessAdmin {
		t.Error("the folder creator must keep their access")
	}
}
