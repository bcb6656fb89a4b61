package challengeservice

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace/noop"

	challengeevents "github.com/girder/covalic/app/modules/challenge/domain/events"
	challengetypes "github.com/girder/covalic/app/modules/challenge/domain/types"
	challengedb "github.com/girder/covalic/app/modules/challenge/infrastructure/repositories"
	"github.com/girder/covalic/app/shared"
	"github.com/girder/covalic/app/shared/errs"
	"github.com/girder/covalic/app/shared/observability"
	"github.com/girder/covalic/app/shared/storage"
)

type testEnv struct {
	repo        *challengedb.FakeRepository
	phases      *FakePhaseCascade
	collections *FakeCollectionService
	folders     *FakeFolderService
	bus         *FakeEventBus
	svc         *ChallengeService
}

func newTestEnv() *testEnv {
	env := &testEnv{
		repo:        &challengedb.FakeRepository{},
		phases:      &FakePhaseCascade{},
		collections: &FakeCollectionService{},
		folders:     &FakeFolderService{},
		bus:         &FakeEventBus{},
	}
	env.svc = NewChallengeService(
		env.repo,
		env.phases,
		env.collections,
		env.folders,
		env.bus,
		slog.New(slog.NewTextHandler(io.Discard, nil)),
		observability.NoOpMetrics{},
		noop.NewTracerProvider().Tracer("test"),
	)
	return env
}

func TestService_CreateChallenge(t *testing.T) {
	ctx := context.Background()

	creatorID := shared.UserID(uuid.New())
	creator := shared.Identity{UserID: creatorID, Name: "Organizer"}

	t.Run("provisions the collection and seeds access", func(t *testing.T) {
		env := newTestEnv()
		collectionID := shared.CollectionID(uuid.New())
		env.collections.CreateFn = func(ctx context.Context, name string, creator shared.UserID, public bool) (*storage.Collection, error) {
			if name != "ISBI Challenge" {
				t.Errorf("collection must carry the challenge name, got %q", name)
			}
			return &storage.Collection{ID: collectionID, Name: name, Public: public}, nil
		}
		assetsID := shared.FolderID(uuid.New())
		env.folders.CreateFn = func(ctx context.Context, params storage.CreateFolderParams) (*storage.Folder, error) {
			if params.Name != "Assets" || params.CollectionID != collectionID || !params.ReuseExisting {
				t.Errorf("unexpected assets folder params: %+v", params)
			}
			return &storage.Folder{ID: assetsID, Name: params.Name}, nil
		}

		challenge, err := env.svc.CreateChallenge(ctx, creator, challengetypes.CreateParams{
			Name:   "  ISBI Challenge  ",
			Public: true,
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if challenge.Name != "ISBI Challenge" {
			t.Errorf("expected trimmed name, got %q", challenge.Name)
		}
		if challenge.CollectionID != collectionID {
			t.Error("expected the provisioned collection recorded")
		}
		if challenge.AssetsFolderID != assetsID {
			t.Error("expected the assets folder recorded")
		}
		if challenge.Access.UserLevel(creatorID) != shared.AccessAdmin {
			t.Error("the creator must be seeded as admin")
		}
		if !challenge.Access.Public {
			t.Error("expected a public access list for a public challenge")
		}
		if got := len(env.bus.Published(challengeevents.ChallengeSavedSubject)); got != 1 {
			t.Errorf("expected one saved event, got %d", got)
		}
	})

	t.Run("duplicate name becomes a field validation error", func(t *testing.T) {
		env := newTestEnv()
		env.repo.CreateFn = func(ctx context.Context, challenge *challengetypes.Challenge) error {
			return challengedb.ErrDuplicateName
		}
		_, err := env.svc.CreateChallenge(ctx, creator, challengetypes.CreateParams{Name: "Taken"})
		var ve *errs.ValidationError
		if !errors.As(err, &ve) || ve.Field != "name" {
			t.Fatalf("expected name validation error, got %v", err)
		}
	})

	t.Run("blank name rejected", func(t *testing.T) {
		env := newTestEnv()
		_, err := env.svc.CreateChallenge(ctx, creator, challengetypes.CreateParams{Name: "   "})
		if !errs.IsValidation(err) {
			t.Fatalf("expected validation error, got %v", err)
		}
	})

	t.Run("start date after end date rejected", func(t *testing.T) {
		env := newTestEnv()
		start := time.Now()
		end := start.Add(-time.Hour)
		_, err := env.svc.CreateChallenge(ctx, creator, challengetypes.CreateParams{
			Name:      "Backwards",
			StartDate: &start,
			EndDate:   &end,
		})
		var ve *errs.ValidationError
		if !errors.As(err, &ve) || ve.Field != "startDate" {
			t.Fatalf("expected start date validation error, got %v", err)
		}
	})

	t.Run("existing collection is reused", func(t *testing.T) {
		env := newTestEnv()
		existing := shared.CollectionID(uuid.New())
		env.collections.FindByNameFn = func(ctx context.Context, name string) (*storage.Collection, error) {
			return &storage.Collection{ID: existing, Name: name}, nil
		}
		challenge, err := env.svc.CreateChallenge(ctx, creator, challengetypes.CreateParams{Name: "Rerun"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if challenge.CollectionID != existing {
			t.Error("expected the existing collection reused")
		}
	})
}

func TestService_UpdateChallenge(t *testing.T) {
	ctx := context.Background()

	challengeID := shared.ChallengeID(uuid.New())
	adminID := shared.UserID(uuid.New())
	admin := shared.Identity{UserID: adminID}

	setup := func(start, end *time.Time) *testEnv {
		env := newTestEnv()
		env.repo.GetByIDFn = func(ctx context.Context, id shared.ChallengeID) (*challengetypes.Challenge, error) {
			return &challengetypes.Challenge{
				ID:        id,
				Name:      "ISBI Challenge",
				StartDate: start,
				EndDate:   end,
				Access: shared.AccessList{
					Users: []shared.UserAccess{{UserID: adminID, Level: shared.AccessAdmin}},
				},
			}, nil
		}
		return env
	}

	t.Run("moving the end before the stored start rejected", func(t *testing.T) {
		start := time.Now()
		env := setup(&start, nil)
		end := start.Add(-time.Hour)
		_, err := env.svc.UpdateChallenge(ctx, admin, challengeID, challengetypes.UpdateParams{EndDate: &end})
		var ve *errs.ValidationError
		if !errors.As(err, &ve) || ve.Field != "startDate" {
			t.Fatalf("expected start date validation error, got %v", err)
		}
	})

	t.Run("valid range persisted", func(t *testing.T) {
		start := time.Now()
		env := setup(&start, nil)
		var persisted *challengetypes.Challenge
		env.repo.UpdateFn = func(ctx context.Context, challenge *challengetypes.Challenge) error {
			persisted = challenge
			return nil
		}
		end := start.Add(48 * time.Hour)
		if _, err := env.svc.UpdateChallenge(ctx, admin, challengeID, challengetypes.UpdateParams{EndDate: &end}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if persisted == nil || persisted.EndDate == nil || !persisted.EndDate.Equal(end) {
			t.Error("expected the end date persisted")
		}
	})

	t.Run("non-admin rejected", func(t *testing.T) {
		env := setup(nil, nil)
		_, err := env.svc.UpdateChallenge(ctx, shared.Identity{UserID: shared.UserID(uuid.New())}, challengeID, challengetypes.UpdateParams{})
		if !errs.IsAccess(err) {
			t.Fatalf("expected access error, got %v", err)
		}
	})
}

func TestService_ListChallenges(t *testing.T) {
	ctx := context.Background()

	readerID := shared.UserID(uuid.New())
	reader := shared.Identity{UserID: readerID}

	past := time.Now().Add(-48 * time.Hour)
	future := time.Now().Add(48 * time.Hour)

	env := newTestEnv()
	env.repo.ListFn = func(ctx context.Context, limit, offset int) ([]challengetypes.Challenge, error) {
		return []challengetypes.Challenge{
			{Name: "open", Access: shared.AccessList{Public: true}},
			{Name: "private", Access: shared.AccessList{}},
			{Name: "finished", Access: shared.AccessList{Public: true}, EndDate: &past},
			{Name: "upcoming", Access: shared.AccessList{Public: true}, StartDate: &future},
		}, nil
	}

	names := func(challenges []challengetypes.Challenge) []string {
		var out []string
		for _, c := range challenges {
			out = append(out, c.Name)
		}
		return out
	}

	t.Run("hides inaccessible challenges", func(t *testing.T) {
		challenges, err := env.svc.ListChallenges(ctx, reader, challengetypes.TimeframeAll, 0, 0)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := names(challenges); len(got) != 3 {
			t.Errorf("expected the three public challenges, got %v", got)
		}
	})

	t.Run("active timeframe drops finished and upcoming", func(t *testing.T) {
		challenges, err := env.svc.ListChallenges(ctx, reader, challengetypes.TimeframeActive, 0, 0)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		got := names(challenges)
		if len(got) != 1 || got[0] != "open" {
			t.Errorf("expected only the open challenge, got %v", got)
		}
	})

	t.Run("upcoming timeframe keeps only future starts", func(t *testing.T) {
		challenges, err := env.svc.ListChallenges(ctx, reader, challengetypes.TimeframeUpcoming, 0, 0)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		got := names(challenges)
		if len(got) != 1 || got[0] != "upcoming" {
			t.Errorf("expected only the upcoming challenge, got %v", got)
		}
	})

	t.Run("site admins see everything", func(t *testing.T) {
		challenges, err := env.svc.ListChallenges(ctx, shared.Identity{UserID: readerID, SiteAdmin: true}, challengetypes.TimeframeAll, 0, 0)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(challenges) != 4 {
			t.Errorf("expected all challenges for a site admin, got %d", len(challenges))
		}
	})
}

func TestService_RemoveChallenge(t *testing.T) {
	ctx := context.Background()

	challengeID := shared.ChallengeID(uuid.New())
	collectionID := shared.CollectionID(uuid.New())
	adminID := shared.UserID(uuid.New())

	setup := func() *testEnv {
		env := newTestEnv()
		env.repo.GetByIDFn = func(ctx context.Context, id shared.ChallengeID) (*challengetypes.Challenge, error) {
			return &challengetypes.Challenge{
				ID:           id,
				CollectionID: collectionID,
				Access: shared.AccessList{
					Users: []shared.UserAccess{{UserID: adminID, Level: shared.AccessAdmin}},
				},
			}, nil
		}
		return env
	}

	t.Run("cascades to phases then drops the collection", func(t *testing.T) {
		env := setup()
		var removedCollection shared.CollectionID
		env.collections.RemoveFn = func(ctx context.Context, id shared.CollectionID) error {
			removedCollection = id
			return nil
		}
		deleted := false
		env.repo.DeleteFn = func(ctx context.Context, id shared.ChallengeID) error {
			deleted = true
			return nil
		}

		if err := env.svc.RemoveChallenge(ctx, shared.Identity{UserID: adminID}, challengeID); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(env.phases.Trace()) == 0 || env.phases.Trace()[0] != "RemoveByChallenge" {
			t.Error("phases must be removed first")
		}
		if removedCollection != collectionID {
			t.Error("expected the backing collection removed")
		}
		if !deleted {
			t.Error("expected the challenge row deleted")
		}
	})

	t.Run("cascade failure aborts the removal", func(t *testing.T) {
		env := setup()
		env.phases.RemoveByChallengeFn = func(ctx context.Context, id shared.ChallengeID) error {
			return errors.New("phase removal failed")
		}
		deleted := false
		env.repo.DeleteFn = func(ctx context.Context, id shared.ChallengeID) error {
			deleted = true
			return nil
		}
		if err := env.svc.RemoveChallenge(ctx, shared.Identity{UserID: adminID}, challengeID); err == nil {
			t.Fatal("expected error")
		}
		if deleted {
			t.Error("the challenge row must survive a failed cascade")
		}
	})

	t.Run("non-admin rejected", func(t *testing.T) {
		env := setup()
		err := env.svc.RemoveChallenge(ctx, shared.Identity{UserID: shared.UserID(uuid.New())}, challengeID)
		if !errs.IsAccess(err) {
			t.Fatalf("expected access error, got %v", err)
		}
	})
}

func TestService_SyncAssetsFolderAccess(t *testing.T) {
	ctx := context.Background()

	challengeID := shared.ChallengeID(uuid.New())
	assetsID := shared.FolderID(uuid.New())
	adminID := shared.UserID(uuid.New())

	desired := shared.AccessList{
		Public: true,
		Users:  []shared.UserAccess{{UserID: adminID, Level: shared.AccessAdmin}},
	}

	setup := func() *testEnv {
		env := newTestEnv()
		env.repo.GetByIDFn = func(ctx context.Context, id shared.ChallengeID) (*challengetypes.Challenge, error) {
			return &challengetypes.Challenge{
				ID:             id,
				AssetsFolderID: assetsID,
				Access:         desired,
			}, nil
		}
		return env
	}

	t.Run("mirrors the challenge ACL onto the folder", func(t *testing.T) {
		env := setup()
		env.folders.LoadFn = func(ctx context.Context, id shared.FolderID) (*storage.Folder, error) {
			return &storage.Folder{ID: id, Access: shared.AccessList{}}, nil
		}
		var applied shared.AccessList
		env.folders.ApplyAccessFn = func(ctx context.Context, id shared.FolderID, acl shared.AccessList) error {
			if id != assetsID {
				t.Errorf("expected the assets folder, got %s", id)
			}
			applied = acl
			return nil
		}

		if err := env.svc.SyncAssetsFolderAccess(ctx, challengeID); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !applied.Equal(desired) {
			t.Errorf("expected the challenge ACL applied, got %+v", applied)
		}
	})

	t.Run("matching ACL is not rewritten", func(t *testing.T) {
		env := setup()
		env.folders.LoadFn = func(ctx context.Context, id shared.FolderID) (*storage.Folder, error) {
			return &storage.Folder{ID: id, Access: desired}, nil
		}

		if err := env.svc.SyncAssetsFolderAccess(ctx, challengeID); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		for _, step := range env.folders.Trace() {
			if step == "ApplyAccess" {
				t.Error("a folder already in the desired state must not be rewritten")
			}
		}
	})
}

func TestService_SubtreeCount(t *testing.T) {
	ctx := context.Background()

	challengeID := shared.ChallengeID(uuid.New())
	adminID := shared.UserID(uuid.New())

	env := newTestEnv()
	env.repo.GetByIDFn = func(ctx context.Context, id shared.ChallengeID) (*challengetypes.Challenge, error) {
		return &challengetypes.Challenge{
			ID: id,
			Access: shared.AccessList{
				Users: []shared.UserAccess{{UserID: adminID, Level: shared.AccessAdmin}},
			},
		}, nil
	}
	env.phases.SubtreeCountByChallengeFn = func(ctx context.Context, id shared.ChallengeID) (int, error) {
		return 11, nil
	}

	count, err := env.svc.SubtreeCount(ctx, shared.Identity{UserID: adminID}, challengeID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 12 {
		t.Errorf("expected the challenge plus its subtree, got %d", count)
	}
}
