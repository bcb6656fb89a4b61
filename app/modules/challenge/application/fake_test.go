package challengeservice

import (
	"context"
	"sync"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"

	"github.com/girder/covalic/app/shared"
	"github.com/girder/covalic/app/shared/errs"
	"github.com/girder/covalic/app/shared/storage"
)

// ------------------------
// Fake phase cascade
// ------------------------

type FakePhaseCascade struct {
	trace []string

	RemoveByChallengeFn       func(ctx context.Context, challengeID shared.ChallengeID) error
	SubtreeCountByChallengeFn func(ctx context.Context, challengeID shared.ChallengeID) (int, error)
}

func (f *FakePhaseCascade) Trace() []string {
	return f.trace
}

func (f *FakePhaseCascade) record(step string) {
	f.trace = append(f.trace, step)
}

func (f *FakePhaseCascade) RemoveByChallenge(ctx context.Context, challengeID shared.ChallengeID) error {
	f.record("RemoveByChallenge")
	if f.RemoveByChallengeFn != nil {
		return f.RemoveByChallengeFn(ctx, challengeID)
	}
	return nil
}

func (f *FakePhaseCascade) SubtreeCountByChallenge(ctx context.Context, challengeID shared.ChallengeID) (int, error) {
	f.record("SubtreeCountByChallenge")
	if f.SubtreeCountByChallengeFn != nil {
		return f.SubtreeCountByChallengeFn(ctx, challengeID)
	}
	return 0, nil
}

// ------------------------
// Fake collection service
// ------------------------

type FakeCollectionService struct {
	trace []string

	FindByNameFn func(ctx context.Context, name string) (*storage.Collection, error)
	CreateFn     func(ctx context.Context, name string, creator shared.UserID, public bool) (*storage.Collection, error)
	LoadFn       func(ctx context.Context, id shared.CollectionID) (*storage.Collection, error)
	RemoveFn     func(ctx context.Context, id shared.CollectionID) error
}

func (f *FakeCollectionService) Trace() []string {
	return f.trace
}

func (f *FakeCollectionService) record(step string) {
	f.trace = append(f.trace, step)
}

func (f *FakeCollectionService) FindByName(ctx context.Context, name string) (*storage.Collection, error) {
	f.record("FindByName")
	if f.FindByNameFn != nil {
		return f.FindByNameFn(ctx, name)
	}
	return nil, errs.ErrNotFound
}

func (f *FakeCollectionService) Create(ctx context.Context, name string, creator shared.UserID, public bool) (*storage.Collection, error) {
	f.record("Create")
	if f.CreateFn != nil {
		return f.CreateFn(ctx, name, creator, public)
	}
	return &storage.Collection{ID: shared.CollectionID(uuid.New()), Name: name, Public: public}, nil
}

func (f *FakeCollectionService) Load(ctx context.Context, id shared.CollectionID) (*storage.Collection, error) {
	f.record("Load")
	if f.LoadFn != nil {
		return f.LoadFn(ctx, id)
	}
	return &storage.Collection{ID: id}, nil
}

func (f *FakeCollectionService) Remove(ctx context.Context, id shared.CollectionID) error {
	f.record("Remove")
	if f.RemoveFn != nil {
		return f.RemoveFn(ctx, id)
	}
	return nil
}

// ------------------------
// Fake folder service
// ------------------------

type FakeFolderService struct {
	trace []string

	LoadFn           func(ctx context.Context, id shared.FolderID) (*storage.Folder, error)
	CreateFn         func(ctx context.Context, params storage.CreateFolderParams) (*storage.Folder, error)
	RemoveFn         func(ctx context.Context, id shared.FolderID) error
	SetUserAccessFn  func(ctx context.Context, id shared.FolderID, user shared.UserID, level shared.AccessLevel) error
	SetGroupAccessFn func(ctx context.Context, id shared.FolderID, group shared.GroupID, level shared.AccessLevel) error
	ApplyAccessFn    func(ctx context.Context, id shared.FolderID, acl shared.AccessList) error
}

func (f *FakeFolderService) Trace() []string {
	return f.trace
}

func (f *FakeFolderService) record(step string) {
	f.trace = append(f.trace, step)
}

func (f *FakeFolderService) Load(ctx context.Context, id shared.FolderID) (*storage.Folder, error) {
	f.record("Load")
	if f.LoadFn != nil {
		return f.LoadFn(ctx, id)
	}
	return &storage.Folder{ID: id}, nil
}

func (f *FakeFolderService) Create(ctx context.Context, params storage.CreateFolderParams) (*storage.Folder, error) {
	f.record("Create")
	if f.CreateFn != nil {
		return f.CreateFn(ctx, params)
	}
	return &storage.Folder{ID: shared.FolderID(uuid.New()), Name: params.Name}, nil
}

func (f *FakeFolderService) Remove(ctx context.Context, id shared.FolderID) error {
	f.record("Remove")
	if f.RemoveFn != nil {
		return f.RemoveFn(ctx, id)
	}
	return nil
}

func (f *FakeFolderService) SetUserAccess(ctx context.Context, id shared.FolderID, user shared.UserID, level shared.AccessLevel) error {
	f.record("SetUserAccess")
	if f.SetUserAccessFn != nil {
		return f.SetUserAccessFn(ctx, id, user, level)
	}
	return nil
}

func (f *FakeFolderService) SetGroupAccess(ctx context.Context, id shared.FolderID, group shared.GroupID, level shared.AccessLevel) error {
	f.record("SetGroupAccess")
	if f.SetGroupAccessFn != nil {
		return f.SetGroupAccessFn(ctx, id, group, level)
	}
	return nil
}

func (f *FakeFolderService) ApplyAccess(ctx context.Context, id shared.FolderID, acl shared.AccessList) error {
	f.record("ApplyAccess")
	if f.ApplyAccessFn != nil {
		return f.ApplyAccessFn(ctx, id, acl)
	}
	return nil
}

// ------------------------
// Fake event bus
// ------------------------

// FakeEventBus records published messages per topic.
type FakeEventBus struct {
	mu        sync.Mutex
	published map[string][]*message.Message

	PublishFn func(topic string, messages ...*message.Message) error
}

func (f *FakeEventBus) Publish(topic string, messages ...*message.Message) error {
	if f.PublishFn != nil {
		return f.PublishFn(topic, messages...)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.published == nil {
		f.published = make(map[string][]*message.Message)
	}
	f.published[topic] = append(f.published[topic], messages...)
	return nil
}

func (f *FakeEventBus) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	ch := make(chan *message.Message)
	close(ch)
	return ch, nil
}

func (f *FakeEventBus) EnsureStream(ctx context.Context, streamName string, subjects ...string) error {
	return nil
}

func (f *FakeEventBus) Close() error { return nil }

// Published returns the messages recorded for a topic.
func (f *FakeEventBus) Published(topic string) []*message.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.published[topic]
}
