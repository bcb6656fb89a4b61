package submissionservice

import (
	"context"
	"sync"

	"github.com/ThreeDotsLabs/watermill/message"

	phasetypes "github.com/girder/covalic/app/modules/phase/domain/types"
	"github.com/girder/covalic/app/shared"
	"github.com/girder/covalic/app/shared/errs"
	"github.com/girder/covalic/app/shared/storage"
)

// ------------------------
// Fake phase provider
// ------------------------

type FakePhaseProvider struct {
	trace []string

	GetByIDFn      func(ctx context.Context, id shared.PhaseID) (*phasetypes.Phase, error)
	UpdateAccessFn func(ctx context.Context, id shared.PhaseID, access shared.AccessList) error
}

func (f *FakePhaseProvider) Trace() []string {
	return f.trace
}

func (f *FakePhaseProvider) record(step string) {
	f.trace = append(f.trace, step)
}

func (f *FakePhaseProvider) GetByID(ctx context.Context, id shared.PhaseID) (*phasetypes.Phase, error) {
	f.record("GetByID")
	if f.GetByIDFn != nil {
		return f.GetByIDFn(ctx, id)
	}
	return &phasetypes.Phase{ID: id, Active: true}, nil
}

func (f *FakePhaseProvider) UpdateAccess(ctx context.Context, id shared.PhaseID, access shared.AccessList) error {
	f.record("UpdateAccess")
	if f.UpdateAccessFn != nil {
		return f.UpdateAccessFn(ctx, id, access)
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
	return &storage.Folder{Name: params.Name}, nil
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
// Fake user directory
// ------------------------

type FakeUserDirectory struct {
	Users map[shared.UserID]*storage.User

	LoadFn           func(ctx context.Context, id shared.UserID) (*storage.User, error)
	EmailsForUsersFn func(ctx context.Context, ids []shared.UserID) ([]string, error)
}

func (f *FakeUserDirectory) Load(ctx context.Context, id shared.UserID) (*storage.User, error) {
	if f.LoadFn != nil {
		return f.LoadFn(ctx, id)
	}
	if u, ok := f.Users[id]; ok {
		return u, nil
	}
	return nil, errs.ErrNotFound
}

func (f *FakeUserDirectory) EmailsForUsers(ctx context.Context, ids []shared.UserID) ([]string, error) {
	if f.EmailsForUsersFn != nil {
		return f.EmailsForUsersFn(ctx, ids)
	}
	var addrs []string
	for _, id := range ids {
		if u, ok := f.Users[id]; ok && u.Email != "" {
			addrs = append(addrs, u.Email)
		}
	}
	return addrs, nil
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

// ------------------------
// Fake dispatch queue
// ------------------------

type enqueuedDispatch struct {
	SubmissionID shared.SubmissionID
	Rescoring    bool
}

type FakeDispatchQueue struct {
	Enqueued []enqueuedDispatch

	EnqueueScoreDispatchFn func(ctx context.Context, submissionID shared.SubmissionID, rescoring bool) error
}

func (f *FakeDispatchQueue) EnqueueScoreDispatch(ctx context.Context, submissionID shared.SubmissionID, rescoring bool) error {
	if f.EnqueueScoreDispatchFn != nil {
		return f.EnqueueScoreDispatchFn(ctx, submissionID, rescoring)
	}
	f.Enqueued = append(f.Enqueued, enqueuedDispatch{SubmissionID: submissionID, Rescoring: rescoring})
	return nil
}
