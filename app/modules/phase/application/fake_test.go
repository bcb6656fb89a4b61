package phaseservice

import (
	"context"
	"sync"

	"github.com/ThreeDotsLabs/watermill/message"

	challengetypes "github.com/girder/covalic/app/modules/challenge/domain/types"
	"github.com/girder/covalic/app/shared"
	"github.com/girder/covalic/app/shared/errs"
	"github.com/girder/covalic/app/shared/storage"
)

// ------------------------
// Fake challenge provider
// ------------------------

type FakeChallengeProvider struct {
	GetByIDFn func(ctx context.Context, id shared.ChallengeID) (*challengetypes.Challenge, error)
}

func (f *FakeChallengeProvider) GetByID(ctx context.Context, id shared.ChallengeID) (*challengetypes.Challenge, error) {
	if f.GetByIDFn != nil {
		return f.GetByIDFn(ctx, id)
	}
	return &challengetypes.Challenge{ID: id}, nil
}

// ------------------------
// Fake submission cascade
// ------------------------

type FakeSubmissionCascade struct {
	trace []string

	RemoveByPhaseFn          func(ctx context.Context, phaseID shared.PhaseID) error
	RescorePhaseFn           func(ctx context.Context, phaseID shared.PhaseID) (int, error)
	RecomputeOverallScoresFn func(ctx context.Context, phaseID shared.PhaseID) (int, error)
	CountByPhaseFn           func(ctx context.Context, phaseID shared.PhaseID) (int, error)
}

func (f *FakeSubmissionCascade) Trace() []string {
	return f.trace
}

func (f *FakeSubmissionCascade) record(step string) {
	f.trace = append(f.trace, step)
}

func (f *FakeSubmissionCascade) RemoveByPhase(ctx context.Context, phaseID shared.PhaseID) error {
	f.record("RemoveByPhase")
	if f.RemoveByPhaseFn != nil {
		return f.RemoveByPhaseFn(ctx, phaseID)
	}
	return nil
}

func (f *FakeSubmissionCascade) RescorePhase(ctx context.Context, phaseID shared.PhaseID) (int, error) {
	f.record("RescorePhase")
	if f.RescorePhaseFn != nil {
		return f.RescorePhaseFn(ctx, phaseID)
	}
	return 0, nil
}

func (f *FakeSubmissionCascade) RecomputeOverallScores(ctx context.Context, phaseID shared.PhaseID) (int, error) {
	f.record("RecomputeOverallScores")
	if f.RecomputeOverallScoresFn != nil {
		return f.RecomputeOverallScoresFn(ctx, phaseID)
	}
	return 0, nil
}

func (f *FakeSubmissionCascade) CountByPhase(ctx context.Context, phaseID shared.PhaseID) (int, error) {
	f.record("CountByPhase")
	if f.CountByPhaseFn != nil {
		return f.CountByPhaseFn(ctx, phaseID)
	}
	return 0, nil
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
// Fake group service
// ------------------------

type FakeGroupService struct {
	trace []string

	FindByNameFn func(ctx context.Context, name string) (*storage.Group, error)
	CreateFn     func(ctx context.Context, name string, creator shared.UserID, public bool) (*storage.Group, error)
	AddMemberFn  func(ctx context.Context, id shared.GroupID, user shared.UserID) error
}

func (f *FakeGroupService) Trace() []string {
	return f.trace
}

func (f *FakeGroupService) record(step string) {
	f.trace = append(f.trace, step)
}

func (f *FakeGroupService) FindByName(ctx context.Context, name string) (*storage.Group, error) {
	f.record("FindByName")
	if f.FindByNameFn != nil {
		return f.FindByNameFn(ctx, name)
	}
	return nil, errs.ErrNotFound
}

func (f *FakeGroupService) Create(ctx context.Context, name string, creator shared.UserID, public bool) (*storage.Group, error) {
	f.record("Create")
	if f.CreateFn != nil {
		return f.CreateFn(ctx, name, creator, public)
	}
	return &storage.Group{Name: name, Public: public}, nil
}

func (f *FakeGroupService) AddMember(ctx context.Context, id shared.GroupID, user shared.UserID) error {
	f.record("AddMember")
	if f.AddMemberFn != nil {
		return f.AddMemberFn(ctx, id, user)
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
