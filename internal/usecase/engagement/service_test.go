package engagement

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/pulsefeed/engagement-core/domain"
)

type MockEngagementRepository struct {
	mock.Mock
}

func (m *MockEngagementRepository) Toggle(ctx context.Context, edge domain.EngagementEdge) (bool, error) {
	args := m.Called(ctx, edge)
	return args.Bool(0), args.Error(1)
}

func (m *MockEngagementRepository) SetState(ctx context.Context, edge domain.EngagementEdge, desired bool) (bool, error) {
	args := m.Called(ctx, edge, desired)
	return args.Bool(0), args.Error(1)
}

func (m *MockEngagementRepository) IsEngaged(ctx context.Context, edge domain.EngagementEdge) (bool, error) {
	args := m.Called(ctx, edge)
	return args.Bool(0), args.Error(1)
}

func (m *MockEngagementRepository) CountEdges(ctx context.Context, postID int64, kind domain.EngagementKind) (int64, error) {
	args := m.Called(ctx, postID, kind)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockEngagementRepository) FetchEngagedTargets(ctx context.Context, userID int64, kind domain.EngagementKind, limit int64) ([]int64, error) {
	args := m.Called(ctx, userID, kind, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]int64), args.Error(1)
}

type MockPostRepository struct {
	mock.Mock
}

func (m *MockPostRepository) GetByID(ctx context.Context, id int64) (domain.Post, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.Post), args.Error(1)
}

func (m *MockPostRepository) GetByIDs(ctx context.Context, ids []int64) ([]domain.Post, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Post), args.Error(1)
}

func (m *MockPostRepository) Store(ctx context.Context, p *domain.Post) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *MockPostRepository) AddCounter(ctx context.Context, id int64, kind domain.CounterKind, delta int64) (int64, error) {
	args := m.Called(ctx, id, kind, delta)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockPostRepository) Recount(ctx context.Context, id int64, kind domain.CounterKind) (int64, error) {
	args := m.Called(ctx, id, kind)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockPostRepository) ApplyCounterChanges(ctx context.Context, changes []domain.CounterChange) error {
	args := m.Called(ctx, changes)
	return args.Error(0)
}

func (m *MockPostRepository) FetchIDs(ctx context.Context, cursor, limit int64) ([]int64, error) {
	args := m.Called(ctx, cursor, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]int64), args.Error(1)
}

type MockEngagementSetCache struct {
	mock.Mock
}

func (m *MockEngagementSetCache) MarkEngaged(ctx context.Context, edge domain.EngagementEdge) (bool, error) {
	args := m.Called(ctx, edge)
	return args.Bool(0), args.Error(1)
}

func (m *MockEngagementSetCache) ClearEngaged(ctx context.Context, edge domain.EngagementEdge) (bool, error) {
	args := m.Called(ctx, edge)
	return args.Bool(0), args.Error(1)
}

func (m *MockEngagementSetCache) IsEngaged(ctx context.Context, edge domain.EngagementEdge) (bool, error) {
	args := m.Called(ctx, edge)
	return args.Bool(0), args.Error(1)
}

func (m *MockEngagementSetCache) SetEngagedTargets(ctx context.Context, userID int64, kind domain.EngagementKind, postIDs []int64) error {
	args := m.Called(ctx, userID, kind, postIDs)
	return args.Error(0)
}

type MockPostCache struct {
	mock.Mock
}

func (m *MockPostCache) GetPost(ctx context.Context, id int64) (domain.Post, bool, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.Post), args.Bool(1), args.Error(2)
}

func (m *MockPostCache) SetPost(ctx context.Context, p *domain.Post, ttl time.Duration) error {
	args := m.Called(ctx, p, ttl)
	return args.Error(0)
}

func (m *MockPostCache) DeletePost(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockPostCache) GetCount(ctx context.Context, id int64, kind domain.CounterKind) (int64, error) {
	args := m.Called(ctx, id, kind)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockPostCache) SetCount(ctx context.Context, id int64, kind domain.CounterKind, value int64) error {
	args := m.Called(ctx, id, kind, value)
	return args.Error(0)
}

func (m *MockPostCache) IncrViews(ctx context.Context, id int64) (int64, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockPostCache) FetchAndResetViews(ctx context.Context) (map[int64]int64, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[int64]int64), args.Error(1)
}

type MockCounterReconciler struct {
	mock.Mock
}

func (m *MockCounterReconciler) Apply(ctx context.Context, postID int64, kind domain.CounterKind, delta int64) (int64, error) {
	args := m.Called(ctx, postID, kind, delta)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockCounterReconciler) Recount(ctx context.Context, postID int64, kind domain.CounterKind) (int64, error) {
	args := m.Called(ctx, postID, kind)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockCounterReconciler) ApplyUser(ctx context.Context, userID int64, kind domain.UserCounterKind, delta int64) (int64, error) {
	args := m.Called(ctx, userID, kind, delta)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockCounterReconciler) RecountFollows(ctx context.Context, userID int64) (int64, int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Get(1).(int64), args.Error(2)
}

type MockReconcileWorker struct {
	mock.Mock
}

func (m *MockReconcileWorker) Start(ctx context.Context) {
	m.Called(ctx)
}

func (m *MockReconcileWorker) Touch(postID int64, kind domain.CounterKind) {
	m.Called(postID, kind)
}

type MockNotificationDispatcher struct {
	mock.Mock
}

func (m *MockNotificationDispatcher) Start(ctx context.Context) {
	m.Called(ctx)
}

func (m *MockNotificationDispatcher) Dispatch(n domain.Notification) {
	m.Called(n)
}

type MockBloomRepository struct {
	mock.Mock
}

func (m *MockBloomRepository) Add(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockBloomRepository) Exists(ctx context.Context, id int64) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockBloomRepository) BulkAdd(ctx context.Context, ids []int64) error {
	args := m.Called(ctx, ids)
	return args.Error(0)
}

type serviceMocks struct {
	engagementRepo *MockEngagementRepository
	postRepo       *MockPostRepository
	setCache       *MockEngagementSetCache
	postCache      *MockPostCache
	reconciler     *MockCounterReconciler
	worker         *MockReconcileWorker
	dispatcher     *MockNotificationDispatcher
	bloomRepo      *MockBloomRepository
}

func newServiceWithMocks() (*Service, *serviceMocks) {
	m := &serviceMocks{
		engagementRepo: new(MockEngagementRepository),
		postRepo:       new(MockPostRepository),
		setCache:       new(MockEngagementSetCache),
		postCache:      new(MockPostCache),
		reconciler:     new(MockCounterReconciler),
		worker:         new(MockReconcileWorker),
		dispatcher:     new(MockNotificationDispatcher),
		bloomRepo:      new(MockBloomRepository),
	}
	svc := NewService(m.engagementRepo, m.postRepo, m.setCache, m.postCache, m.reconciler, m.worker, m.dispatcher, m.bloomRepo)
	return svc, m
}

func TestSetState_LikeOn(t *testing.T) {
	svc, m := newServiceWithMocks()
	ctx := context.Background()
	edge := domain.EngagementEdge{PostID: 7, UserID: 42, Kind: domain.KindLike}

	m.bloomRepo.On("Exists", mock.Anything, int64(7)).Return(true, nil)
	m.engagementRepo.On("SetState", mock.Anything, edge, true).Return(true, nil)
	m.setCache.On("MarkEngaged", mock.Anything, edge).Return(true, nil)
	m.reconciler.On("Apply", mock.Anything, int64(7), domain.CounterLikes, int64(1)).Return(int64(6), nil)
	m.worker.On("Touch", int64(7), domain.CounterLikes).Return()
	m.postRepo.On("GetByID", mock.Anything, int64(7)).Return(domain.Post{ID: 7, User: domain.User{ID: 9}}, nil)
	m.dispatcher.On("Dispatch", mock.MatchedBy(func(n domain.Notification) bool {
		return n.RecipientID == 9 && n.ActorID == 42 && n.Type == domain.NotifyLike && n.TargetID == 7
	})).Return()

	res, err := svc.SetState(ctx, 42, 7, domain.KindLike, true)
	require.NoError(t, err)
	assert.True(t, res.On)
	assert.Equal(t, int64(6), res.Count)

	m.reconciler.AssertExpectations(t)
	m.dispatcher.AssertExpectations(t)
	m.worker.AssertExpectations(t)
}

func TestSetState_RepeatIsNoOp(t *testing.T) {
	svc, m := newServiceWithMocks()
	ctx := context.Background()
	edge := domain.EngagementEdge{PostID: 7, UserID: 42, Kind: domain.KindLike}

	m.bloomRepo.On("Exists", mock.Anything, int64(7)).Return(true, nil)
	m.engagementRepo.On("SetState", mock.Anything, edge, true).Return(false, nil)
	m.postRepo.On("GetByID", mock.Anything, int64(7)).Return(domain.Post{ID: 7, LikesCount: 6}, nil)

	res, err := svc.SetState(ctx, 42, 7, domain.KindLike, true)
	require.NoError(t, err)
	assert.True(t, res.On)
	assert.Equal(t, int64(6), res.Count)

	// no counter movement and no second notification on the repeat
	m.reconciler.AssertNotCalled(t, "Apply", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	m.dispatcher.AssertNotCalled(t, "Dispatch", mock.Anything)
}

func TestSetState_OffMovesCounterDown(t *testing.T) {
	svc, m := newServiceWithMocks()
	ctx := context.Background()
	edge := domain.EngagementEdge{PostID: 7, UserID: 42, Kind: domain.KindRepost}

	m.bloomRepo.On("Exists", mock.Anything, int64(7)).Return(true, nil)
	m.engagementRepo.On("SetState", mock.Anything, edge, false).Return(true, nil)
	m.setCache.On("ClearEngaged", mock.Anything, edge).Return(true, nil)
	m.reconciler.On("Apply", mock.Anything, int64(7), domain.CounterReposts, int64(-1)).Return(int64(0), nil)
	m.worker.On("Touch", int64(7), domain.CounterReposts).Return()

	res, err := svc.SetState(ctx, 42, 7, domain.KindRepost, false)
	require.NoError(t, err)
	assert.False(t, res.On)
	assert.Equal(t, int64(0), res.Count)

	// turning an edge off never notifies
	m.dispatcher.AssertNotCalled(t, "Dispatch", mock.Anything)
}

func TestSetState_BloomRejectsUnknownPost(t *testing.T) {
	svc, m := newServiceWithMocks()

	m.bloomRepo.On("Exists", mock.Anything, int64(404)).Return(false, nil)

	_, err := svc.SetState(context.Background(), 42, 404, domain.KindLike, true)
	assert.ErrorIs(t, err, domain.ErrInvalidTarget)
	m.engagementRepo.AssertNotCalled(t, "SetState", mock.Anything, mock.Anything, mock.Anything)
}

func TestSetState_InvalidKind(t *testing.T) {
	svc, _ := newServiceWithMocks()

	_, err := svc.SetState(context.Background(), 42, 7, domain.EngagementKind("wave"), true)
	assert.ErrorIs(t, err, domain.ErrBadParamInput)
}

func TestToggle_OffDoesNotNotify(t *testing.T) {
	svc, m := newServiceWithMocks()
	ctx := context.Background()
	edge := domain.EngagementEdge{PostID: 7, UserID: 42, Kind: domain.KindLike}

	m.bloomRepo.On("Exists", mock.Anything, int64(7)).Return(true, nil)
	m.engagementRepo.On("Toggle", mock.Anything, edge).Return(false, nil)
	m.setCache.On("ClearEngaged", mock.Anything, edge).Return(true, nil)
	m.reconciler.On("Apply", mock.Anything, int64(7), domain.CounterLikes, int64(-1)).Return(int64(5), nil)
	m.worker.On("Touch", int64(7), domain.CounterLikes).Return()

	res, err := svc.Toggle(ctx, 42, 7, domain.KindLike)
	require.NoError(t, err)
	assert.False(t, res.On)
	assert.Equal(t, int64(5), res.Count)
	m.dispatcher.AssertNotCalled(t, "Dispatch", mock.Anything)
}

func TestSetState_BookmarkCountsLiveAndStaysPrivate(t *testing.T) {
	svc, m := newServiceWithMocks()
	ctx := context.Background()
	edge := domain.EngagementEdge{PostID: 7, UserID: 42, Kind: domain.KindBookmark}

	m.bloomRepo.On("Exists", mock.Anything, int64(7)).Return(true, nil)
	m.engagementRepo.On("SetState", mock.Anything, edge, true).Return(true, nil)
	m.setCache.On("MarkEngaged", mock.Anything, edge).Return(true, nil)
	m.engagementRepo.On("CountEdges", mock.Anything, int64(7), domain.KindBookmark).Return(int64(3), nil)
	m.postRepo.On("GetByID", mock.Anything, int64(7)).Return(domain.Post{ID: 7, User: domain.User{ID: 9}}, nil)

	res, err := svc.SetState(ctx, 42, 7, domain.KindBookmark, true)
	require.NoError(t, err)
	assert.True(t, res.On)
	assert.Equal(t, int64(3), res.Count)

	// bookmarks move no denormalized counter and emit no notification
	m.reconciler.AssertNotCalled(t, "Apply", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	m.dispatcher.AssertNotCalled(t, "Dispatch", mock.Anything)
}

func TestSetState_CounterFailureServesStaleReadAndSchedulesSweep(t *testing.T) {
	svc, m := newServiceWithMocks()
	ctx := context.Background()
	edge := domain.EngagementEdge{PostID: 7, UserID: 42, Kind: domain.KindLike}

	m.bloomRepo.On("Exists", mock.Anything, int64(7)).Return(true, nil)
	m.engagementRepo.On("SetState", mock.Anything, edge, true).Return(true, nil)
	m.setCache.On("MarkEngaged", mock.Anything, edge).Return(true, nil)
	m.reconciler.On("Apply", mock.Anything, int64(7), domain.CounterLikes, int64(1)).Return(int64(0), domain.ErrTransient)
	m.worker.On("Touch", int64(7), domain.CounterLikes).Return()
	m.postRepo.On("GetByID", mock.Anything, int64(7)).Return(domain.Post{ID: 7, LikesCount: 5, User: domain.User{ID: 9}}, nil)
	m.dispatcher.On("Dispatch", mock.Anything).Return()

	res, err := svc.SetState(ctx, 42, 7, domain.KindLike, true)
	require.NoError(t, err)
	assert.True(t, res.On)
	assert.Equal(t, int64(5), res.Count)

	// the edge committed but the counter didn't move; only a touched key
	// gets recounted by the sweep, so the touch must still happen here
	m.worker.AssertCalled(t, "Touch", int64(7), domain.CounterLikes)
}

func TestSetState_ColdSetCacheBackfillsFromRepo(t *testing.T) {
	svc, m := newServiceWithMocks()
	ctx := context.Background()
	edge := domain.EngagementEdge{PostID: 7, UserID: 42, Kind: domain.KindLike}

	m.bloomRepo.On("Exists", mock.Anything, int64(7)).Return(true, nil)
	m.engagementRepo.On("SetState", mock.Anything, edge, true).Return(true, nil)
	m.setCache.On("MarkEngaged", mock.Anything, edge).Return(false, domain.ErrCacheMiss).Once()
	m.engagementRepo.On("FetchEngagedTargets", mock.Anything, int64(42), domain.KindLike, int64(domain.EngagedSetLimit)).Return([]int64{7, 3}, nil)
	m.setCache.On("SetEngagedTargets", mock.Anything, int64(42), domain.KindLike, []int64{7, 3}).Return(nil)
	m.setCache.On("MarkEngaged", mock.Anything, edge).Return(true, nil).Once()
	m.reconciler.On("Apply", mock.Anything, int64(7), domain.CounterLikes, int64(1)).Return(int64(6), nil)
	m.worker.On("Touch", int64(7), domain.CounterLikes).Return()
	m.postRepo.On("GetByID", mock.Anything, int64(7)).Return(domain.Post{ID: 7, User: domain.User{ID: 9}}, nil)
	m.dispatcher.On("Dispatch", mock.Anything).Return()

	_, err := svc.SetState(ctx, 42, 7, domain.KindLike, true)
	require.NoError(t, err)
	m.setCache.AssertExpectations(t)
}

func TestSummary_CollectsViewerStateAndBuffersView(t *testing.T) {
	svc, m := newServiceWithMocks()
	ctx := context.Background()

	m.bloomRepo.On("Exists", mock.Anything, int64(7)).Return(true, nil)
	m.postRepo.On("GetByID", mock.Anything, int64(7)).Return(domain.Post{ID: 7, LikesCount: 6, ViewsCount: 100}, nil)
	m.postCache.On("IncrViews", mock.Anything, int64(7)).Return(int64(2), nil)

	for kind, engaged := range map[domain.EngagementKind]bool{
		domain.KindLike:     true,
		domain.KindRepost:   false,
		domain.KindBookmark: false,
	} {
		edge := domain.EngagementEdge{PostID: 7, UserID: 42, Kind: kind}
		m.setCache.On("IsEngaged", mock.Anything, edge).Return(engaged, nil)
	}

	summary, err := svc.Summary(ctx, 42, 7)
	require.NoError(t, err)
	assert.Equal(t, int64(102), summary.Post.ViewsCount) // stored + buffered
	assert.True(t, summary.Viewer[domain.KindLike])
	assert.False(t, summary.Viewer[domain.KindRepost])
	assert.False(t, summary.Viewer[domain.KindBookmark])
}

func TestInitBloomFilter_PagesUntilEmpty(t *testing.T) {
	svc, m := newServiceWithMocks()
	ctx := context.Background()

	m.postRepo.On("FetchIDs", mock.Anything, int64(0), int64(1000)).Return([]int64{1, 2, 3}, nil)
	m.bloomRepo.On("BulkAdd", mock.Anything, []int64{1, 2, 3}).Return(nil)
	m.postRepo.On("FetchIDs", mock.Anything, int64(3), int64(1000)).Return([]int64{}, nil)

	require.NoError(t, svc.InitBloomFilter(ctx))
	m.bloomRepo.AssertExpectations(t)
}
