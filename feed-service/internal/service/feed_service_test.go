package service_test

import (
	"context"
	"sync"
	"testing"

	"pokedex-server/feed-service/internal/service"
	sharedMocks "pokedex-server/shared/interfaces/mocks"
	"pokedex-server/shared/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeAtomicFeedRepo - in-memory хранилище с той же гарантией атомарности
// инкремента, что и у PostgreSQL: счетчик меняется только под блокировкой,
// никакого read-modify-write со стороны вызывающего.
type fakeAtomicFeedRepo struct {
	mu       sync.Mutex
	posts    map[uuid.UUID]*models.FeedPost
	comments map[uuid.UUID][]models.FeedComment
}

func newFakeAtomicFeedRepo() *fakeAtomicFeedRepo {
	return &fakeAtomicFeedRepo{
		posts:    make(map[uuid.UUID]*models.FeedPost),
		comments: make(map[uuid.UUID][]models.FeedComment),
	}
}

func (f *fakeAtomicFeedRepo) CreatePost(_ context.Context, post *models.FeedPost) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored := *post
	f.posts[post.ID] = &stored
	return nil
}

func (f *fakeAtomicFeedRepo) GetPost(_ context.Context, postID uuid.UUID) (*models.FeedPost, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	post, ok := f.posts[postID]
	if !ok {
		return nil, models.ErrNotFound
	}
	snapshot := *post
	snapshot.Comments = append([]models.FeedComment(nil), f.comments[postID]...)
	return &snapshot, nil
}

func (f *fakeAtomicFeedRepo) ListPosts(_ context.Context, limit int) ([]models.FeedPost, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	posts := make([]models.FeedPost, 0, len(f.posts))
	for _, p := range f.posts {
		posts = append(posts, *p)
	}
	if len(posts) > limit {
		posts = posts[:limit]
	}
	return posts, nil
}

func (f *fakeAtomicFeedRepo) IncrementLikes(_ context.Context, postID uuid.UUID) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	post, ok := f.posts[postID]
	if !ok {
		return 0, models.ErrNotFound
	}
	post.LikesCount++
	return post.LikesCount, nil
}

func (f *fakeAtomicFeedRepo) AddComment(_ context.Context, postID uuid.UUID, authorName, text string) (*models.FeedComment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.posts[postID]; !ok {
		return nil, models.ErrNotFound
	}
	comment := models.FeedComment{ID: uuid.New(), PostID: postID, AuthorName: authorName, Text: text}
	f.comments[postID] = append(f.comments[postID], comment)
	return &comment, nil
}

// TestLikePost tests the like counter contract
func TestLikePost(t *testing.T) {
	ctx := context.Background()

	t.Run("Concurrent likes are never lost", func(t *testing.T) {
		repo := newFakeAtomicFeedRepo()
		svc := service.NewFeedService(repo, nil, 50, zap.NewNop())

		post, err := svc.CreatePost(ctx, uuid.New(), "ash", "pikachu", "", "gotcha")
		require.NoError(t, err)

		// Начальное значение C
		for i := 0; i < 3; i++ {
			_, err := svc.LikePost(ctx, post.ID)
			require.NoError(t, err)
		}

		const n = 100
		var wg sync.WaitGroup
		wg.Add(n)
		for i := 0; i < n; i++ {
			go func() {
				defer wg.Done()
				_, err := svc.LikePost(ctx, post.ID)
				assert.NoError(t, err)
			}()
		}
		wg.Wait()

		got, err := svc.GetPost(ctx, post.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(3+n), got.LikesCount)
	})

	t.Run("Like publishes the fresh snapshot", func(t *testing.T) {
		postID := uuid.New()
		snapshot := &models.FeedPost{ID: postID, LikesCount: 8}

		mockRepo := new(sharedMocks.FeedRepository)
		mockPublisher := new(sharedMocks.FeedUpdatePublisher)
		mockRepo.On("IncrementLikes", ctx, postID).Return(int64(8), nil).Once()
		mockRepo.On("GetPost", ctx, postID).Return(snapshot, nil).Once()
		mockPublisher.On("PublishPostUpdate", ctx, snapshot).Return(nil).Once()

		svc := service.NewFeedService(mockRepo, mockPublisher, 50, zap.NewNop())
		got, err := svc.LikePost(ctx, postID)

		require.NoError(t, err)
		assert.Equal(t, int64(8), got.LikesCount)
		mockRepo.AssertExpectations(t)
		mockPublisher.AssertExpectations(t)
	})

	t.Run("Unknown post", func(t *testing.T) {
		mockRepo := new(sharedMocks.FeedRepository)
		postID := uuid.New()
		mockRepo.On("IncrementLikes", ctx, postID).Return(int64(0), models.ErrNotFound).Once()

		svc := service.NewFeedService(mockRepo, nil, 50, zap.NewNop())
		got, err := svc.LikePost(ctx, postID)

		assert.Nil(t, got)
		assert.ErrorIs(t, err, models.ErrNotFound)
	})

	t.Run("Publish failure does not fail the like", func(t *testing.T) {
		postID := uuid.New()
		snapshot := &models.FeedPost{ID: postID, LikesCount: 1}

		mockRepo := new(sharedMocks.FeedRepository)
		mockPublisher := new(sharedMocks.FeedUpdatePublisher)
		mockRepo.On("IncrementLikes", ctx, postID).Return(int64(1), nil).Once()
		mockRepo.On("GetPost", ctx, postID).Return(snapshot, nil).Once()
		mockPublisher.On("PublishPostUpdate", ctx, snapshot).Return(models.ErrNetworkUnavailable).Once()

		svc := service.NewFeedService(mockRepo, mockPublisher, 50, zap.NewNop())
		got, err := svc.LikePost(ctx, postID)

		require.NoError(t, err)
		assert.Equal(t, int64(1), got.LikesCount)
	})
}

// TestAddComment tests the append-only comment contract
func TestAddComment(t *testing.T) {
	ctx := context.Background()

	t.Run("Comment appends and publishes the snapshot", func(t *testing.T) {
		repo := newFakeAtomicFeedRepo()
		mockPublisher := new(sharedMocks.FeedUpdatePublisher)
		mockPublisher.On("PublishPostUpdate", ctx, mock.Anything).Return(nil)

		svc := service.NewFeedService(repo, mockPublisher, 50, zap.NewNop())
		post, err := svc.CreatePost(ctx, uuid.New(), "ash", "pikachu", "", "")
		require.NoError(t, err)

		got, err := svc.AddComment(ctx, post.ID, "misty", "nice catch!")
		require.NoError(t, err)
		require.Len(t, got.Comments, 1)
		assert.Equal(t, "misty", got.Comments[0].AuthorName)
		assert.Equal(t, "nice catch!", got.Comments[0].Text)

		got, err = svc.AddComment(ctx, post.ID, "brock", "congrats")
		require.NoError(t, err)
		require.Len(t, got.Comments, 2)
		// Только добавление: первый комментарий остался нетронутым
		assert.Equal(t, "misty", got.Comments[0].AuthorName)
	})

	t.Run("Empty comment text", func(t *testing.T) {
		svc := service.NewFeedService(newFakeAtomicFeedRepo(), nil, 50, zap.NewNop())
		got, err := svc.AddComment(ctx, uuid.New(), "misty", "   ")
		assert.Nil(t, got)
		assert.ErrorIs(t, err, models.ErrBadRequest)
	})

	t.Run("Comment on unknown post", func(t *testing.T) {
		svc := service.NewFeedService(newFakeAtomicFeedRepo(), nil, 50, zap.NewNop())
		got, err := svc.AddComment(ctx, uuid.New(), "misty", "hello")
		assert.Nil(t, got)
		assert.ErrorIs(t, err, models.ErrNotFound)
	})
}

// TestCreatePost tests post creation validation
func TestCreatePost(t *testing.T) {
	ctx := context.Background()

	t.Run("Missing pokemon name", func(t *testing.T) {
		svc := service.NewFeedService(newFakeAtomicFeedRepo(), nil, 50, zap.NewNop())
		got, err := svc.CreatePost(ctx, uuid.New(), "ash", "  ", "", "")
		assert.Nil(t, got)
		assert.ErrorIs(t, err, models.ErrBadRequest)
	})

	t.Run("Created post appears in the list", func(t *testing.T) {
		svc := service.NewFeedService(newFakeAtomicFeedRepo(), nil, 50, zap.NewNop())
		post, err := svc.CreatePost(ctx, uuid.New(), "ash", "pikachu", "https://img.example/25.png", "gotcha")
		require.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, post.ID)

		posts, err := svc.ListPosts(ctx)
		require.NoError(t, err)
		require.Len(t, posts, 1)
		assert.Equal(t, post.ID, posts[0].ID)
	})
}
