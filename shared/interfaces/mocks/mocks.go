package mocks

import (
	"context"

	"pokedex-server/shared/interfaces"
	"pokedex-server/shared/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// Compile-time checks: сигнатуры моков не должны расходиться с интерфейсами
var (
	_ interfaces.CatalogCache        = (*CatalogCache)(nil)
	_ interfaces.CatalogSource       = (*CatalogSource)(nil)
	_ interfaces.CaptureRepository   = (*CaptureRepository)(nil)
	_ interfaces.FeedRepository      = (*FeedRepository)(nil)
	_ interfaces.FeedUpdatePublisher = (*FeedUpdatePublisher)(nil)
)

// Mock CatalogCache
type CatalogCache struct {
	mock.Mock
}

func (m *CatalogCache) Get(ctx context.Context, key string) ([]byte, error) {
	args := m.Called(ctx, key)
	raw, _ := args.Get(0).([]byte)
	return raw, args.Error(1)
}
func (m *CatalogCache) Set(ctx context.Context, key string, value []byte) error {
	args := m.Called(ctx, key, value)
	return args.Error(0)
}
func (m *CatalogCache) ClearNamespace(ctx context.Context, prefix string) error {
	args := m.Called(ctx, prefix)
	return args.Error(0)
}

// Mock CatalogSource
type CatalogSource struct {
	mock.Mock
}

func (m *CatalogSource) ListCatalog(ctx context.Context) ([]models.CatalogSummary, error) {
	args := m.Called(ctx)
	list, _ := args.Get(0).([]models.CatalogSummary)
	return list, args.Error(1)
}
func (m *CatalogSource) FetchDetail(ctx context.Context, id int) (*models.CatalogDetail, error) {
	args := m.Called(ctx, id)
	detail, _ := args.Get(0).(*models.CatalogDetail)
	return detail, args.Error(1)
}

// Mock CaptureRepository
type CaptureRepository struct {
	mock.Mock
}

func (m *CaptureRepository) WriteCapture(ctx context.Context, userID uuid.UUID, record models.CaptureRecord) error {
	args := m.Called(ctx, userID, record)
	return args.Error(0)
}
func (m *CaptureRepository) ListCaptures(ctx context.Context, userID uuid.UUID) ([]models.CaptureRecord, error) {
	args := m.Called(ctx, userID)
	records, _ := args.Get(0).([]models.CaptureRecord)
	return records, args.Error(1)
}
func (m *CaptureRepository) ListCapturedIDs(ctx context.Context, userID uuid.UUID) ([]int, error) {
	args := m.Called(ctx, userID)
	ids, _ := args.Get(0).([]int)
	return ids, args.Error(1)
}

// Mock FeedRepository
type FeedRepository struct {
	mock.Mock
}

func (m *FeedRepository) CreatePost(ctx context.Context, post *models.FeedPost) error {
	args := m.Called(ctx, post)
	return args.Error(0)
}
func (m *FeedRepository) GetPost(ctx context.Context, postID uuid.UUID) (*models.FeedPost, error) {
	args := m.Called(ctx, postID)
	post, _ := args.Get(0).(*models.FeedPost)
	return post, args.Error(1)
}
func (m *FeedRepository) ListPosts(ctx context.Context, limit int) ([]models.FeedPost, error) {
	args := m.Called(ctx, limit)
	posts, _ := args.Get(0).([]models.FeedPost)
	return posts, args.Error(1)
}
func (m *FeedRepository) IncrementLikes(ctx context.Context, postID uuid.UUID) (int64, error) {
	args := m.Called(ctx, postID)
	return args.Get(0).(int64), args.Error(1)
}
func (m *FeedRepository) AddComment(ctx context.Context, postID uuid.UUID, authorName, text string) (*models.FeedComment, error) {
	args := m.Called(ctx, postID, authorName, text)
	comment, _ := args.Get(0).(*models.FeedComment)
	return comment, args.Error(1)
}

// Mock FeedUpdatePublisher
type FeedUpdatePublisher struct {
	mock.Mock
}

func (m *FeedUpdatePublisher) PublishPostUpdate(ctx context.Context, post *models.FeedPost) error {
	args := m.Called(ctx, post)
	return args.Error(0)
}
