package interfaces

import (
	"context"

	"pokedex-server/shared/models"

	"github.com/google/uuid"
)

// FeedRepository - хранилище постов ленты.
type FeedRepository interface {
	CreatePost(ctx context.Context, post *models.FeedPost) error
	// GetPost возвращает пост вместе с комментариями (models.ErrNotFound, если нет).
	GetPost(ctx context.Context, postID uuid.UUID) (*models.FeedPost, error)
	// ListPosts возвращает последние limit постов, новые первыми, без комментариев.
	ListPosts(ctx context.Context, limit int) ([]models.FeedPost, error)
	// IncrementLikes атомарно увеличивает счетчик лайков и возвращает новое
	// значение. Контракт: N конкурентных вызовов дают ровно +N, порядок
	// применения не специфицирован.
	IncrementLikes(ctx context.Context, postID uuid.UUID) (int64, error)
	// AddComment вставляет комментарий со сгенерированным id и серверным
	// timestamp, возвращает созданную запись.
	AddComment(ctx context.Context, postID uuid.UUID, authorName, text string) (*models.FeedComment, error)
}
