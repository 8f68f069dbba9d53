package database

import (
	"context"
	"errors"
	"fmt"

	"pokedex-server/shared/interfaces"
	"pokedex-server/shared/models"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// Compile-time check to ensure pgFeedRepository implements FeedRepository
var _ interfaces.FeedRepository = (*pgFeedRepository)(nil)

const (
	insertPostQuery = `
		INSERT INTO feed_posts (id, author_id, author_name, pokemon_name, image_url, caption, created_at, likes_count)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), 0)
		RETURNING created_at`

	selectPostQuery = `
		SELECT id, author_id, author_name, pokemon_name, image_url, caption, created_at, likes_count
		FROM feed_posts
		WHERE id = $1`

	listPostsQuery = `
		SELECT id, author_id, author_name, pokemon_name, image_url, caption, created_at, likes_count
		FROM feed_posts
		ORDER BY created_at DESC
		LIMIT $1`

	// Атомарный инкремент счетчика лайков. Чтение и запись - одна неделимая
	// операция на стороне БД, поэтому конкурентные инкременты не теряются.
	incrementLikesQuery = `
		UPDATE feed_posts SET likes_count = likes_count + 1
		WHERE id = $1
		RETURNING likes_count`

	insertCommentQuery = `
		INSERT INTO feed_comments (id, post_id, author_name, text, created_at)
		VALUES ($1, $2, $3, $4, NOW())
		RETURNING created_at`

	// Порядок комментариев: серверный timestamp, при равенстве - id.
	// Детерминированно при конкурентных вставках.
	listCommentsQuery = `
		SELECT id, post_id, author_name, text, created_at
		FROM feed_comments
		WHERE post_id = $1
		ORDER BY created_at ASC, id ASC`
)

type pgFeedRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

// NewPgFeedRepository creates a new PostgreSQL-backed FeedRepository.
func NewPgFeedRepository(db *pgxpool.Pool, logger *zap.Logger) interfaces.FeedRepository {
	return &pgFeedRepository{
		db:     db,
		logger: logger.Named("PgFeedRepo"),
	}
}

// CreatePost вставляет новый пост. ID генерирует вызывающий код,
// created_at назначает БД.
func (r *pgFeedRepository) CreatePost(ctx context.Context, post *models.FeedPost) error {
	logFields := []zap.Field{
		zap.String("postID", post.ID.String()),
		zap.String("authorID", post.AuthorID.String()),
	}
	err := r.db.QueryRow(ctx, insertPostQuery,
		post.ID, post.AuthorID, post.AuthorName, post.PokemonName, post.ImageURL, post.Caption,
	).Scan(&post.CreatedAt)
	if err != nil {
		r.logger.Error("Failed to insert feed post", append(logFields, zap.Error(err))...)
		return fmt.Errorf("%w: insert post: %v", models.ErrPersistence, err)
	}
	r.logger.Info("Feed post created", logFields...)
	return nil
}

// GetPost возвращает пост вместе с комментариями.
func (r *pgFeedRepository) GetPost(ctx context.Context, postID uuid.UUID) (*models.FeedPost, error) {
	var post models.FeedPost
	err := r.db.QueryRow(ctx, selectPostQuery, postID).Scan(
		&post.ID, &post.AuthorID, &post.AuthorName, &post.PokemonName,
		&post.ImageURL, &post.Caption, &post.CreatedAt, &post.LikesCount,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		r.logger.Error("Failed to select feed post", zap.String("postID", postID.String()), zap.Error(err))
		return nil, fmt.Errorf("%w: select post: %v", models.ErrPersistence, err)
	}

	if err := pgxscan.Select(ctx, r.db, &post.Comments, listCommentsQuery, postID); err != nil {
		r.logger.Error("Failed to select post comments", zap.String("postID", postID.String()), zap.Error(err))
		return nil, fmt.Errorf("%w: select comments: %v", models.ErrPersistence, err)
	}

	return &post, nil
}

// ListPosts возвращает последние limit постов, новые первыми, без комментариев.
func (r *pgFeedRepository) ListPosts(ctx context.Context, limit int) ([]models.FeedPost, error) {
	var posts []models.FeedPost
	if err := pgxscan.Select(ctx, r.db, &posts, listPostsQuery, limit); err != nil {
		r.logger.Error("Failed to list feed posts", zap.Error(err))
		return nil, fmt.Errorf("%w: list posts: %v", models.ErrPersistence, err)
	}
	r.logger.Debug("Feed posts listed", zap.Int("count", len(posts)))
	return posts, nil
}

// IncrementLikes атомарно увеличивает счетчик лайков и возвращает новое значение.
// Клиентский снапшот likes_count здесь не участвует принципиально.
func (r *pgFeedRepository) IncrementLikes(ctx context.Context, postID uuid.UUID) (int64, error) {
	var newCount int64
	err := r.db.QueryRow(ctx, incrementLikesQuery, postID).Scan(&newCount)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Warn("Post not found for like increment", zap.String("postID", postID.String()))
			return 0, models.ErrNotFound
		}
		r.logger.Error("Failed to increment likes count", zap.String("postID", postID.String()), zap.Error(err))
		return 0, fmt.Errorf("%w: increment likes: %v", models.ErrPersistence, err)
	}
	r.logger.Debug("Likes count incremented", zap.String("postID", postID.String()), zap.Int64("newCount", newCount))
	return newCount, nil
}

// AddComment вставляет комментарий со сгенерированным id и серверным timestamp.
func (r *pgFeedRepository) AddComment(ctx context.Context, postID uuid.UUID, authorName, text string) (*models.FeedComment, error) {
	comment := &models.FeedComment{
		ID:         uuid.New(),
		PostID:     postID,
		AuthorName: authorName,
		Text:       text,
	}
	err := r.db.QueryRow(ctx, insertCommentQuery, comment.ID, postID, authorName, text).Scan(&comment.CreatedAt)
	if err != nil {
		// FK violation означает, что поста нет
		if isForeignKeyViolation(err) {
			return nil, models.ErrNotFound
		}
		r.logger.Error("Failed to insert comment", zap.String("postID", postID.String()), zap.Error(err))
		return nil, fmt.Errorf("%w: insert comment: %v", models.ErrPersistence, err)
	}
	r.logger.Info("Comment added",
		zap.String("postID", postID.String()),
		zap.String("commentID", comment.ID.String()),
	)
	return comment, nil
}
