package service

import (
	"context"
	"fmt"
	"strings"

	"pokedex-server/shared/interfaces"
	"pokedex-server/shared/models"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

var likesTotal = promauto.NewCounter(prometheus.CounterOpts{
	Name: "pokedex_feed_likes_total",
	Help: "Total number of likes applied to feed posts.",
})

const maxCaptionLength = 500

// FeedService defines the interface for the social feed.
type FeedService interface {
	// CreatePost публикует пойманного покемона в общую ленту.
	CreatePost(ctx context.Context, authorID uuid.UUID, authorName, pokemonName, imageURL, caption string) (*models.FeedPost, error)
	// ListPosts возвращает последние посты, новые первыми, без комментариев.
	ListPosts(ctx context.Context) ([]models.FeedPost, error)
	// GetPost возвращает пост вместе с комментариями.
	GetPost(ctx context.Context, postID uuid.UUID) (*models.FeedPost, error)
	// LikePost атомарно увеличивает счетчик лайков и возвращает свежий снимок поста.
	LikePost(ctx context.Context, postID uuid.UUID) (*models.FeedPost, error)
	// AddComment добавляет комментарий и возвращает свежий снимок поста.
	AddComment(ctx context.Context, postID uuid.UUID, authorName, text string) (*models.FeedPost, error)
}

// Compile-time check
var _ FeedService = (*feedService)(nil)

type feedService struct {
	repo      interfaces.FeedRepository
	publisher interfaces.FeedUpdatePublisher
	logger    *zap.Logger
	pageSize  int
}

// NewFeedService creates the feed service.
// publisher может быть nil (снимки никуда не рассылаются, например в тестах).
func NewFeedService(repo interfaces.FeedRepository, publisher interfaces.FeedUpdatePublisher, pageSize int, logger *zap.Logger) FeedService {
	if pageSize <= 0 {
		pageSize = 50
	}
	return &feedService{
		repo:      repo,
		publisher: publisher,
		logger:    logger.Named("FeedService"),
		pageSize:  pageSize,
	}
}

func (s *feedService) CreatePost(ctx context.Context, authorID uuid.UUID, authorName, pokemonName, imageURL, caption string) (*models.FeedPost, error) {
	pokemonName = strings.TrimSpace(pokemonName)
	if pokemonName == "" {
		return nil, fmt.Errorf("%w: pokemon name is required", models.ErrBadRequest)
	}
	caption = strings.TrimSpace(caption)
	if len(caption) > maxCaptionLength {
		return nil, fmt.Errorf("%w: caption exceeds %d characters", models.ErrBadRequest, maxCaptionLength)
	}

	post := &models.FeedPost{
		ID:          uuid.New(),
		AuthorID:    authorID,
		AuthorName:  authorName,
		PokemonName: pokemonName,
		ImageURL:    imageURL,
		Caption:     caption,
	}
	if err := s.repo.CreatePost(ctx, post); err != nil {
		return nil, err
	}

	s.logger.Info("Feed post published",
		zap.String("postID", post.ID.String()),
		zap.String("authorID", authorID.String()),
		zap.String("pokemonName", pokemonName))

	s.publishSnapshot(ctx, post.ID)
	return post, nil
}

func (s *feedService) ListPosts(ctx context.Context) ([]models.FeedPost, error) {
	return s.repo.ListPosts(ctx, s.pageSize)
}

func (s *feedService) GetPost(ctx context.Context, postID uuid.UUID) (*models.FeedPost, error) {
	return s.repo.GetPost(ctx, postID)
}

// LikePost применяет лайк. Вся арифметика счетчика живет в хранилище:
// сервис никогда не пишет значение, вычисленное из прочитанного снимка.
func (s *feedService) LikePost(ctx context.Context, postID uuid.UUID) (*models.FeedPost, error) {
	newCount, err := s.repo.IncrementLikes(ctx, postID)
	if err != nil {
		return nil, err
	}
	likesTotal.Inc()
	s.logger.Debug("Post liked", zap.String("postID", postID.String()), zap.Int64("likesCount", newCount))

	return s.snapshotAndPublish(ctx, postID)
}

func (s *feedService) AddComment(ctx context.Context, postID uuid.UUID, authorName, text string) (*models.FeedPost, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("%w: comment text is required", models.ErrBadRequest)
	}

	if _, err := s.repo.AddComment(ctx, postID, authorName, text); err != nil {
		return nil, err
	}
	s.logger.Debug("Comment added", zap.String("postID", postID.String()))

	return s.snapshotAndPublish(ctx, postID)
}

// snapshotAndPublish перечитывает пост после мутации и рассылает его подписчикам.
// Сама мутация уже зафиксирована: ошибка перечитывания возвращается вызывающему,
// ошибка публикации - только логируется.
func (s *feedService) snapshotAndPublish(ctx context.Context, postID uuid.UUID) (*models.FeedPost, error) {
	post, err := s.repo.GetPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, post)
	return post, nil
}

func (s *feedService) publishSnapshot(ctx context.Context, postID uuid.UUID) {
	post, err := s.repo.GetPost(ctx, postID)
	if err != nil {
		s.logger.Warn("Failed to read post snapshot for publishing", zap.String("postID", postID.String()), zap.Error(err))
		return
	}
	s.publish(ctx, post)
}

func (s *feedService) publish(ctx context.Context, post *models.FeedPost) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishPostUpdate(ctx, post); err != nil {
		s.logger.Warn("Failed to publish post snapshot", zap.String("postID", post.ID.String()), zap.Error(err))
	}
}
