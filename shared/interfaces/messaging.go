package interfaces

import (
	"context"

	"pokedex-server/shared/models"
)

// FeedUpdatePublisher публикует свежий полный снапшот поста после каждой
// успешной мутации (лайк, комментарий, создание). Подписчики (websocket-хаб)
// рассылают снапшот всем подключенным клиентам.
type FeedUpdatePublisher interface {
	PublishPostUpdate(ctx context.Context, post *models.FeedPost) error
}
