package models

import (
	"time"

	"github.com/google/uuid"
)

// FeedPost - пост в общей ленте. Счетчик лайков мутируется ТОЛЬКО атомарным
// инкрементом на стороне хранилища, никогда через read-modify-write снапшота.
type FeedPost struct {
	ID          uuid.UUID     `json:"id" db:"id"`
	AuthorID    uuid.UUID     `json:"author_id" db:"author_id"`
	AuthorName  string        `json:"author_name" db:"author_name"`
	PokemonName string        `json:"pokemon_name" db:"pokemon_name"`
	ImageURL    string        `json:"image_url" db:"image_url"`
	Caption     string        `json:"caption" db:"caption"`
	CreatedAt   time.Time     `json:"created_at" db:"created_at"`
	LikesCount  int64         `json:"likes_count" db:"likes_count"`
	Comments    []FeedComment `json:"comments,omitempty" db:"-"`
}

// FeedComment - комментарий к посту. Только добавление: комментарии не
// редактируются и не удаляются. Timestamp назначает сервер БД, порядок -
// (created_at, id).
type FeedComment struct {
	ID         uuid.UUID `json:"id" db:"id"`
	PostID     uuid.UUID `json:"post_id" db:"post_id"`
	AuthorName string    `json:"author_name" db:"author_name"`
	Text       string    `json:"text" db:"text"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}
