package models

import (
	"time"

	"github.com/google/uuid"
)

// EncounterSession - текущая встреча пользователя с покемоном.
// У одного пользователя в один момент времени не больше одной активной сессии;
// новый спаун полностью заменяет предыдущую.
type EncounterSession struct {
	// Token идентифицирует конкретную сессию. Колбэк flee-таймера сверяет токен
	// и молча завершается, если сессия уже заменена или закрыта.
	Token     uuid.UUID `json:"token"`
	PokemonID int       `json:"pokemon_id"`
	Name      string    `json:"name"`
	ImageURL  string    `json:"image_url"`
	Types     []string  `json:"types"`
	SpawnedAt time.Time `json:"spawned_at"`
	// AlreadyCaught выставляется при спауне по членству в caught-set.
	// Пойманный покемон не убегает: flee-таймер для него не взводится.
	AlreadyCaught bool `json:"already_caught"`
}
