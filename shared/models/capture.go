package models

import "time"

// CaptureRecord - факт поимки покемона пользователем.
// Хранится в PostgreSQL с первичным ключом (user_id, pokemon_id):
// повторная поимка того же покемона - no-op, а не ошибка.
type CaptureRecord struct {
	PokemonID  int       `json:"pokemon_id" db:"pokemon_id"`
	Name       string    `json:"name" db:"name"`
	ImageURL   string    `json:"image_url" db:"image_url"`
	Types      []string  `json:"types" db:"types"`
	Weight     float64   `json:"weight" db:"weight"`
	Height     float64   `json:"height" db:"height"`
	CapturedAt time.Time `json:"captured_at" db:"captured_at"`
}
