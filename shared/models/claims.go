package models

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims представляет стандартные поля JWT и пользовательские данные,
// которые кладет в токен внешний auth-сервис.
type Claims struct {
	UserID               uuid.UUID `json:"user_id"`
	TrainerName          string    `json:"trainer_name"`
	jwt.RegisteredClaims           // Issuer, Subject, ExpiresAt, IssuedAt и т.д.
}
