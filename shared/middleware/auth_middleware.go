package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"pokedex-server/shared/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// TokenVerifier определяет функцию, которая проверяет строку токена и возвращает claims.
// Ошибки могут быть models.ErrTokenInvalid, models.ErrTokenExpired, models.ErrTokenMalformed.
type TokenVerifier func(ctx context.Context, tokenString string) (*models.Claims, error)

// GinAuthMiddleware создает Gin middleware для проверки JWT.
// Извлекает токен из заголовка Authorization, верифицирует его предоставленным
// verifier и кладет UserID/TrainerName в контекст запроса.
func GinAuthMiddleware(verifier TokenVerifier, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		log := logger.With(zap.String("path", c.Request.URL.Path))

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			log.Warn("Authorization header missing")
			c.AbortWithStatusJSON(http.StatusUnauthorized, models.ErrorResponse{
				Code: models.ErrCodeUnauthorized, Message: "Missing token",
			})
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			log.Warn("Malformed Authorization header")
			c.AbortWithStatusJSON(http.StatusUnauthorized, models.ErrorResponse{
				Code: models.ErrCodeUnauthorized, Message: "Malformed token header",
			})
			return
		}
		tokenString := parts[1]

		claims, err := verifier(c.Request.Context(), tokenString)
		if err != nil {
			code := models.ErrCodeTokenInvalid
			msg := "Token is invalid"
			status := http.StatusUnauthorized
			switch {
			case errors.Is(err, models.ErrTokenExpired):
				code = models.ErrCodeTokenExpired
				msg = "Token has expired"
			case errors.Is(err, models.ErrTokenMalformed), errors.Is(err, models.ErrTokenInvalid):
				// Одинаковое сообщение для невалидного и некорректного формата
			default:
				log.Error("Unexpected token verification error", zap.Error(err))
				status = http.StatusInternalServerError
				code = models.ErrCodeInternal
				msg = "Internal error during token verification"
			}
			c.AbortWithStatusJSON(status, models.ErrorResponse{Code: code, Message: msg})
			return
		}

		// Кладем информацию о пользователе в контекст запроса
		ctx := context.WithValue(c.Request.Context(), models.UserContextKey, claims.UserID)
		ctx = context.WithValue(ctx, models.TrainerNameContextKey, claims.TrainerName)
		c.Request = c.Request.WithContext(ctx)

		log.Debug("User authorized", zap.String("userID", claims.UserID.String()))
		c.Next()
	}
}
