package handler

import (
	"errors"
	"net/http"
	"strconv"

	"pokedex-server/game-service/internal/repository"
	"pokedex-server/game-service/internal/service"
	"pokedex-server/shared/authutils"
	sharedMiddleware "pokedex-server/shared/middleware"
	"pokedex-server/shared/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// GameHandler обрабатывает HTTP запросы game сервиса: каталог, встречи, коллекция.
type GameHandler struct {
	catalog    repository.CatalogRepository
	encounters service.EncounterService
	logger     *zap.Logger
	verifier   *authutils.JWTVerifier
}

// NewGameHandler создает новый GameHandler.
func NewGameHandler(
	catalog repository.CatalogRepository,
	encounters service.EncounterService,
	logger *zap.Logger,
	jwtSecret string,
) *GameHandler {
	verifier, err := authutils.NewJWTVerifier(jwtSecret, logger)
	if err != nil {
		logger.Fatal("Failed to create JWT Verifier", zap.Error(err))
	}
	return &GameHandler{
		catalog:    catalog,
		encounters: encounters,
		logger:     logger.Named("GameHandler"),
		verifier:   verifier,
	}
}

// RegisterRoutes регистрирует маршруты game сервиса.
// rateLimitMiddleware применяется только к мутирующим encounter операциям.
func (h *GameHandler) RegisterRoutes(router *gin.Engine, rateLimitMiddleware gin.HandlerFunc) {
	authMiddleware := sharedMiddleware.GinAuthMiddleware(h.verifier.VerifyToken, h.logger)

	api := router.Group("/api", authMiddleware)
	{
		api.GET("/catalog", h.getCatalog)
		api.GET("/catalog/:id", h.getCatalogDetail)

		api.POST("/encounter/spawn", rateLimitMiddleware, h.spawnEncounter)
		api.POST("/encounter/capture", rateLimitMiddleware, h.attemptCapture)
		api.GET("/encounter", h.getEncounter)
		api.DELETE("/encounter", h.endEncounter)

		api.GET("/captures", h.listCaptures)
	}
}

// userIDFromRequest извлекает userID, положенный auth middleware в контекст.
func (h *GameHandler) userIDFromRequest(c *gin.Context) (uuid.UUID, bool) {
	userID, ok := models.GetUserIDFromContext(c.Request.Context())
	if !ok {
		h.logger.Error("UserID missing from authorized request context", zap.String("path", c.Request.URL.Path))
		c.AbortWithStatusJSON(http.StatusUnauthorized, models.ErrorResponse{
			Code: models.ErrCodeUnauthorized, Message: "Unauthorized",
		})
	}
	return userID, ok
}

// handleServiceError транслирует ошибки доменной таксономии в HTTP ответ.
func (h *GameHandler) handleServiceError(c *gin.Context, err error) {
	var statusCode int
	var resp models.ErrorResponse

	switch {
	case errors.Is(err, models.ErrBadRequest):
		statusCode = http.StatusBadRequest
		resp = models.ErrorResponse{Code: models.ErrCodeBadRequest, Message: err.Error()}
	case errors.Is(err, models.ErrNotFound):
		statusCode = http.StatusNotFound
		resp = models.ErrorResponse{Code: models.ErrCodeNotFound, Message: "Resource not found"}
	case errors.Is(err, models.ErrEmptyCatalog):
		statusCode = http.StatusServiceUnavailable
		resp = models.ErrorResponse{Code: models.ErrCodeEmptyCatalog, Message: "Catalog is empty"}
	case errors.Is(err, models.ErrNetworkUnavailable):
		statusCode = http.StatusServiceUnavailable
		resp = models.ErrorResponse{Code: models.ErrCodeCatalogOffline, Message: "Catalog source is unavailable"}
	case errors.Is(err, models.ErrNoActiveEncounter):
		statusCode = http.StatusNotFound
		resp = models.ErrorResponse{Code: models.ErrCodeNoEncounter, Message: "No active encounter"}
	case errors.Is(err, models.ErrTargetFled):
		statusCode = http.StatusGone
		resp = models.ErrorResponse{Code: models.ErrCodeTargetGone, Message: "The target has fled"}
	case errors.Is(err, models.ErrPersistence):
		statusCode = http.StatusInternalServerError
		resp = models.ErrorResponse{Code: models.ErrCodeCaptureFailed, Message: "Could not persist the result, try again"}
	default:
		h.logger.Error("Unhandled service error", zap.Error(err))
		statusCode = http.StatusInternalServerError
		resp = models.ErrorResponse{Code: models.ErrCodeInternal, Message: "Internal server error"}
	}
	c.JSON(statusCode, resp)
}

// --- Обработчики каталога --- //

func (h *GameHandler) getCatalog(c *gin.Context) {
	summaries, err := h.catalog.GetSummaryList(c.Request.Context())
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, summaries)
}

func (h *GameHandler) getCatalogDetail(c *gin.Context) {
	idStr := c.Param("id")
	id, err := strconv.Atoi(idStr)
	if err != nil || id < 1 {
		h.logger.Warn("Invalid catalog ID format", zap.String("id", idStr))
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Code: models.ErrCodeBadRequest, Message: "Invalid catalog ID",
		})
		return
	}

	detail, err := h.catalog.GetDetail(c.Request.Context(), id)
	if err != nil {
		if !errors.Is(err, models.ErrNotFound) && !errors.Is(err, models.ErrNetworkUnavailable) {
			h.logger.Error("Error getting catalog detail", zap.Int("pokemonID", id), zap.Error(err))
		}
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

// --- Обработчики встреч --- //

type spawnEncounterRequest struct {
	// Конкретная цель; nil - случайный выбор из каталога
	PokemonID *int `json:"pokemon_id"`
}

func (h *GameHandler) spawnEncounter(c *gin.Context) {
	userID, ok := h.userIDFromRequest(c)
	if !ok {
		return
	}

	var req spawnEncounterRequest
	// Тело опционально: spawn без тела - случайная встреча
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Code: models.ErrCodeBadRequest, Message: "Invalid request body: " + err.Error(),
			})
			return
		}
	}

	session, err := h.encounters.Spawn(c.Request.Context(), userID, req.PokemonID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, session)
}

func (h *GameHandler) attemptCapture(c *gin.Context) {
	userID, ok := h.userIDFromRequest(c)
	if !ok {
		return
	}

	session, err := h.encounters.AttemptCapture(c.Request.Context(), userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

func (h *GameHandler) getEncounter(c *gin.Context) {
	userID, ok := h.userIDFromRequest(c)
	if !ok {
		return
	}

	session, err := h.encounters.CurrentSession(userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

func (h *GameHandler) endEncounter(c *gin.Context) {
	userID, ok := h.userIDFromRequest(c)
	if !ok {
		return
	}

	h.encounters.EndSession(userID)
	c.Status(http.StatusNoContent)
}

// --- Коллекция --- //

func (h *GameHandler) listCaptures(c *gin.Context) {
	userID, ok := h.userIDFromRequest(c)
	if !ok {
		return
	}

	records, err := h.encounters.ListCaptures(c.Request.Context(), userID)
	if err != nil {
		h.logger.Error("Error listing captures", zap.String("userID", userID.String()), zap.Error(err))
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, records)
}
