package handler

import (
	"errors"
	"net/http"

	"pokedex-server/feed-service/internal/service"
	"pokedex-server/shared/authutils"
	sharedMiddleware "pokedex-server/shared/middleware"
	"pokedex-server/shared/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// FeedHandler обрабатывает HTTP запросы feed сервиса.
type FeedHandler struct {
	service   service.FeedService
	wsHandler *WebSocketHandler
	logger    *zap.Logger
	verifier  *authutils.JWTVerifier
}

// NewFeedHandler создает новый FeedHandler.
func NewFeedHandler(s service.FeedService, wsHandler *WebSocketHandler, logger *zap.Logger, verifier *authutils.JWTVerifier) *FeedHandler {
	return &FeedHandler{
		service:   s,
		wsHandler: wsHandler,
		logger:    logger.Named("FeedHandler"),
		verifier:  verifier,
	}
}

// RegisterRoutes регистрирует маршруты feed сервиса.
func (h *FeedHandler) RegisterRoutes(router *gin.Engine) {
	authMiddleware := sharedMiddleware.GinAuthMiddleware(h.verifier.VerifyToken, h.logger)

	api := router.Group("/api", authMiddleware)
	{
		api.GET("/feed", h.listPosts)
		api.GET("/feed/:id", h.getPost)
		api.POST("/feed", h.createPost)
		api.POST("/feed/:id/like", h.likePost)
		api.POST("/feed/:id/comments", h.addComment)
	}

	// WebSocket вне auth middleware: токен приходит query-параметром
	router.GET("/ws/feed", func(c *gin.Context) {
		h.wsHandler.ServeWS(c.Writer, c.Request)
	})
}

// handleServiceError транслирует ошибки доменной таксономии в HTTP ответ.
func (h *FeedHandler) handleServiceError(c *gin.Context, err error) {
	var statusCode int
	var resp models.ErrorResponse

	switch {
	case errors.Is(err, models.ErrBadRequest):
		statusCode = http.StatusBadRequest
		resp = models.ErrorResponse{Code: models.ErrCodeBadRequest, Message: err.Error()}
	case errors.Is(err, models.ErrNotFound):
		statusCode = http.StatusNotFound
		resp = models.ErrorResponse{Code: models.ErrCodeNotFound, Message: "Post not found"}
	case errors.Is(err, models.ErrPersistence):
		statusCode = http.StatusInternalServerError
		resp = models.ErrorResponse{Code: models.ErrCodePersistence, Message: "Storage failure, try again"}
	default:
		h.logger.Error("Unhandled service error", zap.Error(err))
		statusCode = http.StatusInternalServerError
		resp = models.ErrorResponse{Code: models.ErrCodeInternal, Message: "Internal server error"}
	}
	c.JSON(statusCode, resp)
}

// identityFromRequest извлекает userID и имя тренера из контекста запроса.
func (h *FeedHandler) identityFromRequest(c *gin.Context) (uuid.UUID, string, bool) {
	userID, ok := models.GetUserIDFromContext(c.Request.Context())
	if !ok {
		h.logger.Error("UserID missing from authorized request context", zap.String("path", c.Request.URL.Path))
		c.AbortWithStatusJSON(http.StatusUnauthorized, models.ErrorResponse{
			Code: models.ErrCodeUnauthorized, Message: "Unauthorized",
		})
		return uuid.Nil, "", false
	}
	trainerName, _ := models.GetTrainerNameFromContext(c.Request.Context())
	if trainerName == "" {
		trainerName = "trainer"
	}
	return userID, trainerName, true
}

func (h *FeedHandler) postIDFromPath(c *gin.Context) (uuid.UUID, bool) {
	idStr := c.Param("id")
	postID, err := uuid.Parse(idStr)
	if err != nil {
		h.logger.Warn("Invalid post ID format", zap.String("id", idStr))
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Code: models.ErrCodeBadRequest, Message: "Invalid post ID format",
		})
		return uuid.Nil, false
	}
	return postID, true
}

// --- Обработчики --- //

func (h *FeedHandler) listPosts(c *gin.Context) {
	posts, err := h.service.ListPosts(c.Request.Context())
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, posts)
}

func (h *FeedHandler) getPost(c *gin.Context) {
	postID, ok := h.postIDFromPath(c)
	if !ok {
		return
	}

	post, err := h.service.GetPost(c.Request.Context(), postID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, post)
}

type createPostRequest struct {
	PokemonName string `json:"pokemon_name" binding:"required"`
	ImageURL    string `json:"image_url"`
	Caption     string `json:"caption"`
}

func (h *FeedHandler) createPost(c *gin.Context) {
	userID, trainerName, ok := h.identityFromRequest(c)
	if !ok {
		return
	}

	var req createPostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Code: models.ErrCodeBadRequest, Message: "Invalid request body: " + err.Error(),
		})
		return
	}

	post, err := h.service.CreatePost(c.Request.Context(), userID, trainerName, req.PokemonName, req.ImageURL, req.Caption)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, post)
}

func (h *FeedHandler) likePost(c *gin.Context) {
	if _, _, ok := h.identityFromRequest(c); !ok {
		return
	}
	postID, ok := h.postIDFromPath(c)
	if !ok {
		return
	}

	post, err := h.service.LikePost(c.Request.Context(), postID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, post)
}

type addCommentRequest struct {
	Text string `json:"text" binding:"required"`
}

func (h *FeedHandler) addComment(c *gin.Context) {
	_, trainerName, ok := h.identityFromRequest(c)
	if !ok {
		return
	}
	postID, ok := h.postIDFromPath(c)
	if !ok {
		return
	}

	var req addCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Code: models.ErrCodeBadRequest, Message: "Invalid request body: " + err.Error(),
		})
		return
	}

	post, err := h.service.AddComment(c.Request.Context(), postID, trainerName, req.Text)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, post)
}
