package handler

import (
	"net/http"
	"strings"
	"time"

	"pokedex-server/shared/authutils"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const (
	// Время, разрешенное для записи сообщения клиенту.
	writeWait = 10 * time.Second
	// Время, разрешенное для чтения следующего pong сообщения от клиента.
	pongWait = 60 * time.Second
	// Отправлять пинги клиенту с этим периодом. Должно быть меньше pongWait.
	pingPeriod = (pongWait * 9) / 10
	// Максимальный размер сообщения, разрешенный от клиента.
	maxMessageSize = 512
)

// WebSocketHandler обрабатывает запросы на установку WebSocket соединения с лентой.
type WebSocketHandler struct {
	manager  *ConnectionManager
	verifier *authutils.JWTVerifier
	upgrader websocket.Upgrader
	logger   zerolog.Logger
}

// NewWebSocketHandler создает новый обработчик WebSocket.
// allowedOrigins - тот же список, что у CORS middleware сервиса.
func NewWebSocketHandler(manager *ConnectionManager, verifier *authutils.JWTVerifier, allowedOrigins []string, logger zerolog.Logger) *WebSocketHandler {
	wsLogger := logger.With().Str("component", "WebSocketHandler").Logger()
	return &WebSocketHandler{
		manager:  manager,
		verifier: verifier,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if originAllowed(origin, allowedOrigins) {
					return true
				}
				wsLogger.Warn().Str("origin", origin).Msg("WebSocket origin rejected")
				return false
			},
		},
		logger: wsLogger,
	}
}

// originAllowed сверяет Origin рукопожатия со списком разрешенных.
// Пустой Origin пропускается: его не шлют не-браузерные клиенты,
// а браузерный всегда присылает свой.
func originAllowed(origin string, allowed []string) bool {
	if origin == "" {
		return true
	}
	for _, a := range allowed {
		if a == "*" || strings.EqualFold(a, origin) {
			return true
		}
	}
	return false
}

// ServeWS обрабатывает входящий HTTP запрос для WebSocket.
// Токен приходит query-параметром: браузерный WebSocket API не умеет
// выставлять Authorization заголовок.
func (h *WebSocketHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	tokenString := r.URL.Query().Get("token")
	if tokenString == "" {
		h.logger.Warn().Msg("Missing 'token' query parameter")
		http.Error(w, "Unauthorized: Missing token", http.StatusUnauthorized)
		return
	}

	claims, err := h.verifier.VerifyToken(r.Context(), tokenString)
	if err != nil {
		h.logger.Warn().Err(err).Msg("Invalid token")
		http.Error(w, "Unauthorized: invalid token", http.StatusUnauthorized)
		return
	}
	userID := claims.UserID.String()

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error().Err(err).Str("userID", userID).Msg("Failed to upgrade connection")
		// Ошибку в ResponseWriter уже записал upgrader
		return
	}

	h.logger.Info().Str("userID", userID).Msg("Feed subscription established")

	client := &Client{
		UserID: userID,
		Conn:   conn,
		send:   make(chan []byte, 256), // Буферизованный канал для отправки
	}

	h.manager.RegisterClient(client)

	// Запускаем горутины для чтения и записи в этом соединении
	go client.writePump(h.logger.With().Str("userID", userID).Logger())
	go client.readPump(h.manager, h.logger.With().Str("userID", userID).Logger())
}

// readPump откачивает сообщения от WebSocket соединения.
// Закрытие соединения клиентом - это и есть отписка от ленты.
func (c *Client) readPump(manager *ConnectionManager, logger zerolog.Logger) {
	defer func() {
		manager.UnregisterClient(c)
		_ = c.Conn.Close()
		logger.Info().Msg("readPump finished")
	}()
	c.Conn.SetReadLimit(maxMessageSize)
	_ = c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		_ = c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Warn().Err(err).Msg("WebSocket read error")
			} else {
				logger.Info().Msg("WebSocket connection closed (expected)")
			}
			break
		}
		// Поток односторонний: клиент ничего не присылает
		logger.Warn().Bytes("message", message).Msg("Received unexpected message from client (ignored)")
	}
}

// writePump откачивает сообщения из канала send в WebSocket соединение.
func (c *Client) writePump(logger zerolog.Logger) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		logger.Info().Msg("writePump finished")
	}()
	for {
		select {
		case message, ok := <-c.send:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				logger.Info().Msg("Send channel closed, sending CloseMessage")
				_ = c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				logger.Error().Err(err).Msg("Failed to write message")
				return
			}

		case <-ticker.C:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				logger.Warn().Err(err).Msg("Failed to send ping")
				return
			}
		}
	}
}
