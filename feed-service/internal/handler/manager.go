package handler

import (
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// Client представляет собой одно WebSocket соединение подписчика ленты.
type Client struct {
	UserID string
	Conn   *websocket.Conn
	send   chan []byte // Канал для отправки сообщений этому клиенту
}

// ConnectionManager управляет активными WebSocket соединениями.
// Подписка на ленту общая: каждый снимок поста уходит всем подключенным.
// Один пользователь может держать несколько соединений (телефон + браузер),
// поэтому клиенты различаются по соединению, а не по UserID.
type ConnectionManager struct {
	clients    map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte
	mu         sync.RWMutex
	logger     zerolog.Logger
}

// NewConnectionManager создает и запускает новый менеджер соединений.
func NewConnectionManager(logger zerolog.Logger) *ConnectionManager {
	m := &ConnectionManager{
		clients:    make(map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, 64),
		logger:     logger.With().Str("component", "ConnectionManager").Logger(),
	}
	go m.run() // Запускаем цикл управления в отдельной горутине
	return m
}

// run запускает основной цикл менеджера.
func (m *ConnectionManager) run() {
	m.logger.Info().Msg("ConnectionManager started")
	for {
		select {
		case client := <-m.register:
			m.mu.Lock()
			m.clients[client] = struct{}{}
			count := len(m.clients)
			m.mu.Unlock()
			m.logger.Info().Str("userID", client.UserID).Int("clients", count).Msg("Client registered")

		case client := <-m.unregister:
			m.mu.Lock()
			if _, ok := m.clients[client]; ok {
				delete(m.clients, client)
				close(client.send)
			}
			count := len(m.clients)
			m.mu.Unlock()
			m.logger.Info().Str("userID", client.UserID).Int("clients", count).Msg("Client unregistered")

		case message := <-m.broadcast:
			m.mu.RLock()
			for client := range m.clients {
				select {
				case client.send <- message:
				default:
					// Очередь клиента переполнена: снимок пропускается,
					// состояние догонит следующий
					m.logger.Warn().Str("userID", client.UserID).Msg("Client send queue full, snapshot dropped")
				}
			}
			m.mu.RUnlock()
		}
	}
}

// RegisterClient регистрирует нового клиента.
func (m *ConnectionManager) RegisterClient(client *Client) {
	m.register <- client
}

// UnregisterClient удаляет клиента.
func (m *ConnectionManager) UnregisterClient(client *Client) {
	m.unregister <- client
}

// Broadcast отправляет сообщение всем подключенным клиентам.
func (m *ConnectionManager) Broadcast(message []byte) {
	m.broadcast <- message
}
