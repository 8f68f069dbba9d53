package config

import (
	"fmt"
	"log"
	"time"

	"pokedex-server/shared/utils"

	"github.com/kelseyhightower/envconfig"
)

// Config содержит конфигурацию для Game Service
type Config struct {
	// Настройки сервера
	Port     string `envconfig:"GAME_SERVER_PORT" default:"8081"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	// Настройки PostgreSQL
	DBHost        string        `envconfig:"DB_HOST" required:"true"`
	DBPort        string        `envconfig:"DB_PORT" default:"5432"`
	DBUser        string        `envconfig:"DB_USER" required:"true"`
	DBName        string        `envconfig:"DB_NAME" required:"true"`
	DBSSLMode     string        `envconfig:"DB_SSL_MODE" default:"disable"`
	DBMaxConns    int           `envconfig:"DB_MAX_CONNECTIONS" default:"10"`
	DBIdleTimeout time.Duration `envconfig:"DB_MAX_IDLE_MINUTES" default:"5m"`
	// Секретное поле БЕЗ envconfig тега
	DBPassword string

	// Настройки Redis (кеш каталога)
	RedisAddr string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	RedisDB   int    `envconfig:"REDIS_DB" default:"0"`
	// Секретное поле БЕЗ envconfig тега (пустая строка допустима для dev)
	RedisPassword string

	// Настройки внешнего каталога
	PokeAPIBaseURL string        `envconfig:"POKEAPI_BASE_URL" default:"https://pokeapi.co/api/v2"`
	PokeAPITimeout time.Duration `envconfig:"POKEAPI_TIMEOUT" default:"10s"`
	CatalogLimit   int           `envconfig:"CATALOG_LIMIT" default:"151"`

	// Настройки игровой механики
	FleeAfter          time.Duration `envconfig:"ENCOUNTER_FLEE_AFTER" default:"10s"`
	EncounterRateLimit uint          `envconfig:"ENCOUNTER_RATE_LIMIT" default:"30"`

	// Настройки JWT (для проверки токена пользователя в middleware)
	// Секретное поле БЕЗ envconfig тега
	JWTSecret string
}

// GetDSN возвращает строку подключения (DSN) для PostgreSQL
func (c *Config) GetDSN() string {
	// Пароль теперь в c.DBPassword
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode)
}

// LoadConfig загружает конфигурацию из переменных окружения и секретов
func LoadConfig() (*Config, error) {
	var cfg Config
	// Загружаем НЕсекретные переменные
	err := envconfig.Process("", &cfg)
	if err != nil {
		return nil, fmt.Errorf("ошибка загрузки конфигурации game-service: %w", err)
	}

	// Загружаем ОБЯЗАТЕЛЬНЫЕ секреты
	var loadErr error
	cfg.DBPassword, loadErr = utils.ReadSecret("db_password")
	if loadErr != nil {
		return nil, loadErr
	}

	cfg.JWTSecret, loadErr = utils.ReadSecret("jwt_secret")
	if loadErr != nil {
		return nil, loadErr
	}

	// Пароль Redis опционален: в dev-окружении Redis без авторизации
	cfg.RedisPassword, loadErr = utils.ReadSecret("redis_password")
	if loadErr != nil {
		cfg.RedisPassword = ""
	}

	log.Printf("Конфигурация Game Service загружена (секреты из файлов):")
	log.Printf("  Port: %s", cfg.Port)
	log.Printf("  LogLevel: %s", cfg.LogLevel)
	log.Printf("  DB DSN: postgres://%s:***@%s:%s/%s?sslmode=%s", cfg.DBUser, cfg.DBHost, cfg.DBPort, cfg.DBName, cfg.DBSSLMode)
	log.Printf("  DB Max Conns: %d", cfg.DBMaxConns)
	log.Printf("  DB Idle Timeout: %v", cfg.DBIdleTimeout)
	log.Printf("  Redis Addr: %s (db %d)", cfg.RedisAddr, cfg.RedisDB)
	log.Printf("  PokeAPI Base URL: %s", cfg.PokeAPIBaseURL)
	log.Printf("  PokeAPI Timeout: %v", cfg.PokeAPITimeout)
	log.Printf("  Catalog Limit: %d", cfg.CatalogLimit)
	log.Printf("  Encounter Flee After: %v", cfg.FleeAfter)
	log.Printf("  Encounter Rate Limit: %d/min", cfg.EncounterRateLimit)
	log.Println("  JWT Secret: [ЗАГРУЖЕН]")

	return &cfg, nil
}
