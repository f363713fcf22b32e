package config

import (
	"errors"
	"fmt"
	"github.com/go-chi/chi/v5"
	"gopkg.in/yaml.v3"
	"net/http"
	"os"
	"time"
)

const (
	defaultAccessTokenTTL  = "7m"
	defaultRefreshTokenTTL = "168h"
	defaultStoreTimeout    = "2s"
	defaultIssuer          = "auth-session-server"

	maxAccessTokenTTL  = time.Hour
	minRefreshTokenTTL = 24 * time.Hour
)

type AppConfig struct {
	Env            string         `yaml:"env"`
	DatabaseConfig DatabaseConfig `yaml:"databaseConfig"`
	RedisConfig    RedisConfig    `yaml:"redisConfig"`
	ServerAddr     string         `yaml:"serverAddr"`
	JWT            JWTConfig      `yaml:"jwt"`
	Cookie         CookieConfig   `yaml:"cookie"`
	Session        SessionConfig  `yaml:"session"`
	Password       PasswordConfig `yaml:"password"`
}

func LoadConfig(path string) (*AppConfig, error) {
	file, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg AppConfig
	if err := yaml.Unmarshal(file, &cfg); err != nil {
		return nil, err
	}

	cfg.setDefaults()
	return &cfg, nil
}

func (cfg *AppConfig) setDefaults() {
	if cfg.ServerAddr == "" {
		cfg.ServerAddr = ":3000"
	}
	if cfg.JWT.AccessTokenTTL == "" {
		cfg.JWT.AccessTokenTTL = defaultAccessTokenTTL
	}
	if cfg.JWT.RefreshTokenTTL == "" {
		cfg.JWT.RefreshTokenTTL = defaultRefreshTokenTTL
	}
	if cfg.JWT.Issuer == "" {
		cfg.JWT.Issuer = defaultIssuer
	}
	if cfg.Cookie.AccessPath == "" {
		cfg.Cookie.AccessPath = "/"
	}
	if cfg.Cookie.RefreshPath == "" {
		cfg.Cookie.RefreshPath = "/api/auth/"
	}
	if cfg.Session.StoreTimeout == "" {
		cfg.Session.StoreTimeout = defaultStoreTimeout
	}
}

// IsProduction : secure-флаг у cookie выставляется всегда в production
func (cfg *AppConfig) IsProduction() bool {
	return cfg.Env == "production"
}

// Validate проверяет конфигурацию перед стартом сервера
func (cfg *AppConfig) Validate() error {
	if cfg.JWT.AccessSecret == "" || cfg.JWT.RefreshSecret == "" {
		return errors.New("jwt: access_secret и refresh_secret обязательны")
	}
	if cfg.JWT.AccessSecret == cfg.JWT.RefreshSecret {
		return errors.New("jwt: access_secret и refresh_secret должны различаться")
	}

	accessTTL, refreshTTL, err := cfg.JWT.TTLs()
	if err != nil {
		return err
	}
	if accessTTL > maxAccessTokenTTL {
		return fmt.Errorf("jwt: access_token_ttl не может превышать %s", maxAccessTokenTTL)
	}
	if refreshTTL < minRefreshTokenTTL {
		return fmt.Errorf("jwt: refresh_token_ttl не может быть меньше %s", minRefreshTokenTTL)
	}

	timeout, err := cfg.Session.Timeout()
	if err != nil {
		return err
	}
	if timeout <= 0 {
		return errors.New("session: store_timeout должен быть положительным")
	}

	return nil
}

// TTLs парсит время жизни access и refresh токенов
func (c JWTConfig) TTLs() (time.Duration, time.Duration, error) {
	accessTTL, err := time.ParseDuration(c.AccessTokenTTL)
	if err != nil {
		return 0, 0, fmt.Errorf("jwt: ошибка парсинга access_token_ttl: %w", err)
	}
	refreshTTL, err := time.ParseDuration(c.RefreshTokenTTL)
	if err != nil {
		return 0, 0, fmt.Errorf("jwt: ошибка парсинга refresh_token_ttl: %w", err)
	}
	if accessTTL <= 0 || refreshTTL <= accessTTL {
		return 0, 0, errors.New("jwt: refresh_token_ttl должен быть больше access_token_ttl")
	}
	return accessTTL, refreshTTL, nil
}

func (c SessionConfig) Timeout() (time.Duration, error) {
	timeout, err := time.ParseDuration(c.StoreTimeout)
	if err != nil {
		return 0, fmt.Errorf("session: ошибка парсинга store_timeout: %w", err)
	}
	return timeout, nil
}

func SetupServer(serverAddress string) (*http.Server, *chi.Mux) {
	router := chi.NewRouter()
	server := &http.Server{
		Addr:              serverAddress,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	return server, router
}

func SetupDatabase(dsn string) (*Database, error) {
	return NewDatabaseConnection("postgres", dsn)
}

func SetupRedis(cfg *RedisConfig) (*RedisClient, error) {
	return NewRedisClient(cfg)
}
