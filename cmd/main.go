package main

import (
	"auth-session-server/config"
	_ "auth-session-server/docs"
	"auth-session-server/internal/handler"
	"auth-session-server/internal/metrics"
	"auth-session-server/internal/model"
	"auth-session-server/internal/repository"
	"auth-session-server/internal/security"
	"auth-session-server/internal/service"
	"context"
	"github.com/go-chi/chi/v5"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

// @title Auth-session-server
// @version 1.0
// @description REST API для выдачи, проверки и отзыва access и refresh токенов

// @host localhost:3000

// @securityDefinitions.apikey CookieAuth
// @in cookie
// @name accessToken
func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.LoadConfig(configPath())
	if err != nil {
		log.Fatalf("Ошибка загрузки конфигурации: %v", err)
	}
	cfg.ApplyEnv()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Некорректная конфигурация: %v", err)
	}

	db, err := config.SetupDatabase(cfg.DatabaseConfig.DSN)
	if err != nil {
		log.Fatalf("Не удалось подключиться к БД: %v", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("Ошибка при закрытии БД: %v", err)
		}
	}()

	redisClient, err := config.SetupRedis(&cfg.RedisConfig)
	if err != nil {
		log.Fatalf("Ошибка подключения к Redis: %v", err)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			log.Printf("Ошибка при закрытии Redis: %v", err)
		}
	}()

	storeTimeout, err := cfg.Session.Timeout()
	if err != nil {
		log.Fatalf("Некорректная конфигурация: %v", err)
	}

	jwtService, err := security.NewJWTService(&cfg.JWT)
	if err != nil {
		log.Fatalf("Ошибка создания JWT сервиса: %v", err)
	}

	userRepo := repository.NewUserRepository(db)
	revocationRepo := repository.NewRevocationRepository(redisClient)

	authService := service.NewAuthenticationService(
		jwtService,
		revocationRepo,
		userRepo,
		security.NewPasswordHasher(&cfg.Password),
		metrics.New(prometheus.DefaultRegisterer),
		service.Options{
			StoreTimeout:       storeTimeout,
			RotateRefreshOnUse: cfg.Session.RotateRefreshOnUse,
		},
	)

	authHandler := handler.NewAuthenticationHandler(authService, handler.CookieSettings{
		AccessPath:  cfg.Cookie.AccessPath,
		RefreshPath: cfg.Cookie.RefreshPath,
		Secure:      cfg.Cookie.Secure,
	})

	srv, router := config.SetupServer(cfg.ServerAddr)

	router.Get("/swagger/*", httpSwagger.WrapHandler)
	router.Handle("/metrics", promhttp.Handler())

	setupAuthRoutes(router, authHandler, authService)

	runServer(ctx, srv)
}

func configPath() string {
	if path := os.Getenv("CONFIG_PATH"); path != "" {
		return path
	}
	return "config.yaml"
}

func setupAuthRoutes(r chi.Router, h *handler.AuthenticationHandler, authService *service.AuthenticationService) {
	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/login", h.Login)
		r.Post("/register", h.Register)
		r.Post("/refresh", h.RefreshToken)
		r.With(handler.OptionalAuth(authService)).Delete("/logout", h.Logout)

		r.Group(func(r chi.Router) {
			r.Use(handler.RequireAuth(authService))
			r.Use(handler.RequireRoles(model.RoleUser, model.RoleAdmin))
			r.Get("/me", h.GetCurrentUser)
			r.Head("/me", h.GetCurrentUserHead)
		})
	})
}

func runServer(ctx context.Context, server *http.Server) {
	serverErrors := make(chan error, 1)
	go func() {
		log.Println("сервер запущен на " + server.Addr)
		serverErrors <- server.ListenAndServe()
	}()

	signalChannel := make(chan os.Signal, 1)
	signal.Notify(signalChannel, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil {
			log.Fatalf("ошибка работы сервера: %v", err)
		}
	case sig := <-signalChannel:
		log.Printf("получен сигнал %v остановки работы сервера ", sig)
	}

	shutDownCtx, shutDownCancel := context.WithTimeout(ctx, 5*time.Second)
	defer shutDownCancel()

	if err := server.Shutdown(shutDownCtx); err != nil {
		log.Printf("ошибка при остановке сервера: %v", err)
	} else {
		log.Println("Сервер успешно остановлен")
	}
}
