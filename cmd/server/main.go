package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/workfolio-backend/internal/ai"
	"github.com/ignatzorin/workfolio-backend/internal/config"
	"github.com/ignatzorin/workfolio-backend/internal/db"
	"github.com/ignatzorin/workfolio-backend/internal/goroutine"
	httpHandlers "github.com/ignatzorin/workfolio-backend/internal/http/handlers"
	httpRouter "github.com/ignatzorin/workfolio-backend/internal/http/router"
	"github.com/ignatzorin/workfolio-backend/internal/logger"
	"github.com/ignatzorin/workfolio-backend/internal/payment"
	"github.com/ignatzorin/workfolio-backend/internal/repository"
	"github.com/ignatzorin/workfolio-backend/internal/service"
	"github.com/ignatzorin/workfolio-backend/internal/storage"
	"github.com/ignatzorin/workfolio-backend/internal/ws"
)

func main() {
	// Готовим контекст для graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("main: ошибка загрузки конфигурации: %v", err)
	}

	logLevel := "info"
	if cfg.Env == "development" {
		logLevel = "debug"
	}
	logger.Init(logLevel, cfg.Env)
	lg := logger.L()

	// Подключение к базе и миграции.
	dbConn, err := db.NewPostgres(ctx, cfg.DatabaseURL)
	if err != nil {
		lg.WithError(err).Fatal("main: ошибка подключения к базе")
	}
	defer safeClose(dbConn)

	if err := db.RunMigrations(ctx, dbConn, cfg.MigrationsPath); err != nil {
		lg.WithError(err).Fatal("main: ошибка миграций")
	}

	tokenManager := service.NewTokenManager(cfg.JWTSecret, cfg.RefreshSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)

	images, err := storage.NewImageStorage(cfg.MediaStoragePath, cfg.MediaPublicURL, cfg.MaxUploadSizeMB)
	if err != nil {
		lg.WithError(err).Fatal("main: не удалось подготовить файловое хранилище")
	}

	// Репозитории.
	userRepo := repository.NewUserRepository(dbConn)
	portfolioRepo := repository.NewPortfolioRepository(dbConn)
	mediaRepo := repository.NewMediaRepository(dbConn)

	// Вебсокеты: редактор получает номер версии после каждого сохранения.
	hub := ws.NewHub()
	goroutine.GoContext(ctx, "ws.hub", hub.Run)

	// Генеративная модель необязательна: без неё помощник отвечает заглушками.
	generator, err := ai.NewGenerator(ctx, ai.Options{
		Provider:     cfg.AIProvider,
		GeminiAPIKey: cfg.GeminiAPIKey,
		GeminiModel:  cfg.GeminiModel,
		BaseURL:      cfg.AIBaseURL,
		Model:        cfg.AIModel,
		APIKey:       cfg.AIAPIKey,
	})
	if err != nil {
		entry := lg.WithField("provider", cfg.AIProvider)
		if errors.Is(err, ai.ErrNotConfigured) {
			entry.Warn("main: AI провайдер не настроен, подсказки отключены")
		} else {
			entry.WithError(err).Error("main: не удалось создать AI клиента")
		}
		generator = nil
	}

	// Сервисы.
	authService := service.NewAuthService(userRepo, tokenManager)
	accountService := service.NewAccountService(userRepo, images)
	portfolioService := service.NewPortfolioService(portfolioRepo, hub, cfg.EnforcePlanLimits)
	billingService := service.NewBillingService(
		payment.NewStripeGateway(cfg.StripeSecretKey, cfg.StripeWebhookSecret),
		userRepo,
		cfg.SiteURL,
		cfg.ProPriceCents,
	)
	assistService := service.NewAssistService(generator)
	mediaService := service.NewMediaService(mediaRepo, images)

	engine := httpRouter.SetupRouter(cfg, httpRouter.Handlers{
		Auth:      httpHandlers.NewAuthHandler(authService, accountService),
		Portfolio: httpHandlers.NewPortfolioHandler(portfolioService),
		AI:        httpHandlers.NewAIHandler(assistService),
		Billing:   httpHandlers.NewBillingHandler(billingService),
		Media:     httpHandlers.NewMediaHandler(mediaService),
		User:      httpHandlers.NewUserHandler(accountService),
		WS:        httpHandlers.NewWSHandler(hub, cfg.AllowedOrigins),
		Health:    httpHandlers.NewHealthHandler(dbConn),
	}, tokenManager, userRepo)

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Завершаем сервер при получении сигнала.
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			lg.WithError(err).Error("main: ошибка остановки http сервера")
		}
	}()

	lg.WithFields(logrus.Fields{"port": cfg.HTTPPort, "env": cfg.Env}).Info("main: HTTP сервер запущен")

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		lg.WithError(err).Fatal("main: сервер завершился с ошибкой")
	}
}

// safeClose закрывает соединение с базой.
func safeClose(conn *sqlx.DB) {
	if err := conn.Close(); err != nil {
		logger.L().WithError(err).Error("main: ошибка закрытия базы")
	}
}
