// Файл: main.go

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"maintenance-desk/internal/bot"
	"maintenance-desk/internal/controllers"
	"maintenance-desk/internal/listeners"
	"maintenance-desk/internal/repositories"
	"maintenance-desk/internal/routes"
	"maintenance-desk/internal/services"
	"maintenance-desk/pkg/config"
	"maintenance-desk/pkg/database/migrations"
	"maintenance-desk/pkg/database/postgresql"
	apperrors "maintenance-desk/pkg/errors"
	"maintenance-desk/pkg/eventbus"
	"maintenance-desk/pkg/filestorage"
	applogger "maintenance-desk/pkg/logger"
	appmiddleware "maintenance-desk/pkg/middleware"
	"maintenance-desk/pkg/service"
	"maintenance-desk/pkg/telegram"
	"maintenance-desk/pkg/utils"
	"maintenance-desk/pkg/validation"
	"maintenance-desk/pkg/websocket"

	"github.com/go-redis/redis/v8"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// 1. Конфиг и логгеры
	cfg := config.New()
	logger := applogger.NewLogger(cfg.Logger.Level, cfg.Logger.File)
	defer logger.Sync()
	loggers := applogger.NewLoggers(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. База данных и миграции
	dbConn, err := postgresql.ConnectDB(ctx, cfg.Postgres.DSN)
	if err != nil {
		logger.Fatal("не удалось подключиться к БД", zap.Error(err))
	}
	defer dbConn.Close()

	if err := migrations.Up(ctx, dbConn); err != nil {
		logger.Fatal("не удалось применить миграции", zap.Error(err))
	}

	// 3. Кэш: Redis, если задан адрес, иначе память процесса
	var cacheRepo repositories.CacheRepositoryInterface
	if cfg.Redis.Address != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if _, err := redisClient.Ping(ctx).Result(); err != nil {
			logger.Fatal("не удалось подключиться к Redis", zap.Error(err), zap.String("address", cfg.Redis.Address))
		}
		defer redisClient.Close()
		cacheRepo = repositories.NewRedisCacheRepository(redisClient)
	} else {
		logger.Warn("REDIS_ADDRESS не задан, используется кэш в памяти")
		cacheRepo = repositories.NewMemoryCacheRepository()
	}

	// 4. Хранилище фотографий
	var storage filestorage.FileStorageInterface
	if cfg.Storage.MinioEndpoint != "" {
		storage, err = filestorage.NewMinioFileStorage(ctx, filestorage.MinioConfig{
			Endpoint:  cfg.Storage.MinioEndpoint,
			AccessKey: cfg.Storage.MinioAccessKey,
			SecretKey: cfg.Storage.MinioSecretKey,
			Bucket:    cfg.Storage.MinioBucket,
			UseSSL:    cfg.Storage.MinioUseSSL,
		})
	} else {
		storage, err = filestorage.NewLocalFileStorage(cfg.Server.UploadDir)
	}
	if err != nil {
		logger.Fatal("не удалось инициализировать файловое хранилище", zap.Error(err))
	}

	// 5. Репозитории, шина событий и сервисы
	bus := eventbus.New(loggers.Main.Named("eventbus"))

	txManager := repositories.NewTxManager(dbConn)
	userRepo := repositories.NewUserRepository(dbConn)
	equipmentRepo := repositories.NewEquipmentRepository(dbConn)
	requestRepo := repositories.NewRequestRepository(dbConn)
	historyRepo := repositories.NewRequestHistoryRepository(dbConn)
	notificationRepo := repositories.NewNotificationRepository(dbConn)

	jwtSvc := service.NewJWTService(cfg.JWT.SecretKey, cfg.JWT.AccessTokenTTL)

	requestService := services.NewRequestService(
		txManager, requestRepo, userRepo, equipmentRepo, historyRepo, storage, bus,
		services.RequestServiceOptions{StrictTransitions: cfg.Lifecycle.StrictTransitions},
		loggers.Request,
	)
	authService := services.NewAuthService(userRepo, cacheRepo, jwtSvc, services.AuthConfig{
		MaxLoginAttempts: cfg.Auth.MaxLoginAttempts,
		LockoutDuration:  cfg.Auth.LockoutDuration,
	}, loggers.Auth)
	equipmentService := services.NewEquipmentService(equipmentRepo, loggers.Main)

	// 6. WebSocket-лента событий
	hub := websocket.NewHub(loggers.Main.Named("ws"))
	go hub.Run(ctx)
	listeners.NewWebSocketListener(hub, loggers.Main.Named("ws")).Register(bus)

	// 7. Telegram-бот (только при наличии токена и чата)
	var (
		tgBot           *bot.Bot
		notifier        *bot.Notifier
		telegramUpdates controllers.UpdateQueue
	)
	if cfg.Telegram.Enabled() {
		tg := telegram.NewService(cfg.Telegram.BotToken, cfg.Telegram.APIURL, loggers.Bot)
		notifier = bot.NewNotifier(tg, notificationRepo, storage, cfg.Telegram.ChatID, cfg.Telegram.Workers, loggers.Bot)
		notifier.Register(bus)
		notifier.Start()

		tgBot = bot.NewBot(tg, requestService, notificationRepo, cacheRepo, cfg.Telegram.Workers, loggers.Bot)
		tgBot.Start(ctx)

		if cfg.Telegram.WebhookURL != "" {
			if cfg.Telegram.WebhookSecret == "" {
				logger.Warn("TELEGRAM_WEBHOOK_SECRET не задан, вебхук принимает запросы без проверки")
			}
			if err := tg.SetWebhook(ctx, cfg.Telegram.WebhookURL, cfg.Telegram.WebhookSecret); err != nil {
				logger.Fatal("не удалось установить вебхук Telegram", zap.Error(err))
			}
			telegramUpdates = tgBot
			logger.Info("Telegram-бот работает через вебхук", zap.String("url", cfg.Telegram.WebhookURL))
		} else {
			go tgBot.Poll(ctx)
			logger.Info("Telegram-бот работает через long polling")
		}
	} else {
		logger.Warn("TELEGRAM_BOT_TOKEN или TELEGRAM_CHAT_ID не заданы, бот отключён")
	}

	// 8. Echo и middleware
	e := echo.New()
	e.HideBanner = true
	e.Validator = validation.New()

	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		DisableStackAll: true,
		StackSize:       1 << 10,
		LogErrorFunc: func(c echo.Context, err error, stack []byte) error {
			logger.Error("!!! ОБНАРУЖЕНА ПАНИКА (PANIC) !!!",
				zap.String("method", c.Request().Method),
				zap.String("uri", c.Request().RequestURI),
				zap.Error(err),
				zap.String("stack", string(stack)),
			)
			if !c.Response().Committed {
				httpErr := apperrors.NewHttpError(http.StatusInternalServerError, "Внутренняя ошибка сервера", err)
				utils.ErrorResponse(c, httpErr, logger)
			}
			return err
		},
	}))

	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOriginFunc: func(origin string) (bool, error) {
			for _, o := range cfg.Server.AllowedOrigins {
				if origin == o {
					return true, nil
				}
			}
			return false, nil
		},
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		AllowCredentials: true,
	}))
	e.Use(appmiddleware.RequestLogger(loggers.Main.Named("http")))

	// 9. Маршруты
	routes.InitRouter(e, routes.Dependencies{
		RequestService:        requestService,
		AuthService:           authService,
		EquipmentService:      equipmentService,
		FileStorage:           storage,
		JWTService:            jwtSvc,
		Hub:                   hub,
		TelegramUpdates:       telegramUpdates,
		TelegramWebhookSecret: cfg.Telegram.WebhookSecret,
		DB:                    dbConn,
		Loggers:               &loggers,
	})

	// 10. Запуск и корректная остановка
	go func() {
		logger.Info("🚀 Сервер запущен", zap.String("port", cfg.Server.Port))
		if err := e.Start(":" + cfg.Server.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Ошибка запуска сервера", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("Получен сигнал остановки, завершаем работу...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("Ошибка остановки HTTP-сервера", zap.Error(err))
	}

	if tgBot != nil {
		tgBot.Wait()
	}
	bus.Wait()
	if notifier != nil {
		notifier.Stop()
	}
	logger.Info("Сервер остановлен")
}
