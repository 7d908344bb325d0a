package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-faster/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"zentok/internal/auth"
	"zentok/internal/config"
	"zentok/internal/feed"
	"zentok/internal/growth"
	"zentok/internal/logging"
	"zentok/internal/middleware"
	"zentok/internal/notification"
	"zentok/internal/notifications"
	"zentok/internal/posts"
	"zentok/internal/session"
	"zentok/pkg/gemini"
	"zentok/pkg/planstore"
	"zentok/pkg/storage"
	"zentok/pkg/supastore"
	"zentok/pkg/telegram"
)

const shutdownTimeout = 10 * time.Second

func main() {
	configPath := flag.String("config", os.Getenv("ZENTOK_CONFIG"), "путь к YAML-файлу настроек")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		// Логгер ещё не создан
		_, _ = os.Stderr.WriteString("config: " + err.Error() + "\n")
		os.Exit(1)
	}

	logger, err := logging.New(cfg.Server.Environment, cfg.Log.Level)
	if err != nil {
		_, _ = os.Stderr.WriteString("logger: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("Сервис остановлен с ошибкой", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Хранилище постов
	postStore, closeStore, err := openPostStore(cfg.Store, logger)
	if err != nil {
		return errors.Wrap(err, "open post store")
	}
	defer closeStore()

	// Планы роста переживают перезагрузку ленты только при включённом хранении
	var plans session.PlanStore
	if cfg.Growth.PersistPlans {
		planDB, err := planstore.Open(cfg.Growth.PlanDir, logger)
		if err != nil {
			return errors.Wrap(err, "open plan store")
		}
		defer func() { _ = planDB.Close() }()
		plans = planDB
	}

	// Генеративный сервис необязателен: без ключа работают запасные комментарии
	var (
		generator growth.CommentGenerator
		scorer    session.Scorer
	)
	ai, err := gemini.New(ctx, gemini.Config{
		APIKey:  cfg.Gemini.APIKey,
		Model:   cfg.Gemini.Model,
		Timeout: cfg.Gemini.Timeout,
		RPS:     cfg.Gemini.RPS,
		Burst:   cfg.Gemini.Burst,
	}, logger)
	switch {
	case errors.Is(err, gemini.ErrDisabled):
		logger.Info("Gemini не настроен, используются запасные комментарии")
	case err != nil:
		return errors.Wrap(err, "create gemini client")
	default:
		generator = ai
		scorer = ai
	}

	emitter := notification.NewEmitter(notification.Config{
		Display: cfg.Notifications.Display,
		History: cfg.Notifications.History,
	}, logger)
	defer emitter.Close()

	clock := growth.NewClock(growth.ClockConfig{Interval: cfg.Growth.TickInterval}, emitter, logger)
	defer clock.Close()

	svc := session.NewService(session.Deps{
		Posts:    postStore,
		Plans:    plans,
		Scorer:   scorer,
		Pools:    growth.NewPoolBuilder(generator, cfg.Growth.PoolWorkers, logger),
		Clock:    clock,
		Notifier: emitter,
		Logger:   logger,
	}, session.Options{})
	defer svc.Logout()

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           setupRouter(cfg, logger, svc, emitter),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return svc.Run(gCtx)
	})
	if cfg.Telegram.Enabled {
		relay := telegram.NewRelay(telegram.Config{
			APIID:       cfg.Telegram.APIID,
			APIHash:     cfg.Telegram.APIHash,
			BotToken:    cfg.Telegram.BotToken,
			Chat:        cfg.Telegram.Chat,
			SessionPath: cfg.Telegram.SessionPath,
			RetryDelay:  cfg.Telegram.RetryDelay,

			Proxy:         cfg.Telegram.Proxy,
			ProxyUser:     cfg.Telegram.ProxyUser,
			ProxyPassword: cfg.Telegram.ProxyPassword,
		}, emitter, logger)
		g.Go(func() error {
			return relay.Run(gCtx)
		})
	}
	g.Go(func() error {
		logger.Info("Сервер запущен", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "listen")
		}
		return nil
	})
	g.Go(func() error {
		<-gCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		logger.Info("Остановка сервера")
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// openPostStore выбирает хранилище постов по настройкам и возвращает функцию закрытия.
func openPostStore(cfg config.StoreConfig, logger *zap.Logger) (session.PostStore, func(), error) {
	switch cfg.Driver {
	case config.DriverSupabase:
		store, err := supastore.New(cfg.SupabaseURL, cfg.SupabaseKey, logger)
		if err != nil {
			return nil, nil, err
		}
		if cfg.FeedLimit > 0 {
			store.Limit = cfg.FeedLimit
		}
		return store, func() {}, nil
	default:
		db, err := storage.Open(cfg.DatabaseURL, logger)
		if err != nil {
			return nil, nil, err
		}
		if cfg.FeedLimit > 0 {
			db.Limit = cfg.FeedLimit
		}
		return db, func() { _ = db.Close() }, nil
	}
}

// Настройка маршрутов
func setupRouter(cfg *config.Config, logger *zap.Logger, svc *session.Service, emitter *notification.Emitter) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(middleware.Recovery(logger), middleware.RequestLogger(logger))

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		_, loggedIn := svc.User()
		c.JSON(http.StatusOK, gin.H{"status": "ok", "session": loggedIn})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("", middleware.AuthRequired(cfg.Server.APIToken))

	// Группа роутов для сессии
	auth.SetupRoutes(api.Group("/auth"), svc)

	// Группа роутов для ленты
	feed.SetupRoutes(api.Group("/feed"), svc)

	// Группа роутов для публикаций
	posts.SetupRoutes(api.Group("/posts"), svc, int64(cfg.Server.MaxUploadMB)<<20)

	// Группа роутов для уведомлений
	notifications.SetupRoutes(api.Group("/notifications"), emitter)

	logger.Info("Маршруты зарегистрированы", zap.Int("count", len(r.Routes())))
	return r
}
