package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
	"workTracker/internal/config"
	"workTracker/internal/handlers"
	"workTracker/internal/logger"
	"workTracker/internal/repository/inmemory"
	"workTracker/internal/repository/postgres"
	"workTracker/internal/service"
	"workTracker/internal/worker"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

// repository - всё, что нужно сервисам от одного хранилища
type repository interface {
	service.TaskRepository
	service.TimeEntryRepository
	service.PermissionRepository
}

type App struct {
	config     *config.Config
	server     *http.Server
	repository repository
	worker     *worker.CascadeWorker
	shutdowns  []func() // функции для graceful shutdown
}

func New(cfg *config.Config) *App {
	return &App{
		config:    cfg,
		shutdowns: make([]func(), 0),
	}
}

func (a *App) Init(ctx context.Context) (*App, error) {
	if err := logger.Init(a.config.Logging.Development); err != nil {
		return nil, fmt.Errorf("инициализация логгера: %w", err)
	}

	a.shutdowns = append(a.shutdowns, func() {
		logger.Info("Завершение работы логгирования...")
		logger.Sync()
	})

	if err := a.initRepository(ctx); err != nil {
		a.Shutdown()
		return nil, err
	}

	permissions := service.NewPermissionService(a.repository)
	tasks := service.NewTaskService(a.repository, permissions, service.RepoType(a.config.Repository.Type))
	timer := service.NewTimerService(a.repository)
	reports := service.NewReportService(a.repository)

	router := handlers.NewRouter(handlers.Handlers{
		Tasks:       handlers.NewTaskHandler(tasks),
		Timer:       handlers.NewTimerHandler(timer),
		Reports:     handlers.NewReportHandler(reports),
		Permissions: handlers.NewPermissionHandler(permissions),
	}, handlers.RouterOptions{
		RateLimit:      a.config.Server.RateLimit,
		RequestTimeout: a.config.Server.RequestTimeout,
		CORSOrigins:    a.config.Server.CORSOrigins,
	})

	a.server = &http.Server{
		Addr:         a.config.GetServerAddr(),
		Handler:      otelhttp.NewHandler(router, "work-tracker"),
		ReadTimeout:  a.config.Server.ReadTimeout,
		WriteTimeout: a.config.Server.WriteTimeout,
	}

	if a.config.Cascade.Enabled {
		interval := a.config.Cascade.Interval
		batch := a.config.Cascade.BatchSize
		a.worker = worker.NewCascadeWorker(a.repository, &interval, &batch)
	}

	return a, nil
}

func (a *App) initRepository(ctx context.Context) error {
	switch service.RepoType(a.config.Repository.Type) {
	case service.DBType:
		storage, err := postgres.New(ctx, a.config.Database.URL, postgres.PoolOptions{
			MaxConns:        int32(a.config.Database.MaxConnections),
			MinConns:        int32(a.config.Database.MinConnections),
			MaxConnIdleTime: a.config.Database.IdleTimeout,
		})
		if err != nil {
			return fmt.Errorf("подключение к PostgreSQL: %w", err)
		}
		if err := storage.Migrate(ctx); err != nil {
			storage.Close()
			return err
		}
		a.repository = storage
		a.shutdowns = append(a.shutdowns, storage.Close)
	case service.InMemoryType:
		a.repository = inmemory.NewStorage()
	default:
		return fmt.Errorf("неизвестный тип репозитория: %q", a.config.Repository.Type)
	}

	logger.Info("Хранилище инициализировано", zap.String("type", a.config.Repository.Type))
	return nil
}

// Run запускает HTTP-сервер и каскадный обработчик до отмены ctx
func (a *App) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Сервер запущен", zap.String("addr", a.server.Addr))
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP-сервер: %w", err)
		}
		return nil
	})

	if a.worker != nil {
		g.Go(func() error {
			a.worker.Start(gctx)
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Остановка сервера...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("остановка HTTP-сервера: %w", err)
		}
		return nil
	})

	err := g.Wait()
	a.Shutdown()
	return err
}

// Shutdown выполняет функции завершения в обратном порядке
func (a *App) Shutdown() {
	for i := len(a.shutdowns) - 1; i >= 0; i-- {
		a.shutdowns[i]()
	}
	a.shutdowns = nil
}
