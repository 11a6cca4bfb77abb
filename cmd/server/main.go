package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"todolist/backend/internal/config"
	authdomain "todolist/backend/internal/domain/auth"
	projectdomain "todolist/backend/internal/domain/project"
	"todolist/backend/internal/httpserver"
	"todolist/backend/internal/infrastructure/memory"
	"todolist/backend/internal/infrastructure/password"
	"todolist/backend/internal/infrastructure/postgres"
	"todolist/backend/internal/infrastructure/token"
	"todolist/backend/internal/platform/telemetry"
	authusecase "todolist/backend/internal/usecase/auth"
	projectusecase "todolist/backend/internal/usecase/project"
	userusecase "todolist/backend/internal/usecase/user"
)

type repositories struct {
	users    authdomain.UserRepository
	projects projectdomain.Repository
	tasks    projectdomain.TaskRepository
	ready    func(context.Context) error
	close    func()
}

func main() {
	configPath := flag.String("config", "config.yaml", "optional YAML configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := telemetry.NewLogger(cfg.Log.Level, cfg.Log.Format)
	telemetry.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *slog.Logger) error {
	rootCtx := context.Background()

	repos, err := openRepositories(rootCtx, cfg, logger)
	if err != nil {
		return err
	}
	defer repos.close()

	tokenManager, err := token.NewJWTManager(token.Settings{
		AccessSecret:  cfg.Auth.Access.Secret,
		AccessExpiry:  cfg.Auth.Access.Expiry(),
		RefreshSecret: cfg.Auth.Refresh.Secret,
		RefreshExpiry: cfg.Auth.Refresh.Expiry(),
	}, token.WithLogger(logger))
	if err != nil {
		return err
	}

	authService := authusecase.NewService(repos.users, tokenManager, password.NewBcrypt(cfg.Auth.BcryptCost), logger)
	userService := userusecase.NewService(repos.users, logger)
	projectService := projectusecase.NewService(repos.users, repos.projects, repos.tasks, logger)

	if err := userService.EnsureAdmin(rootCtx, cfg.Auth.BootstrapAdmin); err != nil {
		return err
	}

	server, err := httpserver.NewServer(cfg.HTTP, httpserver.Services{
		Auth:     authService,
		Users:    userService,
		Projects: projectService,
		Ready:    repos.ready,
	}, logger)
	if err != nil {
		return err
	}
	logger.Info("HTTP server listening", "addr", server.Addr(), "storage", cfg.Storage.Driver)

	serverErr := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-serverErr:
		return err
	case <-shutdownCtx.Done():
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
		return err
	}
	logger.Info("graceful shutdown completed")
	return nil
}

func openRepositories(ctx context.Context, cfg config.Config, logger *slog.Logger) (*repositories, error) {
	if cfg.Storage.Driver == config.DriverMemory {
		logger.Warn("using in-memory storage; data is lost on restart")
		users := memory.NewUserRepository()
		store := memory.NewStore()
		store.CascadeUsers(users)
		return &repositories{
			users:    users,
			projects: store.Projects(),
			tasks:    store.Tasks(),
			close:    func() {},
		}, nil
	}

	db, err := postgres.New(ctx, cfg.Database.URL, cfg.Database.MaxConns)
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return &repositories{
		users:    postgres.NewUserRepository(db.Pool),
		projects: postgres.NewProjectRepository(db.Pool),
		tasks:    postgres.NewTaskRepository(db.Pool),
		ready:    db.Ping,
		close:    db.Close,
	}, nil
}
