// Package app provides the dependency injection container for the application.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/runoshun/hora/internal/domain"
	"github.com/runoshun/hora/internal/infra/config"
	"github.com/runoshun/hora/internal/infra/gitstore"
	"github.com/runoshun/hora/internal/infra/jsonstore"
	"github.com/runoshun/hora/internal/infra/logging"
	"github.com/runoshun/hora/internal/infra/notify"
	"github.com/runoshun/hora/internal/infra/pgstore"
	"github.com/runoshun/hora/internal/usecase"
)

// EnvDataDir overrides the default data directory.
const EnvDataDir = "HORA_DATA_DIR"

// Config holds the application paths.
type Config struct {
	DataDir string // Directory holding config.toml, .env, logs and file-backed stores
}

// DefaultDataDir returns $HORA_DATA_DIR, else $XDG_DATA_HOME/hora, else ~/.local/share/hora.
func DefaultDataDir() string {
	if dir := os.Getenv(EnvDataDir); dir != "" {
		return dir
	}
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return filepath.Join(".", "."+domain.AppDirName)
		}
		dataHome = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataHome, domain.AppDirName)
}

// Container provides dependency injection for the application.
// It holds all port implementations and provides factory methods for use cases.
type Container struct {
	// Ports (interfaces bound to implementations)
	Store         domain.Store
	Clock         domain.Clock
	IDs           domain.IDGenerator
	Notifier      domain.AssignmentNotifier
	Logger        domain.Logger
	ConfigLoader  domain.ConfigLoader
	ConfigManager domain.ConfigManager

	// Pointer fields
	Slog      *slog.Logger   // Process-level messages to stderr
	AppConfig *domain.Config // Merged configuration

	closers []func() error
	Billing domain.Billing

	// Configuration
	Config Config
}

// New creates a new Container for the given data directory.
func New(dataDir string) (*Container, error) {
	cfg := Config{DataDir: dataDir}

	configLoader := config.NewLoader(cfg.DataDir)
	appConfig, err := configLoader.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	billing, err := appConfig.NewBilling()
	if err != nil {
		return nil, fmt.Errorf("billing config: %w", err)
	}

	fileLogger := logging.New(cfg.DataDir, logging.ParseLevel(appConfig.Log.Level))
	c := &Container{
		Clock:         domain.RealClock{},
		IDs:           domain.UUIDGenerator{},
		Logger:        fileLogger,
		ConfigLoader:  configLoader,
		ConfigManager: config.NewManager(cfg.DataDir),
		Slog: slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: logging.ParseLevel(appConfig.Log.Level),
		})),
		AppConfig: appConfig,
		Billing:   billing,
		Config:    cfg,
		closers:   []func() error{fileLogger.Close},
	}

	store, closeStore, err := openStore(cfg, appConfig.Store)
	if err != nil {
		_ = c.Close()
		return nil, err
	}
	c.Store = store
	if closeStore != nil {
		c.closers = append(c.closers, closeStore)
	}

	if url := appConfig.Chat.WebhookURL; url != "" {
		c.Notifier = notify.NewWebhookNotifier(url, nil)
	} else {
		c.Notifier = notify.NewLogNotifier(fileLogger)
	}

	return c, nil
}

// openStore builds the backend selected by [store] backend.
func openStore(cfg Config, sc domain.StoreConfig) (domain.Store, func() error, error) {
	switch sc.Backend {
	case "", domain.BackendJSON:
		return jsonstore.New(domain.TasksStorePath(cfg.DataDir)), nil, nil
	case domain.BackendGit:
		store, err := gitstore.OpenWithEncryption(domain.GitStorePath(cfg.DataDir), sc.Namespace, sc.EncryptionKey)
		if err != nil {
			return nil, nil, err
		}
		return store, nil, nil
	case domain.BackendPostgres:
		if sc.DatabaseURL == "" {
			return nil, nil, errors.New("postgres backend needs [store] database_url or " + config.EnvDatabaseURL)
		}
		store, err := pgstore.Open(context.Background(), sc.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		return store, func() error { store.Close(); return nil }, nil
	default:
		return nil, nil, fmt.Errorf("%w: %q", domain.ErrUnknownBackend, sc.Backend)
	}
}

// NewWithDeps creates a new Container with custom dependencies for testing.
func NewWithDeps(cfg Config, store domain.Store, clock domain.Clock, ids domain.IDGenerator, notifier domain.AssignmentNotifier, logger domain.Logger, billing domain.Billing) *Container {
	return &Container{
		Store:     store,
		Clock:     clock,
		IDs:       ids,
		Notifier:  notifier,
		Logger:    logger,
		Billing:   billing,
		AppConfig: domain.NewDefaultConfig(),
		Slog:      slog.New(slog.NewTextHandler(os.Stderr, nil)),
		Config:    cfg,
	}
}

// Close releases files and connections held by the container.
func (c *Container) Close() error {
	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	c.closers = nil
	return errors.Join(errs...)
}

// UseCase factory methods

// CreateTaskUseCase returns a new CreateTask use case.
func (c *Container) CreateTaskUseCase() *usecase.CreateTask {
	return usecase.NewCreateTask(c.Store, c.IDs, c.Clock, c.Logger)
}

// ShowTaskUseCase returns a new ShowTask use case.
func (c *Container) ShowTaskUseCase() *usecase.ShowTask {
	return usecase.NewShowTask(c.Store)
}

// EditTaskUseCase returns a new EditTask use case.
func (c *Container) EditTaskUseCase() *usecase.EditTask {
	return usecase.NewEditTask(c.Store, c.Logger)
}

// ListTasksUseCase returns a new ListTasks use case.
func (c *Container) ListTasksUseCase() *usecase.ListTasks {
	return usecase.NewListTasks(c.Store)
}

// AcceptTaskUseCase returns a new AcceptTask use case.
func (c *Container) AcceptTaskUseCase() *usecase.AcceptTask {
	return usecase.NewAcceptTask(c.Store, c.Notifier, c.Logger)
}

// ClockInUseCase returns a new ClockIn use case.
func (c *Container) ClockInUseCase() *usecase.ClockIn {
	return usecase.NewClockIn(c.Store, c.IDs, c.Clock, c.Logger)
}

// ClockOutUseCase returns a new ClockOut use case.
func (c *Container) ClockOutUseCase() *usecase.ClockOut {
	return usecase.NewClockOut(c.Store, c.Clock, c.Logger)
}

// WorklogStatusUseCase returns a new WorklogStatus use case.
func (c *Container) WorklogStatusUseCase() *usecase.WorklogStatus {
	return usecase.NewWorklogStatus(c.Store, c.Store)
}

// ShowWorklogUseCase returns a new ShowWorklog use case.
func (c *Container) ShowWorklogUseCase() *usecase.ShowWorklog {
	return usecase.NewShowWorklog(c.Store, c.Store, c.Billing)
}

// QuoteCostUseCase returns a new QuoteCost use case.
func (c *Container) QuoteCostUseCase() *usecase.QuoteCost {
	return usecase.NewQuoteCost(c.Store, c.Store, c.Billing)
}

// CompleteTaskUseCase returns a new CompleteTask use case.
func (c *Container) CompleteTaskUseCase() *usecase.CompleteTask {
	return usecase.NewCompleteTask(c.Store, c.Billing, c.Clock, c.Logger)
}

// InitStoreUseCase returns a new InitStore use case.
func (c *Container) InitStoreUseCase() *usecase.InitStore {
	backend := domain.BackendJSON
	if c.AppConfig != nil && c.AppConfig.Store.Backend != "" {
		backend = c.AppConfig.Store.Backend
	}
	return usecase.NewInitStore(c.Store, c.Logger, backend)
}

// ShowConfigUseCase returns a new ShowConfig use case.
func (c *Container) ShowConfigUseCase() *usecase.ShowConfig {
	return usecase.NewShowConfig(c.ConfigManager, c.ConfigLoader)
}

// InitConfigUseCase returns a new InitConfig use case.
func (c *Container) InitConfigUseCase() *usecase.InitConfig {
	return usecase.NewInitConfig(c.ConfigManager)
}
