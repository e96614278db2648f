// Package bot initializes and runs the Telegram bot application. It loads
// configuration, connects to PostgreSQL and runs migrations, seeds the
// initial authorization keys, selects the blob storage backend, and starts
// the long-poll dispatcher with graceful shutdown.
package bot

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/filekeeper/internal/bot/blobstore"
	"github.com/dmitrijs2005/filekeeper/internal/bot/config"
	"github.com/dmitrijs2005/filekeeper/internal/bot/dispatcher"
	"github.com/dmitrijs2005/filekeeper/internal/bot/repositories/repomanager"
	"github.com/dmitrijs2005/filekeeper/internal/bot/services"
	"github.com/dmitrijs2005/filekeeper/internal/bot/sessions"
	"github.com/dmitrijs2005/filekeeper/internal/bot/telegram"
	"github.com/dmitrijs2005/filekeeper/internal/logging"
)

// defaultSeedKeys are inserted on first boot against an empty key table so
// the bot is usable right after provisioning.
var defaultSeedKeys = []string{"key123", "secretkey", "auth777"}

type App struct {
	config     *config.Config
	logger     logging.Logger
	db         *sql.DB
	sessions   *sessions.Manager
	dispatcher *dispatcher.Dispatcher
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {

	logger := logging.NewDefault()

	if cfg.TelegramToken == "" {
		return nil, fmt.Errorf("telegram token is not configured")
	}

	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("db ping error: %w", err)
	}

	rm, err := repomanager.NewPostgresRepositoryManager(db)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}
	if err := rm.RunMigrations(ctx, db); err != nil {
		return nil, fmt.Errorf("db migration error: %w", err)
	}
	if err := seedAuthKeys(ctx, db, rm, logger); err != nil {
		return nil, err
	}

	vault, err := newVault(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("vault init error: %w", err)
	}

	authService := services.NewAuthService(db, rm, logger.With("module", "auth"))
	fileService := services.NewFileService(db, rm, vault, logger.With("module", "files"))
	auditor := services.NewAuditor(db, rm, logger.With("module", "audit"))

	sessionManager := sessions.NewManager()

	// The HTTP timeout must outlast the long poll or GetUpdates is cut short.
	httpClient := &http.Client{Timeout: cfg.PollTimeout + 10*time.Second}
	client := telegram.NewClient(cfg.TelegramAPIEndpoint, cfg.TelegramToken, httpClient)

	disp := dispatcher.NewDispatcher(client, authService, fileService, auditor,
		sessionManager, cfg.PollTimeout, logger.With("module", "dispatcher"))

	return &App{config: cfg, logger: logger, db: db, sessions: sessionManager, dispatcher: disp}, nil
}

// seedAuthKeys populates the key table on first boot. A non-empty table is
// left untouched.
func seedAuthKeys(ctx context.Context, db *sql.DB, rm repomanager.RepositoryManager, logger logging.Logger) error {
	repo := rm.AuthKeys(db)

	n, err := repo.Count(ctx)
	if err != nil {
		return fmt.Errorf("error counting auth keys: %v", err)
	}
	if n > 0 {
		return nil
	}

	if err := repo.Seed(ctx, defaultSeedKeys); err != nil {
		return fmt.Errorf("error seeding auth keys: %v", err)
	}
	logger.Info(ctx, "seeded initial authorization keys", "count", len(defaultSeedKeys))
	return nil
}

// newVault selects the blob storage backend from config.
func newVault(ctx context.Context, cfg *config.Config) (blobstore.Vault, error) {
	switch cfg.StorageBackend {
	case "disk":
		return blobstore.NewDiskVault(cfg.StorageDir)
	case "s3":
		return blobstore.NewS3Vault(ctx, blobstore.S3Config{
			RootUser:     cfg.S3RootUser,
			RootPassword: cfg.S3RootPassword,
			Bucket:       cfg.S3Bucket,
			Region:       cfg.S3Region,
			BaseEndpoint: cfg.S3BaseEndpoint,
		})
	default:
		return nil, fmt.Errorf("unknown storage backend: %s", cfg.StorageBackend)
	}
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting bot...",
		"storage_backend", app.config.StorageBackend,
		"poll_timeout", app.config.PollTimeout.String())

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.sessions.RunJanitor(ctx, app.config.SessionIdleTimeout, app.logger)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := app.dispatcher.Run(ctx); err != nil {
			app.logger.Error(ctx, err.Error())
			cancelFunc()
		}
	}()

	wg.Wait()

	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "error closing database", "error", err.Error())
	}
	app.logger.Info(ctx, "Shutdown complete.")
}
