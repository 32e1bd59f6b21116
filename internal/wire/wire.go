// Package wire provides dependency injection for the plotsync application.
// It creates singleton services with lazy initialization.
package wire

import (
	"database/sql"
	"io"
	"log"
	"log/slog"
	"os"
	"sync"

	"github.com/bwmarrin/discordgo"

	cliadapter "github.com/example/plotsync/internal/adapters/cli"
	"github.com/example/plotsync/internal/adapters/discord"
	"github.com/example/plotsync/internal/adapters/notify"
	"github.com/example/plotsync/internal/adapters/postgres"
	"github.com/example/plotsync/internal/adapters/sqlite"
	"github.com/example/plotsync/internal/adapters/webhook"
	"github.com/example/plotsync/internal/app"
	"github.com/example/plotsync/internal/config"
	"github.com/example/plotsync/internal/db"
	"github.com/example/plotsync/internal/ports/primary"
	"github.com/example/plotsync/internal/ports/secondary"
	"github.com/example/plotsync/internal/version"
)

var (
	configPath string
	daemon     bool

	cfg                *config.Config
	database           *sql.DB
	session            *discordgo.Session
	logger             *slog.Logger
	tagRegistry        *app.TagRegistry
	plotSyncService    primary.PlotSyncService
	interactionService primary.InteractionService
	once               sync.Once
)

// SetConfigPath selects the config file read on first use. Empty means the default path.
func SetConfigPath(path string) {
	configPath = path
}

// ConfigPath returns the config file in use.
func ConfigPath() string {
	if configPath != "" {
		return configPath
	}
	path, err := config.DefaultPath()
	if err != nil {
		log.Fatalf("failed to resolve config path: %v", err)
	}
	return path
}

// SetDaemon switches notifications from colored console lines to structured
// JSON log records. Call it before the first service is requested.
func SetDaemon(on bool) {
	daemon = on
}

// Config returns the loaded configuration.
func Config() *config.Config {
	once.Do(initServices)
	return cfg
}

// Logger returns the process logger.
func Logger() *slog.Logger {
	once.Do(initServices)
	return logger
}

// Database returns the tracking store connection.
func Database() *sql.DB {
	once.Do(initServices)
	return database
}

// Session returns the bot session used by the forum gateway.
func Session() *discordgo.Session {
	once.Do(initServices)
	return session
}

// TagRegistry returns the singleton tag registry. Bind it before the first update.
func TagRegistry() *app.TagRegistry {
	once.Do(initServices)
	return tagRegistry
}

// PlotSyncService returns the singleton PlotSyncService instance.
func PlotSyncService() primary.PlotSyncService {
	once.Do(initServices)
	return plotSyncService
}

// InteractionService returns the singleton InteractionService instance.
func InteractionService() primary.InteractionService {
	once.Do(initServices)
	return interactionService
}

// initServices initializes all services and their dependencies.
// This is called once via sync.Once.
func initServices() {
	var err error
	cfg, err = config.Load(ConfigPath())
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if daemon {
		logger = slog.New(slog.NewJSONHandler(os.Stderr, nil))
	} else {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	}
	logger = logger.With("app", "plotsync")

	// Get database connection
	var dialect db.Dialect
	database, dialect, err = db.Open(cfg.Database.DSN)
	if err != nil {
		log.Fatalf("failed to initialize database: %v", err)
	}

	// Create repository adapters (secondary ports) for the selected dialect
	var (
		trackingRepo secondary.TrackingRepository
		plotRepo     secondary.PlotRepository
		eventLogRepo secondary.EventLogRepository
	)
	switch dialect {
	case db.DialectPostgres:
		trackingRepo = postgres.NewTrackingRepository(database)
		plotRepo = postgres.NewPlotRepository(database)
		eventLogRepo = postgres.NewEventLogRepository(database)
	default:
		trackingRepo = sqlite.NewTrackingRepository(database)
		plotRepo = sqlite.NewPlotRepository(database)
		eventLogRepo = sqlite.NewEventLogRepository(database)
	}
	eventLog := sqlite.NewLogWriterAdapter(eventLogRepo)

	// Remote gateways
	session, err = discordgo.New("Bot " + cfg.Discord.Token)
	if err != nil {
		log.Fatalf("failed to create bot session: %v", err)
	}
	session.UserAgent = "plotsync (" + version.String() + ")"
	forum := discord.NewForumGateway(session)
	layouts := webhook.NewClient(webhook.ClientOptions{
		BaseURL:   cfg.Webhook.BaseURL,
		WebhookID: cfg.Webhook.ID,
		Token:     cfg.Webhook.Token,
	})
	var showcase secondary.LayoutGateway
	if cfg.Showcase.ID != "" {
		showcase = webhook.NewClient(webhook.ClientOptions{
			BaseURL:   cfg.Showcase.BaseURL,
			WebhookID: cfg.Showcase.ID,
			Token:     cfg.Showcase.Token,
		})
	}

	var notifier secondary.Notifier = notify.NewSlogNotifier(logger)
	if !daemon {
		notifier = notify.Fanout{notifier, notify.NewConsoleNotifier(os.Stderr)}
	}

	retry := app.NewRetryPolicy(cfg.RetryDelay())
	tagRegistry = app.NewTagRegistry(forum, app.TagRegistryOptions{
		ForumID:  cfg.Discord.ForumChannelID,
		Statuses: cfg.Statuses,
		TTL:      cfg.TagCacheTTL(),
		Retry:    retry,
		Logger:   logger,
	})

	// Create effect executor with injected gateways
	executor := app.NewEffectExecutor(layouts, forum, retry)

	// Create services (primary ports implementation)
	updates := app.NewPlotUpdateService(app.PlotUpdateDeps{
		Tracking: trackingRepo,
		Layouts:  layouts,
		Forum:    forum,
		Tags:     tagRegistry,
		Executor: executor,
		Notifier: notifier,
		EventLog: eventLog,
		Retry:    retry,
		Options: app.UpdateOptions{
			HistoryMax:         cfg.Layout.HistoryMax,
			ArchivePrefix:      cfg.Archive.Prefix,
			AutoArchiveMinutes: cfg.Archive.AutoArchiveMinutes,
		},
	})
	plotSyncService = app.NewPlotSyncService(updates, plotRepo, eventLogRepo, showcase)
	interactionService = app.NewInteractionService(trackingRepo, plotRepo, cfg.Plots.MapURL, cfg.Plots.HelpURL)
}

// PlotAdapter returns a new PlotAdapter writing to stdout.
// Each call creates a new adapter (adapters are stateless translators).
func PlotAdapter() *cliadapter.PlotAdapter {
	return PlotAdapterWithOutput(os.Stdout)
}

// PlotAdapterWithOutput returns a new PlotAdapter writing to the given output.
// This variant allows testing or alternate output destinations.
func PlotAdapterWithOutput(out io.Writer) *cliadapter.PlotAdapter {
	once.Do(initServices)
	return cliadapter.NewPlotAdapter(plotSyncService, out)
}

// TagAdapter returns a new TagAdapter writing to stdout.
func TagAdapter() *cliadapter.TagAdapter {
	once.Do(initServices)
	return cliadapter.NewTagAdapter(tagRegistry, os.Stdout)
}

// InteractionRouter returns a router dispatching button presses to the interaction service.
func InteractionRouter() *discord.InteractionRouter {
	once.Do(initServices)
	return discord.NewInteractionRouter(interactionService, logger)
}
