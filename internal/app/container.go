// Package app wires configuration into the application's object graph.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"golang.org/x/oauth2"
	_ "modernc.org/sqlite" // sqlite driver for the optional archive

	availabilityApp "untangle/internal/availability/application"
	availability "untangle/internal/availability/domain"
	calendarDomain "untangle/internal/calendar/domain"
	"untangle/internal/calendar/infrastructure/cache"
	"untangle/internal/calendar/infrastructure/caldav"
	"untangle/internal/calendar/infrastructure/microsoft"
	conflictsApp "untangle/internal/conflicts/application"
	conflictsDomain "untangle/internal/conflicts/domain"
	memoryApp "untangle/internal/memory/application"
	memoryDomain "untangle/internal/memory/domain"
	"untangle/internal/memory/infrastructure/persistence"
	priorityDomain "untangle/internal/priority/domain"
	resolutionApp "untangle/internal/resolution/application"
	resolutionDomain "untangle/internal/resolution/domain"
	"untangle/internal/resolution/infrastructure/advisor"
	"untangle/internal/rules"
	"untangle/internal/shared/infrastructure/eventbus"
	"untangle/pkg/config"
	"untangle/pkg/observability"
)

// ErrNoCalendarSource is returned by operations that need a calendar when no
// provider is configured.
var ErrNoCalendarSource = errors.New("no calendar provider configured")

// Container holds all application dependencies.
type Container struct {
	Config   *config.Config
	Logger   *slog.Logger
	Location *time.Location

	// Calendar
	Source   calendarDomain.Source
	FreeBusy calendarDomain.FreeBusyProvider

	// Redis
	RedisClient *redis.Client

	// Publishers
	EventPublisher eventbus.Publisher

	// Rule sets
	PriorityRules priorityDomain.RuleSet
	IgnoreRules   []conflictsDomain.IgnoreRule
	Thresholds    []resolutionDomain.ThresholdRule

	// Decision memory
	DecisionLog *persistence.FileDecisionLog
	Archive     memoryDomain.DecisionRepository

	// Services
	Detector   *conflictsApp.Detector
	Resolver   *resolutionDomain.Resolver
	Refiner    *resolutionApp.Refiner
	Executor   *resolutionApp.Executor
	SlotFinder *availabilityApp.SlotFinder
	Recorder   *memoryApp.Recorder
	Insights   *memoryApp.Insights

	rabbit   *eventbus.RabbitMQPublisher
	sqliteDB *sql.DB
	pgPool   *pgxpool.Pool
}

// NewContainer creates and wires all dependencies from configuration. The
// returned container must be closed when the process finishes.
func NewContainer(ctx context.Context, cfg *config.Config) (*Container, error) {
	logger := observability.NewLogger(observability.LogConfig{
		Level:       cfg.LogLevel,
		Format:      observability.LogFormatText,
		ServiceName: "untangle",
	})

	location, err := cfg.Location()
	if err != nil {
		return nil, fmt.Errorf("resolving time zone %q: %w", cfg.TimeZone, err)
	}

	c := &Container{
		Config:   cfg,
		Logger:   logger,
		Location: location,
	}

	if err := c.initRules(); err != nil {
		return nil, err
	}
	if err := c.initCalendar(); err != nil {
		return nil, err
	}
	if err := c.initEventBus(); err != nil {
		return nil, err
	}
	if err := c.initMemory(ctx); err != nil {
		c.Close()
		return nil, err
	}
	c.initServices()

	return c, nil
}

func (c *Container) initRules() error {
	cfg := c.Config

	priorityRules, err := rules.LoadPriorityRules(cfg.PriorityRulesPath)
	if err != nil {
		return err
	}
	ignoreRules, err := rules.LoadIgnoreRules(cfg.IgnoreRulesPath)
	if err != nil {
		return err
	}
	thresholds, err := rules.LoadThresholds(cfg.ThresholdsPath)
	if err != nil {
		return err
	}

	c.PriorityRules = priorityRules
	c.IgnoreRules = ignoreRules
	c.Thresholds = thresholds
	return nil
}

func (c *Container) initCalendar() error {
	cfg := c.Config

	switch cfg.CalendarProvider {
	case "microsoft":
		if cfg.GraphToken == "" {
			return fmt.Errorf("calendar provider %q requires UNTANGLE_GRAPH_TOKEN", cfg.CalendarProvider)
		}
		tokens := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.GraphToken})
		client := microsoft.NewClientWithBaseURL(tokens, c.Logger, cfg.GraphBaseURL)
		c.Source = client
		c.FreeBusy = client
	case "caldav":
		if cfg.CalDAVBaseURL == "" {
			return fmt.Errorf("calendar provider %q requires UNTANGLE_CALDAV_URL", cfg.CalendarProvider)
		}
		// CalDAV exposes no cross-attendee free/busy query; the slot search
		// degrades to the user's own events.
		c.Source = caldav.NewSource(cfg.CalDAVBaseURL, cfg.CalDAVUsername, cfg.CalDAVPassword, c.Logger)
	case "":
		// No provider. Commands that only read the decision log still work.
	default:
		return fmt.Errorf("unknown calendar provider %q", cfg.CalendarProvider)
	}

	if c.FreeBusy != nil && cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("parsing REDIS_URL: %w", err)
		}
		c.RedisClient = redis.NewClient(opts)
		c.FreeBusy = cache.NewFreeBusyCache(c.FreeBusy, c.RedisClient, cfg.FreeBusyTTL, c.Logger)
	}
	return nil
}

func (c *Container) initEventBus() error {
	if c.Config.RabbitMQURL == "" {
		return nil
	}
	publisher, err := eventbus.NewRabbitMQPublisher(c.Config.RabbitMQURL, c.Logger)
	if err != nil {
		return fmt.Errorf("connecting to RabbitMQ: %w", err)
	}
	c.rabbit = publisher
	c.EventPublisher = publisher
	return nil
}

func (c *Container) initMemory(ctx context.Context) error {
	cfg := c.Config

	c.DecisionLog = persistence.NewFileDecisionLog(cfg.DecisionsDir, c.Logger)

	switch cfg.ArchiveDriver {
	case "sqlite":
		if cfg.SQLitePath == "" {
			return fmt.Errorf("archive driver %q requires UNTANGLE_SQLITE_PATH", cfg.ArchiveDriver)
		}
		db, err := sql.Open("sqlite", cfg.SQLitePath)
		if err != nil {
			return fmt.Errorf("opening sqlite archive: %w", err)
		}
		c.sqliteDB = db
		repo := persistence.NewSQLiteDecisionRepository(db)
		if err := repo.EnsureSchema(ctx); err != nil {
			return fmt.Errorf("preparing sqlite archive: %w", err)
		}
		c.Archive = repo
	case "postgres":
		if cfg.PostgresURL == "" {
			return fmt.Errorf("archive driver %q requires DATABASE_URL", cfg.ArchiveDriver)
		}
		pool, err := pgxpool.New(ctx, cfg.PostgresURL)
		if err != nil {
			return fmt.Errorf("connecting to postgres archive: %w", err)
		}
		c.pgPool = pool
		repo := persistence.NewPostgresDecisionRepository(pool)
		if err := repo.EnsureSchema(ctx); err != nil {
			return fmt.Errorf("preparing postgres archive: %w", err)
		}
		c.Archive = repo
	case "":
		// No archive; the file log is the only store.
	default:
		return fmt.Errorf("unknown archive driver %q", cfg.ArchiveDriver)
	}
	return nil
}

func (c *Container) initServices() {
	cfg := c.Config

	c.Detector = conflictsApp.NewDetector(c.Source, c.IgnoreRules, c.EventPublisher, c.Logger)
	c.Resolver = resolutionDomain.NewResolver(c.Thresholds)
	c.Executor = resolutionApp.NewExecutor(c.Source, c.Logger)
	c.SlotFinder = availabilityApp.NewSlotFinder(c.Source, c.FreeBusy, c.Logger)

	var advisorClient resolutionApp.Advisor
	if cfg.AdvisorEndpoint != "" {
		advisorClient = advisor.NewClient(cfg.AdvisorEndpoint, cfg.AdvisorAPIKey, cfg.AdvisorModel, cfg.AdvisorTimeout, c.Logger)
	}
	refinerConfig := resolutionApp.DefaultRefinerConfig()
	refinerConfig.Timeout = cfg.AdvisorTimeout
	c.Refiner = resolutionApp.NewRefiner(advisorClient, c.EventPublisher, refinerConfig, c.Logger)

	retention := time.Duration(cfg.DecisionRetention) * 24 * time.Hour
	c.Recorder = memoryApp.NewRecorder(c.DecisionLog, c.Archive, c.EventPublisher, c.Logger, cfg.DecisionSalt, retention)
	c.Insights = memoryApp.NewInsights(c.DecisionLog, memoryDomain.MiningConfig{
		MinSamples:   cfg.PatternMinSamples,
		MinBucket:    cfg.PatternMinBucket,
		ApprovalRate: cfg.PatternApprovalRate,
	})
}

// SearchParams builds slot search parameters from configuration, anchored at
// now.
func (c *Container) SearchParams(now time.Time) availability.SearchParams {
	cfg := c.Config

	holidays := make(map[string]struct{}, len(cfg.Holidays))
	for _, day := range cfg.Holidays {
		holidays[day] = struct{}{}
	}

	params := availability.DefaultSearchParams(now, c.Location)
	params.WindowDays = cfg.SearchWindowDays
	params.BusinessDayStart = cfg.BusinessDayStart
	params.BusinessDayEnd = cfg.BusinessDayEnd
	params.Step = cfg.SlotStep
	params.MaxResults = cfg.MaxSlotResults
	params.Holidays = holidays
	return params
}

// Close releases all held connections. Safe to call on a partially built
// container.
func (c *Container) Close() {
	if c.rabbit != nil {
		if err := c.rabbit.Close(); err != nil {
			c.Logger.Warn("closing RabbitMQ publisher", "error", err)
		}
	}
	if c.RedisClient != nil {
		if err := c.RedisClient.Close(); err != nil {
			c.Logger.Warn("closing Redis client", "error", err)
		}
	}
	if c.sqliteDB != nil {
		if err := c.sqliteDB.Close(); err != nil {
			c.Logger.Warn("closing sqlite archive", "error", err)
		}
	}
	if c.pgPool != nil {
		c.pgPool.Close()
	}
}
