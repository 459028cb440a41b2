package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/redis/go-redis/v9"
	"google.golang.org/api/option"

	"github.com/teemow/execassist/internal/activity"
	"github.com/teemow/execassist/internal/assistant"
	"github.com/teemow/execassist/internal/availability"
	"github.com/teemow/execassist/internal/booking"
	"github.com/teemow/execassist/internal/calendar"
	"github.com/teemow/execassist/internal/config"
	"github.com/teemow/execassist/internal/gmail"
	"github.com/teemow/execassist/internal/google"
	"github.com/teemow/execassist/internal/instrumentation"
	"github.com/teemow/execassist/internal/intent"
	"github.com/teemow/execassist/internal/llm"
	"github.com/teemow/execassist/internal/logging"
	"github.com/teemow/execassist/internal/notify"
	"github.com/teemow/execassist/internal/tasks"
	"github.com/teemow/execassist/internal/triage"
)

var errNoModel = errors.New("gemini API key is not configured")

// appOptions selects which collaborators a command needs.
type appOptions struct {
	// requireGoogle fails the build when Google credentials are missing.
	requireGoogle bool
	// queue starts the background task workers.
	queue bool
}

// app holds the wired collaborators shared by the commands.
type app struct {
	cfg       *config.Config
	logger    *slog.Logger
	provider  *instrumentation.Provider
	assistant *assistant.Assistant
	// inbox is nil when Gmail is not available.
	inbox    *triage.Processor
	queue    *tasks.Queue
	services map[string]bool
	// checks probe the dependencies for readiness.
	checks  map[string]func(context.Context) error
	closers []func(context.Context) error
}

func buildApp(ctx context.Context, cfg *config.Config, opts appOptions) (_ *app, err error) {
	logger := slog.Default()
	a := &app{
		cfg:      cfg,
		logger:   logger,
		services: make(map[string]bool),
		checks:   make(map[string]func(context.Context) error),
	}
	defer func() {
		if err != nil {
			_ = a.Close(context.Background())
		}
	}()

	instrConfig := instrumentation.DefaultConfig()
	instrConfig.ServiceVersion = version
	instrConfig.CalendarID = cfg.Calendar.ID
	instrConfig.BusinessZone = cfg.Calendar.TimeZone
	instrConfig.Enabled = cfg.Telemetry.Enabled
	instrConfig.MetricsExporter = cfg.Telemetry.MetricsExporter
	instrConfig.TracingExporter = cfg.Telemetry.TracingExporter
	instrConfig.OTLPEndpoint = cfg.Telemetry.OTLPEndpoint
	instrConfig.OTLPInsecure = cfg.Telemetry.OTLPInsecure
	instrConfig.TraceSamplingRate = cfg.Telemetry.TraceSamplingRate
	instrConfig.DetailedLabels = cfg.Telemetry.DetailedLabels

	a.provider, err = instrumentation.NewProvider(ctx, instrConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create instrumentation provider: %w", err)
	}
	a.closers = append(a.closers, a.provider.Shutdown)
	metrics := a.provider.Metrics()

	model, err := buildModel(ctx, cfg, metrics)
	if err != nil {
		return nil, err
	}
	a.services["gemini"] = model != nil
	extractionModel := model
	if extractionModel == nil {
		logger.Warn("no Gemini API key configured, meeting extraction and triage will degrade")
		extractionModel = llm.CompleterFunc(func(context.Context, string) (string, error) {
			return "", errNoModel
		})
	}

	googleOpts, err := googleClientOptions(ctx, cfg)
	switch {
	case err == nil:
		a.services["google"] = true
	case opts.requireGoogle:
		return nil, err
	default:
		logger.Warn("Google services unavailable", logging.Err(err))
		a.services["google"] = false
	}

	store, err := activity.OpenStore(ctx, activity.StoreConfig{
		Backend:    cfg.Store.Backend,
		SQLitePath: cfg.Store.SQLitePath,
		Postgres: activity.PostgresConfig{
			DSN:            cfg.Store.PostgresDSN,
			MaxConnections: cfg.Store.PostgresMaxConns,
			MaxIdle:        cfg.Store.PostgresMaxIdle,
		},
		FirestoreProject: cfg.Store.FirestoreProject,
		FirestoreOptions: googleOpts,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open activity store: %w", err)
	}
	activityLog := activity.NewLog(store, logger, metrics)
	a.closers = append(a.closers, func(context.Context) error { return activityLog.Close() })
	a.services["activity_store"] = true
	a.checks["activity_store"] = func(ctx context.Context) error {
		_, err := activityLog.Recent(ctx, 1)
		return err
	}

	asstCfg := assistant.Config{
		Extractor: intent.NewExtractor(extractionModel, logger),
		Model:     model,
		Activity:  activityLog,
		Location:  cfg.Location(),
		Logger:    logger,
		Metrics:   metrics,
	}

	var gmailClient *gmail.Client
	if googleOpts != nil {
		cal, err := calendar.NewClient(ctx, calendar.Config{CalendarID: cfg.Calendar.ID, Metrics: metrics}, googleOpts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create calendar client: %w", err)
		}
		a.services["calendar"] = true

		busy := availability.BusySource(cal)
		if cfg.Calendar.BusySource == config.BusySourceICS {
			busy = &calendar.ICSSource{
				URL:      cfg.Calendar.ICSURL,
				Client:   &http.Client{Timeout: cfg.Calendar.ICSTimeout},
				Location: cfg.Location(),
			}
		}
		asstCfg.Slots = availability.NewEngine(availability.EngineConfig{
			Source:  busy,
			Options: availabilityOptions(cfg),
			Logger:  logger,
			Metrics: metrics,
		})

		guard, err := a.buildGuard(ctx)
		if err != nil {
			return nil, err
		}
		asstCfg.Booker = booking.NewCommitter(booking.Config{
			Calendar:   cal,
			CalendarID: cfg.Calendar.ID,
			TimeZone:   cfg.Calendar.TimeZone,
			Guard:      guard,
			GuardTTL:   cfg.Guard.TTL,
			Logger:     logger,
			Metrics:    metrics,
		})

		gmailClient, err = gmail.NewClient(ctx, gmail.Config{From: cfg.Mail.From, Metrics: metrics}, googleOpts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create gmail client: %w", err)
		}
		a.services["gmail"] = true
	}

	asstCfg.Mailer, err = buildMailer(ctx, cfg, gmailClient)
	if err != nil {
		return nil, err
	}
	a.services["mailer"] = asstCfg.Mailer != nil
	a.assistant = assistant.New(asstCfg)

	if gmailClient != nil {
		alerter, err := buildAlerter(ctx, cfg)
		if err != nil {
			return nil, err
		}
		a.inbox = triage.NewProcessor(triage.ProcessorConfig{
			Mailbox:     gmailClient,
			Classifier:  triage.NewClassifier(extractionModel, logger),
			Scheduler:   a.assistant,
			Model:       model,
			Alerter:     alerter,
			Activity:    activityLog,
			Query:       cfg.Mail.InboxQuery,
			MaxMessages: cfg.Mail.MaxMessages,
			Logger:      logger,
		})
	}

	if opts.queue {
		a.queue = tasks.NewQueue(tasks.Config{
			Workers: cfg.Tasks.Workers,
			Backlog: cfg.Tasks.Backlog,
			Retain:  cfg.Tasks.Retain,
			Logger:  logger,
			Metrics: metrics,
		})
		a.closers = append(a.closers, a.queue.Close)
	}

	return a, nil
}

// Close releases resources in reverse order of acquisition.
func (a *app) Close(ctx context.Context) error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

func buildModel(ctx context.Context, cfg *config.Config, metrics *instrumentation.Metrics) (llm.Completer, error) {
	if cfg.Gemini.APIKey == "" {
		return nil, nil
	}
	gemini, err := llm.NewGemini(ctx, llm.GeminiConfig{
		APIKey:      cfg.Gemini.APIKey,
		Model:       cfg.Gemini.Model,
		Temperature: cfg.Gemini.Temperature,
		Metrics:     metrics,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return llm.NewLimited(gemini, cfg.Gemini.RatePerSecond, cfg.Gemini.Burst), nil
}

func googleConfig(cfg *config.Config) google.Config {
	gc := google.Config{
		CredentialsJSON: cfg.Google.CredentialsJSON,
		CredentialsFile: cfg.Google.CredentialsFile,
		Subject:         cfg.Google.Subject,
		TokenFile:       cfg.Google.TokenFile,
	}
	if gc.TokenFile == "" {
		gc.TokenFile = google.DefaultTokenFile()
	}
	return gc
}

func googleClientOptions(ctx context.Context, cfg *config.Config) ([]option.ClientOption, error) {
	opts, err := google.ClientOptions(ctx, googleConfig(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to load Google credentials: %w", err)
	}
	return opts, nil
}

func availabilityOptions(cfg *config.Config) availability.Options {
	opts := availability.DefaultOptions()
	opts.Location = cfg.Location()
	opts.OpenHour = cfg.Calendar.OpenHour
	opts.CloseHour = cfg.Calendar.CloseHour
	opts.Step = cfg.Calendar.Step
	opts.MaxSlots = cfg.Calendar.MaxSlots
	return opts
}

func (a *app) buildGuard(ctx context.Context) (booking.SlotGuard, error) {
	switch a.cfg.Guard.Backend {
	case config.GuardNone:
		return nil, nil
	case config.GuardRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     a.cfg.Guard.RedisAddr,
			Password: a.cfg.Guard.RedisPassword,
			DB:       a.cfg.Guard.RedisDB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("failed to connect to redis at %s: %w", a.cfg.Guard.RedisAddr, err)
		}
		a.closers = append(a.closers, func(context.Context) error { return client.Close() })
		a.services["redis"] = true
		a.checks["redis"] = func(ctx context.Context) error { return client.Ping(ctx).Err() }
		return booking.NewRedisGuard(client, a.cfg.Guard.RedisPrefix), nil
	default:
		return booking.NewMemoryGuard(), nil
	}
}

func buildMailer(ctx context.Context, cfg *config.Config, gmailClient *gmail.Client) (notify.Mailer, error) {
	switch cfg.Mail.Mailer {
	case config.MailerNone:
		return nil, nil
	case config.MailerSES:
		m, err := notify.NewSESMailer(ctx, cfg.AWS.Region, cfg.Mail.From)
		if err != nil {
			return nil, fmt.Errorf("failed to create SES mailer: %w", err)
		}
		return m, nil
	default:
		if gmailClient == nil {
			return nil, nil
		}
		return notify.NewGmailMailer(gmailClient), nil
	}
}

func buildAlerter(ctx context.Context, cfg *config.Config) (notify.Alerter, error) {
	if cfg.AWS.SNSTopicARN == "" {
		return notify.NopAlerter{}, nil
	}
	alerter, err := notify.NewSNSAlerter(ctx, cfg.AWS.Region, cfg.AWS.SNSTopicARN)
	if err != nil {
		return nil, fmt.Errorf("failed to create SNS alerter: %w", err)
	}
	return alerter, nil
}
