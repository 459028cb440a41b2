package config

import (
	"errors"
	"fmt"
	"time"
)

// Busy sources.
const (
	BusySourceGoogle = "google"
	BusySourceICS    = "ics"
)

// Mailers.
const (
	MailerGmail = "gmail"
	MailerSES   = "ses"
	MailerNone  = "none"
)

// Slot guards.
const (
	GuardMemory = "memory"
	GuardRedis  = "redis"
	GuardNone   = "none"
)

// Config is the complete application configuration.
type Config struct {
	Log       LogConfig       `mapstructure:"log"`
	Server    ServerConfig    `mapstructure:"server"`
	Gemini    GeminiConfig    `mapstructure:"gemini"`
	Google    GoogleConfig    `mapstructure:"google"`
	Calendar  CalendarConfig  `mapstructure:"calendar"`
	Mail      MailConfig      `mapstructure:"mail"`
	AWS       AWSConfig       `mapstructure:"aws"`
	Store     StoreConfig     `mapstructure:"store"`
	Guard     GuardConfig     `mapstructure:"guard"`
	Tasks     TasksConfig     `mapstructure:"tasks"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

type LogConfig struct {
	Debug  bool   `mapstructure:"debug"`
	Format string `mapstructure:"format"`
}

type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	MetricsAddr     string        `mapstructure:"metrics_addr"`
	MetricsEnabled  bool          `mapstructure:"metrics_enabled"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// GeminiConfig configures the language model and its client-side rate limit.
type GeminiConfig struct {
	APIKey      string  `mapstructure:"api_key"`
	Model       string  `mapstructure:"model"`
	Temperature float32 `mapstructure:"temperature"`
	// RatePerSecond <= 0 disables throttling.
	RatePerSecond float64 `mapstructure:"rate_per_second"`
	Burst         int     `mapstructure:"burst"`
}

type GoogleConfig struct {
	CredentialsJSON string `mapstructure:"credentials_json"`
	CredentialsFile string `mapstructure:"credentials_file"`
	// Subject is impersonated by service account credentials.
	Subject   string `mapstructure:"subject"`
	TokenFile string `mapstructure:"token_file"`
}

// CalendarConfig describes the calendar being scheduled and its business hours.
type CalendarConfig struct {
	ID         string        `mapstructure:"id"`
	TimeZone   string        `mapstructure:"time_zone"`
	OpenHour   int           `mapstructure:"open_hour"`
	CloseHour  int           `mapstructure:"close_hour"`
	Step       time.Duration `mapstructure:"step"`
	MaxSlots   int           `mapstructure:"max_slots"`
	BusySource string        `mapstructure:"busy_source"`
	ICSURL     string        `mapstructure:"ics_url"`
	ICSTimeout time.Duration `mapstructure:"ics_timeout"`
}

type MailConfig struct {
	From        string `mapstructure:"from"`
	Mailer      string `mapstructure:"mailer"`
	InboxQuery  string `mapstructure:"inbox_query"`
	MaxMessages int64  `mapstructure:"max_messages"`
}

type AWSConfig struct {
	Region      string `mapstructure:"region"`
	SNSTopicARN string `mapstructure:"sns_topic_arn"`
}

type StoreConfig struct {
	Backend          string `mapstructure:"backend"`
	SQLitePath       string `mapstructure:"sqlite_path"`
	PostgresDSN      string `mapstructure:"postgres_dsn"`
	PostgresMaxConns int    `mapstructure:"postgres_max_conns"`
	PostgresMaxIdle  int    `mapstructure:"postgres_max_idle"`
	FirestoreProject string `mapstructure:"firestore_project"`
}

type GuardConfig struct {
	Backend       string        `mapstructure:"backend"`
	TTL           time.Duration `mapstructure:"ttl"`
	RedisAddr     string        `mapstructure:"redis_addr"`
	RedisPassword string        `mapstructure:"redis_password"`
	RedisDB       int           `mapstructure:"redis_db"`
	RedisPrefix   string        `mapstructure:"redis_prefix"`
}

type TasksConfig struct {
	Workers int `mapstructure:"workers"`
	Backlog int `mapstructure:"backlog"`
	Retain  int `mapstructure:"retain"`
}

type TelemetryConfig struct {
	Enabled           bool    `mapstructure:"enabled"`
	MetricsExporter   string  `mapstructure:"metrics_exporter"`
	TracingExporter   string  `mapstructure:"tracing_exporter"`
	OTLPEndpoint      string  `mapstructure:"otlp_endpoint"`
	OTLPInsecure      bool    `mapstructure:"otlp_insecure"`
	TraceSamplingRate float64 `mapstructure:"trace_sampling_rate"`
	DetailedLabels    bool    `mapstructure:"detailed_labels"`
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error

	if c.Log.Format != "json" && c.Log.Format != "text" {
		errs = append(errs, fmt.Errorf("log.format must be json or text, got %q", c.Log.Format))
	}
	if c.Calendar.OpenHour < 0 || c.Calendar.CloseHour > 24 || c.Calendar.OpenHour >= c.Calendar.CloseHour {
		errs = append(errs, fmt.Errorf("calendar business hours %d-%d are invalid", c.Calendar.OpenHour, c.Calendar.CloseHour))
	}
	if _, err := time.LoadLocation(c.Calendar.TimeZone); err != nil {
		errs = append(errs, fmt.Errorf("calendar.time_zone: %w", err))
	}

	switch c.Calendar.BusySource {
	case BusySourceGoogle:
	case BusySourceICS:
		if c.Calendar.ICSURL == "" {
			errs = append(errs, errors.New("calendar.ics_url is required when busy_source is ics"))
		}
	default:
		errs = append(errs, fmt.Errorf("calendar.busy_source must be google or ics, got %q", c.Calendar.BusySource))
	}

	switch c.Mail.Mailer {
	case MailerGmail, MailerNone:
	case MailerSES:
		if c.Mail.From == "" {
			errs = append(errs, errors.New("mail.from is required for the ses mailer"))
		}
		if c.AWS.Region == "" {
			errs = append(errs, errors.New("aws.region is required for the ses mailer"))
		}
	default:
		errs = append(errs, fmt.Errorf("mail.mailer must be gmail, ses or none, got %q", c.Mail.Mailer))
	}

	if c.AWS.SNSTopicARN != "" && c.AWS.Region == "" {
		errs = append(errs, errors.New("aws.region is required when aws.sns_topic_arn is set"))
	}

	switch c.Store.Backend {
	case "memory", "sqlite":
	case "postgres":
		if c.Store.PostgresDSN == "" {
			errs = append(errs, errors.New("store.postgres_dsn is required for the postgres backend"))
		}
	case "firestore":
		if c.Store.FirestoreProject == "" {
			errs = append(errs, errors.New("store.firestore_project is required for the firestore backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown store.backend %q", c.Store.Backend))
	}

	switch c.Guard.Backend {
	case GuardMemory, GuardNone:
	case GuardRedis:
		if c.Guard.RedisAddr == "" {
			errs = append(errs, errors.New("guard.redis_addr is required for the redis guard"))
		}
	default:
		errs = append(errs, fmt.Errorf("guard.backend must be memory, redis or none, got %q", c.Guard.Backend))
	}

	if c.Tasks.Workers < 1 {
		errs = append(errs, errors.New("tasks.workers must be at least 1"))
	}

	return errors.Join(errs...)
}

// Location returns the configured business time zone.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Calendar.TimeZone)
	if err != nil {
		return time.UTC
	}
	return loc
}
