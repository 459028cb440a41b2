package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "EXECASSIST"

// legacyEnv maps configuration keys to the environment variable names used
// before the EXECASSIST_ prefix was introduced.
var legacyEnv = map[string]string{
	"gemini.api_key":          "GEMINI_API_KEY",
	"google.credentials_json": "GOOGLE_CREDENTIALS_JSON",
	"mail.from":               "FROM_EMAIL",
	"aws.region":              "AWS_REGION",
}

// flagKeys maps command-line flag names to configuration keys.
var flagKeys = map[string]string{
	"debug":        "log.debug",
	"log-format":   "log.format",
	"http-addr":    "server.addr",
	"metrics-addr": "server.metrics_addr",
}

// Options controls where Load looks for settings.
type Options struct {
	// File is an explicit YAML config file. Without it, config.yaml is
	// searched in the working directory and ./configs.
	File string
	// EnvFiles are loaded into the process environment if they exist.
	// Variables already set are not overridden.
	EnvFiles []string
	// Flags are bound by name where they match a known setting.
	Flags *pflag.FlagSet
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.debug", false)
	v.SetDefault("log.format", "text")

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.metrics_addr", ":9090")
	v.SetDefault("server.metrics_enabled", true)
	v.SetDefault("server.shutdown_timeout", 15*time.Second)

	v.SetDefault("gemini.api_key", "")
	v.SetDefault("gemini.model", "gemini-2.0-flash-001")
	v.SetDefault("gemini.temperature", 0.2)
	v.SetDefault("gemini.rate_per_second", 1.0)
	v.SetDefault("gemini.burst", 3)

	v.SetDefault("google.credentials_json", "")
	v.SetDefault("google.credentials_file", "")
	v.SetDefault("google.subject", "")
	v.SetDefault("google.token_file", "")

	v.SetDefault("calendar.id", "primary")
	v.SetDefault("calendar.time_zone", "America/New_York")
	v.SetDefault("calendar.open_hour", 9)
	v.SetDefault("calendar.close_hour", 17)
	v.SetDefault("calendar.step", 30*time.Minute)
	v.SetDefault("calendar.max_slots", 5)
	v.SetDefault("calendar.busy_source", BusySourceGoogle)
	v.SetDefault("calendar.ics_url", "")
	v.SetDefault("calendar.ics_timeout", 10*time.Second)

	v.SetDefault("mail.from", "")
	v.SetDefault("mail.mailer", MailerGmail)
	v.SetDefault("mail.inbox_query", "is:unread newer_than:1d")
	v.SetDefault("mail.max_messages", 50)

	v.SetDefault("aws.region", "")
	v.SetDefault("aws.sns_topic_arn", "")

	v.SetDefault("store.backend", "memory")
	v.SetDefault("store.sqlite_path", "execassist.db")
	v.SetDefault("store.postgres_dsn", "")
	v.SetDefault("store.postgres_max_conns", 10)
	v.SetDefault("store.postgres_max_idle", 2)
	v.SetDefault("store.firestore_project", "")

	v.SetDefault("guard.backend", GuardMemory)
	v.SetDefault("guard.ttl", 30*time.Second)
	v.SetDefault("guard.redis_addr", "")
	v.SetDefault("guard.redis_password", "")
	v.SetDefault("guard.redis_db", 0)
	v.SetDefault("guard.redis_prefix", "execassist:slot:")

	v.SetDefault("tasks.workers", 2)
	v.SetDefault("tasks.backlog", 16)
	v.SetDefault("tasks.retain", 100)

	v.SetDefault("telemetry.enabled", true)
	v.SetDefault("telemetry.metrics_exporter", "prometheus")
	v.SetDefault("telemetry.tracing_exporter", "none")
	v.SetDefault("telemetry.otlp_endpoint", "")
	v.SetDefault("telemetry.otlp_insecure", false)
	v.SetDefault("telemetry.trace_sampling_rate", 0.1)
	v.SetDefault("telemetry.detailed_labels", false)
}

// Load builds and validates the configuration.
func Load(opts Options) (*Config, error) {
	loadEnvFiles(opts.EnvFiles)

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	for key, legacy := range legacyEnv {
		envName := EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, envName, legacy); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", legacy, err)
		}
	}

	if err := readConfigFile(v, opts.File); err != nil {
		return nil, err
	}

	if opts.Flags != nil {
		for name, key := range flagKeys {
			if f := opts.Flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("failed to bind flag %s: %w", name, err)
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func readConfigFile(v *viper.Viper, file string) error {
	v.SetConfigType("yaml")
	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read config file %s: %w", file, err)
		}
		return nil
	}

	v.SetConfigName("config")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("error reading config: %w", err)
		}
	}
	return nil
}

func loadEnvFiles(paths []string) {
	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		// godotenv.Load never overrides variables that are already set.
		_ = godotenv.Load(path)
	}
}
