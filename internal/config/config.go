package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Ticket source kinds.
const (
	SourceCSV      = "csv"
	SourcePostgres = "postgres"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App       AppConfig
	Source    SourceConfig
	Postgres  PostgresConfig
	Redis     RedisConfig
	Logger    LoggerConfig
	Analytics AnalyticsConfig
	Tagging   TaggingConfig
	OpenAI    OpenAIConfig
	Journal   JournalConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// SourceConfig selects where tickets are loaded from at startup.
type SourceConfig struct {
	Kind    string
	CSVPath string
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN             string
	ApplicationName string
	MaxConns        int32
	MinConns        int32
	RunMigrations   bool
	ConnMaxIdleSec  int32
	ConnMaxLifeSec  int32
	// WriteBackTags persists tag assignments to support_tickets when tickets come from Postgres.
	WriteBackTags bool
}

// RedisConfig holds Redis connection values. An empty Addr disables Redis.
type RedisConfig struct {
	Addr         string
	Password     string
	DB           int
	SummariesKey string
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level  string
	Format string
}

// AnalyticsConfig tunes spike detection.
type AnalyticsConfig struct {
	SpikeThreshold float64
}

// TaggingConfig controls calls to the classifier and summarizer.
type TaggingConfig struct {
	AutoTagBatchSize int
	SummaryBatchSize int
	TimeoutSeconds   int
	MaxRetries       int
	AutoTagSchedule  string
	VocabularyCSV    string
}

// OpenAIConfig holds model API settings. An empty APIKey disables tagging and summaries.
type OpenAIConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

// JournalConfig locates the file journal for generated summaries.
type JournalConfig struct {
	Path string
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	threshold, err := strconv.ParseFloat(getEnv("SPIKE_THRESHOLD", "2.0"), 64)
	if err != nil || threshold <= 0 {
		return nil, fmt.Errorf("invalid SPIKE_THRESHOLD %q", os.Getenv("SPIKE_THRESHOLD"))
	}

	source := strings.ToLower(getEnv("TICKETS_SOURCE", SourceCSV))
	if source != SourceCSV && source != SourcePostgres {
		return nil, fmt.Errorf("invalid TICKETS_SOURCE %q: want %s or %s", source, SourceCSV, SourcePostgres)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "support-insights"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Source: SourceConfig{
			Kind:    source,
			CSVPath: getEnv("TICKETS_CSV_PATH", "support_tickets.csv"),
		},
		Postgres: PostgresConfig{
			DSN:             os.Getenv("POSTGRES_DSN"),
			ApplicationName: getEnv("POSTGRES_APPLICATION_NAME", "support-insights"),
			MaxConns:        int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:        int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:   getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			ConnMaxIdleSec:  int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec:  int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
			WriteBackTags:   getEnvAsBool("POSTGRES_WRITE_BACK_TAGS", true),
		},
		Redis: RedisConfig{
			Addr:         os.Getenv("REDIS_ADDR"),
			Password:     os.Getenv("REDIS_PASSWORD"),
			DB:           redisDB,
			SummariesKey: getEnv("REDIS_SUMMARIES_KEY", "support-insights:summaries"),
		},
		Logger: LoggerConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Analytics: AnalyticsConfig{
			SpikeThreshold: threshold,
		},
		Tagging: TaggingConfig{
			AutoTagBatchSize: getEnvAsInt("AUTOTAG_BATCH_SIZE", 10),
			SummaryBatchSize: getEnvAsInt("SUMMARY_BATCH_SIZE", 25),
			TimeoutSeconds:   getEnvAsInt("LLM_TIMEOUT_SECONDS", 20),
			MaxRetries:       getEnvAsInt("LLM_MAX_RETRIES", 2),
			AutoTagSchedule:  os.Getenv("AUTOTAG_SCHEDULE"),
			VocabularyCSV:    os.Getenv("TAG_VOCABULARY"),
		},
		OpenAI: OpenAIConfig{
			APIKey:  os.Getenv("OPENAI_API_KEY"),
			Model:   getEnv("OPENAI_MODEL", "gpt-3.5-turbo"),
			BaseURL: os.Getenv("OPENAI_BASE_URL"),
		},
		Journal: JournalConfig{
			Path: getEnv("SUMMARY_JOURNAL_PATH", "summaries.txt"),
		},
	}

	return cfg, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// Timeout bounds a single classifier or summarizer call.
func (t TaggingConfig) Timeout() time.Duration {
	if t.TimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(t.TimeoutSeconds) * time.Second
}

// Vocabulary splits VocabularyCSV; nil means the built-in list.
func (t TaggingConfig) Vocabulary() []string {
	var out []string
	for _, part := range strings.Split(t.VocabularyCSV, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, strings.ToLower(part))
		}
	}
	return out
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
