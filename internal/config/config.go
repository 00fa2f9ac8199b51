package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	TelegramBotToken  string        `env:"TELEGRAM_BOT_TOKEN,required"`
	DBHost            string        `env:"DB_HOST,required"`
	DBPort            int           `env:"DB_PORT,default=5432"`
	DBUser            string        `env:"DB_USER,required"`
	DBPassword        string        `env:"DB_PASSWORD,required"`
	DBName            string        `env:"DB_NAME,required"`
	DBSSLMode         string        `env:"DB_SSLMODE,default=disable"`
	DBMaxIdleConns    int           `env:"DB_MAX_IDLE_CONNS,default=5"`
	DBMaxOpenConns    int           `env:"DB_MAX_OPEN_CONNS,default=10"`
	DBConnMaxLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME,default=30m"`

	DiscogsToken        string        `env:"DISCOGS_TOKEN,required"`
	DiscogsBaseURL      string        `env:"DISCOGS_BASE_URL,default=https://api.discogs.com"`
	DiscogsCallsPerMin  int           `env:"DISCOGS_CALLS_PER_MINUTE,default=55"`
	EbayAppID           string        `env:"EBAY_APP_ID,required"`
	EbayCertID          string        `env:"EBAY_CERT_ID,required"`
	EbayBaseURL         string        `env:"EBAY_BASE_URL,default=https://api.ebay.com"`
	EbayCallsPerMin     int           `env:"EBAY_CALLS_PER_MINUTE,default=100"`
	EbaySearchLimit     int           `env:"EBAY_SEARCH_LIMIT,default=200"`
	AffiliateCampaignID string        `env:"AFFILIATE_CAMPAIGN_ID"`
	ProviderTimeout     time.Duration `env:"PROVIDER_TIMEOUT,default=30s"`
	EnrichmentCacheSize int           `env:"ENRICHMENT_CACHE_SIZE,default=4096"`
	FuzzyScoreCutoff    float64       `env:"FUZZY_SCORE_CUTOFF,default=85"`
	FuzzyCandidateLimit int           `env:"FUZZY_CANDIDATE_LIMIT,default=50"`
	CatalogSeedIDs      []int64       `env:"CATALOG_SEED_IDS"`
	PollInterval        time.Duration `env:"POLL_INTERVAL,default=30m"`
	RefreshInterval     time.Duration `env:"REFRESH_INTERVAL,default=24h"`
	RefreshMaxAge       time.Duration `env:"REFRESH_MAX_AGE,default=168h"`
	CleanupSchedule     string        `env:"CLEANUP_SCHEDULE,default=@daily"`
	ListingRetention    time.Duration `env:"LISTING_RETENTION,default=720h"`
	AlertRetention      time.Duration `env:"ALERT_RETENTION,default=2160h"`
	ShutdownGracePeriod time.Duration `env:"SHUTDOWN_GRACE_PERIOD,default=10s"`
	MetricsAddr         string        `env:"METRICS_ADDR,default=:9090"`
	TelegramPollTimeout int           `env:"TELEGRAM_POLL_TIMEOUT,default=60"`
	LogLevel            string        `env:"LOG_LEVEL,default=info"`
	LogFormat           string        `env:"LOG_FORMAT,default=json"`
}

// Load reads an optional .env file (DOTENV_PATH, default ".env") into the
// process environment and then decodes the environment into a Config.
func Load(ctx context.Context) (Config, error) {
	path := os.Getenv("DOTENV_PATH")
	if path == "" {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load %s: %w", path, err)
	}
	return loadFrom(ctx, envconfig.OsLookuper())
}

func loadFrom(ctx context.Context, lookuper envconfig.Lookuper) (Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: lookuper}); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.DiscogsCallsPerMin <= 0 || c.EbayCallsPerMin <= 0 {
		return fmt.Errorf("provider calls per minute must be positive")
	}
	if c.PollInterval <= 0 || c.RefreshInterval <= 0 {
		return fmt.Errorf("loop intervals must be positive")
	}
	if c.RefreshMaxAge < 0 {
		return fmt.Errorf("refresh max age cannot be negative")
	}
	if c.ListingRetention <= 0 || c.AlertRetention <= 0 {
		return fmt.Errorf("retention windows must be positive")
	}
	if c.FuzzyScoreCutoff <= 0 || c.FuzzyScoreCutoff > 100 {
		return fmt.Errorf("fuzzy score cutoff must be in (0, 100], got %v", c.FuzzyScoreCutoff)
	}
	if c.FuzzyCandidateLimit <= 0 {
		return fmt.Errorf("fuzzy candidate limit must be positive")
	}
	if c.EbaySearchLimit <= 0 || c.EbaySearchLimit > 200 {
		return fmt.Errorf("ebay search limit must be in [1, 200], got %d", c.EbaySearchLimit)
	}
	if c.EnrichmentCacheSize < 0 {
		return fmt.Errorf("enrichment cache size cannot be negative")
	}
	if _, err := c.CleanupCron(); err != nil {
		return fmt.Errorf("invalid cleanup schedule %q: %w", c.CleanupSchedule, err)
	}
	return nil
}

// CleanupCron parses CleanupSchedule as a standard cron spec or descriptor
// such as "@daily" or "@every 12h".
func (c Config) CleanupCron() (cron.Schedule, error) {
	return cron.ParseStandard(c.CleanupSchedule)
}
