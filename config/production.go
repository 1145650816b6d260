// Package config provides configuration management and environment variable handling for the application
package config

import (
	"bufio"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"
)

// ProductionConfig holds all configuration for production environment
type ProductionConfig struct {
	Database  DatabaseConfig  `json:"database"`
	Server    ServerConfig    `json:"server"`
	Logging   LoggingConfig   `json:"logging"`
	Metrics   MetricsConfig   `json:"metrics"`
	Cache     CacheConfig     `json:"cache"`
	Scoring   ScoringConfig   `json:"scoring"`
	Scheduler SchedulerConfig `json:"scheduler"`
}

type DatabaseConfig struct {
	Host            string        `json:"host"`
	Port            int           `json:"port"`
	Name            string        `json:"name"`
	User            string        `json:"user"`
	Password        string        `json:"password"`
	SSLMode         string        `json:"ssl_mode"`
	MaxOpenConns    int           `json:"max_open_conns"`
	MaxIdleConns    int           `json:"max_idle_conns"`
	ConnMaxLifetime time.Duration `json:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `json:"conn_max_idle_time"`
}

type ServerConfig struct {
	Host            string        `json:"host"`
	Port            int           `json:"port"`
	ReadTimeout     time.Duration `json:"read_timeout"`
	WriteTimeout    time.Duration `json:"write_timeout"`
	IdleTimeout     time.Duration `json:"idle_timeout"`
	ShutdownTimeout time.Duration `json:"shutdown_timeout"`
	BodyLimit       int           `json:"body_limit"`
	GlobalRateLimit int           `json:"global_rate_limit"` // requests per minute
	TrustedProxies  []string      `json:"trusted_proxies"`
	AllowedOrigins  []string      `json:"allowed_origins"`
}

type LoggingConfig struct {
	Level      string `json:"level"`  // debug, info, warn, error
	Output     string `json:"output"` // stdout, file, both
	FilePath   string `json:"file_path"`
	MaxSize    int    `json:"max_size"` // MB
	MaxBackups int    `json:"max_backups"`
	MaxAge     int    `json:"max_age"` // days
	Compress   bool   `json:"compress"`
}

type MetricsConfig struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

type CacheConfig struct {
	Enabled      bool          `json:"enabled"`
	Provider     string        `json:"provider"` // redis, none
	RedisURL     string        `json:"redis_url"`
	RedisDB      int           `json:"redis_db"`
	RedisPrefix  string        `json:"redis_prefix"`
	DefaultTTL   time.Duration `json:"default_ttl"`
	PingInterval time.Duration `json:"ping_interval"`
}

// ScoringWeights encode the business priority of each scoring dimension.
// They must sum to 1.0; LoadProductionConfig fails fast otherwise.
type ScoringWeights struct {
	AudienceMatch     float64 `json:"audience_match"`
	ProductRelevance  float64 `json:"product_relevance"`
	ContentTheme      float64 `json:"content_theme"`
	BrandAlignment    float64 `json:"brand_alignment"`
	BudgetFit         float64 `json:"budget_fit"`
	EngagementQuality float64 `json:"engagement_quality"`
}

// Sum returns the total of all weights
func (w ScoringWeights) Sum() float64 {
	return w.AudienceMatch + w.ProductRelevance + w.ContentTheme +
		w.BrandAlignment + w.BudgetFit + w.EngagementQuality
}

// WeightSumEpsilon is the tolerance when validating that weights sum to 1.0
const WeightSumEpsilon = 1e-6

// Valid reports whether the weights are non-negative and sum to 1.0
func (w ScoringWeights) Valid() bool {
	for _, v := range []float64{
		w.AudienceMatch, w.ProductRelevance, w.ContentTheme,
		w.BrandAlignment, w.BudgetFit, w.EngagementQuality,
	} {
		if v < 0 {
			return false
		}
	}
	return math.Abs(w.Sum()-1.0) <= WeightSumEpsilon
}

// DefaultScoringWeights returns the stock weight distribution
func DefaultScoringWeights() ScoringWeights {
	return ScoringWeights{
		AudienceMatch:     0.25,
		ProductRelevance:  0.20,
		ContentTheme:      0.15,
		BrandAlignment:    0.10,
		BudgetFit:         0.15,
		EngagementQuality: 0.15,
	}
}

type ScoringConfig struct {
	Weights ScoringWeights `json:"weights"`

	// NeutralScore replaces any sub-score whose inputs are missing
	NeutralScore float64 `json:"neutral_score"`

	// BudgetDecayRate controls how fast budget_fit_score falls off when the
	// estimated cost lands outside the campaign's budget range. It is the
	// relative distance at which the score halves.
	BudgetDecayRate float64 `json:"budget_decay_rate"`

	// TopK bounds candidate retrieval from the vector index
	TopK int `json:"top_k"`

	// Concurrency bounds the pair-scoring worker pool
	Concurrency int `json:"concurrency"`

	// ConcernThreshold is the sub-score below which a dimension is listed
	// under potential_concerns in the reasoning payload
	ConcernThreshold float64 `json:"concern_threshold"`

	// DefaultCPM is the fallback benchmark when a podcast's categories carry
	// no entry in CategoryCPM
	DefaultCPM float64 `json:"default_cpm"`

	// CategoryCPM maps podcast categories to benchmark CPM in USD
	CategoryCPM map[string]float64 `json:"category_cpm"`

	// FrequencyAssumption converts reach to impressions
	FrequencyAssumption float64 `json:"frequency_assumption"`

	// UpsertTimeout bounds the drain window for in-flight match writes after
	// a batch is cancelled
	UpsertTimeout time.Duration `json:"upsert_timeout"`
}

type SchedulerConfig struct {
	RescoringEnabled  bool          `json:"rescoring_enabled"`
	RescoringInterval time.Duration `json:"rescoring_interval"`
}

// LoadProductionConfig loads and validates configuration from environment variables
func LoadProductionConfig() (*ProductionConfig, error) {
	// Load environment variables from .env file
	if err := loadEnvFile(); err != nil {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	cfg := &ProductionConfig{
		Database: DatabaseConfig{
			Host:            getEnvString("DB_HOST", "localhost"),
			Port:            getEnvInt("DB_PORT", 5432),
			Name:            getEnvString("DB_NAME", "podmatch"),
			User:            getEnvString("DB_USER", "postgres"),
			Password:        getEnvString("DB_PASSWORD", ""),
			SSLMode:         getEnvString("DB_SSL_MODE", "require"),
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 50),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 10),
			ConnMaxLifetime: getEnvDuration("DB_CONN_MAX_LIFETIME", 30*time.Minute),
			ConnMaxIdleTime: getEnvDuration("DB_CONN_MAX_IDLE_TIME", 15*time.Minute),
		},
		Server: ServerConfig{
			Host:            getEnvString("SERVER_HOST", "0.0.0.0"),
			Port:            getEnvInt("SERVER_PORT", 8080),
			ReadTimeout:     getEnvDuration("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:    getEnvDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
			IdleTimeout:     getEnvDuration("SERVER_IDLE_TIMEOUT", 120*time.Second),
			ShutdownTimeout: getEnvDuration("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second),
			BodyLimit:       getEnvInt("SERVER_BODY_LIMIT", 4*1024*1024), // 4MB
			GlobalRateLimit: getEnvInt("GLOBAL_RATE_LIMIT", 1000),
			TrustedProxies:  getEnvStringSlice("SERVER_TRUSTED_PROXIES", []string{"127.0.0.1"}),
			AllowedOrigins:  getEnvStringSlice("CORS_ALLOWED_ORIGINS", []string{"*"}),
		},
		Logging: LoggingConfig{
			Level:      getEnvString("LOG_LEVEL", "info"),
			Output:     getEnvString("LOG_OUTPUT", "both"),
			FilePath:   getEnvString("LOG_FILE_PATH", "data/podmatch.log"),
			MaxSize:    getEnvInt("LOG_MAX_SIZE", 100),
			MaxBackups: getEnvInt("LOG_MAX_BACKUPS", 10),
			MaxAge:     getEnvInt("LOG_MAX_AGE", 30),
			Compress:   getEnvBool("LOG_COMPRESS", true),
		},
		Metrics: MetricsConfig{
			Enabled: getEnvBool("METRICS_ENABLED", true),
			Path:    getEnvString("METRICS_PATH", "/metrics"),
		},
		Cache: CacheConfig{
			Enabled:      getEnvBool("CACHE_ENABLED", true),
			Provider:     getEnvString("CACHE_PROVIDER", "redis"),
			RedisURL:     getEnvString("CACHE_REDIS_URL", "redis://localhost:6379"),
			RedisDB:      getEnvInt("CACHE_REDIS_DB", 0),
			RedisPrefix:  getEnvString("CACHE_REDIS_PREFIX", "podmatch:"),
			DefaultTTL:   getEnvDuration("CACHE_DEFAULT_TTL", 1*time.Hour),
			PingInterval: getEnvDuration("CACHE_PING_INTERVAL", 30*time.Second),
		},
		Scoring: ScoringConfig{
			Weights: ScoringWeights{
				AudienceMatch:     getEnvFloat("SCORING_WEIGHT_AUDIENCE_MATCH", 0.25),
				ProductRelevance:  getEnvFloat("SCORING_WEIGHT_PRODUCT_RELEVANCE", 0.20),
				ContentTheme:      getEnvFloat("SCORING_WEIGHT_CONTENT_THEME", 0.15),
				BrandAlignment:    getEnvFloat("SCORING_WEIGHT_BRAND_ALIGNMENT", 0.10),
				BudgetFit:         getEnvFloat("SCORING_WEIGHT_BUDGET_FIT", 0.15),
				EngagementQuality: getEnvFloat("SCORING_WEIGHT_ENGAGEMENT_QUALITY", 0.15),
			},
			NeutralScore:        getEnvFloat("SCORING_NEUTRAL_SCORE", 50),
			BudgetDecayRate:     getEnvFloat("SCORING_BUDGET_DECAY_RATE", 0.5),
			TopK:                getEnvInt("SCORING_TOP_K", 50),
			Concurrency:         getEnvInt("SCORING_CONCURRENCY", 8),
			ConcernThreshold:    getEnvFloat("SCORING_CONCERN_THRESHOLD", 40),
			DefaultCPM:          getEnvFloat("SCORING_DEFAULT_CPM", 22.0),
			CategoryCPM:         defaultCategoryCPM(),
			FrequencyAssumption: getEnvFloat("SCORING_FREQUENCY_ASSUMPTION", 1.2),
			UpsertTimeout:       getEnvDuration("SCORING_UPSERT_TIMEOUT", 10*time.Second),
		},
		Scheduler: SchedulerConfig{
			RescoringEnabled:  getEnvBool("SCHEDULER_RESCORING_ENABLED", false),
			RescoringInterval: getEnvDuration("SCHEDULER_RESCORING_INTERVAL", 6*time.Hour),
		},
	}

	// Validate the loaded configuration
	if err := ValidateProductionConfig(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// defaultCategoryCPM returns the stock CPM benchmark table in USD.
// Values follow industry averages for 30s mid-roll placements.
func defaultCategoryCPM() map[string]float64 {
	return map[string]float64{
		"business":              28.50,
		"technology":            26.00,
		"health&fitness":        24.50,
		"education":             23.00,
		"news&politics":         22.00,
		"true_crime":            21.50,
		"society&culture":       20.00,
		"sports":                19.50,
		"comedy":                18.00,
		"science":               23.50,
		"history":               19.00,
		"arts":                  17.50,
		"kids&family":           16.00,
		"music":                 15.50,
		"fiction":               15.00,
		"religion&spirituality": 14.50,
		"leisure":               14.00,
		"government":            13.00,
		"tv&film":               17.00,
	}
}

// loadEnvFile loads environment variables from .env file if it exists
func loadEnvFile() error {
	envFile := ".env"

	// Check if .env file exists
	if _, err := os.Stat(envFile); os.IsNotExist(err) {
		// .env file doesn't exist, continue with environment variables
		return nil
	}

	// Open .env file
	file, err := os.Open(envFile)
	if err != nil {
		return fmt.Errorf("failed to open .env file: %w", err)
	}
	defer file.Close()

	// Read file line by line
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Parse key=value pairs
		if strings.Contains(line, "=") {
			parts := strings.SplitN(line, "=", 2)
			if len(parts) == 2 {
				key := strings.TrimSpace(parts[0])
				value := strings.TrimSpace(parts[1])

				// Remove quotes if present
				if (strings.HasPrefix(value, `"`) && strings.HasSuffix(value, `"`)) ||
					(strings.HasPrefix(value, `'`) && strings.HasSuffix(value, `'`)) {
					value = value[1 : len(value)-1]
				}

				// Set environment variable if not already set
				if os.Getenv(key) == "" {
					os.Setenv(key, value)
				}
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error reading .env file: %w", err)
	}

	return nil
}

// Helper functions for environment variable parsing
func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvStringSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		var result []string
		for _, item := range strings.Split(value, ",") {
			if trimmed := strings.TrimSpace(item); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		if len(result) > 0 {
			return result
		}
	}
	return defaultValue
}

// ValidateProductionConfig validates the production configuration
func ValidateProductionConfig(cfg *ProductionConfig) error {
	var errors []string

	// Validate database configuration
	if cfg.Database.Host == "" {
		errors = append(errors, "DB_HOST is required")
	}
	if cfg.Database.Port <= 0 || cfg.Database.Port > 65535 {
		errors = append(errors, "DB_PORT must be between 1 and 65535")
	}
	if cfg.Database.Name == "" {
		errors = append(errors, "DB_NAME is required")
	}
	if cfg.Database.User == "" {
		errors = append(errors, "DB_USER is required")
	}

	// Validate server configuration
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		errors = append(errors, "SERVER_PORT must be between 1 and 65535")
	}
	if cfg.Server.ReadTimeout <= 0 {
		errors = append(errors, "SERVER_READ_TIMEOUT must be positive")
	}
	if cfg.Server.WriteTimeout <= 0 {
		errors = append(errors, "SERVER_WRITE_TIMEOUT must be positive")
	}

	// Validate logging configuration
	if cfg.Logging.Level != "" {
		validLevels := []string{"debug", "info", "warn", "error"}
		valid := false
		for _, level := range validLevels {
			if cfg.Logging.Level == level {
				valid = true
				break
			}
		}
		if !valid {
			errors = append(errors, fmt.Sprintf("LOG_LEVEL must be one of: %v", validLevels))
		}
	}

	// Validate cache configuration if enabled
	if cfg.Cache.Enabled {
		if cfg.Cache.Provider == "redis" && cfg.Cache.RedisURL == "" {
			errors = append(errors, "CACHE_REDIS_URL is required when cache is enabled with redis provider")
		}
	}

	// Validate scoring configuration. Bad weights block all scoring, so this
	// is fatal at startup rather than checked per batch.
	if !cfg.Scoring.Weights.Valid() {
		errors = append(errors, fmt.Sprintf("scoring weights must be non-negative and sum to 1.0, got %.6f", cfg.Scoring.Weights.Sum()))
	}
	if cfg.Scoring.NeutralScore < 0 || cfg.Scoring.NeutralScore > 100 {
		errors = append(errors, "SCORING_NEUTRAL_SCORE must be within [0,100]")
	}
	if cfg.Scoring.TopK <= 0 {
		errors = append(errors, "SCORING_TOP_K must be positive")
	}
	if cfg.Scoring.Concurrency <= 0 {
		errors = append(errors, "SCORING_CONCURRENCY must be positive")
	}
	if cfg.Scoring.BudgetDecayRate <= 0 {
		errors = append(errors, "SCORING_BUDGET_DECAY_RATE must be positive")
	}
	if cfg.Scoring.DefaultCPM <= 0 {
		errors = append(errors, "SCORING_DEFAULT_CPM must be positive")
	}
	if cfg.Scoring.FrequencyAssumption < 1 {
		errors = append(errors, "SCORING_FREQUENCY_ASSUMPTION must be at least 1")
	}

	// Return validation errors if any
	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errors, "; "))
	}

	return nil
}
