package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server     ServerConfig
	DB         DBConfig
	Log        LogConfig
	CORS       CORSConfig
	Upload     UploadConfig
	Extractor  ExtractorConfig
	OCR        OCRConfig
	Correction CorrectionConfig
	Validation ValidationConfig
	Confidence ConfidenceConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	Environment  string        `mapstructure:"environment"`
}

// DBConfig holds PostgreSQL connection settings.
type DBConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
	MaxOpen  int    `mapstructure:"max_open"`
	MaxIdle  int    `mapstructure:"max_idle"`
}

// DSN returns the PostgreSQL connection string.
func (d *DBConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// CORSConfig holds CORS settings.
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// UploadConfig holds upload limits.
type UploadConfig struct {
	MaxFileSizeMB int64 `mapstructure:"max_file_size_mb"`
}

// MaxFileSizeBytes returns the upload limit in bytes.
func (u *UploadConfig) MaxFileSizeBytes() int64 {
	return u.MaxFileSizeMB << 20
}

// ExtractorProviderConfig holds settings for a single extraction provider.
type ExtractorProviderConfig struct {
	Provider     string `mapstructure:"provider"`
	APIKey       string `mapstructure:"api_key"`
	DefaultModel string `mapstructure:"default_model"`
	TimeoutSecs  int    `mapstructure:"timeout_secs"`
}

// ExtractorConfig holds extraction settings with multi-provider support.
type ExtractorConfig struct {
	Primary   ExtractorProviderConfig `mapstructure:"primary"`
	Secondary ExtractorProviderConfig `mapstructure:"secondary"`
}

// SecondaryConfig returns the secondary provider config, or nil if not configured.
func (e *ExtractorConfig) SecondaryConfig() *ExtractorProviderConfig {
	if e.Secondary.Provider != "" {
		return &e.Secondary
	}
	return nil
}

// OCRConfig holds Azure Computer Vision settings. An empty endpoint disables
// OCR; scanned documents then fail with a typed error.
type OCRConfig struct {
	Endpoint string `mapstructure:"endpoint"`
	APIKey   string `mapstructure:"api_key"`
}

// Enabled reports whether an OCR backend is configured.
func (o *OCRConfig) Enabled() bool {
	return o.Endpoint != "" && o.APIKey != ""
}

// CorrectionConfig bounds the correction loop.
type CorrectionConfig struct {
	MaxRounds   int `mapstructure:"max_rounds"`
	TimeoutSecs int `mapstructure:"timeout_secs"`
}

// ValidationConfig holds the numeric comparison tolerances.
type ValidationConfig struct {
	AbsoluteTolerance     float64 `mapstructure:"absolute_tolerance"`
	RelativeTolerance     float64 `mapstructure:"relative_tolerance"`
	LineAbsoluteTolerance float64 `mapstructure:"line_absolute_tolerance"`
}

// ConfidenceConfig holds the aggregation thresholds.
type ConfidenceConfig struct {
	LowFieldThreshold    float64 `mapstructure:"low_field_threshold"`
	MediumFieldThreshold float64 `mapstructure:"medium_field_threshold"`
}

// Load reads configuration from environment variables with the DOCPARSE_ prefix.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("DOCPARSE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Server defaults
	v.SetDefault("server.port", ":8080")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "300s")
	v.SetDefault("server.environment", "development")

	// DB defaults
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.user", "docparse")
	v.SetDefault("db.password", "docparse_secret")
	v.SetDefault("db.name", "docparse_db")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.max_open", 25)
	v.SetDefault("db.max_idle", 10)

	// Log defaults
	v.SetDefault("log.level", "debug")
	v.SetDefault("log.format", "console")

	// CORS defaults (localhost origins for development)
	v.SetDefault("cors.allowed_origins", []string{"http://localhost:3000"})

	// Upload defaults
	v.SetDefault("upload.max_file_size_mb", 50)

	// Extractor defaults
	v.SetDefault("extractor.primary.provider", "openai")
	v.SetDefault("extractor.primary.api_key", "")
	v.SetDefault("extractor.primary.default_model", "gpt-4o")
	v.SetDefault("extractor.primary.timeout_secs", 120)
	v.SetDefault("extractor.secondary.provider", "")
	v.SetDefault("extractor.secondary.api_key", "")
	v.SetDefault("extractor.secondary.default_model", "")
	v.SetDefault("extractor.secondary.timeout_secs", 120)

	// OCR defaults
	v.SetDefault("ocr.endpoint", "")
	v.SetDefault("ocr.api_key", "")

	// Correction defaults
	v.SetDefault("correction.max_rounds", 2)
	v.SetDefault("correction.timeout_secs", 120)

	// Validation tolerance defaults
	v.SetDefault("validation.absolute_tolerance", 0.02)
	v.SetDefault("validation.relative_tolerance", 0.01)
	v.SetDefault("validation.line_absolute_tolerance", 0.05)

	// Confidence threshold defaults
	v.SetDefault("confidence.low_field_threshold", 0.5)
	v.SetDefault("confidence.medium_field_threshold", 0.35)

	// Bind environment variables explicitly for nested keys
	envBindings := map[string]string{
		"server.port":          "DOCPARSE_SERVER_PORT",
		"server.read_timeout":  "DOCPARSE_SERVER_READ_TIMEOUT",
		"server.write_timeout": "DOCPARSE_SERVER_WRITE_TIMEOUT",
		"server.environment":   "DOCPARSE_SERVER_ENVIRONMENT",
		"db.host":              "DOCPARSE_DB_HOST",
		"db.port":              "DOCPARSE_DB_PORT",
		"db.user":              "DOCPARSE_DB_USER",
		"db.password":          "DOCPARSE_DB_PASSWORD",
		"db.name":              "DOCPARSE_DB_NAME",
		"db.sslmode":           "DOCPARSE_DB_SSLMODE",
		"db.max_open":          "DOCPARSE_DB_MAX_OPEN",
		"db.max_idle":          "DOCPARSE_DB_MAX_IDLE",
		"log.level":            "DOCPARSE_LOG_LEVEL",
		"log.format":           "DOCPARSE_LOG_FORMAT",
		"cors.allowed_origins": "DOCPARSE_CORS_ALLOWED_ORIGINS",

		"upload.max_file_size_mb": "DOCPARSE_UPLOAD_MAX_FILE_SIZE_MB",

		"extractor.primary.provider":        "DOCPARSE_EXTRACTOR_PRIMARY_PROVIDER",
		"extractor.primary.api_key":         "DOCPARSE_EXTRACTOR_PRIMARY_API_KEY",
		"extractor.primary.default_model":   "DOCPARSE_EXTRACTOR_PRIMARY_DEFAULT_MODEL",
		"extractor.primary.timeout_secs":    "DOCPARSE_EXTRACTOR_PRIMARY_TIMEOUT_SECS",
		"extractor.secondary.provider":      "DOCPARSE_EXTRACTOR_SECONDARY_PROVIDER",
		"extractor.secondary.api_key":       "DOCPARSE_EXTRACTOR_SECONDARY_API_KEY",
		"extractor.secondary.default_model": "DOCPARSE_EXTRACTOR_SECONDARY_DEFAULT_MODEL",
		"extractor.secondary.timeout_secs":  "DOCPARSE_EXTRACTOR_SECONDARY_TIMEOUT_SECS",

		"ocr.endpoint": "DOCPARSE_OCR_ENDPOINT",
		"ocr.api_key":  "DOCPARSE_OCR_API_KEY",

		"correction.max_rounds":   "DOCPARSE_CORRECTION_MAX_ROUNDS",
		"correction.timeout_secs": "DOCPARSE_CORRECTION_TIMEOUT_SECS",

		"validation.absolute_tolerance":      "DOCPARSE_VALIDATION_ABSOLUTE_TOLERANCE",
		"validation.relative_tolerance":      "DOCPARSE_VALIDATION_RELATIVE_TOLERANCE",
		"validation.line_absolute_tolerance": "DOCPARSE_VALIDATION_LINE_ABSOLUTE_TOLERANCE",

		"confidence.low_field_threshold":    "DOCPARSE_CONFIDENCE_LOW_FIELD_THRESHOLD",
		"confidence.medium_field_threshold": "DOCPARSE_CONFIDENCE_MEDIUM_FIELD_THRESHOLD",
	}
	for key, env := range envBindings {
		_ = v.BindEnv(key, env)
	}

	cfg := &Config{}

	// Railway/Heroku/Render set a PORT env var. Use it if DOCPARSE_SERVER_PORT is not explicitly set.
	serverPort := v.GetString("server.port")
	if port := os.Getenv("PORT"); port != "" && os.Getenv("DOCPARSE_SERVER_PORT") == "" {
		serverPort = ":" + port
	}

	cfg.Server = ServerConfig{
		Port:         serverPort,
		ReadTimeout:  v.GetDuration("server.read_timeout"),
		WriteTimeout: v.GetDuration("server.write_timeout"),
		Environment:  v.GetString("server.environment"),
	}
	cfg.DB = DBConfig{
		Host:     v.GetString("db.host"),
		Port:     v.GetInt("db.port"),
		User:     v.GetString("db.user"),
		Password: v.GetString("db.password"),
		Name:     v.GetString("db.name"),
		SSLMode:  v.GetString("db.sslmode"),
		MaxOpen:  v.GetInt("db.max_open"),
		MaxIdle:  v.GetInt("db.max_idle"),
	}
	cfg.Log = LogConfig{
		Level:  v.GetString("log.level"),
		Format: v.GetString("log.format"),
	}
	cfg.CORS = CORSConfig{
		AllowedOrigins: v.GetStringSlice("cors.allowed_origins"),
	}
	cfg.Upload = UploadConfig{
		MaxFileSizeMB: v.GetInt64("upload.max_file_size_mb"),
	}
	cfg.Extractor = ExtractorConfig{
		Primary: ExtractorProviderConfig{
			Provider:     v.GetString("extractor.primary.provider"),
			APIKey:       v.GetString("extractor.primary.api_key"),
			DefaultModel: v.GetString("extractor.primary.default_model"),
			TimeoutSecs:  v.GetInt("extractor.primary.timeout_secs"),
		},
		Secondary: ExtractorProviderConfig{
			Provider:     v.GetString("extractor.secondary.provider"),
			APIKey:       v.GetString("extractor.secondary.api_key"),
			DefaultModel: v.GetString("extractor.secondary.default_model"),
			TimeoutSecs:  v.GetInt("extractor.secondary.timeout_secs"),
		},
	}
	cfg.OCR = OCRConfig{
		Endpoint: v.GetString("ocr.endpoint"),
		APIKey:   v.GetString("ocr.api_key"),
	}
	cfg.Correction = CorrectionConfig{
		MaxRounds:   v.GetInt("correction.max_rounds"),
		TimeoutSecs: v.GetInt("correction.timeout_secs"),
	}
	cfg.Validation = ValidationConfig{
		AbsoluteTolerance:     v.GetFloat64("validation.absolute_tolerance"),
		RelativeTolerance:     v.GetFloat64("validation.relative_tolerance"),
		LineAbsoluteTolerance: v.GetFloat64("validation.line_absolute_tolerance"),
	}
	cfg.Confidence = ConfidenceConfig{
		LowFieldThreshold:    v.GetFloat64("confidence.low_field_threshold"),
		MediumFieldThreshold: v.GetFloat64("confidence.medium_field_threshold"),
	}

	if cfg.Correction.MaxRounds < 0 {
		return nil, fmt.Errorf("correction.max_rounds must be >= 0, got %d", cfg.Correction.MaxRounds)
	}

	return cfg, nil
}
