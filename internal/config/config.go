package config

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

const configPathEnv = "PAPERWATCH_CONFIG"

// Config holds all configuration for the application
type Config struct {
	// File paths
	FeedsCSVPath string `yaml:"feedsCsvPath"`
	DBPath       string `yaml:"dbPath"`

	// Server settings
	ServerHost string `yaml:"serverHost"`
	ServerPort int    `yaml:"serverPort"`
	APIKey     string `yaml:"apiKey"`

	// Sync settings
	WorkerCount     int           `yaml:"workerCount"`
	RunInterval     time.Duration `yaml:"-"`
	StalenessWindow time.Duration `yaml:"-"`
	FetchTimeout    time.Duration `yaml:"-"`
	HTTPConcurrency int           `yaml:"httpConcurrency"`

	// Classification settings
	Classify ClassifyConfig `yaml:"classify"`

	// Translation settings
	Translate TranslateConfig `yaml:"translate"`

	// Log settings
	LogLevel zerolog.Level `yaml:"-"`
}

// ClassifyConfig describes the embedding service and the decision threshold.
type ClassifyConfig struct {
	EmbeddingURL    string  `yaml:"embeddingUrl"`
	EmbeddingAPIKey string  `yaml:"embeddingApiKey"`
	Threshold       float64 `yaml:"threshold"`
	PivotLanguage   string  `yaml:"pivotLanguage"`
}

// TranslateConfig describes the remote translation API and cache bounds.
type TranslateConfig struct {
	Endpoint       string        `yaml:"endpoint"`
	APIKey         string        `yaml:"apiKey"`
	TargetLanguage string        `yaml:"targetLanguage"`
	CacheTTL       time.Duration `yaml:"-"`
	CacheSize      int           `yaml:"cacheSize"`
}

// DefaultConfig returns an initial configuration with hardcoded defaults,
// then applies the optional YAML file named by PAPERWATCH_CONFIG and
// environment variable overrides. Flags are bound on top by the caller.
func DefaultConfig() *Config {
	logLevel, _ := zerolog.ParseLevel(DefaultLogLevel)

	cfg := &Config{
		FeedsCSVPath:    DefaultFeedsCSVPath,
		DBPath:          DefaultDBPath,
		ServerHost:      DefaultServerHost,
		ServerPort:      DefaultServerPort,
		APIKey:          GetEnvString("PAPERWATCH_API_KEY", ""),
		WorkerCount:     DefaultWorkerCount,
		RunInterval:     time.Duration(DefaultRunInterval) * time.Minute,
		StalenessWindow: time.Duration(DefaultStalenessWindow) * time.Minute,
		FetchTimeout:    time.Duration(DefaultFetchTimeoutSec) * time.Second,
		HTTPConcurrency: DefaultHTTPConcurrency,
		Classify: ClassifyConfig{
			Threshold:     DefaultClassifyThreshold,
			PivotLanguage: DefaultPivotLanguage,
		},
		Translate: TranslateConfig{
			TargetLanguage: DefaultTranslateTarget,
			CacheTTL:       time.Duration(DefaultTranslateCacheTTL) * time.Minute,
			CacheSize:      DefaultCacheSize,
		},
		LogLevel: logLevel,
	}

	if path := os.Getenv(configPathEnv); path != "" {
		if err := cfg.loadFile(path); err != nil {
			log.Warn().Err(err).Str("path", path).Msg("Cannot load config file, using defaults")
		}
	}

	cfg.applyEnvOverrides()
	return cfg
}

// loadFile merges a YAML configuration file over the current values.
func (c *Config) loadFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(raw, c); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

func (c *Config) applyEnvOverrides() {
	c.DBPath = GetEnvString("PAPERWATCH_DB_PATH", c.DBPath)
	c.FeedsCSVPath = GetEnvString("PAPERWATCH_CSV_PATH", c.FeedsCSVPath)
	c.StalenessWindow = GetEnvDuration("PAPERWATCH_STALENESS", c.StalenessWindow)
	c.FetchTimeout = GetEnvDuration("PAPERWATCH_FETCH_TIMEOUT", c.FetchTimeout)
	c.HTTPConcurrency = GetEnvInt("PAPERWATCH_HTTP_CONCURRENCY", c.HTTPConcurrency)
	c.Classify.EmbeddingURL = GetEnvString("PAPERWATCH_EMBEDDING_URL", c.Classify.EmbeddingURL)
	c.Classify.EmbeddingAPIKey = GetEnvString("PAPERWATCH_EMBEDDING_API_KEY", c.Classify.EmbeddingAPIKey)
	c.Translate.Endpoint = GetEnvString("PAPERWATCH_TRANSLATE_URL", c.Translate.Endpoint)
	c.Translate.APIKey = GetEnvString("PAPERWATCH_TRANSLATE_API_KEY", c.Translate.APIKey)
	c.Translate.TargetLanguage = GetEnvString("PAPERWATCH_TRANSLATE_TARGET", c.Translate.TargetLanguage)
	c.LogLevel = GetEnvLogLevel("PAPERWATCH_LOG_LEVEL", c.LogLevel)
}

// ListenAddr returns the formatted listen address for the HTTP server.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.ServerHost, c.ServerPort)
}
