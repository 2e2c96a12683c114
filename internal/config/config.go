package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/retrodocs/digitizer/internal/core/domain"
)

type Config struct {
	APIPort           string `yaml:"api_port"`
	LogLevel          string `yaml:"log_level"`
	WorkerMetricsPort string `yaml:"worker_metrics_port"`

	NATSURL     string `yaml:"nats_url"`
	NATSSubject string `yaml:"nats_subject"`

	LLMBaseURL           string  `yaml:"llm_base_url"`
	LLMAPIKey            string  `yaml:"llm_api_key"`
	LLMModel             string  `yaml:"llm_model"`
	LLMRequestsPerSecond float64 `yaml:"llm_requests_per_second"`

	SourceDir    string `yaml:"source_dir"`
	ExtractedDir string `yaml:"extracted_dir"`
	AssetsDir    string `yaml:"assets_dir"`
	EnhancedDir  string `yaml:"enhanced_dir"`
	FinalDir     string `yaml:"final_dir"`

	PipelineWorkers    int    `yaml:"pipeline_workers"`
	FallbackOCREnabled bool   `yaml:"fallback_ocr_enabled"`
	OCRLanguages       string `yaml:"ocr_languages"`

	RetryMaxAttempts      int `yaml:"retry_max_attempts"`
	RetryInitialBackoffMS int `yaml:"retry_initial_backoff_ms"`
	RetryMaxBackoffMS     int `yaml:"retry_max_backoff_ms"`
}

func defaults() Config {
	return Config{
		APIPort:           "8080",
		LogLevel:          "info",
		WorkerMetricsPort: "9090",

		NATSURL:     "nats://localhost:4222",
		NATSSubject: "documents.queued",

		LLMModel:             "gpt-4o",
		LLMRequestsPerSecond: 1,

		SourceDir:    "./data/source",
		ExtractedDir: "./data/extracted",
		AssetsDir:    "./data/assets",
		EnhancedDir:  "./data/enhanced",
		FinalDir:     "./data/final",

		PipelineWorkers:    1,
		FallbackOCREnabled: true,
		OCRLanguages:       "eng",

		RetryMaxAttempts:      3,
		RetryInitialBackoffMS: 1000,
		RetryMaxBackoffMS:     10000,
	}
}

// Load builds the configuration from defaults, an optional YAML file named
// by DIGITIZER_CONFIG, and finally the environment. Env vars always win.
func Load() (Config, error) {
	cfg := defaults()

	if path := os.Getenv("DIGITIZER_CONFIG"); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	applyEnv(&cfg)
	return cfg, nil
}

// Validate is called once at startup. Missing model credentials make the
// whole pipeline refuse to start rather than fail every document one by one.
func (c Config) Validate() error {
	var missing []string
	if strings.TrimSpace(c.LLMBaseURL) == "" {
		missing = append(missing, "LLM_BASE_URL")
	}
	if strings.TrimSpace(c.LLMAPIKey) == "" {
		missing = append(missing, "LLM_API_KEY")
	}
	if len(missing) > 0 {
		return domain.WrapError(
			domain.ErrMissingCredentials,
			"validate config",
			fmt.Errorf("required settings not set: %s", strings.Join(missing, ", ")),
		)
	}
	return nil
}

func applyEnv(cfg *Config) {
	cfg.APIPort = envStr("API_PORT", cfg.APIPort)
	cfg.LogLevel = envStr("LOG_LEVEL", cfg.LogLevel)
	cfg.WorkerMetricsPort = envStr("WORKER_METRICS_PORT", cfg.WorkerMetricsPort)

	cfg.NATSURL = envStr("NATS_URL", cfg.NATSURL)
	cfg.NATSSubject = envStr("NATS_SUBJECT", cfg.NATSSubject)

	cfg.LLMBaseURL = envStr("LLM_BASE_URL", cfg.LLMBaseURL)
	cfg.LLMAPIKey = envStr("LLM_API_KEY", cfg.LLMAPIKey)
	cfg.LLMModel = envStr("LLM_MODEL", cfg.LLMModel)
	cfg.LLMRequestsPerSecond = envFloat("LLM_REQUESTS_PER_SECOND", cfg.LLMRequestsPerSecond)

	cfg.SourceDir = envStr("SOURCE_DIR", cfg.SourceDir)
	cfg.ExtractedDir = envStr("EXTRACTED_DIR", cfg.ExtractedDir)
	cfg.AssetsDir = envStr("ASSETS_DIR", cfg.AssetsDir)
	cfg.EnhancedDir = envStr("ENHANCED_DIR", cfg.EnhancedDir)
	cfg.FinalDir = envStr("FINAL_DIR", cfg.FinalDir)

	cfg.PipelineWorkers = envInt("PIPELINE_WORKERS", cfg.PipelineWorkers)
	cfg.FallbackOCREnabled = envBool("FALLBACK_OCR_ENABLED", cfg.FallbackOCREnabled)
	cfg.OCRLanguages = envStr("OCR_LANGUAGES", cfg.OCRLanguages)

	cfg.RetryMaxAttempts = envInt("RETRY_MAX_ATTEMPTS", cfg.RetryMaxAttempts)
	cfg.RetryInitialBackoffMS = envInt("RETRY_INITIAL_BACKOFF_MS", cfg.RetryInitialBackoffMS)
	cfg.RetryMaxBackoffMS = envInt("RETRY_MAX_BACKOFF_MS", cfg.RetryMaxBackoffMS)
}

func envStr(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func envFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

func envBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return parsed
}
