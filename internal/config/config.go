package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	PipelineConfig string
	InputDir       string
	CacheDir       string
	OutputDir      string

	HTTPAddr        string
	ServeAfterRun   bool
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	FetchTimeout time.Duration
	FetchMaxAge  time.Duration
	FetchRetries int

	// Kafka publication is disabled when KafkaBrokers is empty.
	KafkaBrokers   []string
	KafkaSinkTopic string

	ExportFormats []string
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	fetchTimeout, err := parseDuration("FETCH_TIMEOUT", "60s")
	if err != nil {
		return nil, err
	}
	if fetchTimeout <= 0 {
		return nil, errors.New("invalid FETCH_TIMEOUT")
	}
	fetchMaxAge, err := parseDuration("FETCH_MAX_AGE", "0")
	if err != nil {
		return nil, err
	}

	fetchRetries, err := strconv.Atoi(sharedcfg.EnvOrDefault("FETCH_RETRIES", "5"))
	if err != nil || fetchRetries < 0 {
		return nil, errors.New("invalid FETCH_RETRIES")
	}

	serveAfterRun, err := strconv.ParseBool(sharedcfg.EnvOrDefault("SERVE_AFTER_RUN", "false"))
	if err != nil {
		return nil, errors.New("invalid SERVE_AFTER_RUN")
	}

	var brokers []string
	if v := strings.TrimSpace(os.Getenv("KAFKA_BROKERS")); v != "" {
		brokers = sharedcfg.ParseBrokers(v)
	}

	inputDir := sharedcfg.EnvOrDefault("INPUT_DIR", "input")
	cfg := &Config{
		PipelineConfig:  sharedcfg.EnvOrDefault("PIPELINE_CONFIG", "pipeline.yml"),
		InputDir:        inputDir,
		CacheDir:        sharedcfg.EnvOrDefault("CACHE_DIR", inputDir+"/original_data"),
		OutputDir:       sharedcfg.EnvOrDefault("OUTPUT_DIR", "output"),
		HTTPAddr:        os.Getenv("HTTP_ADDR"),
		ServeAfterRun:   serveAfterRun,
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,
		FetchTimeout:    fetchTimeout,
		FetchMaxAge:     fetchMaxAge,
		FetchRetries:    fetchRetries,
		KafkaBrokers:    brokers,
		KafkaSinkTopic:  sharedcfg.EnvOrDefault("KAFKA_SINK_TOPIC", "renewable-power-plants"),
		ExportFormats:   splitList(sharedcfg.EnvOrDefault("EXPORT_FORMATS", "csv,xlsx,sqlite")),
	}
	if _, set := os.LookupEnv("HTTP_ADDR"); !set {
		cfg.HTTPAddr = ":8080"
	}

	if cfg.OutputDir == "" {
		return nil, errors.New("OUTPUT_DIR is required")
	}
	if len(cfg.KafkaBrokers) > 0 && cfg.KafkaSinkTopic == "" {
		return nil, errors.New("KAFKA_SINK_TOPIC is required when KAFKA_BROKERS is set")
	}
	if cfg.ServeAfterRun && cfg.HTTPAddr == "" {
		return nil, errors.New("SERVE_AFTER_RUN requires HTTP_ADDR")
	}

	return cfg, nil
}

// KafkaEnabled reports whether master records are published to Kafka.
func (c *Config) KafkaEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

func parseDuration(key, def string) (time.Duration, error) {
	s := sharedcfg.EnvOrDefault(key, def)
	if s == "0" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil || d < 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
