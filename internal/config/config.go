package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/Nguyen-Quoc-Vu/covid-19-vietnam/internal/domain"
	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	KafkaBrokers     []string
	KafkaSourceTopic string
	KafkaSinkTopic   string
	KafkaGroupID     string
	HTTPAddr         string
	LogLevel         string
	LogFormat        string
	ShutdownTimeout  time.Duration

	BatchSize          int
	BatchFlushInterval time.Duration

	// Dashboard view settings.
	TopN      int
	Precision int

	// Table pagination windows.
	TableInitialWindow int
	TableStepSize      int
	TableResetWindow   int
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	batchSize, err := sharedcfg.ParseBatchSize()
	if err != nil {
		return nil, err
	}

	flushInterval, err := sharedcfg.ParseBatchFlushInterval()
	if err != nil {
		return nil, err
	}

	topN, err := parseInt("DASHBOARD_TOP_N", 4, 1)
	if err != nil {
		return nil, err
	}
	precision, err := parseInt("DASHBOARD_PRECISION", 1, 0)
	if err != nil {
		return nil, err
	}
	initialWindow, err := parseInt("TABLE_INITIAL_WINDOW", 10, 1)
	if err != nil {
		return nil, err
	}
	stepSize, err := parseInt("TABLE_STEP", 8, 1)
	if err != nil {
		return nil, err
	}
	resetWindow, err := parseInt("TABLE_RESET_WINDOW", 4, 1)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		KafkaBrokers:       sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaSourceTopic:   sharedcfg.EnvOrDefault("KAFKA_SOURCE_TOPIC", "covid-raw-series"),
		KafkaSinkTopic:     sharedcfg.EnvOrDefault("KAFKA_SINK_TOPIC", "covid-dashboard-views"),
		KafkaGroupID:       sharedcfg.EnvOrDefault("KAFKA_GROUP_ID", "covid-dashboard-etl"),
		HTTPAddr:           sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:           sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:          sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout:    shutdownTimeout,
		BatchSize:          batchSize,
		BatchFlushInterval: flushInterval,

		TopN:      topN,
		Precision: precision,

		TableInitialWindow: initialWindow,
		TableStepSize:      stepSize,
		TableResetWindow:   resetWindow,
	}

	if len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_BROKERS is required")
	}
	if cfg.KafkaSourceTopic == "" {
		return nil, errors.New("KAFKA_SOURCE_TOPIC is required")
	}
	if cfg.KafkaSinkTopic == "" {
		return nil, errors.New("KAFKA_SINK_TOPIC is required")
	}

	return cfg, nil
}

// ViewOptions converts the dashboard settings into view-building options.
func (c *Config) ViewOptions() domain.ViewOptions {
	return domain.ViewOptions{
		TopN:      c.TopN,
		Precision: c.Precision,
		Paginator: domain.PaginatorConfig{
			InitialWindow: c.TableInitialWindow,
			StepSize:      c.TableStepSize,
			ResetWindow:   c.TableResetWindow,
		},
	}
}

// parseInt reads an integer env var, falling back to def when unset and
// rejecting values below minimum.
func parseInt(key string, def, minimum int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < minimum {
		return 0, fmt.Errorf("invalid %s: must be an integer >= %d", key, minimum)
	}
	return n, nil
}
