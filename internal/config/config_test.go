package config

import (
	"testing"
	"time"

	"github.com/Nguyen-Quoc-Vu/covid-19-vietnam/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const defaultBroker = "localhost:9092"

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{defaultBroker}, cfg.KafkaBrokers)
	assert.Equal(t, "covid-raw-series", cfg.KafkaSourceTopic)
	assert.Equal(t, "covid-dashboard-views", cfg.KafkaSinkTopic)
	assert.Equal(t, "covid-dashboard-etl", cfg.KafkaGroupID)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, 50, cfg.BatchSize)
	assert.Equal(t, 500*time.Millisecond, cfg.BatchFlushInterval)
	assert.Equal(t, 4, cfg.TopN)
	assert.Equal(t, 1, cfg.Precision)
	assert.Equal(t, 10, cfg.TableInitialWindow)
	assert.Equal(t, 8, cfg.TableStepSize)
	assert.Equal(t, 4, cfg.TableResetWindow)
}

func TestLoad_CustomEnv(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", "broker1:9092,broker2:9092")
	t.Setenv("KAFKA_SOURCE_TOPIC", "custom-source")
	t.Setenv("KAFKA_SINK_TOPIC", "custom-sink")
	t.Setenv("KAFKA_GROUP_ID", "custom-group")
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("SHUTDOWN_TIMEOUT", "30s")
	t.Setenv("BATCH_SIZE", "100")
	t.Setenv("BATCH_FLUSH_INTERVAL", "1s")
	t.Setenv("DASHBOARD_TOP_N", "5")
	t.Setenv("DASHBOARD_PRECISION", "0")
	t.Setenv("TABLE_INITIAL_WINDOW", "12")
	t.Setenv("TABLE_STEP", "6")
	t.Setenv("TABLE_RESET_WINDOW", "3")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "custom-source", cfg.KafkaSourceTopic)
	assert.Equal(t, "custom-sink", cfg.KafkaSinkTopic)
	assert.Equal(t, "custom-group", cfg.KafkaGroupID)
	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, 100, cfg.BatchSize)
	assert.Equal(t, 1*time.Second, cfg.BatchFlushInterval)
	assert.Equal(t, 5, cfg.TopN)
	assert.Equal(t, 0, cfg.Precision)
	assert.Equal(t, 12, cfg.TableInitialWindow)
	assert.Equal(t, 6, cfg.TableStepSize)
	assert.Equal(t, 3, cfg.TableResetWindow)
}

func TestLoad_InvalidShutdownTimeout(t *testing.T) {
	t.Setenv("SHUTDOWN_TIMEOUT", "not-a-duration")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SHUTDOWN_TIMEOUT")
}

func TestLoad_InvalidBatchSize(t *testing.T) {
	t.Setenv("BATCH_SIZE", "0")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "BATCH_SIZE")
}

func TestLoad_InvalidBatchFlushInterval(t *testing.T) {
	t.Setenv("BATCH_FLUSH_INTERVAL", "not-a-duration")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "BATCH_FLUSH_INTERVAL")
}

func TestLoad_InvalidDashboardSettings(t *testing.T) {
	tests := []struct {
		key   string
		value string
	}{
		{"DASHBOARD_TOP_N", "0"},
		{"DASHBOARD_TOP_N", "four"},
		{"DASHBOARD_PRECISION", "-1"},
		{"TABLE_INITIAL_WINDOW", "0"},
		{"TABLE_STEP", "-8"},
		{"TABLE_RESET_WINDOW", "x"},
	}

	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.key)
		})
	}
}

func TestConfig_ViewOptions(t *testing.T) {
	t.Setenv("DASHBOARD_TOP_N", "6")
	t.Setenv("TABLE_STEP", "5")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, domain.ViewOptions{
		TopN:      6,
		Precision: 1,
		Paginator: domain.PaginatorConfig{InitialWindow: 10, StepSize: 5, ResetWindow: 4},
	}, cfg.ViewOptions())
}
