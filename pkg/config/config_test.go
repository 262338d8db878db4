package config_test

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/sgevolve/pkg/config"
	"github.com/Sumatoshi-tech/sgevolve/pkg/seqio"
)

func validConfig() config.Config {
	return config.Config{
		Evolve:  config.EvolveConfig{CheckLevel: config.DefaultCheckLevel},
		Output:  config.OutputConfig{WrapWidth: config.DefaultWrapWidth, Compression: config.DefaultCompression},
		Logging: config.LoggingConfig{Level: config.DefaultLogLevel, Format: config.DefaultLogFormat},
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*config.Config)
		target error
	}{
		{name: "defaults", mutate: func(*config.Config) {}},
		{name: "check level too high", mutate: func(c *config.Config) { c.Evolve.CheckLevel = 3 }, target: config.ErrInvalidCheckLevel},
		{name: "negative check level", mutate: func(c *config.Config) { c.Evolve.CheckLevel = -1 }, target: config.ErrInvalidCheckLevel},
		{name: "zero wrap width", mutate: func(c *config.Config) { c.Output.WrapWidth = 0 }, target: config.ErrInvalidWrapWidth},
		{name: "unknown compression", mutate: func(c *config.Config) { c.Output.Compression = "zip" }, target: seqio.ErrUnknownCompression},
		{name: "unknown log format", mutate: func(c *config.Config) { c.Logging.Format = "xml" }, target: config.ErrInvalidLogFormat},
		{name: "sample ratio above one", mutate: func(c *config.Config) { c.Telemetry.SampleRatio = 1.5 }, target: config.ErrInvalidSampleRatio},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := validConfig()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.target == nil {
				require.NoError(t, err)

				return
			}

			require.ErrorIs(t, err, tt.target)
		})
	}
}

func TestValidateRejectsUnknownLogLevel(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	cfg.Logging.Level = "chatty"

	require.Error(t, cfg.Validate())
}

func TestDerivedOptions(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	cfg.Evolve.CheckLevel = 2
	cfg.Output.WrapWidth = 60
	cfg.Output.IncludeAncestors = true
	cfg.Output.Compression = "LZ4"
	cfg.Logging.Level = "debug"
	cfg.Logging.Format = config.LogFormatJSON
	cfg.Telemetry = config.TelemetryConfig{
		OTLPEndpoint: "collector:4317",
		OTLPInsecure: true,
		OTLPHeaders:  "x-team=genomics",
		Environment:  "ci",
		SampleRatio:  0.5,
		MetricsFile:  "run.prom",
	}

	assert.Equal(t, 2, cfg.EvolveOptions().CheckLevel)
	assert.Equal(t, 60, cfg.OutputOptions().Width)
	assert.True(t, cfg.OutputOptions().IncludeAncestors)
	assert.Equal(t, seqio.CompressionLZ4, cfg.Compression())

	obsCfg, err := cfg.ObservabilityConfig("1.2.3")
	require.NoError(t, err)

	assert.Equal(t, "sgevolve", obsCfg.ServiceName)
	assert.Equal(t, "1.2.3", obsCfg.ServiceVersion)
	assert.Equal(t, "ci", obsCfg.Environment)
	assert.Equal(t, "collector:4317", obsCfg.OTLPEndpoint)
	assert.True(t, obsCfg.OTLPInsecure)
	assert.Equal(t, map[string]string{"x-team": "genomics"}, obsCfg.OTLPHeaders)
	assert.InDelta(t, 0.5, obsCfg.SampleRatio, 1e-9)
	assert.Equal(t, "run.prom", obsCfg.MetricsFile)
	assert.Equal(t, slog.LevelDebug, obsCfg.LogLevel)
	assert.True(t, obsCfg.LogJSON)
}

func TestLoadConfig_EmptyFileUsesDefaults(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "sgevolve.yaml")
	require.NoError(t, os.WriteFile(path, []byte(""), 0o600))

	cfg, err := config.LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, config.DefaultCheckLevel, cfg.Evolve.CheckLevel)
	assert.Equal(t, config.DefaultWrapWidth, cfg.Output.WrapWidth)
	assert.Equal(t, config.DefaultIncludeAncestors, cfg.Output.IncludeAncestors)
	assert.Equal(t, config.DefaultCompression, cfg.Output.Compression)
	assert.Equal(t, config.DefaultLogLevel, cfg.Logging.Level)
	assert.Equal(t, config.DefaultLogFormat, cfg.Logging.Format)
	assert.Empty(t, cfg.Telemetry.OTLPEndpoint)
	assert.Empty(t, cfg.Telemetry.MetricsFile)
}

func TestLoadConfig_ValidFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "sgevolve.yaml")
	content := `evolve:
  check_level: 2
output:
  wrap_width: 70
  include_ancestors: true
  compression: lz4
logging:
  level: warn
  format: json
telemetry:
  otlp_endpoint: localhost:4317
  sample_ratio: 0.25
  metrics_file: /tmp/sgevolve.prom
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := config.LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 2, cfg.Evolve.CheckLevel)
	assert.Equal(t, 70, cfg.Output.WrapWidth)
	assert.True(t, cfg.Output.IncludeAncestors)
	assert.Equal(t, "lz4", cfg.Output.Compression)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, config.LogFormatJSON, cfg.Logging.Format)
	assert.Equal(t, "localhost:4317", cfg.Telemetry.OTLPEndpoint)
	assert.InDelta(t, 0.25, cfg.Telemetry.SampleRatio, 1e-9)
	assert.Equal(t, "/tmp/sgevolve.prom", cfg.Telemetry.MetricsFile)
}

func TestLoadConfig_InvalidValue(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "sgevolve.yaml")
	require.NoError(t, os.WriteFile(path, []byte("evolve:\n  check_level: 7\n"), 0o600))

	_, err := config.LoadConfig(path)
	require.ErrorIs(t, err, config.ErrInvalidCheckLevel)
}

func TestLoadConfig_MalformedFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "sgevolve.yaml")
	require.NoError(t, os.WriteFile(path, []byte("output: [unclosed\n"), 0o600))

	_, err := config.LoadConfig(path)
	require.Error(t, err)
}

func TestLoadConfig_EnvOverride(t *testing.T) {
	t.Setenv("SGEVOLVE_OUTPUT_WRAP_WIDTH", "42")

	path := filepath.Join(t.TempDir(), "sgevolve.yaml")
	require.NoError(t, os.WriteFile(path, []byte(""), 0o600))

	cfg, err := config.LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 42, cfg.Output.WrapWidth)
}
