// Package config provides configuration loading and validation for sgevolve.
package config

import (
	"errors"
	"fmt"

	"github.com/Sumatoshi-tech/sgevolve/pkg/evolve"
	"github.com/Sumatoshi-tech/sgevolve/pkg/observability"
	"github.com/Sumatoshi-tech/sgevolve/pkg/output"
	"github.com/Sumatoshi-tech/sgevolve/pkg/seqio"
)

// Sentinel validation errors.
var (
	ErrInvalidCheckLevel  = errors.New("check level must be between 0 and 2")
	ErrInvalidWrapWidth   = errors.New("wrap width must be positive")
	ErrInvalidLogFormat   = errors.New("log format must be text or json")
	ErrInvalidSampleRatio = errors.New("sample ratio must be between 0 and 1")
)

// Config holds all configuration for sgevolve.
type Config struct {
	Evolve    EvolveConfig    `mapstructure:"evolve"`
	Output    OutputConfig    `mapstructure:"output"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// EvolveConfig holds simulation settings.
type EvolveConfig struct {
	CheckLevel int `mapstructure:"check_level"`
}

// OutputConfig holds output settings.
type OutputConfig struct {
	WrapWidth        int    `mapstructure:"wrap_width"`
	IncludeAncestors bool   `mapstructure:"include_ancestors"`
	Compression      string `mapstructure:"compression"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// TelemetryConfig holds OpenTelemetry settings.
type TelemetryConfig struct {
	OTLPEndpoint string  `mapstructure:"otlp_endpoint"`
	OTLPInsecure bool    `mapstructure:"otlp_insecure"`
	OTLPHeaders  string  `mapstructure:"otlp_headers"`
	Environment  string  `mapstructure:"environment"`
	SampleRatio  float64 `mapstructure:"sample_ratio"`
	MetricsFile  string  `mapstructure:"metrics_file"`
}

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	if c.Evolve.CheckLevel < 0 || c.Evolve.CheckLevel > MaxCheckLevel {
		return fmt.Errorf("%w: %d", ErrInvalidCheckLevel, c.Evolve.CheckLevel)
	}

	if c.Output.WrapWidth <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidWrapWidth, c.Output.WrapWidth)
	}

	_, err := seqio.ParseCompression(c.Output.Compression)
	if err != nil {
		return err
	}

	if c.Logging.Format != LogFormatText && c.Logging.Format != LogFormatJSON {
		return fmt.Errorf("%w: %q", ErrInvalidLogFormat, c.Logging.Format)
	}

	_, err = observability.ParseLevel(c.Logging.Level)
	if err != nil {
		return err
	}

	if c.Telemetry.SampleRatio < 0 || c.Telemetry.SampleRatio > 1 {
		return fmt.Errorf("%w: %v", ErrInvalidSampleRatio, c.Telemetry.SampleRatio)
	}

	return nil
}

// EvolveOptions returns the alignment options.
func (c *Config) EvolveOptions() evolve.Options {
	return evolve.Options{CheckLevel: c.Evolve.CheckLevel}
}

// OutputOptions returns the writer options.
func (c *Config) OutputOptions() output.Options {
	return output.Options{Width: c.Output.WrapWidth, IncludeAncestors: c.Output.IncludeAncestors}
}

// Compression returns the output compression. The value was checked by Validate.
func (c *Config) Compression() seqio.Compression {
	compression, err := seqio.ParseCompression(c.Output.Compression)
	if err != nil {
		return seqio.CompressionNone
	}

	return compression
}

// ObservabilityConfig maps the logging and telemetry sections onto observability settings.
func (c *Config) ObservabilityConfig(version string) (observability.Config, error) {
	level, err := observability.ParseLevel(c.Logging.Level)
	if err != nil {
		return observability.Config{}, err
	}

	obsCfg := observability.DefaultConfig()
	obsCfg.ServiceVersion = version
	obsCfg.Environment = c.Telemetry.Environment
	obsCfg.OTLPEndpoint = c.Telemetry.OTLPEndpoint
	obsCfg.OTLPInsecure = c.Telemetry.OTLPInsecure
	obsCfg.OTLPHeaders = observability.ParseOTLPHeaders(c.Telemetry.OTLPHeaders)
	obsCfg.SampleRatio = c.Telemetry.SampleRatio
	obsCfg.MetricsFile = c.Telemetry.MetricsFile
	obsCfg.LogLevel = level
	obsCfg.LogJSON = c.Logging.Format == LogFormatJSON

	return obsCfg, nil
}
