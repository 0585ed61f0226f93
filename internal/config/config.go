package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/torosent/shortload/internal/valuespace"
)

type Config struct {
	Host           string            `mapstructure:"host"`
	Users          int               `mapstructure:"users"`
	SpawnRate      float64           `mapstructure:"spawn_rate"`
	Duration       time.Duration     `mapstructure:"duration"`
	Timeout        time.Duration     `mapstructure:"timeout"`
	IDMin          int               `mapstructure:"id_min"`
	IDMax          int               `mapstructure:"id_max"`
	Seed           int64             `mapstructure:"seed"`
	CatalogFile    string            `mapstructure:"catalog"`
	Headers        map[string]string `mapstructure:"headers"`
	JSONOutput     bool              `mapstructure:"json_output"`
	Quiet          bool              `mapstructure:"quiet"`
	LogLevel       string            `mapstructure:"log_level"`
	LogFormat      string            `mapstructure:"log_format"`
	LogErrors      bool              `mapstructure:"log_errors"`
	MetricsAddr    string            `mapstructure:"metrics_addr"`
	Thresholds     []string          `mapstructure:"thresholds"`
	RecorderBuffer int               `mapstructure:"recorder_buffer"`
	Tracing        TracingConfig     `mapstructure:"tracing"`
	ConfigFile     string            `mapstructure:"-"`
}

// TracingConfig configures OTLP span export for issued requests.
type TracingConfig struct {
	Endpoint    string  `mapstructure:"endpoint"`
	Protocol    string  `mapstructure:"protocol"` // "grpc" or "http"
	Insecure    bool    `mapstructure:"insecure"`
	SampleRate  float64 `mapstructure:"sample_rate"`
	ServiceName string  `mapstructure:"service_name"`
	Propagate   *bool   `mapstructure:"propagate"` // nil follows Enabled()
}

func (t TracingConfig) Enabled() bool {
	return strings.TrimSpace(t.Endpoint) != ""
}

func (t TracingConfig) ShouldPropagate() bool {
	if t.Propagate != nil {
		return *t.Propagate
	}
	return t.Enabled()
}

// ValueSpace returns the identifier range sampled into request templates.
func (c Config) ValueSpace() valuespace.Space {
	return valuespace.Space{Lower: c.IDMin, Upper: c.IDMax}
}

type ValidationError struct {
	issues []string
}

func (e ValidationError) Error() string {
	if len(e.issues) == 0 {
		return "validation failed"
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(e.issues, "; "))
}

func (e ValidationError) Issues() []string {
	return append([]string(nil), e.issues...)
}

var (
	validLogLevels  = map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	validLogFormats = map[string]bool{"console": true, "json": true}
)

func (c Config) Validate() error {
	var issues []string

	if strings.TrimSpace(c.Host) == "" {
		issues = append(issues, "host is required (use --help for usage information)")
	} else if u, err := url.Parse(c.Host); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		issues = append(issues, fmt.Sprintf("host %q must be an absolute http(s) URL", c.Host))
	}
	if c.Users < 1 {
		issues = append(issues, "users must be >= 1")
	}
	if c.SpawnRate <= 0 {
		issues = append(issues, "spawn-rate must be > 0")
	}
	if c.Duration < 0 {
		issues = append(issues, "duration must be >= 0")
	}
	if c.Timeout <= 0 {
		issues = append(issues, "timeout must be > 0")
	}
	if err := c.ValueSpace().Validate(); err != nil {
		if errors.Is(err, valuespace.ErrInvalidBounds) {
			issues = append(issues, fmt.Sprintf("id-min (%d) must be <= id-max (%d)", c.IDMin, c.IDMax))
		} else {
			issues = append(issues, err.Error())
		}
	}
	if c.RecorderBuffer < 0 {
		issues = append(issues, "recorder-buffer must be >= 0")
	}
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		issues = append(issues, fmt.Sprintf("log-level %q is not supported (debug, info, warn, error)", c.LogLevel))
	}
	if !validLogFormats[strings.ToLower(c.LogFormat)] {
		issues = append(issues, fmt.Sprintf("log-format %q is not supported (console, json)", c.LogFormat))
	}
	if c.JSONOutput && c.Quiet {
		issues = append(issues, "json-output and quiet are mutually exclusive")
	}

	switch strings.ToLower(c.Tracing.Protocol) {
	case "", "grpc", "http":
	default:
		issues = append(issues, fmt.Sprintf("tracing: protocol must be 'grpc' or 'http', got %q", c.Tracing.Protocol))
	}
	if c.Tracing.SampleRate < 0 || c.Tracing.SampleRate > 1 {
		issues = append(issues, "tracing: sample_rate must be between 0.0 and 1.0")
	}

	if len(issues) > 0 {
		return ValidationError{issues: issues}
	}
	return nil
}

// Warnings returns non-fatal advisories about the configuration.
func (c Config) Warnings() []string {
	var warnings []string
	if c.Users > 1000 {
		warnings = append(warnings, fmt.Sprintf("high user count configured (%d). Ensure you have authorization to test the target system.", c.Users))
	}
	if c.Duration == 0 {
		warnings = append(warnings, "no duration set; the run continues until interrupted")
	}
	return warnings
}
