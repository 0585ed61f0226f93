package config

import (
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/torosent/shortload/internal/recorder"
	"github.com/torosent/shortload/internal/valuespace"
)

// flagKeys maps CLI flag names to configuration keys.
var flagKeys = map[string]string{
	"host":                 "host",
	"users":                "users",
	"spawn-rate":           "spawn_rate",
	"duration":             "duration",
	"timeout":              "timeout",
	"id-min":               "id_min",
	"id-max":               "id_max",
	"seed":                 "seed",
	"catalog":              "catalog",
	"json-output":          "json_output",
	"quiet":                "quiet",
	"log-level":            "log_level",
	"log-format":           "log_format",
	"log-errors":           "log_errors",
	"metrics-addr":         "metrics_addr",
	"threshold":            "thresholds",
	"recorder-buffer":      "recorder_buffer",
	"tracing-endpoint":     "tracing.endpoint",
	"tracing-protocol":     "tracing.protocol",
	"tracing-insecure":     "tracing.insecure",
	"tracing-sample-rate":  "tracing.sample_rate",
	"tracing-service-name": "tracing.service_name",
}

// RegisterFlags registers all CLI flags to a cobra command.
func RegisterFlags(cmd *cobra.Command) {
	configureFlags(cmd.Flags())
}

func configureFlags(flags *pflag.FlagSet) {
	// Target and load shape
	flags.StringP("host", "H", "", "Base URL of the URL shortener under test")
	flags.IntP("users", "u", 1, "Number of concurrent virtual users")
	flags.Float64P("spawn-rate", "r", 1, "Virtual users started per second")
	flags.DurationP("duration", "d", 0, "How long to run the test (e.g. 30s, 5m); 0 runs until interrupted")
	flags.Duration("timeout", 10*time.Second, "Per-request timeout")

	// Workload
	flags.Int("id-min", valuespace.DefaultLower, "Smallest identifier sampled into request paths")
	flags.Int("id-max", valuespace.DefaultUpper, "Largest identifier sampled into request paths")
	flags.Int64("seed", 0, "Random seed; 0 seeds from the clock")
	flags.String("catalog", "", "Path to a YAML request-type catalog replacing the built-in workload")
	flags.StringSlice("header", nil, "Additional request header in key=value form")

	// Output and logging
	flags.Bool("json-output", false, "Emit the final report as JSON")
	flags.BoolP("quiet", "q", false, "Suppress live progress output")
	flags.String("log-level", "info", "Log level: debug, info, warn or error")
	flags.String("log-format", "console", "Log encoding: console or json")
	flags.Bool("log-errors", false, "Log each failed request at debug level")
	flags.String("metrics-addr", "", "Serve Prometheus metrics on this address (e.g. :9090)")
	flags.StringSlice("threshold", nil, "Pass/fail assertion (repeatable, e.g. 'req_failed:rate < 0.01')")
	flags.Int("recorder-buffer", recorder.DefaultBufferSize, "Outcomes queued for aggregation before new ones are dropped")
	flags.String("config", "", "Path to configuration file (YAML, JSON or TOML)")

	// Tracing
	flags.String("tracing-endpoint", "", "OTLP collector endpoint; empty disables tracing")
	flags.String("tracing-protocol", "grpc", "OTLP protocol: grpc or http")
	flags.Bool("tracing-insecure", false, "Disable TLS for the OTLP exporter")
	flags.Float64("tracing-sample-rate", 1.0, "Fraction of requests traced (0.0-1.0)")
	flags.String("tracing-service-name", "", "Service name reported in spans")
	flags.Bool("tracing-propagate", false, "Inject W3C trace headers into requests (defaults to on when tracing is enabled)")
}
