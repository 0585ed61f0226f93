package config

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix for environment overrides, e.g. SHORTLOAD_USERS.
const EnvPrefix = "SHORTLOAD"

// Load merges, in increasing precedence, flag defaults, the config file named
// by --config, SHORTLOAD_* environment variables and explicitly set flags.
func Load(flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	for name, key := range flagKeys {
		flag := flags.Lookup(name)
		if flag == nil {
			continue
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return nil, fmt.Errorf("bind flag %s: %w", name, err)
		}
	}

	configPath, err := flags.GetString("config")
	if err != nil {
		return nil, err
	}
	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", configPath, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.ConfigFile = configPath

	headers, err := canonicalHeaders(cfg.Headers)
	if err != nil {
		return nil, fmt.Errorf("headers: %w", err)
	}
	entries, err := flags.GetStringSlice("header")
	if err != nil {
		return nil, err
	}
	flagHeaders, err := parseHeaderEntries(entries)
	if err != nil {
		return nil, err
	}
	for k, val := range flagHeaders {
		headers[k] = val
	}
	cfg.Headers = headers

	if flags.Changed("tracing-propagate") {
		val, err := flags.GetBool("tracing-propagate")
		if err != nil {
			return nil, err
		}
		cfg.Tracing.Propagate = &val
	}

	cfg.Host = strings.TrimRight(strings.TrimSpace(cfg.Host), "/")
	cfg.CatalogFile = strings.TrimSpace(cfg.CatalogFile)
	cfg.LogLevel = strings.ToLower(strings.TrimSpace(cfg.LogLevel))
	cfg.LogFormat = strings.ToLower(strings.TrimSpace(cfg.LogFormat))
	return cfg, nil
}
