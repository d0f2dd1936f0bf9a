package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Loader handles loading configuration from files and command-line arguments.
type Loader struct{}

// ErrHelpRequested is returned when the user requests help via --help flag.
var ErrHelpRequested = errors.New("help requested")

// NewLoader creates a new configuration Loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load parses command-line arguments and configuration files to produce a Config.
func (l Loader) Load(args []string) (*Config, error) {
	cmd := newFlagCommand()
	if err := cmd.Flags().Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			displayHelp(cmd)
			return nil, ErrHelpRequested
		}
		return nil, err
	}

	flagSet := cmd.Flags()
	if helpFlag := flagSet.Lookup("help"); helpFlag != nil {
		if wantsHelp, err := strconv.ParseBool(helpFlag.Value.String()); err == nil && wantsHelp {
			displayHelp(cmd)
			return nil, ErrHelpRequested
		}
	}
	return l.LoadFlags(flagSet)
}

// LoadFlags builds a Config from an already parsed flag set, reading the
// file named by --config first. The flag set must carry the flags added by
// RegisterFlags.
func (Loader) LoadFlags(flagSet *pflag.FlagSet) (*Config, error) {
	configPath := ""
	if f := flagSet.Lookup("config"); f != nil {
		configPath = strings.TrimSpace(f.Value.String())
	}

	cfgViper := viper.New()
	if configPath != "" {
		cfgViper.SetConfigFile(configPath)
		if err := cfgViper.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config file: %w", err)
		}
	}

	cfg := Default()
	cfg.ConfigFile = configPath

	if err := applyConfigSettings(cfg, cfgViper.AllSettings()); err != nil {
		return nil, err
	}

	if err := applyFlagOverrides(cfg, flagSet); err != nil {
		return nil, err
	}

	cfg.Targets = normalizeTargets(cfg.Targets)
	cfg.Format = Format(strings.ToLower(strings.TrimSpace(string(cfg.Format))))
	cfg.URL = strings.TrimSpace(cfg.URL)
	cfg.Output = strings.TrimSpace(cfg.Output)

	return cfg, nil
}

// Default returns a Config populated with the built-in defaults.
func Default() *Config {
	return &Config{
		Total:      DefaultTotal,
		Threads:    1,
		Prefix:     "measure",
		Format:     FormatText,
		LogLevel:   "info",
		Timeout:    DefaultTimeout,
		VectorSize: DefaultVectorSize,
		Tracing:    TracingConfig{SampleRate: 1.0},
	}
}

// applyConfigSettings applies settings from a config file to the Config struct.
func applyConfigSettings(cfg *Config, settings map[string]any) error {
	if len(settings) == 0 {
		return nil
	}

	if raw, ok := lookupSetting(settings, "target", "targets"); ok {
		val, err := asStringSlice(raw)
		if err != nil {
			return fmt.Errorf("target: %w", err)
		}
		cfg.Targets = val
	}

	int64Settings := []struct {
		keys []string
		dst  *int64
	}{
		{[]string{"total"}, &cfg.Total},
		{[]string{"interval"}, &cfg.Interval},
		{[]string{"warmup"}, &cfg.Warmup},
		{[]string{"measure"}, &cfg.Measure},
	}
	for _, s := range int64Settings {
		if raw, ok := lookupSetting(settings, s.keys...); ok {
			val, err := asInt64(raw)
			if err != nil {
				return fmt.Errorf("%s: %w", s.keys[0], err)
			}
			*s.dst = val
		}
	}

	intSettings := []struct {
		keys []string
		dst  *int
	}{
		{[]string{"threads"}, &cfg.Threads},
		{[]string{"vector_size", "vectorsize", "vector-size"}, &cfg.VectorSize},
	}
	for _, s := range intSettings {
		if raw, ok := lookupSetting(settings, s.keys...); ok {
			val, err := asInt(raw)
			if err != nil {
				return fmt.Errorf("%s: %w", s.keys[0], err)
			}
			*s.dst = val
		}
	}

	boolSettings := []struct {
		keys []string
		dst  *bool
	}{
		{[]string{"trace"}, &cfg.Trace},
		{[]string{"dashboard"}, &cfg.Dashboard},
		{[]string{"progress"}, &cfg.Progress},
		{[]string{"log_errors", "logerrors", "log-errors"}, &cfg.LogErrors},
	}
	for _, s := range boolSettings {
		if raw, ok := lookupSetting(settings, s.keys...); ok {
			val, err := asBool(raw)
			if err != nil {
				return fmt.Errorf("%s: %w", s.keys[0], err)
			}
			*s.dst = val
		}
	}

	stringSettings := []struct {
		keys []string
		dst  *string
	}{
		{[]string{"prefix"}, &cfg.Prefix},
		{[]string{"output"}, &cfg.Output},
		{[]string{"log_level", "loglevel", "log-level"}, &cfg.LogLevel},
		{[]string{"url"}, &cfg.URL},
	}
	for _, s := range stringSettings {
		if raw, ok := lookupSetting(settings, s.keys...); ok {
			val, err := asString(raw)
			if err != nil {
				return fmt.Errorf("%s: %w", s.keys[0], err)
			}
			*s.dst = val
		}
	}

	if raw, ok := lookupSetting(settings, "format"); ok {
		val, err := asString(raw)
		if err != nil {
			return fmt.Errorf("format: %w", err)
		}
		cfg.Format = Format(val)
	}

	durationSettings := []struct {
		keys []string
		dst  *time.Duration
	}{
		{[]string{"sleep"}, &cfg.Sleep},
		{[]string{"sleep_jitter", "sleepjitter", "sleep-jitter"}, &cfg.SleepJitter},
		{[]string{"timeout"}, &cfg.Timeout},
	}
	for _, s := range durationSettings {
		if raw, ok := lookupSetting(settings, s.keys...); ok {
			val, err := asDuration(raw)
			if err != nil {
				return fmt.Errorf("%s: %w", s.keys[0], err)
			}
			*s.dst = val
		}
	}

	if raw, ok := lookupSetting(settings, "thresholds"); ok {
		val, err := asStringSlice(raw)
		if err != nil {
			return fmt.Errorf("thresholds: %w", err)
		}
		cfg.Thresholds = val
	}

	if raw, ok := lookupSetting(settings, "tracing"); ok {
		tc, err := parseTracingConfig(raw, cfg.Tracing)
		if err != nil {
			return fmt.Errorf("tracing: %w", err)
		}
		cfg.Tracing = tc
	}

	return nil
}

func parseTracingConfig(value any, tc TracingConfig) (TracingConfig, error) {
	if value == nil {
		return tc, nil
	}
	settings, err := toStringKeyMap(value)
	if err != nil {
		return TracingConfig{}, err
	}
	if raw, ok := lookupSetting(settings, "endpoint"); ok {
		if tc.Endpoint, err = asString(raw); err != nil {
			return TracingConfig{}, fmt.Errorf("endpoint: %w", err)
		}
	}
	if raw, ok := lookupSetting(settings, "protocol"); ok {
		if tc.Protocol, err = asString(raw); err != nil {
			return TracingConfig{}, fmt.Errorf("protocol: %w", err)
		}
	}
	if raw, ok := lookupSetting(settings, "insecure"); ok {
		if tc.Insecure, err = asBool(raw); err != nil {
			return TracingConfig{}, fmt.Errorf("insecure: %w", err)
		}
	}
	if raw, ok := lookupSetting(settings, "sample_rate", "samplerate", "sample-rate"); ok {
		if tc.SampleRate, err = asFloat64(raw); err != nil {
			return TracingConfig{}, fmt.Errorf("sample_rate: %w", err)
		}
	}
	if raw, ok := lookupSetting(settings, "service_name", "servicename", "service-name"); ok {
		if tc.ServiceName, err = asString(raw); err != nil {
			return TracingConfig{}, fmt.Errorf("service_name: %w", err)
		}
	}
	if raw, ok := lookupSetting(settings, "propagate"); ok {
		if tc.Propagate, err = asBool(raw); err != nil {
			return TracingConfig{}, fmt.Errorf("propagate: %w", err)
		}
	}
	return tc, nil
}

// normalizeTargets splits comma separated entries and drops blanks.
func normalizeTargets(in []string) []string {
	var out []string
	for _, entry := range in {
		for _, name := range strings.Split(entry, ",") {
			if name = strings.ToLower(strings.TrimSpace(name)); name != "" {
				out = append(out, name)
			}
		}
	}
	return out
}
