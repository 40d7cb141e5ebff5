package config

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Load builds a Config from defaults, then the YAML file named by the
// --config flag (if any), then explicit flag overrides. Flags win over the
// file so a shared config can still be tweaked per run.
func Load(flags *pflag.FlagSet) (*Config, error) {
	cfg := Default()

	if f := flags.Lookup("config"); f != nil {
		if path := f.Value.String(); path != "" {
			v := viper.New()
			v.SetConfigFile(path)
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("read config file: %w", err)
			}
			if err := v.Unmarshal(cfg); err != nil {
				return nil, fmt.Errorf("parse config file: %w", err)
			}
			cfg.ConfigFile = path
		}
	}

	if err := applyFlagOverrides(cfg, flags); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyFlagOverrides(cfg *Config, flags *pflag.FlagSet) error {
	var err error

	stringFlag := func(name string, dst *string) {
		if err != nil || !flags.Changed(name) {
			return
		}
		*dst, err = flags.GetString(name)
	}
	durationFlag := func(name string, dst *time.Duration) {
		if err != nil || !flags.Changed(name) {
			return
		}
		*dst, err = flags.GetDuration(name)
	}
	intFlag := func(name string, dst *int) {
		if err != nil || !flags.Changed(name) {
			return
		}
		*dst, err = flags.GetInt(name)
	}
	boolFlag := func(name string, dst *bool) {
		if err != nil || !flags.Changed(name) {
			return
		}
		*dst, err = flags.GetBool(name)
	}
	floatFlag := func(name string, dst *float64) {
		if err != nil || !flags.Changed(name) {
			return
		}
		*dst, err = flags.GetFloat64(name)
	}

	stringFlag("url", &cfg.URL)
	durationFlag("duration", &cfg.Duration)
	intFlag("connections", &cfg.Connections)
	intFlag("connect-rate", &cfg.ConnectRate)
	durationFlag("receive-timeout", &cfg.ReceiveTimeout)
	durationFlag("handshake-timeout", &cfg.HandshakeTimeout)
	durationFlag("reconnect-delay", &cfg.ReconnectDelay)
	boolFlag("once", &cfg.Once)
	boolFlag("json-output", &cfg.JSONOutput)
	durationFlag("timeout", &cfg.Timeout)

	stringFlag("trace-endpoint", &cfg.Tracing.Endpoint)
	stringFlag("trace-protocol", &cfg.Tracing.Protocol)
	stringFlag("trace-service-name", &cfg.Tracing.ServiceName)
	boolFlag("trace-insecure", &cfg.Tracing.Insecure)
	floatFlag("trace-sample-rate", &cfg.Tracing.SampleRate)
	boolFlag("trace-propagate", &cfg.Tracing.Propagate)

	if err != nil {
		return fmt.Errorf("apply flag overrides: %w", err)
	}
	return nil
}
