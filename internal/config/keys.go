package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type keyType int

const (
	kString keyType = iota
	kInt
	kFloat
	kDuration
)

type keySpec struct {
	key     string
	typ     keyType
	env     string
	secret  bool
	apply   func(cfg *Config, v any)
	extract func(cfg Config) any
}

var specs = []keySpec{
	{
		key: "server.port", typ: kInt, env: "DUSTY_SERVER_PORT",
		apply:   func(cfg *Config, v any) { cfg.Server.Port = v.(int) },
		extract: func(cfg Config) any { return cfg.Server.Port },
	},
	{
		key: "storage.data_dir", typ: kString, env: "DUSTY_STORAGE_DATA_DIR",
		apply:   func(cfg *Config, v any) { cfg.Storage.DataDir = v.(string) },
		extract: func(cfg Config) any { return cfg.Storage.DataDir },
	},
	{
		key: "log.level", typ: kString, env: "DUSTY_LOG_LEVEL",
		apply:   func(cfg *Config, v any) { cfg.Log.Level = v.(string) },
		extract: func(cfg Config) any { return cfg.Log.Level },
	},
	{
		key: "interpreter.context_ttl", typ: kDuration, env: "DUSTY_INTERPRETER_CONTEXT_TTL",
		apply:   func(cfg *Config, v any) { cfg.Interpreter.ContextTTL = v.(time.Duration) },
		extract: func(cfg Config) any { return cfg.Interpreter.ContextTTL },
	},
	{
		key: "interpreter.fuzzy_threshold", typ: kFloat, env: "DUSTY_INTERPRETER_FUZZY_THRESHOLD",
		apply:   func(cfg *Config, v any) { cfg.Interpreter.FuzzyThreshold = v.(float64) },
		extract: func(cfg Config) any { return cfg.Interpreter.FuzzyThreshold },
	},
	{
		key: "interpreter.timezone", typ: kString, env: "DUSTY_INTERPRETER_TIMEZONE",
		apply:   func(cfg *Config, v any) { cfg.Interpreter.Timezone = v.(string) },
		extract: func(cfg Config) any { return cfg.Interpreter.Timezone },
	},
	{
		key: "reminder.poll_interval", typ: kDuration, env: "DUSTY_REMINDER_POLL_INTERVAL",
		apply:   func(cfg *Config, v any) { cfg.Reminder.PollInterval = v.(time.Duration) },
		extract: func(cfg Config) any { return cfg.Reminder.PollInterval },
	},
	{
		key: "reminder.lead_time", typ: kDuration, env: "DUSTY_REMINDER_LEAD_TIME",
		apply:   func(cfg *Config, v any) { cfg.Reminder.LeadTime = v.(time.Duration) },
		extract: func(cfg Config) any { return cfg.Reminder.LeadTime },
	},
	{
		key: "api.token", typ: kString, env: "DUSTY_API_TOKEN",
		secret:  true,
		apply:   func(cfg *Config, v any) { cfg.API.Token = v.(string) },
		extract: func(cfg Config) any { return cfg.API.Token },
	},
	{
		key: "twilio.account_sid", typ: kString, env: "DUSTY_TWILIO_ACCOUNT_SID",
		secret:  true,
		apply:   func(cfg *Config, v any) { cfg.Twilio.AccountSID = v.(string) },
		extract: func(cfg Config) any { return cfg.Twilio.AccountSID },
	},
	{
		key: "twilio.auth_token", typ: kString, env: "DUSTY_TWILIO_AUTH_TOKEN",
		secret:  true,
		apply:   func(cfg *Config, v any) { cfg.Twilio.AuthToken = v.(string) },
		extract: func(cfg Config) any { return cfg.Twilio.AuthToken },
	},
	{
		key: "twilio.from_number", typ: kString, env: "DUSTY_TWILIO_FROM_NUMBER",
		apply:   func(cfg *Config, v any) { cfg.Twilio.FromNumber = v.(string) },
		extract: func(cfg Config) any { return cfg.Twilio.FromNumber },
	},
}

func applyBackend(cfg *Config, b ConfigBackend) error {
	for _, s := range specs {
		if s.secret {
			continue
		}
		switch s.typ {
		case kString:
			v, ok, err := b.GetString(s.key)
			if err != nil {
				return fmt.Errorf("reading %s: %w", s.key, err)
			}
			if ok {
				s.apply(cfg, v)
			}
		case kInt:
			v, ok, err := b.GetInt(s.key)
			if err != nil {
				return fmt.Errorf("reading %s: %w", s.key, err)
			}
			if ok {
				s.apply(cfg, v)
			}
		case kFloat:
			v, ok, err := b.GetString(s.key)
			if err != nil {
				return fmt.Errorf("reading %s: %w", s.key, err)
			}
			if ok && v != "" {
				if f, err := strconv.ParseFloat(v, 64); err == nil {
					s.apply(cfg, f)
				} else {
					fmt.Fprintf(os.Stderr, "[WARN] could not parse float from config key %s=%q: %v. Using default value.\n", s.key, v, err)
				}
			}
		case kDuration:
			v, ok, err := b.GetString(s.key)
			if err != nil {
				return fmt.Errorf("reading %s: %w", s.key, err)
			}
			if ok && v != "" {
				if d, err := time.ParseDuration(v); err == nil {
					s.apply(cfg, d)
				} else {
					fmt.Fprintf(os.Stderr, "[WARN] could not parse duration from config key %s=%q: %v. Using default value.\n", s.key, v, err)
				}
			}
		}
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	for _, s := range specs {
		if s.env == "" {
			continue
		}
		raw := os.Getenv(s.env)
		if raw == "" {
			continue
		}
		switch s.typ {
		case kString:
			s.apply(cfg, raw)
		case kInt:
			if i, err := strconv.Atoi(raw); err == nil {
				s.apply(cfg, i)
			} else {
				fmt.Fprintf(os.Stderr, "[WARN] could not parse integer from env var %s=%q: %v. Using default value.\n", s.env, raw, err)
			}
		case kFloat:
			if f, err := strconv.ParseFloat(raw, 64); err == nil {
				s.apply(cfg, f)
			} else {
				fmt.Fprintf(os.Stderr, "[WARN] could not parse float from env var %s=%q: %v. Using default value.\n", s.env, raw, err)
			}
		case kDuration:
			if d, err := time.ParseDuration(raw); err == nil {
				s.apply(cfg, d)
			} else {
				fmt.Fprintf(os.Stderr, "[WARN] could not parse duration from env var %s=%q: %v. Using default value.\n", s.env, raw, err)
			}
		}
	}
}
