package config

import (
	"fmt"
	"strings"
	"time"
)

type Config struct {
	Server      ServerConfig
	Storage     StorageConfig
	Log         LogConfig
	Interpreter InterpreterConfig
	Reminder    ReminderConfig
	API         APIConfig
	Twilio      TwilioConfig
}

type ServerConfig struct {
	Port int
}

type StorageConfig struct {
	DataDir string
}

type LogConfig struct {
	Level string
}

type InterpreterConfig struct {
	// ContextTTL is how long a sender's conversational context stays
	// usable for follow-up messages.
	ContextTTL time.Duration
	// FuzzyThreshold is the minimum name-similarity ratio for matching a
	// mention to a household member.
	FuzzyThreshold float64
	Timezone       string
}

type ReminderConfig struct {
	PollInterval time.Duration
	// LeadTime is how far before a due date the reminder goes out.
	LeadTime time.Duration
}

type APIConfig struct {
	Token string
}

// TwilioConfig holds outbound SMS credentials. When AccountSID is empty,
// outbound messages are logged instead of sent.
type TwilioConfig struct {
	AccountSID string
	AuthToken  string
	FromNumber string
}

func defaults() Config {
	return Config{
		Server: ServerConfig{
			Port: 4000,
		},
		Storage: StorageConfig{
			DataDir: defaultDataDir(),
		},
		Log: LogConfig{
			Level: "info",
		},
		Interpreter: InterpreterConfig{
			ContextTTL:     5 * time.Minute,
			FuzzyThreshold: 0.8,
			Timezone:       "Local",
		},
		Reminder: ReminderConfig{
			PollInterval: 30 * time.Second,
			LeadTime:     time.Hour,
		},
	}
}

// Load reads configuration from the platform-native backend, environment
// variables, and platform secret store.
//
// On macOS the backend is UserDefaults (domain: com.dusty.app) and secrets
// fall back to macOS Keychain.
// On Linux the backend is a JSON file at $XDG_CONFIG_HOME/dusty/config.json
// and secrets come from a secrets file or environment variables.
//
// Environment variables (DUSTY_*) override backend values on all platforms.
func Load() (Config, error) {
	return loadWith(newPlatformBackend(), keychainReader{})
}

// keychain abstracts secret store access for testing.
type keychain interface {
	Get(service, account string) (string, error)
}

func loadWith(b ConfigBackend, kc keychain) (Config, error) {
	cfg := defaults()

	if err := applyBackend(&cfg, b); err != nil {
		return Config{}, err
	}

	applyEnvOverrides(&cfg)

	// Try the platform secret store for the API token if still empty.
	if cfg.API.Token == "" {
		if token, err := kc.Get("dusty", "api_token"); err == nil && token != "" {
			cfg.API.Token = token
		}
	}

	if cfg.API.Token == "" {
		msg := "missing required config: admin API token. " +
			"Set it via environment variable DUSTY_API_TOKEN" +
			apiKeyHint()
		return Config{}, fmt.Errorf("%s", msg)
	}

	return cfg, nil
}

// keychainReader reads from the platform secret store.
type keychainReader struct{}

func (keychainReader) Get(service, account string) (string, error) {
	out, err := keychainExec(service, account)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}
