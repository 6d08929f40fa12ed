package config

import (
	"strings"
	"testing"
	"time"
)

// mockKeychain is a test double for the keychain interface.
type mockKeychain struct {
	value string
	err   error
}

func (m mockKeychain) Get(service, account string) (string, error) {
	return m.value, m.err
}

// mapBackend is an in-memory ConfigBackend for tests.
type mapBackend struct {
	data map[string]any
}

func (b *mapBackend) GetString(key string) (string, bool, error) {
	v, ok := b.data[key]
	if !ok {
		return "", false, nil
	}
	if s, isStr := v.(string); isStr {
		return s, true, nil
	}
	return "", false, nil
}

func (b *mapBackend) GetInt(key string) (int, bool, error) {
	v, ok := b.data[key]
	if !ok {
		return 0, false, nil
	}
	if i, isInt := v.(int); isInt {
		return i, true, nil
	}
	return 0, false, nil
}

func (b *mapBackend) SetString(key, val string) error { b.data[key] = val; return nil }
func (b *mapBackend) SetInt(key string, val int) error { b.data[key] = val; return nil }
func (b *mapBackend) Delete(key string) error          { delete(b.data, key); return nil }

func emptyBackend() *mapBackend {
	return &mapBackend{data: make(map[string]any)}
}

func TestDefaults(t *testing.T) {
	t.Setenv("DUSTY_API_TOKEN", "test-token")

	cfg, err := loadWith(emptyBackend(), mockKeychain{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.Port != 4000 {
		t.Errorf("Server.Port = %d, want 4000", cfg.Server.Port)
	}
	if cfg.Log.Level != "info" {
		t.Errorf("Log.Level = %q, want %q", cfg.Log.Level, "info")
	}
	if cfg.Interpreter.ContextTTL != 5*time.Minute {
		t.Errorf("Interpreter.ContextTTL = %v, want 5m", cfg.Interpreter.ContextTTL)
	}
	if cfg.Interpreter.FuzzyThreshold != 0.8 {
		t.Errorf("Interpreter.FuzzyThreshold = %v, want 0.8", cfg.Interpreter.FuzzyThreshold)
	}
	if cfg.Reminder.PollInterval != 30*time.Second {
		t.Errorf("Reminder.PollInterval = %v, want 30s", cfg.Reminder.PollInterval)
	}
	if cfg.Reminder.LeadTime != time.Hour {
		t.Errorf("Reminder.LeadTime = %v, want 1h", cfg.Reminder.LeadTime)
	}
}

func TestBackendValues(t *testing.T) {
	t.Setenv("DUSTY_API_TOKEN", "test-token")

	b := &mapBackend{data: map[string]any{
		"server.port":                 5000,
		"storage.data_dir":            "/tmp/dusty-test",
		"log.level":                   "debug",
		"interpreter.context_ttl":     "10m",
		"interpreter.fuzzy_threshold": "0.9",
		"reminder.poll_interval":      "1m",
	}}

	cfg, err := loadWith(b, mockKeychain{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.Port != 5000 {
		t.Errorf("Server.Port = %d, want 5000", cfg.Server.Port)
	}
	if cfg.Storage.DataDir != "/tmp/dusty-test" {
		t.Errorf("Storage.DataDir = %q", cfg.Storage.DataDir)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %q, want %q", cfg.Log.Level, "debug")
	}
	if cfg.Interpreter.ContextTTL != 10*time.Minute {
		t.Errorf("Interpreter.ContextTTL = %v, want 10m", cfg.Interpreter.ContextTTL)
	}
	if cfg.Interpreter.FuzzyThreshold != 0.9 {
		t.Errorf("Interpreter.FuzzyThreshold = %v, want 0.9", cfg.Interpreter.FuzzyThreshold)
	}
	if cfg.Reminder.PollInterval != time.Minute {
		t.Errorf("Reminder.PollInterval = %v, want 1m", cfg.Reminder.PollInterval)
	}
}

func TestEnvOverride(t *testing.T) {
	t.Setenv("DUSTY_API_TOKEN", "env-token")
	t.Setenv("DUSTY_SERVER_PORT", "6000")
	t.Setenv("DUSTY_INTERPRETER_CONTEXT_TTL", "2m")

	b := &mapBackend{data: map[string]any{
		"server.port": 5000,
	}}

	cfg, err := loadWith(b, mockKeychain{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.Port != 6000 {
		t.Errorf("Server.Port = %d, want env override 6000", cfg.Server.Port)
	}
	if cfg.Interpreter.ContextTTL != 2*time.Minute {
		t.Errorf("Interpreter.ContextTTL = %v, want 2m", cfg.Interpreter.ContextTTL)
	}
	if cfg.API.Token != "env-token" {
		t.Errorf("API.Token = %q, want %q", cfg.API.Token, "env-token")
	}
}

func TestMissingRequiredToken(t *testing.T) {
	t.Setenv("DUSTY_API_TOKEN", "")

	_, err := loadWith(emptyBackend(), mockKeychain{})
	if err == nil {
		t.Fatal("expected error for missing API token, got nil")
	}
	if !strings.Contains(err.Error(), "missing required config") {
		t.Errorf("error = %q, want it to mention missing required config", err)
	}
}

func TestKeychainFallback(t *testing.T) {
	t.Setenv("DUSTY_API_TOKEN", "")

	cfg, err := loadWith(emptyBackend(), mockKeychain{value: "keychain-token"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.API.Token != "keychain-token" {
		t.Errorf("API.Token = %q, want %q", cfg.API.Token, "keychain-token")
	}
}

func TestInvalidEnvValueFallsBack(t *testing.T) {
	t.Setenv("DUSTY_API_TOKEN", "test-token")
	t.Setenv("DUSTY_SERVER_PORT", "not-a-number")
	t.Setenv("DUSTY_REMINDER_LEAD_TIME", "soonish")

	cfg, err := loadWith(emptyBackend(), mockKeychain{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.Port != 4000 {
		t.Errorf("Server.Port = %d, want default 4000", cfg.Server.Port)
	}
	if cfg.Reminder.LeadTime != time.Hour {
		t.Errorf("Reminder.LeadTime = %v, want default 1h", cfg.Reminder.LeadTime)
	}
}
