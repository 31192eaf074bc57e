package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shipfast/livesync/internal/config"
	"github.com/shipfast/livesync/internal/testsupport"
)

func TestLoad_NotFound(t *testing.T) {
	testsupport.SetupTestHome(t)
	tmpDir := t.TempDir()

	cfg, err := config.Load(tmpDir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg == nil {
		t.Fatal("expected non-nil config")
	}

	if cfg.Server.Listen != "" {
		t.Error("expected empty Listen")
	}

	if cfg.Auth.Secret != "" {
		t.Error("expected empty Secret")
	}
}

func TestLoad_Full(t *testing.T) {
	testsupport.SetupTestHome(t)
	tmpDir := t.TempDir()

	configContent := `
[server]
listen = ":9000"
dev-routes = true
verbose = true

[database]
path = "/tmp/livesync-test.db"

[auth]
secret = "hunter2"
token-ttl = "8h"

[ratelimit]
api-limit = 50
api-window = "30s"
auth-limit = 3
auth-window = "5m"

[client]
server = "http://localhost:9000"
token = "abc123"
`

	if err := os.WriteFile(filepath.Join(tmpDir, "livesync.toml"), []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := config.Load(tmpDir)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Server.Listen != ":9000" {
		t.Errorf("Listen = %q, expected %q", cfg.Server.Listen, ":9000")
	}
	if !cfg.Server.DevRoutes {
		t.Error("expected DevRoutes to be true")
	}
	if !cfg.Server.Verbose {
		t.Error("expected Verbose to be true")
	}
	if cfg.Database.Path != "/tmp/livesync-test.db" {
		t.Errorf("Path = %q, expected %q", cfg.Database.Path, "/tmp/livesync-test.db")
	}
	if cfg.Auth.Secret != "hunter2" {
		t.Errorf("Secret = %q, expected %q", cfg.Auth.Secret, "hunter2")
	}
	if cfg.RateLimit.APILimit != 50 {
		t.Errorf("APILimit = %d, expected 50", cfg.RateLimit.APILimit)
	}
	if cfg.Client.Token != "abc123" {
		t.Errorf("Token = %q, expected %q", cfg.Client.Token, "abc123")
	}

	ttl, err := cfg.TokenTTL()
	if err != nil {
		t.Fatalf("failed to parse token ttl: %v", err)
	}
	if ttl != 8*time.Hour {
		t.Errorf("TokenTTL = %v, expected 8h", ttl)
	}

	window, err := cfg.APIWindow()
	if err != nil {
		t.Fatalf("failed to parse api window: %v", err)
	}
	if window != 30*time.Second {
		t.Errorf("APIWindow = %v, expected 30s", window)
	}
}

func TestLoad_InvalidTOML(t *testing.T) {
	testsupport.SetupTestHome(t)
	tmpDir := t.TempDir()

	configContent := `this is not valid toml [`

	if err := os.WriteFile(filepath.Join(tmpDir, "livesync.toml"), []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	_, err := config.Load(tmpDir)
	if err == nil {
		t.Error("expected error for invalid TOML")
	}
}

func TestLoad_UsesGlobalWhenProjectMissing(t *testing.T) {
	homeDir := testsupport.SetupTestHome(t)
	configDir := filepath.Join(homeDir, ".config", "livesync")
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		t.Fatalf("failed to create config dir: %v", err)
	}

	configContent := `
[server]
listen = ":7000"

[auth]
secret = "global-secret"

[client]
server = "http://global:7000"
`

	globalPath := filepath.Join(configDir, "config.toml")
	if err := os.WriteFile(globalPath, []byte(configContent), 0o644); err != nil {
		t.Fatalf("failed to write global config: %v", err)
	}

	repoDir := t.TempDir()
	cfg, err := config.Load(repoDir)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Server.Listen != ":7000" {
		t.Errorf("Listen = %q, expected %q", cfg.Server.Listen, ":7000")
	}
	if cfg.Auth.Secret != "global-secret" {
		t.Errorf("Secret = %q, expected %q", cfg.Auth.Secret, "global-secret")
	}
	if cfg.Client.Server != "http://global:7000" {
		t.Errorf("Server = %q, expected %q", cfg.Client.Server, "http://global:7000")
	}
}

func TestLoad_ProjectOverridesGlobal(t *testing.T) {
	homeDir := testsupport.SetupTestHome(t)
	configDir := filepath.Join(homeDir, ".config", "livesync")
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		t.Fatalf("failed to create config dir: %v", err)
	}

	globalContent := `
[server]
listen = ":7000"
verbose = true

[auth]
secret = "global-secret"
`
	globalPath := filepath.Join(configDir, "config.toml")
	if err := os.WriteFile(globalPath, []byte(globalContent), 0o644); err != nil {
		t.Fatalf("failed to write global config: %v", err)
	}

	projectContent := `
[server]
listen = ":9000"

[auth]
secret = "project-secret"
`

	repoDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(repoDir, "livesync.toml"), []byte(projectContent), 0o644); err != nil {
		t.Fatalf("failed to write project config: %v", err)
	}

	cfg, err := config.Load(repoDir)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Server.Listen != ":9000" {
		t.Errorf("Listen = %q, expected %q", cfg.Server.Listen, ":9000")
	}
	if cfg.Auth.Secret != "project-secret" {
		t.Errorf("Secret = %q, expected %q", cfg.Auth.Secret, "project-secret")
	}
	if !cfg.Server.Verbose {
		t.Error("expected global Verbose to survive when project does not define it")
	}
}

func TestLoad_ProjectEmptyOverridesGlobal(t *testing.T) {
	homeDir := testsupport.SetupTestHome(t)
	configDir := filepath.Join(homeDir, ".config", "livesync")
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		t.Fatalf("failed to create config dir: %v", err)
	}

	globalContent := `
[auth]
secret = "global-secret"
`
	globalPath := filepath.Join(configDir, "config.toml")
	if err := os.WriteFile(globalPath, []byte(globalContent), 0o644); err != nil {
		t.Fatalf("failed to write global config: %v", err)
	}

	projectContent := `
[auth]
secret = ""
`

	repoDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(repoDir, "livesync.toml"), []byte(projectContent), 0o644); err != nil {
		t.Fatalf("failed to write project config: %v", err)
	}

	cfg, err := config.Load(repoDir)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Auth.Secret != "" {
		t.Errorf("Secret = %q, expected empty string", cfg.Auth.Secret)
	}
}

func TestDefaults(t *testing.T) {
	cfg := &config.Config{}

	if got := cfg.ListenAddr(); got != config.DefaultListen {
		t.Errorf("ListenAddr = %q, expected %q", got, config.DefaultListen)
	}
	if got := cfg.ServerURL(); got != config.DefaultServerURL {
		t.Errorf("ServerURL = %q, expected %q", got, config.DefaultServerURL)
	}
	if got := cfg.APILimitOrDefault(); got != config.DefaultAPILimit {
		t.Errorf("APILimitOrDefault = %d, expected %d", got, config.DefaultAPILimit)
	}
	if got := cfg.AuthLimitOrDefault(); got != config.DefaultAuthLimit {
		t.Errorf("AuthLimitOrDefault = %d, expected %d", got, config.DefaultAuthLimit)
	}

	window, err := cfg.AuthWindow()
	if err != nil {
		t.Fatalf("failed to parse auth window: %v", err)
	}
	if window != config.DefaultAuthWindow {
		t.Errorf("AuthWindow = %v, expected %v", window, config.DefaultAuthWindow)
	}
}

func TestParseWindow_Invalid(t *testing.T) {
	cfg := &config.Config{}
	cfg.Auth.TokenTTL = "not-a-duration"

	if _, err := cfg.TokenTTL(); err == nil {
		t.Error("expected error for invalid duration")
	}

	cfg.Auth.TokenTTL = "-5m"
	if _, err := cfg.TokenTTL(); err == nil {
		t.Error("expected error for negative duration")
	}
}
