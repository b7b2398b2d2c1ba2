package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// TestRun_InvalidConfig verifies run fails with invalid config path.
func TestRun_InvalidConfig(t *testing.T) {
	t.Setenv("OASIS_CONFIG", "/nonexistent/path/config.yaml")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := run(ctx); err == nil {
		t.Fatal("run() should fail with invalid config path")
	}
}

// TestRun_NoCloudCredentials verifies run fails fast when neither a token
// nor login credentials are configured.
func TestRun_NoCloudCredentials(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "test-config.yaml")

	configContent := `
logging:
  level: error
  format: text

catalog:
  path: "` + filepath.Join(tmpDir, "tracks.db") + `"

cloud:
  base_url: "http://127.0.0.1:1"
  email: ""
  password: ""
  access_token: ""
`
	if err := os.WriteFile(configPath, []byte(configContent), 0600); err != nil {
		t.Fatalf("writing test config: %v", err)
	}

	t.Setenv("OASIS_CONFIG", configPath)
	t.Setenv("OASIS_CLOUD_TOKEN", "")
	t.Setenv("OASIS_CLOUD_EMAIL", "")
	t.Setenv("OASIS_CLOUD_PASSWORD", "")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := run(ctx); err == nil {
		t.Fatal("run() should fail without cloud credentials")
	}
}

// TestGetConfigPath verifies environment override and default.
func TestGetConfigPath(t *testing.T) {
	t.Setenv("OASIS_CONFIG", "")
	if got := getConfigPath(); got != defaultConfigPath {
		t.Errorf("getConfigPath() = %q, want %q", got, defaultConfigPath)
	}

	t.Setenv("OASIS_CONFIG", "/etc/oasis/config.yaml")
	if got := getConfigPath(); got != "/etc/oasis/config.yaml" {
		t.Errorf("getConfigPath() = %q, want override", got)
	}
}
