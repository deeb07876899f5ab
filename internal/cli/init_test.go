package cli

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"finagent/internal/log"
)

func TestSetupLoggerWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "finagent.log")

	logger, closeFn, err := SetupLogger("debug", path)
	if err != nil {
		t.Fatalf("SetupLogger: %v", err)
	}
	logger.Debug("hello from the terminal", log.FieldUserID, 3)
	if err := closeFn(); err != nil {
		t.Fatalf("close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	for _, want := range []string{"hello from the terminal", "user_id=3", "component=app"} {
		if !strings.Contains(string(data), want) {
			t.Errorf("log file missing %q:\n%s", want, data)
		}
	}
}

func TestLoadAndValidateConfig(t *testing.T) {
	t.Setenv("PREFS_BACKEND", "memory")
	t.Setenv("API_URL", "http://backend:8005")

	cfg, err := LoadAndValidateConfig(log.Discard())
	if err != nil {
		t.Fatalf("LoadAndValidateConfig: %v", err)
	}
	if cfg.APIURL != "http://backend:8005" {
		t.Errorf("APIURL = %q", cfg.APIURL)
	}

	t.Setenv("PORT", "not-a-port")
	if _, err := LoadAndValidateConfig(log.Discard()); err == nil {
		t.Error("invalid port should fail validation")
	}
}

func TestInitPreferencesMemory(t *testing.T) {
	t.Setenv("PREFS_BACKEND", "memory")
	cfg, err := LoadAndValidateConfig(log.Discard())
	if err != nil {
		t.Fatal(err)
	}

	result, err := InitPreferences(context.Background(), cfg, log.Discard())
	if err != nil {
		t.Fatalf("InitPreferences: %v", err)
	}
	if err := result.Preferences.Ping(context.Background()); err != nil {
		t.Errorf("Ping: %v", err)
	}
	if result.Exports != nil {
		t.Error("memory backend keeps no export log")
	}
}

func TestNewAPIClientRejectsBadScheme(t *testing.T) {
	t.Setenv("PREFS_BACKEND", "memory")
	cfg, err := LoadAndValidateConfig(log.Discard())
	if err != nil {
		t.Fatal(err)
	}
	cfg.APIURL = "ftp://backend"
	if _, err := NewAPIClient(cfg, log.Discard()); err == nil {
		t.Error("ftp scheme should be rejected")
	}
}
