package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("ACM_API_KEY", "")
	t.Setenv("OPENROUTER_API_KEY", "")
	c, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.DefaultProvider != "openrouter" || c.QuarterWidthPx != 160 || c.SnippetRows != 20 || c.AuditConcurrency != 3 {
		t.Fatalf("unexpected defaults: %+v", c)
	}
	if c.HTTPTimeout("ollama") != 120*time.Second || c.HTTPTimeout("openrouter") != 60*time.Second {
		t.Fatalf("timeouts: %v %v", c.HTTPTimeout("ollama"), c.HTTPTimeout("openrouter"))
	}
}

func TestSaveLoadRoundTripAndEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	c := &Global{}
	for k, v := range map[string]string{
		"api_key":          "sk-file-1234567890",
		"default_provider": "Ollama",
		"snippet_rows":     "5",
		"quarter_width_px": "200",
	} {
		if err := c.Set(k, v); err != nil {
			t.Fatalf("Set(%s): %v", k, err)
		}
	}
	if err := Save(c, path); err != nil {
		t.Fatalf("Save: %v", err)
	}
	t.Setenv("ACM_SNIPPET_ROWS", "7")
	t.Setenv("ACM_API_KEY", "")
	t.Setenv("OPENROUTER_API_KEY", "")

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.APIKey != "sk-file-1234567890" || got.DefaultProvider != "ollama" || got.QuarterWidthPx != 200 {
		t.Fatalf("file values lost: %+v", got)
	}
	if got.SnippetRows != 7 {
		t.Fatalf("env must override file, got %d", got.SnippetRows)
	}
	if r := got.Redacted(); r.APIKey != "sk-f...7890" || got.APIKey == r.APIKey {
		t.Fatalf("redacted key = %q", r.APIKey)
	}
}

func TestLoadRejectsBrokenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("snippet_rows: [unclosed"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestSetValidation(t *testing.T) {
	c := &Global{}
	bad := map[string]string{
		"default_provider":  "bedrock",
		"log_mode":          "verbose",
		"snippet_rows":      "-1",
		"temperature":       "warm",
		"embedding_model":   "x",
		"audit_concurrency": "two",
	}
	for k, v := range bad {
		if err := c.Set(k, v); err == nil {
			t.Fatalf("Set(%s, %s) should fail", k, v)
		}
	}
	if err := c.Set("unknown", "x"); err == nil || !strings.Contains(err.Error(), "snippet_rows") {
		t.Fatalf("unknown key error should list keys, got %v", err)
	}
}
