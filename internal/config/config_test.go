package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

const minimalYAML = `
reddit:
  enabled: true
  subreddits: [Calculus, " Calculus ", MathHelp]
filter:
  keywords: [urgent, exam]
`

func writeTemp(t *testing.T, contents string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yml")
	if err := os.WriteFile(p, []byte(contents), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestLoadAndDefaults(t *testing.T) {
	cfg, err := Load(writeTemp(t, minimalYAML))
	if err != nil {
		t.Fatal(err)
	}
	out, res := NormalizeAndValidate(cfg)
	if !res.OK() {
		t.Fatalf("expected valid config, got errors: %v", res.Errors)
	}
	if len(out.Reddit.Subreddits) != 2 {
		t.Fatalf("subreddit list should be trimmed and deduped, got %v", out.Reddit.Subreddits)
	}
	if out.FeedPoll() != 300*time.Second {
		t.Fatalf("feed poll default should be 300s, got %v", out.FeedPoll())
	}
	if out.CooldownTTL() != time.Hour {
		t.Fatalf("cooldown default should be 1h, got %v", out.CooldownTTL())
	}
	if out.Supervisor.BackoffSeconds != 10 || out.Supervisor.BackoffMaxSeconds != 300 {
		t.Fatal("supervisor backoff defaults not applied")
	}
}

func TestValidateRejectsNoSources(t *testing.T) {
	_, res := NormalizeAndValidate(Config{})
	if res.OK() {
		t.Fatal("empty config must not validate")
	}
}

func TestValidateRequiresKeywords(t *testing.T) {
	var cfg Config
	cfg.Feeds.Enabled = true
	cfg.Feeds.URLs = []string{"https://example.com/feed"}
	_, res := NormalizeAndValidate(cfg)
	if res.OK() {
		t.Fatal("config without trigger keywords must not validate")
	}
}

func TestEnsureUserConfigCopiesDefault(t *testing.T) {
	dir := t.TempDir()
	def := filepath.Join(dir, "default.yml")
	if err := os.WriteFile(def, []byte(minimalYAML), 0o644); err != nil {
		t.Fatal(err)
	}
	dataDir := filepath.Join(dir, "data")
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		t.Fatal(err)
	}

	userPath, err := EnsureUserConfig(dataDir, def)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(userPath); err != nil {
		t.Fatalf("user config not created: %v", err)
	}

	// second call returns the existing file untouched
	if err := os.WriteFile(userPath, []byte("feeds: {enabled: true}"), 0o644); err != nil {
		t.Fatal(err)
	}
	again, err := EnsureUserConfig(dataDir, def)
	if err != nil {
		t.Fatal(err)
	}
	b, _ := os.ReadFile(again)
	if string(b) != "feeds: {enabled: true}" {
		t.Fatal("existing user config was overwritten")
	}
}
