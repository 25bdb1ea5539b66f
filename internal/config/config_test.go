package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadFromPathDefaults(t *testing.T) {
	cfg, err := LoadFromPath(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("LoadFromPath: %v", err)
	}
	if cfg.Collections.Events != "events" {
		t.Errorf("Collections.Events = %q", cfg.Collections.Events)
	}
	if cfg.Notify.Topic != "events" || cfg.Notify.Timezone == "" {
		t.Errorf("Notify = %+v", cfg.Notify)
	}
	if cfg.Reminders.Cron == "" {
		t.Error("Reminders.Cron should default")
	}
}

func TestLoadFromPathFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
firebase:
  project_id: community-app
  credentials_file: /etc/herald/sa.json
collections:
  events: calendar
notify:
  topic: announcements
  timezone: Asia/Jerusalem
reminders:
  cron: "30 7 * * *"
metrics:
  addr: ""
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath: %v", err)
	}
	if cfg.Firebase.ProjectID != "community-app" {
		t.Errorf("ProjectID = %q", cfg.Firebase.ProjectID)
	}
	if cfg.Collections.Events != "calendar" {
		t.Errorf("Collections.Events = %q", cfg.Collections.Events)
	}
	// Unset collections keep their defaults.
	if cfg.Collections.SendLog != "notification_logs" {
		t.Errorf("Collections.SendLog = %q", cfg.Collections.SendLog)
	}
	if cfg.Notify.Topic != "announcements" || cfg.Notify.Timezone != "Asia/Jerusalem" {
		t.Errorf("Notify = %+v", cfg.Notify)
	}
	if cfg.Reminders.Cron != "30 7 * * *" {
		t.Errorf("Reminders.Cron = %q", cfg.Reminders.Cron)
	}
	if cfg.Metrics.Addr != "" {
		t.Errorf("Metrics.Addr = %q, want disabled", cfg.Metrics.Addr)
	}
}

func TestLoadFromPathRequiresProject(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("notify:\n  topic: x\n"), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := LoadFromPath(path); err == nil {
		t.Error("a config file without firebase.project_id should be rejected")
	}
}
