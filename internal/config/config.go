// Package config provides configuration management for Herald.
// Configuration is loaded from ~/.config/herald/config.yaml with sensible
// defaults for everything but the Firebase project.
package config

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/juju/errors"
	"gopkg.in/yaml.v3"
)

// Config holds the Herald configuration.
type Config struct {
	Firebase    FirebaseConfig    `yaml:"firebase"`
	Collections CollectionsConfig `yaml:"collections"`
	Notify      NotifyConfig      `yaml:"notify"`
	Reminders   RemindersConfig   `yaml:"reminders"`
	Metrics     MetricsConfig     `yaml:"metrics"`
}

// FirebaseConfig identifies the Firebase project and its credentials.
type FirebaseConfig struct {
	ProjectID string `yaml:"project_id"`
	// CredentialsFile is a service-account key path. Empty means
	// application default credentials.
	CredentialsFile string `yaml:"credentials_file"`
}

// CollectionsConfig names the Firestore collections Herald touches.
type CollectionsConfig struct {
	Events   string `yaml:"events"`
	Notified string `yaml:"notified"`
	SendLog  string `yaml:"send_log"`
	ErrorLog string `yaml:"error_log"`
}

// NotifyConfig controls the outbound broadcast.
type NotifyConfig struct {
	Topic string `yaml:"topic"`
	// Timezone is the deployment's operating region; all notification
	// dates render in it.
	Timezone string `yaml:"timezone"`
}

// RemindersConfig controls the daily digest trigger.
type RemindersConfig struct {
	Cron string `yaml:"cron"`
}

// MetricsConfig controls the Prometheus endpoint. An empty address
// disables it.
type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

var (
	globalConfig *Config
	configOnce   sync.Once
	configErr    error
)

// DefaultConfigPath is the default location for the config file.
const DefaultConfigPath = "~/.config/herald/config.yaml"

func defaults() *Config {
	return &Config{
		Collections: CollectionsConfig{
			Events:   "events",
			Notified: "notified_events",
			SendLog:  "notification_logs",
			ErrorLog: "error_logs",
		},
		Notify: NotifyConfig{
			Topic:    "events",
			Timezone: "America/New_York",
		},
		Reminders: RemindersConfig{
			Cron: "0 9 * * *",
		},
		Metrics: MetricsConfig{
			Addr: ":2112",
		},
	}
}

// Load loads the configuration from the default path.
// It returns the cached config on subsequent calls.
func Load() (*Config, error) {
	configOnce.Do(func() {
		globalConfig, configErr = LoadFromPath(DefaultConfigPath)
	})
	return globalConfig, configErr
}

// LoadFromPath loads configuration from a specific file path. A missing
// file yields the defaults; a present file must name the Firebase project.
func LoadFromPath(path string) (*Config, error) {
	cfg := defaults()

	data, err := os.ReadFile(expandPath(path))
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, errors.Trace(err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Annotatef(err, "parsing %s", path)
	}
	if cfg.Firebase.ProjectID == "" {
		return nil, errors.NotValidf("config without firebase.project_id")
	}
	cfg.Firebase.CredentialsFile = expandPath(cfg.Firebase.CredentialsFile)
	return cfg, nil
}

// expandPath expands ~ to the home directory.
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, path[2:])
	}
	return path
}

// ResetForTesting resets the global config state. Only use in tests.
func ResetForTesting() {
	configOnce = sync.Once{}
	globalConfig = nil
	configErr = nil
}
