package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/sandeepkv93/tasklist/internal/store"
)

const (
	BackendSQLite = "sqlite"
	BackendFile   = "file"
	BackendMemory = "memory"
)

type RuntimeConfig struct {
	Backend       string `yaml:"backend"`
	DatabasePath  string `yaml:"database_path"`
	StateFilePath string `yaml:"state_file_path"`
	StorageKey    string `yaml:"storage_key"`
	CorruptState  string `yaml:"corrupt_state"`
	LogFile       string `yaml:"log_file"`
}

func DefaultRuntimeConfig() RuntimeConfig {
	dir := DefaultDataDir()
	return RuntimeConfig{
		Backend:       BackendSQLite,
		DatabasePath:  filepath.Join(dir, "tasklist.db"),
		StateFilePath: filepath.Join(dir, "tasklist.json"),
		StorageKey:    store.DefaultKey,
		CorruptState:  string(store.CorruptReset),
	}
}

// DefaultDataDir is the per-user directory holding the task database.
func DefaultDataDir() string {
	base, err := os.UserConfigDir()
	if err != nil || base == "" {
		return ".tasklist"
	}
	return filepath.Join(base, "tasklist")
}

// LoadFile overlays the YAML document at path on base. A missing file is not an error.
func LoadFile(path string, base RuntimeConfig) (RuntimeConfig, error) {
	cfg := base
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return cfg, nil
	}
	raw, err := os.ReadFile(trimmed)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return base, fmt.Errorf("read config %s: %w", trimmed, err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return base, fmt.Errorf("parse config %s: %w", trimmed, err)
	}
	return cfg, nil
}

func RuntimeConfigFromEnv(base RuntimeConfig) RuntimeConfig {
	cfg := base
	if v, ok := getEnvString("TASKLIST_BACKEND"); ok {
		cfg.Backend = strings.ToLower(v)
	}
	if v, ok := getEnvString("TASKLIST_DB"); ok {
		cfg.DatabasePath = v
	}
	if v, ok := getEnvString("TASKLIST_STATE_FILE"); ok {
		cfg.StateFilePath = v
	}
	if v, ok := getEnvString("TASKLIST_STORAGE_KEY"); ok {
		cfg.StorageKey = v
	}
	if v, ok := getEnvString("TASKLIST_CORRUPT_STATE"); ok {
		cfg.CorruptState = strings.ToLower(v)
	}
	if v, ok := getEnvString("TASKLIST_LOG_FILE"); ok {
		cfg.LogFile = v
	}
	return cfg
}

func (c RuntimeConfig) Validate() error {
	switch c.Backend {
	case BackendSQLite:
		if strings.TrimSpace(c.DatabasePath) == "" {
			return errors.New("config: database_path is required for the sqlite backend")
		}
	case BackendFile:
		if strings.TrimSpace(c.StateFilePath) == "" {
			return errors.New("config: state_file_path is required for the file backend")
		}
	case BackendMemory:
	default:
		return fmt.Errorf("config: unknown backend %q", c.Backend)
	}
	if strings.TrimSpace(c.StorageKey) == "" {
		return errors.New("config: storage_key is required")
	}
	if !store.CorruptPolicy(c.CorruptState).IsValid() {
		return fmt.Errorf("config: unknown corrupt_state policy %q", c.CorruptState)
	}
	return nil
}

func getEnvString(name string) (string, bool) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return "", false
	}
	return raw, true
}
