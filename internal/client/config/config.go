// Package config holds runtime settings for the paperdock client.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/avlasov/paperdock/internal/timex"
)

// Config is the resolved runtime configuration.
//
// Durations are time.Duration; the JSON file may specify them either as
// strings like "5m" or as integer nanoseconds.
type Config struct {
	// ServerURL is the base URL of the document-management server.
	ServerURL string

	// APIToken authenticates every remote call.
	APIToken string

	// DatabasePath is the sqlite file holding the local cache.
	DatabasePath string

	// LogPath is the rotating client log file.
	LogPath string

	// InboxDir, when set, is watched for scanned files to queue as new
	// documents.
	InboxDir string

	// SyncInterval is how often a reconciliation cycle is started in the
	// background. Connectivity regained triggers one immediately.
	SyncInterval time.Duration

	// OnlineCheckInterval is how often the client probes server
	// reachability while offline.
	OnlineCheckInterval time.Duration

	// MaintenanceInterval is how often tombstone and usage-ledger sweeps
	// run.
	MaintenanceInterval time.Duration

	// TombstoneRetention is how long soft-deleted cache rows are kept
	// before the sweep purges them.
	TombstoneRetention time.Duration

	// DrainBatchSize bounds how many pending changes one cycle sends.
	DrainBatchSize int
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	dir := filepath.Join(home, ".paperdock")

	c.ServerURL = "http://127.0.0.1:8000"
	c.DatabasePath = filepath.Join(dir, "paperdock.db")
	c.LogPath = filepath.Join(dir, "paperdock.log")
	c.SyncInterval = 5 * time.Minute
	c.OnlineCheckInterval = 15 * time.Second
	c.MaintenanceInterval = 6 * time.Hour
	c.TombstoneRetention = 30 * 24 * time.Hour
	c.DrainBatchSize = 50
}

// jsonConfig is a DTO used exclusively for JSON unmarshalling.
type jsonConfig struct {
	ServerURL           string         `json:"server_url"`
	APIToken            string         `json:"api_token"`
	DatabasePath        string         `json:"database_path"`
	LogPath             string         `json:"log_path"`
	InboxDir            string         `json:"inbox_dir"`
	SyncInterval        timex.Duration `json:"sync_interval"`
	OnlineCheckInterval timex.Duration `json:"online_check_interval"`
	MaintenanceInterval timex.Duration `json:"maintenance_interval"`
	TombstoneRetention  timex.Duration `json:"tombstone_retention"`
	DrainBatchSize      int            `json:"drain_batch_size"`
}

// Load constructs a Config: defaults first, then the JSON file at path (if
// any) overlaid on top. Empty JSON fields keep the default.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	var jc jsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	if jc.ServerURL != "" {
		cfg.ServerURL = jc.ServerURL
	}
	if jc.APIToken != "" {
		cfg.APIToken = jc.APIToken
	}
	if jc.DatabasePath != "" {
		cfg.DatabasePath = jc.DatabasePath
	}
	if jc.LogPath != "" {
		cfg.LogPath = jc.LogPath
	}
	if jc.InboxDir != "" {
		cfg.InboxDir = jc.InboxDir
	}
	if jc.SyncInterval.Duration > 0 {
		cfg.SyncInterval = jc.SyncInterval.Duration
	}
	if jc.OnlineCheckInterval.Duration > 0 {
		cfg.OnlineCheckInterval = jc.OnlineCheckInterval.Duration
	}
	if jc.MaintenanceInterval.Duration > 0 {
		cfg.MaintenanceInterval = jc.MaintenanceInterval.Duration
	}
	if jc.TombstoneRetention.Duration > 0 {
		cfg.TombstoneRetention = jc.TombstoneRetention.Duration
	}
	if jc.DrainBatchSize > 0 {
		cfg.DrainBatchSize = jc.DrainBatchSize
	}

	return cfg, nil
}
