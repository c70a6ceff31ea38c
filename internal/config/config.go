// Package config loads the monitor's startup configuration. Fields are
// pointers so partial JSON files inherit defaults through the Get* methods.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Config represents the monitor configuration file. Every field is optional;
// the Get* accessors supply defaults for fields left unset.
type Config struct {
	// Sampling loop intervals.
	ClassifyInterval *string `json:"classify_interval,omitempty"` // duration string like "300s"
	PollInterval     *string `json:"poll_interval,omitempty"`     // duration string like "1s"
	ErrorBackoff     *string `json:"error_backoff,omitempty"`     // duration string like "5s"

	// Extraction targets.
	VideoWidth      *int `json:"video_width,omitempty"`
	VideoHeight     *int `json:"video_height,omitempty"`
	AudioSampleRate *int `json:"audio_sample_rate,omitempty"`

	// Model-based classification. An empty path selects heuristic mode.
	ModelPath *string `json:"model_path,omitempty"`

	// Storage and serving.
	DatabasePath *string `json:"database_path,omitempty"`
	ListenAddr   *string `json:"listen_addr,omitempty"`

	// Outbound notification service. An empty URL disables notifications.
	NotifyURL    *string `json:"notify_url,omitempty"`
	NotifyAPIKey *string `json:"notify_api_key,omitempty"`
}

// Empty returns a Config with all fields unset.
func Empty() *Config {
	return &Config{}
}

// Load reads a Config from a JSON file. The file must have a .json extension
// and stay under 1MB; fields omitted from the file keep their defaults, so
// partial configs are safe.
func Load(path string) (*Config, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Empty()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks that the configured values are usable.
func (c *Config) Validate() error {
	for name, field := range map[string]*string{
		"classify_interval": c.ClassifyInterval,
		"poll_interval":     c.PollInterval,
		"error_backoff":     c.ErrorBackoff,
	} {
		if field != nil && *field != "" {
			d, err := time.ParseDuration(*field)
			if err != nil {
				return fmt.Errorf("invalid %s %q: %w", name, *field, err)
			}
			if d <= 0 {
				return fmt.Errorf("%s must be positive, got %s", name, d)
			}
		}
	}

	if c.VideoWidth != nil && *c.VideoWidth <= 0 {
		return fmt.Errorf("video_width must be positive, got %d", *c.VideoWidth)
	}
	if c.VideoHeight != nil && *c.VideoHeight <= 0 {
		return fmt.Errorf("video_height must be positive, got %d", *c.VideoHeight)
	}
	if c.AudioSampleRate != nil && *c.AudioSampleRate <= 0 {
		return fmt.Errorf("audio_sample_rate must be positive, got %d", *c.AudioSampleRate)
	}
	return nil
}

func durationOr(field *string, fallback time.Duration) time.Duration {
	if field == nil || *field == "" {
		return fallback
	}
	d, err := time.ParseDuration(*field)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

// GetClassifyInterval returns the gap between classification cycles.
func (c *Config) GetClassifyInterval() time.Duration {
	return durationOr(c.ClassifyInterval, 300*time.Second)
}

// GetPollInterval returns the capture polling cadence.
func (c *Config) GetPollInterval() time.Duration {
	return durationOr(c.PollInterval, time.Second)
}

// GetErrorBackoff returns the extra wait applied after a failed cycle.
func (c *Config) GetErrorBackoff() time.Duration {
	return durationOr(c.ErrorBackoff, 5*time.Second)
}

// GetVideoWidth returns the normalized frame width.
func (c *Config) GetVideoWidth() int {
	if c.VideoWidth == nil {
		return 224
	}
	return *c.VideoWidth
}

// GetVideoHeight returns the normalized frame height.
func (c *Config) GetVideoHeight() int {
	if c.VideoHeight == nil {
		return 224
	}
	return *c.VideoHeight
}

// GetAudioSampleRate returns the audio sample rate in Hz.
func (c *Config) GetAudioSampleRate() int {
	if c.AudioSampleRate == nil {
		return 16000
	}
	return *c.AudioSampleRate
}

// GetModelPath returns the trained model parameter path, empty for
// heuristic mode.
func (c *Config) GetModelPath() string {
	if c.ModelPath == nil {
		return ""
	}
	return *c.ModelPath
}

// GetDatabasePath returns the SQLite database path.
func (c *Config) GetDatabasePath() string {
	if c.DatabasePath == nil {
		return "activity.db"
	}
	return *c.DatabasePath
}

// GetListenAddr returns the HTTP listen address.
func (c *Config) GetListenAddr() string {
	if c.ListenAddr == nil {
		return ":8080"
	}
	return *c.ListenAddr
}

// GetNotifyURL returns the notification service URL, empty when
// notifications are disabled.
func (c *Config) GetNotifyURL() string {
	if c.NotifyURL == nil {
		return ""
	}
	return *c.NotifyURL
}

// GetNotifyAPIKey returns the notification bearer token.
func (c *Config) GetNotifyAPIKey() string {
	if c.NotifyAPIKey == nil {
		return ""
	}
	return *c.NotifyAPIKey
}
