package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/afero"

	"github.com/YoshitsuguKoike/auditjournal/internal/app"
	"github.com/YoshitsuguKoike/auditjournal/internal/app/config"
)

// RawSettings represents the structure of setting.json file.
// JSON tags are used for marshaling/unmarshaling.
type RawSettings struct {
	// Core settings
	StorePath *string `json:"store_path"`

	// Delivery
	CollectorURL       *string `json:"collector_url"`
	DeliveryTimeoutSec *int    `json:"delivery_timeout_sec"`

	// Run lifecycle
	PerTaskFinalize *bool `json:"per_task_finalize"`

	// Archive
	ArchiveDir *string `json:"archive_dir"`
	S3Bucket   *string `json:"s3_bucket"`
	S3Prefix   *string `json:"s3_prefix"`
	S3Region   *string `json:"s3_region"`

	// Logging
	StderrLevel *string `json:"stderr_level"`
}

// LoadSettings loads configuration from setting.json.
// Priority: setting.json > defaults. settingPath overrides paths.Setting.
func LoadSettings(fs afero.Fs, paths app.Paths, settingPath string) (*config.AppConfig, error) {
	settings := &RawSettings{}
	configSource := "default"
	loadedFrom := ""

	explicit := settingPath != ""
	if !explicit {
		settingPath = paths.Setting
	}

	data, err := afero.ReadFile(fs, settingPath)
	switch {
	case err == nil:
		if err := json.Unmarshal(data, settings); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", settingPath, err)
		}
		configSource = "json"
		loadedFrom = settingPath
	case os.IsNotExist(err) && !explicit:
		// No setting.json: defaults only
	default:
		return nil, fmt.Errorf("failed to read %s: %w", settingPath, err)
	}

	applyDefaults(settings, paths)
	if err := validate(settings); err != nil {
		return nil, fmt.Errorf("invalid settings in %s: %w", settingPath, err)
	}

	return buildAppConfig(settings, paths, configSource, loadedFrom), nil
}

// applyDefaults fills in default values for any nil fields
func applyDefaults(settings *RawSettings, paths app.Paths) {
	if settings.StorePath == nil {
		v := paths.Store
		settings.StorePath = &v
	}
	*settings.StorePath = expandHome(*settings.StorePath, paths.UserHome)

	if settings.CollectorURL == nil {
		v := ""
		settings.CollectorURL = &v
	}
	if settings.DeliveryTimeoutSec == nil {
		v := 10
		settings.DeliveryTimeoutSec = &v
	}

	if settings.PerTaskFinalize == nil {
		v := false
		settings.PerTaskFinalize = &v
	}

	if settings.ArchiveDir == nil {
		v := paths.Archive
		settings.ArchiveDir = &v
	}
	*settings.ArchiveDir = expandHome(*settings.ArchiveDir, paths.UserHome)
	if settings.S3Bucket == nil {
		v := ""
		settings.S3Bucket = &v
	}
	if settings.S3Prefix == nil {
		v := ""
		settings.S3Prefix = &v
	}
	if settings.S3Region == nil {
		v := ""
		settings.S3Region = &v
	}

	if settings.StderrLevel == nil {
		v := "warn" // Default to WARN level
		settings.StderrLevel = &v
	}
}

func validate(settings *RawSettings) error {
	if *settings.DeliveryTimeoutSec <= 0 {
		return fmt.Errorf("delivery_timeout_sec must be positive, got %d", *settings.DeliveryTimeoutSec)
	}
	if u := *settings.CollectorURL; u != "" && !strings.HasPrefix(u, "http://") && !strings.HasPrefix(u, "https://") {
		return fmt.Errorf("collector_url must be an http(s) URL, got %q", u)
	}
	if strings.TrimSpace(*settings.StorePath) == "" {
		return fmt.Errorf("store_path must not be empty")
	}
	return nil
}

// expandHome replaces a leading "~/" with the user home
func expandHome(path, userHome string) string {
	if path == "~" {
		return userHome
	}
	if strings.HasPrefix(path, "~/") {
		return userHome + path[1:]
	}
	return path
}

// buildAppConfig converts RawSettings to AppConfig
func buildAppConfig(settings *RawSettings, paths app.Paths, configSource, settingPath string) *config.AppConfig {
	return config.NewAppConfig(
		paths.Home,
		*settings.StorePath,
		*settings.CollectorURL,
		*settings.DeliveryTimeoutSec,
		*settings.PerTaskFinalize,
		*settings.ArchiveDir,
		*settings.S3Bucket,
		*settings.S3Prefix,
		*settings.S3Region,
		*settings.StderrLevel,
		configSource,
		settingPath,
	)
}

// CreateDefaultSettings creates a default setting.json content
func CreateDefaultSettings(paths app.Paths) []byte {
	settings := &RawSettings{}
	applyDefaults(settings, paths)

	data, _ := json.MarshalIndent(settings, "", "  ")
	return data
}
