package config

import "time"

// Config provides read-only access to application configuration.
// This interface abstracts the configuration source (setting.json, defaults)
// and ensures the app layer doesn't depend on infrastructure details.
type Config interface {
	// Core settings
	Home() string      // Per-user directory ($HOME/.auditjournal)
	StorePath() string // Journal cache database file

	// Delivery
	CollectorURL() string           // Collector base URL, empty disables delivery
	DeliveryTimeoutSec() int        // Delivery timeout in seconds
	DeliveryTimeout() time.Duration // Delivery timeout as Duration

	// Run lifecycle
	PerTaskFinalize() bool // Finalize after every successful task when no run boundary was seen

	// Archive
	ArchiveDir() string // Local archive directory
	S3Bucket() string   // S3 bucket for archives, empty disables S3
	S3Prefix() string   // S3 key prefix
	S3Region() string   // AWS region override

	// Logging
	StderrLevel() string // Stderr log level

	// Metadata
	ConfigSource() string // Source of configuration: "json" or "default"
	SettingPath() string  // Path to setting.json if loaded from file
}

// AppConfig is the concrete implementation of Config interface.
// It holds all configuration values loaded from various sources.
type AppConfig struct {
	home      string
	storePath string

	collectorURL       string
	deliveryTimeoutSec int

	perTaskFinalize bool

	archiveDir string
	s3Bucket   string
	s3Prefix   string
	s3Region   string

	stderrLevel string

	configSource string
	settingPath  string
}

// Home returns the per-user directory
func (c *AppConfig) Home() string {
	return c.home
}

// StorePath returns the journal cache database file
func (c *AppConfig) StorePath() string {
	return c.storePath
}

// CollectorURL returns the collector base URL
func (c *AppConfig) CollectorURL() string {
	return c.collectorURL
}

// DeliveryTimeoutSec returns the delivery timeout in seconds
func (c *AppConfig) DeliveryTimeoutSec() int {
	return c.deliveryTimeoutSec
}

// DeliveryTimeout returns the delivery timeout as a Duration
func (c *AppConfig) DeliveryTimeout() time.Duration {
	return time.Duration(c.deliveryTimeoutSec) * time.Second
}

// PerTaskFinalize returns whether the legacy per-task finalization is enabled
func (c *AppConfig) PerTaskFinalize() bool {
	return c.perTaskFinalize
}

// ArchiveDir returns the local archive directory
func (c *AppConfig) ArchiveDir() string {
	return c.archiveDir
}

// S3Bucket returns the archive bucket
func (c *AppConfig) S3Bucket() string {
	return c.s3Bucket
}

// S3Prefix returns the archive key prefix
func (c *AppConfig) S3Prefix() string {
	return c.s3Prefix
}

// S3Region returns the AWS region override
func (c *AppConfig) S3Region() string {
	return c.s3Region
}

// StderrLevel returns the stderr log level
func (c *AppConfig) StderrLevel() string {
	return c.stderrLevel
}

// ConfigSource returns the source of configuration
func (c *AppConfig) ConfigSource() string {
	return c.configSource
}

// SettingPath returns the path to setting.json if loaded from file
func (c *AppConfig) SettingPath() string {
	return c.settingPath
}

// WithStorePath returns a copy of the config using a different store file
func (c *AppConfig) WithStorePath(path string) *AppConfig {
	cp := *c
	cp.storePath = path
	return &cp
}

// NewAppConfig creates a new AppConfig with the given values.
// This is typically called by the infrastructure layer after loading and merging configurations.
func NewAppConfig(
	home, storePath string,
	collectorURL string, deliveryTimeoutSec int,
	perTaskFinalize bool,
	archiveDir, s3Bucket, s3Prefix, s3Region string,
	stderrLevel string,
	configSource, settingPath string,
) *AppConfig {
	return &AppConfig{
		home:               home,
		storePath:          storePath,
		collectorURL:       collectorURL,
		deliveryTimeoutSec: deliveryTimeoutSec,
		perTaskFinalize:    perTaskFinalize,
		archiveDir:         archiveDir,
		s3Bucket:           s3Bucket,
		s3Prefix:           s3Prefix,
		s3Region:           s3Region,
		stderrLevel:        stderrLevel,
		configSource:       configSource,
		settingPath:        settingPath,
	}
}
