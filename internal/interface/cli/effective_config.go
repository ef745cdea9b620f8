package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/YoshitsuguKoike/auditjournal/internal/app"
	"github.com/YoshitsuguKoike/auditjournal/internal/app/config"
	"github.com/YoshitsuguKoike/auditjournal/internal/buildinfo"
	infraConfig "github.com/YoshitsuguKoike/auditjournal/internal/infra/config"
	"github.com/YoshitsuguKoike/auditjournal/internal/infra/persistence/file"
)

// EffectiveConfig represents the final applied configuration for serialization
type EffectiveConfig struct {
	Meta     EffectiveConfigMeta     `json:"meta" yaml:"meta"`
	Store    EffectiveConfigStore    `json:"store" yaml:"store"`
	Delivery EffectiveConfigDelivery `json:"delivery" yaml:"delivery"`
	Archive  EffectiveConfigArchive  `json:"archive" yaml:"archive"`
	Logging  EffectiveConfigLogging  `json:"logging" yaml:"logging"`
}

// EffectiveConfigMeta contains metadata about the configuration
type EffectiveConfigMeta struct {
	Source         string   `json:"source" yaml:"source"`
	SettingPath    string   `json:"setting_path" yaml:"setting_path"`
	SourcePriority []string `json:"source_priority" yaml:"source_priority"`
	Version        string   `json:"version" yaml:"version"`
	TsUTC          string   `json:"ts_utc" yaml:"ts_utc"`
}

// EffectiveConfigStore represents the journal cache configuration
type EffectiveConfigStore struct {
	Home string `json:"home" yaml:"home"`
	Path string `json:"path" yaml:"path"`
}

// EffectiveConfigDelivery represents collector delivery configuration
type EffectiveConfigDelivery struct {
	CollectorURL    string `json:"collector_url" yaml:"collector_url"`
	TimeoutSec      int    `json:"timeout_sec" yaml:"timeout_sec"`
	PerTaskFinalize bool   `json:"per_task_finalize" yaml:"per_task_finalize"`
}

// EffectiveConfigArchive represents archive configuration
type EffectiveConfigArchive struct {
	Dir      string `json:"dir" yaml:"dir"`
	S3Bucket string `json:"s3_bucket" yaml:"s3_bucket"`
	S3Prefix string `json:"s3_prefix" yaml:"s3_prefix"`
	S3Region string `json:"s3_region" yaml:"s3_region"`
}

// EffectiveConfigLogging represents logging configuration
type EffectiveConfigLogging struct {
	StderrLevel string `json:"stderr_level" yaml:"stderr_level"`
}

func newConfigCmd(s *session) *cobra.Command {
	var (
		format  string
		compact bool
	)

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := renderEffectiveConfig(buildEffectiveConfig(s.cfg), format, compact)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}
	cmd.Flags().StringVar(&format, "format", "yaml", "output format: yaml or json")
	cmd.Flags().BoolVar(&compact, "compact", false, "compact JSON output")
	cmd.AddCommand(newConfigInitCmd(s))
	return cmd
}

func newConfigInitCmd(s *session) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a setting.json holding every default",
		Args:  cobra.NoArgs,
		// Runs without loading settings so a broken setting.json can be replaced
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			paths := app.ResolvePaths()
			if exists, err := afero.Exists(s.fs, paths.Setting); err != nil {
				return err
			} else if exists && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", paths.Setting)
			}
			if err := file.WriteFileAtomic(s.fs, paths.Setting, infraConfig.CreateDefaultSettings(paths), 0o644); err != nil {
				return fmt.Errorf("write %s: %w", paths.Setting, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", paths.Setting)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing setting.json")
	return cmd
}

// renderEffectiveConfig serializes the effective configuration
func renderEffectiveConfig(effective *EffectiveConfig, format string, compact bool) ([]byte, error) {
	var (
		output []byte
		err    error
	)
	switch format {
	case "yaml":
		output, err = yaml.Marshal(effective)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal to YAML: %w", err)
		}
	case "json":
		if compact {
			output, err = json.Marshal(effective)
		} else {
			output, err = json.MarshalIndent(effective, "", "  ")
		}
		if err != nil {
			return nil, fmt.Errorf("failed to marshal to JSON: %w", err)
		}
		// Ensure newline at end
		if !bytes.HasSuffix(output, []byte("\n")) {
			output = append(output, '\n')
		}
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
	return output, nil
}

// buildEffectiveConfig converts the loaded Config for output
func buildEffectiveConfig(cfg config.Config) *EffectiveConfig {
	return &EffectiveConfig{
		Meta: EffectiveConfigMeta{
			Source:         cfg.ConfigSource(),
			SettingPath:    cfg.SettingPath(),
			SourcePriority: []string{"cli", "setting.json", "defaults"},
			Version:        buildinfo.GetVersion(),
			TsUTC:          time.Now().UTC().Format(time.RFC3339Nano),
		},
		Store: EffectiveConfigStore{
			Home: cfg.Home(),
			Path: cfg.StorePath(),
		},
		Delivery: EffectiveConfigDelivery{
			CollectorURL:    cfg.CollectorURL(),
			TimeoutSec:      cfg.DeliveryTimeoutSec(),
			PerTaskFinalize: cfg.PerTaskFinalize(),
		},
		Archive: EffectiveConfigArchive{
			Dir:      cfg.ArchiveDir(),
			S3Bucket: cfg.S3Bucket(),
			S3Prefix: cfg.S3Prefix(),
			S3Region: cfg.S3Region(),
		},
		Logging: EffectiveConfigLogging{
			StderrLevel: cfg.StderrLevel(),
		},
	}
}
