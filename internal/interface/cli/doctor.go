package cli

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

// DoctorJSON represents the JSON output structure for doctor command
type DoctorJSON struct {
	SettingPath   string   `json:"setting_path"`
	StorePath     string   `json:"store_path"`
	SchemaVersion int      `json:"schema_version"`
	Records       int      `json:"records"`
	Undecodable   []int64  `json:"undecodable"`
	CollectorURL  string   `json:"collector_url"`
	ArchiveDir    string   `json:"archive_dir"`
	Warnings      []string `json:"warnings"`
	Errors        []string `json:"errors"`
}

func newDoctorCmd(s *session) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check configuration, store health and archive access",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			report := runDoctor(cmd, s)
			if jsonOutput {
				if err := writeJSON(cmd.OutOrStdout(), report); err != nil {
					return err
				}
			} else {
				printDoctor(cmd.OutOrStdout(), report)
			}
			if len(report.Errors) > 0 {
				return fmt.Errorf("doctor found %d error(s)", len(report.Errors))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	return cmd
}

func runDoctor(cmd *cobra.Command, s *session) *DoctorJSON {
	ctx := cmd.Context()
	report := &DoctorJSON{
		SettingPath:  s.cfg.SettingPath(),
		StorePath:    s.cfg.StorePath(),
		CollectorURL: s.cfg.CollectorURL(),
		ArchiveDir:   s.cfg.ArchiveDir(),
		Undecodable:  []int64{},
		Warnings:     []string{},
		Errors:       []string{},
	}

	container, err := s.openContainer(ctx)
	if err != nil {
		report.Errors = append(report.Errors, err.Error())
		return report
	}
	defer container.Close()

	if v, err := container.StoreSchemaVersion(ctx); err != nil {
		report.Errors = append(report.Errors, fmt.Sprintf("schema version: %v", err))
	} else {
		report.SchemaVersion = v
	}

	summaries, err := container.GetReplayUseCase().Summaries(ctx)
	if err != nil {
		report.Errors = append(report.Errors, fmt.Sprintf("list store: %v", err))
	} else {
		report.Records = len(summaries.Rows) + len(summaries.Skipped)
		for _, sk := range summaries.Skipped {
			report.Undecodable = append(report.Undecodable, sk.RecordID)
		}
		if len(summaries.Skipped) > 0 {
			report.Warnings = append(report.Warnings, fmt.Sprintf("%d record(s) cannot be decoded", len(summaries.Skipped)))
		}
	}

	if report.CollectorURL == "" {
		report.Warnings = append(report.Warnings, "no collector_url configured: journals stay local")
	}

	if exists, err := afero.DirExists(s.fs, report.ArchiveDir); err != nil {
		report.Warnings = append(report.Warnings, fmt.Sprintf("archive dir: %v", err))
	} else if !exists {
		report.Warnings = append(report.Warnings, "archive dir does not exist yet: created by the first archive run")
	} else if err := probeWritable(s.fs, report.ArchiveDir); err != nil {
		report.Warnings = append(report.Warnings, fmt.Sprintf("archive dir not writable: %v", err))
	}
	return report
}

// probeWritable creates and removes a probe file in an existing dir
func probeWritable(fs afero.Fs, dir string) error {
	probe := filepath.Join(dir, ".probe")
	if err := afero.WriteFile(fs, probe, nil, 0o644); err != nil {
		return err
	}
	return fs.Remove(probe)
}

func printDoctor(out io.Writer, r *DoctorJSON) {
	fmt.Fprintln(out, "Store:", r.StorePath)
	fmt.Fprintln(out, "Schema version:", r.SchemaVersion)
	fmt.Fprintln(out, "Records:", r.Records)
	fmt.Fprintln(out, "Collector:", valueOr(r.CollectorURL, "(none)"))
	fmt.Fprintln(out, "Archive dir:", r.ArchiveDir)
	for _, w := range r.Warnings {
		fmt.Fprintf(out, "WARN: %s\n", w)
	}
	for _, e := range r.Errors {
		fmt.Fprintf(out, "ERROR: %s\n", e)
	}
	if len(r.Errors) == 0 {
		fmt.Fprintln(out, "OK: store is healthy")
	}
}

func valueOr(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
