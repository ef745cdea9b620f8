package cli

import (
	"context"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/YoshitsuguKoike/auditjournal/internal/app"
	"github.com/YoshitsuguKoike/auditjournal/internal/app/config"
	infraConfig "github.com/YoshitsuguKoike/auditjournal/internal/infra/config"
	"github.com/YoshitsuguKoike/auditjournal/internal/infrastructure/di"
	"github.com/YoshitsuguKoike/auditjournal/internal/interface/cli/version"
)

// session carries the state shared by every command of one invocation
type session struct {
	fs         afero.Fs
	configPath string
	storePath  string

	cfg    *config.AppConfig
	logger app.Logger
}

// load resolves the effective configuration before any command runs.
// Priority: --store > setting.json > defaults
func (s *session) load(cmd *cobra.Command) error {
	cfg, err := infraConfig.LoadSettings(s.fs, app.ResolvePaths(), s.configPath)
	if err != nil {
		return err
	}
	if s.storePath != "" {
		cfg = cfg.WithStorePath(s.storePath)
	}
	s.cfg = cfg
	s.logger = app.NewLogger(cfg.StderrLevel(), cmd.ErrOrStderr())
	return nil
}

// containerConfig maps the effective configuration onto the DI container
func (s *session) containerConfig() di.Config {
	return di.Config{
		StorePath:       s.cfg.StorePath(),
		CollectorURL:    s.cfg.CollectorURL(),
		DeliveryTimeout: s.cfg.DeliveryTimeout(),
		PerTaskFinalize: s.cfg.PerTaskFinalize(),
		ArchiveDir:      s.cfg.ArchiveDir(),
		S3Bucket:        s.cfg.S3Bucket(),
		S3Prefix:        s.cfg.S3Prefix(),
		S3Region:        s.cfg.S3Region(),
		Logger:          s.logger,
		Fs:              s.fs,
	}
}

func (s *session) openContainer(ctx context.Context) (*di.Container, error) {
	return di.NewContainer(ctx, s.containerConfig())
}

// NewRoot builds the auditjournal command tree
func NewRoot() *cobra.Command {
	s := &session{fs: afero.NewOsFs()}
	q := &queryOptions{}

	cmd := &cobra.Command{
		Use:          "auditjournal",
		Short:        "Audit trail collector for orchestration runs",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return s.load(cmd)
		},
		RunE: func(c *cobra.Command, _ []string) error {
			if !q.any() {
				return c.Help()
			}
			return runQuery(c, s, q)
		},
	}

	cmd.PersistentFlags().StringVar(&s.configPath, "config", "", "path to setting.json (default $HOME/.auditjournal/setting.json)")
	cmd.PersistentFlags().StringVar(&s.storePath, "store", "", "path to the journal cache (overrides store_path)")

	cmd.Flags().BoolVar(&q.prettyList, "pretty-list", false, "print a table summarizing every stored journal")
	cmd.Flags().BoolVar(&q.list, "list", false, "print every stored record as one JSON document")
	cmd.Flags().StringVar(&q.blame, "blame", "", "print who ran what against `host`")
	cmd.Flags().BoolVar(&q.export, "export", false, "print every stored journal as a JSON array")
	cmd.MarkFlagsMutuallyExclusive("pretty-list", "list", "blame", "export")

	cmd.AddCommand(newIngestCmd(s))
	cmd.AddCommand(newResendCmd(s))
	cmd.AddCommand(newArchiveCmd(s))
	cmd.AddCommand(newConfigCmd(s))
	cmd.AddCommand(newDoctorCmd(s))
	cmd.AddCommand(version.NewCommand())
	return cmd
}
