package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/YoshitsuguKoike/auditjournal/internal/infrastructure/di"
)

func newArchiveCmd(s *session) *cobra.Command {
	var (
		dir      string
		s3Bucket string
		s3Prefix string
		list     bool
	)

	cmd := &cobra.Command{
		Use:   "archive",
		Short: "Copy stored journals to a directory or an S3 bucket",
		Long: `Writes every decodable journal as <record id>.json under journals/ in the
archive. Re-archiving overwrites earlier copies. S3 is used when a bucket is
given on the command line or s3_bucket is configured and --dir is absent.
With --list nothing is written; the journals already archived are listed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg := s.containerConfig()
			kind := di.ArchiveLocal
			switch {
			case dir != "":
				cfg.ArchiveDir = dir
			case s3Bucket != "":
				kind = di.ArchiveS3
				cfg.S3Bucket = s3Bucket
			case cfg.S3Bucket != "":
				kind = di.ArchiveS3
			}
			if s3Prefix != "" {
				cfg.S3Prefix = s3Prefix
			}

			container, err := di.NewContainer(ctx, cfg)
			if err != nil {
				return err
			}
			defer container.Close()

			gateway, err := container.ArchiveGateway(ctx, kind)
			if err != nil {
				return fmt.Errorf("%s archive: %w", kind, err)
			}
			if list {
				resp, err := container.GetReplayUseCase().Archived(ctx, gateway)
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), resp)
			}
			resp, err := container.GetReplayUseCase().Archive(ctx, gateway)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), resp)
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "", "archive directory (default archive_dir)")
	cmd.Flags().StringVar(&s3Bucket, "s3-bucket", "", "archive to this S3 bucket")
	cmd.Flags().StringVar(&s3Prefix, "s3-prefix", "", "S3 key prefix (default s3_prefix)")
	cmd.Flags().BoolVar(&list, "list", false, "list archived journals instead of archiving")
	cmd.MarkFlagsMutuallyExclusive("dir", "s3-bucket")
	return cmd
}
