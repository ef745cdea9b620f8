package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/YoshitsuguKoike/auditjournal/internal/application/dto"
)

func newResendCmd(s *session) *cobra.Command {
	var afterID, id int64

	cmd := &cobra.Command{
		Use:   "resend",
		Short: "Re-deliver stored journals to the collector",
		Long: `Offers every stored journal with an id greater than --after-id, or only the
record given by --id, to the configured collector again. The store is never modified.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if s.cfg.CollectorURL() == "" {
				return fmt.Errorf("no collector_url configured in %s", settingLabel(s))
			}
			container, err := s.openContainer(cmd.Context())
			if err != nil {
				return err
			}
			defer container.Close()

			uc := container.GetReplayUseCase()
			var resp *dto.ResendResponse
			if cmd.Flags().Changed("id") {
				resp, err = uc.ResendRecord(cmd.Context(), container.GetCollectorGateway(), id)
			} else {
				resp, err = uc.Resend(cmd.Context(), container.GetCollectorGateway(), afterID)
			}
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), resp)
		},
	}
	cmd.Flags().Int64Var(&afterID, "after-id", 0, "only resend records with an id greater than this")
	cmd.Flags().Int64Var(&id, "id", 0, "resend only this record")
	cmd.MarkFlagsMutuallyExclusive("after-id", "id")
	return cmd
}

func settingLabel(s *session) string {
	if p := s.cfg.SettingPath(); p != "" {
		return p
	}
	return "setting.json (using defaults)"
}
