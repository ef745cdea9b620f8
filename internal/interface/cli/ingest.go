package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/YoshitsuguKoike/auditjournal/internal/application/service"
)

// Event names accepted on the ingest stream
const (
	eventRunStart   = "run_start"
	eventTaskOK     = "task_ok"
	eventTaskFailed = "task_failed"
	eventRunEnd     = "run_end"
)

// ingestEvent is one line of the NDJSON event stream
type ingestEvent struct {
	Event   string          `json:"event"`
	Host    string          `json:"host"`
	Result  json.RawMessage `json:"result"`
	Summary json.RawMessage `json:"summary"`
}

func newIngestCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "ingest",
		Short: "Record one run from an NDJSON event stream on stdin",
		Long: `Reads orchestration events, one JSON object per line, and folds them into a journal:

  {"event":"run_start"}
  {"event":"task_ok","host":"web1","result":{...}}
  {"event":"task_failed","host":"web1","result":{...}}
  {"event":"run_end","summary":{...}}

The journal is stored when run_end arrives, or at end of input if it never does,
and is then offered to the configured collector.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			container, err := s.openContainer(cmd.Context())
			if err != nil {
				return err
			}
			defer container.Close()

			ctrl := container.NewRunController()
			if err := ingest(cmd, s, ctrl, cmd.InOrStdin()); err != nil {
				return err
			}
			for _, r := range ctrl.Reports() {
				fmt.Fprintf(cmd.OutOrStdout(), "stored record %d (delivery: %s)\n", r.RecordID, r.Delivery.Status)
			}
			return nil
		},
	}
}

// ingest feeds every event of in to ctrl. Only store failures and an
// unreadable stream abort the run.
func ingest(cmd *cobra.Command, s *session, ctrl *service.RunController, in io.Reader) error {
	ctx := cmd.Context()
	dec := json.NewDecoder(in)

	for n := 1; ; n++ {
		var ev ingestEvent
		if err := dec.Decode(&ev); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return fmt.Errorf("event %d: %w", n, err)
		}

		switch ev.Event {
		case eventRunStart:
			ctrl.OnRunBoundaryStart()
		case eventTaskOK:
			if err := ctrl.OnHostTaskOK(ctx, ev.Host, ev.Result); err != nil {
				return err
			}
		case eventTaskFailed:
			if err := ctrl.OnHostTaskFailed(ctx, ev.Host, ev.Result); err != nil {
				return err
			}
		case eventRunEnd:
			if _, err := ctrl.OnRunEnd(ctx, ev.Summary); err != nil {
				return err
			}
		default:
			s.logger.Warn("event %d: unknown event %q ignored", n, ev.Event)
		}
	}

	// End of input closes a run that never announced its end, including
	// events that arrived after the last per-task finalization
	if ctrl.State() == service.StateCollecting && ctrl.Unsaved() {
		if _, err := ctrl.OnRunEnd(ctx, nil); err != nil {
			return err
		}
	}
	return nil
}
