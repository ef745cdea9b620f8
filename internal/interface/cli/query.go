package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/YoshitsuguKoike/auditjournal/internal/application/dto"
)

// queryOptions holds the root query flags; at most one is set
type queryOptions struct {
	prettyList bool
	list       bool
	blame      string
	export     bool
}

func (q *queryOptions) any() bool {
	return q.prettyList || q.list || q.export || q.blame != ""
}

func runQuery(cmd *cobra.Command, s *session, q *queryOptions) error {
	ctx := cmd.Context()
	container, err := s.openContainer(ctx)
	if err != nil {
		return err
	}
	defer container.Close()

	uc := container.GetReplayUseCase()
	out := cmd.OutOrStdout()

	switch {
	case q.prettyList:
		resp, err := uc.Summaries(ctx)
		if err != nil {
			return err
		}
		return printSummaryTable(out, resp)
	case q.list:
		resp, err := uc.Records(ctx)
		if err != nil {
			return err
		}
		return writeJSON(out, resp.Records)
	case q.export:
		resp, err := uc.Export(ctx)
		if err != nil {
			return err
		}
		return writeJSON(out, resp.Journals)
	default:
		resp, err := uc.Blame(ctx, q.blame)
		if err != nil {
			return err
		}
		return writeJSON(out, resp)
	}
}

func printSummaryTable(out io.Writer, resp *dto.SummaryListResponse) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTORED AT\tJOURNAL\tHOSTS\tOK\tFAILED")
	for _, row := range resp.Rows {
		fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%d\t%d\n",
			row.RecordID,
			row.StoredAt.Format(time.RFC3339),
			row.JournalID,
			row.Hosts,
			row.Successes,
			row.Failures,
		)
	}
	return w.Flush()
}

func writeJSON(out io.Writer, v interface{}) error {
	enc := json.NewEncoder(out)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
