package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/nexscan/nexscan-cli/internal/history"
	"github.com/nexscan/nexscan-cli/internal/scanner"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect past scan runs",
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored scan runs, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		target, _ := cmd.Flags().GetString("target")

		store, err := history.Open(historyPath(loadCLIConfig()))
		if err != nil {
			return fmt.Errorf("failed to open history store: %w", err)
		}
		defer store.Close()

		records, err := store.List(target)
		if err != nil {
			return err
		}
		if len(records) == 0 {
			fmt.Println("no stored scans")
			return nil
		}

		tw := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tTARGET\tSTARTED\tMODULES")
		for _, rec := range records {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%d\n",
				rec.ID, rec.Target, rec.StartedAt.Format("2006-01-02 15:04"), len(rec.Modules))
		}
		return tw.Flush()
	},
}

var historyShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Render one stored scan run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := history.Open(historyPath(loadCLIConfig()))
		if err != nil {
			return fmt.Errorf("failed to open history store: %w", err)
		}
		defer store.Close()

		rec, err := store.Get(args[0])
		if err != nil {
			return err
		}
		report, err := decodeRecordReport(rec)
		if err != nil {
			return err
		}
		renderReport(os.Stdout, report)
		return nil
	},
}

func decodeRecordReport(rec *history.Record) (*scanner.Report, error) {
	report, err := rec.DecodeReport()
	if err != nil {
		return nil, fmt.Errorf("stored report %s is unreadable: %w", rec.ID, err)
	}
	return report, nil
}

func init() {
	historyListCmd.Flags().String("target", "", "only show runs against this host")
	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyShowCmd)
}
