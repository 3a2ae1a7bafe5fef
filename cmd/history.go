package cmd

import (
	"fmt"

	"dramaweb/config"
	"dramaweb/services"

	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().IntP("page", "p", 1, "Page number")
	historyCmd.Flags().Bool("clear", false, "Delete all play history")
	historyCmd.Flags().String("delete", "", "Delete the play history of one drama")
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List or clear the local play history",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc := services.GetHistoryService()
		if !svc.Enabled() {
			return fmt.Errorf("play history is disabled (HISTORY_ENABLED=false or database unavailable)")
		}
		out := cmd.OutOrStdout()

		if lo.Must(cmd.Flags().GetBool("clear")) {
			n, err := svc.Clear()
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "%d record(s) deleted\n", n)
			return nil
		}

		if id := lo.Must(cmd.Flags().GetString("delete")); id != "" {
			ok, err := svc.Delete(id)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("no history for %q", id)
			}
			fmt.Fprintf(out, "deleted %s\n", id)
			return nil
		}

		page := max(lo.Must(cmd.Flags().GetInt("page")), 1)
		records, _, err := svc.List(page, max(config.Settings.HistoryPageSize, 1))
		if err != nil {
			return err
		}
		return printJSON(out, records)
	},
}
