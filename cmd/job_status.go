package cmd

import (
	"fmt"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"storepilot/src/console"
	"storepilot/src/core/jobtrack"
)

var jobStatusKind string

var jobStatusCmd = &cobra.Command{
	Use:   "job-status <job-id>",
	Short: "Print the current status of a job",
	Args:  cobra.ExactArgs(1),
	RunE:  runJobStatus,
}

var recentStoresCmd = &cobra.Command{
	Use:   "recent-stores",
	Short: "List the most recently created stores",
	RunE:  runRecentStores,
}

func init() {
	jobStatusCmd.Flags().StringVar(&jobStatusKind, "kind", "", "job kind used to label the phase (store_creation or product_edit)")
	rootCmd.AddCommand(jobStatusCmd)
	rootCmd.AddCommand(recentStoresCmd)
}

func runJobStatus(cmd *cobra.Command, args []string) error {
	status, err := newBackendClient().Status(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("FIELD", "VALUE")
	table.Append("ID", status.ID)
	table.Append("Status", string(status.Status))
	table.Append("Progress", fmt.Sprintf("%d%%", status.Progress))
	if kind := jobtrack.JobKind(jobStatusKind); kind.Valid() && !status.Status.Terminal() {
		table.Append("Phase", jobtrack.PhaseText(kind, status.Progress))
	}
	table.Append("Prompt", status.Prompt)
	table.Append("Started", status.StartedAt)
	if status.CompletedAt != "" {
		table.Append("Completed", status.CompletedAt)
	}
	if status.Error != "" {
		table.Append("Error", status.Error)
	}
	if len(status.Result) > 0 {
		table.Append("Result", string(status.Result))
	}
	return table.Render()
}

func runRecentStores(cmd *cobra.Command, args []string) error {
	stores, err := newBackendClient().RecentStores(cmd.Context())
	if err != nil {
		return err
	}
	console.PrintRecentStores(os.Stdout, stores)
	return nil
}
