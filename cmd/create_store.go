package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"storepilot/src/console"
	"storepilot/src/core/jobtrack"
)

var createStorePrompt string

var createStoreCmd = &cobra.Command{
	Use:   "create-store",
	Short: "Create a store from a description and watch its progress",
	RunE:  runCreateStore,
}

func init() {
	createStoreCmd.Flags().StringVarP(&createStorePrompt, "prompt", "p", "", "description of the store to create")
	rootCmd.AddCommand(createStoreCmd)
}

func runCreateStore(cmd *cobra.Command, args []string) error {
	client := newBackendClient()
	tracker := console.Track(&jobtrack.StoreCreationHandler{
		View: console.NewStoreConsole(os.Stdout, client),
	})
	session := newSession(client, jobtrack.KindStoreCreation, tracker)

	_, err := watch(session, tracker, jobtrack.Operation{Kind: jobtrack.KindStoreCreation, Prompt: createStorePrompt})
	return err
}
