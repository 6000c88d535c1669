package cmd

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"storepilot/src/console"
	"storepilot/src/core/jobtrack"
)

var (
	editProductID     string
	editProductPrompt string
)

var editProductCmd = &cobra.Command{
	Use:   "edit-product",
	Short: "Describe a change to a product and watch it being applied",
	RunE:  runEditProduct,
}

func init() {
	editProductCmd.Flags().StringVar(&editProductID, "product-id", "", "id of the product to edit")
	editProductCmd.Flags().StringVarP(&editProductPrompt, "prompt", "p", "", "the changes to make")
	rootCmd.AddCommand(editProductCmd)
}

func runEditProduct(cmd *cobra.Command, args []string) error {
	view := console.NewEditConsole(os.Stdout)
	tracker := console.Track(jobtrack.NewProductEditHandler(view, jobtrack.SystemScheduler, viper.GetDuration("edit.close_delay")))
	session := newSession(newBackendClient(), jobtrack.KindProductEdit, tracker)

	h, err := watch(session, tracker, jobtrack.Operation{
		Kind:      jobtrack.KindProductEdit,
		ProductID: editProductID,
		Prompt:    editProductPrompt,
	})
	if err != nil || h == nil || h.State() != jobtrack.StateCompleted {
		return err
	}

	// the editor closes a moment after success
	<-view.Closed()
	return nil
}
