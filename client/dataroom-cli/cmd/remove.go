package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var removeFlags struct {
	project  string
	document string
}

var removeCmd = &cobra.Command{
	Use:   "remove",
	Short: "Remove a document's chunks from a project",
	RunE: func(cmd *cobra.Command, args []string) error {
		if removeFlags.project == "" || removeFlags.document == "" {
			return errors.New("--project and --document are required")
		}
		if err := newClient().Remove(cmd.Context(), removeFlags.project, removeFlags.document); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Removed document %s\n", removeFlags.document)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(removeCmd)
	removeCmd.Flags().StringVar(&removeFlags.project, "project", "", "project id")
	removeCmd.Flags().StringVar(&removeFlags.document, "document", "", "document id")
}
