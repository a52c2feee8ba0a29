package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check that the RAG service is up",
	RunE: func(cmd *cobra.Command, args []string) error {
		h, err := newClient().Health(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s at %s, %d active projects\n", h.Status, h.Timestamp, h.ActiveProjects)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(healthCmd)
}
