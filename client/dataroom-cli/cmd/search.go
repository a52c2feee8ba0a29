package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var searchFlags struct {
	project string
	limit   int
}

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search a project's indexed documents",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if searchFlags.project == "" {
			return errors.New("--project is required")
		}
		query := strings.Join(args, " ")
		hits, err := newClient().Search(cmd.Context(), searchFlags.project, query, searchFlags.limit)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if len(hits) == 0 {
			fmt.Fprintln(out, "No results.")
			return nil
		}
		for i, h := range hits {
			fmt.Fprintf(out, "%d. [%.3f] %s (chunk %d)\n", i+1, h.Score, h.Chunk.DocumentID, h.Chunk.ChunkIndex)
			fmt.Fprintf(out, "   %s\n", h.Chunk.Content)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(searchCmd)
	searchCmd.Flags().StringVar(&searchFlags.project, "project", "", "project id")
	searchCmd.Flags().IntVar(&searchFlags.limit, "limit", 0, "maximum number of results (0 uses the server default)")
}
