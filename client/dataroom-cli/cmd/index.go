package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var indexFlags struct {
	project  string
	file     string
	category string
}

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Upload a file and index it into a project",
	RunE: func(cmd *cobra.Command, args []string) error {
		if indexFlags.project == "" || indexFlags.file == "" {
			return errors.New("--project and --file are required")
		}
		f, err := os.Open(indexFlags.file)
		if err != nil {
			return err
		}
		defer f.Close()

		res, err := newClient().Upload(cmd.Context(), indexFlags.project, indexFlags.file, indexFlags.category, f)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Indexed %s as document %s (%d chunks)\n", indexFlags.file, res.DocumentID, res.ChunksCreated)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(indexCmd)
	indexCmd.Flags().StringVar(&indexFlags.project, "project", "", "project id")
	indexCmd.Flags().StringVar(&indexFlags.file, "file", "", "file to upload (txt, md, html, pdf, xlsx)")
	indexCmd.Flags().StringVar(&indexFlags.category, "category", "", "optional document category")
}
