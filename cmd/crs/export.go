package main

import (
	"bufio"

	"github.com/spf13/cobra"

	"github.com/raderre/cresite/internal/config"
	"github.com/raderre/cresite/internal/store/postgres"
	cresync "github.com/raderre/cresite/internal/sync"
)

var exportCmd = &cobra.Command{
	Use:               "export",
	Short:             "Write every property and blog post to stdout as JSONL",
	Long:              "Reads the database named by CRESITE_DATABASE_URL directly and writes the same JSONL the backup scheduler uploads.",
	GroupID:           "system",
	Args:              cobra.NoArgs,
	PersistentPreRunE: skipClient,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		store, err := postgres.New(cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer store.Close()

		w := bufio.NewWriter(cmd.OutOrStdout())
		if err := cresync.ExportJSONL(cmd.Context(), store, w); err != nil {
			return err
		}
		return w.Flush()
	},
}
