package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/turtacn/MedRx-Intelligence/internal/annotation"
)

func newExportCommand(opts *rootOptions) *cobra.Command {
	var (
		storagePath string
		csvPath     string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Flatten a session storage file into CSV, one row per drug",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := opts.loadConfig()
			if err != nil {
				return err
			}
			if storagePath == "" {
				storagePath = cfg.Session.StoragePath
			}
			store, err := annotation.NewFileStore(storagePath)
			if err != nil {
				return err
			}
			records, err := store.Load()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if csvPath != "" {
				f, err := os.Create(csvPath)
				if err != nil {
					return err
				}
				defer f.Close()
				out = f
			}
			rows := annotation.Flatten(records)
			if err := annotation.WriteCSV(out, rows); err != nil {
				return err
			}
			if csvPath != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "%d rows → %s\n", len(rows), csvPath)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&storagePath, "input", "f", "", "session storage JSON file")
	cmd.Flags().StringVarP(&csvPath, "output", "o", "", "destination CSV file (default: stdout)")
	return cmd
}
