package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/turtacn/MedRx-Intelligence/internal/annotation"
)

func newViewCommand(opts *rootOptions) *cobra.Command {
	var storagePath string

	cmd := &cobra.Command{
		Use:   "view",
		Short: "Print the records of a session storage file",
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
			for _, r := range records {
				fmt.Fprintf(out, "%s  [%s]  %s\n", r.Timestamp.Format("2006-01-02 15:04:05"), r.Status, r.FileName)
				for _, d := range r.ExtractedDrugs {
					fmt.Fprintf(out, "    %-24s %-12s %-12s %s\n", d.DrugName, d.Dosage, d.Frequency, d.Duration)
				}
				if len(r.Alerts) > 0 {
					fmt.Fprintf(out, "    alerts: %s\n", strings.Join(r.Alerts, "; "))
				}
			}
			fmt.Fprintf(out, "%d records\n", len(records))
			return nil
		},
	}
	cmd.Flags().StringVarP(&storagePath, "input", "f", "", "session storage JSON file")
	return cmd
}
