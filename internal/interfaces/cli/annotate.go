package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/turtacn/MedRx-Intelligence/internal/annotation"
	"github.com/turtacn/MedRx-Intelligence/internal/config"
	"github.com/turtacn/MedRx-Intelligence/internal/extraction"
	"github.com/turtacn/MedRx-Intelligence/internal/extraction/ner"
	"github.com/turtacn/MedRx-Intelligence/internal/infrastructure/monitoring/logging"
)

func newAnnotateCommand(opts *rootOptions) *cobra.Command {
	var (
		sourceDir   string
		storagePath string
		interactive bool
	)

	cmd := &cobra.Command{
		Use:   "annotate",
		Short: "Run a batch annotation session over a directory of prescription texts",
		Long: `Extracts drug mentions from every .txt file in the source directory and
appends the results to the session storage file.  Progress is durable after
every file; rerunning with the same storage resumes where the last run ended.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := opts.loadConfig()
			if err != nil {
				return err
			}
			if sourceDir == "" {
				sourceDir = cfg.Session.SourceDir
			}
			if storagePath == "" {
				storagePath = cfg.Session.StoragePath
			}
			if !cmd.Flags().Changed("interactive") {
				interactive = cfg.Session.Interactive
			}
			if sourceDir == "" {
				return fmt.Errorf("a source directory is required (--source or session.source_dir)")
			}

			pipeline := buildPipeline(cmd, cfg, logger)
			store, err := annotation.NewFileStore(storagePath)
			if err != nil {
				return err
			}
			var input annotation.InputSource
			if interactive {
				input = annotation.NewPromptInput(os.Stdin, cmd.OutOrStdout())
			}
			sess, err := annotation.NewSession(pipeline, store, input, logger)
			if err != nil {
				return err
			}

			summary, err := sess.RunDir(cmd.Context(), sourceDir)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(),
				"session finished: %d scanned, %d recorded, %d rejected (%d resumed) → %s\n",
				summary.Scanned, summary.Recorded, summary.Rejected, summary.Resumed, store.Path())
			return nil
		},
	}
	cmd.Flags().StringVarP(&sourceDir, "source", "s", "", "directory of .txt prescription files")
	cmd.Flags().StringVarP(&storagePath, "output", "o", "", "session storage JSON file")
	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "review each record (accept/skip/correct)")
	return cmd
}

// buildPipeline assembles the extraction pipeline for CLI runs.  Model
// extraction joins in only when the serving backend is configured and
// answers its probe.
func buildPipeline(cmd *cobra.Command, cfg *config.Config, logger logging.Logger) *extraction.Pipeline {
	var model extraction.ModelExtractor
	if cfg.NER.Enabled() {
		client, err := ner.NewGRPCClient(cfg.NER.Address, cfg.NER.Timeout, logger)
		if err != nil {
			logger.Warn("ner client unavailable, continuing with rules only", logging.Err(err))
		} else {
			model = ner.NewExtractor(cmd.Context(), client, logger, nil)
		}
	}
	return extraction.NewPipeline(nil, model, nil, logger, nil)
}
