package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pnpdata/harvester/internal/dataset"
	"github.com/pnpdata/harvester/internal/loc"
)

// newLCCNCmd creates the 'lccn' subcommand, which resolves each photo
// record's HDL URL to its catalog LCCN by fetching the resource page.
func newLCCNCmd(a *app) *cobra.Command {
	var input, storePath, checkpointPath string

	cmd := &cobra.Command{
		Use:   "lccn",
		Short: "Resolve HDL URLs to LCCNs from catalog resource pages",
		Long: `Fetches the catalog resource page behind each record's HDL URL and
extracts the LCCN plus page meta tags. Truncated HDL URLs are repaired from
the record description before fetching.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			records, err := dataset.LoadRecords(input, a.logger)
			if err != nil {
				return fmt.Errorf("load input: %w", err)
			}
			items, err := dataset.HDLItems(records, a.logger)
			if err != nil {
				return err
			}
			client := loc.NewClient(a.cfg.HTTP.UserAgent, a.cfg.HTTPTimeout(), nil, a.logger)
			return a.runHarvest(cmd.Context(), items, client, storePath, checkpointPath)
		},
	}

	cmd.Flags().StringVar(&input, "input", "data/photos_with_hdl.json", "input dataset (JSON array or JSONL)")
	cmd.Flags().StringVar(&storePath, "store", "data/hdl_to_lccn.json", "progress store file")
	cmd.Flags().StringVar(&checkpointPath, "checkpoint", "data/.hdl_to_lccn_checkpoint.json", "advisory checkpoint side-file")
	return cmd
}
