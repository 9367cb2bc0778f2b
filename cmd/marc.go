package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pnpdata/harvester/internal/dataset"
	"github.com/pnpdata/harvester/internal/loc"
)

// newMARCCmd creates the 'marc' subcommand, which downloads the MARCXML
// record for every LCCN the lccn harvest resolved.
func newMARCCmd(a *app) *cobra.Command {
	var input, storePath, checkpointPath, outDir string

	cmd := &cobra.Command{
		Use:   "marc",
		Short: "Download MARCXML records for resolved LCCNs",
		Long: `Reads an hdl-to-lccn mapping (typically the lccn command's progress
store), collects the unique LCCNs, and downloads each one's MARCXML record
from the permalink service into a local directory, one file per LCCN.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			mapping, err := dataset.LoadMapping(input, a.logger)
			if err != nil {
				return fmt.Errorf("load input: %w", err)
			}
			items, err := dataset.LCCNItems(mapping, a.logger)
			if err != nil {
				return err
			}
			client := loc.NewMARCClient("", a.cfg.HTTP.UserAgent, a.cfg.HTTPTimeout(), outDir, a.logger)
			return a.runHarvest(cmd.Context(), items, client, storePath, checkpointPath)
		},
	}

	cmd.Flags().StringVar(&input, "input", "data/hdl_to_lccn.json", "hdl-to-lccn mapping file")
	cmd.Flags().StringVar(&storePath, "store", "data/marc_downloads.json", "progress store file")
	cmd.Flags().StringVar(&checkpointPath, "checkpoint", "data/.marc_downloads_checkpoint.json", "advisory checkpoint side-file")
	cmd.Flags().StringVar(&outDir, "out", "data/marc_files", "directory receiving one <lccn>.xml per record")
	return cmd
}
