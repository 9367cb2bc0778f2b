package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pnpdata/harvester/internal/dataset"
	"github.com/pnpdata/harvester/internal/geo"
)

// newCoordsCmd creates the 'coords' subcommand, which extracts coordinates
// from the expanded maps URLs in the mapping records.
func newCoordsCmd(a *app) *cobra.Command {
	var input, storePath, checkpointPath string

	cmd := &cobra.Command{
		Use:   "coords",
		Short: "Extract coordinates from expanded maps URLs",
		Long: `Parses the @lat,lng pair out of each record's expanded maps URL. A purely
local step, but it runs through the same progress store so partial output
survives an interrupt and re-runs skip settled records.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			records, err := dataset.LoadRecords(input, a.logger)
			if err != nil {
				return fmt.Errorf("load input: %w", err)
			}
			items, err := dataset.MapURLItems(records, a.logger)
			if err != nil {
				return err
			}
			return a.runHarvest(cmd.Context(), items, geo.NewCoordExtractor(a.logger), storePath, checkpointPath)
		},
	}

	cmd.Flags().StringVar(&input, "input", "data/mapping_data.json", "input dataset (JSON array or JSONL)")
	cmd.Flags().StringVar(&storePath, "store", "data/photo_coords.json", "progress store file")
	cmd.Flags().StringVar(&checkpointPath, "checkpoint", "data/.photo_coords_checkpoint.json", "advisory checkpoint side-file")
	return cmd
}
