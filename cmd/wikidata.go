package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pnpdata/harvester/internal/dataset"
	"github.com/pnpdata/harvester/internal/wikidata"
)

// newWikidataCmd creates the 'wikidata' subcommand, which downloads entity
// statements for every QID referenced by the expanded records.
func newWikidataCmd(a *app) *cobra.Command {
	var input, storePath, checkpointPath string

	cmd := &cobra.Command{
		Use:   "wikidata",
		Short: "Download Wikidata statements for referenced QIDs",
		Long: `Queries the Wikidata SPARQL endpoint once per unique QID found in the
expanded records and stores the entity's non-external-id statements.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			records, err := dataset.LoadRecords(input, a.logger)
			if err != nil {
				return fmt.Errorf("load input: %w", err)
			}
			items, err := dataset.QIDItems(records, a.logger)
			if err != nil {
				return err
			}
			client := wikidata.NewClient(a.cfg.Wikidata.SPARQLEndpoint, a.cfg.HTTP.UserAgent, a.cfg.HTTPTimeout(), a.logger)
			return a.runHarvest(cmd.Context(), items, client, storePath, checkpointPath)
		},
	}

	cmd.Flags().StringVar(&input, "input", "data/expanded_wiki_data.json", "input dataset (JSON array or JSONL)")
	cmd.Flags().StringVar(&storePath, "store", "data/wikidata_statements.json", "progress store file")
	cmd.Flags().StringVar(&checkpointPath, "checkpoint", "data/.wikidata_statements_checkpoint.json", "advisory checkpoint side-file")
	return cmd
}
