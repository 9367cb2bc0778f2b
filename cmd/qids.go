package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pnpdata/harvester/internal/dataset"
	"github.com/pnpdata/harvester/internal/wikidata"
)

// newQIDsCmd creates the 'qids' subcommand, which expands Wikipedia article
// links found in photo records to Wikidata QIDs.
func newQIDsCmd(a *app) *cobra.Command {
	var input, storePath, checkpointPath string

	cmd := &cobra.Command{
		Use:   "qids",
		Short: "Expand Wikipedia links to Wikidata QIDs",
		Long: `Resolves each Wikipedia article link referenced by the photo records to
its Wikidata QID through the pageprops API. Direct Wikidata entity links
resolve locally and are never fetched.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			records, err := dataset.LoadRecords(input, a.logger)
			if err != nil {
				return fmt.Errorf("load input: %w", err)
			}
			items, err := dataset.WikiLinkItems(records, a.logger)
			if err != nil {
				return err
			}
			resolver, err := wikidata.NewResolver(a.cfg.HTTP.UserAgent, a.cfg.HTTPTimeout(), a.cfg.Wikidata.QIDCacheSize, a.logger)
			if err != nil {
				return err
			}
			return a.runHarvest(cmd.Context(), items, resolver, storePath, checkpointPath)
		},
	}

	cmd.Flags().StringVar(&input, "input", "data/photos_with_wiki_links.json", "input dataset (JSON array or JSONL)")
	cmd.Flags().StringVar(&storePath, "store", "data/wiki_to_qid.json", "progress store file")
	cmd.Flags().StringVar(&checkpointPath, "checkpoint", "data/.wiki_to_qid_checkpoint.json", "advisory checkpoint side-file")
	return cmd
}
