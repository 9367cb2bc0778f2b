package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pnpdata/harvester/internal/harvest"
)

// newStatusCmd creates the 'status' subcommand, which summarizes a progress
// store without touching the network.
func newStatusCmd(a *app) *cobra.Command {
	var storePath string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Summarize a progress store",
		RunE: func(_ *cobra.Command, _ []string) error {
			store, err := harvest.OpenStore(storePath, "", a.logger)
			if err != nil {
				return err
			}
			counts := store.Counts()
			fmt.Printf("Progress store:  %s\n", storePath)
			fmt.Printf("Records:         %d\n", store.Len())
			fmt.Printf("  success:         %d\n", counts[harvest.OutcomeSuccess])
			fmt.Printf("  not_found:       %d\n", counts[harvest.OutcomeNotFound])
			fmt.Printf("  transient_error: %d\n", counts[harvest.OutcomeTransient])
			return nil
		},
	}

	cmd.Flags().StringVar(&storePath, "store", "", "progress store file")
	_ = cmd.MarkFlagRequired("store")
	return cmd
}
