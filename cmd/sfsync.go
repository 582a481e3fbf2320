package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"
)

var sfsyncCmd = &cobra.Command{
	Use:   "sfsync <contact-id>...",
	Short: "Push enriched contacts to Salesforce",
	Long:  "Mirrors the given contacts into Salesforce, matching on email. Existing records are updated in bulk; missing ones are created with their Account.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := initStore(cmd.Context())
		if err != nil {
			return err
		}
		defer st.Close()

		syncer, err := initSyncer(cmd.Context(), st)
		if err != nil {
			return err
		}

		result, err := syncer.PushBatch(cmd.Context(), args)
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	},
}

func init() {
	rootCmd.AddCommand(sfsyncCmd)
}
