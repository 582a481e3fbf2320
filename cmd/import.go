package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/sells-group/enrich-cli/internal/importer"
)

var importMapping string

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import contacts from a CSV or XLSX export",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := initStore(cmd.Context())
		if err != nil {
			return err
		}
		defer st.Close()

		mapping := importer.DefaultMapping()
		mappingPath := importMapping
		if mappingPath == "" {
			mappingPath = cfg.Import.MappingPath
		}
		if mappingPath != "" {
			mapping, err = importer.LoadMapping(mappingPath)
			if err != nil {
				return err
			}
		}

		summary, err := importer.New(st, mapping).Run(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(summary)
	},
}

func init() {
	importCmd.Flags().StringVar(&importMapping, "mapping", "", "YAML column mapping file (default from config)")
	rootCmd.AddCommand(importCmd)
}
