package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/enrich-cli/internal/model"
)

var enrichFields []string

var enrichCmd = &cobra.Command{
	Use:   "enrich <contact-id> <profile-id>",
	Short: "Apply enrichment from a chosen profile to a contact",
	Long:  "Applies the selected fields of the identified profile to the contact. Without --fields, every eligible field is applied.",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		service, st, err := initService(cmd.Context())
		if err != nil {
			return err
		}
		defer st.Close()

		selected := enrichFields
		if len(selected) == 0 {
			eligible, err := service.EligibleFieldsFor(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			for _, ef := range eligible {
				selected = append(selected, ef.Key)
			}
		}
		if len(selected) == 0 {
			zap.L().Info("nothing eligible to apply", zap.String("contact_id", args[0]))
		}

		// With an empty selection the applier writes nothing but still
		// returns the contact, keeping the printed payload consistent.
		outcome, err := service.EnrichOne(cmd.Context(), args[0], args[1], selected)
		if err != nil {
			return err
		}
		return printOutcome(outcome)
	},
}

func printOutcome(outcome *model.EnrichOutcome) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(outcome)
}

func init() {
	enrichCmd.Flags().StringSliceVar(&enrichFields, "fields", nil, "field keys to apply (default: all eligible)")
	rootCmd.AddCommand(enrichCmd)
}
