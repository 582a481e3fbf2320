package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"
)

var matchesCmd = &cobra.Command{
	Use:   "matches <contact-id> [profile-id]",
	Short: "List candidate profiles for a contact, or the eligible fields of one candidate",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		service, st, err := initService(cmd.Context())
		if err != nil {
			return err
		}
		defer st.Close()

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")

		if len(args) == 2 {
			fields, err := service.EligibleFieldsFor(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			return enc.Encode(fields)
		}

		profiles, err := service.CandidateMatches(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return enc.Encode(profiles)
	},
}

func init() {
	rootCmd.AddCommand(matchesCmd)
}
