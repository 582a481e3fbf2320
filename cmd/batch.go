package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/enrich-cli/internal/enrich"
	"github.com/sells-group/enrich-cli/internal/eps"
	"github.com/sells-group/enrich-cli/internal/model"
	"github.com/sells-group/enrich-cli/internal/store"
)

var (
	batchInput        string
	batchCompanyID    string
	batchMissingEmail bool
	batchLimit        int
	batchMinScore     float64
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Enrich many contacts in one run",
	Long: "With --input, runs the pairs from a JSON file. Without it, selects contacts " +
		"from the store, matches each against the profile source, and auto-applies every " +
		"eligible field of the top candidate above --min-score.",
	RunE: func(cmd *cobra.Command, args []string) error {
		service, st, err := initService(cmd.Context())
		if err != nil {
			return err
		}
		defer st.Close()

		var pairs []model.EnrichPair
		if batchInput != "" {
			pairs, err = loadPairs(batchInput)
		} else {
			pairs, err = autoPairs(cmd, service, st)
		}
		if err != nil {
			return err
		}
		if len(pairs) == 0 {
			zap.L().Info("no contacts to enrich")
			return nil
		}

		result, err := service.EnrichBatch(cmd.Context(), pairs)
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	},
}

func loadPairs(path string) ([]model.EnrichPair, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "read batch input %s", path)
	}
	var pairs []model.EnrichPair
	if err := json.Unmarshal(data, &pairs); err != nil {
		return nil, eris.Wrap(err, "parse batch input")
	}
	return pairs, nil
}

// autoPairs builds enrichment pairs from the store: for each selected
// contact, the top-scoring candidate above the threshold with every eligible
// field selected. Contacts with no usable candidate are skipped.
func autoPairs(cmd *cobra.Command, service *enrich.Service, st store.Store) ([]model.EnrichPair, error) {
	contacts, err := st.ListContacts(cmd.Context(), store.ContactFilter{
		CompanyID:    batchCompanyID,
		MissingEmail: batchMissingEmail,
		Limit:        batchLimit,
	})
	if err != nil {
		return nil, err
	}

	var pairs []model.EnrichPair
	for i := range contacts {
		contact := &contacts[i]

		candidates, err := service.CandidateMatches(cmd.Context(), contact.ID)
		if err != nil {
			zap.L().Warn("candidate lookup failed, skipping contact",
				zap.String("contact_id", contact.ID),
				zap.Error(err),
			)
			continue
		}
		if len(candidates) == 0 || candidates[0].MatchScore < batchMinScore {
			zap.L().Debug("no candidate above threshold",
				zap.String("contact_id", contact.ID),
			)
			continue
		}

		top := candidates[0]
		var keys []string
		for _, ef := range enrich.EligibleFields(contact, eps.Normalize(top)) {
			keys = append(keys, ef.Key)
		}
		if len(keys) == 0 {
			continue
		}

		pairs = append(pairs, model.EnrichPair{
			ContactID:    contact.ID,
			Profile:      top,
			SelectedKeys: keys,
		})
	}

	zap.L().Info("batch assembled",
		zap.Int("contacts_considered", len(contacts)),
		zap.Int("pairs", len(pairs)),
	)
	return pairs, nil
}

func init() {
	batchCmd.Flags().StringVar(&batchInput, "input", "", "JSON file of enrichment pairs")
	batchCmd.Flags().StringVar(&batchCompanyID, "company", "", "only contacts of this company")
	batchCmd.Flags().BoolVar(&batchMissingEmail, "missing-email", false, "only contacts without an email")
	batchCmd.Flags().IntVar(&batchLimit, "limit", 0, "max contacts to consider")
	batchCmd.Flags().Float64Var(&batchMinScore, "min-score", 0.8, "minimum candidate match score")
	rootCmd.AddCommand(batchCmd)
}
