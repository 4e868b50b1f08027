// Package feedback records user corrections for the next retrain
package feedback

import (
	"errors"
	"fmt"

	"intellifinance/fincat/cmd/common"
	"intellifinance/fincat/cmd/root"
	"intellifinance/fincat/internal/categorizer"
	internalcommon "intellifinance/fincat/internal/common"
	"intellifinance/fincat/internal/logging"
	"intellifinance/fincat/internal/models"
	"intellifinance/fincat/internal/parsererror"

	"github.com/spf13/cobra"
)

var (
	description string
	merchant    string
	amount      string
	category    string
)

// Cmd represents the feedback command
var Cmd = &cobra.Command{
	Use:   "feedback",
	Short: "Record categorization corrections",
	Long: `Record corrections to the categorizer's decisions. Corrections are kept in the
feedback database and used by "fincat train --from-feedback" and by the
scheduled retrain.`,
}

var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Record a single correction",
	Long: `Record a single correction.

Example:
  fincat feedback add -d "SQ *BLUE BOTTLE" -m "Blue Bottle" -c coffee_shops`,
	Args: cobra.NoArgs,
	RunE: addFunc,
}

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Record every correction in a CSV file",
	Long: `Record every correction in a CSV file with description, merchant_name, amount
and category columns. Rows with an unknown category or no text are skipped.

Example:
  fincat feedback import -i corrections.csv`,
	Args: cobra.NoArgs,
	RunE: importFunc,
}

func init() {
	addCmd.Flags().StringVarP(&description, "description", "d", "", "Transaction description")
	addCmd.Flags().StringVarP(&merchant, "merchant", "m", "", "Merchant name (optional)")
	addCmd.Flags().StringVarP(&amount, "amount", "a", "", "Transaction amount (optional)")
	addCmd.Flags().StringVarP(&category, "category", "c", "", "Correct category")
	_ = addCmd.MarkFlagRequired("category")

	Cmd.AddCommand(addCmd, importCmd)
}

func addFunc(cmd *cobra.Command, args []string) error {
	row := internalcommon.TransactionRow{
		Description: description,
		Merchant:    merchant,
		Amount:      amount,
		Category:    category,
	}
	lt, err := row.Labeled()
	if err != nil {
		return err
	}

	c, err := root.GetContainer(cmd)
	if err != nil {
		return err
	}
	id, err := c.GetCategorizer().RecordFeedback(cmd.Context(), lt)
	if err != nil {
		return err
	}
	if root.SharedFlags.JSON {
		return common.PrintJSON(cmd.OutOrStdout(), map[string]string{"id": id})
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Recorded feedback %s (%s)\n", id, models.CoerceCategory(string(lt.Category)))
	return nil
}

type importSummary struct {
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
}

func importFunc(cmd *cobra.Command, args []string) error {
	c, err := root.GetContainer(cmd)
	if err != nil {
		return err
	}
	log := c.GetLogger()

	examples, err := common.ReadLabeledFile(root.SharedFlags.Input, log)
	if err != nil {
		return err
	}

	summary, err := importExamples(cmd, c.GetCategorizer(), examples, log)
	if err != nil {
		return err
	}
	log.Info("Feedback imported",
		logging.F(logging.FieldInputFile, root.SharedFlags.Input),
		logging.F(logging.FieldCount, summary.Imported),
		logging.F("skipped", summary.Skipped))

	if root.SharedFlags.JSON {
		return common.PrintJSON(cmd.OutOrStdout(), summary)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Imported %d corrections, skipped %d\n", summary.Imported, summary.Skipped)
	return nil
}

func importExamples(cmd *cobra.Command, cat *categorizer.Categorizer, examples []models.LabeledTransaction, log logging.Logger) (importSummary, error) {
	var summary importSummary
	for i, lt := range examples {
		if _, err := cat.RecordFeedback(cmd.Context(), lt); err != nil {
			if errors.Is(err, categorizer.ErrInvalidFeedback) {
				log.WithError(err).Warn("Skipping feedback row", logging.F("row", i+1))
				summary.Skipped++
				continue
			}
			return summary, &parsererror.RowError{Row: i + 1, Err: err}
		}
		summary.Imported++
	}
	return summary, nil
}
