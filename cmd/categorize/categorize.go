// Package categorize handles single transaction categorization
package categorize

import (
	"fmt"
	"strings"

	"intellifinance/fincat/cmd/common"
	"intellifinance/fincat/cmd/root"
	internalcommon "intellifinance/fincat/internal/common"

	"github.com/spf13/cobra"
)

var (
	description string
	merchant    string
	amount      string
	hints       []string
)

// Cmd represents the categorize command
var Cmd = &cobra.Command{
	Use:   "categorize",
	Short: "Categorize a single transaction",
	Long: `Categorize a single transaction with the trained model, falling back to the
zero-shot classifier when the model is unsure or untrained.

Example:
  fincat categorize -d "STARBUCKS STORE 12345" -m Starbucks -a 5.50`,
	Args: cobra.NoArgs,
	RunE: categorizeFunc,
}

func init() {
	Cmd.Flags().StringVarP(&description, "description", "d", "", "Transaction description")
	Cmd.Flags().StringVarP(&merchant, "merchant", "m", "", "Merchant name (optional)")
	Cmd.Flags().StringVarP(&amount, "amount", "a", "", "Transaction amount (optional)")
	Cmd.Flags().StringSliceVar(&hints, "hints", nil, "Category hints attached to the result (optional)")
}

func categorizeFunc(cmd *cobra.Command, args []string) error {
	if strings.TrimSpace(description) == "" && strings.TrimSpace(merchant) == "" {
		return fmt.Errorf("a description or a merchant is required")
	}

	row := internalcommon.TransactionRow{Description: description, Merchant: merchant, Amount: amount}
	rec, err := row.Record()
	if err != nil {
		return err
	}
	rec.CategoryHints = hints

	c, err := root.GetContainer(cmd)
	if err != nil {
		return err
	}
	d := c.GetCategorizer().Decide(cmd.Context(), rec)

	out := cmd.OutOrStdout()
	if root.SharedFlags.JSON {
		return common.PrintJSON(out, d)
	}
	fmt.Fprintf(out, "Category:   %s\n", d.Category)
	fmt.Fprintf(out, "Confidence: %.4f\n", d.Confidence)
	fmt.Fprintf(out, "Source:     %s\n", d.Source)
	fmt.Fprintf(out, "Reason:     %s\n", d.Reason)
	if len(d.Hints) > 0 {
		fmt.Fprintf(out, "Hints:      %s\n", strings.Join(d.Hints, ", "))
	}
	return nil
}
