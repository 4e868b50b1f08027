// Package batch handles categorization of whole CSV files
package batch

import (
	"intellifinance/fincat/cmd/common"
	"intellifinance/fincat/cmd/root"

	"github.com/spf13/cobra"
)

// Cmd represents the batch command
var Cmd = &cobra.Command{
	Use:   "batch",
	Short: "Categorize every transaction in a CSV file",
	Long: `Categorize every transaction in a CSV file and write the decisions to another file.

The input needs description, merchant_name and amount columns. The output adds
category, confidence, source and reason columns, one line per input line and
in the same order.

Example:
  fincat batch -i transactions.csv -o categorized.csv`,
	Args: cobra.NoArgs,
	RunE: batchFunc,
}

func batchFunc(cmd *cobra.Command, args []string) error {
	c, err := root.GetContainer(cmd)
	if err != nil {
		return err
	}
	stats, err := common.ProcessFile(cmd.Context(), c.GetCategorizer(),
		root.SharedFlags.Input, root.SharedFlags.Output, c.GetLogger())
	if err != nil {
		return err
	}
	if root.SharedFlags.JSON {
		return common.PrintJSON(cmd.OutOrStdout(), stats)
	}
	common.PrintStats(cmd.OutOrStdout(), stats)
	return nil
}
