// Package ask answers questions about the configured ledger
package ask

import (
	"fmt"
	"strings"

	"intellifinance/fincat/cmd/common"
	"intellifinance/fincat/cmd/root"
	"intellifinance/fincat/internal/assistant"

	"github.com/spf13/cobra"
)

// Cmd represents the ask command
var Cmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask the finance assistant a question",
	Long: `Ask the finance assistant a question about the ledger named by
assistant.ledger_file. Spending, budgets, goals, accounts, net worth and
transaction searches are answered from the ledger; advice questions use
Gemini when GEMINI_API_KEY is set.

Example:
  fincat ask "how much did I spend last month?"
  fincat ask what is my net worth`,
	Args: cobra.MinimumNArgs(1),
	RunE: askFunc,
}

type answer struct {
	Type    assistant.Intent   `json:"type"`
	Message string             `json:"message"`
	Data    assistant.Response `json:"data"`
}

func askFunc(cmd *cobra.Command, args []string) error {
	query := strings.TrimSpace(strings.Join(args, " "))
	if query == "" {
		return fmt.Errorf("question must not be empty")
	}

	c, err := root.GetContainer(cmd)
	if err != nil {
		return err
	}
	asst := c.GetAssistant()
	if asst == nil {
		return fmt.Errorf("assistant is not configured: set assistant.ledger_file")
	}

	resp, err := asst.Ask(cmd.Context(), query)
	if err != nil {
		return err
	}
	if root.SharedFlags.JSON {
		return common.PrintJSON(cmd.OutOrStdout(), answer{Type: resp.Intent(), Message: resp.Message(), Data: resp})
	}
	fmt.Fprintln(cmd.OutOrStdout(), resp.Message())
	return nil
}
