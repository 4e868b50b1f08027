// Package model inspects the trained categorization model
package model

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"intellifinance/fincat/cmd/common"
	"intellifinance/fincat/cmd/root"
	"intellifinance/fincat/internal/categorizer"
	"intellifinance/fincat/internal/classifier"

	"github.com/spf13/cobra"
)

const defaultTop = 20

var top int

// Cmd represents the model command
var Cmd = &cobra.Command{
	Use:   "model",
	Short: "Inspect the categorization model",
	Long:  `Inspect the categorization model: its training state and the terms that drive its decisions.`,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show whether a model is trained and where it is stored",
	Args:  cobra.NoArgs,
	RunE:  statusFunc,
}

var importanceCmd = &cobra.Command{
	Use:   "importance",
	Short: "List the most influential terms of the trained model",
	Long: `List the most influential terms of the trained model, ranked by mean
impurity decrease across the forest.

Example:
  fincat model importance --top 10`,
	Args: cobra.NoArgs,
	RunE: importanceFunc,
}

func init() {
	importanceCmd.Flags().IntVarP(&top, "top", "n", defaultTop, "Number of terms to list")
	Cmd.AddCommand(statusCmd, importanceCmd)
}

type statusOutput struct {
	categorizer.Status
	LoadError       string `json:"load_error,omitempty"`
	RetrainSchedule string `json:"retrain_schedule,omitempty"`
}

func statusFunc(cmd *cobra.Command, args []string) error {
	c, err := root.GetContainer(cmd)
	if err != nil {
		return err
	}
	out := statusOutput{Status: c.GetCategorizer().Status()}
	if res := c.LoadResult(); res.Err != nil && !res.Loaded && !errors.Is(res.Err, categorizer.ErrArtifactNotFound) {
		out.LoadError = res.Err.Error()
	}
	if cfg := c.GetConfig(); cfg.Retrain.Enabled {
		out.RetrainSchedule = fmt.Sprintf("%s (%s)", cfg.Retrain.Schedule, cfg.Retrain.Timezone)
	}

	if root.SharedFlags.JSON {
		return common.PrintJSON(cmd.OutOrStdout(), out)
	}
	printStatus(cmd.OutOrStdout(), out)
	return nil
}

func printStatus(w io.Writer, s statusOutput) {
	if s.Trained {
		fmt.Fprintln(w, "Trained:     yes")
	} else {
		fmt.Fprintln(w, "Trained:     no")
	}
	if s.TrainedAt != nil {
		fmt.Fprintf(w, "Trained at:  %s\n", s.TrainedAt.Format(time.RFC3339))
	}
	if len(s.Categories) > 0 {
		names := make([]string, len(s.Categories))
		for i, c := range s.Categories {
			names[i] = string(c)
		}
		fmt.Fprintf(w, "Categories:  %s\n", strings.Join(names, ", "))
		fmt.Fprintf(w, "Vocabulary:  %d terms\n", s.VocabularySize)
	}
	if s.ModelLocation != "" {
		fmt.Fprintf(w, "Location:    %s\n", s.ModelLocation)
	}
	if s.LoadError != "" {
		fmt.Fprintf(w, "Load error:  %s\n", s.LoadError)
	}
	switch {
	case s.FallbackProvider == "":
		fmt.Fprintln(w, "Fallback:    disabled")
	case s.FallbackReady:
		fmt.Fprintf(w, "Fallback:    %s (ready)\n", s.FallbackProvider)
	default:
		fmt.Fprintf(w, "Fallback:    %s (not loaded)\n", s.FallbackProvider)
	}
	if s.RetrainSchedule != "" {
		fmt.Fprintf(w, "Retrain:     %s\n", s.RetrainSchedule)
	}
}

func importanceFunc(cmd *cobra.Command, args []string) error {
	if top < 1 {
		return fmt.Errorf("--top must be at least 1, got %d", top)
	}
	c, err := root.GetContainer(cmd)
	if err != nil {
		return err
	}
	cat := c.GetCategorizer()
	if !cat.IsTrained() {
		return fmt.Errorf("no trained model; run \"fincat train\" first")
	}
	weights := cat.FeatureImportance(top)
	if root.SharedFlags.JSON {
		return common.PrintJSON(cmd.OutOrStdout(), weights)
	}
	printImportance(cmd.OutOrStdout(), weights)
	return nil
}

func printImportance(w io.Writer, weights []classifier.FeatureWeight) {
	width := len("term")
	for _, fw := range weights {
		if len(fw.Term) > width {
			width = len(fw.Term)
		}
	}
	fmt.Fprintf(w, "%4s  %-*s  %s\n", "rank", width, "term", "importance")
	for i, fw := range weights {
		fmt.Fprintf(w, "%4d  %-*s  %.4f\n", i+1, width, fw.Term, fw.Importance)
	}
}
