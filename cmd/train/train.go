// Package train fits and persists the categorization model
package train

import (
	"errors"
	"fmt"
	"io"

	"intellifinance/fincat/cmd/common"
	"intellifinance/fincat/cmd/root"
	"intellifinance/fincat/internal/categorizer"
	"intellifinance/fincat/internal/classifier"
	"intellifinance/fincat/internal/logging"
	"intellifinance/fincat/internal/report"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

var (
	fromFeedback bool
	noProgress   bool
	reportPath   string
)

// Cmd represents the train command
var Cmd = &cobra.Command{
	Use:   "train",
	Short: "Train the categorization model",
	Long: `Train the random forest on a CSV of categorized transactions, or on every
correction recorded with "fincat feedback". The new model replaces the current
one and is saved to the configured model store.

The CSV needs description, merchant_name, amount and category columns.

Example:
  fincat train -i labeled.csv --report reports/latest.yaml
  fincat train --from-feedback`,
	Args: cobra.NoArgs,
	RunE: trainFunc,
}

func init() {
	Cmd.Flags().BoolVar(&fromFeedback, "from-feedback", false, "Train on recorded feedback instead of an input file")
	Cmd.Flags().BoolVar(&noProgress, "no-progress", false, "Hide the progress bar")
	Cmd.Flags().StringVar(&reportPath, "report", "", "Also write the training report to this file (.json, .yaml or text)")
}

func trainFunc(cmd *cobra.Command, args []string) error {
	input := root.SharedFlags.Input
	if fromFeedback == (input != "") {
		return fmt.Errorf("provide either --input or --from-feedback")
	}

	c, err := root.GetContainer(cmd)
	if err != nil {
		return err
	}
	log := c.GetLogger()
	cat := c.GetCategorizer()

	var opts []categorizer.TrainOption
	if !noProgress {
		bar := newProgressBar(cmd.ErrOrStderr(), c.GetConfig().Training.Trees, log)
		opts = append(opts, categorizer.WithProgress(func() {
			if err := bar.Add(1); err != nil {
				log.WithError(err).Debug("Failed to update progress bar")
			}
		}))
	}

	var trained *classifier.TrainingReport
	if fromFeedback {
		trained, err = cat.RetrainFromFeedback(cmd.Context(), opts...)
	} else {
		examples, readErr := common.ReadLabeledFile(input, log)
		if readErr != nil {
			return readErr
		}
		trained, err = cat.Train(cmd.Context(), examples, opts...)
	}

	out := cmd.OutOrStdout()
	generator := report.NewReportGenerator(log)
	var writeErr *categorizer.ArtifactWriteError
	switch {
	case err == nil:
	case errors.As(err, &writeErr) && trained != nil:
		if text, genErr := generator.GenerateReport(trained, report.FormatText); genErr == nil {
			_, _ = out.Write(text)
		}
		return fmt.Errorf("model trained but not saved: %w", err)
	default:
		return err
	}

	if reportPath != "" {
		if err := generator.WriteReport(trained, reportPath); err != nil {
			return err
		}
	}

	format := report.FormatText
	if root.SharedFlags.JSON {
		format = report.FormatJSON
	}
	rendered, err := generator.GenerateReport(trained, format)
	if err != nil {
		return err
	}
	if _, err := out.Write(rendered); err != nil {
		return err
	}
	if format == report.FormatText {
		fmt.Fprintf(out, "\nSaved to %s\n", c.GetModelStore().Location())
	}
	return nil
}

func newProgressBar(w io.Writer, trees int, log logging.Logger) *progressbar.ProgressBar {
	return progressbar.NewOptions(trees,
		progressbar.OptionSetWriter(w),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("[cyan][bold]Fitting trees...[reset]"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionOnCompletion(func() {
			if _, err := fmt.Fprintln(w); err != nil {
				log.WithError(err).Debug("Failed to write newline after progress bar")
			}
		}),
	)
}
