// Package report renders training reports for people and for tooling.
package report

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"intellifinance/fincat/internal/classifier"
	"intellifinance/fincat/internal/fileutils"
	"intellifinance/fincat/internal/logging"
)

// Format selects how a report is rendered.
type Format string

// Supported formats.
const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ReportGenerator renders training reports in various formats.
type ReportGenerator struct {
	logger logging.Logger
}

// NewReportGenerator creates a new instance of ReportGenerator.
func NewReportGenerator(logger logging.Logger) *ReportGenerator {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &ReportGenerator{logger: logger}
}

// FormatFromPath picks a format from a file extension. Unknown extensions
// render as text.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatText
	}
}

// GenerateReport renders report in the given format.
func (g *ReportGenerator) GenerateReport(report *classifier.TrainingReport, format Format) ([]byte, error) {
	if report == nil {
		return nil, fmt.Errorf("no training report to render")
	}
	switch format {
	case FormatText:
		return []byte(textReport(report)), nil
	case FormatJSON:
		return g.generateJSONReport(report)
	case FormatYAML:
		return g.generateYAMLReport(report)
	default:
		return nil, fmt.Errorf("unsupported report format: %s", format)
	}
}

// WriteReport renders report in the format implied by path and writes it.
func (g *ReportGenerator) WriteReport(report *classifier.TrainingReport, path string) error {
	data, err := g.GenerateReport(report, FormatFromPath(path))
	if err != nil {
		return err
	}
	if err := fileutils.WriteFileAtomic(path, data); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	g.logger.Info("Training report written",
		logging.F(logging.FieldOutputFile, path),
		logging.F(logging.FieldRunID, report.RunID))
	return nil
}

func (g *ReportGenerator) generateJSONReport(report *classifier.TrainingReport) ([]byte, error) {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		g.logger.WithError(err).Error("Failed to marshal JSON report")
		return nil, fmt.Errorf("failed to marshal JSON report: %w", err)
	}
	return append(data, '\n'), nil
}

func (g *ReportGenerator) generateYAMLReport(report *classifier.TrainingReport) ([]byte, error) {
	data, err := yaml.Marshal(report)
	if err != nil {
		g.logger.WithError(err).Error("Failed to marshal YAML report")
		return nil, fmt.Errorf("failed to marshal YAML report: %w", err)
	}
	return data, nil
}

func textReport(r *classifier.TrainingReport) string {
	categories := make([]string, len(r.Categories))
	for i, c := range r.Categories {
		categories[i] = string(c)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Model trained (run %s)\n", r.RunID)
	fmt.Fprintf(&b, "  Examples:   %d (%d train / %d test)\n", r.Examples, r.TrainSamples, r.TestSamples)
	fmt.Fprintf(&b, "  Vocabulary: %d terms\n", r.VocabularySize)
	fmt.Fprintf(&b, "  Categories: %s\n", strings.Join(categories, ", "))
	fmt.Fprintf(&b, "  Accuracy:   %.4f\n", r.Accuracy)
	fmt.Fprintf(&b, "  Duration:   %s\n", r.Duration.Round(time.Millisecond))
	fmt.Fprintf(&b, "\n%s", r.Evaluation.Report())
	return b.String()
}
