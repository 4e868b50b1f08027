package classifier

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"intellifinance/fincat/internal/features"
	"intellifinance/fincat/internal/forest"
	"intellifinance/fincat/internal/logging"
	"intellifinance/fincat/internal/models"
)

// DefaultTestSize is the share of examples held out for evaluation.
const DefaultTestSize = 0.2

// Options controls training.
type Options struct {
	Trees    int
	Seed     int64
	TestSize float64
	Workers  int
	// OnTreeFitted is forwarded to the forest for progress reporting.
	OnTreeFitted func()
	Logger       logging.Logger
}

// DefaultOptions returns the production training settings.
func DefaultOptions() Options {
	return Options{
		Trees:    forest.DefaultTrees,
		Seed:     forest.DefaultSeed,
		TestSize: DefaultTestSize,
	}
}

// TrainingReport describes a finished training run. It is informational and
// never blocks promotion of the trained model.
type TrainingReport struct {
	RunID          string            `json:"run_id" yaml:"run_id"`
	TrainedAt      time.Time         `json:"trained_at" yaml:"trained_at"`
	Duration       time.Duration     `json:"duration" yaml:"duration"`
	Examples       int               `json:"examples" yaml:"examples"`
	TrainSamples   int               `json:"train_samples" yaml:"train_samples"`
	TestSamples    int               `json:"test_samples" yaml:"test_samples"`
	VocabularySize int               `json:"vocabulary_size" yaml:"vocabulary_size"`
	Categories     []models.Category `json:"categories" yaml:"categories"`
	Accuracy       float64           `json:"accuracy" yaml:"accuracy"`
	Evaluation     forest.Evaluation `json:"evaluation" yaml:"evaluation"`
}

// Train fits a new model on examples. Unknown category values are coerced to
// UNCATEGORIZED. The corpus must hold at least MinTrainingExamples examples.
func Train(ctx context.Context, examples []models.LabeledTransaction, opts Options) (*Model, *TrainingReport, error) {
	if len(examples) < MinTrainingExamples {
		return nil, nil, &InsufficientDataError{Have: len(examples), Need: MinTrainingExamples}
	}
	defaults := DefaultOptions()
	if opts.Trees <= 0 {
		opts.Trees = defaults.Trees
	}
	if opts.TestSize <= 0 || opts.TestSize >= 1 {
		opts.TestSize = defaults.TestSize
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}

	start := time.Now()
	report := &TrainingReport{RunID: uuid.NewString(), Examples: len(examples)}
	logger.Info("Training primary classifier",
		logging.F(logging.FieldRunID, report.RunID),
		logging.F(logging.FieldCount, len(examples)))

	corpus := make([]string, len(examples))
	labels := make([]models.Category, len(examples))
	for i, ex := range examples {
		corpus[i] = features.Preprocess(ex.Description, ex.MerchantName)
		labels[i] = models.CoerceCategory(string(ex.Category))
	}

	vec := features.NewVectorizer()
	rows, err := vec.FitTransform(corpus)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build vocabulary: %w", err)
	}

	classes, y := encodeLabels(labels)
	trainIdx, testIdx := forest.StratifiedSplit(y, opts.TestSize, opts.Seed)

	x := make([][]float64, len(trainIdx))
	ty := make([]int, len(trainIdx))
	for i, idx := range trainIdx {
		x[i] = rows[idx]
		ty[i] = y[idx]
	}

	f, err := forest.Fit(ctx, x, ty, len(classes), forest.Options{
		Trees:        opts.Trees,
		Seed:         opts.Seed,
		Balanced:     true,
		Workers:      opts.Workers,
		OnTreeFitted: opts.OnTreeFitted,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to fit forest: %w", err)
	}

	trueY := make([]int, len(testIdx))
	predY := make([]int, len(testIdx))
	for i, idx := range testIdx {
		trueY[i] = y[idx]
		predY[i], _, err = f.Predict(rows[idx])
		if err != nil {
			return nil, nil, fmt.Errorf("failed to evaluate forest: %w", err)
		}
	}
	names := make([]string, len(classes))
	for i, c := range classes {
		names[i] = c.String()
	}

	model := &Model{vectorizer: vec, forest: f, classes: classes, trainedAt: time.Now().UTC()}

	report.TrainedAt = model.trainedAt
	report.Duration = time.Since(start)
	report.TrainSamples = len(trainIdx)
	report.TestSamples = len(testIdx)
	report.VocabularySize = vec.Size()
	report.Categories = model.Categories()
	report.Evaluation = forest.Evaluate(trueY, predY, names)
	report.Accuracy = report.Evaluation.Accuracy

	logger.Info("Primary classifier trained",
		logging.F(logging.FieldRunID, report.RunID),
		logging.F(logging.FieldAccuracy, report.Accuracy),
		logging.F(logging.FieldDuration, report.Duration.String()))
	return model, report, nil
}

// encodeLabels maps categories to dense class indices in sorted order.
func encodeLabels(labels []models.Category) ([]models.Category, []int) {
	set := make(map[models.Category]struct{})
	for _, l := range labels {
		set[l] = struct{}{}
	}
	classes := make([]models.Category, 0, len(set))
	for c := range set {
		classes = append(classes, c)
	}
	sort.Slice(classes, func(i, j int) bool { return classes[i] < classes[j] })

	index := make(map[models.Category]int, len(classes))
	for i, c := range classes {
		index[c] = i
	}
	y := make([]int, len(labels))
	for i, l := range labels {
		y[i] = index[l]
	}
	return classes, y
}
