package categorizer

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"intellifinance/fincat/internal/classifier"
	"intellifinance/fincat/internal/logging"
	"intellifinance/fincat/internal/models"
	"intellifinance/fincat/internal/store"
)

type stubPrimary struct {
	trained bool
	result  models.ClassificationResult
	panics  bool
}

func (s *stubPrimary) IsTrained() bool { return s.trained }

func (s *stubPrimary) Predict(models.TransactionRecord) models.ClassificationResult {
	if s.panics {
		panic("model exploded")
	}
	return s.result
}

type stubZeroShot struct {
	mu       sync.Mutex
	result   models.ZeroShotResult
	err      error
	lastText string
	labels   []string
}

func (s *stubZeroShot) Classify(_ context.Context, text string, labels []string) (models.ZeroShotResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastText = text
	s.labels = labels
	return s.result, s.err
}

func factoryFor(clf ZeroShotClassifier, calls *int32) FallbackFactory {
	return func(context.Context) (ZeroShotClassifier, error) {
		if calls != nil {
			atomic.AddInt32(calls, 1)
		}
		return clf, nil
	}
}

func trainingCorpus(n int) []models.LabeledTransaction {
	variants := [][]struct {
		desc     string
		merchant string
		category models.Category
	}{
		{
			{"WHOLE FOODS MARKET", "Whole Foods", models.CategoryGroceries},
			{"TRADER JOES", "Trader Joes", models.CategoryGroceries},
			{"SAFEWAY GROCERY", "Safeway", models.CategoryGroceries},
		},
		{
			{"SHELL OIL FUEL", "Shell", models.CategoryGas},
			{"CHEVRON STATION", "Chevron", models.CategoryGas},
			{"EXXON MOBIL", "Exxon", models.CategoryGas},
		},
		{
			{"NETFLIX SUBSCRIPTION", "Netflix", models.CategoryMovies},
			{"AMC THEATRES", "AMC", models.CategoryMovies},
			{"SPOTIFY PREMIUM", "Spotify", models.CategoryMovies},
		},
	}
	out := make([]models.LabeledTransaction, n)
	for i := range out {
		tpl := variants[i%3][(i/3)%3]
		out[i] = models.LabeledTransaction{
			TransactionRecord: models.TransactionRecord{
				Description:  tpl.desc,
				MerchantName: tpl.merchant,
			},
			Category: tpl.category,
		}
	}
	return out
}

func fastTraining() classifier.Options {
	opts := classifier.DefaultOptions()
	opts.Trees = 10
	return opts
}

func TestCategorize_ConfidenceGates(t *testing.T) {
	tests := []struct {
		name             string
		primary          PrimaryClassifier
		fallback         models.ZeroShotResult
		expectedCategory models.Category
		expectedSource   Source
		expectedReason   string
	}{
		{
			name:             "primary at threshold defers to fallback",
			primary:          &stubPrimary{trained: true, result: models.ClassificationResult{Category: models.CategoryGas, Confidence: 0.7}},
			fallback:         models.ZeroShotResult{Label: "groceries and food", Score: 0.9},
			expectedCategory: models.CategoryGroceries,
			expectedSource:   SourceFallback,
			expectedReason:   ReasonConfident,
		},
		{
			name:             "primary above threshold short-circuits",
			primary:          &stubPrimary{trained: true, result: models.ClassificationResult{Category: models.CategoryGas, Confidence: 0.71}},
			fallback:         models.ZeroShotResult{Label: "groceries and food", Score: 0.9},
			expectedCategory: models.CategoryGas,
			expectedSource:   SourcePrimary,
			expectedReason:   ReasonConfident,
		},
		{
			name:             "fallback at threshold is rejected",
			fallback:         models.ZeroShotResult{Label: "travel", Score: 0.5},
			expectedCategory: models.CategoryUncategorized,
			expectedSource:   SourceDefault,
			expectedReason:   ReasonBelowThreshold,
		},
		{
			name:             "fallback above threshold is mapped",
			fallback:         models.ZeroShotResult{Label: "travel", Score: 0.51},
			expectedCategory: models.CategoryTravel,
			expectedSource:   SourceFallback,
			expectedReason:   ReasonConfident,
		},
		{
			name:             "untrained primary is skipped",
			primary:          &stubPrimary{trained: false, result: models.ClassificationResult{Category: models.CategoryGas, Confidence: 1}},
			fallback:         models.ZeroShotResult{Label: "education", Score: 0.8},
			expectedCategory: models.CategoryEducation,
			expectedSource:   SourceFallback,
			expectedReason:   ReasonConfident,
		},
		{
			name:             "unknown fallback label",
			fallback:         models.ZeroShotResult{Label: "lottery winnings", Score: 0.99},
			expectedCategory: models.CategoryUncategorized,
			expectedSource:   SourceFallback,
			expectedReason:   ReasonConfident,
		},
		{
			name:             "primary returns unknown category",
			primary:          &stubPrimary{trained: true, result: models.ClassificationResult{Category: "not-a-category", Confidence: 0.95}},
			expectedCategory: models.CategoryUncategorized,
			expectedSource:   SourcePrimary,
			expectedReason:   ReasonConfident,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(Options{
				Primary:  tt.primary,
				Fallback: factoryFor(&stubZeroShot{result: tt.fallback}, nil),
			})
			d := c.Decide(context.Background(), models.TransactionRecord{Description: "SOME PURCHASE", MerchantName: "Somewhere"})
			assert.Equal(t, tt.expectedCategory, d.Category)
			assert.Equal(t, tt.expectedSource, d.Source)
			assert.Equal(t, tt.expectedReason, d.Reason)
			assert.True(t, d.Category.IsValid())
		})
	}
}

func TestCategorize_PrimaryConfidentSkipsFallbackConstruction(t *testing.T) {
	var calls int32
	c := New(Options{
		Primary:  &stubPrimary{trained: true, result: models.ClassificationResult{Category: models.CategoryRent, Confidence: 0.95}},
		Fallback: factoryFor(&stubZeroShot{}, &calls),
	})
	assert.Equal(t, models.CategoryRent, c.Categorize(context.Background(), "RENT OCTOBER", "", nil))
	assert.Zero(t, atomic.LoadInt32(&calls))
}

func TestCategorize_StarbucksViaFallback(t *testing.T) {
	zs := &stubZeroShot{result: models.ZeroShotResult{Label: "restaurants and dining", Score: 0.82}}
	c := New(Options{Fallback: factoryFor(zs, nil)})

	category := c.Categorize(context.Background(), "STARBUCKS STORE #123", "Starbucks", []string{})
	assert.Equal(t, models.CategoryRestaurants, category)
	assert.Equal(t, "STARBUCKS STORE #123 at Starbucks", zs.lastText)
	assert.Equal(t, CandidateLabels, zs.labels)
}

func TestCategorize_EmptyInput(t *testing.T) {
	var calls int32
	primaries := map[string]PrimaryClassifier{
		"none":      nil,
		"untrained": &stubPrimary{},
		"trained":   &stubPrimary{trained: true, result: models.ClassificationResult{Category: models.CategoryGas, Confidence: 1}},
	}
	for name, p := range primaries {
		t.Run(name, func(t *testing.T) {
			c := New(Options{Primary: p, Fallback: factoryFor(&stubZeroShot{}, &calls)})
			d := c.Decide(context.Background(), models.TransactionRecord{Description: "  ", MerchantName: ""})
			assert.Equal(t, models.CategoryUncategorized, d.Category)
			assert.Equal(t, ReasonEmptyInput, d.Reason)
		})
	}
	assert.Zero(t, atomic.LoadInt32(&calls))
}

func TestCategorize_FallbackConstructionFails(t *testing.T) {
	logger := &logging.MockLogger{}
	var calls int32
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	c := New(Options{
		Logger:           logger,
		FallbackProvider: "embedding",
		Fallback: func(context.Context) (ZeroShotClassifier, error) {
			atomic.AddInt32(&calls, 1)
			return nil, errors.New("dial failed")
		},
	})
	c.fallback.now = func() time.Time { return now }

	d := c.Decide(context.Background(), models.TransactionRecord{Description: "COFFEE"})
	assert.Equal(t, models.CategoryUncategorized, d.Category)
	assert.Equal(t, ReasonFallbackUnavailable, d.Reason)
	assert.True(t, logger.HasEntry("WARN", "Fallback classifier unavailable"))

	c.Categorize(context.Background(), "COFFEE", "", nil)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls), "failure is cached within the retry interval")

	now = now.Add(DefaultFallbackRetryInterval + time.Second)
	c.Categorize(context.Background(), "COFFEE", "", nil)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls), "construction is retried after the interval")
}

func TestCategorize_NoFallbackConfigured(t *testing.T) {
	c := New(Options{})
	d := c.Decide(context.Background(), models.TransactionRecord{Description: "WALGREENS"})
	assert.Equal(t, models.CategoryUncategorized, d.Category)
	assert.Equal(t, ReasonFallbackUnavailable, d.Reason)
}

func TestCategorize_FactoryPanics(t *testing.T) {
	c := New(Options{Fallback: func(context.Context) (ZeroShotClassifier, error) { panic("boom") }})
	assert.Equal(t, models.CategoryUncategorized, c.Categorize(context.Background(), "X Y", "", nil))
}

func TestCategorize_PrimaryPanics(t *testing.T) {
	logger := &logging.MockLogger{}
	c := New(Options{Primary: &stubPrimary{trained: true, panics: true}, Logger: logger})
	d := c.Decide(context.Background(), models.TransactionRecord{Description: "AMAZON"})
	assert.Equal(t, models.CategoryUncategorized, d.Category)
	assert.Equal(t, ReasonPanic, d.Reason)
	assert.True(t, logger.HasEntry("WARN", "Recovered panic during categorization"))
}

func TestCategorize_ZeroShotError(t *testing.T) {
	zs := &stubZeroShot{err: errors.New("quota exceeded")}
	c := New(Options{Fallback: factoryFor(zs, nil)})
	d := c.Decide(context.Background(), models.TransactionRecord{Description: "UBER TRIP"})
	assert.Equal(t, models.CategoryUncategorized, d.Category)
	assert.Equal(t, ReasonFailure, d.Reason)
}

func TestCategorize_HintsCarriedNotConsulted(t *testing.T) {
	c := New(Options{})
	d := c.Decide(context.Background(), models.TransactionRecord{Description: "X", CategoryHints: []string{"Food and Drink"}})
	assert.Equal(t, []string{"Food and Drink"}, d.Hints)
	assert.Equal(t, models.CategoryUncategorized, d.Category)
}

func TestLazyFallback_SingleFlight(t *testing.T) {
	var calls int32
	release := make(chan struct{})
	zs := &stubZeroShot{result: models.ZeroShotResult{Label: "travel", Score: 0.9}}
	c := New(Options{Fallback: func(context.Context) (ZeroShotClassifier, error) {
		atomic.AddInt32(&calls, 1)
		<-release
		return zs, nil
	}})

	const n = 32
	var wg sync.WaitGroup
	results := make([]models.Category, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = c.Categorize(context.Background(), "DELTA AIR", "Delta", nil)
		}(i)
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	for _, r := range results {
		assert.Equal(t, models.CategoryTravel, r)
	}
	assert.True(t, c.Status().FallbackReady)
}

func TestCategorize_ConcurrentMatchesSequential(t *testing.T) {
	c := New(Options{Training: fastTraining()})
	_, err := c.Train(context.Background(), trainingCorpus(60))
	require.NoError(t, err)

	inputs := []models.TransactionRecord{
		{Description: "SHELL OIL FUEL", MerchantName: "Shell"},
		{Description: "WHOLE FOODS MARKET", MerchantName: "Whole Foods"},
		{Description: "NETFLIX SUBSCRIPTION", MerchantName: "Netflix"},
		{Description: "UNKNOWN THING"},
	}
	expected := make([]Decision, len(inputs))
	for i, in := range inputs {
		expected[i] = c.Decide(context.Background(), in)
	}

	var wg sync.WaitGroup
	for w := 0; w < 16; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i, in := range inputs {
				assert.Equal(t, expected[i], c.Decide(context.Background(), in))
			}
		}()
	}
	wg.Wait()

	batch := c.PredictBatch(context.Background(), inputs)
	assert.Equal(t, expected, batch)
}

func TestTrain_WhilePredicting(t *testing.T) {
	c := New(Options{
		Primary:  &stubPrimary{trained: true, result: models.ClassificationResult{Category: models.CategoryMovies, Confidence: 0.9}},
		Training: fastTraining(),
	})

	stop := make(chan struct{})
	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				category := c.Categorize(context.Background(), "SHELL OIL FUEL", "Shell", nil)
				assert.True(t, category.IsValid())
			}
		}()
	}

	_, err := c.Train(context.Background(), trainingCorpus(60))
	close(stop)
	wg.Wait()
	require.NoError(t, err)
	assert.Equal(t, models.CategoryGas, c.Categorize(context.Background(), "SHELL OIL FUEL", "Shell", nil))
}

func TestTrain_InsufficientDataKeepsModel(t *testing.T) {
	st := &store.MockStore{}
	primary := &stubPrimary{trained: true, result: models.ClassificationResult{Category: models.CategoryMovies, Confidence: 0.9}}
	c := New(Options{Primary: primary, Store: st, Training: fastTraining()})

	report, err := c.Train(context.Background(), trainingCorpus(49))
	require.Error(t, err)
	assert.Nil(t, report)

	var insufficient *InsufficientDataError
	require.True(t, errors.As(err, &insufficient))
	assert.Equal(t, 49, insufficient.Have)
	assert.Zero(t, st.Saves)
	assert.Equal(t, models.CategoryMovies, c.Categorize(context.Background(), "ANY", "", nil))

	_, err = c.Train(context.Background(), trainingCorpus(50))
	assert.NoError(t, err)
}

func TestTrain_PersistsAndReloads(t *testing.T) {
	st := &store.MockStore{}
	c := New(Options{Store: st, Training: fastTraining()})

	var ticks int32
	report, err := c.Train(context.Background(), trainingCorpus(60), WithProgress(func() { atomic.AddInt32(&ticks, 1) }))
	require.NoError(t, err)
	assert.NotEmpty(t, report.RunID)
	assert.Equal(t, int32(10), atomic.LoadInt32(&ticks))
	assert.Equal(t, 1, st.Saves)

	restored := New(Options{Store: st})
	res := restored.LoadPersisted(context.Background())
	require.True(t, res.Loaded)
	assert.NoError(t, res.Err)

	in := models.TransactionRecord{Description: "NETFLIX SUBSCRIPTION", MerchantName: "Netflix"}
	assert.Equal(t, c.Decide(context.Background(), in), restored.Decide(context.Background(), in))
}

func TestTrain_SaveFailureKeepsNewModel(t *testing.T) {
	st := &store.MockStore{SaveError: errors.New("disk full")}
	c := New(Options{Store: st, Training: fastTraining()})

	report, err := c.Train(context.Background(), trainingCorpus(60))
	require.Error(t, err)
	require.NotNil(t, report)

	var writeErr *ArtifactWriteError
	assert.True(t, errors.As(err, &writeErr))
	assert.True(t, c.IsTrained())
}

func TestSaveModel_NoopWhenUntrained(t *testing.T) {
	st := &store.MockStore{}
	c := New(Options{Store: st, Primary: &stubPrimary{trained: true}})
	require.NoError(t, c.SaveModel(context.Background()))
	assert.Zero(t, st.Saves)
	assert.Nil(t, st.Artifact())
}

func TestLoadPersisted_Failures(t *testing.T) {
	tests := []struct {
		name          string
		store         ModelStore
		expectCorrupt bool
	}{
		{"nil store", nil, false},
		{"nothing saved", &store.MockStore{}, false},
		{"corrupt", &store.MockStore{LoadError: &CorruptArtifactError{Location: "memory", Err: errors.New("bad yaml")}}, true},
		{"io error", &store.MockStore{LoadError: errors.New("permission denied")}, true},
		{"invalid artifact", invalidArtifactStore(), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := &logging.MockLogger{}
			c := New(Options{Store: tt.store, Logger: logger})
			res := c.LoadPersisted(context.Background())

			assert.False(t, res.Loaded)
			assert.False(t, c.IsTrained())
			var corrupt *CorruptArtifactError
			if tt.expectCorrupt {
				assert.True(t, errors.As(res.Err, &corrupt))
				assert.NotEmpty(t, logger.GetEntriesByLevel("WARN"))
			} else {
				assert.ErrorIs(t, res.Err, ErrArtifactNotFound)
			}
			assert.Equal(t, models.CategoryUncategorized, c.Categorize(context.Background(), "ANYTHING", "", nil))
		})
	}
}

func invalidArtifactStore() *store.MockStore {
	st := &store.MockStore{}
	_ = st.Save(context.Background(), &classifier.Artifact{FormatVersion: classifier.FormatVersion, IsTrained: true})
	st.Saves = 0
	return st
}

func TestFeedback(t *testing.T) {
	ctx := context.Background()

	_, err := New(Options{}).RecordFeedback(ctx, models.LabeledTransaction{})
	assert.ErrorIs(t, err, ErrNoFeedbackStore)
	_, err = New(Options{}).RetrainFromFeedback(ctx)
	assert.ErrorIs(t, err, ErrNoFeedbackStore)

	st := &store.MockStore{}
	c := New(Options{Feedback: st, Store: st, Training: fastTraining()})

	invalid := []models.LabeledTransaction{
		{Category: models.CategoryGas},
		{TransactionRecord: models.TransactionRecord{Description: "SHELL"}, Category: "petrol"},
	}
	for _, lt := range invalid {
		_, err := c.RecordFeedback(ctx, lt)
		assert.ErrorIs(t, err, ErrInvalidFeedback)
	}

	for _, lt := range trainingCorpus(30) {
		_, err := c.RecordFeedback(ctx, lt)
		require.NoError(t, err)
	}
	_, err = c.RetrainFromFeedback(ctx)
	var insufficient *InsufficientDataError
	assert.True(t, errors.As(err, &insufficient))

	for _, lt := range trainingCorpus(30) {
		lt.Category = models.Category(" " + string(lt.Category) + " ")
		_, err := c.RecordFeedback(ctx, lt)
		require.NoError(t, err)
	}
	report, err := c.RetrainFromFeedback(ctx)
	require.NoError(t, err)
	assert.Equal(t, 60, report.Examples)
	assert.True(t, c.IsTrained())
}

func TestStatusAndImportance(t *testing.T) {
	c := New(Options{Training: fastTraining(), FallbackProvider: "generative", Store: &store.MockStore{}})
	s := c.Status()
	assert.False(t, s.Trained)
	assert.Nil(t, s.TrainedAt)
	assert.Equal(t, "generative", s.FallbackProvider)
	assert.Equal(t, "memory", s.ModelLocation)
	assert.Nil(t, c.FeatureImportance(5))

	_, err := c.Train(context.Background(), trainingCorpus(60))
	require.NoError(t, err)

	s = c.Status()
	assert.True(t, s.Trained)
	require.NotNil(t, s.TrainedAt)
	assert.Len(t, s.Categories, 3)
	assert.Positive(t, s.VocabularySize)
	assert.NotEmpty(t, c.FeatureImportance(5))
}
