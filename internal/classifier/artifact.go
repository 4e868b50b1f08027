package classifier

import (
	"errors"
	"fmt"
	"time"

	"intellifinance/fincat/internal/features"
	"intellifinance/fincat/internal/forest"
	"intellifinance/fincat/internal/models"
)

// FormatVersion identifies the artifact layout written by this package.
const FormatVersion = 1

// Artifact is the persisted form of a trained model: the fitted vocabulary
// and the forest, which only make sense together.
type Artifact struct {
	FormatVersion int               `yaml:"format_version"`
	IsTrained     bool              `yaml:"is_trained"`
	TrainedAt     time.Time         `yaml:"trained_at"`
	Categories    []models.Category `yaml:"categories"`
	Vocabulary    features.State    `yaml:"vocabulary"`
	Forest        *forest.Forest    `yaml:"forest"`
}

// Validate checks that the vocabulary, forest and class list agree.
func (a *Artifact) Validate() error {
	if a == nil {
		return errors.New("artifact is nil")
	}
	if a.FormatVersion != FormatVersion {
		return fmt.Errorf("unsupported artifact format version %d", a.FormatVersion)
	}
	if !a.IsTrained {
		return errors.New("artifact is not marked as trained")
	}
	if a.Forest == nil {
		return errors.New("artifact has no forest")
	}
	if err := a.Forest.Validate(); err != nil {
		return err
	}
	if len(a.Categories) != a.Forest.NClasses {
		return fmt.Errorf("artifact lists %d categories but forest has %d classes", len(a.Categories), a.Forest.NClasses)
	}
	for _, c := range a.Categories {
		if !c.IsValid() {
			return fmt.Errorf("artifact contains unknown category %q", c)
		}
	}
	if len(a.Vocabulary.Terms) != a.Forest.NFeatures {
		return fmt.Errorf("vocabulary has %d terms but forest expects %d features", len(a.Vocabulary.Terms), a.Forest.NFeatures)
	}
	return nil
}

// Artifact returns the persistable form of m, or nil when m is untrained.
func (m *Model) Artifact() *Artifact {
	if !m.IsTrained() {
		return nil
	}
	return &Artifact{
		FormatVersion: FormatVersion,
		IsTrained:     true,
		TrainedAt:     m.trainedAt,
		Categories:    append([]models.Category(nil), m.classes...),
		Vocabulary:    m.vectorizer.State(),
		Forest:        m.forest,
	}
}

// FromArtifact rebuilds a model from a persisted artifact.
func FromArtifact(a *Artifact) (*Model, error) {
	if err := a.Validate(); err != nil {
		return nil, err
	}
	vec, err := features.FromState(a.Vocabulary)
	if err != nil {
		return nil, err
	}
	return &Model{
		vectorizer: vec,
		forest:     a.Forest,
		classes:    append([]models.Category(nil), a.Categories...),
		trainedAt:  a.TrainedAt,
	}, nil
}
