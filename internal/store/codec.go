package store

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"intellifinance/fincat/internal/classifier"
)

func encodeArtifact(a *classifier.Artifact) ([]byte, error) {
	if a == nil {
		return nil, fmt.Errorf("nothing to encode: artifact is nil")
	}
	return yaml.Marshal(a)
}

// decodeArtifact parses and validates a stored artifact. Any failure is
// reported as a CorruptArtifactError.
func decodeArtifact(location string, data []byte) (*classifier.Artifact, error) {
	var a classifier.Artifact
	if err := yaml.Unmarshal(data, &a); err != nil {
		return nil, &CorruptArtifactError{Location: location, Err: err}
	}
	if err := a.Validate(); err != nil {
		return nil, &CorruptArtifactError{Location: location, Err: err}
	}
	return &a, nil
}
