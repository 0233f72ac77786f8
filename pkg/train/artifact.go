package train

import (
	"encoding/gob"
	"os"
	"path/filepath"

	"github.com/autoprep-inc/autoprep-engine/pkg/apperrors"
)

// Artifact is the serialized form of a fitted model plus everything
// needed to score new rows: the feature layout and the label
// vocabulary. Exactly one model field is set, matching Algorithm.
type Artifact struct {
	Algorithm    string
	TaskType     string
	Target       string
	FeatureNames []string
	Classes      []string

	TreeClassifier     *TreeClassifier
	TreeRegressor      *TreeRegressor
	ForestClassifier   *ForestClassifier
	ForestRegressor    *ForestRegressor
	LogisticRegression *LogisticRegression
	LinearRegression   *LinearRegression
}

// Save gob-encodes the artifact, creating parent directories.
func (a *Artifact) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return apperrors.Storage(err, "create model dir")
	}
	f, err := os.Create(path)
	if err != nil {
		return apperrors.Storage(err, "create model file %q", path)
	}
	if err := gob.NewEncoder(f).Encode(a); err != nil {
		f.Close()
		return apperrors.Storage(err, "encode model %q", path)
	}
	if err := f.Close(); err != nil {
		return apperrors.Storage(err, "close model file %q", path)
	}
	return nil
}

// LoadArtifact reads a model back from disk.
func LoadArtifact(path string) (*Artifact, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, apperrors.Storage(err, "open model file %q", path)
	}
	defer f.Close()
	var a Artifact
	if err := gob.NewDecoder(f).Decode(&a); err != nil {
		return nil, apperrors.Storage(err, "decode model %q", path)
	}
	return &a, nil
}
