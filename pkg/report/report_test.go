package report

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/autoprep-inc/autoprep-engine/pkg/apperrors"
	"github.com/autoprep-inc/autoprep-engine/pkg/train"
	"github.com/autoprep-inc/autoprep-engine/pkg/transform"
)

func newBuilder(t *testing.T) (*Builder, string) {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "artifacts")
	return NewBuilder(dir, zap.NewNop()), dir
}

func sampleLog() *transform.ChangeLog {
	return &transform.ChangeLog{
		Dataset:     "sales.csv",
		ShapeBefore: transform.Shape{Rows: 100, Columns: 5},
		ShapeAfter:  transform.Shape{Rows: 98, Columns: 7},
		Records: []transform.Record{
			{
				Operation:    "handle_missing(income,mean)",
				Columns:      []string{"income"},
				RowsAffected: 12,
				NullsBefore:  12,
				ShapeBefore:  transform.Shape{Rows: 100, Columns: 5},
				ShapeAfter:   transform.Shape{Rows: 100, Columns: 5},
			},
			{
				Operation: "encode(city)",
				Columns:   []string{"city_austin", "city_boston"},
				Detail:    `expanded "city" into 2 indicator columns`,
			},
		},
	}
}

func TestPreprocessingReport(t *testing.T) {
	b, dir := newBuilder(t)

	path, err := b.Preprocessing("job-123", sampleLog())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "job-123.html"), path)

	html, err := b.Read("job-123")
	require.NoError(t, err)
	assert.Contains(t, string(html), "sales.csv")
	assert.Contains(t, string(html), "handle_missing(income,mean)")
	assert.Contains(t, string(html), "city_austin, city_boston")
}

func TestPreprocessingWritesYAMLChangeLog(t *testing.T) {
	b, dir := newBuilder(t)
	_, err := b.Preprocessing("job-123", sampleLog())
	require.NoError(t, err)

	raw, err := os.ReadFile(filepath.Join(dir, "job-123_changelog.yaml"))
	require.NoError(t, err)

	var decoded transform.ChangeLog
	require.NoError(t, yaml.Unmarshal(raw, &decoded))
	assert.Equal(t, "sales.csv", decoded.Dataset)
	require.Len(t, decoded.Records, 2)
	assert.Equal(t, 12, decoded.Records[0].RowsAffected)
}

func TestTrainingReport(t *testing.T) {
	b, _ := newBuilder(t)
	result := &train.Result{
		Target:       "churn",
		TaskType:     train.TaskClassification,
		Algorithm:    train.AlgorithmRandomForest,
		Metrics:      map[string]float64{"accuracy": 0.9312, "f1": 0.9128},
		TrainRows:    400,
		TestRows:     100,
		FeatureNames: []string{"age", "salary"},
		Classes:      []string{"no", "yes"},
		ModelPath:    "models/job-9.gob",
	}

	path, err := b.Training("job-9", result)
	require.NoError(t, err)

	html, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(html), "random_forest")
	assert.Contains(t, string(html), "0.9312")
	assert.Contains(t, string(html), "no, yes")
}

func TestListAndDelete(t *testing.T) {
	b, _ := newBuilder(t)
	_, err := b.Preprocessing("job-a", sampleLog())
	require.NoError(t, err)
	_, err = b.Preprocessing("job-b", sampleLog())
	require.NoError(t, err)

	ids, err := b.List()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"job-a", "job-b"}, ids)

	require.NoError(t, b.Delete("job-a"))
	ids, err = b.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"job-b"}, ids)
}

func TestReadMissingReport(t *testing.T) {
	b, _ := newBuilder(t)
	_, err := b.Read("nope")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestDeleteMissingReport(t *testing.T) {
	b, _ := newBuilder(t)
	err := b.Delete("nope")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestListEmptyDirIsNotAnError(t *testing.T) {
	b, _ := newBuilder(t)
	ids, err := b.List()
	require.NoError(t, err)
	assert.Empty(t, ids)
}
