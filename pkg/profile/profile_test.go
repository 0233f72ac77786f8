package profile

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autoprep-inc/autoprep-engine/pkg/dataset"
)

func load(t *testing.T, csv string) *dataset.Dataset {
	t.Helper()
	ds, err := dataset.ReadCSV(strings.NewReader(csv), "test.csv", ",")
	require.NoError(t, err)
	return ds
}

func TestSummarizeColumnNumeric(t *testing.T) {
	ds := load(t, "v\n1\n2\n3\n4\nNA\n")
	s := SummarizeColumn(ds.Column("v"))

	assert.Equal(t, 4, s.NonNull)
	assert.Equal(t, 1, s.Nulls)
	assert.InDelta(t, 0.2, s.NullRatio, 1e-9)
	require.NotNil(t, s.Numeric)
	assert.InDelta(t, 2.5, s.Numeric.Mean, 1e-9)
	assert.InDelta(t, 2.5, s.Numeric.Median, 1e-9)
	assert.InDelta(t, 1.0, s.Numeric.Min, 1e-9)
	assert.InDelta(t, 4.0, s.Numeric.Max, 1e-9)
}

func TestSummarizeColumnCategorical(t *testing.T) {
	ds := load(t, "c\nred\nblue\nred\nred\n")
	s := SummarizeColumn(ds.Column("c"))

	assert.Equal(t, 2, s.Unique)
	require.NotNil(t, s.Categorical)
	assert.Equal(t, "red", s.Categorical.Mode)
	assert.Equal(t, 3, s.Categorical.ModeFrequency)
}

func TestSummarizeColumnAllNull(t *testing.T) {
	ds := load(t, "x\nNA\nnull\nNA\n")
	s := SummarizeColumn(ds.Column("x"))

	assert.Equal(t, 0, s.NonNull)
	assert.Equal(t, 3, s.Nulls)
	assert.InDelta(t, 1.0, s.NullRatio, 1e-9)
	assert.Nil(t, s.Numeric)
	assert.Nil(t, s.Categorical)
	assert.Empty(t, s.SampleValues)
}

func TestSummarizeCountsZerosAndSamples(t *testing.T) {
	ds := load(t, "n\n0\n0\n5\n7\n9\n11\n13\n")
	s := SummarizeColumn(ds.Column("n"))

	assert.Equal(t, 2, s.Zeros)
	assert.Len(t, s.SampleValues, 5)
}

func TestSummarizeDataset(t *testing.T) {
	ds := load(t, "a,b\n1,x\n2,y\n1,x\n,z\n")
	p := Summarize(ds)

	assert.Equal(t, 4, p.Rows)
	assert.Equal(t, 2, p.Columns)
	assert.Equal(t, 1, p.DuplicateRows)
	assert.Equal(t, 1, p.MissingCells)
	assert.InDelta(t, 0.125, p.MissingRatio, 1e-9)
	assert.Equal(t, 1, p.TypeCounts["numeric"])
	assert.Equal(t, 1, p.TypeCounts["string"])
}

func TestClassBalance(t *testing.T) {
	ds := load(t, "label\nyes\nno\nyes\n\nyes\n")
	balance := ClassBalance(ds.Column("label"))

	assert.Equal(t, map[string]int{"yes": 3, "no": 1}, balance)
}

func TestQualityScorePerfect(t *testing.T) {
	ds := load(t, "a,b\n1,x\n2,y\n")
	score := QualityScore(Summarize(ds))
	assert.InDelta(t, 10.0, score, 1e-9)
}

func TestQualityScoreDegrades(t *testing.T) {
	ds := load(t, "a,b\n1,x\n1,x\n,\n,\n")
	score := QualityScore(Summarize(ds))
	assert.Less(t, score, 9.0)
	assert.Greater(t, score, 0.0)
}

func TestQualityScoreEmpty(t *testing.T) {
	assert.Zero(t, QualityScore(DatasetProfile{}))
}

func TestQuantileInterpolation(t *testing.T) {
	sorted := []float64{1, 2, 3, 4}
	assert.InDelta(t, 1.75, quantile(sorted, 0.25), 1e-9)
	assert.InDelta(t, 2.5, quantile(sorted, 0.5), 1e-9)
}
