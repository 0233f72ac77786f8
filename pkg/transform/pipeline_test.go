package transform

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/autoprep-inc/autoprep-engine/pkg/apperrors"
	"github.com/autoprep-inc/autoprep-engine/pkg/dataset"
	"github.com/autoprep-inc/autoprep-engine/pkg/suggest"
)

func load(t *testing.T, csv string) *dataset.Dataset {
	t.Helper()
	ds, err := dataset.ReadCSV(strings.NewReader(csv), "test.csv", ",")
	require.NoError(t, err)
	return ds
}

func newPipeline() *Pipeline { return NewPipeline(zap.NewNop()) }

func TestApplyDropColumns(t *testing.T) {
	ds := load(t, "a,b,c\n1,2,3\n4,5,6\n")
	out, log, err := newPipeline().Apply(ds, []Operation{DropColumns{Columns: []string{"b"}}})
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "c"}, out.ColumnNames())
	assert.Equal(t, 3, log.ShapeBefore.Columns)
	assert.Equal(t, 2, log.ShapeAfter.Columns)
	assert.Equal(t, []string{"a", "b", "c"}, ds.ColumnNames(), "input untouched")
}

func TestApplyDropUnknownColumnFails(t *testing.T) {
	ds := load(t, "a\n1\n")
	_, _, err := newPipeline().Apply(ds, []Operation{DropColumns{Columns: []string{"ghost"}}})
	require.Error(t, err)
	assert.True(t, apperrors.IsTransformation(err))
	assert.Contains(t, err.Error(), "ghost")
}

func TestDropThenScaleSameBatchFails(t *testing.T) {
	ds := load(t, "id,x\n1,10\n2,20\n")
	// submission order puts scale first; canonical order still drops first
	_, _, err := newPipeline().Apply(ds, []Operation{
		Scale{Column: "id"},
		DropColumns{Columns: []string{"id"}},
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsTransformation(err))
	assert.Contains(t, err.Error(), `"id"`)
}

func TestHandleMissingMeanFillsAllNulls(t *testing.T) {
	ds := load(t, "income\n100\n200\nNA\n300\nNA\n")
	out, log, err := newPipeline().Apply(ds, []Operation{
		HandleMissing{Column: "income", Method: MissingMean},
	})
	require.NoError(t, err)

	col := out.Column("income")
	assert.Equal(t, 0, col.NullCount())
	assert.Equal(t, 5, out.Rows(), "row count unchanged")
	assert.Equal(t, 200.0, col.Values[2].Num)
	assert.Equal(t, 2, log.Records[0].NullsBefore)
	assert.Equal(t, 0, log.Records[0].NullsAfter)
}

func TestHandleMissingMedian(t *testing.T) {
	ds := load(t, "v\n1\n2\n100\nNA\n")
	out, _, err := newPipeline().Apply(ds, []Operation{
		HandleMissing{Column: "v", Method: MissingMedian},
	})
	require.NoError(t, err)
	assert.Equal(t, 2.0, out.Column("v").Values[3].Num)
}

func TestHandleMissingMeanOnTextColumnFails(t *testing.T) {
	ds := load(t, "city\nAustin\nNA\nBoston\n")
	_, _, err := newPipeline().Apply(ds, []Operation{
		HandleMissing{Column: "city", Method: MissingMean},
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
}

func TestHandleMissingModeAndDropRows(t *testing.T) {
	ds := load(t, "city,v\nAustin,1\nNA,2\nAustin,NA\nBoston,4\n")
	out, _, err := newPipeline().Apply(ds, []Operation{
		HandleMissing{Column: "city", Method: MissingMode},
		HandleMissing{Column: "v", Method: MissingDropRows},
	})
	require.NoError(t, err)

	assert.Equal(t, 3, out.Rows(), "one row dropped for null v")
	assert.Equal(t, 0, out.Column("city").NullCount())
	assert.Equal(t, "Austin", out.Column("city").Values[1].Str)
}

func TestHandleMissingForwardFill(t *testing.T) {
	ds := load(t, "v\n1\nNA\nNA\n4\n")
	out, _, err := newPipeline().Apply(ds, []Operation{
		HandleMissing{Column: "v", Method: MissingForwardFill},
	})
	require.NoError(t, err)
	assert.Equal(t, 1.0, out.Column("v").Values[1].Num)
	assert.Equal(t, 1.0, out.Column("v").Values[2].Num)
}

func TestHandleMissingConstant(t *testing.T) {
	ds := load(t, "v\n1\nNA\n")
	out, _, err := newPipeline().Apply(ds, []Operation{
		HandleMissing{Column: "v", Method: MissingConstant, Fill: "7"},
	})
	require.NoError(t, err)
	assert.Equal(t, 7.0, out.Column("v").Values[1].Num)
}

func TestChangeTypeCountsCoercionFailures(t *testing.T) {
	ds := load(t, "mixed,pad\nx1,a\nx2,b\nx3,c\nx4,d\n5,e\n")
	out, log, err := newPipeline().Apply(ds, []Operation{
		ChangeType{Column: "mixed", To: dataset.TypeNumeric},
	})
	require.NoError(t, err)

	col := out.Column("mixed")
	assert.Equal(t, dataset.TypeNumeric, col.Type)
	assert.Equal(t, 4, col.NullCount())
	assert.Contains(t, log.Records[0].Detail, "4 values failed coercion")
}

func TestChangeTypeIdempotent(t *testing.T) {
	ds := load(t, "v,pad\n1,a\ntwo,b\n3,c\n")
	op := ChangeType{Column: "v", To: dataset.TypeNumeric}

	once, _, err := newPipeline().Apply(ds, []Operation{op})
	require.NoError(t, err)
	twice, _, err := newPipeline().Apply(once, []Operation{op})
	require.NoError(t, err)

	assert.Equal(t, once.Column("v").Type, twice.Column("v").Type)
	assert.Equal(t, once.Column("v").NullCount(), twice.Column("v").NullCount())
}

func TestRemoveDuplicates(t *testing.T) {
	ds := load(t, "a,b\n1,x\n2,y\n1,x\n1,x\n")
	out, log, err := newPipeline().Apply(ds, []Operation{RemoveDuplicates{}})
	require.NoError(t, err)

	assert.Equal(t, 2, out.Rows())
	assert.Equal(t, 2, log.Records[0].RowsAffected)
}

func TestHandleOutliersRemove(t *testing.T) {
	var b strings.Builder
	b.WriteString("v\n")
	for i := 1; i <= 20; i++ {
		fmt.Fprintf(&b, "%d\n", i)
	}
	b.WriteString("10000\n")
	ds := load(t, b.String())

	out, log, err := newPipeline().Apply(ds, []Operation{HandleOutliers{Column: "v"}})
	require.NoError(t, err)
	assert.Equal(t, 20, out.Rows())
	assert.Equal(t, 1, log.Records[0].RowsAffected)
}

func TestHandleOutliersCap(t *testing.T) {
	var b strings.Builder
	b.WriteString("v\n")
	for i := 1; i <= 20; i++ {
		fmt.Fprintf(&b, "%d\n", i)
	}
	b.WriteString("10000\n")
	ds := load(t, b.String())

	out, _, err := newPipeline().Apply(ds, []Operation{HandleOutliers{Column: "v", Method: OutlierCap}})
	require.NoError(t, err)
	assert.Equal(t, 21, out.Rows())
	assert.Less(t, out.Column("v").Values[20].Num, 10000.0)
}

func TestEncodeOneHotExpansion(t *testing.T) {
	ds := load(t, "city,v\nAustin,1\nBoston,2\nAustin,3\nChicago,4\n")
	out, log, err := newPipeline().Apply(ds, []Operation{Encode{Column: "city"}})
	require.NoError(t, err)

	// original 2 columns - 1 encoded + 3 indicators
	assert.Equal(t, []string{"city_Austin", "city_Boston", "city_Chicago", "v"}, out.ColumnNames())
	assert.Equal(t, 1.0, out.Column("city_Austin").Values[0].Num)
	assert.Equal(t, 0.0, out.Column("city_Austin").Values[1].Num)
	assert.Contains(t, log.Records[0].Detail, "3 indicator columns")
}

func TestScaleStandardizes(t *testing.T) {
	ds := load(t, "v\n10\n20\n30\n")
	out, _, err := newPipeline().Apply(ds, []Operation{Scale{Column: "v"}})
	require.NoError(t, err)

	col := out.Column("v")
	sum := col.Values[0].Num + col.Values[1].Num + col.Values[2].Num
	assert.InDelta(t, 0.0, sum, 1e-9)
	assert.InDelta(t, 0.0, col.Values[1].Num, 1e-9)
}

func TestScaleConstantColumnLeftAlone(t *testing.T) {
	ds := load(t, "v\n5\n5\n5\n")
	out, log, err := newPipeline().Apply(ds, []Operation{Scale{Column: "v"}})
	require.NoError(t, err)

	assert.Equal(t, 5.0, out.Column("v").Values[0].Num)
	assert.Equal(t, "constant column left unscaled", log.Records[0].Detail)
}

func TestBalanceEqualizesClassCounts(t *testing.T) {
	var b strings.Builder
	b.WriteString("x,y,label\n")
	for i := 0; i < 10; i++ {
		fmt.Fprintf(&b, "%d,%d,A\n", i, i*2)
	}
	b.WriteString("100,200,B\n101,202,B\n")
	ds := load(t, b.String())

	out, log, err := newPipeline().Apply(ds, []Operation{Balance{Target: "label", Seed: 42}})
	require.NoError(t, err)

	counts := map[string]int{}
	for _, v := range out.Column("label").Values {
		counts[v.Str]++
	}
	assert.Equal(t, counts["A"], counts["B"])
	assert.Equal(t, 8, log.Records[0].RowsAffected)

	// synthetic rows interpolate between existing class members
	for i := 12; i < out.Rows(); i++ {
		x := out.Column("x").Values[i].Num
		assert.GreaterOrEqual(t, x, 100.0)
		assert.LessOrEqual(t, x, 101.0)
	}
}

func TestBalanceSingleClassFails(t *testing.T) {
	ds := load(t, "x,label\n1,A\n2,A\n")
	_, _, err := newPipeline().Apply(ds, []Operation{Balance{Target: "label"}})
	require.Error(t, err)
	assert.True(t, apperrors.IsTransformation(err))
}

func TestCanonicalOrderingAcrossPhases(t *testing.T) {
	ds := load(t, "city,v\nAustin,NA\nBoston,2\nAustin,3\nNA,4\n")
	// submitted backwards: scale, encode, missing; must run missing -> encode -> scale
	out, log, err := newPipeline().Apply(ds, []Operation{
		Scale{Column: "v"},
		Encode{Column: "city"},
		HandleMissing{Column: "v", Method: MissingMean},
		HandleMissing{Column: "city", Method: MissingMode},
	})
	require.NoError(t, err)

	assert.Equal(t, 0, out.Column("v").NullCount())
	assert.True(t, out.HasColumn("city_Austin"))
	require.Len(t, log.Records, 4)
	assert.Contains(t, log.Records[0].Operation, "handle_missing")
	assert.Contains(t, log.Records[3].Operation, "scale")
}

func TestApplyFailureIsAtomic(t *testing.T) {
	ds := load(t, "a,b\n1,2\n3,4\n")
	out, log, err := newPipeline().Apply(ds, []Operation{
		DropColumns{Columns: []string{"a"}},
		Scale{Column: "ghost"},
	})
	require.Error(t, err)
	assert.Nil(t, out)
	assert.Nil(t, log)
	assert.Equal(t, []string{"a", "b"}, ds.ColumnNames())
}

func TestFromSuggestions(t *testing.T) {
	ops, err := FromSuggestions([]suggest.Suggestion{
		{Kind: suggest.KindHandleMissing, Column: "age", Method: "mean"},
		{Kind: suggest.KindHandleMissing, Column: "junk", Method: "drop_column"},
		{Kind: suggest.KindRemoveDuplicates},
		{Kind: suggest.KindConvertType, Column: "joined", TargetType: "datetime"},
		{Kind: suggest.KindNormalization, Column: "salary"},
	})
	require.NoError(t, err)
	require.Len(t, ops, 5)

	assert.IsType(t, HandleMissing{}, ops[0])
	assert.IsType(t, DropColumns{}, ops[1])
	assert.IsType(t, RemoveDuplicates{}, ops[2])
	assert.IsType(t, ChangeType{}, ops[3])
	assert.IsType(t, Scale{}, ops[4])
}

func TestFromSuggestionsRejectsBadType(t *testing.T) {
	_, err := FromSuggestions([]suggest.Suggestion{
		{Kind: suggest.KindConvertType, Column: "x", TargetType: "complex128"},
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
}
