package dataset

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCSV = `id,price,signup,city,notes
1,"$1,200",2024-01-15,Austin,first
2,950.5,2024-02-01,Boston,
3,NA,2024-02-20,Austin,late
4,810,not-a-date,Chicago,n/a
5,99%,2024-03-05,Austin,ok
`

func loadSample(t *testing.T) *Dataset {
	t.Helper()
	ds, err := ReadCSV(strings.NewReader(sampleCSV), "sample.csv", ",")
	require.NoError(t, err)
	return ds
}

func TestReadCSVInfersTypes(t *testing.T) {
	ds := loadSample(t)
	require.Equal(t, 5, ds.Rows())
	require.Len(t, ds.Columns, 5)

	assert.Equal(t, TypeNumeric, ds.Column("id").Type)
	assert.Equal(t, TypeNumeric, ds.Column("price").Type)
	assert.Equal(t, TypeDatetime, ds.Column("signup").Type)
	assert.Equal(t, TypeString, ds.Column("city").Type)
}

func TestReadCSVParsesFormattedNumbers(t *testing.T) {
	ds := loadSample(t)
	price := ds.Column("price")

	assert.Equal(t, 1200.0, price.Values[0].Num)
	assert.Equal(t, 950.5, price.Values[1].Num)
	assert.True(t, price.Values[2].Null, "NA should be null")
	assert.Equal(t, 99.0, price.Values[4].Num)
}

func TestReadCSVMissingTokens(t *testing.T) {
	ds := loadSample(t)

	assert.Equal(t, 2, ds.Column("notes").NullCount())
	assert.Equal(t, 1, ds.Column("signup").NullCount(), "unparseable date becomes null")
}

func TestReadCSVToleratesRaggedRows(t *testing.T) {
	ragged := "a,b,c\n1,x,10\n2,y\n3\n"
	ds, err := ReadCSV(strings.NewReader(ragged), "ragged.csv", ",")
	require.NoError(t, err)
	require.Equal(t, 3, ds.Rows())

	// short records are padded with nulls
	b := ds.Column("b")
	require.NotNil(t, b)
	assert.False(t, b.Values[1].Null)
	assert.True(t, b.Values[2].Null)
	assert.Equal(t, 2, ds.Column("c").NullCount())
}

func TestReadCSVEmptyFile(t *testing.T) {
	_, err := ReadCSV(strings.NewReader(""), "x.csv", ",")
	assert.Error(t, err)
}

func TestReadCSVSemicolonSeparator(t *testing.T) {
	ds, err := ReadCSV(strings.NewReader("a;b\n1;2\n"), "x.csv", ";")
	require.NoError(t, err)
	assert.Equal(t, TypeNumeric, ds.Column("a").Type)
	assert.Equal(t, 2.0, ds.Column("b").Values[0].Num)
}

func TestWriteCSVRoundTrip(t *testing.T) {
	ds := loadSample(t)
	var buf strings.Builder
	require.NoError(t, WriteCSV(&buf, ds))

	again, err := ReadCSV(strings.NewReader(buf.String()), "again.csv", ",")
	require.NoError(t, err)
	assert.Equal(t, ds.Rows(), again.Rows())
	assert.Equal(t, ds.ColumnNames(), again.ColumnNames())
	assert.Equal(t, 1200.0, again.Column("price").Values[0].Num)
}

func TestInferColumnCategory(t *testing.T) {
	raw := make([]string, 300)
	for i := range raw {
		raw[i] = []string{"red", "green", "blue"}[i%3]
	}
	col := InferColumn("color", raw)
	assert.Equal(t, TypeCategory, col.Type)
}

func TestInferColumnAllMissing(t *testing.T) {
	col := InferColumn("empty", []string{"", "NA", "null"})
	assert.Equal(t, TypeString, col.Type)
	assert.Equal(t, 3, col.NullCount())
}

func TestCoerceNumericToString(t *testing.T) {
	v := Coerce(NumberValue(42), TypeNumeric, TypeString)
	assert.Equal(t, "42", v.Str)
}

func TestCoerceStringToNumericFailure(t *testing.T) {
	v := Coerce(StringValue("hello"), TypeString, TypeNumeric)
	assert.True(t, v.Null)
}

func TestCloneIsDeep(t *testing.T) {
	ds := loadSample(t)
	clone := ds.Clone()
	clone.Column("id").Values[0] = NullValue()

	assert.False(t, ds.Column("id").Values[0].Null)
}

func TestFilterRows(t *testing.T) {
	ds := loadSample(t)
	ds.FilterRows([]bool{true, false, true, false, true})

	require.Equal(t, 3, ds.Rows())
	assert.Equal(t, 1.0, ds.Column("id").Values[0].Num)
	assert.Equal(t, 5.0, ds.Column("id").Values[2].Num)
}

func TestReplaceColumnPreservesOrder(t *testing.T) {
	ds := loadSample(t)
	a := &Column{Name: "city_a", Type: TypeNumeric, Values: make([]Value, ds.Rows())}
	b := &Column{Name: "city_b", Type: TypeNumeric, Values: make([]Value, ds.Rows())}
	require.NoError(t, ds.ReplaceColumn("city", a, b))

	assert.Equal(t, []string{"id", "price", "signup", "city_a", "city_b", "notes"}, ds.ColumnNames())
}
