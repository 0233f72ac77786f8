package transform

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"

	"github.com/autoprep-inc/autoprep-engine/pkg/apperrors"
	"github.com/autoprep-inc/autoprep-engine/pkg/dataset"
)

func applyDrop(d *dataset.Dataset, o DropColumns, rec *Record) error {
	for _, name := range o.Columns {
		if _, err := requireColumn(d, o, name); err != nil {
			return err
		}
	}
	for _, name := range o.Columns {
		if err := d.DropColumn(name); err != nil {
			return apperrors.Transformation(o.Describe(), "%v", err)
		}
	}
	rec.Columns = o.Columns
	return nil
}

func applyChangeType(d *dataset.Dataset, o ChangeType, rec *Record) error {
	col, err := requireColumn(d, o, o.Column)
	if err != nil {
		return err
	}
	rec.Columns = []string{o.Column}
	rec.NullsBefore = col.NullCount()

	converted := &dataset.Column{Name: col.Name, Type: o.To, Values: make([]dataset.Value, len(col.Values))}
	failed := 0
	for i, v := range col.Values {
		out := dataset.Coerce(v, col.Type, o.To)
		if out.Null && !v.Null {
			failed++
		}
		converted.Values[i] = out
	}
	if err := d.ReplaceColumn(o.Column, converted); err != nil {
		return apperrors.Transformation(o.Describe(), "%v", err)
	}
	rec.NullsAfter = converted.NullCount()
	rec.RowsAffected = len(col.Values)
	if failed > 0 {
		rec.Detail = fmt.Sprintf("%d values failed coercion and became null", failed)
	}
	return nil
}

func applyMissing(d *dataset.Dataset, o HandleMissing, rec *Record) error {
	col, err := requireColumn(d, o, o.Column)
	if err != nil {
		return err
	}
	rec.Columns = []string{o.Column}
	rec.NullsBefore = col.NullCount()

	if (o.Method == MissingMean || o.Method == MissingMedian) && !col.IsNumeric() {
		return apperrors.Validation("handle_missing: method %q requires a numeric column, %q is %s",
			o.Method, o.Column, col.Type)
	}

	switch o.Method {
	case MissingMean, MissingMedian:
		fill, ok := centralValue(col, o.Method)
		if !ok {
			return apperrors.Transformation(o.Describe(), "column %q has no non-null values", o.Column)
		}
		rec.RowsAffected = fillNulls(col, dataset.NumberValue(fill))
	case MissingMode:
		mode, ok := modeValue(col)
		if !ok {
			return apperrors.Transformation(o.Describe(), "column %q has no non-null values", o.Column)
		}
		rec.RowsAffected = fillNulls(col, mode)
	case MissingDropRows:
		keep := make([]bool, len(col.Values))
		dropped := 0
		for i, v := range col.Values {
			keep[i] = !v.Null
			if v.Null {
				dropped++
			}
		}
		d.FilterRows(keep)
		rec.RowsAffected = dropped
	case MissingForwardFill:
		rec.RowsAffected = directionalFill(col, true)
	case MissingBackwardFill:
		rec.RowsAffected = directionalFill(col, false)
	case MissingConstant:
		fill := dataset.CoerceRaw(o.Fill, col.Type)
		if fill.Null {
			return apperrors.Validation("handle_missing: fill value %q is not a valid %s", o.Fill, col.Type)
		}
		rec.RowsAffected = fillNulls(col, fill)
	}
	rec.NullsAfter = col.NullCount()
	return nil
}

func centralValue(col *dataset.Column, method string) (float64, bool) {
	vals := nonNullFloats(col)
	if len(vals) == 0 {
		return 0, false
	}
	if method == MissingMean {
		sum := 0.0
		for _, f := range vals {
			sum += f
		}
		return sum / float64(len(vals)), true
	}
	sort.Float64s(vals)
	mid := len(vals) / 2
	if len(vals)%2 == 1 {
		return vals[mid], true
	}
	return (vals[mid-1] + vals[mid]) / 2, true
}

func modeValue(col *dataset.Column) (dataset.Value, bool) {
	counts := make(map[string]int)
	byKey := make(map[string]dataset.Value)
	for _, v := range col.Values {
		if v.Null {
			continue
		}
		key := v.Render(col.Type)
		counts[key]++
		byKey[key] = v
	}
	bestKey := ""
	best := 0
	for k, n := range counts {
		if n > best || (n == best && k < bestKey) {
			bestKey = k
			best = n
		}
	}
	if best == 0 {
		return dataset.Value{}, false
	}
	return byKey[bestKey], true
}

func fillNulls(col *dataset.Column, fill dataset.Value) int {
	n := 0
	for i, v := range col.Values {
		if v.Null {
			col.Values[i] = fill
			n++
		}
	}
	return n
}

func directionalFill(col *dataset.Column, forward bool) int {
	filled := 0
	if forward {
		var last dataset.Value
		hasLast := false
		for i, v := range col.Values {
			if v.Null && hasLast {
				col.Values[i] = last
				filled++
			} else if !v.Null {
				last, hasLast = v, true
			}
		}
		return filled
	}
	var next dataset.Value
	hasNext := false
	for i := len(col.Values) - 1; i >= 0; i-- {
		v := col.Values[i]
		if v.Null && hasNext {
			col.Values[i] = next
			filled++
		} else if !v.Null {
			next, hasNext = v, true
		}
	}
	return filled
}

func applyOutliers(d *dataset.Dataset, o HandleOutliers, rec *Record) error {
	col, err := requireColumn(d, o, o.Column)
	if err != nil {
		return err
	}
	if !col.IsNumeric() {
		return apperrors.Validation("handle_outliers: column %q is %s, not numeric", o.Column, col.Type)
	}
	rec.Columns = []string{o.Column}
	rec.NullsBefore = col.NullCount()

	vals := nonNullFloats(col)
	if len(vals) < 4 {
		rec.Detail = "too few values to compute fences"
		rec.NullsAfter = rec.NullsBefore
		return nil
	}
	sort.Float64s(vals)
	q1 := quantileSorted(vals, 0.25)
	q3 := quantileSorted(vals, 0.75)
	iqr := q3 - q1
	lower := q1 - o.factor()*iqr
	upper := q3 + o.factor()*iqr

	if o.method() == OutlierCap {
		capped := 0
		for i, v := range col.Values {
			if v.Null {
				continue
			}
			if v.Num < lower {
				col.Values[i] = dataset.NumberValue(lower)
				capped++
			} else if v.Num > upper {
				col.Values[i] = dataset.NumberValue(upper)
				capped++
			}
		}
		rec.RowsAffected = capped
		rec.Detail = fmt.Sprintf("capped to [%g, %g]", lower, upper)
	} else {
		keep := make([]bool, len(col.Values))
		removed := 0
		for i, v := range col.Values {
			keep[i] = v.Null || (v.Num >= lower && v.Num <= upper)
			if !keep[i] {
				removed++
			}
		}
		d.FilterRows(keep)
		rec.RowsAffected = removed
		rec.Detail = fmt.Sprintf("removed rows outside [%g, %g]", lower, upper)
	}
	rec.NullsAfter = col.NullCount()
	return nil
}

func applyDedupe(d *dataset.Dataset, rec *Record) error {
	seen := make(map[string]struct{}, d.Rows())
	keep := make([]bool, d.Rows())
	removed := 0
	var b strings.Builder
	for i := 0; i < d.Rows(); i++ {
		b.Reset()
		for _, c := range d.Columns {
			v := c.Values[i]
			if v.Null {
				b.WriteString("\x00")
			} else {
				b.WriteString(v.Render(c.Type))
			}
			b.WriteString("\x1f")
		}
		key := b.String()
		if _, ok := seen[key]; ok {
			removed++
		} else {
			seen[key] = struct{}{}
			keep[i] = true
		}
	}
	d.FilterRows(keep)
	rec.RowsAffected = removed
	return nil
}

var indicatorNameSanitizer = regexp.MustCompile(`[^a-zA-Z0-9_]+`)

func applyEncode(d *dataset.Dataset, o Encode, rec *Record) error {
	col, err := requireColumn(d, o, o.Column)
	if err != nil {
		return err
	}
	if col.Type == dataset.TypeNumeric {
		return apperrors.Validation("encode: column %q is numeric", o.Column)
	}

	categories := make(map[string]struct{})
	for _, v := range col.Values {
		if !v.Null {
			categories[v.Render(col.Type)] = struct{}{}
		}
	}
	if len(categories) == 0 {
		return apperrors.Transformation(o.Describe(), "column %q has no values to encode", o.Column)
	}
	ordered := make([]string, 0, len(categories))
	for c := range categories {
		ordered = append(ordered, c)
	}
	sort.Strings(ordered)

	indicators := make([]*dataset.Column, len(ordered))
	names := make([]string, len(ordered))
	for j, cat := range ordered {
		name := indicatorName(o.Column, cat)
		names[j] = name
		ind := &dataset.Column{Name: name, Type: dataset.TypeNumeric, Values: make([]dataset.Value, len(col.Values))}
		for i, v := range col.Values {
			if !v.Null && v.Render(col.Type) == cat {
				ind.Values[i] = dataset.NumberValue(1)
			} else {
				ind.Values[i] = dataset.NumberValue(0)
			}
		}
		indicators[j] = ind
	}
	if err := d.ReplaceColumn(o.Column, indicators...); err != nil {
		return apperrors.Transformation(o.Describe(), "%v", err)
	}
	rec.Columns = names
	rec.RowsAffected = len(col.Values)
	rec.Detail = fmt.Sprintf("expanded %q into %d indicator columns", o.Column, len(ordered))
	return nil
}

// indicatorName builds deterministic one-hot column names.
func indicatorName(column, category string) string {
	sanitized := indicatorNameSanitizer.ReplaceAllString(category, "_")
	return column + "_" + strings.Trim(sanitized, "_")
}

func applyScale(d *dataset.Dataset, o Scale, rec *Record) error {
	col, err := requireColumn(d, o, o.Column)
	if err != nil {
		return err
	}
	if !col.IsNumeric() {
		return apperrors.Validation("scale: column %q is %s, not numeric", o.Column, col.Type)
	}
	rec.Columns = []string{o.Column}
	rec.NullsBefore = col.NullCount()
	rec.NullsAfter = rec.NullsBefore

	mean, std, ok := meanStd(col)
	if !ok {
		return apperrors.Transformation(o.Describe(), "column %q has no non-null values", o.Column)
	}
	if std == 0 {
		rec.Detail = "constant column left unscaled"
		return nil
	}
	scaled := 0
	for i, v := range col.Values {
		if v.Null {
			continue
		}
		col.Values[i] = dataset.NumberValue((v.Num - mean) / std)
		scaled++
	}
	rec.RowsAffected = scaled
	return nil
}

func meanStd(col *dataset.Column) (float64, float64, bool) {
	vals := nonNullFloats(col)
	if len(vals) == 0 {
		return 0, 0, false
	}
	sum := 0.0
	for _, f := range vals {
		sum += f
	}
	mean := sum / float64(len(vals))
	variance := 0.0
	for _, f := range vals {
		variance += (f - mean) * (f - mean)
	}
	variance /= float64(len(vals))
	return mean, math.Sqrt(variance), true
}

func nonNullFloats(col *dataset.Column) []float64 {
	vals := make([]float64, 0, len(col.Values))
	for _, v := range col.Values {
		if !v.Null {
			vals = append(vals, v.Num)
		}
	}
	return vals
}

func quantileSorted(sorted []float64, q float64) float64 {
	if len(sorted) == 1 {
		return sorted[0]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(pos)
	frac := pos - float64(lo)
	if lo+1 >= len(sorted) {
		return sorted[lo]
	}
	return sorted[lo]*(1-frac) + sorted[lo+1]*frac
}
