package transform

import (
	"fmt"
	"math"
	"math/rand"
	"sort"

	"github.com/autoprep-inc/autoprep-engine/pkg/apperrors"
	"github.com/autoprep-inc/autoprep-engine/pkg/dataset"
)

// applyBalance oversamples every minority class up to the majority
// count. Synthetic rows interpolate numeric features between a random
// class member and its nearest neighbor within the class; non-numeric
// features are copied from the base row.
func applyBalance(d *dataset.Dataset, o Balance, rec *Record) error {
	target, err := requireColumn(d, o, o.Target)
	if err != nil {
		return err
	}
	if target.Type == dataset.TypeNumeric {
		return apperrors.Validation("balance: target %q is numeric, classification target required", o.Target)
	}

	classes := make(map[string][]int)
	for i, v := range target.Values {
		if v.Null {
			continue
		}
		classes[v.Render(target.Type)] = append(classes[v.Render(target.Type)], i)
	}
	if len(classes) < 2 {
		return apperrors.Transformation(o.Describe(), "target %q has %d classes, need at least 2", o.Target, len(classes))
	}

	max := 0
	for _, rows := range classes {
		if len(rows) > max {
			max = len(rows)
		}
	}

	labels := make([]string, 0, len(classes))
	for label := range classes {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	rng := rand.New(rand.NewSource(o.Seed))
	numericIdx := numericColumnIndexes(d, o.Target)
	added := 0
	for _, label := range labels {
		rows := classes[label]
		for need := max - len(rows); need > 0; need-- {
			base := rows[rng.Intn(len(rows))]
			neighbor := nearestNeighbor(d, numericIdx, rows, base)
			frac := rng.Float64()
			if err := d.AppendRow(synthesizeRow(d, numericIdx, base, neighbor, frac)); err != nil {
				return err
			}
			added++
		}
	}

	rec.Columns = []string{o.Target}
	rec.RowsAffected = added
	rec.Detail = fmt.Sprintf("oversampled %d classes to %d rows each", len(classes), max)
	return nil
}

func numericColumnIndexes(d *dataset.Dataset, exclude string) []int {
	var idx []int
	for i, c := range d.Columns {
		if c.Name != exclude && c.IsNumeric() {
			idx = append(idx, i)
		}
	}
	return idx
}

// nearestNeighbor finds the closest same-class row by Euclidean
// distance over numeric features, skipping null pairs. Falls back to
// the base row itself for singleton classes.
func nearestNeighbor(d *dataset.Dataset, numericIdx, rows []int, base int) int {
	best := base
	bestDist := math.Inf(1)
	for _, row := range rows {
		if row == base {
			continue
		}
		dist := 0.0
		for _, j := range numericIdx {
			a := d.Columns[j].Values[base]
			b := d.Columns[j].Values[row]
			if a.Null || b.Null {
				continue
			}
			diff := a.Num - b.Num
			dist += diff * diff
		}
		if dist < bestDist {
			bestDist = dist
			best = row
		}
	}
	return best
}

func synthesizeRow(d *dataset.Dataset, numericIdx []int, base, neighbor int, frac float64) []dataset.Value {
	numeric := make(map[int]struct{}, len(numericIdx))
	for _, j := range numericIdx {
		numeric[j] = struct{}{}
	}
	row := make([]dataset.Value, len(d.Columns))
	for j, c := range d.Columns {
		a := c.Values[base]
		if _, ok := numeric[j]; !ok {
			row[j] = a
			continue
		}
		b := c.Values[neighbor]
		if a.Null || b.Null {
			row[j] = a
			continue
		}
		row[j] = dataset.NumberValue(a.Num + frac*(b.Num-a.Num))
	}
	return row
}
