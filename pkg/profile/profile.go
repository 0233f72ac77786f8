// Package profile computes per-column and whole-dataset statistics used
// by suggestion prompts, previews and reports.
package profile

import (
	"math"
	"sort"
	"strings"

	"github.com/autoprep-inc/autoprep-engine/pkg/dataset"
)

const maxSampleValues = 5

// NumericStats summarizes a numeric column over its non-null cells.
type NumericStats struct {
	Mean   float64 `json:"mean"`
	Std    float64 `json:"std"`
	Min    float64 `json:"min"`
	Q25    float64 `json:"q25"`
	Median float64 `json:"median"`
	Q75    float64 `json:"q75"`
	Max    float64 `json:"max"`
}

// CategoricalStats summarizes a textual column over its non-null cells.
type CategoricalStats struct {
	Mode          string `json:"mode"`
	ModeFrequency int    `json:"mode_frequency"`
}

// ColumnSummary is the per-column profile.
type ColumnSummary struct {
	Name         string            `json:"name"`
	Type         dataset.Type      `json:"dtype"`
	NonNull      int               `json:"non_null"`
	Nulls        int               `json:"nulls"`
	NullRatio    float64           `json:"null_ratio"`
	Unique       int               `json:"unique"`
	Zeros        int               `json:"zeros"`
	SampleValues []string          `json:"sample_values"`
	Numeric      *NumericStats     `json:"numeric_stats,omitempty"`
	Categorical  *CategoricalStats `json:"categorical_stats,omitempty"`
}

// DatasetProfile is the whole-table profile.
type DatasetProfile struct {
	Name          string          `json:"name"`
	Rows          int             `json:"rows"`
	Columns       int             `json:"columns"`
	DuplicateRows int             `json:"duplicate_rows"`
	MissingCells  int             `json:"missing_cells"`
	MissingRatio  float64         `json:"missing_ratio"`
	TypeCounts    map[string]int  `json:"type_counts"`
	Summaries     []ColumnSummary `json:"column_summaries"`
}

// SummarizeColumn profiles a single column.
func SummarizeColumn(c *dataset.Column) ColumnSummary {
	total := len(c.Values)
	s := ColumnSummary{Name: c.Name, Type: c.Type}

	distinct := make(map[string]int)
	for _, v := range c.Values {
		if v.Null {
			s.Nulls++
			continue
		}
		s.NonNull++
		key := v.Render(c.Type)
		distinct[key]++
		if c.Type == dataset.TypeNumeric && v.Num == 0 {
			s.Zeros++
		}
		if len(s.SampleValues) < maxSampleValues {
			if !contains(s.SampleValues, key) {
				s.SampleValues = append(s.SampleValues, key)
			}
		}
	}
	s.Unique = len(distinct)
	if total > 0 {
		s.NullRatio = float64(s.Nulls) / float64(total)
	}

	switch c.Type {
	case dataset.TypeNumeric:
		if stats, ok := numericStats(c); ok {
			s.Numeric = &stats
		}
	case dataset.TypeString, dataset.TypeCategory:
		if mode, freq := modeOf(distinct); freq > 0 {
			s.Categorical = &CategoricalStats{Mode: mode, ModeFrequency: freq}
		}
	}
	return s
}

// Summarize profiles every column and the table as a whole.
func Summarize(d *dataset.Dataset) DatasetProfile {
	p := DatasetProfile{
		Name:       d.Name,
		Rows:       d.Rows(),
		Columns:    len(d.Columns),
		TypeCounts: make(map[string]int),
	}
	for _, c := range d.Columns {
		summary := SummarizeColumn(c)
		p.Summaries = append(p.Summaries, summary)
		p.MissingCells += summary.Nulls
		p.TypeCounts[string(c.Type)]++
	}
	if cells := p.Rows * p.Columns; cells > 0 {
		p.MissingRatio = float64(p.MissingCells) / float64(cells)
	}
	p.DuplicateRows = CountDuplicateRows(d)
	return p
}

// CountDuplicateRows counts rows that repeat an earlier row exactly.
func CountDuplicateRows(d *dataset.Dataset) int {
	seen := make(map[string]struct{}, d.Rows())
	dups := 0
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
			dups++
		} else {
			seen[key] = struct{}{}
		}
	}
	return dups
}

// ClassBalance returns label frequencies for a target column, used to
// report imbalance and to validate classification targets.
func ClassBalance(c *dataset.Column) map[string]int {
	balance := make(map[string]int)
	for _, v := range c.Values {
		if v.Null {
			continue
		}
		balance[v.Render(c.Type)]++
	}
	return balance
}

// QualityScore grades the dataset on a 0..10 scale from completeness
// and row uniqueness. The AI path may override this with its own grade.
func QualityScore(p DatasetProfile) float64 {
	if p.Rows == 0 || p.Columns == 0 {
		return 0
	}
	completeness := 1 - p.MissingRatio
	uniqueness := 1 - float64(p.DuplicateRows)/float64(p.Rows)
	score := (completeness*0.6 + uniqueness*0.4) * 10
	return math.Round(score*10) / 10
}

func numericStats(c *dataset.Column) (NumericStats, bool) {
	vals := make([]float64, 0, len(c.Values))
	for _, v := range c.Values {
		if !v.Null {
			vals = append(vals, v.Num)
		}
	}
	if len(vals) == 0 {
		return NumericStats{}, false
	}
	sort.Float64s(vals)

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

	return NumericStats{
		Mean:   mean,
		Std:    math.Sqrt(variance),
		Min:    vals[0],
		Q25:    quantile(vals, 0.25),
		Median: quantile(vals, 0.5),
		Q75:    quantile(vals, 0.75),
		Max:    vals[len(vals)-1],
	}, true
}

// quantile interpolates linearly over a sorted slice.
func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 1 {
		return sorted[0]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

func modeOf(counts map[string]int) (string, int) {
	best := ""
	bestCount := 0
	for v, n := range counts {
		if n > bestCount || (n == bestCount && v < best) {
			best = v
			bestCount = n
		}
	}
	return best, bestCount
}

func contains(ss []string, s string) bool {
	for _, x := range ss {
		if x == s {
			return true
		}
	}
	return false
}
