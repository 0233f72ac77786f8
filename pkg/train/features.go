package train

import (
	"sort"

	"github.com/autoprep-inc/autoprep-engine/pkg/apperrors"
	"github.com/autoprep-inc/autoprep-engine/pkg/dataset"
	"github.com/autoprep-inc/autoprep-engine/pkg/transform"
)

// prepareOps derives the pipeline batch that turns a raw dataset into a
// numeric feature table: drop exclusions, convert datetimes, fill or
// drop nulls, one-hot encode the remaining text columns, then scale
// what the caller asked for. Preprocessing and training share the same
// operation semantics this way.
func prepareOps(d *dataset.Dataset, cfg *Config) ([]transform.Operation, error) {
	target := d.Column(cfg.Target)
	if target == nil {
		return nil, apperrors.Training("target column %q not found", cfg.Target)
	}

	excluded := make(map[string]struct{}, len(cfg.ExcludeColumns))
	for _, name := range cfg.ExcludeColumns {
		if name == cfg.Target {
			return nil, apperrors.Validation("target %q cannot be excluded", cfg.Target)
		}
		excluded[name] = struct{}{}
	}

	oneHot := make(map[string]struct{}, len(cfg.OneHotColumns))
	for _, name := range cfg.OneHotColumns {
		if name == cfg.Target {
			return nil, apperrors.Validation("target %q cannot be one-hot encoded", cfg.Target)
		}
		if _, ok := excluded[name]; ok {
			return nil, apperrors.Validation("column %q is both excluded and one-hot encoded", name)
		}
		oneHot[name] = struct{}{}
	}

	var ops []transform.Operation
	if len(cfg.ExcludeColumns) > 0 {
		ops = append(ops, transform.DropColumns{Columns: cfg.ExcludeColumns})
	}

	// rows with a null target carry no signal either way
	if target.NullCount() > 0 {
		ops = append(ops, transform.HandleMissing{Column: cfg.Target, Method: transform.MissingDropRows})
	}

	for _, c := range d.Columns {
		if c.Name == cfg.Target {
			continue
		}
		if _, ok := excluded[c.Name]; ok {
			continue
		}
		if c.Type == dataset.TypeDatetime {
			ops = append(ops, transform.ChangeType{Column: c.Name, To: dataset.TypeNumeric})
		}
		if c.NullCount() > 0 {
			op := transform.HandleMissing{Column: c.Name, Method: nullMethod(c, cfg)}
			if op.Method == transform.MissingConstant {
				op.Fill = cfg.NullFillValue
			}
			ops = append(ops, op)
		}
		if c.Type == dataset.TypeString || c.Type == dataset.TypeCategory {
			// with no explicit list every text feature is encoded
			if _, ok := oneHot[c.Name]; ok || len(oneHot) == 0 {
				ops = append(ops, transform.Encode{Column: c.Name})
			}
		}
	}

	for _, name := range cfg.ScaleColumns {
		if name == cfg.Target {
			continue
		}
		if _, ok := excluded[name]; ok {
			continue
		}
		ops = append(ops, transform.Scale{Column: name})
	}
	return ops, nil
}

func nullMethod(c *dataset.Column, cfg *Config) string {
	numeric := c.Type == dataset.TypeNumeric || c.Type == dataset.TypeDatetime
	switch cfg.nullHandling() {
	case NullDropRows, NullDrop:
		return transform.MissingDropRows
	case NullMean:
		if numeric {
			return transform.MissingMean
		}
		return transform.MissingMode
	case NullMedian:
		if numeric {
			return transform.MissingMedian
		}
		return transform.MissingMode
	case NullMode:
		return transform.MissingMode
	case NullConstant:
		return transform.MissingConstant
	}
	if numeric {
		return transform.MissingMean
	}
	return transform.MissingMode
}

// featureMatrix reads the prepared dataset into a dense matrix. Every
// non-target column must be numeric by now; anything else means
// preparation missed it.
func featureMatrix(d *dataset.Dataset, target string) ([][]float64, []string, error) {
	var names []string
	var cols []*dataset.Column
	for _, c := range d.Columns {
		if c.Name == target {
			continue
		}
		if !c.IsNumeric() {
			return nil, nil, apperrors.Training("feature column %q is %s after preparation", c.Name, c.Type)
		}
		names = append(names, c.Name)
		cols = append(cols, c)
	}
	if len(cols) == 0 {
		return nil, nil, apperrors.Training("no feature columns remain for target %q", target)
	}

	X := make([][]float64, d.Rows())
	for i := range X {
		row := make([]float64, len(cols))
		for j, c := range cols {
			row[j] = c.Values[i].Num
		}
		X[i] = row
	}
	return X, names, nil
}

// classLabels maps the target column to class indexes with a sorted,
// deterministic label vocabulary.
func classLabels(target *dataset.Column) ([]int, []string) {
	distinct := make(map[string]struct{})
	for _, v := range target.Values {
		if !v.Null {
			distinct[v.Render(target.Type)] = struct{}{}
		}
	}
	labels := make([]string, 0, len(distinct))
	for l := range distinct {
		labels = append(labels, l)
	}
	sort.Strings(labels)

	index := make(map[string]int, len(labels))
	for i, l := range labels {
		index[l] = i
	}
	y := make([]int, len(target.Values))
	for i, v := range target.Values {
		y[i] = index[v.Render(target.Type)]
	}
	return y, labels
}

// regressionTargets requires a numeric target.
func regressionTargets(target *dataset.Column) ([]float64, error) {
	if !target.IsNumeric() {
		return nil, apperrors.Training("regression target %q is %s, numeric required", target.Name, target.Type)
	}
	y := make([]float64, len(target.Values))
	for i, v := range target.Values {
		y[i] = v.Num
	}
	return y, nil
}
