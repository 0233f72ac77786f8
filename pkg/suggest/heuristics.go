package suggest

import (
	"fmt"

	"github.com/autoprep-inc/autoprep-engine/pkg/dataset"
	"github.com/autoprep-inc/autoprep-engine/pkg/profile"
)

// Missing-value thresholds: above dropColumnRatio the column carries too
// little signal to keep; above dropRowsRatio imputation would fabricate
// too much data.
const (
	dropColumnRatio = 0.5
	dropRowsRatio   = 0.2
)

// Columns whose range exceeds this are flagged for normalization.
const normalizationSpread = 1000.0

// Identifier detection needs enough rows for all-distinct to mean
// anything.
const identifierMinRows = 10

// HeuristicAnalysis derives suggestions from the profile alone, with no
// provider involved. Used directly when AI is disabled and as the
// fallback when a provider call fails.
func HeuristicAnalysis(p profile.DatasetProfile) *Analysis {
	a := &Analysis{
		QualityScore: profile.QualityScore(p),
		Source:       SourceHeuristic,
		Summary: fmt.Sprintf("%d rows, %d columns, %.1f%% missing cells, %d duplicate rows",
			p.Rows, p.Columns, p.MissingRatio*100, p.DuplicateRows),
	}

	if p.DuplicateRows > 0 {
		a.Suggestions = append(a.Suggestions, Suggestion{
			Kind:   KindRemoveDuplicates,
			Reason: fmt.Sprintf("%d duplicate rows found", p.DuplicateRows),
		})
	}

	for _, s := range p.Summaries {
		a.Suggestions = append(a.Suggestions, columnSuggestions(s, p.Rows)...)
	}
	a.TargetCandidates = targetCandidates(p)
	return a
}

func columnSuggestions(s profile.ColumnSummary, rows int) []Suggestion {
	var out []Suggestion

	if s.Type == dataset.TypeString && rows >= identifierMinRows &&
		s.NonNull > 0 && s.Unique == s.NonNull {
		return []Suggestion{{
			Column: s.Name,
			Kind:   KindDropColumn,
			Reason: "every value is distinct, likely a row identifier",
		}}
	}

	if s.Nulls > 0 {
		switch {
		case s.NullRatio > dropColumnRatio:
			out = append(out, Suggestion{
				Column: s.Name,
				Kind:   KindHandleMissing,
				Method: "drop_column",
				Reason: fmt.Sprintf("%.0f%% of values are missing", s.NullRatio*100),
			})
			return out
		case s.NullRatio > dropRowsRatio:
			out = append(out, Suggestion{
				Column: s.Name,
				Kind:   KindHandleMissing,
				Method: "drop_rows",
				Reason: fmt.Sprintf("%.0f%% of values are missing", s.NullRatio*100),
			})
		case s.Type == dataset.TypeNumeric:
			out = append(out, Suggestion{
				Column: s.Name,
				Kind:   KindHandleMissing,
				Method: "mean",
				Reason: fmt.Sprintf("%d missing values in a numeric column", s.Nulls),
			})
		default:
			out = append(out, Suggestion{
				Column: s.Name,
				Kind:   KindHandleMissing,
				Method: "mode",
				Reason: fmt.Sprintf("%d missing values", s.Nulls),
			})
		}
	}

	if s.Type == dataset.TypeNumeric && s.Numeric != nil {
		if n := outlierCount(s); n > 0 {
			out = append(out, Suggestion{
				Column: s.Name,
				Kind:   KindHandleOutliers,
				Method: "iqr",
				Reason: "distribution extends beyond 1.5 IQR fences",
			})
		}
		if s.Numeric.Max-s.Numeric.Min > normalizationSpread {
			out = append(out, Suggestion{
				Column: s.Name,
				Kind:   KindNormalization,
				Method: "standard",
				Reason: fmt.Sprintf("wide value range %.0f..%.0f", s.Numeric.Min, s.Numeric.Max),
			})
		}
	}

	if s.Type == dataset.TypeString && s.NonNull > 0 {
		switch {
		case samplesParseAs(s.SampleValues, parsesNumeric):
			out = append(out, Suggestion{
				Column:     s.Name,
				Kind:       KindConvertType,
				TargetType: string(dataset.TypeNumeric),
				Reason:     "values look numeric but were read as text",
			})
		case samplesParseAs(s.SampleValues, parsesDatetime):
			out = append(out, Suggestion{
				Column:     s.Name,
				Kind:       KindConvertType,
				TargetType: string(dataset.TypeDatetime),
				Reason:     "values look like dates but were read as text",
			})
		case float64(s.Unique)/float64(s.NonNull) < 0.1 && s.Unique < 20:
			out = append(out, Suggestion{
				Column:     s.Name,
				Kind:       KindConvertType,
				TargetType: string(dataset.TypeCategory),
				Reason:     fmt.Sprintf("only %d distinct values", s.Unique),
			})
		}
	}
	return out
}

// samplesParseAs reports whether every profiled sample value parses
// under parse. The column stayed textual at load, so a clean sample
// means scattered bad cells rather than a truly textual column.
func samplesParseAs(samples []string, parse func(string) bool) bool {
	if len(samples) == 0 {
		return false
	}
	for _, v := range samples {
		if !parse(v) {
			return false
		}
	}
	return true
}

func parsesNumeric(v string) bool {
	_, ok := dataset.ParseNumber(v)
	return ok
}

func parsesDatetime(v string) bool {
	_, ok := dataset.ParseDatetime(v)
	return ok
}

// outlierCount reports whether the quartile fences are breached; the
// profile carries min/max so a full pass is unnecessary.
func outlierCount(s profile.ColumnSummary) int {
	iqr := s.Numeric.Q75 - s.Numeric.Q25
	if iqr == 0 {
		return 0
	}
	lower := s.Numeric.Q25 - 1.5*iqr
	upper := s.Numeric.Q75 + 1.5*iqr
	n := 0
	if s.Numeric.Min < lower {
		n++
	}
	if s.Numeric.Max > upper {
		n++
	}
	return n
}

func targetCandidates(p profile.DatasetProfile) []TargetCandidate {
	var out []TargetCandidate
	for _, s := range p.Summaries {
		if looksLikeIdentifier(s, p.Rows) {
			continue
		}
		switch {
		case s.Type == dataset.TypeCategory,
			(s.Type == dataset.TypeString && s.Unique >= 2 && s.Unique <= 20):
			out = append(out, TargetCandidate{
				Column:     s.Name,
				TaskType:   TaskClassification,
				Algorithms: ClassificationAlgorithms,
				Reason:     fmt.Sprintf("%d distinct classes", s.Unique),
			})
		case s.Type == dataset.TypeNumeric && s.Unique > 10:
			out = append(out, TargetCandidate{
				Column:     s.Name,
				TaskType:   TaskRegression,
				Algorithms: RegressionAlgorithms,
				Reason:     "continuous numeric column",
			})
		case s.Type == dataset.TypeNumeric && s.Unique >= 2:
			out = append(out, TargetCandidate{
				Column:     s.Name,
				TaskType:   TaskClassification,
				Algorithms: ClassificationAlgorithms,
				Reason:     fmt.Sprintf("numeric column with %d distinct values", s.Unique),
			})
		}
	}
	return out
}

// looksLikeIdentifier filters row ids out of the target candidates.
func looksLikeIdentifier(s profile.ColumnSummary, rows int) bool {
	if rows == 0 || s.NonNull == 0 {
		return true
	}
	if s.Unique == s.NonNull && s.Type != dataset.TypeNumeric {
		return true
	}
	if s.Type == dataset.TypeNumeric && s.Unique == rows {
		return true
	}
	switch s.Name {
	case "id", "ID", "Id", "index", "uuid":
		return true
	}
	return false
}
