package suggest

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/autoprep-inc/autoprep-engine/pkg/dataset"
	"github.com/autoprep-inc/autoprep-engine/pkg/profile"
)

const maxSampleRows = 5

const systemPrompt = `You are a data preprocessing assistant. You receive the profile of a tabular dataset and recommend cleaning operations and training targets. Respond with a single JSON object and nothing else.`

const responseSchema = `{
  "quality_score": <number 0-10>,
  "summary": "<one paragraph assessment>",
  "suggestions": [
    {"column": "<name or omit for dataset-level>", "kind": "<handle_missing_values|handle_outliers|remove_duplicates|convert_data_type|normalization|drop_column>", "method": "<mean|median|mode|drop_rows|drop_column|iqr|standard>", "target_type": "<numeric|datetime|category|string>", "reason": "<short justification>"}
  ],
  "target_candidates": [
    {"column": "<name>", "task_type": "<classification|regression>", "algorithms": ["<ranked algorithm names>"], "reason": "<short justification>"}
  ]
}`

// BuildPrompt renders the analysis prompt: table shape, per-column
// profiles as JSON and a handful of sample rows.
func BuildPrompt(d *dataset.Dataset, p profile.DatasetProfile) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Dataset %q: %d rows, %d columns, %d duplicate rows, %.1f%% missing cells.\n\n",
		p.Name, p.Rows, p.Columns, p.DuplicateRows, p.MissingRatio*100)

	b.WriteString("Column profiles:\n")
	profiles, _ := json.MarshalIndent(p.Summaries, "", "  ")
	b.Write(profiles)
	b.WriteString("\n\nSample rows:\n")
	b.WriteString(sampleRows(d))

	b.WriteString("\nSupported classification algorithms: ")
	b.WriteString(strings.Join(ClassificationAlgorithms, ", "))
	b.WriteString("\nSupported regression algorithms: ")
	b.WriteString(strings.Join(RegressionAlgorithms, ", "))
	b.WriteString("\n\nRespond with JSON matching this schema:\n")
	b.WriteString(responseSchema)
	return b.String()
}

func sampleRows(d *dataset.Dataset) string {
	var b strings.Builder
	b.WriteString(strings.Join(d.ColumnNames(), " | "))
	b.WriteString("\n")
	n := d.Rows()
	if n > maxSampleRows {
		n = maxSampleRows
	}
	for i := 0; i < n; i++ {
		cells := make([]string, len(d.Columns))
		for j, c := range d.Columns {
			v := c.Values[i]
			if v.Null {
				cells[j] = "<null>"
			} else {
				cells[j] = v.Render(c.Type)
			}
		}
		b.WriteString(strings.Join(cells, " | "))
		b.WriteString("\n")
	}
	return b.String()
}
