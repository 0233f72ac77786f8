package report

// Report markup is deliberately self-contained: inline styles, no
// assets, so a report file can be opened or served as-is.
const pageStyle = `
  body { font-family: -apple-system, Segoe UI, sans-serif; margin: 2rem auto; max-width: 900px; color: #1f2430; }
  h1 { font-size: 1.4rem; border-bottom: 2px solid #4a6cf7; padding-bottom: .4rem; }
  h2 { font-size: 1.1rem; margin-top: 1.6rem; }
  table { border-collapse: collapse; width: 100%; margin: .8rem 0; }
  th, td { border: 1px solid #d8dce6; padding: .45rem .6rem; text-align: left; font-size: .9rem; }
  th { background: #f0f2f8; }
  .meta { color: #667085; font-size: .85rem; }
  .metric { font-variant-numeric: tabular-nums; }
`

const preprocessingTemplate = `<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>Preprocessing report {{.JobID}}</title><style>` + pageStyle + `</style></head>
<body>
<h1>Preprocessing report</h1>
<p class="meta">Job {{.JobID}} &middot; dataset {{.Log.Dataset}} &middot; generated {{.GeneratedAt}}</p>

<h2>Shape</h2>
<table>
<tr><th></th><th>Rows</th><th>Columns</th></tr>
<tr><td>Before</td><td class="metric">{{.Log.ShapeBefore.Rows}}</td><td class="metric">{{.Log.ShapeBefore.Columns}}</td></tr>
<tr><td>After</td><td class="metric">{{.Log.ShapeAfter.Rows}}</td><td class="metric">{{.Log.ShapeAfter.Columns}}</td></tr>
</table>

<h2>Applied operations</h2>
<table>
<tr><th>Operation</th><th>Columns</th><th>Rows affected</th><th>Nulls before</th><th>Nulls after</th><th>Detail</th></tr>
{{range .Log.Records}}
<tr>
  <td>{{.Operation}}</td>
  <td>{{join .Columns ", "}}</td>
  <td class="metric">{{.RowsAffected}}</td>
  <td class="metric">{{.NullsBefore}}</td>
  <td class="metric">{{.NullsAfter}}</td>
  <td>{{.Detail}}</td>
</tr>
{{end}}
</table>
</body>
</html>
`

const trainingTemplate = `<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>Training report {{.JobID}}</title><style>` + pageStyle + `</style></head>
<body>
<h1>Training report</h1>
<p class="meta">Job {{.JobID}} &middot; generated {{.GeneratedAt}}</p>

<h2>Run</h2>
<table>
<tr><th>Target</th><td>{{.Result.Target}}</td></tr>
<tr><th>Task type</th><td>{{.Result.TaskType}}</td></tr>
<tr><th>Algorithm</th><td>{{.Result.Algorithm}}</td></tr>
<tr><th>Training rows</th><td class="metric">{{.Result.TrainRows}}</td></tr>
<tr><th>Test rows</th><td class="metric">{{.Result.TestRows}}</td></tr>
{{if .Result.Classes}}<tr><th>Classes</th><td>{{join .Result.Classes ", "}}</td></tr>{{end}}
<tr><th>Model artifact</th><td>{{.Result.ModelPath}}</td></tr>
</table>

<h2>Metrics</h2>
<table>
<tr><th>Metric</th><th>Value</th></tr>
{{range .Metrics}}
<tr><td>{{.Name}}</td><td class="metric">{{printf "%.4f" .Value}}</td></tr>
{{end}}
</table>

<h2>Features</h2>
<p>{{join .Result.FeatureNames ", "}}</p>
</body>
</html>
`
