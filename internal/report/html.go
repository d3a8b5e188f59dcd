package report

import (
	"html/template"
	"io"

	"github.com/law-makers/scrollgrab/pkg/models"
)

var htmlTemplate = template.Must(template.New("report").Funcs(template.FuncMap{
	"bytes": humanBytes,
}).Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>scrollgrab run {{.RunID}}</title>
<style>
body { font-family: sans-serif; margin: 2em; }
table { border-collapse: collapse; }
td, th { border: 1px solid #ccc; padding: 4px 8px; text-align: left; }
.failed { color: #b00; }
.skipped { color: #888; }
</style>
</head>
<body>
<h1>scrollgrab run</h1>
<p>Target: {{if .TargetURL}}<a href="{{.TargetURL}}">{{.TargetURL}}</a>{{else}}URL list{{end}}</p>
<p>Saved to: <code>{{.OutputDir}}</code></p>
<table>
<thead><tr><th>Discovered</th><th>Succeeded</th><th>Failed</th><th>Skipped</th><th>Elapsed</th></tr></thead>
<tbody><tr><td>{{.Discovered}}</td><td>{{.Tally.Succeeded}}</td><td>{{.Tally.Failed}}</td><td>{{.Tally.Skipped}}</td><td>{{.Elapsed}}</td></tr></tbody>
</table>
<h2>Items</h2>
<table>
<thead><tr><th>State</th><th>URL</th><th>File</th><th>Size</th><th>Error</th></tr></thead>
<tbody>
{{- range .Items}}
<tr class="{{.State}}"><td>{{.State}}</td><td><a href="{{.URL}}">{{.URL}}</a></td><td>{{.File}}</td><td>{{bytes .Size}}</td><td>{{.Error}}</td></tr>
{{- end}}
</tbody>
</table>
</body>
</html>
`))

func writeHTML(w io.Writer, run *models.Run) error {
	return htmlTemplate.Execute(w, newRunView(run))
}
