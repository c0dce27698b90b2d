package webui

const pageTemplate = `<!doctype html>
<html>
<head>
<meta charset="utf-8">
<title>tablescope</title>
<style>
body { font-family: sans-serif; margin: 1.5rem; max-width: 72rem; }
table { border-collapse: collapse; margin: 0.5rem 0; }
th, td { border: 1px solid #999; padding: 2px 8px; }
pre { background: #f4f4f4; padding: 0.75rem; overflow-x: auto; }
.notice { color: #a00; }
</style>
</head>
<body>
<h1>tablescope</h1>
{{if .Notice}}<p class="notice">{{.Notice}}</p>{{end}}

<form method="post" action="/upload" enctype="multipart/form-data">
  <input type="file" name="file" accept=".pdf" required>
  <label><input type="checkbox" name="use_llm" value="1"> use LLM cleanup</label>
  <button type="submit">Upload</button>
</form>

<h2>History</h2>
{{if .History}}
<table id="history">
<tr><th>File</th><th>Created</th><th>Tables</th><th>LLM</th><th></th></tr>
{{range .History}}
<tr>
  <td>{{.Filename}}</td>
  <td>{{.CreatedAt}}</td>
  <td>{{.TableCount}}</td>
  <td>{{if .UseLLM}}yes{{else}}no{{end}}</td>
  <td><a href="/?id={{.ID}}">View</a> <a href="/download/{{.ID}}.json">Download</a></td>
</tr>
{{end}}
</table>
{{else}}
<p>No extractions yet.</p>
{{end}}

{{if .ResultID}}
<h2>Result {{.ResultID}}{{if .Filename}} · {{.Filename}}{{end}}</h2>
<form method="get" action="/">
  <input type="hidden" name="id" value="{{.ResultID}}">
  <label>Page
    <select name="page">
      <option value="0">All Pages</option>
      {{range .Pages}}<option value="{{.}}" {{if eq . $.Filter.Page}}selected{{end}}>Page {{.}}</option>{{end}}
    </select>
  </label>
  <label>Table
    <select name="table_index">
      <option value="-1">All Tables</option>
      {{range .TableIndices}}<option value="{{.}}" {{if eq . $.Filter.TableIndex}}selected{{end}}>Table {{.}}</option>{{end}}
    </select>
  </label>
  <label>Search <input type="text" name="q" value="{{.Filter.Query}}"></label>
  <label>Mode
    <select name="mode">
      <option value="pretty" {{if eq .Mode "pretty"}}selected{{end}}>pretty</option>
      <option value="compact" {{if eq .Mode "compact"}}selected{{end}}>compact</option>
    </select>
  </label>
  <button type="submit">Apply</button>
</form>

<p>
  {{if .CSVHref}}<a href="{{.CSVHref}}">Export table CSV</a>{{else}}<em>select a page and table to export CSV</em>{{end}}
  · <a href="{{.ZipHref}}">Export all (ZIP)</a>
</p>

<div id="tables">
{{.Tables}}
</div>

<h3>Raw ({{.Mode}})</h3>
<pre id="raw">{{.Text}}</pre>
{{end}}
</body>
</html>
`
