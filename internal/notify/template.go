// Package notify builds and sends the daily report email. The body is
// an HTML summary table of every station's pass statistics with the
// rolling empty-ratio chart inlined as an image.
package notify

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	"github.com/lorett/groundlink/internal/pass"
)

// ChartCID is the Content-ID the report template references for the
// inlined empty-ratio chart.
const ChartCID = "empty_ratio_7d"

const bodyTemplate = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<style>
  body { font-family: Arial, sans-serif; color: #1f2937; }
  h2 { margin-bottom: 4px; }
  table { border-collapse: collapse; margin: 12px 0; }
  th, td { border: 1px solid #d1d5db; padding: 6px 12px; text-align: left; }
  td.number, th.number { text-align: right; }
  tr.row-good { background-color: #dcfce7; }
  tr.row-warning { background-color: #fef3c7; }
  tr.row-error { background-color: #fee2e2; }
  tr.total-row { font-weight: bold; }
  .chart { margin-top: 16px; }
</style>
</head>
<body>
<h2>Reception report {{.Date}}</h2>

<table>
  <thead>
    <tr>
      <th>Station</th>
      <th class="number">Passes</th>
      <th class="number">Valid</th>
      <th class="number">Empty</th>
      <th class="number">Empty %</th>
    </tr>
  </thead>
  <tbody>
{{- range .Stations}}
    <tr class="{{.Class}}">
      <td>{{.Station}}{{if .Err}} (failed: {{.Err}}){{end}}</td>
      <td class="number">{{.Total}}</td>
      <td class="number">{{.Valid}}</td>
      <td class="number">{{.Empty}}</td>
      <td class="number">{{.Percent}}</td>
    </tr>
{{- end}}
    <tr class="total-row">
      <td>Total</td>
      <td class="number">{{.Overall.Total}}</td>
      <td class="number">{{.Overall.Valid}}</td>
      <td class="number">{{.Overall.Empty}}</td>
      <td class="number">{{.Overall.Percent}}</td>
    </tr>
  </tbody>
</table>

{{- if .Commercial}}
<h3>Commercial satellites</h3>
<table>
  <thead>
    <tr>
      <th>Station</th>
      <th class="number">Passes</th>
      <th class="number">Valid</th>
      <th class="number">Empty</th>
      <th class="number">Empty %</th>
    </tr>
  </thead>
  <tbody>
{{- range .Commercial}}
    <tr class="{{.Class}}">
      <td>{{.Station}}</td>
      <td class="number">{{.Total}}</td>
      <td class="number">{{.Valid}}</td>
      <td class="number">{{.Empty}}</td>
      <td class="number">{{.Percent}}</td>
    </tr>
{{- end}}
  </tbody>
</table>
{{- end}}

{{- if .HasChart}}
<div class="chart">
  <img src="cid:{{.ChartCID}}" alt="Empty passes, last 7 days" width="650">
</div>
{{- end}}
</body>
</html>
`

var reportTmpl = template.Must(template.New("report").Parse(bodyTemplate))

type tableRow struct {
	Station string
	Err     string
	Total   int
	Valid   int
	Empty   int
	Percent string
	Class   string
}

type bodyData struct {
	Date       string
	Stations   []tableRow
	Overall    tableRow
	Commercial []tableRow
	HasChart   bool
	ChartCID   string
}

// rowClass maps a station's day to the row highlight used in the
// summary table. A station with no passes at all is treated as an
// outage.
func rowClass(total int, emptyPercent float64) string {
	switch {
	case total == 0:
		return "row-error"
	case emptyPercent <= 5:
		return "row-good"
	case emptyPercent <= 25:
		return "row-warning"
	default:
		return "row-error"
	}
}

func newRow(station, errMsg string, r pass.Rollup) tableRow {
	percent := r.EmptyRatio * 100
	return tableRow{
		Station: station,
		Err:     errMsg,
		Total:   r.TotalPasses,
		Valid:   r.TotalPasses - r.EmptyPasses,
		Empty:   r.EmptyPasses,
		Percent: fmt.Sprintf("%.1f%%", percent),
		Class:   rowClass(r.TotalPasses, percent),
	}
}

// BuildBody renders the HTML report body. withChart controls whether
// the body references the inline chart image.
func BuildBody(report *pass.Report, withChart bool) (string, error) {
	data := bodyData{
		Date:     report.Date.Format(time.DateOnly),
		Overall:  newRow("Total", "", report.Overall),
		HasChart: withChart,
		ChartCID: ChartCID,
	}

	for _, st := range report.Stations {
		data.Stations = append(data.Stations, newRow(st.Station, st.Err, st.Rollup))

		if st.CommercialRollup.TotalPasses > 0 {
			data.Commercial = append(data.Commercial, newRow(st.Station, "", st.CommercialRollup))
		}
	}

	var buf bytes.Buffer
	if err := reportTmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("rendering report body: %w", err)
	}
	return buf.String(), nil
}
