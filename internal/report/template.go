package report

import "html/template"

var reportTemplate = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Investment Report — {{.Company.Name}}</title>
<style>
  body { font-family: Georgia, serif; margin: 3em auto; max-width: 52em; color: #1a1a2e; }
  h1 { border-bottom: 3px solid #16213e; padding-bottom: 0.3em; }
  h2 { color: #16213e; margin-top: 2em; }
  table { border-collapse: collapse; width: 100%; margin: 1em 0; }
  th, td { border: 1px solid #ccc; padding: 0.5em 0.8em; text-align: left; }
  th { background: #f0f0f5; }
  .meta { color: #666; font-size: 0.9em; }
  .label { display: inline-block; padding: 0.2em 0.8em; border-radius: 3px; color: #fff; background: #16213e; }
  .swot { display: grid; grid-template-columns: 1fr 1fr; gap: 1em; }
  .swot div { border: 1px solid #ccc; padding: 0.8em; }
  .swot h3 { margin-top: 0; font-size: 1em; }
</style>
</head>
<body>
<h1>{{.Company.Name}}</h1>
<p class="meta">{{.Company.Industry}} · generated {{.GeneratedAt}}{{if .Author}} · {{.Author}}{{end}}</p>

{{if .Summary}}
<h2>Executive Summary</h2>
<p>{{.Summary}}</p>
{{end}}

{{if .Decision}}
<h2>Decision</h2>
<p>Total score <strong>{{printf "%.1f" .Decision.Total}}</strong> / 100
· <span class="label">{{.Decision.Label}}</span>
{{if .Decision.PenaltyPct}} · risk penalty {{printf "%.0f" .Decision.PenaltyPct}}%{{end}}</p>
<table>
<tr><th>Component</th><th>Score</th><th>Weight</th></tr>
{{range .Decision.Components}}
<tr><td>{{.Name}}</td><td>{{printf "%.1f" .Score}}</td><td>{{printf "%.2f" .Weight}}</td></tr>
{{end}}
</table>
{{if .Decision.Risks}}
<h2>Key Risks</h2>
<ul>{{range .Decision.Risks}}<li>{{.}}</li>{{end}}</ul>
{{end}}
{{end}}

{{if .Tech}}
<h2>Technology</h2>
<p>{{.Tech.Summary}}</p>
<table>
<tr><th>Core technology</th><td>{{.Tech.CoreTechnology}}</td></tr>
<tr><th>Benchmark position</th><td>{{.Tech.SOTAPerformance}}</td></tr>
<tr><th>Reproduction difficulty</th><td>{{.Tech.ReproductionDifficulty}}</td></tr>
<tr><th>IP / patents</th><td>{{.Tech.IPPatentStatus}}</td></tr>
<tr><th>Scalability</th><td>{{.Tech.Scalability}}</td></tr>
</table>
{{end}}

{{if .Market}}
<h2>Market</h2>
<table>
<tr><th>Market size</th><td>{{.Market.MarketSize}}</td></tr>
<tr><th>Growth</th><td>{{.Market.CAGR}}</td></tr>
<tr><th>Problem fit</th><td>{{.Market.ProblemFit}}</td></tr>
<tr><th>Revenue model</th><td>{{.Market.RevenueModel}}</td></tr>
<tr><th>Funding</th><td>{{.Market.Funding}}</td></tr>
</table>
{{end}}

{{if .Competitor}}
{{if .Competitor.Competitors}}
<h2>Competitive Landscape</h2>
<table>
<tr><th>Competitor</th><th>Overlap</th><th>Differentiation</th><th>Moat</th><th>Positioning</th></tr>
{{range .Competitor.Competitors}}
<tr><td>{{.Name}}{{if .Incumbent}} (incumbent){{end}}</td><td>{{printf "%.0f" .Overlap}}</td><td>{{printf "%.0f" .Differentiation}}</td><td>{{printf "%.0f" .Moat}}</td><td>{{.Positioning}}</td></tr>
{{end}}
</table>
{{end}}
<h2>SWOT</h2>
<div class="swot">
<div><h3>Strengths</h3><ul>{{range .Competitor.SWOT.Strengths}}<li>{{.}}</li>{{end}}</ul></div>
<div><h3>Weaknesses</h3><ul>{{range .Competitor.SWOT.Weaknesses}}<li>{{.}}</li>{{end}}</ul></div>
<div><h3>Opportunities</h3><ul>{{range .Competitor.SWOT.Opportunities}}<li>{{.}}</li>{{end}}</ul></div>
<div><h3>Threats</h3><ul>{{range .Competitor.SWOT.Threats}}<li>{{.}}</li>{{end}}</ul></div>
</div>
{{end}}

</body>
</html>
`))
