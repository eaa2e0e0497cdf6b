package terminal

import (
	"fmt"
	"io"
	"os"
	"text/template"

	"github.com/de-tools/cost-lens/pkg/models/domain"
)

// Reporter prints a one-shot cost report to the console.
type Reporter struct {
	writer io.Writer
}

func NewReporter(writer io.Writer) *Reporter {
	if writer == nil {
		writer = os.Stdout
	}
	return &Reporter{writer: writer}
}

type Report struct {
	Summary    domain.Summary
	Categories []domain.GroupTotal
	Resources  []domain.GroupTotal
	Trend      []domain.TrendPoint
}

func (c *Reporter) Handle(report *Report) error {
	tmpl := `
Cost Report
Total: {{.Summary.Currency}} {{printf "%.2f" .Summary.TotalLocal}} (USD {{printf "%.2f" .Summary.TotalUSD}})
Subscriptions: {{.Summary.SubscriptionCount}}, Categories: {{.Summary.CategoryCount}}
Trend: {{printf "%.1f" .Summary.TrendPercent}}% ({{.Summary.TrendDirection}})

=== By Category ===
{{range .Categories}}
- {{.Label}}: {{printf "%.2f" .Local}}
{{end}}

=== Top Resources ===
{{range .Resources}}
- {{.Label}}: {{printf "%.2f" .Local}}
{{end}}

=== Daily ===
{{range .Trend}}
{{.Day}}: {{printf "%.2f" .Local}}
{{end}}
`
	t, err := template.New("report").Parse(tmpl)
	if err != nil {
		return fmt.Errorf("failed to parse template: %w", err)
	}

	return t.Execute(c.writer, report)
}
