package ui

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	gomponents "maragu.dev/gomponents"
	data "maragu.dev/gomponents-datastar"
	html "maragu.dev/gomponents/html"
)

const stylesheet = `
body{font-family:system-ui,sans-serif;margin:0;background:#f6f7f9;color:#1c1f24}
.layout{max-width:1200px;margin:0 auto;padding:1.5rem;display:grid;grid-template-columns:260px 1fr;gap:1.5rem}
.card{background:#fff;border:1px solid #dde1e6;border-radius:6px;padding:1rem;margin-bottom:1rem}
.muted{color:#6a7280}
.error{color:#b42318}
textarea{width:100%;min-height:5rem;font:inherit}
table{border-collapse:collapse;width:100%}
th,td{border-bottom:1px solid #eceef1;padding:.3rem .5rem;text-align:left;font-size:.9rem}
pre{white-space:pre-wrap;background:#f0f2f5;padding:.5rem;border-radius:4px}
.bar{display:inline-block;height:.8rem;background:#3b82f6;border-radius:2px}
.table-wrap{overflow-x:auto}
`

func appPage(title string, body ...gomponents.Node) gomponents.Node {
	return html.Doctype(html.HTML(
		html.Lang("en"),
		html.Head(
			html.Meta(html.Charset("utf-8")),
			html.Meta(html.Name("viewport"), html.Content("width=device-width, initial-scale=1")),
			html.TitleEl(gomponents.Text(title+" | querypilot")),
			html.StyleEl(gomponents.Raw(stylesheet)),
			html.Script(
				html.Type("module"),
				html.Src("https://cdn.jsdelivr.net/gh/starfederation/datastar@1.0.0-RC.6/bundles/datastar.js"),
			),
		),
		html.Body(
			html.Main(html.Class("layout"), gomponents.Group(body)),
		),
	))
}

func errorPage(title, message string) gomponents.Node {
	return appPage(title,
		html.Div(),
		html.Div(
			html.Class("card"),
			html.H1(gomponents.Text(title)),
			html.P(gomponents.Text(message)),
			html.P(html.A(html.Href("/ui"), gomponents.Text("Back"))),
		),
	)
}

func formatTime(ts time.Time) string {
	if ts.IsZero() {
		return "-"
	}
	return ts.Format(time.RFC3339)
}

// cellString renders a scalar result value.
func cellString(v any) string {
	switch x := v.(type) {
	case nil:
		return "NULL"
	case string:
		return x
	case float64:
		if x == math.Trunc(x) && math.Abs(x) < 1e15 {
			return strconv.FormatFloat(x, 'f', 0, 64)
		}
		return strconv.FormatFloat(x, 'f', 2, 64)
	default:
		return fmt.Sprint(x)
	}
}

func containsExpr(value string) string {
	lower := strings.ToLower(value)
	return "$q === '' || " + strconv.Quote(lower) + ".includes($q.toLowerCase())"
}

func filterInput(placeholder string) gomponents.Node {
	return html.Div(
		data.Signals(map[string]any{"q": ""}),
		html.Label(gomponents.Text("Quick filter ")),
		html.Input(html.Type("text"), html.Placeholder(placeholder), data.Bind("q")),
	)
}
