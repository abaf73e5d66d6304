package ui

import (
	"fmt"
	"math"
	"slices"
	"strings"

	gomponents "maragu.dev/gomponents"
	data "maragu.dev/gomponents-datastar"
	html "maragu.dev/gomponents/html"

	"querypilot/internal/domain"
)

// askMaxRows caps the rendered result table.
const askMaxRows = 500

type askPageData struct {
	State    *domain.CatalogState
	Prompt   string
	Response *domain.Response
	Error    string
}

func askPage(d askPageData, csrf gomponents.Node) gomponents.Node {
	form := html.Div(
		html.Class("card"),
		html.H1(gomponents.Text("Ask a question")),
		html.Form(
			html.Method("post"),
			html.Action("/ui/ask"),
			csrf,
			html.Textarea(
				html.Name("prompt"),
				html.Required(),
				html.Placeholder("e.g. Monthly revenue for 2023, forecast the next 3 months"),
				gomponents.Text(d.Prompt),
			),
			html.Button(html.Type("submit"), gomponents.Text("Ask")),
		),
		gomponents.If(d.Error != "", html.P(html.Class("error"), gomponents.Text(d.Error))),
	)

	return appPage("Ask",
		schemaSidebar(d.State),
		html.Div(form, responseNodes(d.Response)),
	)
}

func schemaSidebar(st *domain.CatalogState) gomponents.Node {
	if st == nil || st.Snapshot == nil {
		return html.Aside(html.Class("card"), html.P(html.Class("muted"), gomponents.Text("Schema not loaded.")))
	}
	items := make([]gomponents.Node, 0, len(st.Snapshot.Tables))
	for _, t := range st.Snapshot.Tables {
		items = append(items, html.Li(
			html.Strong(gomponents.Text(t)),
			html.Div(html.Class("muted"), gomponents.Text(strings.Join(st.Snapshot.Columns[t], ", "))),
		))
	}
	return html.Aside(
		html.Class("card"),
		html.H2(gomponents.Text("Schema")),
		html.P(html.Class("muted"), gomponents.Text(fmt.Sprintf("%d tables, %d relationships. Loaded %s.",
			len(st.Snapshot.Tables), len(st.Snapshot.Relationships), formatTime(st.LoadedAt)))),
		html.Ul(gomponents.Group(items)),
	)
}

func responseNodes(resp *domain.Response) gomponents.Node {
	if resp == nil {
		return html.P(html.Class("muted"), gomponents.Text("Ask a question to see results."))
	}

	msgClass := "muted"
	if resp.Message != domain.MessageSuccess {
		msgClass = "error"
	}
	nodes := []gomponents.Node{
		html.Div(
			html.Class("card"),
			html.P(html.Class(msgClass), gomponents.Text(resp.Message)),
			html.P(html.Class("muted"), gomponents.Text("Intent: "+string(resp.Intent))),
			gomponents.If(resp.Query != nil, html.Pre(html.Code(gomponents.Text(deref(resp.Query))))),
		),
	}
	if resp.Summary != nil {
		nodes = append(nodes, html.Div(
			html.Class("card"),
			html.H2(gomponents.Text("Summary")),
			html.P(gomponents.Text(*resp.Summary)),
		))
	}
	if resp.Chart != nil && resp.Chart.Type != domain.ChartTable && len(resp.Chart.Datasets) > 0 {
		nodes = append(nodes, chartCard(resp.Chart))
	}
	if resp.Forecast != nil {
		nodes = append(nodes, forecastCard(resp.Forecast))
	}
	if resp.Data != nil {
		nodes = append(nodes, resultCard(resp.Data, resp.Chart))
	}
	return gomponents.Group(nodes)
}

// chartCard renders the series as a labelled bar list.
func chartCard(c *domain.ChartConfig) gomponents.Node {
	ds := c.Datasets[0]
	peak := 0.0
	for _, v := range ds.Data {
		peak = math.Max(peak, math.Abs(v))
	}
	rows := make([]gomponents.Node, 0, len(c.Labels))
	for i, label := range c.Labels {
		if i >= len(ds.Data) {
			break
		}
		width := 0.0
		if peak > 0 {
			width = math.Abs(ds.Data[i]) / peak * 100
		}
		rows = append(rows, html.Tr(
			html.Td(gomponents.Text(label)),
			html.Td(gomponents.Text(cellString(ds.Data[i]))),
			html.Td(html.Span(html.Class("bar"), html.Style(fmt.Sprintf("width:%.1f%%", width)))),
		))
	}
	return html.Div(
		html.Class("card"),
		html.H2(gomponents.Text(fmt.Sprintf("Chart (%s): %s", c.Type, ds.Name))),
		html.Table(html.TBody(gomponents.Group(rows))),
	)
}

func forecastCard(f *domain.ForecastResult) gomponents.Node {
	if f.IsNote() {
		return html.Div(
			html.Class("card"),
			html.H2(gomponents.Text("Forecast")),
			html.P(html.Class("muted"), gomponents.Text(f.Note)),
		)
	}
	rows := make([]gomponents.Node, 0, len(f.Points))
	for _, p := range f.Points {
		rows = append(rows, html.Tr(html.Td(gomponents.Text(p.Period)), html.Td(gomponents.Text(cellString(p.Value)))))
	}
	return html.Div(
		html.Class("card"),
		html.H2(gomponents.Text(fmt.Sprintf("Forecast: %s over %s, next %d periods", f.ValueCol, f.TimeCol, f.Horizon))),
		html.Table(
			html.THead(html.Tr(html.Th(gomponents.Text("Period")), html.Th(gomponents.Text("Forecast")))),
			html.TBody(gomponents.Group(rows)),
		),
	)
}

func resultCard(rows []domain.Row, c *domain.ChartConfig) gomponents.Node {
	if len(rows) == 0 {
		return html.Div(html.Class("card"), html.P(html.Class("muted"), gomponents.Text(domain.MessageNoRows)))
	}
	columns := resultColumns(rows, c)

	header := make([]gomponents.Node, 0, len(columns))
	for _, col := range columns {
		header = append(header, html.Th(gomponents.Text(col)))
	}

	shown := rows
	if len(shown) > askMaxRows {
		shown = shown[:askMaxRows]
	}
	body := make([]gomponents.Node, 0, len(shown))
	for _, row := range shown {
		cells := make([]gomponents.Node, 0, len(columns))
		texts := make([]string, 0, len(columns))
		for _, col := range columns {
			s := cellString(row[col])
			texts = append(texts, s)
			cells = append(cells, html.Td(gomponents.Text(s)))
		}
		body = append(body, html.Tr(data.Show(containsExpr(strings.Join(texts, " "))), gomponents.Group(cells)))
	}

	meta := fmt.Sprintf("%d row(s)", len(rows))
	if len(rows) > len(shown) {
		meta = fmt.Sprintf("%d row(s), showing first %d", len(rows), len(shown))
	}
	return html.Div(
		html.Class("card table-wrap"),
		html.H2(gomponents.Text("Results")),
		html.P(html.Class("muted"), gomponents.Text(meta)),
		filterInput("Filter rows"),
		html.Table(
			html.THead(html.Tr(gomponents.Group(header))),
			html.TBody(gomponents.Group(body)),
		),
	)
}

// resultColumns prefers the projection order carried by a table chart and
// falls back to the sorted keys of the first row.
func resultColumns(rows []domain.Row, c *domain.ChartConfig) []string {
	if c != nil && len(c.Columns) > 0 {
		return c.Columns
	}
	cols := make([]string, 0, len(rows[0]))
	for k := range rows[0] {
		cols = append(cols, k)
	}
	slices.Sort(cols)
	return cols
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
