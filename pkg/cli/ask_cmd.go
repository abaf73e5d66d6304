package cli

import (
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"querypilot/internal/domain"
)

func newAskCmd() *cobra.Command {
	var maxRows int
	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Ask a question in plain language",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			prompt := strings.TrimSpace(strings.Join(args, " "))
			if prompt == "" {
				return fmt.Errorf("question must not be empty")
			}
			var resp domain.Response
			raw, err := clientFromCmd(cmd).call(cmd.Context(), http.MethodPost, "/v1/query", nil,
				map[string]string{"prompt": prompt}, &resp)
			if err != nil {
				return err
			}
			if getOutputFormat(cmd) == OutputJSON {
				return printRawJSON(cmd.OutOrStdout(), raw)
			}
			printResponse(cmd.OutOrStdout(), &resp, maxRows)
			return nil
		},
	}
	cmd.Flags().IntVar(&maxRows, "max-rows", 20, "rows to print in table output (0 for all)")
	return cmd
}

func printResponse(w io.Writer, resp *domain.Response, maxRows int) {
	_, _ = fmt.Fprintln(w, resp.Message)
	if resp.Intent != "" {
		_, _ = fmt.Fprintf(w, "Intent: %s\n", resp.Intent)
	}
	if resp.Query != nil {
		_, _ = fmt.Fprintf(w, "SQL:    %s\n", *resp.Query)
	}
	if resp.Summary != nil {
		_, _ = fmt.Fprintf(w, "\n%s\n", *resp.Summary)
	}
	if len(resp.Data) > 0 {
		_, _ = fmt.Fprintln(w)
		cols := responseColumns(resp)
		rows := resp.Data
		if maxRows > 0 && len(rows) > maxRows {
			rows = rows[:maxRows]
		}
		table := make([][]string, 0, len(rows))
		for _, r := range rows {
			line := make([]string, len(cols))
			for i, c := range cols {
				line[i] = formatValue(r[c])
			}
			table = append(table, line)
		}
		PrintTable(w, cols, table)
		if len(rows) < len(resp.Data) {
			_, _ = fmt.Fprintf(w, "... %d more rows\n", len(resp.Data)-len(rows))
		}
	}
	if f := resp.Forecast; f != nil {
		_, _ = fmt.Fprintln(w)
		if len(f.Points) == 0 {
			_, _ = fmt.Fprintf(w, "Forecast: %s\n", f.Note)
			return
		}
		_, _ = fmt.Fprintf(w, "Forecast of %s over %s (%d periods)\n", f.ValueCol, f.TimeCol, f.Horizon)
		table := make([][]string, 0, len(f.Points))
		for _, p := range f.Points {
			table = append(table, []string{p.Period, formatValue(p.Value)})
		}
		PrintTable(w, []string{"period", "forecast"}, table)
	}
}

// responseColumns prefers the chart's column order, falling back to sorted
// keys of the first row.
func responseColumns(resp *domain.Response) []string {
	if resp.Chart != nil && len(resp.Chart.Columns) > 0 {
		return resp.Chart.Columns
	}
	cols := make([]string, 0, len(resp.Data[0]))
	for k := range resp.Data[0] {
		cols = append(cols, k)
	}
	sort.Strings(cols)
	return cols
}
