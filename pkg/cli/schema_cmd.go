package cli

import (
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"querypilot/internal/domain"
)

type schemaView struct {
	SchemaText    string                `json:"schema_text"`
	Tables        []string              `json:"tables"`
	Columns       map[string][]string   `json:"columns"`
	Relationships []domain.Relationship `json:"relationships"`
	DateRanges    domain.DateRanges     `json:"date_ranges"`
	LoadedAt      time.Time             `json:"loaded_at"`
}

type joinPathView struct {
	Tables []string              `json:"tables"`
	Path   []domain.Relationship `json:"path"`
	Joins  []string              `json:"joins"`
}

func newSchemaCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Inspect the warehouse schema catalog",
	}
	cmd.AddCommand(newSchemaShowCmd(), newSchemaReloadCmd(), newSchemaPathCmd())
	return cmd
}

func newSchemaShowCmd() *cobra.Command {
	var text bool
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show tables, columns and relationships",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var v schemaView
			raw, err := clientFromCmd(cmd).call(cmd.Context(), http.MethodGet, "/v1/schema", nil, nil, &v)
			if err != nil {
				return err
			}
			return printSchema(cmd, raw, &v, text)
		},
	}
	cmd.Flags().BoolVar(&text, "text", false, "print the schema text given to the model")
	return cmd
}

func newSchemaReloadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reload",
		Short: "Rebuild the schema catalog from the warehouse",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var v schemaView
			raw, err := clientFromCmd(cmd).call(cmd.Context(), http.MethodPost, "/v1/schema/reload", nil, nil, &v)
			if err != nil {
				return err
			}
			return printSchema(cmd, raw, &v, false)
		},
	}
}

func newSchemaPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path <table> <table> [table...]",
		Short: "Show the foreign-key join path connecting tables",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			q := url.Values{"tables": {strings.Join(args, ",")}}
			var v joinPathView
			raw, err := clientFromCmd(cmd).call(cmd.Context(), http.MethodGet, "/v1/schema/join-path", q, nil, &v)
			if err != nil {
				return err
			}
			if getOutputFormat(cmd) == OutputJSON {
				return printRawJSON(cmd.OutOrStdout(), raw)
			}
			w := cmd.OutOrStdout()
			if len(v.Joins) == 0 {
				_, _ = fmt.Fprintln(w, "No joins needed.")
				return nil
			}
			for _, j := range v.Joins {
				_, _ = fmt.Fprintln(w, j)
			}
			return nil
		},
	}
}

func printSchema(cmd *cobra.Command, raw []byte, v *schemaView, text bool) error {
	w := cmd.OutOrStdout()
	if getOutputFormat(cmd) == OutputJSON {
		return printRawJSON(w, raw)
	}
	if text {
		_, _ = fmt.Fprintln(w, v.SchemaText)
		return nil
	}

	rows := make([][]string, 0, len(v.Tables))
	for _, t := range v.Tables {
		rows = append(rows, []string{t, strconv.Itoa(len(v.Columns[t])), dateRangeSummary(v.DateRanges[t])})
	}
	PrintTable(w, []string{"table", "columns", "date ranges"}, rows)

	if len(v.Relationships) > 0 {
		_, _ = fmt.Fprintln(w)
		rels := make([][]string, 0, len(v.Relationships))
		for _, r := range v.Relationships {
			rels = append(rels, []string{r.String()})
		}
		PrintTable(w, []string{"relationship"}, rels)
	}
	if !v.LoadedAt.IsZero() {
		_, _ = fmt.Fprintf(w, "\nLoaded %s\n", v.LoadedAt.Format(time.RFC3339))
	}
	return nil
}

func dateRangeSummary(ranges map[string]domain.DateRange) string {
	if len(ranges) == 0 {
		return ""
	}
	cols := make([]string, 0, len(ranges))
	for c := range ranges {
		cols = append(cols, c)
	}
	sort.Strings(cols)
	parts := make([]string, 0, len(cols))
	for _, c := range cols {
		r := ranges[c]
		parts = append(parts, fmt.Sprintf("%s %s..%s", c, r.Min, r.Max))
	}
	return strings.Join(parts, "; ")
}
