package cli

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"querypilot/internal/domain"
)

type historyView struct {
	Entries       []domain.QueryHistoryEntry `json:"entries"`
	Total         int64                      `json:"total"`
	NextPageToken string                     `json:"next_page_token,omitempty"`
}

func newHistoryCmd() *cobra.Command {
	var (
		limit     int
		pageToken string
	)
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recently asked questions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			q := url.Values{}
			if limit > 0 {
				q.Set("limit", strconv.Itoa(limit))
			}
			if pageToken != "" {
				q.Set("page_token", pageToken)
			}
			var v historyView
			raw, err := clientFromCmd(cmd).call(cmd.Context(), http.MethodGet, "/v1/history", q, nil, &v)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if getOutputFormat(cmd) == OutputJSON {
				return printRawJSON(w, raw)
			}
			rows := make([][]string, 0, len(v.Entries))
			for _, e := range v.Entries {
				rowCount := ""
				if e.RowCount != nil {
					rowCount = strconv.FormatInt(*e.RowCount, 10)
				}
				rows = append(rows, []string{
					strconv.FormatInt(e.ID, 10),
					e.CreatedAt.Local().Format(time.DateTime),
					e.Status,
					e.Intent,
					rowCount,
					e.Prompt,
				})
			}
			PrintTable(w, []string{"id", "time", "status", "intent", "rows", "prompt"}, rows)
			if v.NextPageToken != "" {
				_, _ = fmt.Fprintf(w, "\nNext page: --page-token %s\n", v.NextPageToken)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum entries to return")
	cmd.Flags().StringVar(&pageToken, "page-token", "", "token from a previous page")
	return cmd
}
