package cli

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolateHome points HOME at a temp dir and clears CLI env overrides.
func isolateHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("QUERYPILOT_HOST", "")
	t.Setenv("QUERYPILOT_OUTPUT", "")
	return home
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestAsk_Table(t *testing.T) {
	isolateHome(t)
	var gotPrompt string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/query" || r.Method != http.MethodPost {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		gotPrompt = body["prompt"]
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"intent":"table","query":"SELECT CategoryName, Total FROM t","message":"Query executed successfully.",
			"data":[{"CategoryName":"Beverages","Total":267868.18},{"CategoryName":"Condiments","Total":106047}],
			"chart":{"type":"table","columns":["CategoryName","Total"]},
			"summary":"Beverages lead.","forecast":null}`))
	}))
	defer srv.Close()

	out, err := runCLI(t, "--host", srv.URL, "-o", "table", "ask", "sales", "by", "category")
	require.NoError(t, err)

	assert.Equal(t, "sales by category", gotPrompt)
	assert.Contains(t, out, "Query executed successfully.")
	assert.Contains(t, out, "SQL:    SELECT CategoryName, Total FROM t")
	assert.Contains(t, out, "Beverages lead.")
	assert.Contains(t, out, "CATEGORYNAME")
	assert.Contains(t, out, "267868.18")
	assert.Contains(t, out, "106047")
}

func TestAsk_JSONPassthrough(t *testing.T) {
	isolateHome(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"intent":"","query":null,"data":[],"chart":null,"summary":null,"forecast":null,"message":"Could not generate a valid query plan."}`))
	}))
	defer srv.Close()

	out, err := runCLI(t, "--host", srv.URL, "-o", "json", "ask", "hello")
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	assert.Nil(t, decoded["query"])
	assert.Equal(t, "Could not generate a valid query plan.", decoded["message"])
}

func TestAsk_APIError(t *testing.T) {
	isolateHome(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"code":400,"message":"prompt is required"}`))
	}))
	defer srv.Close()

	_, err := runCLI(t, "--host", srv.URL, "-o", "json", "ask", " ")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "question must not be empty")

	_, err = runCLI(t, "--host", srv.URL, "-o", "json", "ask", "x")
	require.Error(t, err)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.HTTPStatus)
	assert.Equal(t, "prompt is required", apiErr.Message)
	assert.Equal(t, "API error (HTTP 400): prompt is required", apiErr.Error())
}

func TestSchemaCommands(t *testing.T) {
	isolateHome(t)
	var joinQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/v1/schema" && r.Method == http.MethodGet,
			r.URL.Path == "/v1/schema/reload" && r.Method == http.MethodPost:
			_, _ = w.Write([]byte(`{
				"schema_text":"Orders(OrderID, CustomerID, OrderDate)\nCustomers(CustomerID)",
				"tables":["Orders","Customers"],
				"columns":{"Orders":["OrderID","CustomerID","OrderDate"],"Customers":["CustomerID"]},
				"relationships":[{"from_table":"Orders","from_col":"CustomerID","to_table":"Customers","to_col":"CustomerID"}],
				"date_ranges":{"Orders":{"OrderDate":{"min":"1996-07-04","max":"1998-05-06"}}},
				"loaded_at":"2026-01-02T03:04:05Z"}`))
		case r.URL.Path == "/v1/schema/join-path":
			joinQuery = r.URL.Query().Get("tables")
			_, _ = w.Write([]byte(`{"tables":["Orders","Customers"],"path":[],"joins":["Orders.CustomerID = Customers.CustomerID"]}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	out, err := runCLI(t, "--host", srv.URL, "-o", "table", "schema", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "OrderDate 1996-07-04..1998-05-06")
	assert.Contains(t, out, "Orders.CustomerID = Customers.CustomerID")
	assert.Contains(t, out, "Loaded 2026-01-02T03:04:05Z")

	out, err = runCLI(t, "--host", srv.URL, "-o", "table", "schema", "show", "--text")
	require.NoError(t, err)
	assert.Contains(t, out, "Customers(CustomerID)")

	out, err = runCLI(t, "--host", srv.URL, "-o", "table", "schema", "reload")
	require.NoError(t, err)
	assert.Contains(t, out, "Customers")

	out, err = runCLI(t, "--host", srv.URL, "-o", "table", "schema", "path", "Orders", "Customers")
	require.NoError(t, err)
	assert.Equal(t, "Orders,Customers", joinQuery)
	assert.Equal(t, "Orders.CustomerID = Customers.CustomerID\n", out)

	_, err = runCLI(t, "--host", srv.URL, "schema", "path", "Orders")
	require.Error(t, err)
}

func TestHistoryCommand(t *testing.T) {
	isolateHome(t)
	var gotLimit, gotToken string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotLimit = r.URL.Query().Get("limit")
		gotToken = r.URL.Query().Get("page_token")
		_, _ = w.Write([]byte(`{"entries":[{"id":7,"prompt":"orders per month","intent":"line","sql":"SELECT 1","status":"SUCCESS","row_count":8,"message":"ok","duration_ms":12,"created_at":"2026-01-02T03:04:05Z"}],"total":3,"next_page_token":"MQ"}`))
	}))
	defer srv.Close()

	out, err := runCLI(t, "--host", srv.URL, "-o", "table", "history", "--limit", "1", "--page-token", "MA")
	require.NoError(t, err)
	assert.Equal(t, "1", gotLimit)
	assert.Equal(t, "MA", gotToken)
	assert.Contains(t, out, "SUCCESS")
	assert.Contains(t, out, "orders per month")
	assert.Contains(t, out, "--page-token MQ")
}

func TestConfigProfiles(t *testing.T) {
	home := isolateHome(t)

	out, err := runCLI(t, "-o", "table", "config", "set-profile", "staging",
		"--profile-host", "https://qp.staging.example", "--profile-output", "json")
	require.NoError(t, err)
	assert.Contains(t, out, `Profile "staging" saved.`)
	assert.FileExists(t, filepath.Join(home, ".querypilot", "config.yaml"))

	_, err = runCLI(t, "-o", "table", "config", "use-profile", "missing")
	require.Error(t, err)

	_, err = runCLI(t, "-o", "table", "config", "use-profile", "staging")
	require.NoError(t, err)

	out, err = runCLI(t, "-o", "table", "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "PROFILE")
	assert.Contains(t, out, "https://qp.staging.example")
	assert.Contains(t, out, "*")

	cfg, err := LoadUserConfig()
	require.NoError(t, err)
	assert.Equal(t, "staging", cfg.CurrentProfile)
	assert.Equal(t, Profile{Host: "https://qp.staging.example", Output: "json"}, cfg.Profiles["staging"])

	_, err = runCLI(t, "config", "set-profile", "bad", "--profile-host", "ftp://x")
	require.Error(t, err)
}

func TestGlobalFlagPrecedence(t *testing.T) {
	isolateHome(t)
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte(`{"entries":[],"total":0}`))
	}))
	defer srv.Close()

	require.NoError(t, SaveUserConfig(&UserConfig{
		CurrentProfile: "local",
		Profiles:       map[string]Profile{"local": {Host: srv.URL, Output: "json"}},
	}))

	// Profile supplies host and output.
	out, err := runCLI(t, "history")
	require.NoError(t, err)
	assert.Equal(t, int32(1), hits.Load())
	assert.Contains(t, out, `"total": 0`)

	// Env beats profile.
	t.Setenv("QUERYPILOT_OUTPUT", "table")
	out, err = runCLI(t, "history")
	require.NoError(t, err)
	assert.Contains(t, out, "PROMPT")

	// Flag beats env.
	out, err = runCLI(t, "-o", "json", "history")
	require.NoError(t, err)
	assert.Contains(t, out, `"entries": []`)

	_, err = runCLI(t, "-o", "xml", "history")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported output format")

	_, err = runCLI(t, "--host", "localhost:8000", "history")
	require.Error(t, err)

	_, err = runCLI(t, "-p", "nope", "history")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `profile "nope" not found`)
}

func TestVersionCommand(t *testing.T) {
	isolateHome(t)
	out, err := runCLI(t, "-o", "json", "version")
	require.NoError(t, err)
	assert.Contains(t, out, `"version"`)
}

func TestLoadUserConfig_Missing(t *testing.T) {
	isolateHome(t)
	_, err := LoadUserConfig()
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)

	cfg, err := loadOrDefaultConfig()
	require.NoError(t, err)
	assert.Equal(t, "default", cfg.CurrentProfile)
}
