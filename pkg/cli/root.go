// Package cli implements the querypilot command-line client.
package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

const defaultHost = "http://localhost:8000"

// Execute runs the root command and returns the process exit code.
func Execute() int {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		if getOutputFormat(root) == OutputJSON {
			printJSONError(root, err)
		} else {
			_, _ = fmt.Fprintln(root.ErrOrStderr(), "Error:", err)
		}
		return 1
	}
	return 0
}

func printJSONError(root *cobra.Command, err error) {
	payload := map[string]any{"error": err.Error()}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		payload["http_status"] = apiErr.HTTPStatus
	}
	data, _ := json.Marshal(payload)
	_, _ = fmt.Fprintln(root.ErrOrStderr(), string(data))
}

func newRootCmd() *cobra.Command {
	var (
		host    string
		output  string
		profile string
	)

	root := &cobra.Command{
		Use:           "querypilot",
		Short:         "Ask questions of your warehouse in plain language",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return resolveGlobalFlags(cmd, &host, &output, profile)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&host, "host", defaultHost, "querypilot server URL")
	pf.StringVarP(&output, "output", "o", "", "output format: table or json")
	pf.StringVarP(&profile, "profile", "p", "", "configuration profile")

	root.AddCommand(
		newAskCmd(),
		newSchemaCmd(),
		newHistoryCmd(),
		newConfigCmd(),
		newVersionCmd(),
	)
	return root
}

// resolveGlobalFlags applies precedence flag > env > profile > default for
// host and output.
func resolveGlobalFlags(cmd *cobra.Command, host, output *string, profile string) error {
	pf := cmd.Root().PersistentFlags()

	p := Profile{}
	if cfg, err := LoadUserConfig(); err == nil {
		p, err = cfg.ActiveProfile(profile)
		if err != nil {
			return err
		}
	} else if profile != "" {
		return fmt.Errorf("profile %q not found", profile)
	}

	if !flagChanged(pf, "host") {
		switch {
		case os.Getenv("QUERYPILOT_HOST") != "":
			*host = os.Getenv("QUERYPILOT_HOST")
		case p.Host != "":
			*host = p.Host
		}
	}
	normalized, err := normalizeHostURL(*host)
	if err != nil {
		return err
	}
	if err := pf.Set("host", normalized); err != nil {
		return err
	}

	if !flagChanged(pf, "output") {
		switch {
		case os.Getenv("QUERYPILOT_OUTPUT") != "":
			*output = os.Getenv("QUERYPILOT_OUTPUT")
		case p.Output != "":
			*output = p.Output
		default:
			*output = defaultOutputFormat(os.Stdout)
		}
	}
	*output = strings.ToLower(strings.TrimSpace(*output))
	if err := validateOutputFormat(*output); err != nil {
		return err
	}
	return pf.Set("output", *output)
}

func flagChanged(fs *pflag.FlagSet, name string) bool {
	f := fs.Lookup(name)
	return f != nil && f.Changed
}

// clientFromCmd builds a Client for the resolved --host.
func clientFromCmd(cmd *cobra.Command) *Client {
	host, _ := cmd.Root().PersistentFlags().GetString("host")
	return NewClient(host)
}
