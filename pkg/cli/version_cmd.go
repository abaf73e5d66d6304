package cli

import (
	"fmt"
	"runtime/debug"

	"github.com/spf13/cobra"
)

// Version is set at build time with -ldflags "-X querypilot/pkg/cli.Version=...".
var Version = "dev"

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the CLI version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			v := Version
			if v == "dev" {
				if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
					v = info.Main.Version
				}
			}
			if getOutputFormat(cmd) == OutputJSON {
				return PrintJSON(cmd.OutOrStdout(), map[string]string{"version": v})
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "querypilot", v)
			return nil
		},
	}
}
