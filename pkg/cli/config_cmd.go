package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"sort"

	"github.com/spf13/cobra"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage CLI profiles",
	}
	cmd.AddCommand(newConfigShowCmd(), newConfigSetProfileCmd(), newConfigUseProfileCmd())
	return cmd
}

// loadOrDefaultConfig returns the saved config, or a fresh one when the file
// does not exist yet.
func loadOrDefaultConfig() (*UserConfig, error) {
	cfg, err := LoadUserConfig()
	if err == nil {
		return cfg, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return defaultUserConfig(), nil
	}
	return nil, err
}

func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "List configured profiles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadOrDefaultConfig()
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if getOutputFormat(cmd) == OutputJSON {
				return PrintJSON(w, cfg)
			}
			names := make([]string, 0, len(cfg.Profiles))
			for n := range cfg.Profiles {
				names = append(names, n)
			}
			sort.Strings(names)
			rows := make([][]string, 0, len(names))
			for _, n := range names {
				active := ""
				if n == cfg.CurrentProfile {
					active = "*"
				}
				p := cfg.Profiles[n]
				rows = append(rows, []string{n, active, p.Host, p.Output})
			}
			PrintTable(w, []string{"profile", "active", "host", "output"}, rows)
			return nil
		},
	}
}

func newConfigSetProfileCmd() *cobra.Command {
	var host, output string
	cmd := &cobra.Command{
		Use:   "set-profile <name>",
		Short: "Create or update a profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if host != "" {
				normalized, err := normalizeHostURL(host)
				if err != nil {
					return err
				}
				host = normalized
			}
			if err := validateOutputFormat(output); err != nil {
				return err
			}
			cfg, err := loadOrDefaultConfig()
			if err != nil {
				return err
			}
			p := cfg.Profiles[args[0]]
			if cmd.Flags().Changed("profile-host") {
				p.Host = host
			}
			if cmd.Flags().Changed("profile-output") {
				p.Output = output
			}
			cfg.Profiles[args[0]] = p
			if err := SaveUserConfig(cfg); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Profile %q saved.\n", args[0])
			return nil
		},
	}
	cmd.Flags().StringVar(&host, "profile-host", "", "server URL for this profile")
	cmd.Flags().StringVar(&output, "profile-output", "", "default output format for this profile")
	return cmd
}

func newConfigUseProfileCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "use-profile <name>",
		Short: "Switch the active profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadOrDefaultConfig()
			if err != nil {
				return err
			}
			if _, ok := cfg.Profiles[args[0]]; !ok {
				return fmt.Errorf("profile %q not found", args[0])
			}
			cfg.CurrentProfile = args[0]
			if err := SaveUserConfig(cfg); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Switched to profile %q.\n", args[0])
			return nil
		},
	}
}
