package cmd

import (
	"github.com/spf13/cobra"

	"github.com/harrison/lorekeeper/internal/config"
)

// Version is injected at build time via -ldflags
var Version = "dev"

// globalFlags are the persistent flags shared by every command.
type globalFlags struct {
	configPath string
	baseDir    string
	logLevel   string
	logDir     string
}

// NewRootCommand creates and returns the root cobra command for lorekeeper.
// Running it without a subcommand performs an import.
func NewRootCommand() *cobra.Command {
	flags := &globalFlags{}

	cmd := &cobra.Command{
		Use:   "lorekeeper",
		Short: "Import a notes vault into a validated content catalog",
		Long: `Lorekeeper scans a folder of Markdown notes, parses their #key value
headers, validates ids and cross references against the location and region
collections, and writes content.json with rotating backups and a diagnostics
report.

Run without a subcommand to import. The other commands read what the last
import produced.`,
		Version: Version,
		Args:    cobra.NoArgs,
		// Silence usage on errors to avoid duplicate help text
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd, flags)
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&flags.configPath, "config", "", "Config file (default: search lorekeeper.config.{json,yaml,yml,toml})")
	pf.StringVar(&flags.baseDir, "base-dir", "", "Directory paths resolve from (default: $LOREKEEPER_HOME or working directory)")
	pf.StringVar(&flags.logLevel, "log-level", "", "Log level: trace, debug, info, warn, error")
	pf.StringVar(&flags.logDir, "log-dir", "", "Directory for run logs (empty disables file logging)")

	cmd.AddCommand(NewShowCommand(flags))
	cmd.AddCommand(NewTagsCommand(flags))
	cmd.AddCommand(NewStatusCommand(flags))
	cmd.AddCommand(NewBackupsCommand(flags))
	cmd.AddCommand(NewRestoreCommand(flags))

	return cmd
}

// overrides returns pointers for the flags the user actually set, so unset
// flags leave the config file values alone.
func (f *globalFlags) overrides(cmd *cobra.Command) (logLevel, logDir *string) {
	if cmd.Flags().Changed("log-level") {
		logLevel = &f.logLevel
	}
	if cmd.Flags().Changed("log-dir") {
		logDir = &f.logDir
	}
	return logLevel, logDir
}

// resolveConfig resolves the configuration for the read-side commands.
func (f *globalFlags) resolveConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.NewResolver(f.baseDir, f.configPath).Resolve()
	if err != nil {
		return nil, err
	}
	cfg.MergeWithFlags(f.overrides(cmd))
	return cfg, nil
}
