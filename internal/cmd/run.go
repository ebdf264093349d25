package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/harrison/lorekeeper/internal/importer"
)

// runImport runs one import. SIGINT/SIGTERM cancel the run between stages.
func runImport(cmd *cobra.Command, flags *globalFlags) error {
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	logLevel, logDir := flags.overrides(cmd)
	_, err := importer.Run(ctx, importer.Options{
		BaseDir:    flags.baseDir,
		ConfigPath: flags.configPath,
		LogLevel:   logLevel,
		LogDir:     logDir,
		Out:        cmd.OutOrStdout(),
		Err:        cmd.ErrOrStderr(),
	})
	return err
}
