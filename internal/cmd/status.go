package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/harrison/lorekeeper/internal/display"
	"github.com/harrison/lorekeeper/internal/index"
	"github.com/harrison/lorekeeper/internal/store"
)

// NewStatusCommand creates the 'lorekeeper status' command
func NewStatusCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the diagnostics of the last import",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.resolveConfig(cmd)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			report, err := store.NewReader(cfg).ReadDiagnostics()
			if errors.Is(err, store.ErrNotFound) {
				fmt.Fprintln(out, "No import has run yet")
				return nil
			}
			if err != nil {
				return err
			}

			fmt.Fprintf(out, "Run %s at %s\n", report.RunID, report.Timestamp.Format("2006-01-02 15:04:05 MST"))
			display.NewSummary(*report).Render(out, display.ShouldColorize(out))

			if cfg.IndexPath == "" {
				return nil
			}
			if _, err := os.Stat(cfg.IndexPath); os.IsNotExist(err) {
				fmt.Fprintf(out, "\nNo catalog index at %s\n", cfg.IndexPath)
				return nil
			}
			return printIndexStatus(cmd.Context(), out, cfg.IndexPath, report.RunID)
		},
	}
}

// printIndexStatus reports which run built the index and its entry counts
// per type. An index built by another run than the diagnostics is flagged.
func printIndexStatus(ctx context.Context, out io.Writer, path, reportRunID string) error {
	ix, err := index.Open(path)
	if err != nil {
		return err
	}
	defer ix.Close()

	runID, err := ix.LastRunID(ctx)
	if err != nil {
		return err
	}
	counts, err := ix.CountByType(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "\nIndex %s built by run %s\n", ix.Path(), runID)
	if runID != reportRunID {
		fmt.Fprintln(out, "Index is out of date; rerun lorekeeper to rebuild it")
	}
	fmt.Fprintln(out, typeCountTable(counts))
	return nil
}

// NewBackupsCommand creates the 'lorekeeper backups' command
func NewBackupsCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "backups",
		Short: "List catalog backup generations, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.resolveConfig(cmd)
			if err != nil {
				return err
			}

			backups, err := store.NewReader(cfg).ListBackups()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(backups) == 0 {
				fmt.Fprintln(out, "No backups yet")
				return nil
			}

			fmt.Fprintln(out, backupsTable(backups))
			return nil
		},
	}
}

// NewRestoreCommand creates the 'lorekeeper restore' command
func NewRestoreCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "restore <slot>",
		Short: "Make a backup generation the live catalog",
		Long: `Copy backup slot <slot> over the live catalog. The current catalog is
rotated into slot 1 first, so a restore can itself be undone with
"lorekeeper restore 1". The diagnostics report is not changed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			slot, err := strconv.Atoi(args[0])
			if err != nil || slot < 1 {
				return fmt.Errorf("invalid slot %q: must be a positive integer", args[0])
			}

			cfg, err := flags.resolveConfig(cmd)
			if err != nil {
				return err
			}

			if err := store.New(cfg).Restore(cmd.Context(), slot); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Restored backup %d to %s\n", slot, cfg.CatalogPath)
			return nil
		},
	}
}
