package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/harrison/lorekeeper/internal/index"
	"github.com/harrison/lorekeeper/internal/store"
)

// NewShowCommand creates the 'lorekeeper show' command
func NewShowCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Print a catalog entry as JSON",
		Long: `Print the first entry of the current catalog whose id matches.
Numeric ids match by their decimal form, so "show 7" finds {"id": 7}.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.resolveConfig(cmd)
			if err != nil {
				return err
			}

			entry, err := store.NewReader(cfg).FindEntry(args[0])
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(entry)
		},
	}
}

// NewTagsCommand creates the 'lorekeeper tags' command
func NewTagsCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "tags <tag>",
		Short: "List entries carrying a tag",
		Long: `List every catalog entry with the given tag (case-insensitive), in
catalog order. Reads the SQLite index written by the last import.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.resolveConfig(cmd)
			if err != nil {
				return err
			}
			if cfg.IndexPath == "" {
				return errors.New("catalog index is disabled (indexPath is empty)")
			}
			if _, err := os.Stat(cfg.IndexPath); os.IsNotExist(err) {
				return fmt.Errorf("catalog index %s not found; run lorekeeper to build it", cfg.IndexPath)
			}

			ix, err := index.Open(cfg.IndexPath)
			if err != nil {
				return err
			}
			defer ix.Close()

			entries, err := ix.FindByTag(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintf(out, "No entries tagged %q\n", args[0])
				return nil
			}

			fmt.Fprintln(out, entriesTable(entries))
			return nil
		},
	}
}
