package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var mvCmd = &cobra.Command{
	Use:   "mv <old-path> <new-path>",
	Short: "Rename a path in the namespace",
	Long: `Move a path to a new location in the cached namespace.

The source subtree is reconciled against the under-store first, so the
journaled entries for the destination carry fresh metadata.`,
	Args: cobra.ExactArgs(2),
	RunE: runMv,
}

func runMv(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	m, _, cleanup, err := setup(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	if err := m.Rename(ctx, args[0], args[1]); err != nil {
		return err
	}

	fmt.Printf("Renamed %s -> %s\n", args[0], args[1])
	return nil
}
