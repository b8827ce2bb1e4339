package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marmos91/mirrorfs/pkg/namespace"
)

var lsCmd = &cobra.Command{
	Use:   "ls <path>",
	Short: "List the children of a directory",
	Long: `List a directory's children, reconciling the directory and its
immediate children against the under-store first.`,
	Args: cobra.ExactArgs(1),
	RunE: runLs,
}

func runLs(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	m, _, cleanup, err := setup(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	entries, err := m.ListStatus(ctx, args[0])
	if err != nil {
		return err
	}

	for _, e := range entries {
		name := e.Name
		if e.Attr.Type == namespace.TypeDirectory {
			name += "/"
			fmt.Printf("%-40s %10s\n", name, "-")
			continue
		}
		fmt.Printf("%-40s %10d\n", name, e.Attr.Size)
	}
	return nil
}
