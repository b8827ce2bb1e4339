package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marmos91/mirrorfs/pkg/master"
)

var (
	rmRecursive     bool
	rmNamespaceOnly bool
)

var rmCmd = &cobra.Command{
	Use:   "rm <path>",
	Short: "Remove a path from the namespace",
	Long: `Remove a path from the cached namespace.

By default the target is reconciled against the under-store first, so
the delete acts on fresh metadata. With --namespace-only the cached
entry is dropped without consulting the store at all; the object in the
store is untouched and a later sync will rediscover it.`,
	Args: cobra.ExactArgs(1),
	RunE: runRm,
}

func init() {
	rmCmd.Flags().BoolVarP(&rmRecursive, "recursive", "r", false, "Delete non-empty directories")
	rmCmd.Flags().BoolVar(&rmNamespaceOnly, "namespace-only", false, "Drop the cached entry without syncing")
}

func runRm(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	m, _, cleanup, err := setup(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	err = m.Delete(ctx, args[0], master.DeleteOptions{
		Recursive:     rmRecursive,
		NamespaceOnly: rmNamespaceOnly,
	})
	if err != nil {
		return err
	}

	fmt.Printf("Removed %s\n", args[0])
	return nil
}
