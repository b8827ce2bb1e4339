package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marmos91/mirrorfs/pkg/namespace"
)

var statusCmd = &cobra.Command{
	Use:   "status <path>",
	Short: "Show the attributes of a path",
	Long: `Fetch the attributes of a path, reconciling it against the
under-store first.`,
	Args: cobra.ExactArgs(1),
	RunE: runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	m, _, cleanup, err := setup(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	attr, err := m.GetStatus(ctx, args[0])
	if err != nil {
		return err
	}

	printAttr(args[0], attr)
	return nil
}

func printAttr(p string, attr namespace.Attr) {
	fmt.Printf("%s\n", p)
	fmt.Printf("  type:   %s\n", attr.Type)
	if attr.Type == namespace.TypeFile {
		fmt.Printf("  size:   %d\n", attr.Size)
	}
	if attr.Owner != "" {
		fmt.Printf("  owner:  %s\n", attr.Owner)
	}
	if attr.Group != "" {
		fmt.Printf("  group:  %s\n", attr.Group)
	}
	if attr.Mode != 0 {
		fmt.Printf("  mode:   %04o\n", attr.Mode)
	}
	if !attr.ModTime.IsZero() {
		fmt.Printf("  mtime:  %s\n", attr.ModTime.Format("2006-01-02 15:04:05"))
	}
	if attr.ContentHash != "" {
		fmt.Printf("  hash:   %s\n", attr.ContentHash)
	}
}
