package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/marmos91/mirrorfs/pkg/config"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a sample configuration file",
	Long: `Write a configuration file with all defaults to the default location
($XDG_CONFIG_HOME/mirrorfs/config.yaml) or to the path given via --config.

Examples:
  # Initialize config at the default location
  mirrorfs init

  # Initialize config at a custom path
  mirrorfs init --config /etc/mirrorfs/config.yaml

  # Overwrite an existing config
  mirrorfs init --force`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite an existing config file")
}

func runInit(cmd *cobra.Command, args []string) error {
	path := GetConfigFile()
	if path == "" {
		path = config.GetDefaultConfigPath()
	}

	if _, err := os.Stat(path); err == nil && !initForce {
		return fmt.Errorf("config file already exists at %s (use --force to overwrite)", path)
	}

	if err := config.SaveConfig(config.GetDefaultConfig(), path); err != nil {
		return err
	}

	fmt.Printf("Configuration file created at: %s\n", path)
	fmt.Println("\nNext steps:")
	fmt.Println("  1. Edit the configuration file to point at your store")
	fmt.Printf("  2. Run a sync: mirrorfs sync / --config %s\n", path)
	return nil
}
