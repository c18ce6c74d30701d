package cli

import (
	"os"

	"github.com/spf13/cobra"
)

// cacheCommand creates the cache command with its subcommands.
func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the followviz cache",
		Long:  `Inspect and clear the on-disk cache of topology snapshots, layouts, and rendered artifacts.`,
	}

	cmd.AddCommand(c.cachePathCommand())
	cmd.AddCommand(c.cacheClearCommand())

	return cmd
}

func (c *CLI) cachePathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the cache directory path",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := cacheDir()
			if err != nil {
				return err
			}
			cmd.Println(dir)
			return nil
		},
	}
}

func (c *CLI) cacheClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove all cached entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := cacheDir()
			if err != nil {
				return err
			}
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				printInfo("cache is already empty")
				return nil
			}
			if err := os.RemoveAll(dir); err != nil {
				return err
			}
			printSuccess("cache cleared")
			printDetail("directory: %s", dir)
			return nil
		},
	}
}
