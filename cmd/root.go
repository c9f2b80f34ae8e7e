package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version is set during build using ldflags
var Version = "dev"

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:     "repoaudit",
	Short:   "Scans repositories for outdated dependencies and security findings",
	Long:    `repoaudit clones a batch of repositories, checks their declared Drupal contrib dependencies against the package registry, runs static checks and advisory lookups, and writes a text report per repository plus a batch summary.`,
	Version: Version,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
