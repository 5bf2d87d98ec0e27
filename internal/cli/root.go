package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var appVersion = "0.1.0"

// RootCmd represents the base command when called without any subcommands
var RootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "relbench",
		Short:   "Benchmark a UI component library across its releases",
		Version: appVersion,
		Long: `relbench measures how long successive releases of a component library take
to create, update and destroy the same benchmark components, cold and warm,
in one or more browsers, and prints one comparison table per benchmark.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Run: func(cmd *cobra.Command, args []string) {
			// If no subcommand is provided, print help
			cmd.Help()
		},
	}

	cmd.AddCommand(newRunCmd())
	cmd.AddCommand(newVersionsCmd())
	return cmd
}

// Execute runs the root command and prints any error to stderr.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	if err := RootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}
