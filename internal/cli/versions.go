package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wesleyorama2/relbench/internal/config"
	"github.com/wesleyorama2/relbench/internal/orchestrator"
	"github.com/wesleyorama2/relbench/internal/version"
)

func newVersionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "versions",
		Short: "Print the releases a run would benchmark",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			all, err := version.LoadFile(cfg.VersionsFile)
			if err != nil {
				return err
			}

			o := orchestrator.New(orchestrator.Options{Versions: all, Custom: cfg.Custom}, nil, nil, nil, nil, nil)
			for _, label := range o.Labels() {
				fmt.Fprintln(cmd.OutOrStdout(), label)
			}
			return nil
		},
	}

	cmd.Flags().StringP("config", "c", "", "Configuration file (YAML)")
	cmd.Flags().String("versions-file", config.DefaultVersionsFile, "JSON array of release versions")
	cmd.Flags().String("custom", "", "Build location benchmarked as \"custom\"")
	return cmd
}
