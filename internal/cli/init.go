package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pfrederiksen/seminar-cal/internal/config"
	"github.com/pfrederiksen/seminar-cal/internal/source"
)

func newInitCmd(g *globalFlags) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a starter config file with example sources",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := os.Stat(g.configPath); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", g.configPath)
			}

			cfg := config.DefaultConfig()
			cfg.Sources = []config.Source{
				{Name: "Department seminars", URL: "https://cs.example.edu/events", Kind: source.KindHTML},
				{Name: "Seminar feed", URL: "https://bio.example.org/events.rss", Kind: source.KindFeed},
			}
			if g.dataDir != "" {
				cfg.DataDir = g.dataDir
			}
			cfg.Normalize()

			if err := config.Save(g.configPath, cfg); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s with %d example sources.\n", g.configPath, len(cfg.Sources))
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing config file")
	return cmd
}
