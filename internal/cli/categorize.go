package cli

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/pfrederiksen/seminar-cal/internal/categorize"
)

func newCategorizeCmd(g *globalFlags) *cobra.Command {
	var (
		format string
		dicts  string
	)
	cmd := &cobra.Command{
		Use:   "categorize <title> [description]",
		Short: "Show category scores for a title and description",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := parseFormat(format)
			if err != nil {
				return err
			}
			cfg, err := g.load(cmd)
			if err != nil {
				return err
			}

			dictionaries := cfg.Categories
			if dicts != "" {
				if dictionaries, err = categorize.LoadDictionaries(dicts); err != nil {
					return err
				}
			}
			c := categorize.Default()
			if len(dictionaries) > 0 {
				if c, err = categorize.New(dictionaries); err != nil {
					return err
				}
			}

			title, desc := args[0], ""
			if len(args) > 1 {
				desc = args[1]
			}
			scores := c.Scores(title, desc)

			w := cmd.OutOrStdout()
			if f == FormatJSON {
				enc := json.NewEncoder(w)
				enc.SetIndent("", "  ")
				return enc.Encode(scores)
			}
			tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "LABEL\tRAW\tADJUSTED\tASSIGNED")
			for _, s := range scores {
				fmt.Fprintf(tw, "%s\t%.2f\t%.2f\t%v\n", s.Label, s.Raw, s.Adjusted, s.Assigned)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&format, "format", "text", "Output format: text or json")
	cmd.Flags().StringVar(&dicts, "dictionaries", "", "YAML file of keyword dictionaries to use instead of the built-in ones")
	return cmd
}
