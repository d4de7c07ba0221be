package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var indexFlags struct {
	units bool
}

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Build the fallback index of a course and show what it contains",
	RunE:  runIndex,
}

func init() {
	indexCmd.Flags().BoolVar(&indexFlags.units, "units", false, "List every indexed unit")
}

func runIndex(cmd *cobra.Command, _ []string) error {
	p, err := loadPipeline()
	if err != nil {
		return err
	}
	c, err := p.registry.Resolve(rootFlags.course)
	if err != nil {
		return err
	}
	idx, err := p.searcher.Index(cmd.Context(), c)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	color.New(color.FgCyan, color.Bold).Fprintf(out, "%s (%s)\n", c.Name, idx.Source)
	fmt.Fprintf(out, "Version: %s\n", idx.Version[:12])
	fmt.Fprintf(out, "Contact: %s\n", idx.Contact)
	for kind, n := range idx.Stats() {
		fmt.Fprintf(out, "  %-10s %d\n", kind, n)
	}

	if indexFlags.units {
		for _, u := range idx.Units {
			color.New(color.Faint).Fprintf(out, "\n%s [%s]\n", u.Anchor, u.Kind)
			fmt.Fprintf(out, "  %s\n", u.Text)
		}
	}
	return nil
}
