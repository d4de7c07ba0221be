package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var coursesCmd = &cobra.Command{
	Use:   "courses",
	Short: "List discovered courses",
	RunE:  runCourses,
}

func runCourses(cmd *cobra.Command, _ []string) error {
	p, err := loadPipeline()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, c := range p.courses.List(cmd.Context()) {
		marker := " "
		if c.Default {
			marker = "*"
		}
		color.New(color.Bold).Fprintf(out, "%s %s", marker, c.Slug)
		fmt.Fprintf(out, "  %s\n", c.Name)
		if len(c.Records) > 0 {
			fmt.Fprintf(out, "    records: %v\n", c.Records)
		}
		if !c.HasDocument {
			color.New(color.FgYellow).Fprintln(out, "    no policy document, fallback search disabled")
		}
	}
	return nil
}
