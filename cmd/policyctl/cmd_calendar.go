package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var calendarFlags struct {
	out string
}

var calendarCmd = &cobra.Command{
	Use:   "calendar",
	Short: "Export a course's due dates as an iCalendar file",
	RunE:  runCalendar,
}

func init() {
	calendarCmd.Flags().StringVarP(&calendarFlags.out, "out", "o", "", "Output file (stdout when empty)")
}

func runCalendar(cmd *cobra.Command, _ []string) error {
	p, err := loadPipeline()
	if err != nil {
		return err
	}

	ics, c, err := p.courses.Calendar(cmd.Context(), rootFlags.course)
	if err != nil {
		return err
	}

	if calendarFlags.out == "" {
		_, err := cmd.OutOrStdout().Write(ics)
		return err
	}
	if err := os.WriteFile(calendarFlags.out, ics, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", calendarFlags.out, err)
	}
	color.Green("Wrote %s calendar to %s", c.Name, calendarFlags.out)
	return nil
}
