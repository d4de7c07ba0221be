package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootFlags struct {
	course  string
	dataDir string
}

var rootCmd = &cobra.Command{
	Use:   "policyctl",
	Short: "Ask course policy questions and inspect course documents",
	Long:  "policyctl runs the policy QA pipeline locally: it resolves questions,\nexports due dates as iCalendar files and inspects the fallback index.",
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
	SilenceUsage: true,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&rootFlags.course, "course", "c", "", "Course slug or name (default course when empty)")
	pf.StringVar(&rootFlags.dataDir, "data-dir", "", "Policy data directory (overrides POLICY_DATA_DIR)")

	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(calendarCmd)
	rootCmd.AddCommand(indexCmd)
	rootCmd.AddCommand(coursesCmd)
	rootCmd.AddCommand(notifyCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
