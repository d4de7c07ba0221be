package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"policylens-be/pkg/policy/composer"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var askFlags struct {
	trace  bool
	asJSON bool
}

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Resolve one question and print the answer with citations",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runAsk,
}

func init() {
	f := askCmd.Flags()
	f.BoolVar(&askFlags.trace, "trace", false, "Print the resolution state path")
	f.BoolVar(&askFlags.asJSON, "json", false, "Print the raw result as JSON")
}

func runAsk(cmd *cobra.Command, args []string) error {
	p, err := loadPipeline()
	if err != nil {
		return err
	}
	qc, err := p.composer()
	if err != nil {
		return err
	}

	result, path, err := qc.ResolveTrace(cmd.Context(), composer.Request{
		Question: strings.Join(args, " "),
		Course:   rootFlags.course,
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if askFlags.asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	if result.Refused {
		color.New(color.FgYellow).Fprintf(out, "Refused (%s): %s\n", result.RefusalCode, result.RefusalReason)
	}
	fmt.Fprintln(out, result.Answer)

	if len(result.Citations) > 0 {
		color.New(color.FgCyan).Fprintln(out, "\nCitations:")
		for i, c := range result.Citations {
			fmt.Fprintf(out, "  [%d] %s\n", i+1, c.Source)
			fmt.Fprintf(out, "      %q\n", c.Quote)
		}
	}

	faint := color.New(color.Faint)
	faint.Fprintf(out, "\nintent=%s slots=%v course=%s\n", result.Intent, result.SlotsUsed, result.Course)
	if askFlags.trace {
		states := make([]string, len(path))
		for i, s := range path {
			states[i] = string(s)
		}
		faint.Fprintf(out, "path: %s\n", strings.Join(states, " -> "))
	}
	return nil
}
