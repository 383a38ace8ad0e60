package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var toolCmd = &cobra.Command{
	Use:   "tool [name] [key=value...]",
	Short: "Run a helper tool directly",
	Long: `Run calculator, date_calculator or text_analyzer with key=value arguments.
Without arguments, lists the tools and their parameters.

Examples:
  ragdesk tool calculator expression="sqrt(16) + 2"
  ragdesk tool date_calculator operation=date_diff date1=2024-01-01 date2=2024-03-01
  ragdesk tool text_analyzer analysis_type=word_count text="one two three"`,
	RunE: runTool,
}

func init() {
	rootCmd.AddCommand(toolCmd)
}

func runTool(cmd *cobra.Command, args []string) error {
	if toolExecutor == nil {
		return errors.New("tool executor not configured")
	}

	if len(args) == 0 {
		for _, def := range toolExecutor.Definitions() {
			cmd.Printf("%s - %s\n", def.Name, def.Description)
			for _, p := range def.Parameters {
				req := ""
				if p.Required {
					req = " (required)"
				}
				cmd.Printf("    %s: %s%s\n", p.Name, p.Description, req)
				if len(p.Enum) > 0 {
					cmd.Printf("      one of: %s\n", strings.Join(p.Enum, ", "))
				}
			}
		}
		return nil
	}

	toolArgs, err := parseToolArgs(args[1:])
	if err != nil {
		return err
	}

	res := toolExecutor.Execute(cmd.Context(), args[0], toolArgs)
	if !res.OK {
		return fmt.Errorf("%s: %s", args[0], res.Text)
	}
	cmd.Println(res.Text)
	return nil
}

func parseToolArgs(pairs []string) (map[string]any, error) {
	out := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid argument %q: expected key=value", pair)
		}
		out[key] = value
	}
	return out, nil
}
