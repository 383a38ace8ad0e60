package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a question about your documents",
	Long: `Answer a question from the indexed documents.

The answer streams as it is generated when stdout is a terminal.
Use --file to index documents before asking.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

var (
	askNoStream bool
	askJSON     bool
	askFiles    []string
)

func init() {
	askCmd.Flags().BoolVar(&askNoStream, "no-stream", false, "Print the answer only when complete")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "Print the result as JSON")
	askCmd.Flags().StringSliceVarP(&askFiles, "file", "f", nil, "Index these files before asking")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	if queryService == nil {
		return errors.New("query service not configured")
	}

	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	if len(askFiles) > 0 {
		if documentService == nil {
			return errors.New("document service not configured")
		}
		for _, r := range documentService.Ingest(ctx, askFiles) {
			if r.Err != nil {
				cmd.PrintErrf("Skipped %s: %v\n", r.Path, r.Err)
			}
		}
	}

	question := strings.Join(args, " ")
	streaming := !askNoStream && !askJSON && isTerminal(out)

	var stream func(string)
	if streaming {
		stream = func(fragment string) {
			fmt.Fprint(out, fragment)
		}
	}

	result, err := queryService.Query(ctx, question, nil, stream)
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}

	if askJSON {
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return fmt.Errorf("encoding result: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	if streaming {
		cmd.Println()
	} else {
		cmd.Println(result.Response)
	}

	if len(result.Sources) > 0 {
		cmd.Printf("\nSources: %s\n", strings.Join(result.Sources, ", "))
	}
	if result.QueryID != "" {
		cmd.Printf("Query ID: %s (rate with: ragdesk feedback %s <1-5>)\n", result.QueryID, result.QueryID)
	}
	return nil
}

// isTerminal reports whether w is an interactive terminal.
var isTerminal = func(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
