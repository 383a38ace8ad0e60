package cli

import (
	"errors"

	"github.com/spf13/cobra"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [paths...]",
	Short: "Index documents",
	Long: `Load, chunk and index one or more files.

Supported formats: .txt, .md, .csv, .html, .htm, .docx and .pdf.
A file that fails to load is reported and the rest are still indexed.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	var added, failed int
	for _, r := range documentService.Ingest(cmd.Context(), args) {
		if r.Err != nil {
			failed++
			cmd.Printf("  FAILED  %s: %v\n", r.Path, r.Err)
			continue
		}
		added += r.Report.Added
		cmd.Printf("  OK      %s (%d chunks, %d new)\n", r.Path, r.Document.ChunkCount(), r.Report.Added)
	}

	cmd.Printf("\nIndexed %d new chunks from %d file(s)\n", added, len(args)-failed)
	if failed > 0 {
		return errors.New("some files could not be indexed")
	}
	return nil
}
