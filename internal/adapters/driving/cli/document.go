package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var docsCmd = &cobra.Command{
	Use:   "docs",
	Short: "Manage indexed documents",
	Long:  `List indexed documents, remove one by file hash, or clear the index.`,
}

var docsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List indexed documents",
	Args:  cobra.NoArgs,
	RunE:  runDocsList,
}

var docsRemoveCmd = &cobra.Command{
	Use:   "remove [file-hash]",
	Short: "Remove a document from the index",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocsRemove,
}

var docsClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every document from the index",
	Args:  cobra.NoArgs,
	RunE:  runDocsClear,
}

var clearYes bool

func init() {
	docsClearCmd.Flags().BoolVarP(&clearYes, "yes", "y", false, "Do not ask for confirmation")

	docsCmd.AddCommand(docsListCmd)
	docsCmd.AddCommand(docsRemoveCmd)
	docsCmd.AddCommand(docsClearCmd)
	rootCmd.AddCommand(docsCmd)
}

func runDocsList(cmd *cobra.Command, _ []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	docs, err := documentService.List(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list documents: %w", err)
	}

	if len(docs) == 0 {
		cmd.Println("No documents indexed. Run 'ragdesk ingest <file>' to add some.")
		return nil
	}

	cmd.Println("Documents:")
	cmd.Println()
	for i := range docs {
		cmd.Printf("  %s\n", docs[i].DocID)
		cmd.Printf("    File:     %s (%d bytes)\n", docs[i].Filename, docs[i].FileSize)
		cmd.Printf("    Chunks:   %d (avg %.0f chars)\n", docs[i].ChunkCount, docs[i].AvgChunkSize)
		cmd.Printf("    Uploaded: %s\n", docs[i].UploadTime.Format("2006-01-02 15:04:05"))
		cmd.Printf("    Used:     %d times\n", docs[i].UsageCount)
		cmd.Println()
	}

	cmd.Printf("Total: %d documents\n", len(docs))
	return nil
}

func runDocsRemove(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	if err := documentService.Remove(cmd.Context(), args[0]); err != nil {
		return fmt.Errorf("failed to remove document: %w", err)
	}

	cmd.Printf("Removed document %s\n", args[0])
	return nil
}

func runDocsClear(cmd *cobra.Command, _ []string) error {
	if queryService == nil {
		return errors.New("query service not configured")
	}

	if !clearYes {
		cmd.Print("Remove all indexed documents? [y/N]: ")
		if answer := readLine(newInputReader(cmd)); answer != "y" && answer != "Y" {
			cmd.Println("Aborted")
			return nil
		}
	}

	if err := queryService.ClearDocuments(cmd.Context()); err != nil {
		return fmt.Errorf("failed to clear documents: %w", err)
	}

	cmd.Println("All documents removed")
	return nil
}
