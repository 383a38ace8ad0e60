package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show index, generator and memory statistics",
	Args:  cobra.NoArgs,
	RunE:  runStats,
}

var statsJSON bool

func init() {
	statsCmd.Flags().BoolVar(&statsJSON, "json", false, "Print statistics as JSON")
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, _ []string) error {
	if queryService == nil {
		return errors.New("query service not configured")
	}

	stats, err := queryService.Stats(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to read stats: %w", err)
	}

	if statsJSON {
		data, err := json.MarshalIndent(stats, "", "  ")
		if err != nil {
			return fmt.Errorf("encoding stats: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	cmd.Println("Index")
	cmd.Printf("  Chunks: %d\n", stats.DocumentChunks)
	cmd.Println()

	cmd.Println("Generator")
	cmd.Printf("  Type: %s\n", stats.ModelType)
	if len(stats.Features) > 0 {
		cmd.Printf("  Features: %s\n", strings.Join(stats.Features, ", "))
	}
	cmd.Println()

	cmd.Println("Memory")
	cmd.Printf("  RSS: %.1f MB\n", stats.Memory.RSSMB)
	cmd.Printf("  VMS: %.1f MB\n", stats.Memory.VMSMB)
	cmd.Printf("  Percent: %.1f%%\n", stats.Memory.Percent)

	if len(stats.LoadedModels) > 0 {
		cmd.Println()
		cmd.Println("Loaded models")
		for _, m := range stats.LoadedModels {
			cmd.Printf("  %s  %.1f MB  (in use: %d)\n", m.Name, m.SizeMB, m.InUse)
		}
	}
	return nil
}
