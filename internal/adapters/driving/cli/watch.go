package cli

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/ragdesk/internal/adapters/driving/watcher"
)

var watchCmd = &cobra.Command{
	Use:   "watch [dir]",
	Short: "Keep a folder indexed",
	Long: `Index every supported file under a folder, then re-index files as they
are created or changed and drop them when deleted. Hidden files and folders
are ignored. Stop with Ctrl+C.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

var (
	watchSettle time.Duration
	watchNoSeed bool
)

func init() {
	watchCmd.Flags().DurationVar(&watchSettle, "settle", watcher.DefaultSettle, "Quiet period before a changed file is re-indexed")
	watchCmd.Flags().BoolVar(&watchNoSeed, "no-seed", false, "Skip the initial full index")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	root := args[0]
	info, err := os.Stat(root)
	if err != nil {
		return fmt.Errorf("cannot watch %s: %w", root, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("cannot watch %s: not a directory", root)
	}

	w := watcher.New(watcher.Config{Root: root, Supports: supportsFile, Settle: watchSettle}, documentService, appLogger)
	w.OnEvent = func(ev watcher.Event) {
		switch {
		case ev.Err != nil:
			cmd.Printf("  FAILED   %s: %v\n", ev.Path, ev.Err)
		case ev.Removed:
			cmd.Printf("  REMOVED  %s\n", ev.Path)
		default:
			cmd.Printf("  INDEXED  %s\n", ev.Path)
		}
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if memoryMonitor != nil {
		memoryMonitor.Start(ctx)
		defer memoryMonitor.Stop()
	}

	if !watchNoSeed {
		events, err := w.Seed(ctx)
		if err != nil {
			return err
		}
		cmd.Printf("Indexed %d file(s) under %s\n", len(events), root)
	}

	cmd.Printf("Watching %s (Ctrl+C to stop)\n", root)
	return w.Run(ctx)
}
