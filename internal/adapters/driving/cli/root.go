// Package cli provides the ragdesk command-line interface.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/ragdesk/internal/adapters/driven/ai"
	"github.com/custodia-labs/ragdesk/internal/adapters/driven/config/file"
	"github.com/custodia-labs/ragdesk/internal/adapters/driven/generator/local"
	"github.com/custodia-labs/ragdesk/internal/adapters/driven/loader"
	"github.com/custodia-labs/ragdesk/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/ragdesk/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/ragdesk/internal/adapters/driven/system"
	"github.com/custodia-labs/ragdesk/internal/adapters/driven/tools"
	"github.com/custodia-labs/ragdesk/internal/core/domain"
	"github.com/custodia-labs/ragdesk/internal/core/ports/driven"
	"github.com/custodia-labs/ragdesk/internal/core/ports/driving"
	"github.com/custodia-labs/ragdesk/internal/core/services"
	"github.com/custodia-labs/ragdesk/internal/logger"
	"github.com/custodia-labs/ragdesk/internal/postprocessors/chunker"
)

// version is set at build time with -ldflags.
var version = "dev"

// Command annotations that limit how much of the application is built.
const (
	// settingsOnly commands need configuration but no models or stores.
	settingsOnly = "ragdesk.settings-only"

	// noServices commands touch nothing on disk.
	noServices = "ragdesk.no-services"
)

// Persistent flags.
var (
	verbose   bool
	dataDir   string
	ephemeral bool
)

// Services used by the commands. They are built on first use by
// initServices, or injected directly in tests.
var (
	queryService     driving.QueryService
	documentService  driving.DocumentService
	analyticsService driving.AnalyticsService
	settingsService  driving.SettingsService
	toolExecutor     driven.ToolExecutor
	supportsFile     func(path string) bool
	memoryMonitor    *services.MemoryMonitor
	appLogger        *logger.Logger

	servicesReady bool
	closers       []func() error
)

var rootCmd = &cobra.Command{
	Use:   "ragdesk",
	Short: "Ask questions about your local documents",
	Long: `ragdesk indexes local documents and answers questions about them.

Answers come from Gemini when an API key is configured and reachable,
otherwise from a built-in rule-based generator that works offline.`,
	SilenceUsage:      true,
	PersistentPreRunE: initServices,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Print pipeline diagnostics to stderr")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "Data directory (default ~/.ragdesk)")
	rootCmd.PersistentFlags().BoolVar(&ephemeral, "ephemeral", false, "Keep the index and telemetry in memory")
}

// Execute runs the root command and releases whatever it opened.
func Execute(ctx context.Context) error {
	rootCmd.SetOut(os.Stdout)
	err := rootCmd.ExecuteContext(ctx)
	if cerr := closeServices(); err == nil {
		err = cerr
	}
	return err
}

func hasAnnotation(cmd *cobra.Command, key string) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if _, ok := c.Annotations[key]; ok {
			return true
		}
	}
	return false
}

func resolveDataDir() (string, error) {
	if dataDir != "" {
		return dataDir, nil
	}
	return file.DefaultDir()
}

// initServices is the composition root.
func initServices(cmd *cobra.Command, _ []string) error {
	if servicesReady || hasAnnotation(cmd, noServices) {
		return nil
	}

	dir, err := resolveDataDir()
	if err != nil {
		return fmt.Errorf("resolving data directory: %w", err)
	}

	configStore, err := file.NewConfigStore(dir)
	if err != nil {
		return fmt.Errorf("opening config: %w", err)
	}
	settingsSvc := services.NewSettingsService(configStore)
	settingsService = settingsSvc

	if hasAnnotation(cmd, settingsOnly) {
		servicesReady = true
		return nil
	}

	settings, err := settingsSvc.Get()
	if err != nil {
		return fmt.Errorf("loading settings: %w", err)
	}

	logOpts := logger.Options{Console: cmd.ErrOrStderr(), Verbose: verbose}
	if settings.Logging.File && !ephemeral {
		logOpts.Dir = filepath.Join(dir, "logs")
	}
	log, err := logger.New(logOpts)
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	appLogger = log
	closers = append(closers, log.Sync)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if err := buildServices(ctx, dir, settings, log); err != nil {
		_ = closeServices()
		return err
	}
	servicesReady = true
	return nil
}

func buildServices(ctx context.Context, dir string, settings *domain.AppSettings, log *logger.Logger) error {
	var (
		telemetry driven.TelemetryStore
		store     *sqlite.Store
	)
	backend := settings.Store.Backend
	if ephemeral {
		telemetry = memory.NewTelemetryStore()
		if backend == domain.StoreSQLite {
			backend = domain.StoreMemory
		}
	} else {
		var err error
		store, err = sqlite.NewStore(dir)
		if err != nil {
			return fmt.Errorf("opening telemetry store: %w", err)
		}
		closers = append(closers, store.Close)
		telemetry = store
	}

	index, err := ai.CreateVectorIndex(backend, ai.VectorIndexOptions{
		DataDir:    dir,
		Collection: settings.Store.Collection,
		Ephemeral:  ephemeral,
		Store:      store,
	}, log)
	if err != nil {
		return fmt.Errorf("opening vector index: %w", err)
	}
	closers = append(closers, index.Close)

	budget := services.NewResourceBudget(system.NewProbe(), settings.Memory.MaxMemoryMB, log)
	memoryMonitor = services.NewMemoryMonitor(budget, services.DefaultMonitorInterval, log)

	embedSettings := settings.Embedding
	embedder := services.NewEmbeddingProvider(
		func() (driven.EmbeddingService, error) { return ai.CreateEmbeddingService(&embedSettings) },
		budget,
		string(embedSettings.Provider),
		ai.EmbeddingSizeMB(embedSettings.Provider),
		log,
	)
	chunks := services.NewChunkStore(index, embedder, settings.Store.BatchSize, log)

	executor := tools.NewExecutor(log)
	toolExecutor = executor

	recognizer := services.NewEntityRecognizer(gazetteerFactory(settings.NLP.GazetteerPath), local.NewTagger(), budget, log)
	if !settings.Memory.LazyLoading {
		recognizer.Entities("")
	}

	selection := ai.SelectGenerator(ctx, &settings.Generator, executor, recognizer, log)
	if selection.FellBack && settings.Generator.Provider == domain.GeneratorGemini {
		log.Warn("Gemini was requested but is unavailable: %v", selection.Reason)
	}

	rag := services.NewRAGService(chunks, selection.Generator, telemetry, budget, settings.Retrieval, log)
	closers = append(closers, rag.Close)
	queryService = rag

	splitter := chunker.New(
		chunker.WithChunkSize(settings.Chunking.Size),
		chunker.WithOverlap(settings.Chunking.Overlap),
		chunker.WithMinChunk(settings.Chunking.MinChunk),
	)
	fileLoader := loader.New(log)
	supportsFile = fileLoader.Supports
	documentService = services.NewDocumentService(fileLoader, splitter, chunks, telemetry, log)

	analyticsService = services.NewAnalyticsService(telemetry)
	return nil
}

// gazetteerFactory returns nil when no entity list is configured, which
// leaves the tagger in charge.
func gazetteerFactory(path string) services.RecognizerFactory {
	if path == "" {
		return nil
	}
	return func() (driven.EntityRecognizer, float64, error) {
		g, err := local.LoadGazetteer(path)
		if err != nil {
			return nil, 0, err
		}
		return g, g.SizeMB(), nil
	}
}

// closeServices releases everything initServices opened, newest first.
func closeServices() error {
	var errs []error
	for i := len(closers) - 1; i >= 0; i-- {
		if err := closers[i](); err != nil && !errors.Is(err, os.ErrClosed) {
			errs = append(errs, err)
		}
	}
	closers = nil
	return errors.Join(errs...)
}
