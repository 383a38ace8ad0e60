package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/ragdesk/internal/adapters/driven/ai"
	"github.com/custodia-labs/ragdesk/internal/core/domain"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and change settings stored in ~/.ragdesk/config.toml.

Any key can also be overridden with an environment variable, for example
RAGDESK_GENERATOR_PROVIDER=local. GEMINI_API_KEY takes precedence over
generator.api_key.`,
	Annotations: map[string]string{settingsOnly: "true"},
	RunE:        runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE:  runSettingsShow,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Change one setting",
	Long:  `Change one setting. Run 'ragdesk settings keys' to list valid keys.`,
	Args:  cobra.ExactArgs(2),
	RunE:  runSettingsSet,
}

var settingsSetKeyCmd = &cobra.Command{
	Use:   "set-key",
	Short: "Store the Gemini API key",
	Long:  `Prompt for the Gemini API key without echoing it and save it to the config file.`,
	Args:  cobra.NoArgs,
	RunE:  runSettingsSetKey,
}

var settingsKeysCmd = &cobra.Command{
	Use:   "keys",
	Short: "List setting keys",
	Args:  cobra.NoArgs,
	RunE:  runSettingsKeys,
}

var settingsCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Check that the configured providers respond",
	Args:  cobra.NoArgs,
	RunE:  runSettingsCheck,
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	settingsCmd.AddCommand(settingsSetKeyCmd)
	settingsCmd.AddCommand(settingsKeysCmd)
	settingsCmd.AddCommand(settingsCheckCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	s, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}

	cmd.Printf("Config: %s\n\n", settingsService.ConfigPath())

	cmd.Println("Generator")
	cmd.Printf("  Provider: %s\n", s.Generator.Provider)
	cmd.Printf("  Model: %s\n", s.Generator.Model)
	if s.Generator.BaseURL != "" {
		cmd.Printf("  Base URL: %s\n", s.Generator.BaseURL)
	}
	if s.Generator.APIKey != "" {
		cmd.Printf("  API Key: %s\n", maskAPIKey(s.Generator.APIKey))
	} else {
		cmd.Printf("  API Key: (not set)\n")
	}
	cmd.Printf("  Temperature: %.2f\n", s.Generator.Temperature)
	cmd.Printf("  Max output tokens: %d\n", s.Generator.MaxOutputTokens)
	cmd.Printf("  Requests per minute: %d\n", s.Generator.RequestsPerMinute)
	cmd.Println()

	cmd.Println("Embedding")
	cmd.Printf("  Provider: %s\n", s.Embedding.Provider)
	cmd.Printf("  Model: %s\n", s.Embedding.Model)
	cmd.Printf("  Dimensions: %d\n", s.Embedding.Dimensions)
	if s.Embedding.BaseURL != "" {
		cmd.Printf("  Base URL: %s\n", s.Embedding.BaseURL)
	}
	if s.Embedding.Provider.RequiresAPIKey() {
		if s.Embedding.APIKey != "" {
			cmd.Printf("  API Key: %s\n", maskAPIKey(s.Embedding.APIKey))
		} else {
			cmd.Printf("  API Key: (not set)\n")
		}
	}
	cmd.Println()

	cmd.Println("Store")
	cmd.Printf("  Backend: %s\n", s.Store.Backend)
	cmd.Printf("  Collection: %s\n", s.Store.Collection)
	cmd.Printf("  Batch size: %d\n", s.Store.BatchSize)
	cmd.Println()

	cmd.Println("Memory")
	cmd.Printf("  Max: %d MB\n", s.Memory.MaxMemoryMB)
	cmd.Printf("  Lazy loading: %t\n", s.Memory.LazyLoading)
	cmd.Println()

	cmd.Println("Retrieval")
	cmd.Printf("  Results: %d (aggregate questions: %d)\n", s.Retrieval.DefaultResults, s.Retrieval.AggregateResults)
	cmd.Printf("  Chunking: %d chars, %d overlap, min %d\n", s.Chunking.Size, s.Chunking.Overlap, s.Chunking.MinChunk)
	if s.NLP.GazetteerPath != "" {
		cmd.Printf("  Gazetteer: %s\n", s.NLP.GazetteerPath)
	}
	return nil
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	if err := settingsService.Set(args[0], args[1]); err != nil {
		return fmt.Errorf("failed to set %s: %w", args[0], err)
	}

	cmd.Printf("%s = %s\n", args[0], args[1])
	return nil
}

func runSettingsSetKey(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	cmd.Print("Enter Gemini API key: ")
	key := readPassword(cmd)
	cmd.Println()

	if err := settingsService.SetAPIKey(key); err != nil {
		return fmt.Errorf("failed to save API key: %w", err)
	}

	cmd.Printf("API key saved (%s)\n", maskAPIKey(key))
	return nil
}

func runSettingsKeys(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	for _, k := range settingsService.Keys() {
		cmd.Println(k)
	}
	return nil
}

func runSettingsCheck(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	s, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()

	var failed bool

	cmd.Printf("Embedding (%s)... ", s.Embedding.Provider)
	if err := ai.ValidateEmbedding(ctx, &s.Embedding); err != nil {
		cmd.Printf("FAILED: %v\n", err)
		failed = true
	} else {
		cmd.Println("OK")
	}

	cmd.Printf("Generator (%s)... ", s.Generator.Provider)
	selection := ai.SelectGenerator(ctx, &s.Generator, nil, nil, nil)
	defer selection.Generator.Close() //nolint:errcheck
	switch {
	case s.Generator.Provider == domain.GeneratorLocal:
		cmd.Println("OK (local)")
	case selection.FellBack:
		cmd.Printf("FAILED: %v (local generator will be used)\n", selection.Reason)
		failed = s.Generator.Provider == domain.GeneratorGemini
	default:
		cmd.Printf("OK (%s)\n", selection.Generator.Kind())
	}

	if failed {
		return errors.New("configuration check failed")
	}
	return nil
}

// Helper functions.

func newInputReader(cmd *cobra.Command) *bufio.Reader {
	return bufio.NewReader(cmd.InOrStdin())
}

//nolint:errcheck // CLI helper, error ignored for UX
func readLine(reader *bufio.Reader) string {
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

// readPassword reads without echo from a terminal, otherwise a plain line.
func readPassword(cmd *cobra.Command) string {
	if f, ok := cmd.InOrStdin().(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		password, err := term.ReadPassword(int(f.Fd()))
		if err == nil {
			return strings.TrimSpace(string(password))
		}
	}
	return readLine(newInputReader(cmd))
}

func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
