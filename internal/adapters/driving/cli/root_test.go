package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// useRealServices clears any injected services so initServices runs, and
// restores the previous state afterwards.
func useRealServices(t *testing.T) {
	t.Helper()
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("RAGDESK_GENERATOR_PROVIDER", "local")

	origQuery, origDocs, origAnalytics := queryService, documentService, analyticsService
	origSettings, origTools, origSupports := settingsService, toolExecutor, supportsFile
	origReady, origLogger, origMonitor := servicesReady, appLogger, memoryMonitor

	queryService, documentService, analyticsService = nil, nil, nil
	settingsService, toolExecutor, supportsFile = nil, nil, nil
	servicesReady = false
	t.Cleanup(func() {
		_ = closeServices()
		queryService, documentService, analyticsService = origQuery, origDocs, origAnalytics
		settingsService, toolExecutor, supportsFile = origSettings, origTools, origSupports
		servicesReady, appLogger, memoryMonitor = origReady, origLogger, origMonitor
	})
}

func TestRootCmd_PersistentFlags(t *testing.T) {
	for _, name := range []string{"verbose", "data-dir", "ephemeral"} {
		assert.NotNil(t, rootCmd.PersistentFlags().Lookup(name), name)
	}
}

func TestInitServices_SettingsOnly(t *testing.T) {
	useRealServices(t)
	dir := t.TempDir()

	out, err := runCommand("", "--data-dir", dir, "settings", "set", "retrieval.default_results", "7")

	require.NoError(t, err)
	assert.Contains(t, out, "retrieval.default_results = 7")
	assert.Nil(t, queryService)

	data, err := os.ReadFile(filepath.Join(dir, "config.toml"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "default_results")
}

func TestInitServices_EphemeralPipeline(t *testing.T) {
	useRealServices(t)
	dir := t.TempDir()

	doc := filepath.Join(dir, "notes.txt")
	content := "The quarterly report covers revenue growth in the northern region. " +
		"Revenue rose steadily through the year as new customers signed up. " +
		"The team expects further growth next quarter."
	require.NoError(t, os.WriteFile(doc, []byte(content), 0o644))

	out, err := runCommand("", "--data-dir", dir, "--ephemeral", "ingest", doc)
	require.NoError(t, err)
	assert.Contains(t, out, "OK      "+doc)

	out, err = runCommand("", "--data-dir", dir, "--ephemeral", "ask", "--no-stream", "Summarize the report")
	require.NoError(t, err)
	assert.Contains(t, out, "Sources: notes.txt")
	assert.Contains(t, out, "Query ID:")

	out, err = runCommand("", "--data-dir", dir, "--ephemeral", "stats")
	require.NoError(t, err)
	assert.Contains(t, out, "Type: local")

	out, err = runCommand("", "--data-dir", dir, "--ephemeral", "tool", "calculator", "expression=2+2")
	require.NoError(t, err)
	assert.Contains(t, out, "4")

	_, err = os.Stat(filepath.Join(dir, "ragdesk.db"))
	assert.True(t, os.IsNotExist(err), "ephemeral runs must not create the database")
}
