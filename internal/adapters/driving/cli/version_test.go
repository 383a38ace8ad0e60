package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVersionCmd_Use(t *testing.T) {
	assert.Equal(t, "version", versionCmd.Use)
}

func TestVersionCmd_Executes(t *testing.T) {
	originalVersion := version
	version = "test-version-1.0.0"
	defer func() { version = originalVersion }()

	out, err := runCommand("", "version")

	assert.NoError(t, err)
	assert.Contains(t, out, "ragdesk version test-version-1.0.0")
}

func TestVersionCmd_NeedsNoServices(t *testing.T) {
	origReady := servicesReady
	servicesReady = false
	defer func() { servicesReady = origReady }()

	out, err := runCommand("", "version")

	assert.NoError(t, err)
	assert.Contains(t, out, "ragdesk version")
	assert.False(t, servicesReady)
}
