package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetCreatesCategoryFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Initialize(dir, "debug"))

	log := Get(CategoryImport)
	require.NotNil(t, log)
	log.Info("import started")
	Sync()

	raw, err := os.ReadFile(filepath.Join(dir, "import.log"))
	require.NoError(t, err)
	assert.Contains(t, string(raw), "import started")
}

func TestGetReturnsSameLogger(t *testing.T) {
	require.NoError(t, Initialize(t.TempDir(), "info"))
	assert.Same(t, Get(CategoryBoot), Get(CategoryBoot))
}

func TestGetWithoutInitialize(t *testing.T) {
	// Console-only fallback; must never return nil.
	assert.NotNil(t, Get(CategoryBrowser))
}
