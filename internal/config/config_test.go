package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 3, cfg.Import.YOBTrialRange)
	assert.Equal(t, 14, cfg.Import.ClassAgeMap["9"])
	assert.Equal(t, 5*time.Second, cfg.Import.StepDelayDuration())
	assert.Equal(t, 30*time.Second, cfg.Import.AdapterTimeoutDuration())
	assert.Equal(t, 30*time.Second, cfg.Browser.NavigationTimeout())
}

func TestDurationParsing(t *testing.T) {
	c := ImportConfig{StepDelay: "250ms", AdapterTimeout: "garbage"}
	assert.Equal(t, 250*time.Millisecond, c.StepDelayDuration())
	assert.Equal(t, 30*time.Second, c.AdapterTimeoutDuration(), "bad values fall back to the default")

	s := SectionConfig{PageDelay: "2s"}
	assert.Equal(t, 2*time.Second, s.PageDelayDuration())
	assert.Equal(t, 5*time.Second, SectionConfig{}.PageDelayDuration())
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("AUTOEDU_USERNAME", "school-admin")
	t.Setenv("AUTOEDU_PASSWORD", "secret")
	t.Setenv("AUTOEDU_PORTAL_URL", "https://example.test/login")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "school-admin", cfg.Portal.Username)
	assert.Equal(t, "secret", cfg.Portal.Password)
	assert.Equal(t, "https://example.test/login", cfg.Portal.URL)
	require.NoError(t, cfg.Validate())
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "autoedu.yaml")
	body := `
portal:
  url: https://example.test/login
  username: admin
  password: pw
import:
  yob_trial_range: 2
  step_delay: 1s
section_shift:
  classes: ["6", "7"]
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 2, cfg.Import.YOBTrialRange)
	assert.Equal(t, time.Second, cfg.Import.StepDelayDuration())
	assert.Equal(t, []string{"6", "7"}, cfg.Section.Classes)
	assert.Equal(t, 14, cfg.Import.ClassAgeMap["9"], "defaults survive partial files")
}

func TestValidate(t *testing.T) {
	cfg := DefaultConfig()
	err := cfg.Validate()
	require.Error(t, err, "missing credentials must fail validation")
	assert.Contains(t, err.Error(), "AUTOEDU_USERNAME")

	cfg.Portal.Username = "admin"
	cfg.Portal.Password = "pw"
	assert.NoError(t, cfg.Validate())
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg", "autoedu.yaml")
	cfg := DefaultConfig()
	cfg.Portal.Username = "admin"
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "admin", loaded.Portal.Username)
	assert.Equal(t, cfg.Import.ClassAgeMap, loaded.Import.ClassAgeMap)
}
