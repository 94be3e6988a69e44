// Package config holds all autoedu configuration, loaded from a YAML file
// with environment-variable overrides for credentials.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all autoedu configuration.
type Config struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`

	Portal  PortalConfig  `yaml:"portal"`
	Import  ImportConfig  `yaml:"import"`
	Section SectionConfig `yaml:"section_shift"`
	Paths   PathsConfig   `yaml:"paths"`
	Logging LoggingConfig `yaml:"logging"`
	Browser BrowserConfig `yaml:"browser"`
}

// PortalConfig identifies the registry portal and the authenticated actor.
type PortalConfig struct {
	URL      string `yaml:"url"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	// LoginAttempts bounds the login retry loop; captcha entry is manual.
	LoginAttempts int `yaml:"login_attempts"`
}

// ImportConfig tunes the import reconciliation pass.
type ImportConfig struct {
	// YOBTrialRange is the +/- window around the class-inferred birth year.
	YOBTrialRange int `yaml:"yob_trial_range"`
	// ClassAgeMap maps class level to expected student age.
	ClassAgeMap map[string]int `yaml:"class_age_map"`
	// Sections maps section labels to the portal's option values.
	Sections map[string]string `yaml:"sections"`
	// StepDelay is the pause between students, mirroring the portal's
	// tolerance for rapid form churn. Go duration string, e.g. "5s".
	StepDelay string `yaml:"step_delay"`
	// AdapterTimeout bounds each external call.
	AdapterTimeout string `yaml:"adapter_timeout"`
	// Resume consults the checkpoint store and skips students already
	// terminal from a previous run.
	Resume bool `yaml:"resume"`
}

// StepDelayDuration parses StepDelay, defaulting to 5s.
func (c ImportConfig) StepDelayDuration() time.Duration {
	return parseDuration(c.StepDelay, 5*time.Second)
}

// AdapterTimeoutDuration parses AdapterTimeout, defaulting to 30s.
func (c ImportConfig) AdapterTimeoutDuration() time.Duration {
	return parseDuration(c.AdapterTimeout, 30*time.Second)
}

func parseDuration(s string, def time.Duration) time.Duration {
	if s == "" {
		return def
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return def
	}
	return d
}

// SectionConfig tunes the section-shift task.
type SectionConfig struct {
	// Classes lists the classes to walk in multi-class mode. Empty means
	// the currently selected class only.
	Classes []string `yaml:"classes"`
	// PageDelay is the pause between table pages. Go duration string.
	PageDelay string `yaml:"page_delay"`
}

// PageDelayDuration parses PageDelay, defaulting to 5s.
func (c SectionConfig) PageDelayDuration() time.Duration {
	return parseDuration(c.PageDelay, 5*time.Second)
}

// PathsConfig locates inputs and outputs.
type PathsConfig struct {
	InputDir     string `yaml:"input_dir"`
	ReportDir    string `yaml:"report_dir"`
	LogsDir      string `yaml:"logs_dir"`
	CheckpointDB string `yaml:"checkpoint_db"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

// BrowserConfig configures the Chrome session.
type BrowserConfig struct {
	Headless            bool     `yaml:"headless"`
	Bin                 string   `yaml:"bin"`
	DebuggerURL         string   `yaml:"debugger_url"`
	Launch              []string `yaml:"launch"`
	ViewportWidth       int      `yaml:"viewport_width"`
	ViewportHeight      int      `yaml:"viewport_height"`
	NavigationTimeoutMs int      `yaml:"navigation_timeout_ms"`
}

// NavigationTimeout returns the navigation timeout.
func (b BrowserConfig) NavigationTimeout() time.Duration {
	if b.NavigationTimeoutMs == 0 {
		return 30 * time.Second
	}
	return time.Duration(b.NavigationTimeoutMs) * time.Millisecond
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Name:    "autoedu",
		Version: "1.0.0",

		Portal: PortalConfig{
			URL:           "https://sdms.udiseplus.gov.in/p2/v1/login?state-id=123",
			LoginAttempts: 3,
		},

		Import: ImportConfig{
			YOBTrialRange: 3,
			ClassAgeMap: map[string]int{
				"1": 6, "2": 7, "3": 8, "4": 9, "5": 10,
				"6": 11, "7": 12, "8": 13, "9": 14, "10": 15,
				"11": 16, "12": 17,
			},
			Sections: map[string]string{
				"A": "1", "B": "2", "C": "3", "D": "4", "E": "5",
			},
			StepDelay:      "5s",
			AdapterTimeout: "30s",
		},

		Section: SectionConfig{
			PageDelay: "5s",
		},

		Paths: PathsConfig{
			InputDir:     filepath.Join("input", "udise"),
			ReportDir:    filepath.Join("reports", "udise"),
			LogsDir:      "logs",
			CheckpointDB: filepath.Join("data", "autoedu.db"),
		},

		Logging: LoggingConfig{Level: "info"},

		Browser: BrowserConfig{
			Headless:            false,
			ViewportWidth:       1920,
			ViewportHeight:      1080,
			NavigationTimeoutMs: 30000,
		},
	}
}

// Load loads configuration from a YAML file. A missing file yields the
// defaults; credentials may come from the environment either way.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save writes the configuration to a YAML file.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// Validate checks that the settings a run cannot proceed without are set.
func (c *Config) Validate() error {
	if c.Portal.URL == "" {
		return fmt.Errorf("portal.url is required")
	}
	if c.Portal.Username == "" || c.Portal.Password == "" {
		return fmt.Errorf("portal credentials required (set AUTOEDU_USERNAME / AUTOEDU_PASSWORD)")
	}
	if c.Import.YOBTrialRange < 0 {
		return fmt.Errorf("import.yob_trial_range must be >= 0")
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides. Credentials are
// never expected to live in the YAML file in practice.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("AUTOEDU_USERNAME"); v != "" {
		c.Portal.Username = v
	}
	if v := os.Getenv("AUTOEDU_PASSWORD"); v != "" {
		c.Portal.Password = v
	}
	if v := os.Getenv("AUTOEDU_PORTAL_URL"); v != "" {
		c.Portal.URL = v
	}
}
