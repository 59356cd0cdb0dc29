package driver

import (
	"os"

	e "github.com/pkg/errors"
	"github.com/sahib/config"
)

// configDefaults is the declarative default table for the driver's
// tunables. There is no migration chain: LoadConfig only ever opens this
// single version.
var configDefaults = config.DefaultMapping{
	"workers": config.DefaultEntry{
		Default:      0,
		NeedsRestart: false,
		Docs:         "Maximum concurrent archive extractions; 0 means runtime.NumCPU()",
	},
	"protected_is_fatal": config.DefaultEntry{
		Default:      false,
		NeedsRestart: false,
		Docs:         "Treat an archive's protected flag as a fatal error instead of a warning",
	},
	"manifest_path": config.DefaultEntry{
		Default:      "",
		NeedsRestart: false,
		Docs:         "Directory to write the timestamped extraction manifest into; empty disables it",
	},
}

// Config holds the driver's tunables, backed by github.com/sahib/config so a
// deployment can override them from a config file without a rebuild.
type Config struct {
	cfg *config.Config
}

// LoadConfig reads path if it exists and overlays it onto configDefaults,
// falling back to the defaults untouched when path is empty or missing.
func LoadConfig(path string) (*Config, error) {
	cfg, err := config.Open(nil, configDefaults, config.StrictnessPanic)
	if err != nil {
		return nil, e.Wrap(err, "driver: open default config")
	}

	if path == "" {
		return &Config{cfg: cfg}, nil
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return &Config{cfg: cfg}, nil
	}

	fd, err := os.Open(path)
	if err != nil {
		return nil, e.Wrapf(err, "driver: open config %q", path)
	}
	defer fd.Close()

	if err := config.LoadYaml(fd, cfg); err != nil {
		return nil, e.Wrapf(err, "driver: parse config %q", path)
	}

	return &Config{cfg: cfg}, nil
}

// Workers is the configured worker-pool size; 0 means "use runtime.NumCPU()".
func (c *Config) Workers() int { return c.cfg.Int("workers") }

// ProtectedIsFatal reports whether a protected archive should abort its
// job instead of merely warning.
func (c *Config) ProtectedIsFatal() bool { return c.cfg.Bool("protected_is_fatal") }

// ManifestPath is the directory driver.Run writes its report into; empty disables it.
func (c *Config) ManifestPath() string { return c.cfg.String("manifest_path") }

// Save writes the current config to path as YAML.
func (c *Config) Save(path string) error {
	return config.ToYamlFile(path, c.cfg)
}
