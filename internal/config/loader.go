package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/streamscan/streamscan/internal/catalog"
)

// DefaultConfigFile is the default configuration file name.
const DefaultConfigFile = ".streamscan"

// ErrConfigNotFound is returned when the configuration file does not exist.
var ErrConfigNotFound = errors.New("configuration file not found")

// File is the YAML configuration file shape:
//
//	exclude:
//	  - 192.168.1.1/32
//	  - 192.168.1.0/30
//	catalog:
//	  rtsp:
//	    ports: [554, 10554]
//	    timeout: 2s
//	    retries: 2
type File struct {
	// Exclude lists CIDR blocks that are never scanned.
	Exclude []string `yaml:"exclude"`

	// Catalog holds per-protocol overrides of the default catalog.
	Catalog map[string]FileOverride `yaml:"catalog"`
}

// FileOverride mirrors catalog.Override with YAML-friendly field types.
// Timeout is a duration string ("2s", "500ms") because yaml.v3 has no
// native time.Duration support.
type FileOverride struct {
	Ports   []int    `yaml:"ports"`
	Paths   []string `yaml:"paths"`
	Timeout string   `yaml:"timeout"`
	Retries int      `yaml:"retries"`
}

// LoadConfigFile loads settings from a YAML file into cfg.
// If the file does not exist, it returns ErrConfigNotFound. Callers
// should handle this based on whether the path was explicitly specified
// by the user.
func LoadConfigFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided config path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return ErrConfigNotFound
		}
		return err
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if len(f.Exclude) > 0 {
		cfg.Exclude = append(cfg.Exclude, f.Exclude...)
	}

	if len(f.Catalog) > 0 {
		overrides, err := f.catalogOverrides()
		if err != nil {
			return fmt.Errorf("invalid catalog overrides in %s: %w", path, err)
		}
		cfg.CatalogOverrides = overrides
	}

	return nil
}

// catalogOverrides converts file overrides into catalog overrides,
// parsing duration strings.
func (f *File) catalogOverrides() (map[string]catalog.Override, error) {
	out := make(map[string]catalog.Override, len(f.Catalog))
	for name, fo := range f.Catalog {
		ov := catalog.Override{
			Ports:   fo.Ports,
			Paths:   fo.Paths,
			Retries: fo.Retries,
		}
		if fo.Timeout != "" {
			d, err := time.ParseDuration(fo.Timeout)
			if err != nil {
				return nil, fmt.Errorf("protocol %q: %w", name, err)
			}
			ov.Timeout = d
		}
		out[name] = ov
	}
	return out, nil
}

// FindConfigFile searches for the configuration file in the following order:
//  1. If configPath is specified, use it directly
//  2. Look for .streamscan in the current directory
//  3. Look for .streamscan in the user's home directory
//
// Returns the path to the configuration file if found, or empty string.
func FindConfigFile(configPath string) string {
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
		return ""
	}

	cwd, err := os.Getwd()
	if err == nil {
		cwdConfig := filepath.Join(cwd, DefaultConfigFile)
		if _, err := os.Stat(cwdConfig); err == nil {
			return cwdConfig
		}
	}

	home, err := os.UserHomeDir()
	if err == nil {
		homeConfig := filepath.Join(home, DefaultConfigFile)
		if _, err := os.Stat(homeConfig); err == nil {
			return homeConfig
		}
	}

	return ""
}
