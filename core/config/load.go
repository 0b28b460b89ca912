package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
	"sigs.k8s.io/yaml"
)

// Load loads the configuration from the directory.
func Load(path string) (*Configuration, error) {
	// If given the path to a config.yaml file, move back up a level.
	if filepath.Base(path) == ConfigurationName {
		path = filepath.Dir(path)
	}

	return LoadFs(afero.NewBasePathFs(afero.NewOsFs(), path))
}

// LoadFs loads the configuration from the root of configFs.
func LoadFs(configFs afero.Fs) (*Configuration, error) {
	configContents, err := afero.ReadFile(configFs, ConfigurationName)
	if err != nil {
		return nil, err
	}
	var out Configuration
	if err := yaml.UnmarshalStrict(configContents, &out); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", ConfigurationName, err)
	}
	if err := out.Validate(); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", ConfigurationName, err)
	}
	out.configFs = configFs
	return &out, nil
}

// LoadOrDefault loads the configuration from the directory, falling back to
// the defaults if the directory has no configuration file.
func LoadOrDefault(path string) (*Configuration, error) {
	cfg, err := Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		cfg = defaultConfig()
		cfg.configFs = afero.NewBasePathFs(afero.NewOsFs(), path)
		return cfg, nil
	}
	return cfg, err
}

// Initialize writes the default configuration to path. Existing files are
// left untouched.
func Initialize(path string, logger *log.Logger) (*Configuration, error) {
	if err := os.MkdirAll(path, 0700); err != nil {
		return nil, err
	}

	configFs := afero.NewBasePathFs(afero.NewOsFs(), path)
	if err := InitializeFs(configFs, logger); err != nil {
		return nil, err
	}

	return LoadFs(configFs)
}

// InitializeFs writes the default configuration to the root of configFs.
func InitializeFs(configFs afero.Fs, logger *log.Logger) error {
	exists, err := afero.Exists(configFs, ConfigurationName)
	switch {
	case err != nil:
		return err
	case exists:
		logger.Printf("%s already exists, skipping\n", ConfigurationName)
	default:
		logger.Printf("Writing %s\n", ConfigurationName)
		if err := afero.WriteFile(configFs, ConfigurationName, defaultConfigData, 0600); err != nil {
			return err
		}
	}

	logger.Printf("Creating %s/\n", LogsDirName)
	return configFs.MkdirAll(LogsDirName, 0700)
}
