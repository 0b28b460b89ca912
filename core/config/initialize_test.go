package config

import (
	"io/ioutil"
	"log"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
)

func TestInitialize(t *testing.T) {
	tempDir := filepath.Join(t.TempDir(), "cash")
	if _, err := Initialize(tempDir, log.New(ioutil.Discard, "", 0)); err != nil {
		t.Fatal(err)
	}

	// Check that the config is valid
	cfg, err := Load(tempDir)
	if err != nil {
		t.Fatal(err)
	}

	t.Run("CreateSessionLog", func(t *testing.T) {
		fd, err := cfg.CreateSessionLog("session.cast")
		assert.Nil(t, err)
		fd.Close()

		fd, err = cfg.OpenSessionLog("session.cast")
		assert.Nil(t, err)
		fd.Close()
	})

	t.Run("OpenAppLog", func(t *testing.T) {
		fd, err := cfg.OpenAppLog()
		assert.Nil(t, err)
		fd.Close()

		fd, err = cfg.ReadAppLog()
		assert.Nil(t, err)
		fd.Close()
	})

	t.Run("load by file path", func(t *testing.T) {
		_, err := Load(filepath.Join(tempDir, ConfigurationName))
		assert.Nil(t, err)
	})
}

func TestInitializeFs_keepsExisting(t *testing.T) {
	fs := afero.NewMemMapFs()
	custom := []byte("prompt: '> '\ncolor: never\n")
	assert.NoError(t, afero.WriteFile(fs, ConfigurationName, custom, 0600))

	assert.NoError(t, InitializeFs(fs, log.New(ioutil.Discard, "", 0)))

	contents, err := afero.ReadFile(fs, ConfigurationName)
	assert.NoError(t, err)
	assert.Equal(t, custom, contents)

	isDir, err := afero.IsDir(fs, LogsDirName)
	assert.NoError(t, err)
	assert.True(t, isDir)
}

func TestLoadOrDefault(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "does-not-exist")

	cfg, err := LoadOrDefault(missing)
	assert.NoError(t, err)
	assert.Equal(t, defaultConfig().Prompt, cfg.Prompt)

	// Falling back to defaults doesn't create anything.
	_, err = os.Stat(missing)
	assert.True(t, os.IsNotExist(err))
}
