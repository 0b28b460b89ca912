package config

import (
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"gopkg.in/yaml.v2"
)

func TestBuiltinConfig(t *testing.T) {
	rawConfig := make(map[string]interface{})
	assert.Nil(t, yaml.Unmarshal(defaultConfigData, &rawConfig))

	knownFields := make(map[string]bool)
	rt := reflect.TypeOf(Configuration{})
	for i := 0; i < rt.NumField(); i++ {
		field := rt.Field(i)
		if !field.IsExported() {
			continue
		}

		jsonTag := field.Tag.Get("json")
		assert.NotEmpty(t, jsonTag)
		jsonField := strings.Split(jsonTag, ",")[0]
		knownFields[jsonField] = true

		if _, ok := rawConfig[jsonField]; !ok {
			assert.False(t, true, "default config missing field: %q", jsonField)
		}
	}

	for k := range rawConfig {
		_, ok := knownFields[k]
		assert.True(t, ok, "default config contains invalid field: %q", k)
	}
}

func TestDefaultConfig(t *testing.T) {
	// Will panic() on load failure because it should never happen at runtime.
	cfg := defaultConfig()

	assert.NoError(t, cfg.Validate())
	assert.Equal(t, "cash> ", cfg.Prompt)
	assert.Equal(t, ColorAuto, cfg.Color)
	assert.True(t, cfg.Greeting)
	assert.False(t, cfg.EventLog)
	assert.False(t, cfg.RecordSessions)
	assert.Equal(t, 50*time.Millisecond, time.Duration(cfg.EscapeTimeout))
}

func TestLoadFs(t *testing.T) {
	cases := map[string]struct {
		contents string
		wantErr  bool
	}{
		"minimal":         {"prompt: '$ '\ncolor: never\n", false},
		"unknown field":   {"prompt: '$ '\ncolor: never\nmotd: hi\n", true},
		"bad color":       {"prompt: '$ '\ncolor: sometimes\n", true},
		"missing prompt":  {"color: never\n", true},
		"bad duration":    {"prompt: '$ '\ncolor: never\nescape_timeout: soon\n", true},
		"negative timout": {"prompt: '$ '\ncolor: never\nescape_timeout: -1s\n", true},
		"zero timeout":    {"prompt: '$ '\ncolor: never\nescape_timeout: 0s\n", false},
	}

	for tn, tc := range cases {
		t.Run(tn, func(t *testing.T) {
			fs := afero.NewMemMapFs()
			assert.NoError(t, afero.WriteFile(fs, ConfigurationName, []byte(tc.contents), 0600))

			_, err := LoadFs(fs)
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfiguration_UseColor(t *testing.T) {
	cases := []struct {
		color      string
		isTerminal bool
		expected   bool
	}{
		{ColorAlways, false, true},
		{ColorAlways, true, true},
		{ColorNever, true, false},
		{ColorNever, false, false},
		{ColorAuto, true, true},
		{ColorAuto, false, false},
	}

	for _, tc := range cases {
		cfg := &Configuration{Color: tc.color}
		assert.Equal(t, tc.expected, cfg.UseColor(tc.isTerminal), "color: %s, terminal: %v", tc.color, tc.isTerminal)
	}
}

func TestDuration_MarshalJSON(t *testing.T) {
	out, err := Duration(1500 * time.Millisecond).MarshalJSON()
	assert.NoError(t, err)
	assert.Equal(t, `"1.5s"`, string(out))
}
