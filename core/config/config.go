package config

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/afero"
	"sigs.k8s.io/yaml"
)

var (
	//go:embed default/config.yaml
	defaultConfigData []byte
)

const (
	ConfigurationName = "config.yaml"
	LogsDirName       = "session_logs"
	AppLogName        = "app.log"
)

// Color modes.
const (
	ColorAlways = "always"
	ColorAuto   = "auto"
	ColorNever  = "never"
)

type Configuration struct {
	configFs afero.Fs

	Prompt         string   `json:"prompt" validate:"required"`
	Color          string   `json:"color" validate:"oneof=always auto never"`
	Greeting       bool     `json:"greeting"`
	EventLog       bool     `json:"event_log"`
	RecordSessions bool     `json:"record_sessions"`
	EscapeTimeout  Duration `json:"escape_timeout" validate:"gte=0"`
}

// Validate the configuration for basic semantic errors.
func (c *Configuration) Validate() error {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		return name
	})

	return validate.Struct(c)
}

// UseColor reports whether output should be colored given whether it's
// going to a terminal.
func (c *Configuration) UseColor(isTerminal bool) bool {
	switch c.Color {
	case ColorAlways:
		return true
	case ColorNever:
		return false
	default:
		return isTerminal
	}
}

// Duration is a time.Duration written as a string like "50ms".
type Duration time.Duration

// MarshalJSON implements json.Marshaler.
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Duration) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("duration must be a string like \"50ms\": %w", err)
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

func (c *Configuration) fs() afero.Fs {
	return c.configFs
}

// CreateSessionLog creates a file in the session log directory.
func (c *Configuration) CreateSessionLog(name string) (afero.File, error) {
	if err := c.fs().MkdirAll(LogsDirName, 0700); err != nil {
		return nil, err
	}
	toCreate := filepath.Join(LogsDirName, name)
	return c.fs().Create(toCreate)
}

// OpenSessionLog opens a file in the session log directory for reading.
func (c *Configuration) OpenSessionLog(name string) (afero.File, error) {
	return c.fs().Open(filepath.Join(LogsDirName, name))
}

// OpenAppLog opens the application log in an append only state.
func (c *Configuration) OpenAppLog() (afero.File, error) {
	return c.fs().OpenFile(AppLogName, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
}

func (c *Configuration) ReadAppLog() (afero.File, error) {
	return c.fs().OpenFile(AppLogName, os.O_RDONLY, 0600)
}

func defaultConfig() *Configuration {
	var out Configuration
	if err := yaml.UnmarshalStrict(defaultConfigData, &out); err != nil {
		panic(err)
	}
	return &out
}
