package shell

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
)

// Env is the environment the interpreter reads variables from and exports
// variables to.
type Env interface {
	// Setenv sets the value of the environment variable named by the key.
	// It returns an error, if any.
	Setenv(key, value string) error

	// LookupEnv retrieves the value of the environment variable named by the key.
	// If the variable is present in the environment the value (which may be
	// empty) is returned and the boolean is true. Otherwise the returned value
	// will be empty and the boolean will be false.
	LookupEnv(key string) (string, bool)

	// Getenv retrieves the value of the environment variable named by the key.
	// It returns the value, which will be empty if the variable is not present.
	Getenv(key string) string

	// Environ returns a copy of strings representing the environment, in the
	// form "key=value".
	Environ() []string
}

// OSEnv is the process environment. Values set here are inherited by every
// child started afterwards.
type OSEnv struct{}

var _ Env = OSEnv{}

// Setenv implements Env.Setenv.
func (OSEnv) Setenv(key, value string) error { return os.Setenv(key, value) }

// LookupEnv implements Env.LookupEnv.
func (OSEnv) LookupEnv(key string) (string, bool) { return os.LookupEnv(key) }

// Getenv implements Env.Getenv.
func (OSEnv) Getenv(key string) string { return os.Getenv(key) }

// Environ implements Env.Environ.
func (OSEnv) Environ() []string { return os.Environ() }

// NewMapEnv creates a new environment backed by a map.
func NewMapEnv() *MapEnv {
	return &MapEnv{}
}

// NewMapEnvFromEnvList creates an environment from "key=value" pairs.
func NewMapEnvFromEnvList(environ []string) *MapEnv {
	out := &MapEnv{}

	for _, e := range environ {
		split := strings.SplitN(e, "=", 2)
		key, value := split[0], ""
		if len(split) > 1 {
			value = split[1]
		}
		// Ignore error, it will never be set for MapEnv.
		_ = out.Setenv(key, value)
	}

	return out
}

// MapEnv implements an in-memory Env.
type MapEnv struct {
	rw  sync.RWMutex
	env map[string]string
}

var _ Env = (*MapEnv)(nil)

// Setenv implements Env.Setenv.
func (m *MapEnv) Setenv(key, value string) error {
	m.rw.Lock()
	defer m.rw.Unlock()

	if m.env == nil {
		m.env = make(map[string]string)
	}
	m.env[key] = value
	return nil
}

// LookupEnv implements Env.LookupEnv.
func (m *MapEnv) LookupEnv(key string) (string, bool) {
	m.rw.RLock()
	defer m.rw.RUnlock()

	val, ok := m.env[key]
	return val, ok
}

// Getenv implements Env.Getenv.
func (m *MapEnv) Getenv(key string) string {
	val, _ := m.LookupEnv(key)
	return val
}

// Environ implements Env.Environ. Entries are sorted by key.
func (m *MapEnv) Environ() []string {
	m.rw.RLock()
	defer m.rw.RUnlock()

	var env []string
	for k, v := range m.env {
		env = append(env, fmt.Sprintf("%s=%s", k, v))
	}
	sort.Strings(env)

	return env
}
