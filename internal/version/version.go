// Package version resolves the weave binary's version string for the
// --version flag, reading it from cfg/app.yaml at the repository root so
// the version lives next to the app metadata rather than being baked into
// a source constant.
package version

import (
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"gopkg.in/yaml.v3"
)

// fallback is reported when cfg/app.yaml is missing or unreadable, e.g.
// when the binary runs outside a source checkout.
const fallback = "v0.0.0-dev"

type appConfig struct {
	App struct {
		Name        string `yaml:"name"`
		Version     string `yaml:"version"`
		Description string `yaml:"description"`
	} `yaml:"app"`
}

var (
	once    sync.Once
	version string
)

// Get returns the version declared in cfg/app.yaml, resolved once per
// process.
func Get() string {
	once.Do(func() { version = load() })
	return version
}

func load() string {
	_, filename, _, ok := runtime.Caller(0)
	if !ok {
		return fallback
	}
	root := filepath.Join(filepath.Dir(filename), "../..")

	data, err := os.ReadFile(filepath.Join(root, "cfg", "app.yaml"))
	if err != nil {
		return fallback
	}

	var cfg appConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil || cfg.App.Version == "" {
		return fallback
	}
	return cfg.App.Version
}
