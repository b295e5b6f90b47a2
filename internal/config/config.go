package config

import (
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/cockroachdb/errors"
)

const DefaultFile = "declgen.toml"

type Config struct {
	Input    Input    `toml:"input"`
	Generate Generate `toml:"generate"`
	Output   Output   `toml:"output"`
	Watch    Watch    `toml:"watch"`
	Log      Log      `toml:"log"`
	Metrics  Metrics  `toml:"metrics"`
}

type Input struct {
	Files []string `toml:"files"`
}

type Generate struct {
	Roots          []string `toml:"roots"` // qualified names or glob patterns
	Parallelism    int      `toml:"parallelism"`
	KeepUnresolved bool     `toml:"keep_unresolved"`
}

type Output struct {
	Dir           string `toml:"dir"`
	Template      string `toml:"template"` // plain, interop or go-struct
	Target        string `toml:"target"`   // csharp or go
	TemplatesDir  string `toml:"templates_dir"`
	RootNamespace string `toml:"root_namespace"`
	Extension     string `toml:"extension"`
	Naming        string `toml:"naming"` // local or qualified
	GoPackage     string `toml:"go_package"`
	Clean         bool   `toml:"clean"`
}

type Watch struct {
	Debounce time.Duration `toml:"debounce"`
	Ignore   []string      `toml:"ignore"`
}

type Log struct {
	JSON  bool   `toml:"json"`
	Level string `toml:"level"`
}

type Metrics struct {
	File string `toml:"file"` // prometheus textfile, empty disables export
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "could not read config %s", path)
	}

	var cfg Config
	if _, err := toml.Decode(string(data), &cfg); err != nil {
		return nil, errors.Wrapf(err, "could not decode config %s", path)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrapf(err, "invalid config %s", path)
	}
	return &cfg, nil
}

func (cfg *Config) applyDefaults() {
	if cfg.Generate.Parallelism <= 0 {
		cfg.Generate.Parallelism = 1
	}
	if cfg.Output.Dir == "" {
		cfg.Output.Dir = "gen_dir"
	}
	if cfg.Output.Template == "" {
		cfg.Output.Template = "plain"
		if cfg.Output.Target == "go" {
			cfg.Output.Template = "go-struct"
		}
	}
	if cfg.Output.Target == "" {
		cfg.Output.Target = "csharp"
		if cfg.Output.Template == "go-struct" {
			cfg.Output.Target = "go"
		}
	}
	if cfg.Output.RootNamespace == "" {
		cfg.Output.RootNamespace = "BrowserInterop"
	}
	if cfg.Output.Extension == "" {
		cfg.Output.Extension = ".cs"
		if cfg.Output.Target == "go" {
			cfg.Output.Extension = ".go"
		}
	}
	if cfg.Output.Naming == "" {
		cfg.Output.Naming = "local"
	}
	if cfg.Output.GoPackage == "" {
		cfg.Output.GoPackage = "generated"
	}
	if cfg.Watch.Debounce == 0 {
		cfg.Watch.Debounce = 500 * time.Millisecond
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
}

// Validate checks the values flags and files may have set.
func (cfg *Config) Validate() error {
	switch cfg.Output.Target {
	case "csharp", "go":
	default:
		return errors.WithHint(errors.Newf("unknown output target %q", cfg.Output.Target), "use csharp or go")
	}
	switch cfg.Output.Naming {
	case "local", "qualified":
	default:
		return errors.WithHint(errors.Newf("unknown artifact naming %q", cfg.Output.Naming), "use local or qualified")
	}
	if cfg.Output.Template == "go-struct" && cfg.Output.Target != "go" {
		return errors.New("the go-struct template requires target go")
	}
	if cfg.Output.Target == "go" && cfg.Output.Template != "go-struct" {
		return errors.WithHint(
			errors.Newf("template %q renders C# and cannot be used with target go", cfg.Output.Template),
			"use the go-struct template or target csharp")
	}
	if cfg.Generate.Parallelism < 1 {
		return errors.Newf("parallelism must be positive, got %d", cfg.Generate.Parallelism)
	}
	switch cfg.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return errors.Newf("unknown log level %q", cfg.Log.Level)
	}
	return nil
}
