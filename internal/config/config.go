// Package config loads journey360 settings from embedded defaults, an
// optional YAML file, JOURNEY360_* environment variables and bound flags, in
// increasing order of precedence.
package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-journey360/internal/logging"
	"github.com/goliatone/go-journey360/pkg/render/themes"
	"github.com/goliatone/go-journey360/pkg/schema"
)

// EnvPrefix prefixes every environment override, e.g. JOURNEY360_STORE_DSN.
const EnvPrefix = "JOURNEY360"

// FileName is the config file name searched for, without extension.
const FileName = "journey360"

//go:embed defaults.yaml
var defaultsYAML []byte

// ErrInvalid wraps every problem reported by Validate.
var ErrInvalid = errors.New("config: invalid configuration")

type Server struct {
	Addr          string        `yaml:"addr" mapstructure:"addr"`
	ShutdownGrace time.Duration `yaml:"shutdown_grace" mapstructure:"shutdown_grace"`
}

type Store struct {
	DSN string `yaml:"dsn" mapstructure:"dsn"`
}

type Log struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

type Theme struct {
	Name    string `yaml:"name" mapstructure:"name"`
	Variant string `yaml:"variant" mapstructure:"variant"`
}

// Mock configures the mock API generator and server. A zero seed seeds from
// the clock.
type Mock struct {
	Seed       int64   `yaml:"seed" mapstructure:"seed"`
	ErrorRate  float64 `yaml:"error_rate" mapstructure:"error_rate"`
	DelayScale float64 `yaml:"delay_scale" mapstructure:"delay_scale"`
}

type Parser struct {
	DefaultLayout string `yaml:"default_layout" mapstructure:"default_layout"`
}

// Config is the typed view over every supported key.
type Config struct {
	Server Server `yaml:"server" mapstructure:"server"`
	Store  Store  `yaml:"store" mapstructure:"store"`
	Log    Log    `yaml:"log" mapstructure:"log"`
	Theme  Theme  `yaml:"theme" mapstructure:"theme"`
	Mock   Mock   `yaml:"mock" mapstructure:"mock"`
	Parser Parser `yaml:"parser" mapstructure:"parser"`

	// File is the config file that was read, if any.
	File string `yaml:"-" mapstructure:"-"`
}

// Defaults returns the embedded defaults.
func Defaults() Config {
	var cfg Config
	if err := yaml.Unmarshal(defaultsYAML, &cfg); err != nil {
		panic(fmt.Sprintf("config: embedded defaults: %v", err))
	}
	return cfg
}

// Option customises Load.
type Option func(*loader)

type loader struct {
	file        string
	searchPaths []string
	binders     []func(*viper.Viper) error
}

// WithFile reads an explicit config file. A missing file is an error.
func WithFile(path string) Option {
	return func(l *loader) {
		l.file = strings.TrimSpace(path)
	}
}

// WithSearchPaths replaces the directories searched for journey360.yaml.
func WithSearchPaths(paths ...string) Option {
	return func(l *loader) {
		l.searchPaths = append([]string(nil), paths...)
	}
}

// WithBinder runs fn against the viper instance before decoding. Commands
// use it to bind their flags.
func WithBinder(fn func(*viper.Viper) error) Option {
	return func(l *loader) {
		if fn != nil {
			l.binders = append(l.binders, fn)
		}
	}
}

// DefaultSearchPaths lists ".", "$HOME/.journey360" and "/etc/journey360".
func DefaultSearchPaths() []string {
	paths := []string{"."}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".journey360"))
	}
	return append(paths, "/etc/journey360")
}

// Load resolves the configuration and validates it.
func Load(options ...Option) (Config, error) {
	l := &loader{searchPaths: DefaultSearchPaths()}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(l)
	}

	v := viper.New()
	v.SetConfigType("yaml")
	if err := v.ReadConfig(bytes.NewReader(defaultsYAML)); err != nil {
		return Config{}, fmt.Errorf("config: read defaults: %w", err)
	}

	if l.file != "" {
		v.SetConfigFile(l.file)
		if err := v.MergeInConfig(); err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", l.file, err)
		}
	} else {
		v.SetConfigName(FileName)
		for _, path := range l.searchPaths {
			v.AddConfigPath(path)
		}
		if err := v.MergeInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return Config{}, fmt.Errorf("config: read config file: %w", err)
			}
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for _, bind := range l.binders {
		if err := bind(v); err != nil {
			return Config{}, fmt.Errorf("config: bind flags: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: decode: %w", err)
	}
	cfg.File = v.ConfigFileUsed()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports every out-of-range value at once.
func (c Config) Validate() error {
	var problems []string
	if strings.TrimSpace(c.Server.Addr) == "" {
		problems = append(problems, "server.addr is required")
	}
	if c.Server.ShutdownGrace < 0 {
		problems = append(problems, "server.shutdown_grace must not be negative")
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		problems = append(problems, err.Error())
	}
	if _, err := logging.ParseFormat(c.Log.Format); err != nil {
		problems = append(problems, err.Error())
	}
	if c.Theme.Variant != "" && c.Theme.Variant != themes.VariantLight && c.Theme.Variant != themes.VariantDark {
		problems = append(problems, fmt.Sprintf("theme.variant %q must be light or dark", c.Theme.Variant))
	}
	if c.Mock.ErrorRate < 0 || c.Mock.ErrorRate > 1 {
		problems = append(problems, "mock.error_rate must be between 0 and 1")
	}
	if c.Mock.DelayScale < 0 {
		problems = append(problems, "mock.delay_scale must not be negative")
	}
	if _, err := schema.ParseLayout(c.Parser.DefaultLayout); err != nil {
		problems = append(problems, fmt.Sprintf("parser.default_layout: %v", err))
	}
	if len(problems) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(problems, "; "))
}

// Layout returns the parsed default layout.
func (c Config) Layout() schema.Layout {
	layout, err := schema.ParseLayout(c.Parser.DefaultLayout)
	if err != nil {
		return schema.LayoutSimple
	}
	return layout
}

// Write encodes the configuration as YAML.
func (c Config) Write(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return fmt.Errorf("config: encode: %w", err)
	}
	return enc.Close()
}
