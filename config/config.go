// Package config loads checkparams settings from a TOML file.
package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"time"

	"github.com/BurntSushi/toml"
)

// DefaultFile is looked up in the working directory when no path is given.
const DefaultFile = "checkparams.toml"

type Config struct {
	RubyVersion string      `toml:"ruby_version"`
	Strict      bool        `toml:"strict"`
	Format      string      `toml:"format"`
	Tags        TagsConfig  `toml:"tags"`
	Watch       WatchConfig `toml:"watch"`
}

// TagsConfig lists the metadata tags the parser knows.
type TagsConfig struct {
	Param []string `toml:"param"`
	Quiet []string `toml:"quiet"`
}

type WatchConfig struct {
	Debounce Duration `toml:"debounce"`
}

type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Default returns the built-in settings.
func Default() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

// Load reads path. An empty path means DefaultFile, which may be absent.
func Load(path string) (*Config, error) {
	optional := path == ""
	if optional {
		path = DefaultFile
	}
	path = os.ExpandEnv(path)

	if _, err := os.Stat(path); os.IsNotExist(err) {
		if optional {
			return Default(), nil
		}
		return nil, fmt.Errorf("config file not found: %s", path)
	}

	var cfg Config
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("unknown config key %q in %s", undecoded[0].String(), path)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.RubyVersion == "" {
		c.RubyVersion = "1.9.1"
	}
	if c.Format == "" {
		c.Format = "text"
	}
	if c.Tags.Param == nil {
		c.Tags.Param = []string{"@param", "@arg"}
	}
	if c.Tags.Quiet == nil {
		c.Tags.Quiet = []string{"@raise", "@return", "@todo"}
	}
	if c.Watch.Debounce.Duration == 0 {
		c.Watch.Debounce.Duration = 250 * time.Millisecond
	}
}

func (c *Config) Validate() error {
	if !slices.Contains([]string{"text", "json"}, c.Format) {
		return fmt.Errorf("unknown format %q", c.Format)
	}
	if len(c.Tags.Param) == 0 {
		return errors.New("tags.param must not be empty")
	}
	for _, tag := range append(slices.Clone(c.Tags.Param), c.Tags.Quiet...) {
		if len(tag) < 2 || tag[0] != '@' {
			return fmt.Errorf("invalid tag %q", tag)
		}
	}
	if c.Watch.Debounce.Duration < 0 {
		return errors.New("watch.debounce must not be negative")
	}
	return nil
}
