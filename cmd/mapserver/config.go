package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// siteConfig holds settings from the viewer.cfg file at the site root.
type siteConfig struct {
	Expires       duration          `toml:"expires"`
	StaticExpires duration          `toml:"staticexpires"`
	Headers       map[string]string `toml:"headers"`
}

// loadSiteConfig reads viewer.cfg from the site root. A missing file
// is not an error; defaults apply.
func loadSiteConfig(root string) (*siteConfig, error) {
	var cfg siteConfig
	data, err := os.ReadFile(filepath.Join(root, "viewer.cfg"))
	if errors.Is(err, fs.ErrNotExist) {
		return &cfg, nil
	} else if err != nil {
		return nil, fmt.Errorf("loadSiteConfig: %w", err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("loadSiteConfig: %w", err)
	}
	return &cfg, nil
}

type duration time.Duration

func (d duration) String() string {
	return time.Duration(d).String()
}

func (d duration) MarshalText() (text []byte, err error) {
	return []byte(time.Duration(d).String()), nil
}

func (d *duration) UnmarshalText(text []byte) error {
	p, err := time.ParseDuration(string(text))
	*d = duration(p)
	return err
}
