package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/npezzotti/tvdash/internal/assets"
	"github.com/npezzotti/tvdash/internal/registry"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

const (
	EnvProduction  = "production"
	EnvDevelopment = "development"

	DefaultAddr            = "localhost:3000"
	DefaultUploadDir       = "uploads"
	DefaultRefreshInterval = 60 * time.Second
)

type Config struct {
	ServerAddr      string        `yaml:"server_addr"`
	Env             string        `yaml:"env"`
	UploadDir       string        `yaml:"upload_dir"`
	StaticDir       string        `yaml:"static_dir"`
	MaxUploadBytes  int64         `yaml:"max_upload_bytes"`
	AllowedOrigins  []string      `yaml:"allowed_origins"`
	IDPolicy        string        `yaml:"id_policy"`
	RefreshInterval time.Duration `yaml:"refresh_interval"`
}

func Default() *Config {
	return &Config{
		ServerAddr:      DefaultAddr,
		Env:             EnvProduction,
		UploadDir:       DefaultUploadDir,
		MaxUploadBytes:  assets.DefaultMaxBytes,
		IDPolicy:        string(registry.IDMonotonic),
		RefreshInterval: DefaultRefreshInterval,
	}
}

// Load builds the configuration from the defaults, the YAML file at path
// (skipped when path is empty), a .env file in the working directory if
// one exists, and finally the process environment.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := cfg.LoadFile(path); err != nil {
			return nil, err
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) LoadFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overrides fields with the TVDASH_* variables found by lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup("TVDASH_ADDR"); ok {
		c.ServerAddr = v
	}
	if v, ok := lookup("TVDASH_ENV"); ok {
		c.Env = v
	}
	if v, ok := lookup("TVDASH_UPLOAD_DIR"); ok {
		c.UploadDir = v
	}
	if v, ok := lookup("TVDASH_STATIC_DIR"); ok {
		c.StaticDir = v
	}
	if v, ok := lookup("TVDASH_MAX_UPLOAD_BYTES"); ok {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("TVDASH_MAX_UPLOAD_BYTES: %w", err)
		}
		c.MaxUploadBytes = n
	}
	if v, ok := lookup("TVDASH_ALLOWED_ORIGINS"); ok {
		c.AllowedOrigins = splitList(v)
	}
	if v, ok := lookup("TVDASH_ID_POLICY"); ok {
		c.IDPolicy = v
	}
	if v, ok := lookup("TVDASH_REFRESH_INTERVAL"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("TVDASH_REFRESH_INTERVAL: %w", err)
		}
		c.RefreshInterval = d
	}
	return nil
}

// AddFlags registers the server flags on fs. Values only take effect
// through ApplyFlags, and only for flags set on the command line.
func AddFlags(fs *pflag.FlagSet) {
	d := Default()
	fs.String("addr", d.ServerAddr, "server address")
	fs.String("env", d.Env, "environment (production or development)")
	fs.String("upload-dir", d.UploadDir, "directory for uploaded images")
	fs.String("static-dir", d.StaticDir, "directory with the dashboard and display pages")
	fs.Int64("max-upload-bytes", d.MaxUploadBytes, "maximum size of an uploaded image")
	fs.StringSlice("allowed-origins", nil, "comma-separated list of allowed origins for CORS")
	fs.String("id-policy", d.IDPolicy, "tv id allocation (monotonic or length)")
	fs.Duration("refresh-interval", d.RefreshInterval, "display re-pull interval")
}

func (c *Config) ApplyFlags(fs *pflag.FlagSet) error {
	var err error
	set := func(name string, apply func() error) {
		if err == nil && fs.Changed(name) {
			err = apply()
		}
	}

	set("addr", func() (e error) { c.ServerAddr, e = fs.GetString("addr"); return })
	set("env", func() (e error) { c.Env, e = fs.GetString("env"); return })
	set("upload-dir", func() (e error) { c.UploadDir, e = fs.GetString("upload-dir"); return })
	set("static-dir", func() (e error) { c.StaticDir, e = fs.GetString("static-dir"); return })
	set("max-upload-bytes", func() (e error) { c.MaxUploadBytes, e = fs.GetInt64("max-upload-bytes"); return })
	set("allowed-origins", func() (e error) { c.AllowedOrigins, e = fs.GetStringSlice("allowed-origins"); return })
	set("id-policy", func() (e error) { c.IDPolicy, e = fs.GetString("id-policy"); return })
	set("refresh-interval", func() (e error) { c.RefreshInterval, e = fs.GetDuration("refresh-interval"); return })

	return err
}

func (c *Config) Validate() error {
	if c.ServerAddr == "" {
		return fmt.Errorf("server address cannot be empty")
	}
	if c.UploadDir == "" {
		return fmt.Errorf("upload dir cannot be empty")
	}
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("max upload bytes must be positive, got %d", c.MaxUploadBytes)
	}
	if c.RefreshInterval <= 0 {
		return fmt.Errorf("refresh interval must be positive, got %s", c.RefreshInterval)
	}
	if c.Env != EnvProduction && c.Env != EnvDevelopment {
		return fmt.Errorf("unknown env %q", c.Env)
	}
	if _, err := registry.ParseIDPolicy(c.IDPolicy); err != nil {
		return err
	}
	return nil
}

func (c *Config) IsDevelopment() bool {
	return c.Env == EnvDevelopment
}

// Policy returns the parsed id policy. Validate must have succeeded.
func (c *Config) Policy() registry.IDPolicy {
	p, _ := registry.ParseIDPolicy(c.IDPolicy)
	return p
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
