package config

import (
	"errors"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

const (
	// DefaultListen is the daemon's listen address when none is configured.
	DefaultListen = "127.0.0.1:41830"

	// DefaultPresignExpirySeconds is the lifetime of presigned URLs when
	// presign.expiry_seconds is unset.
	DefaultPresignExpirySeconds = 3600
)

// Environment variables that override the corresponding config values.
const (
	EnvBucket            = "SATCHEL_BUCKET"
	EnvListen            = "SATCHEL_LISTEN"
	EnvSigningPassphrase = "SATCHEL_SIGNING_PASSPHRASE"
)

type Config struct {
	Listen  string        `toml:"listen"`
	Bucket  string        `toml:"bucket"`
	Storage string        `toml:"storage"`
	Log     LogConfig     `toml:"log"`
	S3      S3Config      `toml:"s3"`
	Local   LocalConfig   `toml:"local"`
	Presign PresignConfig `toml:"presign"`
}

type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

type S3Config struct {
	Endpoint        string `toml:"endpoint"`
	Region          string `toml:"region"`
	Prefix          string `toml:"prefix"`
	AccessKeyID     string `toml:"access_key_id"`
	SecretAccessKey string `toml:"secret_access_key"`
}

type LocalConfig struct {
	Root              string `toml:"root"`
	PublicBaseURL     string `toml:"public_base_url"`
	SigningPassphrase string `toml:"signing_passphrase"`
}

type PresignConfig struct {
	ExpirySeconds int `toml:"expiry_seconds"`
}

func DefaultConfig() *Config {
	return &Config{
		Listen:  DefaultListen,
		Bucket:  "",
		Storage: "",
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		S3: S3Config{
			Endpoint: "",
			Region:   "",
			Prefix:   "",
		},
		Local: LocalConfig{
			Root:          "",
			PublicBaseURL: "",
		},
		Presign: PresignConfig{
			ExpirySeconds: DefaultPresignExpirySeconds,
		},
	}
}

func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, err
		}
	} else if !os.IsNotExist(err) {
		return nil, err
	}

	cfg.ApplyDefaults()
	cfg.applyEnv()
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) ApplyDefaults() {
	if c.Listen == "" {
		c.Listen = DefaultListen
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
	if c.Presign.ExpirySeconds == 0 {
		c.Presign.ExpirySeconds = DefaultPresignExpirySeconds
	}
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvBucket); v != "" {
		c.Bucket = v
	}
	if v := os.Getenv(EnvListen); v != "" {
		c.Listen = v
	}
}

func (c *Config) Normalize() {
	c.Listen = strings.TrimSpace(c.Listen)
	c.Bucket = strings.TrimSpace(c.Bucket)
	c.Storage = strings.ToLower(strings.TrimSpace(c.Storage))
	c.Log.Level = strings.ToLower(strings.TrimSpace(c.Log.Level))
	c.Log.Format = strings.ToLower(strings.TrimSpace(c.Log.Format))
	c.S3.Endpoint = strings.TrimSpace(c.S3.Endpoint)
	c.S3.Region = strings.TrimSpace(c.S3.Region)
	c.S3.Prefix = strings.TrimSpace(c.S3.Prefix)
	if c.S3.Prefix != "" && !strings.HasSuffix(c.S3.Prefix, "/") {
		c.S3.Prefix += "/"
	}
	c.S3.AccessKeyID = strings.TrimSpace(c.S3.AccessKeyID)
	c.S3.SecretAccessKey = strings.TrimSpace(c.S3.SecretAccessKey)
	c.Local.Root = strings.TrimSpace(c.Local.Root)
	c.Local.PublicBaseURL = strings.TrimRight(strings.TrimSpace(c.Local.PublicBaseURL), "/")
}

func (c *Config) Validate() error {
	if c.Listen == "" {
		return errors.New("listen must not be empty")
	}
	if _, _, err := net.SplitHostPort(c.Listen); err != nil {
		return errors.New("listen must be a host:port address")
	}
	switch c.Storage {
	case "", "s3", "local":
	default:
		return errors.New("storage must be s3 or local")
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return errors.New("log.level must be one of: debug,info,warn,error")
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return errors.New("log.format must be text or json")
	}
	if strings.Contains(c.Bucket, "/") {
		return errors.New("bucket must not contain '/'")
	}
	if c.Storage == "s3" && c.S3.Region == "" {
		return errors.New("s3.region is required when storage is s3")
	}
	if c.S3.Endpoint != "" && c.S3.Region == "" {
		return errors.New("s3.region is required when s3.endpoint is set")
	}
	if (c.S3.AccessKeyID == "") != (c.S3.SecretAccessKey == "") {
		return errors.New("s3.access_key_id and s3.secret_access_key must be set together")
	}
	if c.Presign.ExpirySeconds <= 0 {
		return errors.New("presign.expiry_seconds must be > 0")
	}
	if c.Local.Root != "" && !filepath.IsAbs(c.Local.Root) {
		return errors.New("local.root must be an absolute path")
	}
	if c.Local.PublicBaseURL != "" {
		u, err := url.Parse(c.Local.PublicBaseURL)
		if err != nil || u.Host == "" {
			return errors.New("local.public_base_url must be a valid http(s) URL")
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return errors.New("local.public_base_url must use http or https")
		}
	}
	return nil
}

// Backend resolves the storage selector: an explicit value wins, otherwise
// s3 when a region is configured, local when not.
func (c *Config) Backend() string {
	if c.Storage != "" {
		return c.Storage
	}
	if c.S3.Region != "" {
		return "s3"
	}
	return "local"
}
