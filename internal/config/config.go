// Package config loads wizardscore.hcl.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/lox/wizardscore/internal/game"
)

// DefaultFile is looked up in the working directory when no path is given.
const DefaultFile = "wizardscore.hcl"

// Config is the complete configuration. Every block is optional.
type Config struct {
	Storage  *StorageSettings `hcl:"storage,block"`
	Share    *ShareSettings   `hcl:"share,block"`
	Log      *LogSettings     `hcl:"log,block"`
	Defaults *RuleDefaults    `hcl:"defaults,block"`
	Server   *ServerSettings  `hcl:"server,block"`
}

// StorageSettings says where local documents live.
type StorageSettings struct {
	Dir string `hcl:"dir,optional"`
}

// ShareSettings configures the remote share endpoint. An empty URL disables
// sharing.
type ShareSettings struct {
	URL            string `hcl:"url,optional"`
	TimeoutSeconds int    `hcl:"timeout,optional"`
	// Concurrency bounds parallel fetches when importing a bundle.
	Concurrency int `hcl:"concurrency,optional"`
}

type LogSettings struct {
	Level string `hcl:"level,optional"`
	File  string `hcl:"file,optional"`
}

// RuleDefaults pre-selects house rules for new games.
type RuleDefaults struct {
	PlusMinusOne     bool `hcl:"plus_minus_one,optional"`
	RandomDealer     bool `hcl:"random_dealer,optional"`
	Expansion        bool `hcl:"expansion,optional"`
	CrowdChaos       bool `hcl:"crowd_chaos,optional"`
	AlternateScoring bool `hcl:"alternate_scoring,optional"`
}

// ServerSettings configures `wizardscore serve`.
type ServerSettings struct {
	Address string `hcl:"address,optional"`
	Port    int    `hcl:"port,optional"`
	// Store is "memory", "redis" or "postgres".
	Store       string `hcl:"store,optional"`
	RedisAddr   string `hcl:"redis_addr,optional"`
	RedisDB     int    `hcl:"redis_db,optional"`
	RedisPrefix string `hcl:"redis_prefix,optional"`
	PostgresDSN string `hcl:"postgres_dsn,optional"`
	// PostgresMaxConns caps the pool; zero leaves the pgx default.
	PostgresMaxConns int `hcl:"postgres_max_conns,optional"`
	// TTLHours expires shared games; zero keeps them forever.
	TTLHours int `hcl:"ttl_hours,optional"`
	// NATSURL enables fan-out of live frames between server instances.
	NATSURL     string `hcl:"nats_url,optional"`
	NATSSubject string `hcl:"nats_subject,optional"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

// Load reads filename. A missing file yields the defaults.
func Load(filename string) (*Config, error) {
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return Default(), nil
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}

	var c Config
	if diags := gohcl.DecodeBody(file.Body, nil, &c); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}
	c.applyDefaults()
	return &c, nil
}

func (c *Config) applyDefaults() {
	if c.Storage == nil {
		c.Storage = &StorageSettings{}
	}
	if c.Storage.Dir == "" {
		c.Storage.Dir = defaultDataDir()
	}
	c.Storage.Dir = expandHome(c.Storage.Dir)

	if c.Share == nil {
		c.Share = &ShareSettings{}
	}
	if c.Share.TimeoutSeconds == 0 {
		c.Share.TimeoutSeconds = 10
	}
	if c.Share.Concurrency == 0 {
		c.Share.Concurrency = 4
	}

	if c.Log == nil {
		c.Log = &LogSettings{}
	}
	if c.Log.Level == "" {
		c.Log.Level = "warn"
	}

	if c.Defaults == nil {
		c.Defaults = &RuleDefaults{}
	}

	if c.Server == nil {
		c.Server = &ServerSettings{}
	}
	if c.Server.Address == "" {
		c.Server.Address = "localhost"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.Store == "" {
		c.Server.Store = "memory"
	}
	if c.Server.RedisAddr == "" {
		c.Server.RedisAddr = "localhost:6379"
	}
	if c.Server.RedisPrefix == "" {
		c.Server.RedisPrefix = "wizardscore:"
	}
	if c.Server.NATSSubject == "" {
		c.Server.NATSSubject = "wizardscore.live"
	}
}

// Validate checks values the decoder cannot.
func (c *Config) Validate() error {
	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log level %q: %w", c.Log.Level, err)
	}
	if c.Share.URL != "" && !strings.HasPrefix(c.Share.URL, "http://") && !strings.HasPrefix(c.Share.URL, "https://") {
		return fmt.Errorf("share url must be http or https: %s", c.Share.URL)
	}
	if c.Share.TimeoutSeconds < 0 {
		return fmt.Errorf("share timeout must not be negative: %d", c.Share.TimeoutSeconds)
	}
	if c.Share.Concurrency < 1 {
		return fmt.Errorf("share concurrency must be positive: %d", c.Share.Concurrency)
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Server.Port)
	}
	switch c.Server.Store {
	case "memory", "redis":
	case "postgres":
		if c.Server.PostgresDSN == "" {
			return fmt.Errorf("server store postgres needs postgres_dsn")
		}
	default:
		return fmt.Errorf("server store must be memory, redis or postgres, got %q", c.Server.Store)
	}
	if c.Server.PostgresMaxConns < 0 {
		return fmt.Errorf("postgres max conns must not be negative: %d", c.Server.PostgresMaxConns)
	}
	if c.Server.NATSURL != "" && !strings.HasPrefix(c.Server.NATSURL, "nats://") && !strings.HasPrefix(c.Server.NATSURL, "tls://") {
		return fmt.Errorf("nats url must be nats or tls: %s", c.Server.NATSURL)
	}
	if c.Server.TTLHours < 0 {
		return fmt.Errorf("server ttl must not be negative: %d", c.Server.TTLHours)
	}
	return nil
}

// ShareTimeout is the per-request timeout for share calls.
func (c *Config) ShareTimeout() time.Duration {
	return time.Duration(c.Share.TimeoutSeconds) * time.Second
}

// ServerAddress returns host:port for the share server.
func (c *Config) ServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Address, c.Server.Port)
}

// Rules turns the rule defaults into game rules.
func (c *Config) Rules() game.Rules {
	return game.Rules{
		PlusMinusOne:     c.Defaults.PlusMinusOne,
		RandomDealer:     c.Defaults.RandomDealer,
		Expansion:        c.Defaults.Expansion,
		CrowdChaos:       c.Defaults.CrowdChaos,
		AlternateScoring: c.Defaults.AlternateScoring,
	}
}

func defaultDataDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "wizardscore")
	}
	return ".wizardscore"
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
