package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type LoggingCfg struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
	RunLog      string `mapstructure:"run_log"`
}

// PolicyCfg holds the header stamped on generated documents.
type PolicyCfg struct {
	Creator      string `mapstructure:"creator"`
	Organization string `mapstructure:"organization"`
	Version      string `mapstructure:"version"`
}

type TransformerCfg struct {
	Endpoint string        `mapstructure:"endpoint"`
	Plugin   string        `mapstructure:"plugin"`
	Token    string        `mapstructure:"token"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

type OutputCfg struct {
	Dir string `mapstructure:"dir"`
}

type LedgerCfg struct {
	Enabled  bool   `mapstructure:"enabled"`
	Driver   string `mapstructure:"driver"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Database string `mapstructure:"database"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
}

type Config struct {
	Version     string         `mapstructure:"version"`
	Policy      PolicyCfg      `mapstructure:"policy"`
	Transformer TransformerCfg `mapstructure:"transformer"`
	Output      OutputCfg      `mapstructure:"output"`
	Logging     LoggingCfg     `mapstructure:"logging"`
	Ledger      LedgerCfg      `mapstructure:"ledger"`
}

// EnvPrefix prefixes environment overrides, e.g. POLICR_TRANSFORMER_TOKEN.
const EnvPrefix = "POLICR"

// DefaultPlugin is the transformer plugin that handles MISP events.
const DefaultPlugin = "misp.MispTransformer"

var cfg *Config

// LoadEnv reads KEY=VALUE pairs from the given .env files into the process
// environment. Missing files are ignored; existing variables win.
func LoadEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if _, err := os.Stat(f); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

// Load populates global config from a viper instance
func Load(v *viper.Viper) error {
	// set defaults
	v.SetDefault("version", "0.1")
	v.SetDefault("policy.creator", "")
	v.SetDefault("policy.organization", "")
	v.SetDefault("policy.version", "1")
	v.SetDefault("transformer.endpoint", "")
	v.SetDefault("transformer.plugin", DefaultPlugin)
	v.SetDefault("transformer.token", "")
	v.SetDefault("transformer.timeout", "0s")
	v.SetDefault("output.dir", ".")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.development", false)
	v.SetDefault("logging.run_log", "")
	v.SetDefault("ledger.enabled", false)
	v.SetDefault("ledger.driver", "postgres")
	v.SetDefault("ledger.host", "127.0.0.1")
	v.SetDefault("ledger.port", 0)
	v.SetDefault("ledger.database", "policr")
	v.SetDefault("ledger.user", "")
	v.SetDefault("ledger.password", "")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return fmt.Errorf("unmarshal config: %w", err)
	}
	if c.Ledger.Enabled {
		switch c.Ledger.Driver {
		case "postgres", "mysql", "sqlite3":
		default:
			return fmt.Errorf("unsupported ledger driver: %s", c.Ledger.Driver)
		}
	}
	cfg = &c
	return nil
}

func Get() *Config {
	if cfg == nil {
		cfg = &Config{}
	}
	return cfg
}
