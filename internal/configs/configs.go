package configs

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	EnvAPIKey    = "BINANCE_API_KEY"
	EnvAPISecret = "BINANCE_API_SECRET"
	EnvTestnet   = "BINANCE_TESTNET"
	EnvProxy     = "BINANCE_PROXY"

	DefaultEnvFile = ".env"
)

type Config struct {
	Log Log `json:"log" yaml:"log"`

	// 交易所配置
	ExchangeConfig ExchangeConfig `json:"exchange_config" yaml:"exchange_config"`
}

type Log struct {
	File  string `json:"file" yaml:"file"`   // 日志文件路径
	Level string `json:"level" yaml:"level"` // 日志级别
}

type ExchangeConfig struct {
	Testnet    bool          `json:"testnet" yaml:"testnet"`
	APIKey     string        `json:"api_key" yaml:"api_key"`         // 交易所API密钥
	SecretKey  string        `json:"secret_key" yaml:"secret_key"`   // 交易所密钥
	BaseURL    string        `json:"base_url" yaml:"base_url"`       // 覆盖默认接口地址
	RecvWindow int64         `json:"recv_window" yaml:"recv_window"` // 毫秒
	Timeout    time.Duration `json:"timeout" yaml:"timeout"`         // 请求超时, eg: 10s
	Proxy      string        `json:"proxy" yaml:"proxy"`
}

// Default returns the configuration used when no file is given
func Default() *Config {
	return &Config{
		Log: Log{
			File:  "bot.log",
			Level: "info",
		},
		ExchangeConfig: ExchangeConfig{
			RecvWindow: 5000,
			Timeout:    10 * time.Second,
		},
	}
}

// Load reads a YAML config file on top of the defaults. An empty path returns the defaults.
func Load(path string) (*Config, error) {
	config := Default()
	if path == "" {
		return config, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("fail to load config file '%s': %w", path, err)
	}

	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("fail to decode config file '%s': %w", path, err)
	}

	return config, nil
}

// ApplyEnv overlays BINANCE_* environment variables; unset or empty variables are ignored
func (c *Config) ApplyEnv() error {
	if v := os.Getenv(EnvAPIKey); v != "" {
		c.ExchangeConfig.APIKey = v
	}
	if v := os.Getenv(EnvAPISecret); v != "" {
		c.ExchangeConfig.SecretKey = v
	}
	if v := os.Getenv(EnvProxy); v != "" {
		c.ExchangeConfig.Proxy = v
	}
	if v := os.Getenv(EnvTestnet); v != "" {
		testnet, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("env '%s' is not a boolean: %q", EnvTestnet, v)
		}
		c.ExchangeConfig.Testnet = testnet
	}
	return nil
}

// LoadDotEnv loads KEY=VALUE pairs from path (DefaultEnvFile when empty) into the environment
// without overriding variables that are already set. A missing file is not an error.
func LoadDotEnv(path string) error {
	if path == "" {
		path = DefaultEnvFile
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("fail to load env file '%s': %w", path, err)
	}
	return nil
}
