package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Ethereum  EthereumConfig  `mapstructure:"ethereum"`
	Contracts ContractsConfig `mapstructure:"contracts"`
	Trading   TradingConfig   `mapstructure:"trading"`
	Wallet    WalletConfig    `mapstructure:"wallet"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Redis     RedisConfig     `mapstructure:"redis"`
}

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

type EthereumConfig struct {
	RPCEndpoint string `mapstructure:"rpc_endpoint"`
	ChainID     int64  `mapstructure:"chain_id"`
	Network     string `mapstructure:"network"`
}

// ContractsConfig overrides the network's built-in addresses. Empty means keep.
type ContractsConfig struct {
	Curve              string `mapstructure:"curve"`
	BondingCurveRouter string `mapstructure:"bonding_curve_router"`
	DexRouter          string `mapstructure:"dex_router"`
	Wrapper            string `mapstructure:"wrapper"`
}

type TradingConfig struct {
	Profile                string `mapstructure:"profile"`
	SlippagePolicy         string `mapstructure:"slippage_policy"`
	DefaultSlippagePercent int    `mapstructure:"default_slippage_percent"`
	DeadlineSeconds        int    `mapstructure:"deadline_seconds"`
	PriorityFeeGwei        int64  `mapstructure:"priority_fee_gwei"`
	BondingSellMethod      string `mapstructure:"bonding_sell_method"`
	DexSellMethod          string `mapstructure:"dex_sell_method"`
}

func (t TradingConfig) Deadline() time.Duration {
	return time.Duration(t.DeadlineSeconds) * time.Second
}

type WalletConfig struct {
	PrivateKey string `mapstructure:"private_key"`
}

type LoggingConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

type RedisConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// Load reads config.yaml from the usual places, then MCP_* environment variables.
func Load() (*Config, error) {
	return LoadWith(viper.New())
}

// LoadWith is Load on a caller-provided viper instance.
func LoadWith(v *viper.Viper) (*Config, error) {
	if path := os.Getenv("MCP_CONFIG_PATH"); path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/nadfun-mcp/")
	}

	setDefaults(v)

	v.SetEnvPrefix("MCP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !os.IsNotExist(err) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", 8080)
	v.SetDefault("ethereum.network", "monad_testnet")
	v.SetDefault("ethereum.chain_id", 0) // 0 = the network table value
	v.SetDefault("trading.profile", "listing")
	v.SetDefault("trading.slippage_policy", "enforce")
	v.SetDefault("trading.default_slippage_percent", 0)
	v.SetDefault("trading.deadline_seconds", 300)
	v.SetDefault("trading.priority_fee_gwei", 1)
	v.SetDefault("logging.level", "info")
	v.SetDefault("redis.ttl", 24*time.Hour)

	// env-only keys still need a registered default to be unmarshaled
	for _, key := range []string{
		"ethereum.rpc_endpoint", "wallet.private_key", "logging.file",
		"contracts.curve", "contracts.bonding_curve_router", "contracts.dex_router", "contracts.wrapper",
		"trading.bonding_sell_method", "trading.dex_sell_method",
		"redis.addr", "redis.password",
	} {
		v.SetDefault(key, "")
	}
	v.SetDefault("redis.db", 0)
}

func validateConfig(config *Config) error {
	if config.Ethereum.RPCEndpoint == "" {
		return fmt.Errorf("ethereum rpc_endpoint is required")
	}
	if config.Wallet.PrivateKey == "" {
		return fmt.Errorf("wallet private_key is required")
	}
	if p := config.Trading.DefaultSlippagePercent; p < 0 || p > 100 {
		return fmt.Errorf("trading default_slippage_percent must be within 0..100, got %d", p)
	}
	if config.Trading.DeadlineSeconds <= 0 {
		return fmt.Errorf("trading deadline_seconds must be positive")
	}
	switch config.Trading.Profile {
	case "listing", "wrapper":
	default:
		return fmt.Errorf("trading profile must be listing or wrapper, got %q", config.Trading.Profile)
	}
	return nil
}

func GetConfigPath() string {
	if path := os.Getenv("MCP_CONFIG_PATH"); path != "" {
		return path
	}
	return filepath.Join(".", "config.yaml")
}
