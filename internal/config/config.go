package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"tvlScope/internal/tvl"
)

const (
	DefaultRPCURL     = "https://eth.llamarpc.com"
	DefaultAggregator = "0x3F78BBD206e4D3c504Eb854232EdA7e47E9Fd8FC"
	DefaultProvider   = "0x2f39d218133AFaB8F2B819B1066c7E434Ad94E9e"
	DefaultGasLimit   = uint64(30_000_000)

	OutputText = "text"
	OutputJSON = "json"
)

// Config holds configuration values loaded from flags, env, or config file.
type Config struct {
	RPCURL     string
	ABIPath    string
	Aggregator string
	Provider   string
	GasLimit   uint64
	Metric     string
	Output     string
	LogLevel   string
}

// Load merges .env, config file, environment variables, and flags into Config.
func Load(cfgFile string, flags *pflag.FlagSet) (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("TVL")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	// Unprefixed names used by existing Infura/ABI setups.
	if err := v.BindEnv("rpc", "TVL_RPC", "INFURA_ETH_MAINNET_RPC"); err != nil {
		return Config{}, fmt.Errorf("bind env: %w", err)
	}
	if err := v.BindEnv("abi", "TVL_ABI", "UIPOOL_ABI_PATH"); err != nil {
		return Config{}, fmt.Errorf("bind env: %w", err)
	}

	v.SetDefault("rpc", DefaultRPCURL)
	v.SetDefault("abi", "")
	v.SetDefault("aggregator", DefaultAggregator)
	v.SetDefault("provider", DefaultProvider)
	v.SetDefault("gas-limit", DefaultGasLimit)
	v.SetDefault("metric", string(tvl.MetricTotalAvailable))
	v.SetDefault("output", OutputText)
	v.SetDefault("log-level", "info")

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return Config{}, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	cfg := Config{
		RPCURL:     strings.TrimSpace(v.GetString("rpc")),
		ABIPath:    strings.TrimSpace(v.GetString("abi")),
		Aggregator: strings.TrimSpace(v.GetString("aggregator")),
		Provider:   strings.TrimSpace(v.GetString("provider")),
		GasLimit:   v.GetUint64("gas-limit"),
		Metric:     strings.TrimSpace(v.GetString("metric")),
		Output:     strings.ToLower(strings.TrimSpace(v.GetString("output"))),
		LogLevel:   v.GetString("log-level"),
	}

	return cfg, nil
}

// Settings are validated, parsed configuration values.
type Settings struct {
	RPCURL     string
	ABIPath    string
	Aggregator common.Address
	Provider   common.Address
	GasLimit   uint64
	Metric     tvl.Metric
	Output     string
	LogLevel   string
}

// Resolve validates the loaded values and parses them into Settings.
func (c Config) Resolve() (Settings, error) {
	if c.RPCURL == "" {
		return Settings{}, fmt.Errorf("rpc url is required")
	}
	aggregator, err := ParseAddress(c.Aggregator)
	if err != nil {
		return Settings{}, fmt.Errorf("aggregator: %w", err)
	}
	provider, err := ParseAddress(c.Provider)
	if err != nil {
		return Settings{}, fmt.Errorf("provider: %w", err)
	}
	if c.GasLimit == 0 {
		return Settings{}, fmt.Errorf("gas limit must be positive")
	}
	metric, err := tvl.ParseMetric(c.Metric)
	if err != nil {
		return Settings{}, err
	}
	switch c.Output {
	case OutputText, OutputJSON:
	default:
		return Settings{}, fmt.Errorf("unknown output format: %s", c.Output)
	}

	return Settings{
		RPCURL:     c.RPCURL,
		ABIPath:    c.ABIPath,
		Aggregator: aggregator,
		Provider:   provider,
		GasLimit:   c.GasLimit,
		Metric:     metric,
		Output:     c.Output,
		LogLevel:   c.LogLevel,
	}, nil
}

// ParseAddress validates a hex address. The returned value prints in
// checksummed form.
func ParseAddress(input string) (common.Address, error) {
	input = strings.TrimSpace(input)
	if !common.IsHexAddress(input) {
		return common.Address{}, fmt.Errorf("invalid address: %q", input)
	}
	return common.HexToAddress(input), nil
}
