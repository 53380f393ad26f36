package main

import (
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"tvlScope/internal/aave"
	"tvlScope/internal/config"
)

func main() {
	root := &cobra.Command{
		Use:          "tvl",
		Short:        "Aave V3 total value locked reporter",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Fetch reserves and report TVL in USD",
		RunE:  runTVL,
	}

	runCmd.Flags().String("rpc", config.DefaultRPCURL, "Ethereum RPC URL")
	runCmd.Flags().String("abi", "", "UiPoolDataProvider ABI JSON path (empty uses the embedded ABI)")
	runCmd.Flags().String("aggregator", config.DefaultAggregator, "UiPoolDataProviderV3 contract address")
	runCmd.Flags().String("provider", config.DefaultProvider, "PoolAddressesProvider address of the market")
	runCmd.Flags().Uint64("gas-limit", aave.DefaultGasLimit, "gas ceiling for the getReservesData call")
	runCmd.Flags().String("metric", "available", "locked quantity (available, market-size)")
	runCmd.Flags().String("output", config.OutputText, "report format (text, json)")
	runCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(runCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}
