package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"tvlScope/internal/aave"
	"tvlScope/internal/abifile"
	"tvlScope/internal/chain"
	"tvlScope/internal/config"
	"tvlScope/internal/report"
	"tvlScope/internal/tvl"
)

func runTVL(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}
	settings, err := cfg.Resolve()
	if err != nil {
		return err
	}

	logger, err := newLogger(settings.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return execute(ctx, settings, logger, cmd.OutOrStdout())
}

// execute performs one fetch-reduce-render pass. Nothing is written to out
// unless every fatal step succeeded.
func execute(ctx context.Context, cfg config.Settings, logger *zap.Logger, out io.Writer) error {
	chainClient, err := chain.NewClient(ctx, cfg.RPCURL)
	if err != nil {
		return fmt.Errorf("connect rpc: %w", err)
	}
	defer chainClient.Close()

	if !chainClient.IsConnected(ctx) {
		return fmt.Errorf("%w: %s", chain.ErrNotConnected, chainClient.URL())
	}

	chainID, err := chainClient.ChainID(ctx)
	if err != nil {
		return fmt.Errorf("chain id: %w", err)
	}
	block, err := chainClient.LatestBlockNumber(ctx)
	if err != nil {
		return fmt.Errorf("latest block: %w", err)
	}

	logger.Info("tvl start",
		zap.String("rpc", chainClient.URL()),
		zap.String("chain_id", chainID.String()),
		zap.Uint64("block", block),
		zap.String("aggregator", cfg.Aggregator.Hex()),
		zap.String("provider", cfg.Provider.Hex()),
		zap.String("metric", string(cfg.Metric)),
		zap.String("abi", abiSource(cfg.ABIPath)),
	)

	contractABI, err := loadABI(cfg.ABIPath)
	if err != nil {
		return err
	}

	fetcher := aave.NewFetcher(chainClient, contractABI, aave.FetchConfig{
		Aggregator: cfg.Aggregator,
		Provider:   cfg.Provider,
		GasLimit:   cfg.GasLimit,
	}, logger)

	data, err := fetcher.Fetch(ctx)
	if err != nil {
		return err
	}

	result := tvl.NewReducer(cfg.Metric, logger).Reduce(data)

	header := report.Header{
		RPC:         chainClient.URL(),
		ChainID:     chainID,
		BlockNumber: block,
		Aggregator:  cfg.Aggregator,
		Provider:    cfg.Provider,
	}
	if cfg.Output == config.OutputJSON {
		return report.RenderJSON(out, header, result)
	}
	return report.RenderTerminal(out, header, result)
}

func loadABI(path string) (abi.ABI, error) {
	if path == "" {
		return aave.UiPoolDataProviderABI()
	}
	return abifile.Load(path)
}

func abiSource(path string) string {
	if path == "" {
		return "embedded"
	}
	return path
}
