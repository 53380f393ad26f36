package aave

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"
	"go.uber.org/zap"

	"tvlScope/internal/model"
)

// DefaultGasLimit bounds the simulated eth_call. Low limits make the node
// abort getReservesData with out-of-gas on large markets.
const DefaultGasLimit uint64 = 30_000_000

var (
	ErrSchemaMismatch    = errors.New("unexpected getReservesData response shape")
	ErrContractExecution = errors.New("contract execution reverted")
	ErrFetch             = errors.New("fetch reserves data")
	ErrMalformedRecord   = errors.New("malformed reserve record")
)

// Caller issues a read-only contract call. *chain.Client satisfies it.
type Caller interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// FetchConfig identifies the aggregator contract and the market to query.
type FetchConfig struct {
	Aggregator common.Address
	Provider   common.Address
	GasLimit   uint64
}

// Fetcher reads reserves data from a UiPoolDataProvider contract.
type Fetcher struct {
	caller      Caller
	contractABI abi.ABI
	cfg         FetchConfig
	logger      *zap.Logger
}

// NewFetcher builds a Fetcher with its dependencies.
func NewFetcher(caller Caller, contractABI abi.ABI, cfg FetchConfig, logger *zap.Logger) *Fetcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.GasLimit == 0 {
		cfg.GasLimit = DefaultGasLimit
	}
	return &Fetcher{
		caller:      caller,
		contractABI: contractABI,
		cfg:         cfg,
		logger:      logger,
	}
}

// Fetch calls getReservesData(provider) once at the latest block and
// validates the response shape.
func (f *Fetcher) Fetch(ctx context.Context) (model.ReservesData, error) {
	if f.caller == nil {
		return model.ReservesData{}, fmt.Errorf("%w: chain client is nil", ErrFetch)
	}
	method, ok := f.contractABI.Methods[MethodGetReservesData]
	if !ok {
		return model.ReservesData{}, fmt.Errorf("%w: abi has no %s method", ErrSchemaMismatch, MethodGetReservesData)
	}
	if err := ValidateOutputs(method); err != nil {
		return model.ReservesData{}, err
	}

	data, err := f.contractABI.Pack(MethodGetReservesData, f.cfg.Provider)
	if err != nil {
		return model.ReservesData{}, fmt.Errorf("%w: pack %s: %w", ErrFetch, MethodGetReservesData, err)
	}

	aggregator := f.cfg.Aggregator
	msg := ethereum.CallMsg{To: &aggregator, Gas: f.cfg.GasLimit, Data: data}

	f.logger.Debug("call contract",
		zap.String("method", MethodGetReservesData),
		zap.String("to", aggregator.Hex()),
		zap.String("provider", f.cfg.Provider.Hex()),
		zap.Uint64("gas", f.cfg.GasLimit),
	)

	resp, err := f.caller.CallContract(ctx, msg, nil)
	if err != nil {
		return model.ReservesData{}, classifyCallError(err)
	}
	if len(resp) == 0 {
		return model.ReservesData{}, fmt.Errorf("%w: empty response from %s (no contract code?)", ErrFetch, aggregator.Hex())
	}

	values, err := f.contractABI.Unpack(MethodGetReservesData, resp)
	if err != nil {
		return model.ReservesData{}, fmt.Errorf("%w: unpack %s: %w", ErrFetch, MethodGetReservesData, err)
	}

	result, err := DecodeReservesData(values)
	if err != nil {
		return model.ReservesData{}, err
	}

	malformed := 0
	for _, entry := range result.Reserves {
		if entry.Err != nil {
			malformed++
		}
	}
	f.logger.Info("reserves fetched",
		zap.Int("reserves", len(result.Reserves)),
		zap.Int("malformed", malformed),
		zap.Uint8("price_decimals", result.Base.PriceDecimals),
	)

	return result, nil
}

func classifyCallError(err error) error {
	var dataErr rpc.DataError
	if errors.As(err, &dataErr) {
		if reason, ok := revertReason(dataErr.ErrorData()); ok {
			return fmt.Errorf("%w: %s", ErrContractExecution, reason)
		}
	}
	if strings.Contains(strings.ToLower(err.Error()), "execution reverted") {
		return fmt.Errorf("%w: %v", ErrContractExecution, err)
	}
	return fmt.Errorf("%w: call %s: %w", ErrFetch, MethodGetReservesData, err)
}

// revertReason decodes Error(string) revert data. Custom errors are returned
// as their raw hex payload.
func revertReason(data interface{}) (string, bool) {
	encoded, ok := data.(string)
	if !ok {
		return "", false
	}
	raw, err := hexutil.Decode(encoded)
	if err != nil || len(raw) == 0 {
		return "", false
	}
	reason, err := abi.UnpackRevert(raw)
	if err != nil {
		return encoded, true
	}
	return reason, true
}
