// Package tvl reduces decoded reserves data into a USD total value locked.
//
// Raw on-chain integers are scaled by per-asset decimals and by the market
// reference currency unit. Every division by a power of ten is taken as the
// correctly rounded float64 of the exact quotient, so identical inputs always
// produce bit-identical totals.
package tvl

import (
	"errors"
	"fmt"
	"math"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"tvlScope/internal/model"
)

// MaxAssetDecimals bounds the 10^decimals computed per reserve. Decimals are
// a uint256 on chain; anything up to this bound normalizes, possibly to zero.
const MaxAssetDecimals = 10_000

var (
	ErrZeroReferenceUnit  = errors.New("market reference currency unit is zero")
	ErrDecimalsOutOfRange = errors.New("asset decimals out of range")
	ErrMissingAmount      = errors.New("reserve amount missing")
	ErrNonFinite          = errors.New("reserve value is not finite")
)

// Metric selects which reserve quantity counts as locked.
type Metric string

const (
	// MetricTotalAvailable counts available liquidity only.
	MetricTotalAvailable Metric = "available"
	// MetricMarketSize counts available liquidity plus scaled variable debt.
	MetricMarketSize Metric = "market-size"
)

// ParseMetric validates a metric name.
func ParseMetric(value string) (Metric, error) {
	switch Metric(value) {
	case MetricTotalAvailable, MetricMarketSize:
		return Metric(value), nil
	case "":
		return MetricTotalAvailable, nil
	default:
		return "", fmt.Errorf("unknown metric %q (want %s or %s)", value, MetricTotalAvailable, MetricMarketSize)
	}
}

// Status is the per-reserve result of the reduction.
type Status string

const (
	StatusCounted    Status = "counted"
	StatusIneligible Status = "ineligible"
	StatusFailed     Status = "failed"
)

// Outcome records what happened to one reserve.
type Outcome struct {
	Position    int
	Symbol      string
	Status      Status
	Asset       common.Address
	Decimals    uint64
	SuppliedRaw *big.Int
	Normalized  float64
	ValueInRef  float64
	ValueUSD    float64
	Err         error
}

// Report is the result of one reduction pass.
type Report struct {
	Metric            Metric
	ReferencePriceUSD float64
	ReferenceUnit     *big.Int
	Outcomes          []Outcome
	TotalUSD          float64
	Counted           int
	Ineligible        int
	Failed            int
}

// Reducer folds reserves into a TVL report.
type Reducer struct {
	metric Metric
	logger *zap.Logger
}

// NewReducer builds a Reducer. An empty metric means MetricTotalAvailable.
func NewReducer(metric Metric, logger *zap.Logger) *Reducer {
	if logger == nil {
		logger = zap.NewNop()
	}
	if metric == "" {
		metric = MetricTotalAvailable
	}
	return &Reducer{metric: metric, logger: logger}
}

// ReferencePriceUSD converts the reference currency price to USD. A zero
// exponent means the raw value is already unscaled.
func ReferencePriceUSD(base model.BaseCurrencyInfo) float64 {
	raw := base.MarketReferenceCurrencyPriceInUSD
	if raw == nil {
		return 0
	}
	if base.PriceDecimals > 0 {
		return quoFloat(raw, pow10(uint64(base.PriceDecimals)))
	}
	return intFloat(raw)
}

// Reduce evaluates every reserve in input order and sums the counted values.
// Individual reserve failures are logged and contribute zero.
func (r *Reducer) Reduce(data model.ReservesData) Report {
	priceInUSD := ReferencePriceUSD(data.Base)
	unit := data.Base.MarketReferenceCurrencyUnit

	r.logger.Info("reduce reserves",
		zap.String("metric", string(r.metric)),
		zap.Float64("reference_price_usd", priceInUSD),
		zap.Stringer("reference_unit", unitStringer{unit}),
		zap.Int("reserves", len(data.Reserves)),
	)

	outcomes := lo.Map(data.Reserves, func(entry model.ReserveEntry, _ int) Outcome {
		return r.evaluate(entry, unit, priceInUSD)
	})

	total := lo.Reduce(outcomes, func(acc float64, o Outcome, _ int) float64 {
		if o.Status != StatusCounted {
			return acc
		}
		return acc + o.ValueUSD
	}, 0.0)

	report := Report{
		Metric:            r.metric,
		ReferencePriceUSD: priceInUSD,
		ReferenceUnit:     unit,
		Outcomes:          outcomes,
		TotalUSD:          total,
		Counted:           lo.CountBy(outcomes, func(o Outcome) bool { return o.Status == StatusCounted }),
		Ineligible:        lo.CountBy(outcomes, func(o Outcome) bool { return o.Status == StatusIneligible }),
		Failed:            lo.CountBy(outcomes, func(o Outcome) bool { return o.Status == StatusFailed }),
	}

	r.logger.Info("reduce complete",
		zap.Float64("total_usd", report.TotalUSD),
		zap.Int("counted", report.Counted),
		zap.Int("ineligible", report.Ineligible),
		zap.Int("failed", report.Failed),
	)
	return report
}

func (r *Reducer) evaluate(entry model.ReserveEntry, unit *big.Int, priceInUSD float64) Outcome {
	record := entry.Record
	out := Outcome{
		Position: entry.Position,
		Symbol:   record.Symbol,
		Asset:    record.UnderlyingAsset,
		Decimals: record.Decimals,
	}

	if entry.Err != nil {
		return r.fail(out, entry.Err)
	}

	if !record.IsActive || record.IsFrozen {
		out.Status = StatusIneligible
		r.logger.Debug("reserve ineligible",
			zap.Int("reserve", entry.Position+1),
			zap.String("symbol", record.Symbol),
			zap.Bool("active", record.IsActive),
			zap.Bool("frozen", record.IsFrozen),
		)
		return out
	}

	supplied, err := r.suppliedRaw(record)
	if err != nil {
		return r.fail(out, err)
	}
	out.SuppliedRaw = supplied

	if record.Decimals > MaxAssetDecimals {
		return r.fail(out, fmt.Errorf("%w: %d", ErrDecimalsOutOfRange, record.Decimals))
	}
	out.Normalized = quoFloat(supplied, pow10(record.Decimals))

	if unit == nil || unit.Sign() == 0 {
		return r.fail(out, ErrZeroReferenceUnit)
	}
	if record.PriceInMarketReferenceCurrency == nil {
		return r.fail(out, fmt.Errorf("%w: price in market reference currency", ErrMissingAmount))
	}

	out.ValueInRef = out.Normalized * intFloat(record.PriceInMarketReferenceCurrency) / intFloat(unit)
	out.ValueUSD = out.ValueInRef * priceInUSD
	if math.IsNaN(out.ValueUSD) || math.IsInf(out.ValueUSD, 0) {
		return r.fail(out, fmt.Errorf("%w: %v", ErrNonFinite, out.ValueUSD))
	}

	out.Status = StatusCounted
	r.logger.Debug("reserve counted",
		zap.Int("reserve", entry.Position+1),
		zap.String("symbol", record.Symbol),
		zap.Float64("total_locked", out.Normalized),
		zap.Float64("value_usd", out.ValueUSD),
	)
	return out
}

func (r *Reducer) suppliedRaw(record model.ReserveRecord) (*big.Int, error) {
	if record.AvailableLiquidity == nil {
		return nil, fmt.Errorf("%w: available liquidity", ErrMissingAmount)
	}
	supplied := new(big.Int).Set(record.AvailableLiquidity)
	if r.metric == MetricMarketSize {
		if record.TotalScaledVariableDebt == nil {
			return nil, fmt.Errorf("%w: total scaled variable debt", ErrMissingAmount)
		}
		supplied.Add(supplied, record.TotalScaledVariableDebt)
	}
	return supplied, nil
}

func (r *Reducer) fail(out Outcome, err error) Outcome {
	out.Status = StatusFailed
	out.Err = err
	out.ValueInRef = 0
	out.ValueUSD = 0
	r.logger.Warn("reserve skipped",
		zap.Int("reserve", out.Position+1),
		zap.String("symbol", out.Symbol),
		zap.Error(err),
	)
	return out
}

func pow10(exp uint64) *big.Int {
	return new(big.Int).Exp(big.NewInt(10), new(big.Int).SetUint64(exp), nil)
}

// quoFloat returns num/den rounded to the nearest float64.
func quoFloat(num, den *big.Int) float64 {
	f, _ := new(big.Rat).SetFrac(num, den).Float64()
	return f
}

// intFloat returns n rounded to the nearest float64.
func intFloat(n *big.Int) float64 {
	f, _ := new(big.Float).SetInt(n).Float64()
	return f
}

type unitStringer struct {
	unit *big.Int
}

func (u unitStringer) String() string {
	if u.unit == nil {
		return "<nil>"
	}
	return u.unit.String()
}
