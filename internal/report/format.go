// Package report renders a TVL reduction for humans or machines.
package report

import (
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"tvlScope/internal/tvl"
)

// Header describes where and when the reserves were read.
type Header struct {
	RPC         string
	ChainID     *big.Int
	BlockNumber uint64
	Aggregator  common.Address
	Provider    common.Address
}

const placeholder = "-"

// FormatAmount renders raw / 10^decimals with four fractional digits and
// thousands separators, computed exactly from the on-chain integer.
func FormatAmount(raw *big.Int, decimals uint64) string {
	if raw == nil || decimals > tvl.MaxAssetDecimals {
		return placeholder
	}
	return groupThousands(decimal.NewFromBigInt(raw, -int32(decimals)).StringFixed(4))
}

// FormatUSD renders a dollar value with two fractional digits.
func FormatUSD(value float64) string {
	return "$" + groupThousands(decimal.NewFromFloat(value).StringFixed(2))
}

func groupThousands(s string) string {
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	whole, frac, hasFrac := strings.Cut(s, ".")
	whole = addThousandSeparators(whole)
	if hasFrac {
		return sign + whole + "." + frac
	}
	return sign + whole
}

func addThousandSeparators(s string) string {
	if len(s) <= 3 {
		return s
	}

	var result []byte
	for i := 0; i < len(s); i++ {
		if i > 0 && (len(s)-i)%3 == 0 {
			result = append(result, ',')
		}
		result = append(result, s[i])
	}
	return string(result)
}

func chainIDString(id *big.Int) string {
	if id == nil {
		return ""
	}
	return id.String()
}
