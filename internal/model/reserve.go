package model

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// BaseCurrencyInfo describes the market reference currency returned alongside reserves.
type BaseCurrencyInfo struct {
	MarketReferenceCurrencyUnit       *big.Int
	MarketReferenceCurrencyPriceInUSD *big.Int
	NetworkBaseTokenPriceInUSD        *big.Int
	PriceDecimals                     uint8
}

// ReserveRecord holds the AggregatedReserveData fields consumed by the TVL reduction.
type ReserveRecord struct {
	UnderlyingAsset                common.Address
	Symbol                         string
	Decimals                       uint64
	IsActive                       bool
	IsFrozen                       bool
	AvailableLiquidity             *big.Int
	TotalScaledVariableDebt        *big.Int
	PriceInMarketReferenceCurrency *big.Int
}

// ReserveEntry is one element of the reserves array in response order.
// Err is set when the element could not be decoded into a ReserveRecord.
type ReserveEntry struct {
	Position int
	Record   ReserveRecord
	Err      error
}

// ReservesData is the validated getReservesData response.
type ReservesData struct {
	Reserves []ReserveEntry
	Base     BaseCurrencyInfo
}
