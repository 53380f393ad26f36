package aave

import (
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

type truncatedReserve struct {
	UnderlyingAsset common.Address
	Symbol          string
	Decimals        *big.Int
	IsActive        bool
}

type mistypedReserve struct {
	UnderlyingAsset                common.Address
	Symbol                         string
	Decimals                       string
	IsActive                       bool
	IsFrozen                       bool
	AvailableLiquidity             *big.Int
	TotalScaledVariableDebt        *big.Int
	PriceInMarketReferenceCurrency *big.Int
}

func TestDecodeReservesIsolatesMalformedRecords(t *testing.T) {
	good := sampleReserves()[0]
	values := []interface{}{
		good,
		truncatedReserve{Symbol: "BROKEN", Decimals: big.NewInt(18), IsActive: true},
		mistypedReserve{Symbol: "WEIRD", Decimals: "18"},
		nil,
		"not a tuple",
		&good,
	}

	entries, err := DecodeReserves(values)
	if err != nil {
		t.Fatalf("decode reserves: %v", err)
	}
	if len(entries) != len(values) {
		t.Fatalf("entries mismatch: %d", len(entries))
	}

	for i, entry := range entries {
		if entry.Position != i {
			t.Fatalf("position mismatch at %d: %d", i, entry.Position)
		}
	}

	if entries[0].Err != nil || entries[5].Err != nil {
		t.Fatalf("well-formed records should decode: %v / %v", entries[0].Err, entries[5].Err)
	}
	if entries[5].Record.Symbol != "USDC" {
		t.Fatalf("pointer element mismatch: %+v", entries[5].Record)
	}

	for _, i := range []int{1, 2, 3, 4} {
		if !errors.Is(entries[i].Err, ErrMalformedRecord) {
			t.Fatalf("entry %d: expected ErrMalformedRecord, got %v", i, entries[i].Err)
		}
	}
	if entries[1].Record.Symbol != "BROKEN" {
		t.Fatalf("symbol should survive a truncated record: %+v", entries[1].Record)
	}
}

func TestDecodeBaseCurrencyInfoArity(t *testing.T) {
	if _, err := DecodeBaseCurrencyInfo(sampleBase()); err != nil {
		t.Fatalf("decode base: %v", err)
	}

	positional := []interface{}{big.NewInt(100_000_000), big.NewInt(100_000_000), big.NewInt(0), uint8(8)}
	info, err := DecodeBaseCurrencyInfo(positional)
	if err != nil {
		t.Fatalf("decode positional base: %v", err)
	}
	if info.PriceDecimals != 8 || info.MarketReferenceCurrencyUnit.Int64() != 100_000_000 {
		t.Fatalf("positional base mismatch: %+v", info)
	}

	invalid := map[string]interface{}{
		"three fields": []interface{}{big.NewInt(1), big.NewInt(1), uint8(8)},
		"five fields":  []interface{}{big.NewInt(1), big.NewInt(1), big.NewInt(1), uint8(8), uint8(0)},
		"scalar":       big.NewInt(1),
		"nil":          nil,
		"bad unit":     []interface{}{"x", big.NewInt(1), big.NewInt(1), uint8(8)},
	}
	for name, value := range invalid {
		t.Run(name, func(t *testing.T) {
			if _, err := DecodeBaseCurrencyInfo(value); !errors.Is(err, ErrSchemaMismatch) {
				t.Fatalf("expected ErrSchemaMismatch, got %v", err)
			}
		})
	}
}

func TestDecodeReservesDataRejectsNonArrayReserves(t *testing.T) {
	_, err := DecodeReservesData([]interface{}{"reserves", sampleBase()})
	if !errors.Is(err, ErrSchemaMismatch) {
		t.Fatalf("expected ErrSchemaMismatch, got %v", err)
	}
}

func TestEmbeddedABIMatchesDecoderFields(t *testing.T) {
	parsed, err := UiPoolDataProviderABI()
	if err != nil {
		t.Fatalf("abi parse: %v", err)
	}
	method, ok := parsed.Methods[MethodGetReservesData]
	if !ok {
		t.Fatalf("method missing")
	}
	if len(method.Inputs) != 1 || method.Inputs[0].Type.T != abi.AddressTy {
		t.Fatalf("unexpected inputs: %+v", method.Inputs)
	}
	if len(method.Outputs) != 2 {
		t.Fatalf("unexpected outputs: %d", len(method.Outputs))
	}
	if err := ValidateOutputs(method); err != nil {
		t.Fatalf("embedded abi should satisfy the output check: %v", err)
	}

	reserveType := method.Outputs[0].Type
	if reserveType.T != abi.SliceTy || reserveType.Elem.T != abi.TupleTy {
		t.Fatalf("reserves output should be tuple[]")
	}
	names := make(map[string]bool)
	for _, raw := range reserveType.Elem.TupleRawNames {
		names[abi.ToCamelCase(raw)] = true
	}
	for _, want := range requiredReserveFields {
		if !names[want] {
			t.Fatalf("reserve tuple missing %s", want)
		}
	}

	baseType := method.Outputs[1].Type
	if baseType.T != abi.TupleTy || len(baseType.TupleElems) != baseCurrencyArity {
		t.Fatalf("base currency output should be a %d-field tuple", baseCurrencyArity)
	}
}
