package aave

import (
	"fmt"
	"math/big"
	"reflect"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/samber/lo"

	"tvlScope/internal/model"
)

const baseCurrencyArity = 4

// Reserve tuple components read by name. Decoded go-ethereum tuples expose
// them as camel-cased struct fields.
const (
	fieldUnderlyingAsset         = "UnderlyingAsset"
	fieldSymbol                  = "Symbol"
	fieldDecimals                = "Decimals"
	fieldIsActive                = "IsActive"
	fieldIsFrozen                = "IsFrozen"
	fieldAvailableLiquidity      = "AvailableLiquidity"
	fieldTotalScaledVariableDebt = "TotalScaledVariableDebt"
	fieldPriceInMarketRef        = "PriceInMarketReferenceCurrency"
)

var requiredReserveFields = []string{
	fieldUnderlyingAsset,
	fieldSymbol,
	fieldDecimals,
	fieldIsActive,
	fieldIsFrozen,
	fieldAvailableLiquidity,
	fieldTotalScaledVariableDebt,
	fieldPriceInMarketRef,
}

// ValidateOutputs checks the declared getReservesData outputs. Every element
// of a tuple array unpacks to the same Go type, so a missing component is a
// property of the ABI and rejects the whole fetch.
func ValidateOutputs(method abi.Method) error {
	if len(method.Outputs) != 2 {
		return fmt.Errorf("%w: abi declares %d outputs, want 2", ErrSchemaMismatch, len(method.Outputs))
	}

	reserves := method.Outputs[0].Type
	if (reserves.T != abi.SliceTy && reserves.T != abi.ArrayTy) || reserves.Elem == nil || reserves.Elem.T != abi.TupleTy {
		return fmt.Errorf("%w: first output is %s, want tuple[]", ErrSchemaMismatch, reserves.String())
	}
	declared := make(map[string]bool, len(reserves.Elem.TupleRawNames))
	for _, raw := range reserves.Elem.TupleRawNames {
		declared[abi.ToCamelCase(raw)] = true
	}
	missing := lo.Filter(requiredReserveFields, func(name string, _ int) bool {
		return !declared[name]
	})
	if len(missing) > 0 {
		return fmt.Errorf("%w: reserve tuple missing %s", ErrSchemaMismatch, strings.Join(missing, ", "))
	}

	base := method.Outputs[1].Type
	if base.T != abi.TupleTy || len(base.TupleElems) != baseCurrencyArity {
		return fmt.Errorf("%w: second output is %s, want a %d-field tuple", ErrSchemaMismatch, base.String(), baseCurrencyArity)
	}
	return nil
}

// DecodeReservesData validates the unpacked getReservesData outputs. Shape
// problems at the top level or in the base currency tuple are fatal; problems
// inside a single reserve are recorded on its entry.
func DecodeReservesData(values []interface{}) (model.ReservesData, error) {
	if len(values) != 2 {
		return model.ReservesData{}, fmt.Errorf("%w: expected 2 outputs, got %d", ErrSchemaMismatch, len(values))
	}

	base, err := DecodeBaseCurrencyInfo(values[1])
	if err != nil {
		return model.ReservesData{}, err
	}

	reserves, err := DecodeReserves(values[0])
	if err != nil {
		return model.ReservesData{}, err
	}

	return model.ReservesData{Reserves: reserves, Base: base}, nil
}

// DecodeBaseCurrencyInfo reads the 4-field BaseCurrencyInfo tuple positionally.
func DecodeBaseCurrencyInfo(value interface{}) (model.BaseCurrencyInfo, error) {
	fields, err := tupleValues(value)
	if err != nil {
		return model.BaseCurrencyInfo{}, fmt.Errorf("%w: base currency info: %v", ErrSchemaMismatch, err)
	}
	if len(fields) != baseCurrencyArity {
		return model.BaseCurrencyInfo{}, fmt.Errorf("%w: base currency info has %d fields, want %d", ErrSchemaMismatch, len(fields), baseCurrencyArity)
	}

	unit, err := asBigInt(fields[0])
	if err != nil {
		return model.BaseCurrencyInfo{}, fmt.Errorf("%w: market reference currency unit: %v", ErrSchemaMismatch, err)
	}
	priceInUSD, err := asBigInt(fields[1])
	if err != nil {
		return model.BaseCurrencyInfo{}, fmt.Errorf("%w: market reference currency price: %v", ErrSchemaMismatch, err)
	}
	decimals, err := asBigInt(fields[3])
	if err != nil {
		return model.BaseCurrencyInfo{}, fmt.Errorf("%w: price decimals: %v", ErrSchemaMismatch, err)
	}
	if decimals.Sign() < 0 || !decimals.IsUint64() || decimals.Uint64() > 255 {
		return model.BaseCurrencyInfo{}, fmt.Errorf("%w: price decimals out of range: %s", ErrSchemaMismatch, decimals)
	}

	info := model.BaseCurrencyInfo{
		MarketReferenceCurrencyUnit:       unit,
		MarketReferenceCurrencyPriceInUSD: priceInUSD,
		PriceDecimals:                     uint8(decimals.Uint64()),
	}
	if networkPrice, err := asBigInt(fields[2]); err == nil {
		info.NetworkBaseTokenPriceInUSD = networkPrice
	}
	return info, nil
}

// DecodeReserves converts the reserves array into entries, one per element.
func DecodeReserves(value interface{}) ([]model.ReserveEntry, error) {
	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, fmt.Errorf("%w: reserves output is %T, want array", ErrSchemaMismatch, value)
	}

	entries := make([]model.ReserveEntry, 0, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		record, err := decodeReserve(rv.Index(i))
		entries = append(entries, model.ReserveEntry{Position: i, Record: record, Err: err})
	}
	return entries, nil
}

func decodeReserve(v reflect.Value) (model.ReserveRecord, error) {
	v, ok := indirect(v)
	if !ok {
		return model.ReserveRecord{}, fmt.Errorf("%w: nil element", ErrMalformedRecord)
	}
	if v.Kind() != reflect.Struct {
		return model.ReserveRecord{}, fmt.Errorf("%w: element is %s, want tuple", ErrMalformedRecord, v.Kind())
	}

	var (
		record model.ReserveRecord
		err    error
	)

	// Symbol first so later failures can still be reported against it.
	if record.Symbol, err = stringField(v, fieldSymbol); err != nil {
		return record, err
	}
	if record.UnderlyingAsset, err = addressField(v, fieldUnderlyingAsset); err != nil {
		return record, err
	}
	decimals, err := bigIntField(v, fieldDecimals)
	if err != nil {
		return record, err
	}
	if decimals.Sign() < 0 || !decimals.IsUint64() {
		return record, fmt.Errorf("%w: %s out of range: %s", ErrMalformedRecord, fieldDecimals, decimals)
	}
	record.Decimals = decimals.Uint64()
	if record.IsActive, err = boolField(v, fieldIsActive); err != nil {
		return record, err
	}
	if record.IsFrozen, err = boolField(v, fieldIsFrozen); err != nil {
		return record, err
	}
	if record.AvailableLiquidity, err = bigIntField(v, fieldAvailableLiquidity); err != nil {
		return record, err
	}
	if record.TotalScaledVariableDebt, err = bigIntField(v, fieldTotalScaledVariableDebt); err != nil {
		return record, err
	}
	if record.PriceInMarketReferenceCurrency, err = bigIntField(v, fieldPriceInMarketRef); err != nil {
		return record, err
	}
	return record, nil
}

func field(v reflect.Value, name string) (interface{}, error) {
	f := v.FieldByName(name)
	if !f.IsValid() {
		return nil, fmt.Errorf("%w: missing field %s", ErrMalformedRecord, name)
	}
	if !f.CanInterface() {
		return nil, fmt.Errorf("%w: field %s not exported", ErrMalformedRecord, name)
	}
	return f.Interface(), nil
}

func stringField(v reflect.Value, name string) (string, error) {
	raw, err := field(v, name)
	if err != nil {
		return "", err
	}
	s, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("%w: %s has type %T, want string", ErrMalformedRecord, name, raw)
	}
	return s, nil
}

func boolField(v reflect.Value, name string) (bool, error) {
	raw, err := field(v, name)
	if err != nil {
		return false, err
	}
	b, ok := raw.(bool)
	if !ok {
		return false, fmt.Errorf("%w: %s has type %T, want bool", ErrMalformedRecord, name, raw)
	}
	return b, nil
}

func bigIntField(v reflect.Value, name string) (*big.Int, error) {
	raw, err := field(v, name)
	if err != nil {
		return nil, err
	}
	n, err := asBigInt(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformedRecord, name, err)
	}
	return n, nil
}

func addressField(v reflect.Value, name string) (common.Address, error) {
	raw, err := field(v, name)
	if err != nil {
		return common.Address{}, err
	}
	addr, err := asAddress(raw)
	if err != nil {
		return common.Address{}, fmt.Errorf("%w: %s: %v", ErrMalformedRecord, name, err)
	}
	return addr, nil
}

// tupleValues flattens a decoded tuple (struct) or a positional slice.
func tupleValues(value interface{}) ([]interface{}, error) {
	v, ok := indirect(reflect.ValueOf(value))
	if !ok {
		return nil, fmt.Errorf("nil tuple")
	}

	switch v.Kind() {
	case reflect.Struct:
		out := make([]interface{}, 0, v.NumField())
		for i := 0; i < v.NumField(); i++ {
			f := v.Field(i)
			if !f.CanInterface() {
				return nil, fmt.Errorf("unexported tuple field %d", i)
			}
			out = append(out, f.Interface())
		}
		return out, nil
	case reflect.Slice, reflect.Array:
		out := make([]interface{}, 0, v.Len())
		for i := 0; i < v.Len(); i++ {
			out = append(out, v.Index(i).Interface())
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported tuple type %s", v.Type())
	}
}

func indirect(v reflect.Value) (reflect.Value, bool) {
	for v.IsValid() && (v.Kind() == reflect.Interface || v.Kind() == reflect.Pointer) {
		if v.IsNil() {
			return v, false
		}
		v = v.Elem()
	}
	return v, v.IsValid()
}

func asAddress(value interface{}) (common.Address, error) {
	switch v := value.(type) {
	case common.Address:
		return v, nil
	case *common.Address:
		if v == nil {
			return common.Address{}, fmt.Errorf("nil address")
		}
		return *v, nil
	default:
		return common.Address{}, fmt.Errorf("unsupported address type %T", value)
	}
}

func asBigInt(value interface{}) (*big.Int, error) {
	switch v := value.(type) {
	case *big.Int:
		if v == nil {
			return nil, fmt.Errorf("nil integer")
		}
		return new(big.Int).Set(v), nil
	case big.Int:
		return new(big.Int).Set(&v), nil
	case uint8:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint16:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint32:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint64:
		return new(big.Int).SetUint64(v), nil
	case int8:
		return big.NewInt(int64(v)), nil
	case int16:
		return big.NewInt(int64(v)), nil
	case int32:
		return big.NewInt(int64(v)), nil
	case int64:
		return big.NewInt(v), nil
	default:
		return nil, fmt.Errorf("unsupported int type %T", value)
	}
}
