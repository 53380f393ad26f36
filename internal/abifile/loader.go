// Package abifile loads contract interface descriptions from disk.
package abifile

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

var (
	ErrFileNotFound  = errors.New("abi file not found")
	ErrInvalidFormat = errors.New("invalid abi format")
)

// artifact is the compiler/explorer export shape that wraps the ABI array.
type artifact struct {
	ABI json.RawMessage `json:"abi"`
}

// Load reads and parses a JSON ABI. Both a bare ABI array and an object with
// an "abi" field are accepted.
func Load(path string) (abi.ABI, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return abi.ABI{}, fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return abi.ABI{}, fmt.Errorf("read abi %s: %w", path, err)
	}
	return Parse(data)
}

// Parse parses ABI JSON held in memory.
func Parse(data []byte) (abi.ABI, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return abi.ABI{}, fmt.Errorf("%w: empty document", ErrInvalidFormat)
	}

	if data[0] == '{' {
		var wrapped artifact
		if err := json.Unmarshal(data, &wrapped); err != nil {
			return abi.ABI{}, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
		}
		if len(wrapped.ABI) == 0 {
			return abi.ABI{}, fmt.Errorf("%w: object has no abi field", ErrInvalidFormat)
		}
		data = wrapped.ABI
	}

	if !json.Valid(data) {
		return abi.ABI{}, fmt.Errorf("%w: malformed json", ErrInvalidFormat)
	}

	parsed, err := abi.JSON(bytes.NewReader(data))
	if err != nil {
		return abi.ABI{}, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	return parsed, nil
}
