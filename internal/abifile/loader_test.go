package abifile

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

const sampleABI = `[
  {"inputs": [{"internalType": "address", "name": "provider", "type": "address"}], "name": "getReservesData", "outputs": [{"internalType": "uint256", "name": "", "type": "uint256"}], "stateMutability": "view", "type": "function"}
]`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLoadBareArray(t *testing.T) {
	parsed, err := Load(writeFile(t, "abi.json", sampleABI))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if _, ok := parsed.Methods["getReservesData"]; !ok {
		t.Fatalf("getReservesData missing from parsed abi")
	}
}

func TestLoadArtifactObject(t *testing.T) {
	parsed, err := Load(writeFile(t, "artifact.json", `{"contractName": "UiPoolDataProviderV3", "abi": `+sampleABI+`}`))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if _, ok := parsed.Methods["getReservesData"]; !ok {
		t.Fatalf("getReservesData missing from parsed abi")
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	if !errors.Is(err, ErrFileNotFound) {
		t.Fatalf("expected ErrFileNotFound, got %v", err)
	}
}

func TestLoadInvalidFormat(t *testing.T) {
	cases := map[string]string{
		"empty":        "",
		"truncated":    `[{"inputs": [`,
		"no abi field": `{"bytecode": "0x00"}`,
		"bad type":     `[{"type": "function", "name": "f", "inputs": [{"name": "a", "type": "notatype"}]}]`,
		"scalar":       `42`,
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeFile(t, "abi.json", content))
			if !errors.Is(err, ErrInvalidFormat) {
				t.Fatalf("expected ErrInvalidFormat, got %v", err)
			}
		})
	}
}
