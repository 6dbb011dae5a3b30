// Package validate provides input validation shared by the provider
// extractors.
package validate

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// Address checks that addr is a 0x-prefixed, 42-character hex string.
// The check is case-insensitive and not checksum-aware.
func Address(addr string) error {
	if addr == "" {
		return fmt.Errorf("address cannot be empty")
	}
	if !strings.HasPrefix(strings.ToLower(addr), "0x") {
		return fmt.Errorf("address must start with 0x, got %q", addr)
	}
	if len(addr) != 42 {
		return fmt.Errorf("address must be 42 characters (0x + 40 hex), got %d: %q", len(addr), addr)
	}
	if !common.IsHexAddress(addr) {
		return fmt.Errorf("address contains invalid hex characters: %q", addr)
	}
	return nil
}

// NormalizeAddress lowercases an already-validated address.
func NormalizeAddress(addr string) string {
	return strings.ToLower(addr)
}

// PositiveInt checks that value is at least min.
func PositiveInt(value, min int) error {
	if value < min {
		return fmt.Errorf("value must be >= %d, got %d", min, value)
	}
	return nil
}

// APIKey checks that a provider API key is present. name is the
// provider name used in the error message.
func APIKey(name, key string) error {
	if key == "" {
		return fmt.Errorf("%s API key is required but was not provided", name)
	}
	return nil
}
