// Package codec decodes hex-encoded log fields and formats token
// amounts for display.
package codec

import (
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/shopspring/decimal"
)

const (
	// TransferEventTopic is the keccak hash of the ERC-20
	// Transfer(address,address,uint256) event signature
	TransferEventTopic = "0xddf252ad1be2c89b69c2b068fc378daa952ba7f163c4a11628f55a4df523b3ef"

	// TimeLayout is the wall-clock format used for every normalized
	// block timestamp ("UTC" is literal text, all times are UTC)
	TimeLayout = "2006-01-02 15:04:05 UTC"

	// USDCAddress is the USDC contract on Ethereum mainnet; USDC uses
	// 6 decimals instead of the ERC-20 default
	USDCAddress = "0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48"

	// DefaultDecimals applies to any token without a registry entry
	DefaultDecimals int32 = 18

	// InvalidAmount is emitted when a raw amount cannot be parsed
	InvalidAmount = "Invalid amount"

	// InvalidTimestamp is emitted when a provider timestamp cannot be
	// parsed
	InvalidTimestamp = "Invalid timestamp"
)

// tokenDecimals is the token-metadata registry keyed by lowercase
// contract address. Tokens not listed here use DefaultDecimals.
var tokenDecimals = map[string]int32{
	USDCAddress: 6,
}

// DecimalsFor returns the decimals count for a token contract,
// falling back to the 18-decimal ERC-20 default.
func DecimalsFor(tokenAddress string) int32 {
	if d, ok := tokenDecimals[strings.ToLower(tokenAddress)]; ok {
		return d
	}
	return DefaultDecimals
}

// AddressFromTopic recovers an address from a 32-byte padded log
// topic by stripping the 0x prefix and the leading zero characters.
// An all-zero topic decodes to "0x0". The result can be shorter than
// 40 hex chars when the true address starts with zero bytes; callers
// accept this as a known limitation of the strip-based recovery.
func AddressFromTopic(topic string) string {
	raw := strings.TrimPrefix(topic, "0x")
	clean := strings.TrimLeft(raw, "0")
	if clean == "" {
		clean = "0"
	}
	return "0x" + clean
}

// AmountFromData decodes the raw transfer amount from a log data
// field. Empty or "0x" data means a zero amount. The value is kept as
// a decimal string because token amounts routinely exceed 64 bits.
func AmountFromData(data string) (string, error) {
	if data == "" || data == "0x" {
		return "0", nil
	}
	raw := strings.TrimPrefix(data, "0x")
	amount, ok := new(big.Int).SetString(raw, 16)
	if !ok {
		return "", fmt.Errorf("invalid amount data %q", data)
	}
	return amount.String(), nil
}

// FormatAmount renders a raw integer amount in display units: divided
// by 10^decimals, comma thousands separators, exactly two fraction
// digits. A zero or absent raw amount yields the literal "0"; an
// unparsable one yields "Invalid amount".
func FormatAmount(raw string, decimals int32) string {
	if raw == "" || raw == "0" {
		return "0"
	}
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return InvalidAmount
	}
	return groupThousands(amount.Shift(-decimals).StringFixed(2))
}

// FormatFloat renders an already decimal-adjusted amount with comma
// thousands separators and exactly two fraction digits.
func FormatFloat(v float64) string {
	return groupThousands(decimal.NewFromFloat(v).StringFixed(2))
}

// FormatUnixUTC renders a Unix timestamp in the normalized layout.
func FormatUnixUTC(sec int64) string {
	return time.Unix(sec, 0).UTC().Format(TimeLayout)
}

// ParseHexQuantity decodes a 0x-prefixed hex quantity such as a block
// number or block timestamp. Unlike hexutil it tolerates leading
// zeros, which some providers emit.
func ParseHexQuantity(s string) (uint64, error) {
	raw := strings.TrimPrefix(s, "0x")
	if raw == "" {
		return 0, fmt.Errorf("empty hex quantity %q", s)
	}
	v, ok := new(big.Int).SetString(raw, 16)
	if !ok || !v.IsUint64() {
		return 0, fmt.Errorf("invalid hex quantity %q", s)
	}
	return v.Uint64(), nil
}

// EncodeBlockNumber renders a block number as the canonical hex
// quantity the JSON-RPC APIs expect.
func EncodeBlockNumber(n uint64) string {
	return hexutil.EncodeUint64(n)
}

// groupThousands inserts comma separators into the integer part of a
// fixed-point decimal string.
func groupThousands(s string) string {
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign = "-"
		s = s[1:]
	}

	intPart := s
	fracPart := ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		intPart = s[:i]
		fracPart = s[i:]
	}

	var b strings.Builder
	lead := len(intPart) % 3
	if lead > 0 {
		b.WriteString(intPart[:lead])
	}
	for i := lead; i < len(intPart); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(intPart[i : i+3])
	}

	return sign + b.String() + fracPart
}
