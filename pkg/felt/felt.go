// Package felt parses the feed's wire representation of on-chain numbers.
// Numeric fields arrive as hex-encoded ("0x...") or decimal big-integer
// strings; booleans arrive as "true"/"false" or 0/1.
package felt

import (
	"fmt"
	"math/big"
	"strings"
)

// ParseBig parses a hex or decimal string into an arbitrary-precision
// unsigned integer. An empty string is treated as zero, matching the
// feed's habit of omitting zero-valued fields.
func ParseBig(s string) (*big.Int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return new(big.Int), nil
	}

	base := 10
	digits := s
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		base = 16
		digits = s[2:]
		if digits == "" {
			return nil, fmt.Errorf("felt: empty hex literal %q", s)
		}
	}

	v, ok := new(big.Int).SetString(digits, base)
	if !ok {
		return nil, fmt.Errorf("felt: malformed number %q", s)
	}
	if v.Sign() < 0 {
		return nil, fmt.Errorf("felt: negative number %q", s)
	}
	return v, nil
}

// ParseU64 parses a wire number that is bounded on-chain (chamber ids,
// exit indices, depths, hit points). Values outside uint64 are rejected
// at the boundary rather than truncated.
func ParseU64(s string) (uint64, error) {
	v, err := ParseBig(s)
	if err != nil {
		return 0, err
	}
	if !v.IsUint64() {
		return 0, fmt.Errorf("felt: number %q exceeds uint64", s)
	}
	return v.Uint64(), nil
}

// ParseInt is ParseU64 narrowed to int, for count-like fields.
func ParseInt(s string) (int, error) {
	v, err := ParseU64(s)
	if err != nil {
		return 0, err
	}
	const maxInt = uint64(^uint(0) >> 1)
	if v > maxInt {
		return 0, fmt.Errorf("felt: number %q exceeds int", s)
	}
	return int(v), nil
}

// ParseBool accepts the boolean encodings seen on the wire.
func ParseBool(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "false", "0", "0x0":
		return false, nil
	case "true", "1", "0x1":
		return true, nil
	}
	return false, fmt.Errorf("felt: malformed boolean %q", s)
}

// Address renders a value as a canonical contract address: 0x followed by
// 64 lowercase hex digits. Canonical form makes addresses comparable as
// plain strings regardless of how the feed padded them.
func Address(v *big.Int) string {
	if v == nil || v.Sign() == 0 {
		return "0x" + strings.Repeat("0", 64)
	}
	return fmt.Sprintf("0x%064x", v)
}

// ParseAddress parses a wire address and returns its canonical form.
func ParseAddress(s string) (string, error) {
	v, err := ParseBig(s)
	if err != nil {
		return "", err
	}
	return Address(v), nil
}

// ToHex renders a value as minimal hex, the feed's own habit for ids.
func ToHex(v *big.Int) string {
	if v == nil || v.Sign() == 0 {
		return "0x0"
	}
	return "0x" + v.Text(16)
}
