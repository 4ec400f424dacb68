package domain

import (
	"fmt"
	"math/big"
	"strings"
)

// ParseUnits converts a decimal amount such as "12.5" into the smallest unit
// of a token with the given decimals.
func ParseUnits(raw string, decimals uint8) (*big.Int, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, fmt.Errorf("amount is required")
	}
	if strings.HasPrefix(value, "-") {
		return nil, fmt.Errorf("amount %q must not be negative", raw)
	}

	whole, frac, _ := strings.Cut(value, ".")
	if whole == "" {
		whole = "0"
	}
	if len(frac) > int(decimals) {
		return nil, fmt.Errorf("amount %q has more than %d decimals", raw, decimals)
	}
	digits := whole + frac + strings.Repeat("0", int(decimals)-len(frac))

	amount, ok := new(big.Int).SetString(digits, 10)
	if !ok || strings.ContainsAny(digits, "+-") {
		return nil, fmt.Errorf("invalid amount %q", raw)
	}
	return amount, nil
}

// FormatUnits renders a smallest-unit amount as a decimal string without
// trailing zeros.
func FormatUnits(amount *big.Int, decimals uint8) string {
	if amount == nil {
		return "0"
	}

	sign := ""
	abs := new(big.Int).Set(amount)
	if abs.Sign() < 0 {
		sign = "-"
		abs.Neg(abs)
	}

	digits := abs.String()
	if decimals == 0 {
		return sign + digits
	}
	if pad := int(decimals) + 1 - len(digits); pad > 0 {
		digits = strings.Repeat("0", pad) + digits
	}

	split := len(digits) - int(decimals)
	whole, frac := digits[:split], strings.TrimRight(digits[split:], "0")
	if frac == "" {
		return sign + whole
	}
	return sign + whole + "." + frac
}
