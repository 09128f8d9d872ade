package ledger

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ParseCents parses a user-entered decimal amount ("50", "12.30") into cents.
// Rounding is half away from zero so any two-decimal input maps exactly.
func ParseCents(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty amount")
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("parse amount %q: %w", s, err)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("amount %q is not a number", s)
	}
	return int64(math.Round(v * 100)), nil
}

// CentsFromNumber converts a wire JSON number to cents. The service
// serializes amounts as doubles, so float artifacts are rounded away.
func CentsFromNumber(n json.Number) int64 {
	if n == "" {
		return 0
	}
	v, err := n.Float64()
	if err != nil {
		return 0
	}
	return int64(math.Round(v * 100))
}

// NumberFromCents renders cents as a two-decimal JSON number literal.
func NumberFromCents(c int64) json.Number {
	return json.Number(FormatCents(c))
}

// FormatCents renders cents as a plain two-decimal string: 15000 -> "150.00".
func FormatCents(c int64) string {
	sign := ""
	if c < 0 {
		sign = "-"
		c = -c
	}
	return fmt.Sprintf("%s%d.%02d", sign, c/100, c%100)
}

// FormatMoney prefixes a formatted amount with a currency symbol.
func FormatMoney(symbol string, c int64) string {
	return symbol + FormatCents(c)
}
