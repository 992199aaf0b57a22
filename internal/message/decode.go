package message

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// wireCommand mirrors the inbound JSON. Pointers distinguish absent fields.
type wireCommand struct {
	Type  string   `json:"type"`
	Pin   *wireInt `json:"pin"`
	Value *wireInt `json:"value"`
	Mode  *string  `json:"mode"`
}

// wireInt accepts any JSON number with no fractional part, so 512, 512.0
// and 5.12e2 decode alike. Magnitudes beyond the int range saturate.
type wireInt int

func (w *wireInt) UnmarshalJSON(b []byte) error {
	s := string(b)
	if s == "" || (s[0] != '-' && (s[0] < '0' || s[0] > '9')) {
		return fmt.Errorf("expected a number, got %s", s)
	}
	v, err := parseIntegral(s)
	if err != nil {
		return err
	}
	*w = wireInt(v)
	return nil
}

// parseIntegral converts a JSON number literal to an int without going
// through float64, so fractions are detected exactly.
func parseIntegral(s string) (int, error) {
	if v, err := strconv.ParseInt(s, 10, 0); err == nil {
		return int(v), nil
	}

	neg := strings.HasPrefix(s, "-")
	mant, exp := strings.TrimPrefix(s, "-"), 0
	if i := strings.IndexAny(mant, "eE"); i >= 0 {
		e, err := strconv.Atoi(strings.TrimPrefix(mant[i+1:], "+"))
		if err != nil {
			e = math.MaxInt32
			if strings.HasPrefix(mant[i+1:], "-") {
				e = math.MinInt32
			}
		}
		mant, exp = mant[:i], e
	}

	intPart, frac, _ := strings.Cut(mant, ".")
	all := intPart + frac
	digits := strings.TrimLeft(all, "0")
	if digits == "" {
		return 0, nil
	}
	// point is the number of digits of digits that lie left of the decimal point.
	point := len(intPart) - (len(all) - len(digits)) + exp
	if point < len(digits) {
		if point <= 0 || strings.Trim(digits[point:], "0") != "" {
			return 0, fmt.Errorf("number %s is not an integer", s)
		}
		digits = digits[:point]
	} else if point > 19 {
		return saturate(neg), nil
	} else {
		digits += strings.Repeat("0", point-len(digits))
	}

	v, err := strconv.ParseInt(digits, 10, 0)
	if err != nil {
		return saturate(neg), nil
	}
	if neg {
		v = -v
	}
	return int(v), nil
}

func saturate(neg bool) int {
	if neg {
		return math.MinInt
	}
	return math.MaxInt
}

// DecodeCommand parses a command payload and applies field defaults.
// Type mismatches (e.g. a string pin) and fractional numbers are decode errors.
func DecodeCommand(payload Payload) (Command, error) {
	var w wireCommand
	if err := json.Unmarshal(payload, &w); err != nil {
		return Command{}, fmt.Errorf("json parse error: %w", err)
	}

	cmd := Command{
		Type:  w.Type,
		Kind:  ParseKind(w.Type),
		Pin:   -1,
		Value: -1,
		Mode:  DefaultMode,
	}
	if w.Pin != nil {
		cmd.Pin = int(*w.Pin)
	}
	if w.Value != nil {
		cmd.Value = int(*w.Value)
	}
	if w.Mode != nil {
		cmd.Mode = *w.Mode
	}

	return cmd, nil
}
