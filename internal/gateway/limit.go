package gateway

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/navantesolutions/gagateway/config"
)

// LimitError reports a limit query value rejected in strict mode.
type LimitError struct {
	Raw string
}

func (e *LimitError) Error() string {
	return fmt.Sprintf("invalid limit %q: expected a non-negative integer", e.Raw)
}

// parseLimit reads the limit query parameter. An empty value yields def.
//
// In legacy mode the value is coerced like a JavaScript Number: anything
// non-numeric becomes 0, fractions truncate toward zero, Infinity keeps every
// row and a negative value drops rows from the tail.
func parseLimit(raw string, def int, mode string) (int, error) {
	if raw == "" {
		return def, nil
	}
	if mode == config.LimitModeLegacy {
		return coerceLimit(raw), nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 0 {
		return 0, &LimitError{Raw: raw}
	}
	return n, nil
}

func coerceLimit(raw string) int {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) {
		return 0
	}
	switch {
	case f >= math.MaxInt:
		return math.MaxInt
	case f <= -math.MaxInt:
		return -math.MaxInt
	}
	return int(f)
}
