package handlers

import (
	"errors"
	"math"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// queryInt reads the leading integer of a query value, so "2.7" is 2 and
// "5abc" is 5. Values with no leading integer, or equal to zero, give def.
// Out-of-range values saturate.
func queryInt(c *fiber.Ctx, key string, def int) int {
	n, ok := leadingInt(c.Query(key))
	if !ok || n == 0 {
		return def
	}
	return n
}

func leadingInt(raw string) (int, bool) {
	s := strings.TrimLeft(raw, " \t\n\r")
	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return 0, false
	}

	n, err := strconv.Atoi(s[:end])
	if errors.Is(err, strconv.ErrRange) {
		if s[0] == '-' {
			return math.MinInt, true
		}
		return math.MaxInt, true
	}
	if err != nil {
		return 0, false
	}
	return n, true
}
