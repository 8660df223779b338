package utils

import (
	"strconv"
	"strings"
)

// FormatVND renders a whole-đồng amount with dot thousands separators,
// e.g. 1500000 -> "1.500.000đ".
func FormatVND(amount int64) string {
	neg := amount < 0
	if neg {
		amount = -amount
	}
	digits := strconv.FormatInt(amount, 10)

	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	b.WriteString("đ")
	return b.String()
}

