// Package currency converts between integer Rupiah amounts and the
// dot-grouped strings used by the admin front-end ("1.500.000").
package currency

import (
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.Indonesian)

// Parse accepts display-formatted amounts such as "1.500.000", "Rp 250.000"
// or "75.000,00". Group separators, spaces, the "Rp" prefix and a zero
// fraction are removed; anything else that is not a digit makes the whole
// value 0, as does empty input or an amount beyond int64.
func Parse(raw string) int64 {
	s := strings.TrimSpace(raw)
	s = strings.TrimSpace(strings.TrimPrefix(s, "Rp"))
	if i := strings.IndexByte(s, ','); i >= 0 {
		if strings.Trim(s[i+1:], "0") != "" {
			return 0
		}
		s = s[:i]
	}
	s = strings.NewReplacer(".", "", " ", "").Replace(s)
	if s == "" {
		return 0
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0
		}
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return n
}

// Format renders amount with "." thousands separators. Negative amounts are
// rendered as zero.
func Format(amount int64) string {
	if amount <= 0 {
		return "0"
	}
	return printer.Sprintf("%d", amount)
}
