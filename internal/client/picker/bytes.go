package picker

import (
	"math"
	"strconv"
	"strings"
)

var byteUnits = [...]string{"bytes", "KB", "MB", "GB", "TB", "PB", "EB", "ZB", "YB"}

// FormatBytes renders n with 1024-based units, e.g. "1023 bytes", "1.5 KB",
// "12 MB". Values under ten of KB or larger get one decimal place, rounded
// half away from zero. The fractional part of n is dropped first; NaN and
// infinities count as zero. Past YB the value keeps growing in YB.
func FormatBytes(n float64) string {
	if math.IsNaN(n) || math.IsInf(n, 0) {
		n = 0
	}
	n = math.Trunc(n)

	l := 0
	for n >= 1024 && l < len(byteUnits)-1 {
		n /= 1024
		l++
	}

	prec := 0
	if l > 0 && n < 10 {
		prec = 1
		n = math.Round(n*10) / 10
	} else {
		n = math.Round(n)
	}
	return strconv.FormatFloat(n, 'f', prec, 64) + " " + byteUnits[l]
}

// FormatBytesString is FormatBytes for a decimal string. The whole string
// must parse as a number, so "12abc" is treated as zero while "1.5e3" is
// 1500 bytes.
func FormatBytesString(s string) string {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return FormatBytes(0)
	}
	return FormatBytes(v)
}
