// Package format renders cell values according to a column's data type.
package format

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/five82/glance/internal/report"
)

// Value formats v for display under the given data type. Strings that hold
// numbers are formatted as numbers; anything else is shown verbatim.
func Value(v report.Value, dataType string) string {
	if v.IsNone() {
		return ""
	}
	if dataType == report.TypeDate {
		return Date(v.Text())
	}
	n, ok := v.Number()
	if !ok {
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v.Text()), 64)
		if err != nil || dataType == "" || dataType == report.TypeString {
			return v.Text()
		}
		n = parsed
	}
	return Number(n, dataType)
}

// Number formats a raw number under the given data type.
func Number(n float64, dataType string) string {
	switch dataType {
	case report.TypeUtime:
		return Utime(n)
	case report.TypeBytes:
		return Bytes(n)
	case report.TypePercent:
		return Percent(n)
	case report.TypeSecs:
		return Secs(n)
	case report.TypeDate:
		return Date(strconv.FormatFloat(n, 'f', 0, 64))
	case report.TypeNumeric:
		return Numeric(n)
	default:
		return strconv.FormatFloat(n, 'f', -1, 64)
	}
}

// Numeric adds thousands separators.
func Numeric(n float64) string {
	if n == math.Trunc(n) && math.Abs(n) < 1<<53 {
		return humanize.Comma(int64(n))
	}
	return humanize.CommafWithDigits(n, 2)
}

// Bytes renders a byte count with binary units.
func Bytes(n float64) string {
	if n <= 0 {
		return "0 B"
	}
	return humanize.IBytes(uint64(n))
}

// Percent renders n with two decimals.
func Percent(n float64) string {
	return fmt.Sprintf("%.2f%%", n)
}

// Utime renders microseconds with the largest unit that keeps the value at
// least one.
func Utime(usec float64) string {
	switch {
	case usec >= 864e8:
		return fmt.Sprintf("%.2f d", usec/864e8)
	case usec >= 36e8:
		return fmt.Sprintf("%.2f h", usec/36e8)
	case usec >= 6e7:
		return fmt.Sprintf("%.2f m", usec/6e7)
	case usec >= 1e6:
		return fmt.Sprintf("%.2f s", usec/1e6)
	case usec >= 1e3:
		return fmt.Sprintf("%.2f ms", usec/1e3)
	default:
		return fmt.Sprintf("%.2f us", usec)
	}
}

// Secs renders a duration given in seconds.
func Secs(secs float64) string {
	return Utime(secs * 1e6)
}

// Date turns 20120124 into 24/Jan/2012. Values that are not dates are returned
// unchanged.
func Date(s string) string {
	trimmed := strings.TrimSpace(s)
	t, err := time.Parse("20060102", trimmed)
	if err != nil {
		return s
	}
	return t.Format("02/Jan/2006")
}

// Axis formats a chart tick. Without a data type it uses short SI notation.
func Axis(n float64, dataType string) string {
	if dataType != "" {
		return Number(n, dataType)
	}
	if math.Abs(n) < 1000 {
		return strconv.FormatFloat(n, 'f', -1, 64)
	}
	return strings.ReplaceAll(humanize.SIWithDigits(n, 1, ""), " ", "")
}
