// Package numbering produces the human-readable sequential identifiers shown
// on quotes, in the form ORC-YYMMDD-NNN.
package numbering

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// QuoteCode is the document code that starts every quote number.
const QuoteCode = "ORC"

// ErrMalformedNumber is returned when a stored number cannot be parsed.
var ErrMalformedNumber = errors.New("malformed document number")

// Prefix returns the date prefix for quotes created on date, using the
// calendar fields of date's own location.
func Prefix(date time.Time) string {
	return QuoteCode + "-" + date.Format("060102")
}

// Format renders prefix and sequence. The suffix is zero-padded to three
// digits and grows wider past 999.
func Format(prefix string, seq int64) string {
	return fmt.Sprintf("%s-%03d", prefix, seq)
}

// ParseSequence extracts the numeric suffix after the second hyphen.
func ParseSequence(number string) (int64, error) {
	parts := strings.SplitN(number, "-", 3)
	if len(parts) != 3 || parts[2] == "" {
		return 0, fmt.Errorf("%w: %q", ErrMalformedNumber, number)
	}
	seq, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil || seq < 0 {
		return 0, fmt.Errorf("%w: %q", ErrMalformedNumber, number)
	}
	return seq, nil
}

// Next returns the number following last for the day of date. An empty last
// starts the day at 1.
func Next(last string, date time.Time) (string, error) {
	prefix := Prefix(date)
	if last == "" {
		return Format(prefix, 1), nil
	}
	if !strings.HasPrefix(last, prefix+"-") {
		return "", fmt.Errorf("%w: %q does not belong to %s", ErrMalformedNumber, last, prefix)
	}
	seq, err := ParseSequence(last)
	if err != nil {
		return "", err
	}
	return Format(prefix, seq+1), nil
}
