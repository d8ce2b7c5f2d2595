package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// numberPattern finds numeric tokens in free-form task output, keeping any
// separators inside a token so grouped numbers like "1,234.5" stay whole.
var numberPattern = regexp.MustCompile(`-?\d+(?:[.,]\d+)*`)

// ParseBalance extracts the balance from a completed task's result payload.
// The payload may be a JSON number, a numeric JSON string, or a string of
// text containing a number.
func ParseBalance(raw json.RawMessage) (decimal.Decimal, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return decimal.Zero, fmt.Errorf("%w: empty result", ErrInvalidResult)
	}

	if trimmed[0] != '"' {
		d, err := decimal.NewFromString(string(trimmed))
		if err != nil {
			return decimal.Zero, fmt.Errorf("%w: result is not a number", ErrInvalidResult)
		}
		return d, nil
	}

	var text string
	if err := json.Unmarshal(trimmed, &text); err != nil {
		return decimal.Zero, fmt.Errorf("%w: %v", ErrInvalidResult, err)
	}

	text = strings.TrimSpace(text)
	if d, err := decimal.NewFromString(text); err == nil {
		return d, nil
	}

	return numberInText(text)
}

// numberInText extracts the single number in text, e.g. "Remaining PTO: 4.5
// days". A lone comma is read as the decimal separator. Grouped numbers and
// text holding more than one distinct number are rejected.
func numberInText(text string) (decimal.Decimal, error) {
	tokens := numberPattern.FindAllString(text, -1)
	if len(tokens) == 0 {
		return decimal.Zero, fmt.Errorf("%w: no number in task output", ErrInvalidResult)
	}

	var found decimal.Decimal
	for i, token := range tokens {
		if strings.Count(token, ".")+strings.Count(token, ",") > 1 {
			return decimal.Zero, fmt.Errorf("%w: ambiguous number %q in task output", ErrInvalidResult, token)
		}

		d, err := decimal.NewFromString(strings.Replace(token, ",", ".", 1))
		if err != nil {
			return decimal.Zero, fmt.Errorf("%w: %v", ErrInvalidResult, err)
		}

		if i > 0 && !d.Equal(found) {
			return decimal.Zero, fmt.Errorf("%w: task output holds more than one number", ErrInvalidResult)
		}
		found = d
	}
	return found, nil
}
