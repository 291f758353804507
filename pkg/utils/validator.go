package utils

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

var (
	controlChars  = regexp.MustCompile(`[\x00-\x1f\x7f]`)
	currencyMarks = strings.NewReplacer("¥", "", "￥", "", "円", "", "$", "", "€", "", ",", "", "，", "", " ", "")
)

// ValidateAmount checks that amount is a finite, non-negative number.
func ValidateAmount(amount float64) error {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return fmt.Errorf("amount must be a number: %v", amount)
	}
	if amount < 0 {
		return fmt.Errorf("amount must not be negative: %.2f", amount)
	}
	return nil
}

// ParseAmount reads an amount typed by a person: "1200", "1,200", "¥1,200",
// "1200円" and "12.50" are all accepted.
func ParseAmount(s string) (float64, error) {
	cleaned := currencyMarks.Replace(strings.TrimSpace(s))
	if cleaned == "" {
		return 0, fmt.Errorf("amount is empty")
	}
	amount, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q", s)
	}
	if err := ValidateAmount(amount); err != nil {
		return 0, err
	}
	return amount, nil
}

// SanitizeString strips control characters and surrounding whitespace.
func SanitizeString(s string) string {
	return strings.TrimSpace(controlChars.ReplaceAllString(s, ""))
}
