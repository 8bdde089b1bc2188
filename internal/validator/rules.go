package validator

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	RgxEmail = regexp.MustCompile("^[a-zA-Z0-9.!#$%&'*+\\/=?^_`{|}~-]+@[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?(?:\\.[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?)*$")

	// RgxPhoneNumber matches Saudi mobile numbers in international format, e.g. +966512345678
	RgxPhoneNumber = regexp.MustCompile(`^\+9665[0-9]{8}$`)

	// RgxNationalID matches Saudi national IDs and iqama numbers:
	// 10 digits starting with 1 (citizen) or 2 (resident)
	RgxNationalID = regexp.MustCompile(`^[12][0-9]{9}$`)

	// RgxCRNumber matches 10-digit commercial registration numbers
	RgxCRNumber = regexp.MustCompile(`^[0-9]{10}$`)
)

func NotBlank(value string) bool {
	return strings.TrimSpace(value) != ""
}

func MinRunes(value string, n int) bool {
	return utf8.RuneCountInString(value) >= n
}

func MaxRunes(value string, n int) bool {
	return utf8.RuneCountInString(value) <= n
}

func Between[T int | float64](value, min, max T) bool {
	return value >= min && value <= max
}

func Matches(value string, rx *regexp.Regexp) bool {
	return rx.MatchString(value)
}

func In[T comparable](value T, safelist ...T) bool {
	for i := range safelist {
		if value == safelist[i] {
			return true
		}
	}
	return false
}

func IsEmail(value string) bool {
	if len(value) > 254 {
		return false
	}

	return RgxEmail.MatchString(value)
}
