package output

import (
	"math"
	"strconv"
)

const floatPlaces = 6

// RoundFloat rounds to six decimal places.
func RoundFloat(f float64) float64 {
	scale := math.Pow(10, floatPlaces)
	return math.Round(f*scale) / scale
}

// FormatFloat formats f with at most places decimals and no trailing
// zeros. A negative places value means six.
func FormatFloat(f float64, places int) string {
	if places < 0 || places > floatPlaces {
		places = floatPlaces
	}
	scale := math.Pow(10, float64(places))
	rounded := math.Round(f*scale) / scale
	if rounded == 0 {
		// Avoid "-0".
		rounded = 0
	}
	return strconv.FormatFloat(rounded, 'f', -1, 64)
}

// Percent formats a 0..1 ratio as a percentage with one decimal.
func Percent(ratio float64) string {
	return FormatFloat(ratio*100, 1) + "%"
}
