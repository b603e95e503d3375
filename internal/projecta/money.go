package projecta

import (
	"math"
	"strconv"
	"time"
)

// ViewDateLayout renders wire dates for table output.
const ViewDateLayout = "02/01/2006"

// ToMinorUnits converts a major-unit amount to the integer minor units the
// API expects.
func ToMinorUnits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

// FromMinorUnits converts API minor units back to a major-unit amount.
func FromMinorUnits(amount int64) float64 {
	return float64(amount) / 100
}

// FormatMinorUnits renders minor units as a two-decimal string.
func FormatMinorUnits(amount int64) string {
	return strconv.FormatFloat(FromMinorUnits(amount), 'f', 2, 64)
}

// ToDateView reformats an RFC3339 wire date for display. An unparsable
// value is returned unchanged.
func ToDateView(wireDate string) string {
	parsed, parseErr := time.Parse(time.RFC3339, wireDate)
	if parseErr != nil {
		return wireDate
	}
	return parsed.Format(ViewDateLayout)
}
