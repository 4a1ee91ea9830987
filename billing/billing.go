package billing

import (
	"math"
	"strconv"
	"strings"
)

// DefaultIncrement is used when a country has no billing increment configured.
const DefaultIncrement = "1/1"

// DefaultMinChargeableSeconds is the floor below which a call is free.
const DefaultMinChargeableSeconds = 3

// ParseIncrement splits an "I/S" billing increment into its initial block
// and subsequent block sizes. Malformed increments fall back to per-second.
func ParseIncrement(increment string) (initial int, subsequent int) {
	parts := strings.Split(increment, "/")
	if len(parts) != 2 {
		return 1, 1
	}
	initial, err := strconv.Atoi(parts[0])
	if err != nil || initial <= 0 {
		return 1, 1
	}
	subsequent, err = strconv.Atoi(parts[1])
	if err != nil || subsequent <= 0 {
		return 1, 1
	}
	return initial, subsequent
}

// CalculateBillableDuration maps actual connected seconds to billable seconds
// for the given "I/S" increment. Calls at or under the minimum chargeable
// floor bill zero seconds, even when the increment's initial block is smaller.
func CalculateBillableDuration(actualSeconds int, increment string, minChargeableSeconds int) int {
	if actualSeconds <= minChargeableSeconds {
		return 0
	}
	initial, subsequent := ParseIncrement(increment)
	if actualSeconds <= initial {
		return initial
	}
	remaining := actualSeconds - initial
	additional := int(math.Ceil(float64(remaining) / float64(subsequent)))
	return initial + additional*subsequent
}

// CalculateCharge converts billable seconds to a charge at the given
// per-second price, rounded to 4 decimal places.
func CalculateCharge(billableSeconds int, pricePerSecond float64) float64 {
	return math.Round(float64(billableSeconds)*pricePerSecond*10000) / 10000
}

// IncrementName returns the display name for a billing increment.
func IncrementName(increment string) string {
	switch increment {
	case "1/1":
		return "Per Second"
	case "6/6":
		return "6/6 Second"
	case "30/30":
		return "30/30 Second"
	case "60/60":
		return "60/60 Second (Per Minute)"
	case "30/6":
		return "30/6 Second"
	case "60/6":
		return "60/6 Second"
	case "60/30":
		return "60/30 Second"
	}
	return increment
}
