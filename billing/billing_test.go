package billing

import (
	"testing"
)

func TestCalculateBillableDuration(t *testing.T) {
	t.Run("PerSecondUnderMinimum", func(t *testing.T) {
		if got := CalculateBillableDuration(2, "1/1", 3); got != 0 {
			t.Errorf("Expected 0, found %d", got)
		}
	})

	t.Run("PerSecond", func(t *testing.T) {
		if got := CalculateBillableDuration(5, "1/1", 3); got != 5 {
			t.Errorf("Expected 5, found %d", got)
		}
	})

	t.Run("ThirtyThirtyUnderMinimum", func(t *testing.T) {
		if got := CalculateBillableDuration(2, "30/30", 3); got != 0 {
			t.Errorf("Expected 0, found %d", got)
		}
	})

	t.Run("ThirtyThirtyInsideInitialBlock", func(t *testing.T) {
		if got := CalculateBillableDuration(20, "30/30", 3); got != 30 {
			t.Errorf("Expected 30, found %d", got)
		}
	})

	t.Run("ThirtyThirtyRoundsUp", func(t *testing.T) {
		if got := CalculateBillableDuration(35, "30/30", 3); got != 60 {
			t.Errorf("Expected 60, found %d", got)
		}
	})

	t.Run("SixtySixExactBoundary", func(t *testing.T) {
		if got := CalculateBillableDuration(60, "60/6", 3); got != 60 {
			t.Errorf("Expected 60, found %d", got)
		}
		if got := CalculateBillableDuration(61, "60/6", 3); got != 66 {
			t.Errorf("Expected 66, found %d", got)
		}
	})

	t.Run("MalformedIncrementFallsBackToPerSecond", func(t *testing.T) {
		if got := CalculateBillableDuration(10, "bogus", 3); got != 10 {
			t.Errorf("Expected 10, found %d", got)
		}
	})
}

func TestCalculateCharge(t *testing.T) {
	t.Run("RoundsToFourDecimals", func(t *testing.T) {
		if got := CalculateCharge(60, 0.000333); got != 0.02 {
			t.Errorf("Expected 0.02, found %f", got)
		}
	})

	t.Run("ZeroBillable", func(t *testing.T) {
		if got := CalculateCharge(0, 0.01); got != 0 {
			t.Errorf("Expected 0, found %f", got)
		}
	})
}

func TestIncrementName(t *testing.T) {
	if got := IncrementName("1/1"); got != "Per Second" {
		t.Errorf("Expected Per Second, found %s", got)
	}
	if got := IncrementName("7/7"); got != "7/7" {
		t.Errorf("Expected 7/7, found %s", got)
	}
}
