package validation

import (
	"errors"
	"fmt"
)

// Allowed moving-window lengths in days.
const (
	Window90  = 90
	Window365 = 365
)

var (
	// ErrInvalidWindow is returned for any window length other than 90 or 365.
	ErrInvalidWindow = errors.New("Not found. Try m=90 or m=365")

	// ErrInvalidDaysBack is returned for a negative or oversized date range.
	ErrInvalidDaysBack = errors.New("invalid days_back")
)

// ValidateWindow checks that m is one of the supported window lengths.
func ValidateWindow(m int) error {
	if m != Window90 && m != Window365 {
		return ErrInvalidWindow
	}
	return nil
}

// ValidateDaysBack checks 0 <= daysBack <= max. A max of 0 means no upper bound.
func ValidateDaysBack(daysBack, max int) error {
	if daysBack < 0 {
		return fmt.Errorf("%w: must be >= 0", ErrInvalidDaysBack)
	}
	if max > 0 && daysBack > max {
		return fmt.Errorf("%w: must be <= %d", ErrInvalidDaysBack, max)
	}
	return nil
}
