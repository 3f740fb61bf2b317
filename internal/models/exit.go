package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrMissingExitDate is returned by record sources when inserting an exit
// without a date.
var ErrMissingExitDate = errors.New("exit date is required")

// ExitRow is a member exit as stored by a record source.
type ExitRow struct {
	MemberID        uuid.UUID `json:"member_id"`
	DateOfExit      time.Time `json:"date_of_exit"`
	ExitDestination string    `json:"exit_destination"`
}

// ExitRecord is an exit with its destination resolved to a Category.
type ExitRecord struct {
	ExitDate    time.Time
	Destination Category
}

// DateLayout is the calendar date format used in storage and chart axes.
const DateLayout = "2006-01-02"

// Day truncates t to its calendar date at midnight UTC.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DayOfYear returns the 1-366 day-of-year of t's calendar date.
func DayOfYear(t time.Time) int {
	return t.YearDay()
}

// DaysBetween returns the whole number of calendar days from a to b.
func DaysBetween(a, b time.Time) int {
	return int(epochDay(b) - epochDay(a))
}

// epochDay counts calendar days since 1970-01-01. It works on Unix seconds
// rather than time.Duration, which overflows past about 292 years.
func epochDay(t time.Time) int64 {
	return Day(t).Unix() / secondsPerDay
}

const secondsPerDay = 24 * 60 * 60
