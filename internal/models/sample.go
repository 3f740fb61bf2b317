package models

import (
	"time"

	"github.com/google/uuid"
)

// SampleExits generates a deterministic set of exits over the days ending at
// reference, for seeding development databases. Destinations use the
// canonical labels plus a few strings that classify as Unknown/Other.
func SampleExits(reference time.Time, days int) []ExitRow {
	extra := []string{"", "Deceased", "Other"}
	last := Day(reference)

	var rows []ExitRow
	for i := 0; i < days; i++ {
		date := last.AddDate(0, 0, -i)
		for j := 0; j < (i*7+3)%4; j++ {
			dest := string(Categories[(i*3+j)%NumCategories])
			if (i+j)%11 == 0 {
				dest = extra[(i+j)%len(extra)]
			}
			rows = append(rows, ExitRow{
				MemberID:        uuid.New(),
				DateOfExit:      date,
				ExitDestination: dest,
			})
		}
	}
	return rows
}
