package models

// Category is an exit destination bucket shown on the charts.
type Category string

// Exit destination categories.
const (
	PermanentExit       Category = "Permanent Exit"
	TemporaryExit       Category = "Temporary Exit"
	TransitionalHousing Category = "Transitional Housing"
	EmergencyShelter    Category = "Emergency Shelter"
	UnknownOther        Category = "Unknown/Other"
)

// Categories is the fixed display order for legends, series and slices.
var Categories = []Category{
	PermanentExit,
	TemporaryExit,
	TransitionalHousing,
	EmergencyShelter,
	UnknownOther,
}

// NumCategories is len(Categories).
const NumCategories = 5

// palette is shared by the line and pie charts so a category keeps its color
// across both views.
var palette = map[Category]string{
	PermanentExit:       "#636EFA",
	TemporaryExit:       "#EF553B",
	TransitionalHousing: "#00CC96",
	EmergencyShelter:    "#AB63FA",
	UnknownOther:        "#FFA15A",
}

// Color returns the hex color for the category.
// Unrecognized categories get the Unknown/Other color.
func (c Category) Color() string {
	if color, ok := palette[c]; ok {
		return color
	}
	return palette[UnknownOther]
}

// Index returns the position of the category in Categories, or -1.
func (c Category) Index() int {
	for i, cat := range Categories {
		if cat == c {
			return i
		}
	}
	return -1
}

// IsValid reports whether c is one of the fixed categories.
func (c Category) IsValid() bool {
	return c.Index() >= 0
}

func (c Category) String() string {
	return string(c)
}
