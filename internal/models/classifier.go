package models

import "strings"

// Classifier resolves raw stored destination strings to categories.
type Classifier struct {
	aliases map[string]Category
}

// NewClassifier builds a classifier. aliases maps raw destination strings to
// category labels; keys are matched case-insensitively and entries naming an
// unknown category are ignored.
func NewClassifier(aliases map[string]string) *Classifier {
	c := &Classifier{aliases: make(map[string]Category, len(aliases))}
	for raw, label := range aliases {
		cat, ok := lookupCategory(label)
		if !ok {
			continue
		}
		c.aliases[normalize(raw)] = cat
	}
	return c
}

// Classify returns the category for a raw destination. Anything unrecognized,
// including the empty string, is Unknown/Other.
func (c *Classifier) Classify(raw string) Category {
	if cat, ok := lookupCategory(raw); ok {
		return cat
	}
	if c != nil {
		if cat, ok := c.aliases[normalize(raw)]; ok {
			return cat
		}
	}
	return UnknownOther
}

// Records converts raw rows to records.
func (c *Classifier) Records(rows []ExitRow) []ExitRecord {
	records := make([]ExitRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, ExitRecord{
			ExitDate:    Day(row.DateOfExit),
			Destination: c.Classify(row.ExitDestination),
		})
	}
	return records
}

func lookupCategory(label string) (Category, bool) {
	n := normalize(label)
	for _, cat := range Categories {
		if normalize(string(cat)) == n {
			return cat, true
		}
	}
	return "", false
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
