package normalize

import "strings"

// Ordinal is a finite lookup table from a categorical value to an ordinal code.
// Lookups that miss are reported, never silently coded.
type Ordinal struct {
	Name  string
	codes map[string]int
}

// Lookup returns the code of a category. ok is false for unknown categories.
func (o Ordinal) Lookup(value string) (code int, ok bool) {
	code, ok = o.codes[categoryKey(value)]
	return code, ok
}

// categoryKey folds "As new", "AS_NEW" and "as-new" onto the same key.
func categoryKey(s string) string {
	s = strings.ToUpper(strings.TrimSpace(s))
	return strings.NewReplacer(" ", "_", "-", "_").Replace(s)
}

// ConditionOrdinal ranks the building state from worst to best.
var ConditionOrdinal = Ordinal{
	Name: "condition",
	codes: map[string]int{
		"TO_RESTORE":     0,
		"TO_RENOVATE":    1,
		"TO_BE_DONE_UP":  2,
		"GOOD":           3,
		"JUST_RENOVATED": 4,
		"AS_NEW":         5,
	},
}

// KitchenOrdinal ranks kitchen equipment; the USA_ variants share the plain codes.
var KitchenOrdinal = Ordinal{
	Name: "kitchen_type",
	codes: map[string]int{
		"NOT_INSTALLED":      0,
		"USA_UNINSTALLED":    0,
		"SEMI_EQUIPPED":      1,
		"USA_SEMI_EQUIPPED":  1,
		"INSTALLED":          2,
		"USA_INSTALLED":      2,
		"HYPER_EQUIPPED":     3,
		"USA_HYPER_EQUIPPED": 3,
	},
}

// EPCOrdinal ranks energy performance certificates, G lowest.
var EPCOrdinal = Ordinal{
	Name: "epc_score",
	codes: map[string]int{
		"G":   0,
		"F":   1,
		"E":   2,
		"D":   3,
		"C":   4,
		"B":   5,
		"A":   6,
		"A+":  7,
		"A++": 8,
	},
}
