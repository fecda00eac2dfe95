package models

// Filter keys understood by the record filter engine.
const (
	FilterSearch          = "search"
	FilterGender          = "gender"
	FilterCurrentState    = "currentState"
	FilterPreferredState  = "preferredState"
	FilterCurrentCity     = "currentCity"
	FilterPreferredCity   = "preferredCity"
	FilterDesignation     = "designation"
	FilterDepartment      = "department"
	FilterExperienceRange = "experienceRange"
	FilterCTCRange        = "ctcRange"
	FilterCompanyName     = "companyName"
	FilterAgeRange        = "ageRange"
)

// FilterKeys lists every known filter key in display order.
var FilterKeys = []string{
	FilterSearch,
	FilterGender,
	FilterCurrentState,
	FilterPreferredState,
	FilterCurrentCity,
	FilterPreferredCity,
	FilterDesignation,
	FilterDepartment,
	FilterExperienceRange,
	FilterCTCRange,
	FilterCompanyName,
	FilterAgeRange,
}

// FilterCriteria maps each filter key to its value. An empty value means no constraint.
// Every key in FilterKeys is always present.
type FilterCriteria map[string]string

// NewFilterCriteria returns criteria with every key set to "".
func NewFilterCriteria() FilterCriteria {
	c := make(FilterCriteria, len(FilterKeys))
	for _, k := range FilterKeys {
		c[k] = ""
	}
	return c
}

// IsKnownFilter reports whether key is one of FilterKeys.
func IsKnownFilter(key string) bool {
	for _, k := range FilterKeys {
		if k == key {
			return true
		}
	}
	return false
}

// Normalize returns a copy holding exactly the known keys, taking values from c.
func (c FilterCriteria) Normalize() FilterCriteria {
	out := NewFilterCriteria()
	for k, v := range c {
		if _, ok := out[k]; ok {
			out[k] = v
		}
	}
	return out
}

// IsEmpty reports whether no constraint is set.
func (c FilterCriteria) IsEmpty() bool {
	for _, v := range c {
		if v != "" {
			return false
		}
	}
	return true
}
