package settings

// Theme selects the color palette
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// Filter selects which tasks the view shows
type Filter string

const (
	FilterAll       Filter = "all"
	FilterActive    Filter = "active"
	FilterCompleted Filter = "completed"
)

// Filters lists the filters in display order
var Filters = []Filter{FilterAll, FilterActive, FilterCompleted}

// SortOrder is the persisted sort direction
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// Settings holds user preferences persisted under the settings key
type Settings struct {
	Theme     Theme     `json:"theme"`
	Filter    Filter    `json:"filter"`
	SortBy    string    `json:"sortBy"`
	SortOrder SortOrder `json:"sortOrder"`
}

// Default returns the settings used when nothing is persisted
func Default() Settings {
	return Settings{
		Theme:     ThemeLight,
		Filter:    FilterAll,
		SortBy:    "createdAt",
		SortOrder: SortDesc,
	}
}

// ParseTheme reports whether s names a known theme
func ParseTheme(s string) (Theme, bool) {
	switch Theme(s) {
	case ThemeLight, ThemeDark:
		return Theme(s), true
	}
	return "", false
}

// ParseFilter reports whether s names a known filter
func ParseFilter(s string) (Filter, bool) {
	switch Filter(s) {
	case FilterAll, FilterActive, FilterCompleted:
		return Filter(s), true
	}
	return "", false
}

// ParseSortOrder reports whether s names a known sort order
func ParseSortOrder(s string) (SortOrder, bool) {
	switch SortOrder(s) {
	case SortAsc, SortDesc:
		return SortOrder(s), true
	}
	return "", false
}

// Toggle returns the other theme
func (t Theme) Toggle() Theme {
	if t == ThemeDark {
		return ThemeLight
	}
	return ThemeDark
}

// Next returns the filter after f in display order, wrapping around
func (f Filter) Next() Filter {
	for i, candidate := range Filters {
		if candidate == f {
			return Filters[(i+1)%len(Filters)]
		}
	}
	return FilterAll
}
