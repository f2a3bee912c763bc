package models

// PropertyStatus is the pipeline stage of a property record
type PropertyStatus string

const (
	StatusDiscover   PropertyStatus = "DISCOVER"
	StatusUnderwrite PropertyStatus = "UNDERWRITE"
	StatusManage     PropertyStatus = "MANAGE"
	StatusPassed     PropertyStatus = "PASSED"
	StatusDisposed   PropertyStatus = "DISPOSED"
)

// allowedTransitions is the full directed transition table. Anything not
// listed here is rejected; status never changes outside this table.
var allowedTransitions = map[PropertyStatus][]PropertyStatus{
	StatusDiscover:   {StatusUnderwrite, StatusPassed},
	StatusUnderwrite: {StatusManage, StatusPassed, StatusDiscover},
	StatusManage:     {StatusDisposed, StatusUnderwrite},
	StatusPassed:     {},
	StatusDisposed:   {},
}

// AllStatuses lists every pipeline stage in flow order
func AllStatuses() []PropertyStatus {
	return []PropertyStatus{
		StatusDiscover,
		StatusUnderwrite,
		StatusManage,
		StatusPassed,
		StatusDisposed,
	}
}

// Valid reports whether s is a known pipeline stage
func (s PropertyStatus) Valid() bool {
	_, ok := allowedTransitions[s]
	return ok
}

// IsTerminal reports whether s has no outgoing transitions. Terminal records
// are hidden from the default pipeline listing.
func (s PropertyStatus) IsTerminal() bool {
	return s == StatusPassed || s == StatusDisposed
}

// CanTransition reports whether moving from one stage to another is allowed
func CanTransition(from, to PropertyStatus) bool {
	for _, t := range allowedTransitions[from] {
		if t == to {
			return true
		}
	}
	return false
}
