package find

// Property identifies which part of the model changed
type Property int

const (
	PropertyPattern Property = iota
	PropertyMatchCase
	PropertyWholeWord
	PropertyUseRegex
	PropertyResults
	PropertyCurrentResultIndex
	PropertyFault
	PropertySearching
	PropertyProgress
)

var propertyNames = [...]string{
	PropertyPattern:            "Pattern",
	PropertyMatchCase:          "MatchCase",
	PropertyWholeWord:          "WholeWord",
	PropertyUseRegex:           "UseRegex",
	PropertyResults:            "Results",
	PropertyCurrentResultIndex: "CurrentResultIndex",
	PropertyFault:              "Fault",
	PropertySearching:          "Searching",
	PropertyProgress:           "Progress",
}

func (p Property) String() string {
	if p < 0 || int(p) >= len(propertyNames) {
		return "Unknown"
	}
	return propertyNames[p]
}

// Change is delivered to model subscribers on the owner goroutine
type Change struct {
	Property Property
}
