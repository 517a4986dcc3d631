package orders

import "strings"

// ContainsPineapple reports whether flavour asks for pineapple.
// The comparison is case-insensitive and exact: "Hawaiian" counts,
// "pineapple pepperoni" does not.
func ContainsPineapple(flavour string) bool {
	switch strings.ToLower(flavour) {
	case "pineapple", "hawaiian":
		return true
	default:
		return false
	}
}

// Analyse runs ContainsPineapple and wraps the result.
func Analyse(flavour string) PineappleAnalysis {
	return PineappleAnalysis{ContainsPineapple: ContainsPineapple(flavour)}
}
