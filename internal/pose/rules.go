// Package pose reduces filtered joint sets to discrete hand and body labels.
//
// Classification is an ordered table of label/predicate pairs evaluated in
// sequence; the first predicate that holds wins and an unmatched input falls
// back to the table's default. Predicates whose joints are missing do not
// hold, so every input, including an empty set, resolves to exactly one label.
package pose

import "github.com/ayusman/aronvision/internal/landmark"

// rule pairs a label with the predicate that derives it.
type rule[L ~string] struct {
	label L
	match func(landmark.JointSet) bool
}

// evaluate returns the label of the first matching rule, or def.
func evaluate[L ~string](rules []rule[L], s landmark.JointSet, def L) L {
	if len(s) == 0 {
		return def
	}
	for _, r := range rules {
		if r.match(s) {
			return r.label
		}
	}
	return def
}
