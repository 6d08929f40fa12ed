// Package people resolves surface mentions of household members ("me", a
// first name, a nickname) to canonical person identifiers.
package people

import (
	"strings"

	"github.com/agnivade/levenshtein"
)

// DefaultFuzzyThreshold is the minimum similarity ratio for a fuzzy alias
// match.
const DefaultFuzzyThreshold = 0.8

// Directory supplies the alias table: lowercase surface form -> canonical
// person identifier.
type Directory interface {
	Aliases() map[string]string
}

// StaticDirectory is a fixed alias table, handy for tests and seeding.
type StaticDirectory map[string]string

func (d StaticDirectory) Aliases() map[string]string { return d }

// Resolver resolves mentions against a Directory using exact matching first,
// then fuzzy matching above a similarity threshold.
type Resolver struct {
	dir       Directory
	threshold float64
}

// NewResolver builds a Resolver. A threshold <= 0 selects the default.
func NewResolver(dir Directory, threshold float64) *Resolver {
	if threshold <= 0 {
		threshold = DefaultFuzzyThreshold
	}
	return &Resolver{dir: dir, threshold: threshold}
}

// Resolve maps a mention to a canonical identifier. "me", "myself" and "i"
// always resolve to the sender. Unknown mentions fall back to the literal
// lowercase form so the caller still has something actionable to store.
func (r *Resolver) Resolve(mention, sender string) string {
	m := strings.ToLower(strings.TrimSpace(mention))
	switch m {
	case "me", "myself", "i":
		return sender
	}

	aliases := r.dir.Aliases()
	if id, ok := aliases[m]; ok {
		return id
	}

	// Fuzzy pass: best ratio wins; ties go to the lexicographically
	// smallest alias so resolution does not depend on map iteration order.
	bestID := ""
	bestAlias := ""
	bestScore := r.threshold
	for alias, id := range aliases {
		score := Similarity(m, alias)
		if score < bestScore {
			continue
		}
		if score > bestScore || bestAlias == "" || alias < bestAlias {
			bestScore = score
			bestAlias = alias
			bestID = id
		}
	}
	if bestID != "" {
		return bestID
	}

	return m
}

// Known reports whether a mention resolves to a directory entry (exactly or
// fuzzily), as opposed to falling back to its literal form.
func (r *Resolver) Known(mention, sender string) bool {
	m := strings.ToLower(strings.TrimSpace(mention))
	switch m {
	case "me", "myself", "i":
		return true
	}
	aliases := r.dir.Aliases()
	if _, ok := aliases[m]; ok {
		return true
	}
	for alias := range aliases {
		if Similarity(m, alias) >= r.threshold {
			return true
		}
	}
	return false
}

// Similarity is a normalized ratio in [0,1]: 1 minus the Levenshtein
// distance over the longer input's rune length.
func Similarity(a, b string) float64 {
	if a == b {
		return 1
	}
	la, lb := len([]rune(a)), len([]rune(b))
	longest := la
	if lb > longest {
		longest = lb
	}
	if longest == 0 {
		return 1
	}
	dist := levenshtein.ComputeDistance(a, b)
	return 1 - float64(dist)/float64(longest)
}
