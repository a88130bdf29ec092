// Package normalize turns raw table labels into canonical aliases.
package normalize

import (
	"regexp"
	"strings"
)

var (
	parentheticalRe = regexp.MustCompile(`(?s)\(.*?\)`)
	digitsRe        = regexp.MustCompile(`\d+`)
	separatorRe     = strings.NewReplacer(",", " ", "/", " ")
)

// stopWords are measurement, unit and filler words that never belong in an alias.
var stopWords = map[string]struct{}{
	"about": {}, "g": {}, "lb": {}, "lbs": {}, "quart": {}, "cup": {}, "cups": {},
	"tsp": {}, "tbsp": {}, "pinches": {}, "large": {}, "small": {}, "medium": {},
	"clove": {}, "cloves": {}, "of": {},
}

var droppedAdjectives = map[string]struct{}{
	"baby": {},
}

// Alias converts display text into a lowercase, underscore-joined alias.
//
// Rules:
//  1. Trim and lowercase
//  2. Remove parenthetical text ("(about 96g)")
//  3. Remove digit runs
//  4. Treat commas and slashes as spaces
//  5. Drop stop words and dropped adjectives
//  6. Join the remaining words with underscores, trimming stray underscores
//
// Examples:
//
//	"Baby oakleaf lettuce (about 96g)" → "oakleaf_lettuce"
//	"Chicken breast (2-3 lb)"          → "chicken_breast"
//	"2 cloves garlic"                  → "garlic"
//	"(optional)"                       → ""
//
// An empty result means the text carries no usable label.
func Alias(text string) string {
	t := strings.ToLower(strings.TrimSpace(text))
	t = parentheticalRe.ReplaceAllString(t, "")
	t = digitsRe.ReplaceAllString(t, "")
	t = separatorRe.Replace(t)

	words := strings.Fields(t)
	kept := words[:0]
	for _, w := range words {
		if _, drop := stopWords[w]; drop {
			continue
		}
		if _, drop := droppedAdjectives[w]; drop {
			continue
		}
		kept = append(kept, w)
	}
	return strings.Trim(strings.Join(kept, "_"), "_")
}
