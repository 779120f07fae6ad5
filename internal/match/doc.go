// Package match suggests the closest recognized name for a misspelled
// annotation, such as readonly or primary-key.
//
// Names are compared after normalization (case folded, separators removed)
// by normalized Levenshtein similarity.
package match
