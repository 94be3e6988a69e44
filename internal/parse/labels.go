// Package parse loads student batches from Excel or JSON input files and
// normalizes their column labels for the rest of the pipeline.
package parse

import (
	"fmt"
	"regexp"
	"strings"
)

var naKeyPattern = regexp.MustCompile(`^(?i)NA_\d+$`)

// CleanLabel converts a display column label to its internal key form:
// trimmed, lowercased, spaces as underscores. "Student Name" becomes
// "student_name".
func CleanLabel(label string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(label)), " ", "_")
}

// RestoreLabel converts an internal key back to its display form.
// "student_name" becomes "Student Name".
func RestoreLabel(key string) string {
	words := strings.Split(strings.TrimSpace(key), "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + strings.ToLower(w[1:])
	}
	return strings.Join(words, " ")
}

// UniqueNAKey suffixes a placeholder key with its row index so duplicate
// "NA" entries stay distinct in the keyed aggregate.
func UniqueNAKey(index int) string {
	return fmt.Sprintf("NA_%d", index)
}

// NormalizeNAKey collapses an "NA_<number>" key back to plain "NA" for
// display. Other keys pass through unchanged.
func NormalizeNAKey(key string) string {
	if naKeyPattern.MatchString(key) {
		return "NA"
	}
	return key
}
