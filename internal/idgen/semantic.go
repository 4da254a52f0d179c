package idgen

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

// StopWords are common words removed from titles during ID generation.
var StopWords = map[string]bool{
	// Articles
	"a": true, "an": true, "the": true,
	// Prepositions
	"in": true, "on": true, "at": true, "to": true, "for": true,
	"of": true, "with": true, "by": true, "from": true, "as": true,
	// Conjunctions
	"and": true, "or": true, "but": true, "nor": true,
	// Common verbs that don't add meaning
	"is": true, "are": true, "was": true, "were": true,
	"be": true, "been": true, "being": true,
	"have": true, "has": true, "had": true,
	"do": true, "does": true, "did": true,
	// Other common words
	"this": true, "that": true, "these": true, "those": true,
	"it": true, "its": true,
}

var nonAlphanumericRegex = regexp.MustCompile(`[^a-z0-9]+`)

var multipleDashRegex = regexp.MustCompile(`-+`)

// maxSlugLength bounds the slug part of a project id.
const maxSlugLength = 40

// Slug converts a title into a lowercase dash-separated slug with stop words removed.
func Slug(title string) string {
	words := strings.Fields(nonAlphanumericRegex.ReplaceAllString(strings.ToLower(title), " "))
	if len(words) == 0 {
		return "untitled"
	}

	filtered := make([]string, 0, len(words))
	for _, word := range words {
		if !StopWords[word] {
			filtered = append(filtered, word)
		}
	}
	// If all words were filtered, use the first word from original
	if len(filtered) == 0 {
		filtered = []string{words[0]}
	}

	slug := strings.Join(filtered, "-")

	if !unicode.IsLetter(rune(slug[0])) {
		slug = "n" + slug
	}

	if len(slug) > maxSlugLength {
		// Try to truncate at word boundary
		truncated := slug[:maxSlugLength]
		if lastDash := strings.LastIndex(truncated, "-"); lastDash > maxSlugLength/2 {
			truncated = truncated[:lastDash]
		}
		slug = truncated
	}

	if len(slug) < 3 {
		slug = slug + strings.Repeat("x", 3-len(slug))
	}

	slug = strings.Trim(slug, "-")
	return multipleDashRegex.ReplaceAllString(slug, "-")
}

// ProjectID derives a project id from a title. exists is consulted for
// collisions and a numeric suffix is appended until the id is free.
func ProjectID(title string, exists func(id string) bool) string {
	base := "proj-" + Slug(title)
	id := base
	for suffix := 2; exists != nil && exists(id); suffix++ {
		id = base + "-" + strconv.Itoa(suffix)
		if suffix > 99 {
			// Failsafe: if we have 99+ collisions, something is wrong
			break
		}
	}
	return id
}
