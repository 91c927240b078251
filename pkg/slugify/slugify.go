// Package slugify turns post titles into URL-safe slugs.
package slugify

import (
	"regexp"
	"strings"
	"time"
)

// TimestampLayout is appended to every slug so duplicate titles still get
// distinct slugs. Two identical titles created within the same second
// collide; the store's unique index rejects the second one.
const TimestampLayout = "2006-01-02-15-04-05"

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// Base lower-cases the title and collapses every run of characters outside
// [a-z0-9] into a single hyphen, trimming hyphens at both ends.
func Base(title string) string {
	s := nonAlnum.ReplaceAllString(strings.ToLower(title), "-")
	return strings.Trim(s, "-")
}

// Generate returns Base(title) followed by "-" and now formatted with
// TimestampLayout.
func Generate(title string, now time.Time) string {
	return Base(title) + "-" + now.Format(TimestampLayout)
}
