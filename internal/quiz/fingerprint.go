package quiz

import (
	"fmt"
	"hash/fnv"
	"regexp"
	"strings"
)

var (
	hyphens = regexp.MustCompile(`[-_]+`)
	punct   = regexp.MustCompile(`[^\w ]`)
	wsRun   = regexp.MustCompile(`\s+`)
)

// Fingerprint returns a normalized hash of question text so tiny wording or
// casing changes don't defeat de-dup. Case, whitespace runs, and punctuation
// are normalized away; hyphen and underscore act as word separators, so
// "What is Big-O?" and "what is big o" collide.
func Fingerprint(text string) string {
	norm := strings.ToLower(text)
	norm = hyphens.ReplaceAllString(norm, " ")
	norm = wsRun.ReplaceAllString(norm, " ")
	norm = punct.ReplaceAllString(norm, "")
	norm = wsRun.ReplaceAllString(norm, " ")
	norm = strings.TrimSpace(norm)

	h := fnv.New64a()
	h.Write([]byte(norm))
	return fmt.Sprintf("%016x", h.Sum64())
}
