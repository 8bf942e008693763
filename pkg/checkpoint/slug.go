package checkpoint

import (
	"fmt"
	"hash/fnv"
	"strings"
	"unicode"
)

const maxSlugLen = 40

// Slug collapses a free-form topic hint into a short, file-safe token.
// The mapping is deterministic (same hint, same slug) but not reversible.
func Slug(topicHint string) string {
	var b strings.Builder
	lastHyphen := true // suppress leading hyphens
	for _, r := range strings.ToLower(topicHint) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastHyphen = false
		case !lastHyphen:
			b.WriteByte('-')
			lastHyphen = true
		}
	}
	s := strings.Trim(b.String(), "-")
	if len(s) > maxSlugLen {
		s = strings.Trim(s[:maxSlugLen], "-")
	}
	if s == "" {
		// Hint had no usable characters; fall back to a stable digest so
		// the same hint still maps to the same key.
		h := fnv.New32a()
		h.Write([]byte(topicHint))
		return fmt.Sprintf("topic-%08x", h.Sum32())
	}
	return s
}
