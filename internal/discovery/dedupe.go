package discovery

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

var keyFolder = cases.Fold()

// NaturalKey derives a stable duplicate-detection key from a candidate's
// title and uploader. Unicode is NFKC-normalized and case-folded so visually
// identical titles with different encodings collide, and punctuation is
// stripped so re-uploads with cosmetic edits collide too.
func NaturalKey(title, uploader string) string {
	return normalizeKeyPart(title) + "\x00" + normalizeKeyPart(uploader)
}

func normalizeKeyPart(value string) string {
	folded := keyFolder.String(norm.NFKC.String(value))
	var b strings.Builder
	b.Grow(len(folded))
	lastSpace := true
	for _, r := range folded {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastSpace = false
		case unicode.IsSpace(r) && !lastSpace:
			b.WriteRune(' ')
			lastSpace = true
		}
	}
	return strings.TrimRight(b.String(), " ")
}

// Deduper suppresses candidates already seen in this run.
type Deduper struct {
	seen map[string]struct{}
}

// NewDeduper returns an empty run-scoped duplicate filter.
func NewDeduper() *Deduper {
	return &Deduper{seen: make(map[string]struct{})}
}

// Admit reports whether the candidate is new, recording it when so.
func (d *Deduper) Admit(candidate Candidate) bool {
	key := NaturalKey(candidate.Title, candidate.Uploader)
	if _, dup := d.seen[key]; dup {
		return false
	}
	d.seen[key] = struct{}{}
	return true
}
