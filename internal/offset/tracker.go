package offset

import "unicode/utf16"

// Units returns the number of UTF-16 code units in s, the unit the Docs API
// uses for every document index.
func Units(s string) int {
	n := 0
	for _, r := range s {
		if w := utf16.RuneLen(r); w > 0 {
			n += w
		} else {
			// Invalid runes are replaced by U+FFFD, one unit wide.
			n++
		}
	}
	return n
}

// Tracker is a monotonically increasing cursor over assembled document text.
type Tracker struct {
	pos int
}

// NewTracker starts a cursor at base. Document bodies begin at index 1.
func NewTracker(base int) *Tracker {
	return &Tracker{pos: base}
}

// Pos returns the current offset.
func (t *Tracker) Pos() int {
	return t.pos
}

// Advance moves the cursor past s and returns the half-open range it covers.
func (t *Tracker) Advance(s string) (start, end int) {
	return t.AdvanceUnits(Units(s))
}

// AdvanceUnits moves the cursor n units forward. Negative n is treated as 0
// so the cursor never moves backwards.
func (t *Tracker) AdvanceUnits(n int) (start, end int) {
	start = t.pos
	if n > 0 {
		t.pos += n
	}
	return start, t.pos
}
