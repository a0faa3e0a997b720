package core

import "unicode/utf8"

// TrimToBytes trims s so that its UTF-8 encoding is at most limit bytes.
// A multi-byte rune straddling the cut is dropped entirely rather than
// producing invalid output. The operation is idempotent.
func TrimToBytes(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	if len(s) <= limit {
		return s
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
