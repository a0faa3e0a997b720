package core

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestTrimToBytesShortStringUnchanged(t *testing.T) {
	assert.Equal(t, "hello", TrimToBytes("hello", 10))
	assert.Equal(t, "hello", TrimToBytes("hello", 5))
	assert.Equal(t, "", TrimToBytes("", 5))
}

func TestTrimToBytesCutsAtLimit(t *testing.T) {
	s := strings.Repeat("a", 100)
	out := TrimToBytes(s, 10)
	assert.Equal(t, 10, len(out))
}

func TestTrimToBytesNeverSplitsRune(t *testing.T) {
	// "é" is 2 bytes; a limit of 3 falls in the middle of the second rune.
	s := "ééé"
	out := TrimToBytes(s, 3)
	assert.True(t, utf8.ValidString(out))
	assert.Equal(t, "é", out)
	assert.LessOrEqual(t, len(out), 3)
}

func TestTrimToBytesMultiByteBoundary(t *testing.T) {
	// 4-byte runes: every cut inside a rune must drop the whole rune.
	s := strings.Repeat("\U0001F600", 4) // 16 bytes
	for limit := 0; limit <= 16; limit++ {
		out := TrimToBytes(s, limit)
		assert.True(t, utf8.ValidString(out), "limit %d", limit)
		assert.LessOrEqual(t, len(out), limit, "limit %d", limit)
		assert.Zero(t, len(out)%4, "limit %d", limit)
	}
}

func TestTrimToBytesIdempotent(t *testing.T) {
	s := "héllo wörld " + strings.Repeat("é", 50)
	once := TrimToBytes(s, 23)
	twice := TrimToBytes(once, 23)
	assert.Equal(t, once, twice)
}

func TestTrimToBytesZeroLimit(t *testing.T) {
	assert.Equal(t, "", TrimToBytes("anything", 0))
	assert.Equal(t, "", TrimToBytes("anything", -1))
}
