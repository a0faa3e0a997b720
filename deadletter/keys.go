package deadletter

import (
	"encoding/binary"

	"github.com/poiesic/indexfeed/core"
)

// Key prefix for dead-letter records
const recordPrefix = "dlrec"

// makeRecordKey generates a composite key for a dead-letter record.
// Format: prefix:documentID:timestamp
func makeRecordKey(id core.ID, nanos int64) []byte {
	prefix := recordPrefix + ":"
	prefixBytes := []byte(prefix)
	prefixSize := len(prefixBytes)
	totalSize := prefixSize + 16 // 8 bytes for document ID + 8 bytes for timestamp
	buf := make([]byte, totalSize)
	offset := copy(buf, prefixBytes)
	// Write in BigEndian order so lexicographic sort works correctly
	binary.BigEndian.PutUint64(buf[offset:], uint64(id))
	offset += 8
	binary.BigEndian.PutUint64(buf[offset:], uint64(nanos))
	return buf
}

// recordKeyPrefix returns the prefix covering all dead-letter records.
func recordKeyPrefix() []byte {
	return []byte(recordPrefix + ":")
}
