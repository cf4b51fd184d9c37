// Package fingerprint derives stable identifiers for proposed edits.
//
// Two proposals with byte-identical sections in identical order produce the
// same digest and are treated as "the same edit, resubmitted". Reordering
// sections changes the digest. The digest is not a security boundary; it
// only needs to make accidental collisions rare.
package fingerprint

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
)

// New returns a stable hex digest over the given byte sections.
//
// Each section is framed with its length before hashing so that section
// boundaries are unambiguous: ("ab","c") and ("a","bc") hash differently.
// The result is 64 lowercase hex characters, safe for use as a filename.
func New(sections ...[]byte) string {
	h := sha256.New()
	var frame [8]byte
	for _, s := range sections {
		binary.LittleEndian.PutUint64(frame[:], uint64(len(s)))
		h.Write(frame[:])
		h.Write(s)
	}
	return hex.EncodeToString(h.Sum(nil))
}

// NewStrings is a convenience wrapper over New for string sections.
func NewStrings(sections ...string) string {
	bs := make([][]byte, len(sections))
	for i, s := range sections {
		bs[i] = []byte(s)
	}
	return New(bs...)
}
