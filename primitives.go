// primitives.go -- endian-aware byte primitives shared by every layer of the
// MDX decoder: fixed-width integer reads, Adler-32 verification, and the
// fixed UTF-16LE attribute-text decode.
//
// (c) Sudhi Herle 2018
//
// License GPLv2
//
// If you need a commercial license for this work, please contact
// the author.
//
// This software does not come with any express or implied
// warranty; it is provided "as is". No claim  is made to its
// suitability for any purpose.

package mdx

import (
	"encoding/binary"
	"hash/adler32"
	"unicode/utf16"
	"unicode/utf8"
)

// readUint reads a width-byte (2, 4 or 8) unsigned integer from the front of
// b using byte order bo. It fails with Malformed if b is too short.
func readUint(op string, b []byte, width int, bo binary.ByteOrder) (uint64, []byte, error) {
	if len(b) < width {
		return 0, nil, malformed(op, "short read: need %d bytes, have %d", width, len(b))
	}

	switch width {
	case 2:
		return uint64(bo.Uint16(b)), b[2:], nil
	case 4:
		return uint64(bo.Uint32(b)), b[4:], nil
	case 8:
		return bo.Uint64(b), b[8:], nil
	default:
		return 0, nil, malformed(op, "unsupported integer width %d", width)
	}
}

// widthFor returns the integer width (in bytes) the format uses for a given
// version's offsets and counters: 4 for V1, 8 for V2.
func (v Version) widthFor() int {
	if v == V1 {
		return 4
	}
	return 8
}

// verifyAdler32 computes the Adler-32 of payload and compares it against
// expected, returning a ChecksumMismatch ParseError keyed to op on mismatch.
func verifyAdler32(op string, payload []byte, expected uint32) error {
	if got := adler32.Checksum(payload); got != expected {
		return checksumMismatch(op, expected, got)
	}
	return nil
}

// decodeUTF16LE decodes a little-endian UTF-16 byte slice into a string.
// It fails with Malformed on an odd-length slice or an invalid surrogate
// pair (a lone high surrogate, a lone low surrogate, or a high surrogate not
// followed by a low one).
func decodeUTF16LE(op string, b []byte) (string, error) {
	if len(b)%2 != 0 {
		return "", malformed(op, "odd-length UTF-16LE buffer: %d bytes", len(b))
	}

	units := make([]uint16, len(b)/2)
	for i := range units {
		units[i] = binary.LittleEndian.Uint16(b[i*2:])
	}

	runes := utf16.Decode(units)
	for _, r := range runes {
		if r == utf8.RuneError {
			return "", malformed(op, "invalid UTF-16 surrogate sequence")
		}
	}

	return string(runes), nil
}
