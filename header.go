// header.go -- parses the length-prefixed, UTF-16LE attribute header that
// opens every MDX file and selects the V1/V2 field-width scheme the rest of
// the decoder uses.
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
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
)

// Version selects the field-width scheme the rest of the decoder uses:
// V1 is 32-bit offsets/counters with a 1-byte key-block text-length prefix;
// V2 is 64-bit with a 2-byte prefix.
type Version int

const (
	V1 Version = iota + 1
	V2
)

func (v Version) String() string {
	switch v {
	case V1:
		return "1.x"
	case V2:
		return "2.x"
	default:
		return "unknown"
	}
}

// textLenWidth returns the width, in bytes, of the head/tail text-length
// prefixes used inside the key-block info table: 1 for V1, 2 for V2.
func (v Version) textLenWidth() int {
	if v == V1 {
		return 1
	}
	return 2
}

// Header carries the parsed attributes of an MDX file's opening metadata
// blob. Only Version, Encoding, Encrypted and KeyCaseSensitive are named by
// the format's consumers directly; every other attribute remains reachable
// through Attr.
type Header struct {
	Version          Version
	EncodingLabel    string
	Encrypted        int // 0..3, see streamDecrypt gating in keyblock.go
	KeyCaseSensitive bool

	attrs map[string]string
	enc   encoding.Encoding
}

// Attr returns the raw value of a header attribute by name (e.g. "Title",
// "Description", "StyleSheet") and whether it was present.
func (h *Header) Attr(name string) (string, bool) {
	v, ok := h.attrs[name]
	return v, ok
}

// decode decodes b, which is assumed to already be in the header's declared
// encoding, into a string.
func (h *Header) decode(op string, b []byte) (string, error) {
	if h.enc == nil {
		return string(b), nil
	}
	out, err := h.enc.NewDecoder().Bytes(b)
	if err != nil {
		return "", malformed(op, "decode with %s: %v", h.EncodingLabel, err)
	}
	return string(out), nil
}

// parseHeader reads the header from the front of b and returns the parsed
// Header plus the remainder of b (the start of the key-block section).
func parseHeader(b []byte) (*Header, []byte, error) {
	const op = "header"

	length, rest, err := readUint(op, b, 4, binary.BigEndian)
	if err != nil {
		return nil, nil, err
	}

	if uint64(len(rest)) < length+4 {
		return nil, nil, malformed(op, "truncated: need %d bytes, have %d", length+4, len(rest))
	}

	text := rest[:length]
	rest = rest[length:]

	checksum := binary.LittleEndian.Uint32(rest[:4])
	rest = rest[4:]

	if err := verifyAdler32(op, text, checksum); err != nil {
		return nil, nil, err
	}

	// Trailing terminator: a well-formed file pads the UTF-16LE text with
	// a doubled NUL; some writers only emit one. Trim either.
	if len(text)%2 == 1 && text[len(text)-1] == 0 {
		text = text[:len(text)-1]
	}
	for len(text) >= 2 && text[len(text)-2] == 0 && text[len(text)-1] == 0 {
		text = text[:len(text)-2]
	}

	utf8Text, err := decodeUTF16LE(op, text)
	if err != nil {
		return nil, nil, err
	}

	attrs, err := scanAttrs(op, utf8Text)
	if err != nil {
		return nil, nil, err
	}

	h := &Header{attrs: attrs}

	ver, ok := attrs["GeneratedByEngineVersion"]
	if !ok || len(ver) == 0 {
		return nil, nil, malformed(op, "missing GeneratedByEngineVersion attribute")
	}
	switch ver[0] {
	case '1':
		h.Version = V1
	case '2':
		h.Version = V2
	default:
		return nil, nil, unsupported(op, "engine version %q", ver)
	}

	h.EncodingLabel = strings.TrimSpace(attrs["Encoding"])
	if h.EncodingLabel != "" {
		enc, err := htmlindex.Get(h.EncodingLabel)
		if err != nil {
			return nil, nil, unsupported(op, "encoding %q: %v", h.EncodingLabel, err)
		}
		h.enc = enc
	}

	if v, ok := attrs["Encrypted"]; ok && len(v) > 0 {
		switch v[0] {
		case '0', '1', '2', '3':
			h.Encrypted = int(v[0] - '0')
		default:
			return nil, nil, unsupported(op, "Encrypted flag %q", v)
		}
	}

	// Default is case-sensitive: real files frequently omit this attribute,
	// and an absent attribute must not silently relax Lookup's matching.
	if v, ok := attrs["KeyCaseSensitive"]; ok {
		h.KeyCaseSensitive = strings.EqualFold(strings.TrimSpace(v), "yes") || strings.TrimSpace(v) == "1"
	} else {
		h.KeyCaseSensitive = true
	}

	return h, rest, nil
}

// scanAttrs scans a sequence of name="value" pairs out of text. Values may
// span newlines; only the outer quotes terminate a value.
func scanAttrs(op, text string) (map[string]string, error) {
	attrs := make(map[string]string)

	i := 0
	n := len(text)
	for i < n {
		for i < n && (text[i] == ' ' || text[i] == '\t' || text[i] == '\r' || text[i] == '\n') {
			i++
		}
		if i >= n {
			break
		}

		nameStart := i
		for i < n && text[i] != '=' {
			i++
		}
		if i >= n {
			break
		}
		name := strings.TrimSpace(text[nameStart:i])
		i++ // skip '='

		if i >= n || text[i] != '"' {
			return nil, malformed(op, "attribute %q missing opening quote", name)
		}
		i++ // skip opening quote

		valStart := i
		for i < n && text[i] != '"' {
			i++
		}
		if i >= n {
			return nil, malformed(op, "attribute %q missing closing quote", name)
		}
		value := text[valStart:i]
		i++ // skip closing quote

		if name != "" {
			attrs[name] = value
		}
	}

	return attrs, nil
}
