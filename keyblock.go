// keyblock.go -- key-block meta record, info table, and per-block decode.
// Produces the ordered []entry that the offset reconciler (reconcile.go)
// consumes.
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
	"bytes"
	"encoding/binary"

	"github.com/mdict-go/mdx/compress"
)

// entry is one headword pulled from a decoded key block: the headword text
// and its offset into the virtual concatenation of all decompressed record
// blocks.
type entry struct {
	headword string
	offset   uint64
}

// keyBlockSize is one record of the key-block-info table: the compressed
// and decompressed size of the key block it describes.
type keyBlockSize struct {
	csize uint64
	dsize uint64
}

type keyBlockMeta struct {
	blockCount uint64
	entryCount uint64
	decInfoLen uint64 // V2 only: decompressed size of the key-block-info table
	infoLen    uint64
	blocksLen  uint64

	// checksumBytes are the 4 raw bytes of the meta's own checksum field
	// (V2 only), needed verbatim to derive the key-block-info decryption
	// key; see deriveKeyBlockInfoKey.
	checksumBytes []byte
}

// parseKeyBlockMeta reads the key-block meta record from the front of b.
//
// V1 carries 4 fields (block_count, entry_count, info_len, blocks_len); V2
// inserts decompressed_info_len between entry_count and info_len, giving
// (block_count, entry_count, dec_info_len, info_len, blocks_len) followed by
// a checksum over the 5-field region.
func parseKeyBlockMeta(h *Header, b []byte) (*keyBlockMeta, []byte, error) {
	const op = "key-block-meta"

	width := h.Version.widthFor()
	fieldsLen := 4 * width
	if h.Version == V2 {
		fieldsLen = 5 * width
	}
	if len(b) < fieldsLen {
		return nil, nil, malformed(op, "truncated: need %d bytes, have %d", fieldsLen, len(b))
	}
	fields := b[:fieldsLen]

	m := &keyBlockMeta{}

	var err error
	var v uint64
	rest := fields

	if v, rest, err = readUint(op, rest, width, binary.BigEndian); err != nil {
		return nil, nil, err
	}
	m.blockCount = v

	if v, rest, err = readUint(op, rest, width, binary.BigEndian); err != nil {
		return nil, nil, err
	}
	m.entryCount = v

	if h.Version == V2 {
		if v, rest, err = readUint(op, rest, width, binary.BigEndian); err != nil {
			return nil, nil, err
		}
		m.decInfoLen = v
	}

	if v, rest, err = readUint(op, rest, width, binary.BigEndian); err != nil {
		return nil, nil, err
	}
	m.infoLen = v

	if v, rest, err = readUint(op, rest, width, binary.BigEndian); err != nil {
		return nil, nil, err
	}
	m.blocksLen = v

	b = b[fieldsLen:]

	if h.Version == V1 {
		return m, b, nil
	}

	if len(b) < 4 {
		return nil, nil, malformed(op, "truncated checksum")
	}
	checksum := binary.BigEndian.Uint32(b[:4])
	m.checksumBytes = append([]byte(nil), b[:4]...)
	b = b[4:]

	if err := verifyAdler32(op, fields, checksum); err != nil {
		return nil, nil, err
	}

	return m, b, nil
}

var keyBlockInfoTag = [4]byte{0x02, 0x00, 0x00, 0x00}

// parseKeyBlockInfo reads and decodes the key-block-info table: meta.infoLen
// bytes starting at the front of b, returning one keyBlockSize per key
// block (meta.blockCount of them) and the remainder of b.
func parseKeyBlockInfo(h *Header, meta *keyBlockMeta, b []byte) ([]keyBlockSize, []byte, error) {
	const op = "key-block-info"

	if uint64(len(b)) < meta.infoLen {
		return nil, nil, malformed(op, "truncated: need %d bytes, have %d", meta.infoLen, len(b))
	}
	raw := b[:meta.infoLen]
	rest := b[meta.infoLen:]

	payload := raw
	if h.Version == V2 {
		if len(raw) < 8 {
			return nil, nil, malformed(op, "too short for V2 framing")
		}
		if !bytesEqual(raw[:4], keyBlockInfoTag[:]) {
			return nil, nil, malformed(op, "bad type tag %x", raw[:4])
		}
		checksum := binary.BigEndian.Uint32(raw[4:8])
		body := raw[8:]

		var decrypted []byte
		if h.Encrypted&0x02 != 0 {
			key := deriveKeyBlockInfoKey(meta.checksumBytes)
			decrypted = streamDecrypt(body, key)
		} else {
			decrypted = body
		}

		inflated, err := compress.Decode(compress.Deflate, decrypted, int(meta.decInfoLen))
		if err != nil {
			return nil, nil, newErr(Decompress, op, err)
		}
		if err := verifyAdler32(op, inflated, checksum); err != nil {
			return nil, nil, err
		}
		payload = inflated
	}

	sizes, err := decodeKeyBlockInfoRecords(op, h.Version, payload, meta.blockCount)
	if err != nil {
		return nil, nil, err
	}

	return sizes, rest, nil
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// decodeKeyBlockInfoRecords decodes the tight sequence of key-block-info
// records: one counter (width-sized), a length-prefixed head text, a
// length-prefixed tail text, then csize and dsize (width-sized each).
func decodeKeyBlockInfoRecords(op string, ver Version, b []byte, count uint64) ([]keyBlockSize, error) {
	width := ver.widthFor()
	lenWidth := ver.textLenWidth()
	term := 0
	if ver == V2 {
		term = 1
	}

	sizes := make([]keyBlockSize, 0, count)

	for i := uint64(0); i < count; i++ {
		var err error

		if _, b, err = readUint(op, b, width, binary.BigEndian); err != nil {
			return nil, err
		}

		var headLen uint64
		if headLen, b, err = readUint(op, b, lenWidth, binary.BigEndian); err != nil {
			return nil, err
		}
		skip := int(headLen) + term
		if len(b) < skip {
			return nil, malformed(op, "head text truncated")
		}
		b = b[skip:]

		var tailLen uint64
		if tailLen, b, err = readUint(op, b, lenWidth, binary.BigEndian); err != nil {
			return nil, err
		}
		skip = int(tailLen) + term
		if len(b) < skip {
			return nil, malformed(op, "tail text truncated")
		}
		b = b[skip:]

		var csize, dsize uint64
		if csize, b, err = readUint(op, b, width, binary.BigEndian); err != nil {
			return nil, err
		}
		if dsize, b, err = readUint(op, b, width, binary.BigEndian); err != nil {
			return nil, err
		}

		sizes = append(sizes, keyBlockSize{csize: csize, dsize: dsize})
	}

	return sizes, nil
}

// decodeKeyBlocks walks the blocks_len region (b, already sliced to exactly
// that length by the caller) slicing out each key block by its csize and
// decoding it into a run of entries, in order.
func decodeKeyBlocks(h *Header, sizes []keyBlockSize, b []byte) ([]entry, error) {
	const op = "key-block"

	var entries []entry

	for _, sz := range sizes {
		if uint64(len(b)) < sz.csize {
			return nil, malformed(op, "block truncated: need %d bytes, have %d", sz.csize, len(b))
		}
		block := b[:sz.csize]
		b = b[sz.csize:]

		es, err := decodeOneKeyBlock(h, block, sz.dsize)
		if err != nil {
			return nil, err
		}
		entries = append(entries, es...)
	}

	return entries, nil
}

func decodeOneKeyBlock(h *Header, block []byte, dsize uint64) ([]entry, error) {
	const op = "key-block"

	if len(block) < 8 {
		return nil, malformed(op, "block too short: %d bytes", len(block))
	}

	tag := binary.LittleEndian.Uint32(block[:4])
	checksum := block[4:8]
	payload := block[8:]

	encMethod := (tag >> 4) & 0xf
	compMethod := compress.Method(tag & 0xf)

	var decrypted []byte
	switch encMethod {
	case 0:
		decrypted = payload
	case 1:
		key := deriveBlockKey(checksum)
		decrypted = streamDecrypt(payload, key)
	default:
		return nil, unsupported(op, "key-block encryption method %d", encMethod)
	}

	decompressed, err := compress.Decode(compMethod, decrypted, int(dsize))
	if err != nil {
		return nil, newErr(Decompress, op, err)
	}

	if err := verifyAdler32(op, decompressed, binary.BigEndian.Uint32(checksum)); err != nil {
		return nil, err
	}

	return parseKeyBlockEntries(op, h, decompressed)
}

// parseKeyBlockEntries decodes a decompressed key block's payload: a packed
// sequence of (offset, headword, NUL) records.
func parseKeyBlockEntries(op string, h *Header, b []byte) ([]entry, error) {
	width := h.Version.widthFor()

	var entries []entry
	for len(b) > 0 {
		var offset uint64
		var err error

		if offset, b, err = readUint(op, b, width, binary.BigEndian); err != nil {
			return nil, err
		}

		nul := bytes.IndexByte(b, 0)
		if nul < 0 {
			return nil, malformed(op, "headword missing NUL terminator")
		}
		word, err := h.decode(op, b[:nul])
		if err != nil {
			return nil, err
		}
		b = b[nul+1:]

		entries = append(entries, entry{headword: word, offset: offset})
	}

	return entries, nil
}
