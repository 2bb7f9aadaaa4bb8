// fixture_test.go -- builds a minimal, well-formed V2 MDX byte stream for
// the other tests in this package to parse. Every size/checksum field is
// computed from the actual bytes being assembled rather than hand-derived,
// so the fixture stays correct if the content strings below ever change.

package mdx

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"hash/adler32"
	"unicode/utf16"
)

type fixtureEntry struct {
	headword string
	offset   uint64
}

// buildV2Fixture assembles a single-key-block, single-record-block V2 MDX
// file (unencrypted, store-compressed key block, store-compressed record
// block) containing entries at their given offsets into recordContent.
func buildV2Fixture(attrs string, entries []fixtureEntry, recordContent []byte) []byte {
	var out bytes.Buffer

	out.Write(buildHeaderSection(attrs))
	out.Write(buildKeyBlockSection(entries))
	out.Write(buildRecordBlockSection(recordContent))

	return out.Bytes()
}

func buildHeaderSection(attrs string) []byte {
	units := utf16.Encode([]rune(attrs))
	text := make([]byte, 0, len(units)*2+2)
	for _, u := range units {
		var b [2]byte
		binary.LittleEndian.PutUint16(b[:], u)
		text = append(text, b[:]...)
	}
	text = append(text, 0x00, 0x00) // doubled-NUL pad

	var out bytes.Buffer
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(text)))
	out.Write(lenBuf[:])
	out.Write(text)

	var sumBuf [4]byte
	binary.LittleEndian.PutUint32(sumBuf[:], adler32.Checksum(text))
	out.Write(sumBuf[:])

	return out.Bytes()
}

func beUint64Bytes(v uint64) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	return b[:]
}

func beUint16Bytes(v uint16) []byte {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], v)
	return b[:]
}

// buildKeyBlockSection packs entries into one store-compressed key block
// and wraps it with a V2 key-block-meta record and a deflated
// key-block-info table.
func buildKeyBlockSection(entries []fixtureEntry) []byte {
	var decoded bytes.Buffer
	for _, e := range entries {
		decoded.Write(beUint64Bytes(e.offset))
		decoded.WriteString(e.headword)
		decoded.WriteByte(0)
	}
	dsize := uint64(decoded.Len())

	var block bytes.Buffer
	block.Write([]byte{0, 0, 0, 0}) // tag: enc=0, comp=store(0)
	var sumBuf [4]byte
	binary.BigEndian.PutUint32(sumBuf[:], adler32.Checksum(decoded.Bytes()))
	block.Write(sumBuf[:])
	block.Write(decoded.Bytes())
	blockCsize := uint64(block.Len()) // tag(4) + checksum(4) + payload(dsize)

	var infoPayload bytes.Buffer
	infoPayload.Write(beUint64Bytes(uint64(len(entries))))
	head := entries[0].headword
	tail := entries[len(entries)-1].headword
	infoPayload.Write(beUint16Bytes(uint16(len(head))))
	infoPayload.WriteString(head)
	infoPayload.WriteByte(0)
	infoPayload.Write(beUint16Bytes(uint16(len(tail))))
	infoPayload.WriteString(tail)
	infoPayload.WriteByte(0)
	infoPayload.Write(beUint64Bytes(blockCsize))
	infoPayload.Write(beUint64Bytes(dsize))

	var deflated bytes.Buffer
	zw := zlib.NewWriter(&deflated)
	zw.Write(infoPayload.Bytes())
	zw.Close()

	var infoBlob bytes.Buffer
	infoBlob.Write([]byte{0x02, 0x00, 0x00, 0x00})
	var infoSum [4]byte
	binary.BigEndian.PutUint32(infoSum[:], adler32.Checksum(infoPayload.Bytes()))
	infoBlob.Write(infoSum[:])
	infoBlob.Write(deflated.Bytes())

	var out bytes.Buffer
	out.Write(beUint64Bytes(1))                             // blockCount
	out.Write(beUint64Bytes(uint64(len(entries))))          // entryCount
	out.Write(beUint64Bytes(uint64(infoPayload.Len())))     // decInfoLen (decompressed info table size)
	out.Write(beUint64Bytes(uint64(infoBlob.Len())))        // infoLen (on-disk tag+checksum+deflated size)
	out.Write(beUint64Bytes(blockCsize))                    // blocksLen

	metaFields := out.Bytes()
	var metaSum [4]byte
	binary.BigEndian.PutUint32(metaSum[:], adler32.Checksum(metaFields))
	out.Write(metaSum[:])

	out.Write(infoBlob.Bytes())
	out.Write(block.Bytes())

	return out.Bytes()
}

func buildRecordBlockSection(content []byte) []byte {
	var block bytes.Buffer
	block.Write([]byte{0, 0, 0, 0})
	var sumBuf [4]byte
	binary.BigEndian.PutUint32(sumBuf[:], adler32.Checksum(content))
	block.Write(sumBuf[:])
	block.Write(content)

	var out bytes.Buffer
	out.Write(beUint64Bytes(1))                      // blockCount
	out.Write(beUint64Bytes(1))                      // entryCount (unused)
	out.Write(beUint64Bytes(uint64(2 * 8)))          // infoLen = blockCount*2*width
	out.Write(beUint64Bytes(uint64(block.Len())))    // blocksLen
	out.Write(beUint64Bytes(uint64(block.Len())))    // csize
	out.Write(beUint64Bytes(uint64(len(content))))   // dsize
	out.Write(block.Bytes())

	return out.Bytes()
}
