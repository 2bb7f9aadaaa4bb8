// fixture_test.go -- hand-assembled V2 MDX fixtures for index package
// tests, built directly against mdx's public Open, independent of mdx's
// own internal test fixtures (mdx/fixture_test.go) since those live in an
// unexported test-only helper in a different package.

package index

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"hash/adler32"
	"testing"
	"unicode/utf16"

	"github.com/mdict-go/mdx"
)

type fixtureWord struct {
	headword string
	offset   uint64
}

func beU64(v uint64) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	return b[:]
}

func beU16(v uint16) []byte {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], v)
	return b[:]
}

// buildDictionary assembles a minimal single-key-block, single-record-block
// V2 MDX file from words/content and opens it through mdx.Open.
func buildDictionary(t *testing.T, words []fixtureWord, content []byte) *mdx.Dictionary {
	t.Helper()

	const attrs = `GeneratedByEngineVersion="2.0" Encrypted="0" KeyCaseSensitive="Yes"`

	units := utf16.Encode([]rune(attrs))
	text := make([]byte, 0, len(units)*2+2)
	for _, u := range units {
		var b [2]byte
		binary.LittleEndian.PutUint16(b[:], u)
		text = append(text, b[:]...)
	}
	text = append(text, 0, 0)

	var header bytes.Buffer
	header.Write(beU32(uint32(len(text))))
	header.Write(text)
	var hsum [4]byte
	binary.LittleEndian.PutUint32(hsum[:], adler32.Checksum(text))
	header.Write(hsum[:])

	var decoded bytes.Buffer
	for _, w := range words {
		decoded.Write(beU64(w.offset))
		decoded.WriteString(w.headword)
		decoded.WriteByte(0)
	}

	var block bytes.Buffer
	block.Write([]byte{0, 0, 0, 0})
	var bsum [4]byte
	binary.BigEndian.PutUint32(bsum[:], adler32.Checksum(decoded.Bytes()))
	block.Write(bsum[:])
	block.Write(decoded.Bytes())
	blockCsize := uint64(block.Len())
	dsize := uint64(decoded.Len())

	var infoPayload bytes.Buffer
	infoPayload.Write(beU64(uint64(len(words))))
	head, tail := words[0].headword, words[len(words)-1].headword
	infoPayload.Write(beU16(uint16(len(head))))
	infoPayload.WriteString(head)
	infoPayload.WriteByte(0)
	infoPayload.Write(beU16(uint16(len(tail))))
	infoPayload.WriteString(tail)
	infoPayload.WriteByte(0)
	infoPayload.Write(beU64(blockCsize))
	infoPayload.Write(beU64(dsize))

	var deflated bytes.Buffer
	zw := zlib.NewWriter(&deflated)
	zw.Write(infoPayload.Bytes())
	zw.Close()

	var infoBlob bytes.Buffer
	infoBlob.Write([]byte{0x02, 0x00, 0x00, 0x00})
	var isum [4]byte
	binary.BigEndian.PutUint32(isum[:], adler32.Checksum(infoPayload.Bytes()))
	infoBlob.Write(isum[:])
	infoBlob.Write(deflated.Bytes())

	var meta bytes.Buffer
	meta.Write(beU64(1))
	meta.Write(beU64(uint64(len(words))))
	meta.Write(beU64(uint64(infoPayload.Len()))) // decInfoLen
	meta.Write(beU64(uint64(infoBlob.Len())))    // infoLen
	meta.Write(beU64(blockCsize))                // blocksLen
	var msum [4]byte
	binary.BigEndian.PutUint32(msum[:], adler32.Checksum(meta.Bytes()))

	var keySection bytes.Buffer
	keySection.Write(meta.Bytes())
	keySection.Write(msum[:])
	keySection.Write(infoBlob.Bytes())
	keySection.Write(block.Bytes())

	var recBlock bytes.Buffer
	recBlock.Write([]byte{0, 0, 0, 0})
	var rsum [4]byte
	binary.BigEndian.PutUint32(rsum[:], adler32.Checksum(content))
	recBlock.Write(rsum[:])
	recBlock.Write(content)

	var recSection bytes.Buffer
	recSection.Write(beU64(1))
	recSection.Write(beU64(1))
	recSection.Write(beU64(16))
	recSection.Write(beU64(uint64(recBlock.Len())))
	recSection.Write(beU64(uint64(recBlock.Len())))
	recSection.Write(beU64(uint64(len(content))))
	recSection.Write(recBlock.Bytes())

	var out bytes.Buffer
	out.Write(header.Bytes())
	out.Write(keySection.Bytes())
	out.Write(recSection.Bytes())

	d, err := mdx.Open(out.Bytes())
	if err != nil {
		t.Fatalf("mdx.Open: %s", err)
	}
	return d
}

func beU32(v uint32) []byte {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	return b[:]
}
