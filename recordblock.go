// recordblock.go -- record-block meta/size table and on-demand per-block
// decode. Unlike key blocks, record blocks are never decoded eagerly: the
// reconciler (reconcile.go) only needs the size table to build locators,
// and Dictionary.Items/Lookup decode individual blocks by file offset.
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

	"github.com/mdict-go/mdx/compress"
)

// recordBlockSize is one entry of the record-block-info table: the
// compressed and decompressed size of one record block.
type recordBlockSize struct {
	csize uint64
	dsize uint64
}

type recordBlockMeta struct {
	blockCount uint64
	entryCount uint64
	infoLen    uint64
	blocksLen  uint64
}

// parseRecordBlockHeader reads the record-block meta record and its size
// table from the front of b, returning the size table and the remainder of
// b, which is the record region (the bytes backing every block's file
// offset in the size table).
func parseRecordBlockHeader(ver Version, b []byte) ([]recordBlockSize, []byte, error) {
	const op = "record-block-meta"

	width := ver.widthFor()
	meta := recordBlockMeta{}

	var err error
	var v uint64

	if v, b, err = readUint(op, b, width, binary.BigEndian); err != nil {
		return nil, nil, err
	}
	meta.blockCount = v

	if v, b, err = readUint(op, b, width, binary.BigEndian); err != nil {
		return nil, nil, err
	}
	meta.entryCount = v

	if v, b, err = readUint(op, b, width, binary.BigEndian); err != nil {
		return nil, nil, err
	}
	meta.infoLen = v

	if v, b, err = readUint(op, b, width, binary.BigEndian); err != nil {
		return nil, nil, err
	}
	meta.blocksLen = v

	infoBytesWant := uint64(meta.blockCount) * uint64(2*width)
	if infoBytesWant != meta.infoLen {
		return nil, nil, malformed(op, "record_info_len %d disagrees with block_count*2*width %d", meta.infoLen, infoBytesWant)
	}

	sizes := make([]recordBlockSize, 0, meta.blockCount)
	for i := uint64(0); i < meta.blockCount; i++ {
		var csize, dsize uint64
		if csize, b, err = readUint(op, b, width, binary.BigEndian); err != nil {
			return nil, nil, err
		}
		if dsize, b, err = readUint(op, b, width, binary.BigEndian); err != nil {
			return nil, nil, err
		}
		sizes = append(sizes, recordBlockSize{csize: csize, dsize: dsize})
	}

	return sizes, b, nil
}

// decodeRecordBlock decodes the record block starting at fileOffset within
// region (the captured record region, i.e. the bytes returned alongside the
// size table by parseRecordBlockHeader), expecting a compressed length of
// csize and a decompressed length of dsize.
func decodeRecordBlock(region []byte, fileOffset, csize, dsize uint64) ([]byte, error) {
	const op = "record-block"

	if uint64(len(region)) < fileOffset+csize {
		return nil, malformed(op, "block out of range: offset %d csize %d region %d", fileOffset, csize, len(region))
	}
	block := region[fileOffset : fileOffset+csize]

	if len(block) < 8 {
		return nil, malformed(op, "block too short: %d bytes", len(block))
	}

	tag := binary.LittleEndian.Uint32(block[:4])
	checksum := block[4:8]
	payload := block[8:]

	encMethod := (tag >> 4) & 0xf
	compMethod := compress.Method(tag & 0xf)

	if encMethod != 0 {
		return nil, unsupported(op, "record-block encryption method %d", encMethod)
	}

	decompressed, err := compress.Decode(compMethod, payload, int(dsize))
	if err != nil {
		return nil, newErr(Decompress, op, err)
	}

	if err := verifyAdler32(op, decompressed, binary.BigEndian.Uint32(checksum)); err != nil {
		return nil, err
	}

	return decompressed, nil
}
