// dictionary.go -- the Dictionary facade: Open/OpenFile, Items, Lookup,
// Close. Ties together the header parser, key-block subsystem,
// record-block subsystem and offset reconciler into one immutable value
// that's safe for concurrent Items/Lookup calls.
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
	"os"
	"strings"

	lru "github.com/hashicorp/golang-lru/arc/v2"
	"github.com/opencoff/go-mmap"
)

// blockCacheSize bounds how many decoded record blocks Dictionary keeps
// around at once. ARC adapts between recency and frequency on its own, so a
// fixed, generous budget is all that's needed here.
const blockCacheSize = 64

// Dictionary is an opened, fully-indexed MDX file. It is immutable after
// Open/OpenFile returns: Items and Lookup may be called concurrently from
// multiple goroutines, each with its own cursor.
type Dictionary struct {
	Header *Header

	region []byte // record-block region; never decompressed eagerly
	locs   []RecordLocator

	blocks *lru.ARCCache[uint64, []byte]

	mm   *mmap.Mapping
	file *os.File
}

// Open parses an MDX file already read fully into memory.
func Open(data []byte) (*Dictionary, error) {
	h, rest, err := parseHeader(data)
	if err != nil {
		return nil, err
	}

	keyMeta, rest, err := parseKeyBlockMeta(h, rest)
	if err != nil {
		return nil, err
	}

	keySizes, rest, err := parseKeyBlockInfo(h, keyMeta, rest)
	if err != nil {
		return nil, err
	}

	if uint64(len(rest)) < keyMeta.blocksLen {
		return nil, malformed("key-block", "blocks region truncated")
	}
	keyBlocksRegion := rest[:keyMeta.blocksLen]
	rest = rest[keyMeta.blocksLen:]

	entries, err := decodeKeyBlocks(h, keySizes, keyBlocksRegion)
	if err != nil {
		return nil, err
	}

	recSizes, region, err := parseRecordBlockHeader(h.Version, rest)
	if err != nil {
		return nil, err
	}

	locs := reconcile(entries, recSizes)

	blocks, err := lru.NewARC[uint64, []byte](blockCacheSize)
	if err != nil {
		return nil, err
	}

	d := &Dictionary{Header: h, region: region, locs: locs, blocks: blocks}

	return d, nil
}

// OpenFile mmaps path read-only and parses it as an MDX file. The mapping
// is held for the Dictionary's lifetime and released by Close.
func OpenFile(path string) (*Dictionary, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	st, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}

	mm := mmap.New(f)
	mapping, err := mm.Map(st.Size(), 0, mmap.PROT_READ, mmap.F_READAHEAD)
	if err != nil {
		f.Close()
		return nil, err
	}

	d, err := Open(mapping.Bytes())
	if err != nil {
		mapping.Unmap()
		f.Close()
		return nil, err
	}

	d.mm = mapping
	d.file = f
	return d, nil
}

// Close releases the backing file mapping, if any. A Dictionary built from
// in-memory bytes via Open has nothing to release and Close is a no-op.
func (d *Dictionary) Close() error {
	if d.mm != nil {
		d.mm.Unmap()
		d.mm = nil
	}
	if d.file != nil {
		err := d.file.Close()
		d.file = nil
		return err
	}
	return nil
}

// Items returns every (headword, definition) pair in file order. Each call
// starts a fresh, independent iteration.
func (d *Dictionary) Items() ([]KeyValue, error) {
	out := make([]KeyValue, 0, len(d.locs))

	for _, l := range d.locs {
		decoded, err := d.decodeBlock(l)
		if err != nil {
			return nil, err
		}

		def, err := d.sliceDefinition(decoded, l)
		if err != nil {
			return nil, err
		}

		out = append(out, KeyValue{Headword: l.Headword, Definition: def})
	}

	return out, nil
}

// KeyValue is one decoded (headword, definition) pair.
type KeyValue struct {
	Headword   string
	Definition string
}

// Lookup returns the definition for headword, or ("", false) if absent. A
// linear scan is acceptable at this layer (callers after more than a few
// lookups should build a persistent index instead, see mdx/index). Case
// sensitivity follows Header.KeyCaseSensitive.
func (d *Dictionary) Lookup(headword string) (string, bool) {
	for i, l := range d.locs {
		if d.matches(l.Headword, headword) {
			return d.definitionAt(i)
		}
	}
	return "", false
}

func (d *Dictionary) matches(candidate, query string) bool {
	if d.Header.KeyCaseSensitive {
		return candidate == query
	}
	return strings.EqualFold(candidate, query)
}

func (d *Dictionary) definitionAt(i int) (string, bool) {
	l := d.locs[i]
	decoded, err := d.decodeBlock(l)
	if err != nil {
		return "", false
	}
	def, err := d.sliceDefinition(decoded, l)
	if err != nil {
		return "", false
	}
	return def, true
}

// decodeBlock returns the decompressed record block backing l, serving it
// from the ARC cache when a prior Items/Lookup call already decoded it.
func (d *Dictionary) decodeBlock(l RecordLocator) ([]byte, error) {
	if v, ok := d.blocks.Get(l.BlockFileOffset); ok {
		return v, nil
	}

	decoded, err := decodeRecordBlock(d.region, l.BlockFileOffset, l.BlockCSize, l.BlockDSize)
	if err != nil {
		return nil, err
	}
	d.blocks.Add(l.BlockFileOffset, decoded)
	return decoded, nil
}

// sliceDefinition slices [start..end) out of a decoded record block and
// decodes it with the header encoding, stripping one trailing NUL if
// present (the historical single-NUL-terminator convention inside a
// record block, as opposed to the headword's own terminator).
func (d *Dictionary) sliceDefinition(decoded []byte, l RecordLocator) (string, error) {
	const op = "record"

	if l.EndInDecompressed > uint64(len(decoded)) || l.StartInDecompressed > l.EndInDecompressed {
		return "", malformed(op, "locator range [%d,%d) out of bounds for %d-byte block", l.StartInDecompressed, l.EndInDecompressed, len(decoded))
	}

	slice := decoded[l.StartInDecompressed:l.EndInDecompressed]
	if len(slice) > 0 && slice[len(slice)-1] == 0 {
		slice = slice[:len(slice)-1]
	}

	return d.Header.decode(op, slice)
}
