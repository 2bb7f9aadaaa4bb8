// reconcile.go -- the offset reconciler: a single linear sweep over the
// ordered key-block entries and record-block size table that produces one
// RecordLocator per entry.
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

// RecordLocator pins one headword to the record block containing its
// definition and the byte range within that block's decompressed form.
type RecordLocator struct {
	Headword string

	BlockFileOffset uint64 // offset of the block within the record region
	BlockCSize      uint64
	BlockDSize      uint64

	StartInDecompressed uint64
	EndInDecompressed   uint64
}

// reconcile sweeps entries (ordered by offset into the virtual
// concatenation of decompressed record blocks) against sizes (ordered
// record-block sizes) and produces one RecordLocator per entry.
func reconcile(entries []entry, sizes []recordBlockSize) []RecordLocator {
	locs := make([]RecordLocator, 0, len(entries))

	var cumDsize, cumCsize uint64
	i := 0

	for _, blk := range sizes {
		for i < len(entries) && entries[i].offset < cumDsize+blk.dsize {
			start := entries[i].offset - cumDsize

			end := blk.dsize
			if i+1 < len(entries) && entries[i+1].offset < cumDsize+blk.dsize {
				end = entries[i+1].offset - cumDsize
			}

			locs = append(locs, RecordLocator{
				Headword:            entries[i].headword,
				BlockFileOffset:     cumCsize,
				BlockCSize:          blk.csize,
				BlockDSize:          blk.dsize,
				StartInDecompressed: start,
				EndInDecompressed:   end,
			})

			i++
		}

		cumDsize += blk.dsize
		cumCsize += blk.csize
	}

	return locs
}
