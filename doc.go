// doc.go - top level documentation
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

// Package mdx decodes MDX dictionary files: MDict's binary, block-compressed
// and optionally-encrypted dictionary format.
//
// An MDX file is a header (a UTF-16LE blob of name="value" attributes,
// Adler-32 checked) followed by a key-block section and a record-block
// section. The key-block section carries every headword and an offset into
// the virtual concatenation of all decompressed record blocks; the
// record-block section carries the compressed definition text itself. A
// headword's definition is reconstructed by reconciling its key-block
// offset against the record-block size table to find which record block
// holds it and where within that block's decompressed form it starts and
// ends.
//
// Dictionary is the package's entry point: Open parses an MDX file already
// read into memory, OpenFile memory-maps one from disk. Both index every
// headword up front; Lookup and Items decompress record blocks lazily, only
// as a caller asks for them.
//
// Compression (store, LZO-mini, deflate) lives in the compress
// subpackage; the persistent SQL index adapter lives in index. Lookup
// itself is a linear scan over the in-memory headword table — callers
// doing more than a handful of lookups should build an index instead.
package mdx
