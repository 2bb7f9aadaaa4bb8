// deflate.go -- comp=2: zlib-wrapped deflate, matching the original
// decoder's use of a ZlibDecoder (not raw DEFLATE — MDX blocks carry the
// 2-byte zlib header and Adler-32 trailer that zlib.NewReader expects).
//
// klauspost/compress/zlib is a drop-in, faster-than-stdlib replacement for
// compress/zlib; it's already in this module's dependency graph (see
// DESIGN.md) for the same reason arloliu-mebo and darshanime-pebble both
// reach for klauspost over the standard library's compress/* packages.

package compress

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/zlib"
)

func decodeDeflate(data []byte, dsize int) ([]byte, error) {
	zr, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("compress: deflate: open: %w", err)
	}
	defer zr.Close()

	out := make([]byte, dsize)
	if _, err := io.ReadFull(zr, out); err != nil {
		return nil, fmt.Errorf("compress: deflate: read: %w", err)
	}
	return out, nil
}
