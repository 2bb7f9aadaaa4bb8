// codec.go -- dispatch over MDX's per-block compression tag.
//
// Pattern grounded on arloliu-mebo's compress/codec.go: a small Method enum,
// a Decompressor interface, and a dispatch function keyed by the enum
// rather than one sprawling switch scattered across callers.

package compress

import "fmt"

// Method is the low nibble of a key-block or record-block's 4-byte tag.
type Method byte

const (
	Store   Method = 0
	LZOMini Method = 1
	Deflate Method = 2
)

func (m Method) String() string {
	switch m {
	case Store:
		return "store"
	case LZOMini:
		return "lzo-mini"
	case Deflate:
		return "deflate"
	default:
		return fmt.Sprintf("method(%d)", byte(m))
	}
}

// Decode decompresses data (already decrypted, if it was encrypted) per
// method, expecting exactly dsize bytes of output.
func Decode(method Method, data []byte, dsize int) ([]byte, error) {
	switch method {
	case Store:
		return decodeStore(data, dsize)
	case LZOMini:
		return DecompressLZOMini(data, dsize)
	case Deflate:
		return decodeDeflate(data, dsize)
	default:
		return nil, fmt.Errorf("compress: unsupported method %s", method)
	}
}
