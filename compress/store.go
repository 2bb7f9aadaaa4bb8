// store.go -- comp=0: the payload is already the decompressed bytes.

package compress

import "fmt"

func decodeStore(data []byte, dsize int) ([]byte, error) {
	if len(data) != dsize {
		return nil, fmt.Errorf("compress: store: have %d bytes, want %d", len(data), dsize)
	}
	return data, nil
}
