// cipher.go -- the MDict fast stream cipher, used to decrypt the key-block
// info table (when Encrypted&0x02) and individual key/record blocks tagged
// with encryption method 1.
//
// Grounded on icza-mpq's block-cipher handling (mpq.go's decryptBlock):
// both are byte-oriented stream transforms keyed by a short derived key and
// applied to pre-decompression bytes, and both are written as flat loops
// over a byte slice rather than wrapped in a cipher.Stream — MDict's cipher
// doesn't fit crypto/cipher's block/stream abstractions (no IV, the
// feedback term is the *input* byte of the previous step, not the output),
// so reimplementing it as a raw loop is the more honest fit.
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

// keyBlockInfoKeyFix is appended to the key-block meta's checksum bytes
// before RIPEMD-128 to derive the key-block-info decryption key. It is the
// little-endian encoding of the constant 0x3695.
var keyBlockInfoKeyFix = [4]byte{0x95, 0x36, 0x00, 0x00}

// deriveBlockKey derives the per-block decryption key from that block's
// 4-byte Adler-32 checksum field.
func deriveBlockKey(checksum []byte) []byte {
	sum := ripemd128Sum(checksum)
	return sum[:]
}

// deriveKeyBlockInfoKey derives the key-block-info decryption key from the
// meta record's 4-byte checksum field.
func deriveKeyBlockInfoKey(checksum []byte) []byte {
	buf := make([]byte, 0, 8)
	buf = append(buf, checksum...)
	buf = append(buf, keyBlockInfoKeyFix[:]...)
	sum := ripemd128Sum(buf)
	return sum[:]
}

// streamDecrypt implements the MDict fast stream cipher: for each index i,
// rotate cipher[i]'s nibbles, then XOR with the running byte prev, the
// low 8 bits of i, and key[i mod len(key)]; prev is updated to the
// *pre*-transform byte cipher[i] before moving to the next index. The
// initial prev is 0x36.
//
// Decryption is its own near-inverse here because prev tracks the input
// stream, not the output: callers only ever need this one direction.
func streamDecrypt(cipher, key []byte) []byte {
	out := make([]byte, len(cipher))
	prev := byte(0x36)
	for i, c := range cipher {
		t := (c >> 4) | (c << 4)
		t ^= prev ^ byte(i) ^ key[i%len(key)]
		prev = c
		out[i] = t
	}
	return out
}
