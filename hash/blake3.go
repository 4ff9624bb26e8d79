package hash

import (
	cristalbase64 "github.com/cristalhq/base64"
	"github.com/glycerine/blake3"
)

// Blake3OfBytes is goroutine safe and lock free, since
// it creates a new hasher every time.
// The output digest is 64 bytes (512 bits), and can
// be truncated to get smaller hashes.
func Blake3OfBytes(by []byte) []byte {
	h := blake3.New(64, nil)
	h.Write(by)
	return h.Sum(nil)
}

// Blake3OfBytesString calls Blake3OfBytes.
// The returned string starts with
// the "blake3.33B-" prefix.
func Blake3OfBytesString(by []byte) string {
	sum := Blake3OfBytes(by)
	return RawSumBytesToString(sum)
}

// if you already have the Hasher.Sum() output:
func RawSumBytesToString(by []byte) string {
	return "blake3.33B-" + cristalbase64.URLEncoding.EncodeToString(by[:33])
}

// FixedPrefix returns the URL-safe base64 form of the
// first nbyte bytes of the blake3 digest of by. When nbyte
// is a multiple of 3 there is no padding, and the result
// is always exactly 4*nbyte/3 characters long, whatever by is.
// nbyte must be in [1, 64].
func FixedPrefix(by []byte, nbyte int) string {
	if nbyte < 1 || nbyte > 64 {
		panic("FixedPrefix: nbyte must be in [1, 64]")
	}
	sum := Blake3OfBytes(by)
	return cristalbase64.URLEncoding.EncodeToString(sum[:nbyte])
}
