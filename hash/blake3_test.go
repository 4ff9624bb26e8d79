package hash

import (
	"bytes"
	"strings"
	"testing"

	cv "github.com/glycerine/goconvey/convey"
)

func Test001_blake3_digest_is_deterministic(t *testing.T) {

	cv.Convey("Blake3OfBytes gives 64 bytes, the same each time, and different inputs differ", t, func() {
		data := []byte("hello world!")
		a := Blake3OfBytes(data)
		b := Blake3OfBytes(data)
		cv.So(len(a), cv.ShouldEqual, 64)
		cv.So(bytes.Equal(a, b), cv.ShouldBeTrue)

		c := Blake3OfBytes([]byte("hello world?"))
		cv.So(bytes.Equal(a, c), cv.ShouldBeFalse)

		s := Blake3OfBytesString(data)
		cv.So(strings.HasPrefix(s, "blake3.33B-"), cv.ShouldBeTrue)
		cv.So(s, cv.ShouldEqual, RawSumBytesToString(a))
	})
}

func Test002_fixed_prefix_width(t *testing.T) {

	cv.Convey("FixedPrefix(by, 24) is always 32 characters, for any input", t, func() {
		inputs := [][]byte{
			nil,
			{0},
			bytes.Repeat([]byte{0}, 32),
			bytes.Repeat([]byte{0xff}, 32),
			[]byte("a somewhat longer input than the others"),
		}
		seen := make(map[string]bool)
		for _, in := range inputs {
			p := FixedPrefix(in, 24)
			cv.So(len(p), cv.ShouldEqual, 32)
			cv.So(strings.Contains(p, "="), cv.ShouldBeFalse)
			seen[p] = true
		}
		cv.So(len(seen), cv.ShouldEqual, len(inputs))
	})
}
