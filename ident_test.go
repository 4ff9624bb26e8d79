package sigkv

import (
	"errors"
	"strings"
	"testing"

	cv "github.com/glycerine/goconvey/convey"
)

func Test201_digest_prefix_is_fixed_width(t *testing.T) {

	cv.Convey("digest prefixes are 32 characters for every key, stable per key, and distinct across keys", t, func() {
		d := NewDeriver(PrefixDigest)
		seen := make(map[string]bool)
		for i := 0; i < 50; i++ {
			k := mustKey()
			p1, err := d.Prefix(k.PublicKey())
			panicOn(err)
			p2, err := d.Prefix(k.PublicKey())
			panicOn(err)
			cv.So(len(p1), cv.ShouldEqual, PrefixLen)
			cv.So(p1, cv.ShouldEqual, p2)
			seen[p1] = true
		}
		cv.So(len(seen), cv.ShouldEqual, 50)

		// short or empty input does not panic.
		p, err := d.Prefix(nil)
		cv.So(err, cv.ShouldBeNil)
		cv.So(len(p), cv.ShouldEqual, PrefixLen)
	})
}

func Test202_derive_identifier_shape(t *testing.T) {

	cv.Convey("identifier is prefix-hash, with hash taken verbatim", t, func() {
		k := mustKey()
		sig := k.Sign([]byte("x"))
		for _, h := range []string{"abc", "", "with-dashes-too", "ünïcødé / and spaces"} {
			id, pub58, sig58, err := DeriveIdentifier(k.PublicKey(), sig, h)
			panicOn(err)
			cv.So(id[PrefixLen:], cv.ShouldEqual, "-"+h)
			cv.So(pub58, cv.ShouldNotEqual, "")
			cv.So(sig58, cv.ShouldNotEqual, "")
		}
	})
}

func Test203_base58_prefix_legacy(t *testing.T) {

	cv.Convey("base58 scheme slices the base58 key, and refuses keys too short to slice", t, func() {
		d := NewDeriver(PrefixBase58)
		k := mustKey()
		id, pub58, _, err := d.Derive(k.PublicKey(), k.Sign(nil), "h")
		panicOn(err)
		cv.So(strings.HasPrefix(id, pub58[:PrefixLen]+"-"), cv.ShouldBeTrue)

		_, err = d.Prefix([]byte{1, 2, 3})
		cv.So(errors.Is(err, ErrShortPrefix), cv.ShouldBeTrue)
	})
}

func Test204_parse_prefix_scheme(t *testing.T) {

	cv.Convey("prefix scheme names parse, empty means digest, others are errors", t, func() {
		s, err := ParsePrefixScheme("")
		cv.So(err, cv.ShouldBeNil)
		cv.So(s, cv.ShouldEqual, PrefixDigest)

		s, err = ParsePrefixScheme("base58")
		cv.So(err, cv.ShouldBeNil)
		cv.So(s, cv.ShouldEqual, PrefixBase58)

		_, err = ParsePrefixScheme("sha1")
		cv.So(errors.Is(err, ErrUnknownPrefixScheme), cv.ShouldBeTrue)
	})
}
