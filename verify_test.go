package sigkv

import (
	"encoding/hex"
	"errors"
	"testing"

	cv "github.com/glycerine/goconvey/convey"
	"github.com/rs/zerolog"
)

// the ed25519 group order L, little endian.
var groupOrderL = [32]byte{
	0xed, 0xd3, 0xf5, 0x5c, 0x1a, 0x63, 0x12, 0x58,
	0xd6, 0x9c, 0xf7, 0xa2, 0xde, 0xf9, 0xde, 0x14,
	0, 0, 0, 0, 0, 0, 0, 0,
	0, 0, 0, 0, 0, 0, 0, 0x10,
}

// identity point encoding: y = 1, small order.
var identityEnc = append([]byte{1}, make([]byte, 31)...)

// addL returns s + L as a 32 byte little endian scalar.
func addL(s []byte) []byte {
	out := make([]byte, 32)
	carry := 0
	for i := 0; i < 32; i++ {
		v := int(s[i]) + int(groupOrderL[i]) + carry
		out[i] = byte(v)
		carry = v >> 8
	}
	return out
}

func Test101_verify_accepts_good_rejects_bad(t *testing.T) {

	cv.Convey("a signature over the exact message verifies; any change to message, key or signature does not", t, func() {
		key := mustKey()
		msg := []byte("hello")
		sigHex := hex.EncodeToString(key.Sign(msg))
		pubHex := key.PublicKeyHex()

		pub, sig, err := DecodeAndVerify(pubHex, msg, sigHex)
		cv.So(err, cv.ShouldBeNil)
		cv.So(len(pub), cv.ShouldEqual, PublicKeySize)
		cv.So(len(sig), cv.ShouldEqual, SignatureSize)

		_, _, err = DecodeAndVerify(pubHex, []byte("hellO"), sigHex)
		cv.So(errors.Is(err, ErrVerifyFailed), cv.ShouldBeTrue)

		_, _, err = DecodeAndVerify(mustKey().PublicKeyHex(), msg, sigHex)
		cv.So(errors.Is(err, ErrVerifyFailed), cv.ShouldBeTrue)

		log := zerolog.Nop()
		cv.So(Verify(log, pubHex, msg, sigHex), cv.ShouldBeTrue)
		cv.So(Verify(log, pubHex, []byte("x"), sigHex), cv.ShouldBeFalse)
	})
}

func Test102_verify_is_pure(t *testing.T) {

	cv.Convey("calling verify twice on the same inputs gives the same answer", t, func() {
		key := mustKey()
		msg := []byte("same every time")
		sigHex := hex.EncodeToString(key.Sign(msg))
		log := zerolog.Nop()

		for _, m := range [][]byte{msg, []byte("other")} {
			a := Verify(log, key.PublicKeyHex(), m, sigHex)
			b := Verify(log, key.PublicKeyHex(), m, sigHex)
			cv.So(a, cv.ShouldEqual, b)
		}
	})
}

func Test103_input_format_errors_are_distinct(t *testing.T) {

	cv.Convey("bad hex and wrong lengths are ErrBadPublicKey / ErrBadSignature, not ErrVerifyFailed", t, func() {
		key := mustKey()
		msg := []byte("m")
		sigHex := hex.EncodeToString(key.Sign(msg))
		pubHex := key.PublicKeyHex()

		_, _, err := DecodeAndVerify("xyz", msg, sigHex)
		cv.So(errors.Is(err, ErrBadPublicKey), cv.ShouldBeTrue)

		_, _, err = DecodeAndVerify(pubHex+"00", msg, sigHex)
		cv.So(errors.Is(err, ErrBadPublicKey), cv.ShouldBeTrue)

		_, _, err = DecodeAndVerify(pubHex, msg, "0g")
		cv.So(errors.Is(err, ErrBadSignature), cv.ShouldBeTrue)

		_, _, err = DecodeAndVerify(pubHex, msg, sigHex[:126])
		cv.So(errors.Is(err, ErrBadSignature), cv.ShouldBeTrue)
		cv.So(errors.Is(err, ErrVerifyFailed), cv.ShouldBeFalse)
	})
}

func Test104_strict_rejects_malleable_and_weak(t *testing.T) {

	cv.Convey("non-canonical S, small order public keys, and small order R are all refused", t, func() {
		key := mustKey()
		msg := []byte("strict")
		sig := key.Sign(msg)
		pubHex := key.PublicKeyHex()

		// S + L is the same scalar mod L, but not canonical.
		malleable := append(append([]byte{}, sig[:32]...), addL(sig[32:])...)
		_, _, err := DecodeAndVerify(pubHex, msg, hex.EncodeToString(malleable))
		cv.So(err, cv.ShouldNotBeNil)

		_, _, err = DecodeAndVerify(hex.EncodeToString(identityEnc), msg, hex.EncodeToString(sig))
		cv.So(errors.Is(err, ErrWeakPublicKey), cv.ShouldBeTrue)

		weakR := append(append([]byte{}, identityEnc...), sig[32:]...)
		_, _, err = DecodeAndVerify(pubHex, msg, hex.EncodeToString(weakR))
		cv.So(errors.Is(err, ErrWeakSignature), cv.ShouldBeTrue)

		// the untouched signature is still fine.
		_, _, err = DecodeAndVerify(pubHex, msg, hex.EncodeToString(sig))
		cv.So(err, cv.ShouldBeNil)
	})
}
