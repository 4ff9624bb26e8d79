package sigkv

import (
	"bytes"
	"encoding/hex"
	"fmt"

	"filippo.io/edwards25519"
	"github.com/btcsuite/btcd/btcutil/base58"
	"github.com/cloudflare/circl/sign/ed25519"
	"github.com/rs/zerolog"
)

const (
	PublicKeySize = ed25519.PublicKeySize // 32
	SignatureSize = ed25519.SignatureSize // 64
)

var ErrBadPublicKey = fmt.Errorf("public key must be %v hex-encoded bytes", PublicKeySize)
var ErrBadSignature = fmt.Errorf("signature must be %v hex-encoded bytes", SignatureSize)
var ErrWeakPublicKey = fmt.Errorf("public key is non-canonical or of small order")
var ErrWeakSignature = fmt.Errorf("signature R is non-canonical or of small order")
var ErrVerifyFailed = fmt.Errorf("signature does not verify")

// DecodeAndVerify hex-decodes publicKeyHex and signatureHex
// and checks the detached signature over message.
//
// The ErrBad* errors are input format problems; the others
// mean the inputs were well formed but the signature is not
// acceptable. Verification is strict: S must be canonical
// (circl enforces this), and neither the public key A nor
// the signature's R may be a non-canonical or small order point.
//
// On success the raw key and signature bytes are returned.
func DecodeAndVerify(publicKeyHex string, message []byte, signatureHex string) (pub, sig []byte, err error) {

	pub, err = hex.DecodeString(publicKeyHex)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrBadPublicKey, err)
	}
	if len(pub) != PublicKeySize {
		return nil, nil, fmt.Errorf("%w: got %v bytes", ErrBadPublicKey, len(pub))
	}
	sig, err = hex.DecodeString(signatureHex)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrBadSignature, err)
	}
	if len(sig) != SignatureSize {
		return nil, nil, fmt.Errorf("%w: got %v bytes", ErrBadSignature, len(sig))
	}

	if weakPoint(pub) {
		return nil, nil, ErrWeakPublicKey
	}
	if weakPoint(sig[:32]) {
		return nil, nil, ErrWeakSignature
	}
	if !ed25519.Verify(ed25519.PublicKey(pub), message, sig) {
		return nil, nil, ErrVerifyFailed
	}
	return pub, sig, nil
}

// Verify is the boolean form of DecodeAndVerify, for
// callers outside this package that only need a yes or no.
// The reason for any failure is logged at debug level.
func Verify(log zerolog.Logger, publicKeyHex string, message []byte, signatureHex string) bool {
	_, _, ok := verifyLogged(log, publicKeyHex, message, signatureHex)
	return ok
}

// verifyLogged is shared by Verify and the PUT handler.
func verifyLogged(log zerolog.Logger, publicKeyHex string, message []byte, signatureHex string) (pub, sig []byte, ok bool) {
	pub, sig, err := DecodeAndVerify(publicKeyHex, message, signatureHex)
	if err != nil {
		log.Debug().Err(err).Msg("verify")
		return nil, nil, false
	}
	log.Debug().Msg("verify ok")
	return pub, sig, true
}

// VerifySignature checks a stored Record: its base58
// signature must verify over its data under its base58
// public key. A reader of a record can use this without
// trusting the server.
func (r *Record) VerifySignature() error {
	pub := base58.Decode(r.PublicKey)
	sig := base58.Decode(r.Signature)
	_, _, err := DecodeAndVerify(hex.EncodeToString(pub), []byte(r.Data), hex.EncodeToString(sig))
	return err
}

// weakPoint is true if enc does not decode to a point,
// is not the canonical encoding of that point, or
// the point has small order.
func weakPoint(enc []byte) bool {
	p, err := new(edwards25519.Point).SetBytes(enc)
	if err != nil {
		return true
	}
	// SetBytes accepts non-canonical y; we don't.
	if !bytes.Equal(p.Bytes(), enc) {
		return true
	}
	cofactored := new(edwards25519.Point).MultByCofactor(p)
	return cofactored.Equal(edwards25519.NewIdentityPoint()) == 1
}
