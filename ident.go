package sigkv

import (
	"fmt"

	"github.com/btcsuite/btcd/btcutil/base58"

	"github.com/glycerine/sigkv/hash"
)

// PrefixLen is the width, in characters, of the signer
// prefix at the front of every derived identifier.
const PrefixLen = 32

// PrefixScheme picks how the signer prefix is computed.
type PrefixScheme string

const (
	// PrefixDigest: URL-safe base64 of the first 24 bytes of
	// blake3(public key). Fixed width for every key.
	PrefixDigest PrefixScheme = "digest"

	// PrefixBase58: the first 32 characters of the base58
	// public key, as older clients compute it. base58 is
	// variable width, so distinct keys can share a prefix.
	PrefixBase58 PrefixScheme = "base58"
)

var ErrShortPrefix = fmt.Errorf("base58 public key is shorter than %v characters", PrefixLen)
var ErrUnknownPrefixScheme = fmt.Errorf("unknown prefix scheme")

// ParsePrefixScheme accepts "" as PrefixDigest.
func ParsePrefixScheme(s string) (PrefixScheme, error) {
	switch PrefixScheme(s) {
	case "", PrefixDigest:
		return PrefixDigest, nil
	case PrefixBase58:
		return PrefixBase58, nil
	}
	return "", fmt.Errorf("%w: '%v'", ErrUnknownPrefixScheme, s)
}

// Deriver computes storage identifiers for writes.
type Deriver struct {
	Scheme PrefixScheme
}

// NewDeriver returns a Deriver using the given scheme.
func NewDeriver(scheme PrefixScheme) *Deriver {
	if scheme == "" {
		scheme = PrefixDigest
	}
	return &Deriver{Scheme: scheme}
}

// Prefix returns the signer prefix for the raw public key pub.
func (d *Deriver) Prefix(pub []byte) (string, error) {
	switch d.Scheme {
	case PrefixDigest, "":
		return hash.FixedPrefix(pub, PrefixLen*3/4), nil
	case PrefixBase58:
		b58 := base58.Encode(pub)
		if len(b58) < PrefixLen {
			return "", ErrShortPrefix
		}
		return b58[:PrefixLen], nil
	}
	return "", fmt.Errorf("%w: '%v'", ErrUnknownPrefixScheme, d.Scheme)
}

// Derive returns identifier = prefix + "-" + hash, along with
// the base58 encodings of the raw pub and sig bytes. hash is
// used exactly as the client sent it.
func (d *Deriver) Derive(pub, sig []byte, hash string) (identifier, pub58, sig58 string, err error) {
	prefix, err := d.Prefix(pub)
	if err != nil {
		return "", "", "", err
	}
	pub58 = base58.Encode(pub)
	sig58 = base58.Encode(sig)
	identifier = prefix + "-" + hash
	return
}

// DeriveIdentifier uses the default digest scheme. Clients
// call this to learn where a PUT will land before sending it.
func DeriveIdentifier(pub, sig []byte, hash string) (identifier, pub58, sig58 string, err error) {
	return NewDeriver(PrefixDigest).Derive(pub, sig, hash)
}
