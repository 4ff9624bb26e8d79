package sigkv

import (
	"bufio"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/cloudflare/circl/sign/ed25519"
)

var ErrBadKeyFile = fmt.Errorf("key file must hold one line: the %v byte ed25519 seed in hex", ed25519.SeedSize)

// SigningKey is a writer's ed25519 key pair.
type SigningKey struct {
	priv ed25519.PrivateKey
	pub  ed25519.PublicKey
}

// NewSigningKey makes a fresh random key pair.
func NewSigningKey() (*SigningKey, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, err
	}
	return &SigningKey{priv: priv, pub: pub}, nil
}

// SigningKeyFromSeed is deterministic in seed.
func SigningKeyFromSeed(seed []byte) (*SigningKey, error) {
	if len(seed) != ed25519.SeedSize {
		return nil, ErrBadKeyFile
	}
	priv := ed25519.NewKeyFromSeed(seed)
	return &SigningKey{priv: priv, pub: priv.Public().(ed25519.PublicKey)}, nil
}

func (k *SigningKey) PublicKey() []byte {
	return append([]byte{}, k.pub...)
}

// PublicKeyHex is the form a PUT request carries.
func (k *SigningKey) PublicKeyHex() string {
	return hex.EncodeToString(k.pub)
}

// Sign returns a detached signature over msg.
func (k *SigningKey) Sign(msg []byte) []byte {
	return ed25519.Sign(k.priv, msg)
}

// Identifier predicts the identifier a PUT of hash
// will be stored under, given the server's scheme.
func (k *SigningKey) Identifier(scheme PrefixScheme, hash string) (string, error) {
	prefix, err := NewDeriver(scheme).Prefix(k.pub)
	if err != nil {
		return "", err
	}
	return prefix + "-" + hash, nil
}

// NewPutRequest signs data and builds the PUT for it.
func (k *SigningKey) NewPutRequest(hash, data string) *Request {
	sig := k.Sign([]byte(data))
	return &Request{
		Event:      "PUT",
		Identifier: strPtr(hash),
		Data:       strPtr(data),
		PublicKey:  strPtr(k.PublicKeyHex()),
		Signature:  strPtr(hex.EncodeToString(sig)),
	}
}

// NewGetRequest builds the GET for a full identifier.
func NewGetRequest(identifier string) *Request {
	return &Request{
		Event:      "GET",
		Identifier: strPtr(identifier),
	}
}

// SaveKey writes the seed in hex, mode 0600.
func (k *SigningKey) SaveKey(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	fd, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	defer fd.Close()
	_, err = fmt.Fprintf(fd, "%v\n", hex.EncodeToString(k.priv.Seed()))
	return err
}

// LoadKey reads a file written by SaveKey.
func LoadKey(path string) (*SigningKey, error) {
	fd, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fd.Close()
	sc := bufio.NewScanner(fd)
	if !sc.Scan() {
		return nil, ErrBadKeyFile
	}
	seed, err := hex.DecodeString(strings.TrimSpace(sc.Text()))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadKeyFile, err)
	}
	return SigningKeyFromSeed(seed)
}

// LoadOrCreateKey loads path, or makes and saves a new
// key there if the file does not exist yet.
func LoadOrCreateKey(path string) (k *SigningKey, wasNew bool, err error) {
	if fileExists(path) {
		k, err = LoadKey(path)
		return
	}
	k, err = NewSigningKey()
	if err != nil {
		return nil, false, err
	}
	if err = k.SaveKey(path); err != nil {
		return nil, false, err
	}
	return k, true, nil
}

// DefaultKeyPath is where sigkvcli keeps its key.
func DefaultKeyPath() string {
	return GetConfigDir() + sep + "client.key"
}
