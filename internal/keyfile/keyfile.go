// Package keyfile seals and opens key files under a passphrase.
//
// A sealed file is a JSON blob carrying the Argon2id parameters, the salt, a
// random XChaCha20-Poly1305 nonce and the ciphertext. The salt is bound as
// additional data.
package keyfile

import (
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"
)

// The current supported version of the sealed blob format.
const formatVersion = 1

const saltLen = 16

var (
	// ErrWrongPassphrase is returned when the passphrase is incorrect or the
	// blob has been modified.
	ErrWrongPassphrase = errors.New("wrong passphrase or corrupted key file")
	// ErrEmptyPassphrase is returned when sealing with an empty passphrase.
	ErrEmptyPassphrase = errors.New("empty passphrase")
	// ErrBadParams is returned for Argon2id parameters outside the accepted
	// bounds.
	ErrBadParams = errors.New("argon2id parameters out of range")
)

// Upper bounds on the Argon2id parameters accepted from a key file.
const (
	maxTime    = 64
	maxMemory  = 4 << 20 // KiB, i.e. 4 GiB
	maxThreads = 64
)

// Params are the Argon2id tunables.
type Params struct {
	Time    uint32 `json:"time"`
	Memory  uint32 `json:"memory_kib"`
	Threads uint8  `json:"threads"`
}

// DefaultParams follows the RFC 9106 second recommended option.
var DefaultParams = Params{Time: 3, Memory: 64 << 10, Threads: 4}

// Validate reports whether p is within the bounds Seal and Open accept.
func (p Params) Validate() error {
	switch {
	case p.Time == 0 || p.Time > maxTime:
		return fmt.Errorf("%w: time %d not in [1, %d]", ErrBadParams, p.Time, maxTime)
	case p.Threads == 0 || p.Threads > maxThreads:
		return fmt.Errorf("%w: threads %d not in [1, %d]", ErrBadParams, p.Threads, maxThreads)
	case p.Memory < 8*uint32(p.Threads) || p.Memory > maxMemory:
		return fmt.Errorf("%w: memory %d KiB not in [%d, %d]", ErrBadParams, p.Memory, 8*uint32(p.Threads), maxMemory)
	}
	return nil
}

type blob struct {
	V      int    `json:"v"`
	KDF    Params `json:"argon2id"`
	Salt   []byte `json:"salt"`
	Nonce  []byte `json:"nonce"`
	Cipher []byte `json:"cipher"`
}

// Seal encrypts plaintext under a key derived from passphrase.
func Seal(passphrase, plaintext []byte, p Params) ([]byte, error) {
	if len(passphrase) == 0 {
		return nil, ErrEmptyPassphrase
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return nil, err
	}
	aead, err := chacha20poly1305.NewX(deriveKey(passphrase, salt, p))
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}
	return json.Marshal(blob{
		V:      formatVersion,
		KDF:    p,
		Salt:   salt,
		Nonce:  nonce,
		Cipher: aead.Seal(nil, nonce, plaintext, salt),
	})
}

// Open decrypts a blob produced by Seal.
func Open(passphrase, sealed []byte) ([]byte, error) {
	var b blob
	if err := json.Unmarshal(sealed, &b); err != nil {
		return nil, fmt.Errorf("parsing key file: %w", err)
	}
	if b.V > formatVersion {
		return nil, fmt.Errorf("unsupported key file version %d", b.V)
	}
	if err := b.KDF.Validate(); err != nil {
		return nil, err
	}
	aead, err := chacha20poly1305.NewX(deriveKey(passphrase, b.Salt, b.KDF))
	if err != nil {
		return nil, err
	}
	if len(b.Nonce) != aead.NonceSize() {
		return nil, ErrWrongPassphrase
	}
	pt, err := aead.Open(nil, b.Nonce, b.Cipher, b.Salt)
	if err != nil {
		return nil, ErrWrongPassphrase
	}
	return pt, nil
}

func deriveKey(passphrase, salt []byte, p Params) []byte {
	return argon2.IDKey(passphrase, salt, p.Time, p.Memory, p.Threads, chacha20poly1305.KeySize)
}
