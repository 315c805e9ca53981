// Package encryption implements the field-level codec protecting note content
// at rest, plus a salted password hash for verifying a password without
// decrypting anything.
//
// Blob layout (base64 std encoding):
//
//	salt[32] || iv[16] || AES-256-CBC(PKCS#7(plaintext))
//
// The key is PBKDF2-SHA256(password, salt, iterations) truncated to 32 bytes.
// The IV is drawn independently from crypto/rand for every call and is never
// derived from the password. There is no authentication tag: a wrong password
// is only detected through invalid padding or non-UTF-8 output, so tampered
// ciphertext can in rare cases decrypt to garbage.
package encryption

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"unicode/utf8"

	"golang.org/x/crypto/pbkdf2"

	"github.com/starford/lumina/internal/apperr"
)

const (
	SaltSize = 32
	IVSize   = aes.BlockSize
	KeySize  = 32

	// MinIterations is the floor for the PBKDF2 work factor.
	MinIterations = 10000
)

// Codec encrypts and decrypts note content. The zero value uses MinIterations.
type Codec struct {
	Iterations int
}

// New returns a codec with the given PBKDF2 iteration count, clamped to
// MinIterations.
func New(iterations int) *Codec {
	if iterations < MinIterations {
		iterations = MinIterations
	}
	return &Codec{Iterations: iterations}
}

func (c *Codec) iterations() int {
	if c == nil || c.Iterations < MinIterations {
		return MinIterations
	}
	return c.Iterations
}

// Encrypt returns the base64 blob for plaintext. Empty plaintext is returned
// unchanged.
func (c *Codec) Encrypt(plaintext, password string) (string, error) {
	if plaintext == "" {
		return "", nil
	}

	salt, err := randomBytes(SaltSize)
	if err != nil {
		return "", err
	}
	iv, err := randomBytes(IVSize)
	if err != nil {
		return "", err
	}

	block, err := c.newCipher(password, salt)
	if err != nil {
		return "", err
	}

	padded := pad([]byte(plaintext), aes.BlockSize)
	out := make([]byte, SaltSize+IVSize+len(padded))
	copy(out, salt)
	copy(out[SaltSize:], iv)
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(out[SaltSize+IVSize:], padded)
	clear(padded)

	return base64.StdEncoding.EncodeToString(out), nil
}

// Decrypt reverses Encrypt. Every failure mode (bad base64, truncated blob,
// wrong password) is reported as apperr.ErrDecryption.
func (c *Codec) Decrypt(blob, password string) (string, error) {
	if blob == "" {
		return "", nil
	}

	raw, err := base64.StdEncoding.DecodeString(blob)
	if err != nil {
		return "", fmt.Errorf("%w: malformed base64", apperr.ErrDecryption)
	}
	body := len(raw) - SaltSize - IVSize
	if body <= 0 || body%aes.BlockSize != 0 {
		return "", fmt.Errorf("%w: truncated blob", apperr.ErrDecryption)
	}

	salt := raw[:SaltSize]
	iv := raw[SaltSize : SaltSize+IVSize]
	ciphertext := raw[SaltSize+IVSize:]

	block, err := c.newCipher(password, salt)
	if err != nil {
		return "", err
	}

	plain := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(plain, ciphertext)

	plain, ok := unpad(plain, aes.BlockSize)
	if !ok || !utf8.Valid(plain) {
		return "", apperr.ErrDecryption
	}
	return string(plain), nil
}

// HashPassword derives a verification hash: base64(salt[32] || hash[32]).
func (c *Codec) HashPassword(password string) (string, error) {
	salt, err := randomBytes(SaltSize)
	if err != nil {
		return "", err
	}
	hash := c.derive(password, salt)
	out := make([]byte, 0, SaltSize+KeySize)
	out = append(out, salt...)
	out = append(out, hash...)
	clear(hash)
	return base64.StdEncoding.EncodeToString(out), nil
}

// VerifyPassword reports whether password matches a HashPassword result.
// Malformed stored hashes never verify.
func (c *Codec) VerifyPassword(password, stored string) bool {
	raw, err := base64.StdEncoding.DecodeString(stored)
	if err != nil || len(raw) != SaltSize+KeySize {
		return false
	}
	hash := c.derive(password, raw[:SaltSize])
	defer clear(hash)
	return subtle.ConstantTimeCompare(hash, raw[SaltSize:]) == 1
}

func (c *Codec) newCipher(password string, salt []byte) (cipher.Block, error) {
	key := c.derive(password, salt)
	defer clear(key)
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("encryption: new cipher: %w", err)
	}
	return block, nil
}

// derive runs PBKDF2 over a private copy of the password and scrubs the copy
// once the key is produced. Go strings are immutable, so the caller's string
// itself cannot be wiped.
func (c *Codec) derive(password string, salt []byte) []byte {
	pw := []byte(password)
	defer clear(pw)
	return pbkdf2.Key(pw, salt, c.iterations(), KeySize, sha256.New)
}

func randomBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return nil, fmt.Errorf("encryption: read random: %w", err)
	}
	return b, nil
}

func pad(data []byte, size int) []byte {
	n := size - len(data)%size
	return append(bytes.Clone(data), bytes.Repeat([]byte{byte(n)}, n)...)
}

// unpad strips PKCS#7 padding, checking every pad byte.
func unpad(data []byte, size int) ([]byte, bool) {
	if len(data) == 0 || len(data)%size != 0 {
		return nil, false
	}
	n := int(data[len(data)-1])
	if n == 0 || n > size {
		return nil, false
	}
	for _, b := range data[len(data)-n:] {
		if int(b) != n {
			return nil, false
		}
	}
	return data[:len(data)-n], true
}
