// Package sealed protects ground-truth archives at rest with Fernet tokens,
// the format the challenge host uses for its encrypted annotation bundles.
package sealed

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/fernet/fernet-go"
)

// Ext marks a sealed archive, e.g. eval_gt.zip.enc.
const Ext = ".enc"

// ErrDecryption is returned when a token fails verification under the key.
var ErrDecryption = errors.New("token failed verification")

// IsSealed reports whether path names a sealed archive.
func IsSealed(path string) bool {
	return strings.HasSuffix(path, Ext)
}

// LoadKey reads a base64 Fernet key from path. Surrounding whitespace,
// including the trailing newline most editors add, is ignored.
func LoadKey(path string) (*fernet.Key, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read key file: %w", err)
	}
	return ParseKey(string(bytes.TrimSpace(data)))
}

// ParseKey decodes a base64 Fernet key.
func ParseKey(s string) (*fernet.Key, error) {
	k, err := fernet.DecodeKey(strings.TrimSpace(s))
	if err != nil {
		return nil, fmt.Errorf("decode key: %w", err)
	}
	return k, nil
}

// GenerateKey returns a new random key in its encoded form.
func GenerateKey() (string, error) {
	var k fernet.Key
	if err := k.Generate(); err != nil {
		return "", fmt.Errorf("generate key: %w", err)
	}
	return k.Encode(), nil
}

// Seal encrypts plain into a Fernet token.
func Seal(plain []byte, key *fernet.Key) ([]byte, error) {
	tok, err := fernet.EncryptAndSign(plain, key)
	if err != nil {
		return nil, fmt.Errorf("encrypt: %w", err)
	}
	return tok, nil
}

// Open verifies and decrypts a token. Tokens never expire.
func Open(token []byte, key *fernet.Key) ([]byte, error) {
	msg := fernet.VerifyAndDecrypt(bytes.TrimSpace(token), 0, []*fernet.Key{key})
	if msg == nil {
		return nil, ErrDecryption
	}
	return msg, nil
}
