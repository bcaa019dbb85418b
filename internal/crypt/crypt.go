package crypt

import (
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/crypto/chacha20poly1305"

	"checkpoint/internal/services"
)

// KeySuffix is the required file extension of key artifacts.
const KeySuffix = ".key"

const tokenVersion byte = 0x01

// ErrDecrypt is returned when a token cannot be authenticated or decoded.
var ErrDecrypt = errors.New("decrypt failed")

var encoding = base64.URLEncoding

// GenerateKey writes a fresh random key named name into dir and returns the
// encoded key bytes. Names must end in KeySuffix.
func GenerateKey(name, dir string) ([]byte, error) {
	if err := validateKeyName(name); err != nil {
		return nil, err
	}
	raw := make([]byte, chacha20poly1305.KeySize)
	if _, err := rand.Read(raw); err != nil {
		return nil, fmt.Errorf("generate key: %w", err)
	}
	encoded := []byte(encoding.EncodeToString(raw))

	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create key directory: %w", err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, encoded, 0o600); err != nil {
		return nil, fmt.Errorf("write key %s: %w", path, err)
	}
	return encoded, nil
}

// LoadKey reads and decodes the key at path.
func LoadKey(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read key %s: %w", path, err)
	}
	raw, err := encoding.DecodeString(strings.TrimSpace(string(data)))
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "crypt", "decode key", path, err)
	}
	if len(raw) != chacha20poly1305.KeySize {
		return nil, services.Wrap(services.ErrValidation, "crypt", "decode key",
			fmt.Sprintf("%s holds %d bytes, want %d", path, len(raw), chacha20poly1305.KeySize), nil)
	}
	return raw, nil
}

func validateKeyName(name string) error {
	if !strings.HasSuffix(name, KeySuffix) || len(name) == len(KeySuffix) {
		return services.Wrap(services.ErrValidation, "crypt", "generate key",
			fmt.Sprintf("key name %q must end with %s", name, KeySuffix), nil)
	}
	if strings.ContainsAny(name, `/\`) {
		return services.Wrap(services.ErrValidation, "crypt", "generate key",
			fmt.Sprintf("key name %q must not contain path separators", name), nil)
	}
	return nil
}

// Crypt encrypts and decrypts content with a loaded key.
type Crypt struct {
	keyPath    string
	iterations int
	aead       cipher.AEAD
}

// New loads the key keyName from keyDir, generating it when absent.
// Iterations below one are treated as one.
func New(keyName, keyDir string, iterations int) (*Crypt, error) {
	if err := validateKeyName(keyName); err != nil {
		return nil, err
	}
	if iterations < 1 {
		iterations = 1
	}
	path := filepath.Join(keyDir, keyName)
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if _, err := GenerateKey(keyName, keyDir); err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, fmt.Errorf("stat key %s: %w", path, err)
	}

	raw, err := LoadKey(path)
	if err != nil {
		return nil, err
	}
	aead, err := chacha20poly1305.NewX(raw)
	if err != nil {
		return nil, fmt.Errorf("init cipher: %w", err)
	}
	return &Crypt{keyPath: path, iterations: iterations, aead: aead}, nil
}

// KeyPath returns the location of the key artifact.
func (c *Crypt) KeyPath() string { return c.keyPath }

// Iterations returns the configured number of encryption passes.
func (c *Crypt) Iterations() int { return c.iterations }

// Encrypt applies the configured number of encryption passes to plaintext.
func (c *Crypt) Encrypt(plaintext []byte) ([]byte, error) {
	content := plaintext
	for range c.iterations {
		token, err := c.seal(content)
		if err != nil {
			return nil, err
		}
		content = token
	}
	return content, nil
}

// Decrypt peels the configured number of encryption passes from token.
func (c *Crypt) Decrypt(token []byte) ([]byte, error) {
	content := token
	for range c.iterations {
		plain, err := c.open(content)
		if err != nil {
			return nil, err
		}
		content = plain
	}
	return content, nil
}

// EncryptFile encrypts the bytes at path, optionally writing the token back.
func (c *Crypt) EncryptFile(path string, persist bool) ([]byte, error) {
	return c.transformFile(path, persist, c.Encrypt)
}

// DecryptFile decrypts the token stored at path, optionally writing the
// plaintext back.
func (c *Crypt) DecryptFile(path string, persist bool) ([]byte, error) {
	return c.transformFile(path, persist, c.Decrypt)
}

func (c *Crypt) transformFile(path string, persist bool, fn func([]byte) ([]byte, error)) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	out, err := fn(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if persist {
		if err := os.WriteFile(path, out, info.Mode().Perm()); err != nil {
			return nil, fmt.Errorf("write %s: %w", path, err)
		}
	}
	return out, nil
}

func (c *Crypt) seal(plaintext []byte) ([]byte, error) {
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}
	header := make([]byte, 0, 1+len(nonce)+len(plaintext)+c.aead.Overhead())
	header = append(header, tokenVersion)
	header = append(header, nonce...)
	sealed := c.aead.Seal(header, nonce, plaintext, []byte{tokenVersion})

	token := make([]byte, encoding.EncodedLen(len(sealed)))
	encoding.Encode(token, sealed)
	return token, nil
}

func (c *Crypt) open(token []byte) ([]byte, error) {
	sealed := make([]byte, encoding.DecodedLen(len(token)))
	n, err := encoding.Decode(sealed, token)
	if err != nil {
		return nil, fmt.Errorf("%w: malformed token: %v", ErrDecrypt, err)
	}
	sealed = sealed[:n]

	nonceSize := c.aead.NonceSize()
	if len(sealed) < 1+nonceSize+c.aead.Overhead() {
		return nil, fmt.Errorf("%w: token too short", ErrDecrypt)
	}
	if sealed[0] != tokenVersion {
		return nil, fmt.Errorf("%w: unknown token version %d", ErrDecrypt, sealed[0])
	}
	nonce := sealed[1 : 1+nonceSize]
	ciphertext := sealed[1+nonceSize:]
	plain, err := c.aead.Open(make([]byte, 0, len(ciphertext)), nonce, ciphertext, []byte{tokenVersion})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecrypt, err)
	}
	return plain, nil
}
