package crypt_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"checkpoint/internal/crypt"
	"checkpoint/internal/services"
)

func TestGenerateKeyRejectsNameWithoutSuffix(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"crypt", "crypt.txt", ".key", "nested/crypt.key"} {
		_, err := crypt.GenerateKey(name, dir)
		require.Error(t, err, name)
		assert.True(t, errors.Is(err, services.ErrValidation), name)
	}
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestGenerateKeyWritesLoadableKey(t *testing.T) {
	dir := t.TempDir()
	encoded, err := crypt.GenerateKey("crypt.key", dir)
	require.NoError(t, err)

	stored, err := os.ReadFile(filepath.Join(dir, "crypt.key"))
	require.NoError(t, err)
	assert.Equal(t, encoded, stored)

	raw, err := crypt.LoadKey(filepath.Join(dir, "crypt.key"))
	require.NoError(t, err)
	assert.Len(t, raw, 32)
}

func TestNewGeneratesThenReusesKey(t *testing.T) {
	dir := t.TempDir()
	first, err := crypt.New("crypt.key", dir, 1)
	require.NoError(t, err)
	token, err := first.Encrypt([]byte("hello"))
	require.NoError(t, err)

	second, err := crypt.New("crypt.key", dir, 1)
	require.NoError(t, err)
	plain, err := second.Decrypt(token)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(plain))
	assert.Equal(t, filepath.Join(dir, "crypt.key"), second.KeyPath())
}

func TestEncryptProducesURLSafeTokens(t *testing.T) {
	c, err := crypt.New("crypt.key", t.TempDir(), 1)
	require.NoError(t, err)

	a, err := c.Encrypt([]byte("same"))
	require.NoError(t, err)
	b, err := c.Encrypt([]byte("same"))
	require.NoError(t, err)
	assert.NotEqual(t, a, b, "nonces must differ")
	assert.NotContains(t, string(a), "+")
	assert.NotContains(t, string(a), "/")
}

func TestRoundTripBinaryAndEmpty(t *testing.T) {
	c, err := crypt.New("crypt.key", t.TempDir(), 3)
	require.NoError(t, err)
	assert.Equal(t, 3, c.Iterations())

	for _, input := range [][]byte{{}, {0x00, 0xff, 0x10, 0x80}, []byte("hello")} {
		token, err := c.Encrypt(input)
		require.NoError(t, err)
		plain, err := c.Decrypt(token)
		require.NoError(t, err)
		assert.Equal(t, input, plain)
	}
}

func TestIterationsBelowOneDefaultToOne(t *testing.T) {
	c, err := crypt.New("crypt.key", t.TempDir(), 0)
	require.NoError(t, err)
	assert.Equal(t, 1, c.Iterations())
}

// The iteration count is not recorded: fewer passes leave an intermediate
// token, more passes fail authentication.
func TestIterationMismatch(t *testing.T) {
	dir := t.TempDir()
	two, err := crypt.New("crypt.key", dir, 2)
	require.NoError(t, err)
	one, err := crypt.New("crypt.key", dir, 1)
	require.NoError(t, err)
	three, err := crypt.New("crypt.key", dir, 3)
	require.NoError(t, err)

	token, err := two.Encrypt([]byte("hello"))
	require.NoError(t, err)

	intermediate, err := one.Decrypt(token)
	require.NoError(t, err)
	assert.NotEqual(t, "hello", string(intermediate))
	plain, err := one.Decrypt(intermediate)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(plain))

	_, err = three.Decrypt(token)
	assert.True(t, errors.Is(err, crypt.ErrDecrypt))
}

func TestDecryptWithWrongKeyFails(t *testing.T) {
	a, err := crypt.New("crypt.key", t.TempDir(), 1)
	require.NoError(t, err)
	b, err := crypt.New("crypt.key", t.TempDir(), 1)
	require.NoError(t, err)

	token, err := a.Encrypt([]byte("secret"))
	require.NoError(t, err)
	_, err = b.Decrypt(token)
	assert.True(t, errors.Is(err, crypt.ErrDecrypt))

	_, err = a.Decrypt([]byte("%%% not base64"))
	assert.True(t, errors.Is(err, crypt.ErrDecrypt))
}

func TestEncryptFilePersist(t *testing.T) {
	dir := t.TempDir()
	c, err := crypt.New("crypt.key", dir, 1)
	require.NoError(t, err)
	path := filepath.Join(dir, "a.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0o640))

	token, err := c.EncryptFile(path, false)
	require.NoError(t, err)
	onDisk, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(onDisk), "no persist leaves the file alone")

	_, err = c.EncryptFile(path, true)
	require.NoError(t, err)
	onDisk, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.NotEqual(t, "hello", string(onDisk))
	assert.NotEqual(t, token, onDisk)

	plain, err := c.DecryptFile(path, true)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(plain))
	onDisk, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(onDisk))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o640), info.Mode().Perm())
}

func TestLoadKeyRejectsCorruptKey(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "crypt.key")
	require.NoError(t, os.WriteFile(path, []byte("c2hvcnQ="), 0o600))

	_, err := crypt.LoadKey(path)
	assert.True(t, errors.Is(err, services.ErrValidation))
}
