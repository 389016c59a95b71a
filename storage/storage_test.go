package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/chinmay1088/chainkit/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exerciseStore(t *testing.T, s Store) {
	t.Helper()

	_, ok, err := s.Get("@chainkit/siwx:eip155")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set("@chainkit/siwx:eip155", []byte(`[1,2]`)))
	v, ok, err := s.Get("@chainkit/siwx:eip155")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `[1,2]`, string(v))

	require.NoError(t, s.Set("@chainkit/siwx:eip155", []byte(`[3]`)))
	v, _, err = s.Get("@chainkit/siwx:eip155")
	require.NoError(t, err)
	assert.Equal(t, `[3]`, string(v))

	require.NoError(t, s.Delete("@chainkit/siwx:eip155"))
	require.NoError(t, s.Delete("@chainkit/siwx:eip155"))
	_, ok, err = s.Get("@chainkit/siwx:eip155")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFileStore(t *testing.T) {
	s, err := NewFileStore(filepath.Join(t.TempDir(), "nested", "dir"))
	require.NoError(t, err)
	exerciseStore(t, s)
}

func TestFileStorePermissions(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStore(dir)
	require.NoError(t, err)
	require.NoError(t, s.Set("k", []byte("v")))

	info, err := os.Stat(s.path("k"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore())
}

func TestSealedStore(t *testing.T) {
	inner := NewMemoryStore()
	s := NewSealedStore(inner, "passphrase").WithParams(crypto.Params{N: 1024, R: 8, P: 1})
	exerciseStore(t, s)

	require.NoError(t, s.Set("k", []byte("plain")))
	raw, _, err := inner.Get("k")
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "plain")

	wrong := NewSealedStore(inner, "other").WithParams(crypto.Params{N: 1024, R: 8, P: 1})
	_, _, err = wrong.Get("k")
	assert.ErrorIs(t, err, crypto.ErrWrongPassphrase)
}

func TestDefaultWithoutDirectory(t *testing.T) {
	assert.Nil(t, Default(""))
}
