package checkpoint

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "run.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestAnnotations(t *testing.T) {
	s := openStore(t)

	_, _, ok, err := s.Done("12345678901")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.MarkDone("12345678901", "Success", "Yes"))
	remark, status, ok, err := s.Done("12345678901")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Success", remark)
	assert.Equal(t, "Yes", status)

	t.Run("rewrite replaces", func(t *testing.T) {
		require.NoError(t, s.MarkDone("12345678901", "DOB mismatch", "No"))
		remark, status, _, err := s.Done("12345678901")
		require.NoError(t, err)
		assert.Equal(t, "DOB mismatch", remark)
		assert.Equal(t, "No", status)
	})
}

func TestShifted(t *testing.T) {
	s := openStore(t)

	done, err := s.Shifted("12345678901")
	require.NoError(t, err)
	assert.False(t, done)

	require.NoError(t, s.MarkShifted("12345678901"))
	require.NoError(t, s.MarkShifted("12345678901"), "marking twice is harmless")

	done, err = s.Shifted("12345678901")
	require.NoError(t, err)
	assert.True(t, done)
}

func TestReset(t *testing.T) {
	s := openStore(t)
	require.NoError(t, s.MarkDone("12345678901", "Success", "Yes"))
	require.NoError(t, s.MarkShifted("12345678901"))

	require.NoError(t, s.Reset())

	_, _, ok, err := s.Done("12345678901")
	require.NoError(t, err)
	assert.False(t, ok)
	done, err := s.Shifted("12345678901")
	require.NoError(t, err)
	assert.False(t, done)
}

func TestReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.db")
	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.MarkDone("12345678901", "Success", "Yes"))
	require.NoError(t, s.Close())

	s2, err := Open(path)
	require.NoError(t, err)
	defer s2.Close()
	_, status, ok, err := s2.Done("12345678901")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Yes", status)
}
