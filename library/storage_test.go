package library

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStorageCopiesValues(t *testing.T) {
	st := NewMemoryStorage()
	value := []byte(`[]`)
	require.NoError(t, st.Put("books", value))
	value[0] = 'x'

	got, err := st.Get("books")
	require.NoError(t, err)
	assert.Equal(t, `[]`, string(got))

	got[0] = 'y'
	again, err := st.Get("books")
	require.NoError(t, err)
	assert.Equal(t, `[]`, string(again))
}

func TestMemoryStorageDelete(t *testing.T) {
	st := NewMemoryStorage()
	require.NoError(t, st.Put("books", []byte(`[]`)))
	require.NoError(t, st.Delete("books"))

	_, err := st.Get("books")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, st.Delete("books"), "missing key")
}
