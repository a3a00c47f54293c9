package library

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultSeed(t *testing.T) {
	seed := DefaultSeed()
	require.Len(t, seed, 8)

	first := seed[0]
	assert.Equal(t, "Go in Action", string(first.Title))
	assert.Equal(t, "Manning", string(first.Publisher))
	assert.Equal(t, "2015", string(first.PublicationYear), "numbers decode as their literal text")
	assert.Equal(t, "264", string(first.Pages))

	// Callers get their own copy.
	seed[0].Title = "changed"
	assert.Equal(t, "Go in Action", string(DefaultSeed()[0].Title))
}

func TestSeedFieldsUseTitleAsAltText(t *testing.T) {
	var b Book
	SeedBook{Title: "Learning Go", Image: "cover.png", PublicationYear: "2021"}.Fields().applyTo(&b)

	assert.Equal(t, "Learning Go", b.Title)
	assert.Equal(t, "Learning Go", b.ImgAlt)
	assert.Equal(t, "cover.png", b.ImgSrc)
	assert.Equal(t, "2021", b.Publication)
	assert.False(t, b.Selected)
	assert.False(t, b.Loaned)
}

func TestDecodeSeedLooseValues(t *testing.T) {
	seed, err := DecodeSeed([]byte(`[{"title":"T","Pages":null,"price":19.5,"Language":true}]`))
	require.NoError(t, err)
	require.Len(t, seed, 1)
	assert.Equal(t, "", string(seed[0].Pages))
	assert.Equal(t, "19.5", string(seed[0].Price))
	assert.Equal(t, "true", string(seed[0].Language))

	seed, err = DecodeSeed([]byte(`[{"title":{"nested":1},"author":"A"}]`))
	require.NoError(t, err)
	assert.Equal(t, "", string(seed[0].Title))
	assert.Equal(t, "A", string(seed[0].Author))

	_, err = DecodeSeed([]byte(`not json`))
	assert.Error(t, err)
}

func TestLoadSeedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"title":"A","Publisher":"P"},{"title":"B"}]`), 0o644))

	seed, err := LoadSeedFile(path)
	require.NoError(t, err)
	require.Len(t, seed, 2)
	assert.Equal(t, "P", string(seed[0].Publisher))

	_, err = LoadSeedFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
