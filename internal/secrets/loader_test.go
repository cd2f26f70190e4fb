package secrets

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "key")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadInlineValue(t *testing.T) {
	got, err := Load(Source{Name: "gemini api key", Value: "  abc123 \n"})
	require.NoError(t, err)
	assert.Equal(t, "abc123", got)
}

func TestLoadFileWinsOverValue(t *testing.T) {
	path := writeFile(t, "\n  from-file  \nsecond line\n")

	got, err := Load(Source{Name: "gemini api key", Value: "inline", File: path})
	require.NoError(t, err)
	assert.Equal(t, "from-file", got)
}

func TestLoadEmptyFile(t *testing.T) {
	path := writeFile(t, "  \n\n")

	_, err := Load(Source{Name: "gemini api key", File: path})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "is empty")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(Source{Name: "gemini api key", File: filepath.Join(t.TempDir(), "absent")})
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestLoadNotConfigured(t *testing.T) {
	_, err := Load(Source{})
	require.ErrorIs(t, err, ErrNotConfigured)
	assert.Equal(t, "secret is not configured", err.Error())
}

func TestLoadExpandsHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	require.NoError(t, os.WriteFile(filepath.Join(home, "gemini.key"), []byte("home-key"), 0o600))

	got, err := Load(Source{File: "~/gemini.key"})
	require.NoError(t, err)
	assert.Equal(t, "home-key", got)
}
