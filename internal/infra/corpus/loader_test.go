package corpus

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/faq-clustering/internal/domain/faq"
)

func TestDefaultCorpus(t *testing.T) {
	corpus, err := Default()
	require.NoError(t, err)
	require.NotEmpty(t, corpus.Version)
	require.Len(t, corpus.Categories, 8)
	for _, cat := range corpus.Categories {
		require.Len(t, cat.Items, 5, cat.Name)
	}
	require.False(t, corpus.Empty())

	blended := faq.BlendFallback(corpus, "t1", 25)
	require.Len(t, blended, 25)
}

func TestLoadOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corpus.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
version: custom
categories:
  - name: " Only "
    items:
      - question: What is this?
        answer: A test.
`), 0o600))

	corpus, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "custom", corpus.Version)
	require.Equal(t, "Only", corpus.Categories[0].Name)

	defaults, err := Load("")
	require.NoError(t, err)
	require.Len(t, defaults.Categories, 8)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestParseRejectsInvalid(t *testing.T) {
	_, err := Parse([]byte("categories:\n  - name: ''\n"))
	require.Error(t, err)
	_, err = Parse([]byte("categories:\n  - name: a\n  - name: a\n"))
	require.Error(t, err)
	_, err = Parse([]byte("categories:\n  - name: a\n    items:\n      - question: ' '\n"))
	require.Error(t, err)
	_, err = Parse([]byte("categories: [oops"))
	require.Error(t, err)
}
