package faq

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExtractKeywords(t *testing.T) {
	got := ExtractKeywords("How do I renew my identity card? Renew the CARD quickly please today")
	require.Equal(t, []string{"renew", "identity", "card", "quickly", "please"}, got)
}

func TestExtractKeywordsDropsShortTokens(t *testing.T) {
	require.Empty(t, ExtractKeywords("how do I get a KK?"))
	require.Equal(t, []string{"kartu"}, ExtractKeywords("apa itu kartu?"))
}

func TestExtractKeywordsMeasuresRawToken(t *testing.T) {
	require.Equal(t, []string{"ktp"}, ExtractKeywords("KTP? ktp"))
	require.Equal(t, []string{"help"}, ExtractKeywords("???? help!"))
}

func TestClusterTitle(t *testing.T) {
	require.Equal(t, "Renew & Identity", ClusterTitle([]string{"renew", "identity", "card"}, 0))
	require.Equal(t, "Passport", ClusterTitle([]string{"passport"}, 3))
	require.Equal(t, "Category 3", ClusterTitle(nil, 2))
}
