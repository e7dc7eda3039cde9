package errors

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCodeOf(t *testing.T) {
	require.Equal(t, "", CodeOf(nil))
	require.Equal(t, CodeEmbedding, CodeOf(Wrap(CodeEmbedding, "embed", fmt.Errorf("boom"))))
	require.Equal(t, CodeTimeout, CodeOf(Wrap(CodeStoreFetch, "fetch", context.DeadlineExceeded)))
	require.Equal(t, CodeStoreFetch, CodeOf(fmt.Errorf("outer: %w", Wrap(CodeStoreFetch, "fetch", nil))))
	require.Equal(t, "unknown", CodeOf(fmt.Errorf("plain")))
}

func TestIsCode(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", Wrap(CodeClustering, "nan", nil))
	require.True(t, IsCode(err, CodeClustering))
	require.False(t, IsCode(err, CodeEmbedding))
	require.Equal(t, "nan", err.(interface{ Unwrap() error }).Unwrap().Error())
}
