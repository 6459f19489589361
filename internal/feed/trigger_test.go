package feed

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNearBottom(t *testing.T) {
	t.Parallel()

	require.True(t, NearBottom(950, 600, 1600, DefaultBottomPad))
	require.False(t, NearBottom(100, 600, 1600, DefaultBottomPad))
}

func TestPastRatio(t *testing.T) {
	t.Parallel()

	require.True(t, PastRatio(800, 600, 2000, DefaultScrollRatio))
	require.False(t, PastRatio(100, 600, 2000, DefaultScrollRatio))
	require.True(t, PastRatio(0, 0, 0, DefaultScrollRatio))
}
