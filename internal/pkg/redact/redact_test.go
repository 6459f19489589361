package redact

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestToken(t *testing.T) {
	t.Parallel()
	require.Equal(t, "[REDACTED_TOKEN]", Token())
}

func TestPassword(t *testing.T) {
	t.Parallel()
	require.Equal(t, "[REDACTED_PASSWORD]", Password())
}

func TestCursor(t *testing.T) {
	t.Parallel()

	require.Equal(t, "abc", Cursor("abc"))
	require.Equal(t, "12345678...", Cursor("1234567890abcdef"))
}
