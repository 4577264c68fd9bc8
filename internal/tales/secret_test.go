package tales

import (
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateSecretCodeShape(t *testing.T) {
	t.Parallel()

	pattern := regexp.MustCompile(`^TALE-\d{4}-[A-Z]{4}$`)
	for i := 0; i < 500; i++ {
		code, err := GenerateSecretCode()
		require.NoError(t, err)
		require.Regexp(t, pattern, code)
		require.True(t, ValidSecretCode(code))
		require.GreaterOrEqual(t, code[5:9], "1000")
	}
}

func TestValidSecretCode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		code string
		want bool
	}{
		{"TALE-1234-ABCD", true},
		{"TALE-0000-ZZZZ", true},
		{"tale-1234-abcd", false},
		{"TALE-123-ABCD", false},
		{"TALE-1234-ABC1", false},
		{"TALE-1234-ABCDE", false},
		{" TALE-1234-ABCD", false},
		{"", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ValidSecretCode(tt.code), tt.code)
	}
}

func TestGenerateEditToken(t *testing.T) {
	t.Parallel()

	seen := make(map[string]bool)
	for _, purpose := range []string{PurposeEdit, PurposeClaim} {
		for i := 0; i < 100; i++ {
			token, err := GenerateEditToken(purpose)
			require.NoError(t, err)
			require.True(t, strings.HasPrefix(token, purpose+"_"))

			body := strings.TrimPrefix(token, purpose+"_")
			require.Len(t, body, tokenLength)
			for _, c := range body {
				require.True(t, strings.ContainsRune(tokenAlphabet, c), "unexpected character %q", c)
			}
			require.False(t, seen[token], "duplicate token %s", token)
			seen[token] = true
		}
	}
}

func TestHashToken(t *testing.T) {
	t.Parallel()

	h := hashToken("edit_abc")
	assert.Len(t, h, 64)
	assert.Equal(t, h, hashToken("edit_abc"))
	assert.NotEqual(t, h, hashToken("edit_abd"))
}
