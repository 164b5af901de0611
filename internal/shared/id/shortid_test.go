package id

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate_Length(t *testing.T) {
	for _, length := range []int{1, 8, 12, 32} {
		got, err := Generate(length)
		require.NoError(t, err)
		assert.Len(t, got, length)
	}
}

func TestGenerate_DefaultLengthOnNonPositive(t *testing.T) {
	got, err := Generate(0)
	require.NoError(t, err)
	assert.Len(t, got, DefaultLength)

	got, err = Generate(-5)
	require.NoError(t, err)
	assert.Len(t, got, DefaultLength)
}

func TestGenerate_AlphabetOnly(t *testing.T) {
	got, err := Generate(64)
	require.NoError(t, err)
	for _, ch := range got {
		assert.Contains(t, alphabet, string(ch))
	}
}

func TestGenerate_Uniqueness(t *testing.T) {
	seen := make(map[string]struct{}, 1000)
	for i := 0; i < 1000; i++ {
		got := MustGenerate(DefaultLength)
		_, dup := seen[got]
		require.False(t, dup, "duplicate id generated: %s", got)
		seen[got] = struct{}{}
	}
}

func TestGenerateWithPrefix(t *testing.T) {
	got, err := GenerateWithPrefix(PrefixSubscription, 12)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(got, "sub_"))
	assert.Len(t, got, len("sub_")+12)

	assert.True(t, HasPrefix(got, PrefixSubscription))
	assert.False(t, HasPrefix(got, PrefixTransaction))
}
