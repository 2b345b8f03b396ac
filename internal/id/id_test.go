package id

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate_Uniqueness(t *testing.T) {
	seen := make(map[string]bool)
	for range 1000 {
		v, err := Generate(PrefixCall)
		require.NoError(t, err)
		assert.False(t, seen[v], "ID should be unique: %s", v)
		seen[v] = true
	}
}

func TestGenerate_Format(t *testing.T) {
	for _, prefix := range []string{PrefixCall, PrefixSubscriber, PrefixView} {
		t.Run(prefix, func(t *testing.T) {
			v := MustGenerate(prefix)
			assert.True(t, strings.HasPrefix(v, prefix+"-"))
			// prefix + hyphen + 21 character nanoid
			assert.Len(t, v, len(prefix)+1+21)
		})
	}
}

func TestRequestID(t *testing.T) {
	a, b := RequestID(), RequestID()
	assert.NotEqual(t, a, b)

	_, err := uuid.Parse(a)
	assert.NoError(t, err)
}
