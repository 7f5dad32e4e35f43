package repositories

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanonicalPair(t *testing.T) {
	a, b := CanonicalPair(9, 3)
	assert.Equal(t, int64(3), a)
	assert.Equal(t, int64(9), b)

	a, b = CanonicalPair(3, 9)
	assert.Equal(t, int64(3), a)
	assert.Equal(t, int64(9), b)

	a, b = CanonicalPair(5, 5)
	assert.Equal(t, int64(5), a)
	assert.Equal(t, int64(5), b)
}

func TestDefaultNickname(t *testing.T) {
	assert.Equal(t, "user:42", defaultNickname(42))
}
