package hash

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHMACSHA256(t *testing.T) {
	h := NewHMACSHA256([]byte("server-secret"))

	digest := h.Hash("token-value")

	assert.Len(t, digest, 64)
	assert.Equal(t, digest, h.Hash("token-value"))
	assert.True(t, h.Verify(digest, "token-value"))
	assert.False(t, h.Verify(digest, "other-token"))
	assert.NotEqual(t, digest, NewHMACSHA256([]byte("other-secret")).Hash("token-value"))
}
