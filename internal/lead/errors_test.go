package lead

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRemoteErrorClassification(t *testing.T) {
	t.Parallel()

	wrap := func(code int) error {
		return fmt.Errorf("append: %w", &RemoteError{StatusCode: code})
	}

	assert.True(t, IsAuthError(wrap(401)))
	assert.True(t, IsAuthError(wrap(403)))
	assert.False(t, IsAuthError(wrap(500)))

	for _, code := range []int{429, 500, 502, 503, 504} {
		assert.True(t, IsTransient(wrap(code)), "status %d", code)
	}
	assert.False(t, IsTransient(wrap(400)))
	assert.False(t, IsTransient(wrap(401)))

	assert.True(t, IsNotFound(wrap(404)))
	assert.False(t, IsNotFound(wrap(400)))

	plain := errors.New("socket closed")
	assert.False(t, IsAuthError(plain))
	assert.False(t, IsTransient(plain))
	assert.False(t, IsNotFound(plain))
}
