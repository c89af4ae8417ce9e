package security

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPasswordHashVerify(t *testing.T) {
	// Full cost makes the test crawl, correctness doesn't depend on it
	h := &PasswordHash{Cost: 4}

	hash, err := h.GenerateFromPassword("hunter2!")
	require.NoError(t, err)
	require.NotEqual(t, "hunter2!", hash)

	assert.True(t, h.VerifyPasswd("hunter2!", hash))
	assert.False(t, h.VerifyPasswd("hunter3!", hash))
	assert.False(t, h.VerifyPasswd("hunter2!", "not-a-hash"))
}

func TestPasswordHashDefaultCost(t *testing.T) {
	assert.Equal(t, 12, New().Cost)
}
