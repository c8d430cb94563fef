package http

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionTokenRoundTrip(t *testing.T) {
	token, err := issueSessionToken("secret", 42, time.Hour)
	require.NoError(t, err)

	userID, err := parseSessionToken("secret", token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), userID)
}

func TestSessionTokenWrongSecret(t *testing.T) {
	token, err := issueSessionToken("secret", 42, time.Hour)
	require.NoError(t, err)

	_, err = parseSessionToken("other", token)
	assert.Error(t, err)
}

func TestSessionTokenExpired(t *testing.T) {
	token, err := issueSessionToken("secret", 42, -time.Minute)
	require.NoError(t, err)

	_, err = parseSessionToken("secret", token)
	assert.Error(t, err)
}
