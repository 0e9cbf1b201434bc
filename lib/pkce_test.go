package lib

import (
	"crypto/sha256"
	"encoding/base64"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var base64urlRe = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

func TestGenerateVerifier(t *testing.T) {
	verifier, err := GenerateVerifier()
	require.NoError(t, err)

	// 32 bytes base64url without padding is always 43 characters.
	assert.Len(t, verifier, 43)
	assert.Regexp(t, base64urlRe, verifier)
}

func TestGenerateVerifierUnique(t *testing.T) {
	a, err := GenerateVerifier()
	require.NoError(t, err)
	b, err := GenerateVerifier()
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestChallengeS256(t *testing.T) {
	verifier := "dBjftJeZ4CVP-mB92K27uhbUJU1p1r_wW1gFWFOEjXk"

	sum := sha256.Sum256([]byte(verifier))
	want := base64.RawURLEncoding.EncodeToString(sum[:])

	assert.Equal(t, want, ChallengeS256(verifier))
	assert.Regexp(t, base64urlRe, ChallengeS256(verifier))
}

func TestGenerateState(t *testing.T) {
	state, err := GenerateState()
	require.NoError(t, err)

	assert.Len(t, state, 43)
	assert.Regexp(t, base64urlRe, state)
}
