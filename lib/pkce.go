package lib

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"

	"golang.org/x/xerrors"
)

// ChallengeMethod is the only PKCE method Entra ID accepts for public clients.
const ChallengeMethod = "S256"

func randomURLToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", xerrors.Errorf("reading random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// GenerateVerifier returns a PKCE code verifier: 32 random bytes,
// base64url-encoded without padding (43 characters).
func GenerateVerifier() (string, error) {
	return randomURLToken()
}

// ChallengeS256 derives the S256 code challenge for a verifier.
func ChallengeS256(verifier string) string {
	sum := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

// GenerateState returns an unguessable correlation token for the
// authorization request.
func GenerateState() (string, error) {
	return randomURLToken()
}
