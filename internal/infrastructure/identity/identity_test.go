package identity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestProvider_IssueAndVerify(t *testing.T) {
	req := require.New(t)

	provider := NewProvider("test-secret", time.Hour)

	token, err := provider.IssueToken("user-1", "Alice")
	req.NoError(err)
	req.NotEmpty(token)

	id, err := provider.Verify(token)
	req.NoError(err)
	req.Equal("user-1", id.UserID)
	req.Equal("Alice", id.Name)
}

func TestProvider_RejectsForeignSecret(t *testing.T) {
	req := require.New(t)

	issuer := NewProvider("secret-a", time.Hour)
	verifier := NewProvider("secret-b", time.Hour)

	token, err := issuer.IssueToken("user-1", "Alice")
	req.NoError(err)

	_, err = verifier.Verify(token)
	req.ErrorIs(err, ErrTokenInvalid)
}

func TestProvider_RejectsExpiredToken(t *testing.T) {
	req := require.New(t)

	provider := NewProvider("test-secret", time.Hour)
	provider.tokenTTL = -time.Minute // already expired at issue time

	token, err := provider.IssueToken("user-1", "Alice")
	req.NoError(err)

	_, err = provider.Verify(token)
	req.ErrorIs(err, ErrTokenExpired)
}

func TestProvider_RejectsGarbage(t *testing.T) {
	provider := NewProvider("test-secret", time.Hour)

	_, err := provider.Verify("not.a.token")
	require.ErrorIs(t, err, ErrTokenInvalid)
}

func TestPasswordHashing(t *testing.T) {
	req := require.New(t)

	hash, err := HashPassword("correct horse battery staple")
	req.NoError(err)
	req.NotEqual("correct horse battery staple", hash)

	req.True(CheckPassword(hash, "correct horse battery staple"))
	req.False(CheckPassword(hash, "wrong password"))
}
