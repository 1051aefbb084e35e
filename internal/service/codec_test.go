package service

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rryowa/nexus/internal/models"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestTokenCodec_RoundTrip(t *testing.T) {
	codec := NewTokenCodec([]byte("access-secret"), 15*time.Minute)

	token, err := codec.Sign(Claims{SubjectID: "u1", Role: models.RoleAdmin})
	require.NoError(t, err)

	claims, err := codec.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, &Claims{SubjectID: "u1", Role: models.RoleAdmin}, claims)
}

func TestTokenCodec_RefreshClaimsHaveNoRole(t *testing.T) {
	codec := NewTokenCodec([]byte("refresh-secret"), time.Hour)

	token, err := codec.Sign(Claims{SubjectID: "u1"})
	require.NoError(t, err)

	claims, err := codec.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, models.Role(0), claims.Role)
}

func TestTokenCodec_TokensAreUnique(t *testing.T) {
	codec := NewTokenCodec([]byte("secret"), time.Hour)
	codec.now = fixedClock(time.Unix(1_700_000_000, 0))

	a, err := codec.Sign(Claims{SubjectID: "u1"})
	require.NoError(t, err)
	b, err := codec.Sign(Claims{SubjectID: "u1"})
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestTokenCodec_WrongSecret(t *testing.T) {
	access := NewTokenCodec([]byte("access-secret"), time.Hour)
	refresh := NewTokenCodec([]byte("refresh-secret"), time.Hour)

	token, err := refresh.Sign(Claims{SubjectID: "u1"})
	require.NoError(t, err)

	_, err = access.Verify(token)
	require.ErrorIs(t, err, ErrTokenInvalid)
}

func TestTokenCodec_Expired(t *testing.T) {
	start := time.Unix(1_700_000_000, 0)
	codec := NewTokenCodec([]byte("secret"), time.Minute)
	codec.now = fixedClock(start)

	token, err := codec.Sign(Claims{SubjectID: "u1"})
	require.NoError(t, err)

	codec.now = fixedClock(start.Add(30 * time.Second))
	_, err = codec.Verify(token)
	require.NoError(t, err)

	codec.now = fixedClock(start.Add(2 * time.Minute))
	_, err = codec.Verify(token)
	require.ErrorIs(t, err, ErrTokenInvalid)
}

func TestTokenCodec_Malformed(t *testing.T) {
	codec := NewTokenCodec([]byte("secret"), time.Hour)

	for _, token := range []string{"", "abc", "a.b.c", "a.b"} {
		_, err := codec.Verify(token)
		assert.ErrorIs(t, err, ErrTokenInvalid, "token %q", token)
	}
}

// Changing any single character of a signed token must make it fail to verify.
func TestTokenCodec_TamperEveryCharacter(t *testing.T) {
	codec := NewTokenCodec([]byte("secret"), time.Hour)
	token, err := codec.Sign(Claims{SubjectID: "u1", Role: models.RoleUser})
	require.NoError(t, err)

	for i := range token {
		if token[i] == '.' {
			continue
		}
		replacement := byte('A')
		if token[i] == 'A' {
			replacement = 'B'
		}
		tampered := token[:i] + string(replacement) + token[i+1:]

		_, err := codec.Verify(tampered)
		require.ErrorIs(t, err, ErrTokenInvalid, "tampered at %d", i)
	}
}

func TestTokenCodec_RejectsOtherAlgorithms(t *testing.T) {
	codec := NewTokenCodec([]byte("secret"), time.Hour)
	token, err := codec.Sign(Claims{SubjectID: "u1"})
	require.NoError(t, err)

	// {"alg":"none","typ":"JWT"}
	parts := strings.Split(token, ".")
	unsigned := "eyJhbGciOiJub25lIiwidHlwIjoiSldUIn0." + parts[1] + "."

	_, err = codec.Verify(unsigned)
	require.ErrorIs(t, err, ErrTokenInvalid)
}
