package jwt_test

import (
	"testing"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"urbandrive/util/jwt"
)

func TestIssue_ClaimsAndSigning(t *testing.T) {
	const secret = "test-secret"

	tokenStr, err := jwt.Issue(secret, 42, "admin", 2)
	require.NoError(t, err)

	tok, err := jwtlib.Parse(tokenStr, func(t *jwtlib.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwtlib.WithValidMethods([]string{"HS256"}))
	require.NoError(t, err)
	require.True(t, tok.Valid)

	claims, ok := tok.Claims.(jwtlib.MapClaims)
	require.True(t, ok)
	require.Equal(t, float64(42), claims["sub"])
	require.Equal(t, "admin", claims["role"])

	exp, ok := claims["exp"].(float64)
	require.True(t, ok)
	require.Greater(t, int64(exp), time.Now().Unix())
}

func TestIssue_RejectsWrongSecret(t *testing.T) {
	tokenStr, err := jwt.Issue("right-secret", 1, "user", 1)
	require.NoError(t, err)

	_, err = jwtlib.Parse(tokenStr, func(t *jwtlib.Token) (interface{}, error) {
		return []byte("wrong-secret"), nil
	}, jwtlib.WithValidMethods([]string{"HS256"}))
	require.Error(t, err)
}
