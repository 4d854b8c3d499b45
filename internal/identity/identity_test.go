package identity

import (
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sign(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("backend-secret"))
	require.NoError(t, err)
	return s
}

func TestDecodeFlatClaims(t *testing.T) {
	tok := sign(t, jwt.MapClaims{"id": 42.0, "email": "lan@thue.vn", "fullName": "Nguyễn Lan", "avatar": "/a.png"})
	id, err := Decode("Bearer " + tok)
	require.NoError(t, err)
	assert.Equal(t, "42", id.ID)
	assert.Equal(t, "lan@thue.vn", id.Email)
	assert.Equal(t, "Nguyễn Lan", id.FullName)
	assert.Equal(t, "/a.png", id.Avatar)
}

func TestDecodeNestedUserAndSub(t *testing.T) {
	tok := sign(t, jwt.MapClaims{"sub": "u-7", "user": map[string]any{"email": "minh@thue.vn", "name": "Minh"}})
	id, err := Decode(tok)
	require.NoError(t, err)
	assert.Equal(t, "u-7", id.ID)
	assert.Equal(t, "Minh", id.FullName)
}

func TestDecodeRejectsGarbage(t *testing.T) {
	_, err := Decode("")
	assert.ErrorIs(t, err, ErrNoToken)
	_, err = Decode("not.a.jwt")
	assert.Error(t, err)
}
