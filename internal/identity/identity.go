// Package identity derives display fields from the backend's bearer token.
// The signature is not checked here: the result personalizes pages and must
// never gate access. The backend authorizes every call.
package identity

import (
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"rentalhub/internal/domain"
)

var ErrNoToken = errors.New("no token")

var parser = jwt.NewParser()

func Decode(token string) (domain.Identity, error) {
	token = strings.TrimSpace(strings.TrimPrefix(token, "Bearer "))
	if token == "" {
		return domain.Identity{}, ErrNoToken
	}
	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return domain.Identity{}, fmt.Errorf("decode token: %w", err)
	}
	// Some issuers nest the profile under "user".
	src := map[string]any(claims)
	if u, ok := claims["user"].(map[string]any); ok {
		src = u
	}
	id := domain.Identity{
		ID:       first(src, "id", "_id", "userId", "user_id"),
		Email:    first(src, "email"),
		FullName: first(src, "fullName", "full_name", "name"),
		Avatar:   first(src, "avatar", "avatarUrl", "picture"),
	}
	if id.ID == "" {
		id.ID = first(claims, "sub")
	}
	return id, nil
}

func first(m map[string]any, keys ...string) string {
	for _, k := range keys {
		switch v := m[k].(type) {
		case string:
			if v != "" {
				return v
			}
		case float64:
			return fmt.Sprintf("%.0f", v)
		}
	}
	return ""
}
