package repos

import (
	"context"
	"errors"

	"rentalhub/internal/domain"
)

type UserRepo struct{ api *Client }

func NewUserRepo(api *Client) *UserRepo { return &UserRepo{api: api} }

// Login exchanges credentials for a bearer token.
func (r *UserRepo) Login(ctx context.Context, email, password string) (string, error) {
	res, err := r.api.do(ctx, "POST", "/auth/login", map[string]string{"email": email, "password": password})
	if err != nil {
		return "", err
	}
	tok := str(res, "token", "accessToken", "jwt")
	if tok == "" {
		return "", errors.New("login answer carried no token")
	}
	return tok, nil
}

func (r *UserRepo) Me(ctx context.Context) (domain.Profile, error) {
	res, err := r.api.get(ctx, "/users/me", nil)
	if err != nil {
		return domain.Profile{}, err
	}
	if u := field(res, "user"); u.IsObject() {
		res = u
	}
	return r.api.profile(res), nil
}

// VerifyPassword reports whether password matches the current account.
func (r *UserRepo) VerifyPassword(ctx context.Context, password string) (bool, error) {
	res, err := r.api.do(ctx, "POST", "/users/me/verify-password", map[string]string{"password": password})
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && (apiErr.Status == 400 || apiErr.Status == 422) {
			return false, nil
		}
		return false, err
	}
	if v := field(res, "valid", "isValid", "match"); v.Exists() {
		return v.Bool(), nil
	}
	return true, nil
}

func (r *UserRepo) ChangePassword(ctx context.Context, current, next string) error {
	_, err := r.api.do(ctx, "PUT", "/users/me/password", map[string]string{
		"currentPassword": current,
		"newPassword":     next,
	})
	return err
}

// UploadAvatar stores a new avatar and returns its resolved URL.
func (r *UserRepo) UploadAvatar(ctx context.Context, filename string, data []byte) (string, error) {
	res, err := r.api.upload(ctx, "PUT", "/users/me/avatar", "avatar", filename, data)
	if err != nil {
		return "", err
	}
	if u := field(res, "user"); u.IsObject() {
		res = u
	}
	return r.api.AssetURL(str(res, "avatar", "avatarUrl", "url")), nil
}
