package services

import (
	"context"
	"errors"

	"rentalhub/internal/domain"
	"rentalhub/internal/identity"
	"rentalhub/internal/repos"
	"rentalhub/internal/store"
	"rentalhub/internal/validate"
)

var ErrBadCreds = errors.New("invalid email or password")

type AuthService struct {
	Users *repos.UserRepo
	Store *store.Store
}

func NewAuthService(users *repos.UserRepo, st *store.Store) *AuthService {
	return &AuthService{Users: users, Store: st}
}

// Login trades credentials for a backend token and keeps it in the session.
// The identity decoded from the token is for display only.
func (s *AuthService) Login(ctx context.Context, sid, email, password string) (domain.Identity, error) {
	email, ok := validate.Email(email)
	if !ok || password == "" {
		return domain.Identity{}, ErrBadCreds
	}
	tok, err := s.Users.Login(ctx, email, password)
	if err != nil {
		var apiErr *repos.APIError
		if errors.Is(err, repos.ErrUnauthorized) || (errors.As(err, &apiErr) && apiErr.Status < 500) {
			return domain.Identity{}, ErrBadCreds
		}
		return domain.Identity{}, err
	}
	id, err := identity.Decode(tok)
	if err != nil {
		// An opaque token still works for the backend; show the email.
		id = domain.Identity{Email: email}
	}
	s.Store.Dispatch(sid, store.SetSession{Token: tok, Identity: id})
	return id, nil
}

func (s *AuthService) Logout(sid string) {
	s.Store.Dispatch(sid, store.ClearSession{})
}
