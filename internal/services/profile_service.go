package services

import (
	"context"
	"errors"
	"net/http"

	"rentalhub/internal/domain"
	"rentalhub/internal/repos"
	"rentalhub/internal/validate"
)

const MaxAvatarBytes = 5 << 20

var (
	ErrAvatarTooLarge = errors.New("avatar must be 5 MB or smaller")
	ErrAvatarType     = errors.New("avatar must be a JPEG, PNG or WebP image")
	ErrWrongPassword  = errors.New("current password is incorrect")
)

var avatarTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
}

type ProfileService struct {
	Users *repos.UserRepo
}

func NewProfileService(users *repos.UserRepo) *ProfileService {
	return &ProfileService{Users: users}
}

func (s *ProfileService) Profile(ctx context.Context) (domain.Profile, error) {
	return s.Users.Me(ctx)
}

type PasswordChange struct {
	Current string `json:"currentPassword" validate:"required"`
	New     string `json:"newPassword" validate:"required,password"`
	Confirm string `json:"confirmPassword" validate:"required,eqfield=New"`
}

// ChangePassword checks the form, verifies the current password with the
// backend, then submits the change.
func (s *ProfileService) ChangePassword(ctx context.Context, in PasswordChange) error {
	if err := validate.Struct(in); err != nil {
		return err
	}
	ok, err := s.Users.VerifyPassword(ctx, in.Current)
	if err != nil {
		return err
	}
	if !ok {
		return ErrWrongPassword
	}
	return s.Users.ChangePassword(ctx, in.Current, in.New)
}

// CheckAvatar sniffs the file instead of trusting its extension.
func CheckAvatar(data []byte) error {
	if len(data) > MaxAvatarBytes {
		return ErrAvatarTooLarge
	}
	if !avatarTypes[http.DetectContentType(data)] {
		return ErrAvatarType
	}
	return nil
}

func (s *ProfileService) UploadAvatar(ctx context.Context, filename string, data []byte) (string, error) {
	if err := CheckAvatar(data); err != nil {
		return "", err
	}
	return s.Users.UploadAvatar(ctx, filename, data)
}
