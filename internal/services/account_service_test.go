package services_test

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentalhub/internal/domain"
	"rentalhub/internal/repos"
	"rentalhub/internal/services"
	"rentalhub/internal/store"
	"rentalhub/internal/validate"
)

func TestLoginStoresTokenAndIdentity(t *testing.T) {
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"id": "u1", "email": "lan@thue.vn", "fullName": "Nguyễn Lan",
	}).SignedString([]byte("k"))
	require.NoError(t, err)

	api := fakeBackend(t, map[string]http.HandlerFunc{
		"POST /api/auth/login": func(w http.ResponseWriter, r *http.Request) {
			raw, _ := io.ReadAll(r.Body)
			if !bytes.Contains(raw, []byte(`"password":"Secret#123"`)) {
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = io.WriteString(w, `{"message":"wrong password"}`)
				return
			}
			jsonBody(`{"data":{"accessToken":"` + tok + `"}}`)(w, r)
		},
	})
	st := store.New(nil)
	svc := services.NewAuthService(repos.NewUserRepo(api), st)
	ctx := context.Background()

	_, err = svc.Login(ctx, "s", "lan@thue.vn", "nope")
	assert.ErrorIs(t, err, services.ErrBadCreds)
	_, err = svc.Login(ctx, "s", "not-an-email", "Secret#123")
	assert.ErrorIs(t, err, services.ErrBadCreds)
	assert.False(t, st.Snapshot("s").SignedIn())

	id, err := svc.Login(ctx, "s", "lan@thue.vn", "Secret#123")
	require.NoError(t, err)
	assert.Equal(t, "Nguyễn Lan", id.FullName)
	snap := st.Snapshot("s")
	assert.Equal(t, tok, snap.Token)
	assert.Equal(t, "u1", snap.Identity.ID)

	svc.Logout("s")
	assert.False(t, st.Snapshot("s").SignedIn())
}

func TestChangePasswordVerifiesFirst(t *testing.T) {
	changed := false
	api := fakeBackend(t, map[string]http.HandlerFunc{
		"POST /api/users/me/verify-password": func(w http.ResponseWriter, r *http.Request) {
			raw, _ := io.ReadAll(r.Body)
			jsonBody(`{"valid":` + map[bool]string{true: "true", false: "false"}[bytes.Contains(raw, []byte("Old#pass1"))] + `}`)(w, r)
		},
		"PUT /api/users/me/password": func(w http.ResponseWriter, r *http.Request) {
			changed = true
			jsonBody(`{}`)(w, r)
		},
	})
	svc := services.NewProfileService(repos.NewUserRepo(api))
	ctx := context.Background()

	var verrs validate.Errors
	err := svc.ChangePassword(ctx, services.PasswordChange{Current: "Old#pass1", New: "weak", Confirm: "weak"})
	require.ErrorAs(t, err, &verrs)
	assert.Contains(t, verrs, "newPassword")

	err = svc.ChangePassword(ctx, services.PasswordChange{Current: "Old#pass1", New: "New#pass2", Confirm: "New#pass3"})
	require.ErrorAs(t, err, &verrs)
	assert.Contains(t, verrs, "confirmPassword")

	err = svc.ChangePassword(ctx, services.PasswordChange{Current: "guess", New: "New#pass2", Confirm: "New#pass2"})
	assert.ErrorIs(t, err, services.ErrWrongPassword)
	assert.False(t, changed)

	require.NoError(t, svc.ChangePassword(ctx, services.PasswordChange{Current: "Old#pass1", New: "New#pass2", Confirm: "New#pass2"}))
	assert.True(t, changed)
}

func TestCheckAvatar(t *testing.T) {
	png := append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 32)...)
	assert.NoError(t, services.CheckAvatar(png))
	assert.ErrorIs(t, services.CheckAvatar([]byte("GIF89a......")), services.ErrAvatarType)
	assert.ErrorIs(t, services.CheckAvatar([]byte("<html></html>")), services.ErrAvatarType)

	big := append(append([]byte(nil), png...), make([]byte, services.MaxAvatarBytes)...)
	assert.ErrorIs(t, services.CheckAvatar(big), services.ErrAvatarTooLarge)
}

func TestTimelineMarksProgress(t *testing.T) {
	steps := services.Timeline(domain.OrderInProgress)
	require.Len(t, steps, 5)
	assert.True(t, steps[0].Done)
	assert.True(t, steps[1].Done)
	assert.True(t, steps[2].Active)
	assert.False(t, steps[3].Done)

	for _, s := range services.Timeline(domain.OrderCancelled) {
		assert.False(t, s.Done || s.Active)
	}
}

func TestOrderDetailFallsBackToDefaultTax(t *testing.T) {
	api := fakeBackend(t, map[string]http.HandlerFunc{
		"GET /api/orders/o1": jsonBody(`{"data":{"_id":"o1","status":"confirmed","grandTotal":718000}}`),
	})
	v, err := services.NewOrderService(repos.NewOrderRepo(api)).Detail(context.Background(), "o1")
	require.NoError(t, err)
	assert.Equal(t, "o1", v.Order.ID)
	assert.InDelta(t, services.TaxRate, v.TaxRate, 1e-9)
	assert.Equal(t, 718000.0, v.Order.GrandTotal)
}

func TestOwnerRequestRejectNeedsReason(t *testing.T) {
	svc := services.NewOwnerRequestService(nil)
	assert.ErrorIs(t, svc.Reject(context.Background(), "r1", " "), services.ErrReasonRequired)

	_, err := svc.Create(context.Background(), repos.OwnerRequestInput{ShopName: " ", Reason: "x"})
	var verrs validate.Errors
	require.ErrorAs(t, err, &verrs)
	assert.Contains(t, verrs, "shopName")
}
