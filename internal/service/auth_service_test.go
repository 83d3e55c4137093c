package service

import (
	"context"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/examprep-api/internal/dto"
	"github.com/noah-isme/examprep-api/internal/models"
	"github.com/noah-isme/examprep-api/internal/repository"
	"github.com/noah-isme/examprep-api/internal/security"
)

func newTestAuthService(t *testing.T) (AuthService, repository.UserRepository, *security.TokenIssuer) {
	t.Helper()
	db := setupServiceDB(t)
	users := repository.NewUserRepository(db)
	tokens := security.NewTokenIssuer("test-secret", time.Hour)
	svc := NewAuthService(users, security.NewPasswordHasher(bcrypt.MinCost), tokens, NewValidator(), zerolog.Nop())
	return svc, users, tokens
}

func validSignup() dto.SignupRequest {
	return dto.SignupRequest{Name: "Ada Lovelace", UserName: "ada", Email: " Ada@Example.com ", Password: "secret1"}
}

func TestAuthServiceSignupDefaultsToStudentAndHashesPassword(t *testing.T) {
	svc, users, tokens := newTestAuthService(t)
	ctx := context.Background()

	resp, err := svc.Signup(ctx, validSignup())
	require.NoError(t, err)
	require.Equal(t, models.RoleStudent, resp.User.Role)
	require.Equal(t, "ada@example.com", resp.User.Email)
	require.NotEmpty(t, resp.Token)

	userID, err := tokens.Verify(resp.Token)
	require.NoError(t, err)
	require.Equal(t, resp.User.ID, userID)

	stored, err := users.GetByUserName(ctx, "ada")
	require.NoError(t, err)
	require.NotEqual(t, "secret1", stored.PasswordHash)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("secret1")))
}

func TestAuthServiceSignupValidation(t *testing.T) {
	svc, _, _ := newTestAuthService(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		mutate  func(*dto.SignupRequest)
		message string
	}{
		{name: "missing name", mutate: func(r *dto.SignupRequest) { r.Name = "  " }, message: "All fields are required"},
		{name: "invalid role", mutate: func(r *dto.SignupRequest) { r.Role = "admin" }, message: "Invalid role. Must be student or teacher"},
		{name: "short password", mutate: func(r *dto.SignupRequest) { r.Password = "12345" }, message: "Password should be at least 6 characters"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			payload := validSignup()
			tc.mutate(&payload)
			_, err := svc.Signup(ctx, payload)
			var validationErr *ValidationError
			require.ErrorAs(t, err, &validationErr)
			require.Equal(t, tc.message, validationErr.Message)
		})
	}

	payload := validSignup()
	payload.Email = "not-an-email"
	_, err := svc.Signup(ctx, payload)
	var fieldErrs validator.ValidationErrors
	require.ErrorAs(t, err, &fieldErrs)
	require.Equal(t, "email", fieldErrs[0].Field())
}

func TestAuthServiceSignupRejectsDuplicates(t *testing.T) {
	svc, _, _ := newTestAuthService(t)
	ctx := context.Background()

	_, err := svc.Signup(ctx, validSignup())
	require.NoError(t, err)

	sameEmail := validSignup()
	sameEmail.UserName = "ada2"
	_, err = svc.Signup(ctx, sameEmail)
	require.ErrorIs(t, err, ErrDuplicateEmail)

	sameUser := validSignup()
	sameUser.Email = "other@example.com"
	_, err = svc.Signup(ctx, sameUser)
	require.ErrorIs(t, err, ErrDuplicateUsername)
}

func TestAuthServiceSignin(t *testing.T) {
	svc, _, _ := newTestAuthService(t)
	ctx := context.Background()

	payload := validSignup()
	payload.Role = models.RoleTeacher
	created, err := svc.Signup(ctx, payload)
	require.NoError(t, err)

	resp, err := svc.Signin(ctx, dto.SigninRequest{UserName: "ada", Password: "secret1"})
	require.NoError(t, err)
	require.Equal(t, created.User.ID, resp.User.ID)
	require.Equal(t, models.RoleTeacher, resp.User.Role)

	_, err = svc.Signin(ctx, dto.SigninRequest{UserName: "ada", Password: "wrong-pass"})
	require.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Signin(ctx, dto.SigninRequest{UserName: "ghost", Password: "secret1"})
	require.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Signin(ctx, dto.SigninRequest{UserName: "ada"})
	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
}

func TestAuthServiceResolveIdentity(t *testing.T) {
	svc, _, tokens := newTestAuthService(t)
	ctx := context.Background()

	created, err := svc.Signup(ctx, validSignup())
	require.NoError(t, err)

	user, err := svc.ResolveIdentity(ctx, created.Token)
	require.NoError(t, err)
	require.Equal(t, created.User.ID, user.ID)
	require.Empty(t, user.PasswordHash)

	_, err = svc.ResolveIdentity(ctx, "garbage")
	require.ErrorIs(t, err, ErrUnauthenticated)

	orphanToken, err := tokens.Issue(9999)
	require.NoError(t, err)
	_, err = svc.ResolveIdentity(ctx, orphanToken)
	require.ErrorIs(t, err, ErrUnauthenticated)

	profile, err := svc.Profile(ctx, created.User.ID)
	require.NoError(t, err)
	require.Equal(t, "ada", profile.UserName)

	_, err = svc.Profile(ctx, 9999)
	require.ErrorIs(t, err, ErrUserNotFound)
	require.Equal(t, time.Hour, svc.TokenTTL())
}
