package service

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/playpulse/playpulse-api/internal/models"
	appErrors "github.com/playpulse/playpulse-api/pkg/errors"
	"github.com/playpulse/playpulse-api/pkg/mailer"
)

type mockAuthRepo struct {
	users     map[string]*models.User
	createErr error
	updateErr error
}

func newMockAuthRepo(users ...*models.User) *mockAuthRepo {
	m := &mockAuthRepo{users: map[string]*models.User{}}
	for _, u := range users {
		m.users[u.ID] = u
	}
	return m
}

func (m *mockAuthRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockAuthRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *u
	return &cp, nil
}

func (m *mockAuthRepo) Create(ctx context.Context, exec sqlx.ExtContext, user *models.User) error {
	if m.createErr != nil {
		return m.createErr
	}
	user.ID = "user-new"
	cp := *user
	m.users[user.ID] = &cp
	return nil
}

func (m *mockAuthRepo) UpdateProfile(ctx context.Context, user *models.User) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	cp := *user
	m.users[user.ID] = &cp
	return nil
}

func (m *mockAuthRepo) SetResetCode(ctx context.Context, id, codeHash string, expiresAt time.Time) error {
	u := m.users[id]
	u.ResetCodeHash = &codeHash
	u.ResetCodeExpiresAt = &expiresAt
	return nil
}

func (m *mockAuthRepo) ResetPassword(ctx context.Context, id, passwordHash string) error {
	u := m.users[id]
	u.PasswordHash = passwordHash
	u.ResetCodeHash = nil
	u.ResetCodeExpiresAt = nil
	return nil
}

type senderStub struct {
	mu   sync.Mutex
	sent []mailer.Message
	err  error
}

func (s *senderStub) Send(ctx context.Context, msg mailer.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, msg)
	return nil
}

func hashedUser(t *testing.T, id, email, password string, role models.UserRole) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return &models.User{ID: id, Name: "User " + id, Email: email, PasswordHash: string(hash), Role: role}
}

func newTestAuthService(repo authUserRepository, sender mailer.Sender) *AuthService {
	return NewAuthService(repo, sender, nil, nil, AuthConfig{
		AccessTokenSecret: "secret",
		AccessTokenExpiry: time.Hour,
		Issuer:            "playpulse-test",
	})
}

func TestAuthServiceSignupAndLogin(t *testing.T) {
	repo := newMockAuthRepo()
	svc := newTestAuthService(repo, nil)

	resp, err := svc.Signup(context.Background(), SignupRequest{Name: " Asha ", Email: "Asha@Example.com", Password: "secret1", Role: models.RoleParent})
	require.NoError(t, err)
	assert.Equal(t, "asha@example.com", resp.User.Email)
	assert.Equal(t, "Asha", resp.User.Name)
	assert.Equal(t, models.RoleParent, resp.User.Role)

	claims, err := svc.ValidateToken(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, "user-new", claims.UserID)
	assert.Equal(t, models.RoleParent, claims.Role)
	assert.Equal(t, "playpulse-test", claims.Issuer)

	login, err := svc.Login(context.Background(), LoginRequest{Email: "asha@example.com", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, "user-new", login.User.ID)

	_, err = svc.Login(context.Background(), LoginRequest{Email: "asha@example.com", Password: "wrong"})
	assert.True(t, errors.Is(err, appErrors.ErrInvalidCredentials))

	_, err = svc.Login(context.Background(), LoginRequest{Email: "nobody@example.com", Password: "secret1"})
	assert.True(t, errors.Is(err, appErrors.ErrInvalidCredentials))
}

func TestAuthServiceSignupRejections(t *testing.T) {
	existing := hashedUser(t, "u1", "taken@example.com", "secret1", models.RoleOwner)

	t.Run("coach role is not self-service", func(t *testing.T) {
		svc := newTestAuthService(newMockAuthRepo(), nil)
		_, err := svc.Signup(context.Background(), SignupRequest{Name: "C", Email: "c@example.com", Password: "secret1", Role: models.RoleCoach})
		assert.True(t, errors.Is(err, appErrors.ErrValidation))
	})

	t.Run("duplicate email", func(t *testing.T) {
		svc := newTestAuthService(newMockAuthRepo(existing), nil)
		_, err := svc.Signup(context.Background(), SignupRequest{Name: "T", Email: "TAKEN@example.com", Password: "secret1", Role: models.RoleOwner})
		assert.True(t, errors.Is(err, appErrors.ErrConflict))
	})

	t.Run("unique violation from insert race", func(t *testing.T) {
		repo := newMockAuthRepo()
		repo.createErr = &pq.Error{Code: "23505", Constraint: "users_email_key"}
		svc := newTestAuthService(repo, nil)
		_, err := svc.Signup(context.Background(), SignupRequest{Name: "T", Email: "race@example.com", Password: "secret1", Role: models.RoleOwner})
		assert.True(t, errors.Is(err, appErrors.ErrConflict))
	})
}

func TestAuthServiceValidateTokenRejectsForeignSecretAndExpiry(t *testing.T) {
	repo := newMockAuthRepo(hashedUser(t, "u1", "a@example.com", "secret1", models.RoleOwner))
	svc := newTestAuthService(repo, nil)
	resp, err := svc.Login(context.Background(), LoginRequest{Email: "a@example.com", Password: "secret1"})
	require.NoError(t, err)

	other := NewAuthService(repo, nil, nil, nil, AuthConfig{AccessTokenSecret: "other", AccessTokenExpiry: time.Hour})
	_, err = other.ValidateToken(resp.Token)
	assert.True(t, errors.Is(err, appErrors.ErrUnauthorized))

	svc.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = svc.ValidateToken(resp.Token)
	assert.True(t, errors.Is(err, appErrors.ErrUnauthorized))
}

var resetCodePattern = regexp.MustCompile(`\b(\d{6})\b`)

func TestAuthServicePasswordResetFlow(t *testing.T) {
	repo := newMockAuthRepo(hashedUser(t, "u1", "a@example.com", "old-pass", models.RoleParent))
	sender := &senderStub{}
	svc := newTestAuthService(repo, sender)

	require.NoError(t, svc.ForgotPassword(context.Background(), ForgotPasswordRequest{Email: "a@example.com"}))
	require.Len(t, sender.sent, 1)
	assert.Equal(t, "a@example.com", sender.sent[0].To)
	match := resetCodePattern.FindStringSubmatch(sender.sent[0].Text)
	require.Len(t, match, 2)
	code := match[1]
	assert.NotEqual(t, code, *repo.users["u1"].ResetCodeHash)

	wrong := "000000"
	if code == wrong {
		wrong = "111111"
	}
	err := svc.VerifyResetCode(context.Background(), VerifyResetCodeRequest{Email: "a@example.com", Code: wrong})
	assert.True(t, errors.Is(err, appErrors.ErrInvalidResetCode))
	require.NoError(t, svc.VerifyResetCode(context.Background(), VerifyResetCodeRequest{Email: "a@example.com", Code: code}))

	require.NoError(t, svc.ResetPassword(context.Background(), ResetPasswordRequest{Email: "a@example.com", Code: code, NewPassword: "new-pass"}))
	assert.Nil(t, repo.users["u1"].ResetCodeHash)

	_, err = svc.Login(context.Background(), LoginRequest{Email: "a@example.com", Password: "new-pass"})
	require.NoError(t, err)

	// The code is single use.
	err = svc.ResetPassword(context.Background(), ResetPasswordRequest{Email: "a@example.com", Code: code, NewPassword: "again-pass"})
	assert.True(t, errors.Is(err, appErrors.ErrInvalidResetCode))
}

func TestAuthServiceResetCodeExpires(t *testing.T) {
	repo := newMockAuthRepo(hashedUser(t, "u1", "a@example.com", "old-pass", models.RoleParent))
	sender := &senderStub{}
	svc := newTestAuthService(repo, sender)
	require.NoError(t, svc.ForgotPassword(context.Background(), ForgotPasswordRequest{Email: "a@example.com"}))
	code := resetCodePattern.FindStringSubmatch(sender.sent[0].Text)[1]

	svc.now = func() time.Time { return time.Now().Add(61 * time.Minute) }
	err := svc.VerifyResetCode(context.Background(), VerifyResetCodeRequest{Email: "a@example.com", Code: code})
	assert.True(t, errors.Is(err, appErrors.ErrInvalidResetCode))
}

func TestAuthServiceForgotPasswordFailures(t *testing.T) {
	svc := newTestAuthService(newMockAuthRepo(), &senderStub{})
	err := svc.ForgotPassword(context.Background(), ForgotPasswordRequest{Email: "ghost@example.com"})
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))

	repo := newMockAuthRepo(hashedUser(t, "u1", "a@example.com", "old-pass", models.RoleParent))
	svc = newTestAuthService(repo, &senderStub{err: errors.New("smtp down")})
	err = svc.ForgotPassword(context.Background(), ForgotPasswordRequest{Email: "a@example.com"})
	assert.True(t, errors.Is(err, appErrors.ErrUpstream))
}

func TestAuthServiceForgotPasswordEmailFailureIsUpstreamError(t *testing.T) {
	repo := newMockAuthRepo(hashedUser(t, "u1", "a@example.com", "old-pass", models.RoleParent))
	svc := newTestAuthService(repo, &senderStub{err: errors.New("smtp down")})

	err := svc.ForgotPassword(context.Background(), ForgotPasswordRequest{Email: "a@example.com"})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, "UPSTREAM_ERROR", appErr.Code)
	assert.Equal(t, http.StatusInternalServerError, appErr.Status)
	assert.Equal(t, "failed to send reset code", appErr.Message)

	// The code is stored before delivery, so a retry simply replaces it.
	assert.NotNil(t, repo.users["u1"].ResetCodeHash)
}

func TestAuthServiceUpdateProfile(t *testing.T) {
	repo := newMockAuthRepo(hashedUser(t, "u1", "a@example.com", "secret1", models.RoleOwner))
	svc := newTestAuthService(repo, nil)

	username := " ash "
	user, err := svc.UpdateProfile(context.Background(), "u1", UpdateProfileRequest{Name: "Ash", Username: &username, Email: "New@Example.com"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "Ash", user.Name)
	assert.Equal(t, "ash", *user.Username)
	assert.Equal(t, "new@example.com", user.Email)
	assert.True(t, strings.HasPrefix(repo.users["u1"].PasswordHash, "$2"))

	repo.updateErr = &pq.Error{Code: "23505"}
	_, err = svc.UpdateProfile(context.Background(), "u1", UpdateProfileRequest{Email: "dup@example.com"}, nil)
	assert.True(t, errors.Is(err, appErrors.ErrConflict))

	_, err = svc.Profile(context.Background(), "missing")
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
}

func TestAuthServiceUpdateProfileImage(t *testing.T) {
	repo := newMockAuthRepo(hashedUser(t, "u1", "a@example.com", "secret1", models.RoleParent))
	svc := newTestAuthService(repo, nil)

	_, err := svc.UpdateProfile(context.Background(), "u1", UpdateProfileRequest{}, &UploadedFile{Filename: "me.png", Data: pngBytes})
	assert.True(t, errors.Is(err, appErrors.ErrValidation))

	backend := newMemoryBackend()
	svc.UseImageStore(NewMediaService(backend, MediaServiceConfig{}, nil))
	user, err := svc.UpdateProfile(context.Background(), "u1", UpdateProfileRequest{}, &UploadedFile{Filename: "me.png", Data: pngBytes})
	require.NoError(t, err)
	require.NotNil(t, user.Image)
	assert.True(t, strings.HasPrefix(*user.Image, "/api/v1/uploads/images/"))
	assert.Len(t, backend.objects, 1)
}
