package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/bizdesk/bizdesk/internal/platform/httpx"
	"github.com/bizdesk/bizdesk/internal/shared"
)

type memoryRepo struct {
	users  map[string]User
	nextID int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{users: map[string]User{}}
}

func (m *memoryRepo) FindByEmail(_ context.Context, email string) (*User, error) {
	user, ok := m.users[email]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &user, nil
}

func (m *memoryRepo) CreateUser(_ context.Context, user User) (int64, error) {
	if _, ok := m.users[user.Email]; ok {
		return 0, ErrEmailTaken
	}
	m.nextID++
	user.ID = m.nextID
	m.users[user.Email] = user
	return user.ID, nil
}

func newTestService(repo Repository) *Service {
	svc := NewService(repo, NewTokenIssuer("secret", time.Hour))
	svc.cost = bcrypt.MinCost
	return svc
}

func TestCreateUserAndLogin(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)

	user, err := svc.CreateUser(context.Background(), NewUserInput{
		Name: "Ana", Email: " Ana@Example.com ", Password: "s3cretpass", Role: shared.RoleAdmin,
	})
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", user.Email)
	assert.NotEqual(t, "s3cretpass", user.PasswordHash)

	resp, err := svc.Login(context.Background(), LoginRequest{Email: "ana@example.com", Password: "s3cretpass"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, shared.RoleAdmin, resp.User.Role)

	caller, err := svc.Resolve(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, caller.UserID)
	assert.Equal(t, "Ana", caller.Name)
}

func TestLoginRejectsBadPasswordAndInactiveUsers(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)
	_, err := svc.CreateUser(context.Background(), NewUserInput{Name: "Bo", Email: "bo@example.com", Password: "password1"})
	require.NoError(t, err)

	_, err = svc.Login(context.Background(), LoginRequest{Email: "bo@example.com", Password: "wrong-password"})
	assert.ErrorIs(t, err, shared.ErrInvalidCredentials)

	inactive := repo.users["bo@example.com"]
	inactive.IsActive = false
	repo.users["bo@example.com"] = inactive
	_, err = svc.Login(context.Background(), LoginRequest{Email: "bo@example.com", Password: "password1"})
	assert.ErrorIs(t, err, shared.ErrInvalidCredentials)

	_, err = svc.Login(context.Background(), LoginRequest{Email: "nobody@example.com", Password: "password1"})
	assert.ErrorIs(t, err, shared.ErrInvalidCredentials)
}

func TestCreateUserValidation(t *testing.T) {
	svc := newTestService(newMemoryRepo())
	cases := []NewUserInput{
		{Name: "x", Email: "not-an-email", Password: "password1"},
		{Name: "", Email: "a@b.co", Password: "password1"},
		{Name: "x", Email: "a@b.co", Password: "short"},
		{Name: "x", Email: "a@b.co", Password: "password1", Role: "owner"},
	}
	for _, input := range cases {
		_, err := svc.CreateUser(context.Background(), input)
		assert.ErrorIs(t, err, httpx.ErrValidation, "%+v", input)
	}
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	svc := newTestService(newMemoryRepo())
	input := NewUserInput{Name: "x", Email: "a@b.co", Password: "password1"}
	_, err := svc.CreateUser(context.Background(), input)
	require.NoError(t, err)
	_, err = svc.CreateUser(context.Background(), input)
	assert.True(t, errors.Is(err, httpx.ErrDuplicate))
}

func TestTokenIssuerRejectsExpiredAndForeignTokens(t *testing.T) {
	issuer := NewTokenIssuer("secret", time.Minute)
	base := time.Date(2024, 6, 15, 10, 0, 0, 0, time.UTC)
	issuer.now = func() time.Time { return base }

	token, expiresAt, err := issuer.Issue(shared.Caller{UserID: 7, Name: "Cy", Role: shared.RoleSeller})
	require.NoError(t, err)
	assert.Equal(t, base.Add(time.Minute), expiresAt)

	caller, err := issuer.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, int64(7), caller.UserID)

	issuer.now = func() time.Time { return base.Add(2 * time.Minute) }
	_, err = issuer.Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	other := NewTokenIssuer("other-secret", time.Minute)
	other.now = func() time.Time { return base }
	_, err = other.Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
