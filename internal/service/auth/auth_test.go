package auth

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/heartmarshall/pulsepal-backend/internal/config"
	"github.com/heartmarshall/pulsepal-backend/internal/domain"
)

// userRepoMock is an in-memory user store keyed by email.
type userRepoMock struct {
	mu    sync.Mutex
	users map[string]domain.User
}

func newUserRepoMock() *userRepoMock {
	return &userRepoMock{users: map[string]domain.User{}}
}

func (m *userRepoMock) Create(_ context.Context, u domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[u.Email]; ok {
		return domain.ErrAlreadyExists
	}
	m.users[u.Email] = u
	return nil
}

func (m *userRepoMock) GetByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.ID == id {
			return &u, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *userRepoMock) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[email]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &u, nil
}

type memoryRepoMock struct {
	mu    sync.Mutex
	inits []domain.Memory
}

func (m *memoryRepoMock) Init(_ context.Context, mem domain.Memory) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inits = append(m.inits, mem)
	return nil
}

type txManagerMock struct{}

func (txManagerMock) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type jwtManagerMock struct {
	GenerateAccessTokenFunc func(userID uuid.UUID) (string, error)
}

func (m *jwtManagerMock) GenerateAccessToken(userID uuid.UUID) (string, error) {
	if m.GenerateAccessTokenFunc == nil {
		return "token-" + userID.String(), nil
	}
	return m.GenerateAccessTokenFunc(userID)
}

func newTestService(t *testing.T, cfg config.AuthConfig) (*Service, *userRepoMock, *memoryRepoMock) {
	t.Helper()

	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = bcrypt.MinCost
	}
	users := newUserRepoMock()
	memory := &memoryRepoMock{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := NewService(logger, users, memory, txManagerMock{}, &jwtManagerMock{}, cfg)
	return svc, users, memory
}

func TestSignup_CreatesUserAndStarterMemory(t *testing.T) {
	t.Parallel()

	svc, users, memory := newTestService(t, config.AuthConfig{})

	res, err := svc.Signup(context.Background(), "Ann@Example.com", "hunter2hunter2", "")
	require.NoError(t, err)

	assert.NotEmpty(t, res.AccessToken)
	assert.Equal(t, "ann@example.com", res.User.Email, "email lowercased")
	assert.Equal(t, "UTC", res.User.Timezone)

	stored, err := users.GetByEmail(context.Background(), "ann@example.com")
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("hunter2hunter2")))

	require.Len(t, memory.inits, 1)
	assert.Equal(t, res.User.ID, memory.inits[0].UserID)
}

func TestSignup_DuplicateEmail(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestService(t, config.AuthConfig{})
	ctx := context.Background()

	_, err := svc.Signup(ctx, "ann@example.com", "hunter2hunter2", "")
	require.NoError(t, err)

	_, err = svc.Signup(ctx, "ann@example.com", "hunter2hunter2", "")
	require.ErrorIs(t, err, domain.ErrAlreadyExists)
}

func TestSignup_Validation(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestService(t, config.AuthConfig{})
	ctx := context.Background()

	_, err := svc.Signup(ctx, "not-an-email", "hunter2hunter2", "")
	require.ErrorIs(t, err, domain.ErrValidation)

	_, err = svc.Signup(ctx, "ann@example.com", "short", "")
	require.ErrorIs(t, err, domain.ErrValidation)
}

func TestLogin_Success(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestService(t, config.AuthConfig{})
	ctx := context.Background()

	signup, err := svc.Signup(ctx, "ann@example.com", "hunter2hunter2", "Europe/Berlin")
	require.NoError(t, err)

	res, err := svc.Login(ctx, "ANN@example.com", "hunter2hunter2")
	require.NoError(t, err)
	assert.Equal(t, signup.User.ID, res.User.ID)
	assert.NotEmpty(t, res.AccessToken)
}

func TestLogin_WrongPassword(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestService(t, config.AuthConfig{})
	ctx := context.Background()

	_, err := svc.Signup(ctx, "ann@example.com", "hunter2hunter2", "")
	require.NoError(t, err)

	_, err = svc.Login(ctx, "ann@example.com", "wrong-password")
	require.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestLogin_UnknownEmail(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestService(t, config.AuthConfig{})

	_, err := svc.Login(context.Background(), "ghost@example.com", "whatever-pass")
	require.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestDemoLogin_CreatesOnFirstUse(t *testing.T) {
	t.Parallel()

	cfg := config.AuthConfig{DemoEnabled: true, DemoEmail: "demo@pulsepal.app"}
	svc, _, memory := newTestService(t, cfg)
	ctx := context.Background()

	first, err := svc.DemoLogin(ctx)
	require.NoError(t, err)
	assert.Equal(t, "demo@pulsepal.app", first.User.Email)
	require.Len(t, memory.inits, 1)

	second, err := svc.DemoLogin(ctx)
	require.NoError(t, err)
	assert.Equal(t, first.User.ID, second.User.ID, "demo account reused, not recreated")
	assert.Len(t, memory.inits, 1)
}

func TestDemoLogin_Disabled(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestService(t, config.AuthConfig{DemoEnabled: false})

	_, err := svc.DemoLogin(context.Background())
	require.ErrorIs(t, err, domain.ErrUnauthorized)
}
