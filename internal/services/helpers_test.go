package services

import (
	"context"
	"fmt"
	"mime/multipart"
	"sync"
	"testing"
	"time"

	"ecotrack/internal/cache"
	"ecotrack/internal/models"
	"ecotrack/internal/repositories"
	"ecotrack/internal/utils"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type testEnv struct {
	t     *testing.T
	repos *repositories.Collection
	cache cache.Cache
	deps  *Dependencies
	sc    *ServiceCollection
}

func newTestEnv(t *testing.T, opts ...func(*Dependencies)) *testEnv {
	t.Helper()

	c := cache.NewMemoryCache(cache.DefaultConfig(), zap.NewNop())
	t.Cleanup(func() { c.Close() })

	deps := &Dependencies{
		Repositories: repositories.NewMemoryCollection(zap.NewNop()),
		Cache:        c,
		Sets:         cache.NewMemorySetStore(),
		Tokens:       NewTokenIssuer("test-secret", time.Hour),
		Logger:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(deps)
	}

	sc, err := NewServiceCollection(deps)
	require.NoError(t, err)
	return &testEnv{t: t, repos: deps.Repositories, cache: c, deps: deps, sc: sc}
}

// user registers an account and returns its id
func (e *testEnv) user(name string) string {
	e.t.Helper()
	resp, err := e.sc.AuthService.Register(context.Background(), &RegisterRequest{
		Email:    fmt.Sprintf("%s@example.com", name),
		Password: "password123",
		Name:     name,
	})
	require.NoError(e.t, err)
	return resp.User.UserID
}

func (e *testEnv) withRole(name string, role models.Role) string {
	e.t.Helper()
	id := e.user(name)
	require.NoError(e.t, e.repos.Role.SetRole(context.Background(), id, role))
	return id
}

func (e *testEnv) grant(userID string, points int) {
	e.t.Helper()
	_, err := e.repos.Profile.AddPoints(context.Background(), userID, points)
	require.NoError(e.t, err)
}

func (e *testEnv) points(userID string) int {
	e.t.Helper()
	p, err := e.repos.Profile.GetByUserID(context.Background(), userID)
	require.NoError(e.t, err)
	require.NotNil(e.t, p)
	return p.Points
}

func requireCode(t *testing.T, err error, status int, code string) {
	t.Helper()
	require.Error(t, err)
	serviceErr := GetServiceError(err)
	require.Equal(t, status, serviceErr.GetStatusCode(), serviceErr.Message)
	if code != "" {
		require.Equal(t, code, serviceErr.Code)
	}
}

func ptr[T any](v T) *T { return &v }

// fakeImageStore records uploads in memory
type fakeImageStore struct {
	mu      sync.Mutex
	uploads []string
	err     error
}

func (f *fakeImageStore) UploadFile(ctx context.Context, file *multipart.FileHeader, folder string) (*utils.UploadResult, error) {
	return f.UploadBytes(ctx, nil, file.Filename, folder)
}

func (f *fakeImageStore) UploadBytes(_ context.Context, _ []byte, name, folder string) (*utils.UploadResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.uploads = append(f.uploads, folder)
	id := fmt.Sprintf("ecotrack/%s/%s-%d", folder, name, len(f.uploads))
	return &utils.UploadResult{URL: "https://img.example.com/" + id, PublicID: id}, nil
}

func (f *fakeImageStore) DeleteFile(context.Context, string) error { return nil }
