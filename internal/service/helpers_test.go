package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/Payphone-Digital/accounts/config"
	"github.com/Payphone-Digital/accounts/internal/repository"
	"github.com/Payphone-Digital/accounts/pkg/clock"
	"github.com/Payphone-Digital/accounts/pkg/database"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var testNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func testAuthConfig() config.AuthConfig {
	return config.AuthConfig{
		TokenName:          "auth_token",
		DefaultExpiryHours: 2,
		RememberExpiryDays: 30,
	}
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Open(&config.Config{
		App:      config.AppConfig{Environment: "test"},
		Database: config.DatabaseConfig{Driver: database.DriverSQLite, SQLitePath: ":memory:"},
	})
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))
	t.Cleanup(func() { _ = database.Close(db) })
	return db
}

type fixture struct {
	db     *gorm.DB
	users  *repository.UserRepository
	tokens *repository.TokenRepository
	cache  *fakeCache
	clock  *clock.Fixed
	auth   *AuthService
	user   *UserService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := newTestDB(t)
	f := &fixture{
		db:     db,
		users:  repository.NewUserRepository(db),
		tokens: repository.NewTokenRepository(db),
		cache:  newFakeCache(),
		clock:  clock.NewFixed(testNow),
	}
	tokenCache := NewTokenCache(f.cache, time.Minute)
	f.auth = NewAuthService(f.users, f.tokens, tokenCache, f.clock, testAuthConfig())
	f.user = NewUserService(f.users, tokenCache)
	return f
}

// fakeCache is an in-memory stand-in for the Redis client.
type fakeCache struct {
	mu      sync.Mutex
	data    map[string][]byte
	deleted []string
	getErr  error
	delErr  error
	gets    int
	// beforeSet runs once, outside the lock, ahead of the next Set.
	beforeSet func()
}

func newFakeCache() *fakeCache {
	return &fakeCache{data: make(map[string][]byte)}
}

func (f *fakeCache) IsEnabled() bool                { return true }
func (f *fakeCache) Ping(ctx context.Context) error { return nil }
func (f *fakeCache) Close() error                   { return nil }

func (f *fakeCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gets++
	if f.getErr != nil {
		return nil, false, f.getErr
	}
	v, ok := f.data[key]
	return v, ok, nil
}

func (f *fakeCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	f.mu.Lock()
	hook := f.beforeSet
	f.beforeSet = nil
	f.mu.Unlock()
	if hook != nil {
		hook()
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.data[key] = value
	return nil
}

func (f *fakeCache) Delete(ctx context.Context, keys ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.delErr != nil {
		return f.delErr
	}
	for _, k := range keys {
		delete(f.data, k)
		f.deleted = append(f.deleted, k)
	}
	return nil
}

func (f *fakeCache) has(key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.data[key]
	return ok
}
