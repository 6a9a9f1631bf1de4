package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/hongminglow/fruit-scanner-be/internal/models"
	"github.com/hongminglow/fruit-scanner-be/internal/storage"
)

const secret = "test-secret-0123456789"

type fakeUsers struct {
	users map[int64]models.User
	err   error
}

func (f *fakeUsers) FindByID(_ context.Context, id int64) (models.User, error) {
	if f.err != nil {
		return models.User{}, f.err
	}
	u, ok := f.users[id]
	if !ok {
		return models.User{}, storage.ErrNotFound
	}
	return u, nil
}

func newManagerAt(t *testing.T, now time.Time) *TokenManager {
	t.Helper()
	m := NewTokenManager(secret, "fruit-scanner", time.Hour)
	m.now = func() time.Time { return now }
	return m
}

func TestTokenManager_RoundTrip(t *testing.T) {
	m := NewTokenManager(secret, "fruit-scanner", time.Hour)

	token, err := m.Generate(models.User{ID: 42, Email: "a@b.co"})
	require.NoError(t, err)

	id, err := m.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)
}

func TestTokenManager_RejectsAfterExpiry(t *testing.T) {
	issuedAt := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	token, err := newManagerAt(t, issuedAt).Generate(models.User{ID: 1})
	require.NoError(t, err)

	_, err = newManagerAt(t, issuedAt.Add(59*time.Minute)).Verify(token)
	require.NoError(t, err)

	_, err = newManagerAt(t, issuedAt.Add(time.Hour+time.Second)).Verify(token)
	require.ErrorIs(t, err, ErrUnauthorized)
}

func TestTokenManager_RejectsForgeries(t *testing.T) {
	m := NewTokenManager(secret, "fruit-scanner", time.Hour)
	good, err := m.Generate(models.User{ID: 1})
	require.NoError(t, err)

	otherKey, err := NewTokenManager("another-secret-0123456789", "fruit-scanner", time.Hour).Generate(models.User{ID: 1})
	require.NoError(t, err)
	otherIssuer, err := NewTokenManager(secret, "someone-else", time.Hour).Generate(models.User{ID: 1})
	require.NoError(t, err)

	noExpiry, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Issuer: "fruit-scanner", Subject: "1",
	}).SignedString([]byte(secret))
	require.NoError(t, err)

	badSubject, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Issuer: "fruit-scanner", Subject: "alice", ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte(secret))
	require.NoError(t, err)

	for name, token := range map[string]string{
		"empty":        "",
		"garbage":      "not-a-jwt",
		"truncated":    good[:len(good)-4],
		"other key":    otherKey,
		"other issuer": otherIssuer,
		"no expiry":    noExpiry,
		"bad subject":  badSubject,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := m.Verify(token)
			require.ErrorIs(t, err, ErrUnauthorized)
		})
	}
}

func TestGate_Authenticate(t *testing.T) {
	m := NewTokenManager(secret, "fruit-scanner", time.Hour)
	users := &fakeUsers{users: map[int64]models.User{7: {ID: 7, Name: "Ada", Email: "ada@example.com"}}}
	gate := NewGate(m, users)
	ctx := context.Background()

	token, err := m.Generate(models.User{ID: 7})
	require.NoError(t, err)

	got, err := gate.Authenticate(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", got.Email)

	orphan, err := m.Generate(models.User{ID: 8})
	require.NoError(t, err)
	_, err = gate.Authenticate(ctx, orphan)
	require.ErrorIs(t, err, ErrUnauthorized)

	_, err = gate.Authenticate(ctx, "junk")
	require.ErrorIs(t, err, ErrUnauthorized)
}

func TestGate_StoreFailureIsNotAnAuthError(t *testing.T) {
	m := NewTokenManager(secret, "fruit-scanner", time.Hour)
	gate := NewGate(m, &fakeUsers{err: errors.New("db down")})

	token, err := m.Generate(models.User{ID: 7})
	require.NoError(t, err)

	_, err = gate.Authenticate(context.Background(), token)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrUnauthorized)
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		want   string
		ok     bool
	}{
		{"Bearer abc.def", "abc.def", true},
		{"bearer   abc", "abc", true},
		{"Basic abc", "", false},
		{"Bearer", "", false},
		{"Bearer    ", "", false},
		{"", "", false},
	}
	for _, tc := range tests {
		got, ok := BearerToken(tc.header)
		assert.Equal(t, tc.ok, ok, tc.header)
		assert.Equal(t, tc.want, got, tc.header)
	}
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("hunter22")
	require.NoError(t, err)
	assert.NotEqual(t, "hunter22", hash)
	assert.True(t, CheckPassword(hash, "hunter22"))
	assert.False(t, CheckPassword(hash, "hunter23"))
}

func TestDummyHash(t *testing.T) {
	hash := DummyHash()
	assert.Equal(t, hash, DummyHash())

	cost, err := bcrypt.Cost([]byte(hash))
	require.NoError(t, err)
	assert.Equal(t, bcrypt.DefaultCost, cost)
	assert.False(t, CheckPassword(hash, ""))
	assert.False(t, CheckPassword(hash, "hunter22"))
}
