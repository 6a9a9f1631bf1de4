package postgres

import (
	"context"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/hongminglow/fruit-scanner-be/internal/models"
	"github.com/hongminglow/fruit-scanner-be/internal/storage"
)

// TestStoreIntegration exercises the store against a live Postgres database.
func TestStoreIntegration(t *testing.T) {
	if os.Getenv("RUN_PG_INTEGRATION") != "true" {
		t.Skip("set RUN_PG_INTEGRATION=true to run this integration test")
	}
	dbURL := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if !strings.HasPrefix(dbURL, "postgres") {
		t.Fatal("DATABASE_URL must point at Postgres")
	}

	ctx := context.Background()
	store, err := NewUserStore(ctx, dbURL)
	require.NoError(t, err)
	defer store.Close()

	email := fmt.Sprintf("pgtest_%d@example.com", time.Now().UnixNano())
	created, err := store.CreateUser(ctx, models.User{Name: "PG Test", Email: email, PasswordHash: "h"})
	require.NoError(t, err)
	require.Equal(t, email, created.Email)

	_, err = store.CreateUser(ctx, models.User{Name: "PG Test", Email: strings.ToUpper(email), PasswordHash: "h"})
	require.ErrorIs(t, err, storage.ErrAlreadyExists)

	found, err := store.FindByEmail(ctx, email)
	require.NoError(t, err)
	require.Equal(t, created.ID, found.ID)

	byID, err := store.FindByID(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, created.Name, byID.Name)
}
