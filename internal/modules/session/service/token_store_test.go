package service

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"challenge_desk/pkg/db"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileTokenStore(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "session.json")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o700))
	require.NoError(t, os.WriteFile(path, []byte(`{"theme":"dark"}`), 0o600))

	fs := NewFileTokenStore(path, "token")

	tok, err := fs.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, tok)

	require.NoError(t, fs.Save(ctx, "abc"))
	tok, err = NewFileTokenStore(path, "token").Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "abc", tok)

	require.NoError(t, fs.Clear(ctx))
	tok, err = fs.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, tok)

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), "dark")
}

func TestFileTokenStoreMissingFile(t *testing.T) {
	fs := NewFileTokenStore(filepath.Join(t.TempDir(), "absent.json"), "token")
	tok, err := fs.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, tok)
	require.NoError(t, fs.Clear(context.Background()))
}

func TestFileTokenStoreCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, []byte(`{not json`), 0o600))
	_, err := NewFileTokenStore(path, "token").Load(context.Background())
	assert.Error(t, err)
}

// Runs against a real database when DESK_TEST_POSTGRES_DSN is set.
func TestPgTokenStore(t *testing.T) {
	dsn := os.Getenv("DESK_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("DESK_TEST_POSTGRES_DSN not set")
	}
	ctx := context.Background()

	pool, err := db.NewPool(ctx, db.PoolConfig{DSN: dsn})
	require.NoError(t, err)
	tx := db.NewPgTxManager(pool)
	t.Cleanup(tx.Close)

	ps := NewPgTokenStore(tx, "test-token")
	require.NoError(t, ps.EnsureSchema(ctx))
	require.NoError(t, ps.Clear(ctx))

	tok, err := ps.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, tok)

	require.NoError(t, ps.Save(ctx, "one"))
	require.NoError(t, ps.Save(ctx, "two"))
	tok, err = ps.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "two", tok)

	require.NoError(t, ps.Clear(ctx))
	tok, err = ps.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, tok)
}
