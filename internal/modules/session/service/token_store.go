package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"challenge_desk/pkg/db"

	"github.com/bytedance/sonic"
	"github.com/jackc/pgx/v5"
)

// TokenStore persists one bearer token across process restarts.
// Load returns "" when nothing is stored.
type TokenStore interface {
	Load(ctx context.Context) (string, error)
	Save(ctx context.Context, token string) error
	Clear(ctx context.Context) error
}

// FileTokenStore keeps the token in a small JSON document under a fixed key.
// Other keys in the document are preserved.
type FileTokenStore struct {
	path string
	key  string

	mu sync.Mutex
}

func NewFileTokenStore(path, key string) *FileTokenStore {
	return &FileTokenStore{path: path, key: key}
}

func (f *FileTokenStore) Load(ctx context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	doc, err := f.readLocked()
	if err != nil {
		return "", err
	}
	return doc[f.key], nil
}

func (f *FileTokenStore) Save(ctx context.Context, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	doc, err := f.readLocked()
	if err != nil {
		return err
	}
	doc[f.key] = token
	return f.writeLocked(doc)
}

func (f *FileTokenStore) Clear(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	doc, err := f.readLocked()
	if err != nil {
		return err
	}
	if _, ok := doc[f.key]; !ok {
		return nil
	}
	delete(doc, f.key)
	return f.writeLocked(doc)
}

func (f *FileTokenStore) readLocked() (map[string]string, error) {
	b, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("read %s: %w", f.path, err)
	}
	doc := map[string]string{}
	if len(b) == 0 {
		return doc, nil
	}
	if err := sonic.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("decode %s: %w", f.path, err)
	}
	return doc, nil
}

func (f *FileTokenStore) writeLocked(doc map[string]string) error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return err
	}
	b, err := sonic.ConfigStd.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, f.path)
}

const (
	kvSchema = `CREATE TABLE IF NOT EXISTS kv_store (
	key        TEXT PRIMARY KEY,
	value      TEXT NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`
	kvSelect = `SELECT value FROM kv_store WHERE key = $1`
	kvUpsert = `INSERT INTO kv_store (key, value, updated_at) VALUES ($1, $2, now())
ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`
	kvDelete = `DELETE FROM kv_store WHERE key = $1`
)

// PgTokenStore keeps the token in the kv_store table.
type PgTokenStore struct {
	db  db.TxManager
	key string
}

func NewPgTokenStore(tx db.TxManager, key string) *PgTokenStore {
	return &PgTokenStore{db: tx, key: key}
}

// EnsureSchema creates kv_store if it does not exist.
func (p *PgTokenStore) EnsureSchema(ctx context.Context) error {
	if _, err := p.db.Conn().Exec(ctx, kvSchema); err != nil {
		return fmt.Errorf("PgTokenStore.EnsureSchema: %w", err)
	}
	return nil
}

func (p *PgTokenStore) Load(ctx context.Context) (token string, err error) {
	err = p.db.Conn().QueryRow(ctx, kvSelect, p.key).Scan(&token)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("PgTokenStore.Load: %w", err)
	}
	return token, nil
}

func (p *PgTokenStore) Save(ctx context.Context, token string) error {
	err := p.db.RunMaster(ctx, func(ctxTx context.Context, tx db.Transaction) error {
		_, err := tx.Exec(ctxTx, kvUpsert, p.key, token)
		return err
	})
	if err != nil {
		return fmt.Errorf("PgTokenStore.Save: %w", err)
	}
	return nil
}

func (p *PgTokenStore) Clear(ctx context.Context) error {
	err := p.db.RunMaster(ctx, func(ctxTx context.Context, tx db.Transaction) error {
		_, err := tx.Exec(ctxTx, kvDelete, p.key)
		return err
	})
	if err != nil {
		return fmt.Errorf("PgTokenStore.Clear: %w", err)
	}
	return nil
}
