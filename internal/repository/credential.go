package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/langchou/teslaowner/internal/credentials"
)

// CredentialRepository 凭据数据仓库，实现 credentials.Store
type CredentialRepository struct {
	db      *DB
	timeout time.Duration
}

// NewCredentialRepository 创建凭据仓库
func NewCredentialRepository(db *DB, timeout time.Duration) *CredentialRepository {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &CredentialRepository{db: db, timeout: timeout}
}

// Load 读取凭据
func (r *CredentialRepository) Load(ctx context.Context, key string) ([]byte, error) {
	var data []byte
	err := r.db.Pool.QueryRow(ctx, `SELECT data FROM credentials WHERE key = $1`, key).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, credentials.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get credential %s: %w", key, err)
	}
	return data, nil
}

// Save 写入凭据
func (r *CredentialRepository) Save(ctx context.Context, key string, data []byte) error {
	if data == nil {
		data = []byte{}
	}
	query := `
		INSERT INTO credentials (key, data, created_at, updated_at)
		VALUES ($1, $2, NOW(), NOW())
		ON CONFLICT (key) DO UPDATE SET data = EXCLUDED.data, updated_at = NOW()
	`
	if _, err := r.db.Pool.Exec(ctx, query, key, data); err != nil {
		return fmt.Errorf("save credential %s: %w", key, err)
	}
	return nil
}

// Get 实现 credentials.Store
func (r *CredentialRepository) Get(key string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()
	return r.Load(ctx, key)
}

// Set 实现 credentials.Store
func (r *CredentialRepository) Set(key string, data []byte) error {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()
	return r.Save(ctx, key, data)
}
