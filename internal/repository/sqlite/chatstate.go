package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dkarlsen/taskpilot/internal/security"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// ChatStateStore persists serialized per-user chat state in a local SQLite
// database. It serves single-node deployments where Redis is not available;
// the interface matches the Redis-backed store.
type ChatStateStore struct {
	db        *sql.DB
	encryptor *security.Encryptor
}

// NewChatStateStore opens (and initializes) the chat state database at path.
// encryptor may be nil.
func NewChatStateStore(path string, encryptor *security.Encryptor) (*ChatStateStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open chat state db: %w", err)
	}

	schema := `
		CREATE TABLE IF NOT EXISTS chat_states (
			user_id    TEXT PRIMARY KEY,
			data       BLOB NOT NULL,
			updated_at TEXT NOT NULL
		)
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize chat state db: %w", err)
	}

	return &ChatStateStore{db: db, encryptor: encryptor}, nil
}

// Load retrieves the serialized chat state for a user. Returns (nil, nil)
// when no state has been saved yet.
func (s *ChatStateStore) Load(ctx context.Context, userID uuid.UUID) ([]byte, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT data FROM chat_states WHERE user_id = ?`, userID.String(),
	).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load chat state: %w", err)
	}

	if s.encryptor != nil {
		if plaintext, decErr := s.encryptor.Decrypt(data); decErr == nil {
			return plaintext, nil
		}
		// Not decryptable: treat as legacy plaintext state.
	}

	return data, nil
}

// Save writes the serialized chat state for a user
func (s *ChatStateStore) Save(ctx context.Context, userID uuid.UUID, data []byte) error {
	if s.encryptor != nil {
		encrypted, err := s.encryptor.Encrypt(data)
		if err != nil {
			return fmt.Errorf("failed to encrypt chat state: %w", err)
		}
		data = encrypted
	}

	query := `
		INSERT INTO chat_states (user_id, data, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at
	`
	if _, err := s.db.ExecContext(ctx, query,
		userID.String(), data, time.Now().UTC().Format(time.RFC3339),
	); err != nil {
		return fmt.Errorf("failed to save chat state: %w", err)
	}
	return nil
}

// Delete removes the chat state for a user
func (s *ChatStateStore) Delete(ctx context.Context, userID uuid.UUID) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM chat_states WHERE user_id = ?`, userID.String())
	return err
}

// Close closes the underlying database
func (s *ChatStateStore) Close() error {
	return s.db.Close()
}
