package redis

import (
	"context"
	"fmt"

	"github.com/dkarlsen/taskpilot/internal/security"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const chatStatePrefix = "chatstate:"

// ChatStateStore persists serialized per-user chat state under a single
// namespaced key. With an encryptor configured, state is encrypted at rest;
// loads fall back to plaintext so state written before encryption was
// enabled still deserializes.
type ChatStateStore struct {
	client    *Client
	encryptor *security.Encryptor
}

// NewChatStateStore creates a new chat state store. encryptor may be nil.
func NewChatStateStore(client *Client, encryptor *security.Encryptor) *ChatStateStore {
	return &ChatStateStore{client: client, encryptor: encryptor}
}

// Load retrieves the serialized chat state for a user. Returns (nil, nil)
// when no state has been saved yet.
func (s *ChatStateStore) Load(ctx context.Context, userID uuid.UUID) ([]byte, error) {
	key := chatStatePrefix + userID.String()

	data, err := s.client.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
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
	key := chatStatePrefix + userID.String()

	if s.encryptor != nil {
		encrypted, err := s.encryptor.Encrypt(data)
		if err != nil {
			return fmt.Errorf("failed to encrypt chat state: %w", err)
		}
		data = encrypted
	}

	if err := s.client.rdb.Set(ctx, key, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to save chat state: %w", err)
	}
	return nil
}

// Delete removes the chat state for a user
func (s *ChatStateStore) Delete(ctx context.Context, userID uuid.UUID) error {
	return s.client.rdb.Del(ctx, chatStatePrefix+userID.String()).Err()
}
