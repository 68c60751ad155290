package storage

import (
	"context"
	"errors"
	"fmt"
)

// Record names stored per session.
const (
	RecordCart         = "cart"
	RecordOrderHistory = "orderHistory"
)

var ErrKeyNotFound = errors.New("key not found")

// KeyValueStore holds serialized records. Get returns ErrKeyNotFound for absent keys;
// Delete of an absent key is not an error.
type KeyValueStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

func SessionKey(sessionID, record string) string {
	return fmt.Sprintf("session:%s:%s", sessionID, record)
}
