// Package kv defines the string-blob persistence port used by the desk for
// everything that must survive a reload: tokens, notification lists, session
// tracking sets, and the toast-shown record.
package kv

import "context"

// Store is the persistence port. Values are opaque string blobs (JSON,
// serialized by the caller). Get returns ok=false for a missing key; a store
// never interprets the blob.
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Del(ctx context.Context, keys ...string) error
}
