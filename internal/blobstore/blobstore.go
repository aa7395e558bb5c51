// Package blobstore abstracts ciphertext and key-material storage behind a
// flat key-value interface with filesystem, in-memory and S3 backends.
package blobstore

import "context"

// Store is a flat blob store. Keys use forward slashes as separators
// regardless of backend. Get and Delete return common.ErrNotFound for a
// missing key.
type Store interface {
	Put(ctx context.Context, key string, data []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
	List(ctx context.Context, prefix string) ([]string, error)
}
