package core

import "context"

// FileStore is a durable byte store addressed by key.
// Reading a missing key returns an error matching fs.ErrNotExist.
type FileStore interface {
	Write(ctx context.Context, key string, data []byte) error
	Read(ctx context.Context, key string) ([]byte, error)
	Exists(ctx context.Context, key string) (bool, error)
	Delete(ctx context.Context, key string) error
}
