package storage

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when the requested object does not exist.
var ErrNotFound = errors.New("object not found")

type ObjectInfo struct {
	Key          string
	Size         int64
	LastModified *time.Time
}

// Service reads small objects, such as key material, from remote object storage.
type Service interface {
	Stat(ctx context.Context, bucket, key string) (ObjectInfo, error)
	Fetch(ctx context.Context, bucket, key string) ([]byte, error)
}
