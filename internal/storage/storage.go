// Package storage is the durable key/blob store behind the map pool, the
// match ledger and the Riot ID cache.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/gosimple/slug"
)

// ErrNotExist is returned by Read when nothing has been stored under a key yet.
var ErrNotExist = errors.New("blob does not exist")

// ErrPersistence marks a failed write of a mutation that has already been
// applied in memory.
var ErrPersistence = errors.New("persistence failure")

// Blob stores opaque values under logical names such as "maps" or "matches".
type Blob interface {
	Read(ctx context.Context, key string) ([]byte, error)
	Write(ctx context.Context, key string, data []byte) error
}

// Key normalises a logical name into the form every backend stores it under.
func Key(name string) string {
	return slug.Make(name)
}

// LoadJSON decodes the value stored under key into v. A missing key leaves v
// untouched and reports found=false.
func LoadJSON(ctx context.Context, b Blob, key string, v any) (bool, error) {
	data, err := b.Read(ctx, Key(key))
	if errors.Is(err, ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read %s: %w", key, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

// SaveJSON encodes v and stores it under key. Failures wrap ErrPersistence.
func SaveJSON(ctx context.Context, b Blob, key string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: encode %s: %v", ErrPersistence, key, err)
	}
	if err := b.Write(ctx, Key(key), data); err != nil {
		return fmt.Errorf("%w: write %s: %v", ErrPersistence, key, err)
	}
	return nil
}
