// Package registry holds the bounded map pool offered to the veto.
package registry

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/Martig3/valorant-matchbot/internal/storage"
)

var ErrPoolFull = errors.New("map pool is full")
var ErrDuplicate = errors.New("map already in pool")
var ErrNotFound = errors.New("map not in pool")
var ErrInvalidName = errors.New("invalid map name")

const storageKey = "maps"

// DefaultLimit is the historical ceiling on the pool size.
const DefaultLimit = 26

type Registry struct {
	mu    sync.Mutex
	maps  []string
	limit int

	// saveMu orders snapshot writes the same way mutations were applied.
	saveMu sync.Mutex
	blob   storage.Blob
	log    *zap.Logger
}

// Load reads the persisted pool. A missing blob starts an empty pool.
func Load(ctx context.Context, blob storage.Blob, limit int, log *zap.Logger) (*Registry, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	var stored []string
	if _, err := storage.LoadJSON(ctx, blob, storageKey, &stored); err != nil {
		return nil, err
	}
	maps := sanitize(stored, limit, log)
	return &Registry{maps: maps, limit: limit, blob: blob, log: log}, nil
}

// sanitize drops blank and repeated names, keeping first occurrences in
// order, and truncates the pool to limit.
func sanitize(stored []string, limit int, log *zap.Logger) []string {
	maps := make([]string, 0, len(stored))
	for _, name := range stored {
		name = strings.TrimSpace(name)
		if name == "" || slices.Contains(maps, name) {
			log.Warn("dropping stored map", zap.String("map", name))
			continue
		}
		maps = append(maps, name)
	}
	if len(maps) > limit {
		log.Warn("stored map pool exceeds the limit, truncating",
			zap.Int("stored", len(maps)), zap.Int("limit", limit), zap.Strings("dropped", maps[limit:]))
		maps = maps[:limit]
	}
	return maps
}

func (r *Registry) Limit() int { return r.limit }

// Maps returns a snapshot of the pool in insertion order.
func (r *Registry) Maps() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.maps)
}

// Add appends name and persists the pool. The match on existing names is
// exact and case-sensitive.
func (r *Registry) Add(ctx context.Context, name string) ([]string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrInvalidName
	}

	r.saveMu.Lock()
	defer r.saveMu.Unlock()

	r.mu.Lock()
	if len(r.maps) >= r.limit {
		r.mu.Unlock()
		return nil, fmt.Errorf("%w: the pool holds at most %d maps", ErrPoolFull, r.limit)
	}
	if slices.Contains(r.maps, name) {
		r.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrDuplicate, name)
	}
	r.maps = append(slices.Clone(r.maps), name)
	snapshot := slices.Clone(r.maps)
	r.mu.Unlock()

	return snapshot, r.persist(ctx, snapshot)
}

func (r *Registry) Remove(ctx context.Context, name string) ([]string, error) {
	name = strings.TrimSpace(name)

	r.saveMu.Lock()
	defer r.saveMu.Unlock()

	r.mu.Lock()
	i := slices.Index(r.maps, name)
	if i < 0 {
		r.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	r.maps = slices.Delete(slices.Clone(r.maps), i, i+1)
	snapshot := slices.Clone(r.maps)
	r.mu.Unlock()

	return snapshot, r.persist(ctx, snapshot)
}

func (r *Registry) persist(ctx context.Context, snapshot []string) error {
	if err := storage.SaveJSON(ctx, r.blob, storageKey, snapshot); err != nil {
		r.log.Error("persist map pool", zap.Int("size", len(snapshot)), zap.Error(err))
		return err
	}
	return nil
}
