// Package riotid keeps the in-game account name each chat user registered.
package riotid

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"regexp"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/Martig3/valorant-matchbot/internal/engine"
	"github.com/Martig3/valorant-matchbot/internal/storage"
)

var ErrInvalidFormat = errors.New("invalid Riot ID")

const storageKey = "riot-ids"

var pattern = regexp.MustCompile(`\w+#\w+`)

// Valid reports whether id looks like name#tag.
func Valid(id string) bool { return pattern.MatchString(id) }

type Cache struct {
	mu  sync.RWMutex
	ids map[engine.Actor]string

	saveMu sync.Mutex
	blob   storage.Blob
	log    *zap.Logger
}

func Load(ctx context.Context, blob storage.Blob, log *zap.Logger) (*Cache, error) {
	ids := map[engine.Actor]string{}
	if _, err := storage.LoadJSON(ctx, blob, storageKey, &ids); err != nil {
		return nil, err
	}
	if ids == nil {
		ids = map[engine.Actor]string{}
	}
	return &Cache{ids: ids, blob: blob, log: log}, nil
}

func (c *Cache) Get(actor engine.Actor) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	id, ok := c.ids[actor]
	return id, ok
}

// Set replaces actor's Riot ID. The in-memory value stands even when the
// write fails.
func (c *Cache) Set(ctx context.Context, actor engine.Actor, id string) error {
	id = strings.TrimSpace(id)
	if !Valid(id) {
		return fmt.Errorf("%w: expected name#tag, got %q", ErrInvalidFormat, id)
	}

	c.saveMu.Lock()
	defer c.saveMu.Unlock()

	c.mu.Lock()
	c.ids[actor] = id
	snapshot := maps.Clone(c.ids)
	c.mu.Unlock()

	if err := storage.SaveJSON(ctx, c.blob, storageKey, snapshot); err != nil {
		c.log.Error("persist riot ids", zap.String("actor", string(actor)), zap.Error(err))
		return err
	}
	return nil
}

// Display renders actor with their Riot ID when one is known.
func (c *Cache) Display(actor engine.Actor, mention func(engine.Actor) string) string {
	if id, ok := c.Get(actor); ok {
		return fmt.Sprintf("%s (`%s`)", mention(actor), id)
	}
	return mention(actor)
}
