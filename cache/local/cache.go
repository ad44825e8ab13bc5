// Package local is an in-process cache used when no Redis address is
// configured. It covers the same operations as the Redis backend:
// string keys with TTLs and score-sorted member sets.
package local

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"
)

// ErrNotFound is returned when a key does not exist.
var ErrNotFound = errors.New("cache: key not found")

// Config holds LocalCache settings.
type Config struct {
	GCInterval time.Duration
}

type record struct {
	value    string
	deadline time.Time // zero means no expiry
}

func (r record) expired(now time.Time) bool {
	return !r.deadline.IsZero() && now.After(r.deadline)
}

type scoredMember struct {
	member string
	score  float64
}

// LocalCache is an in-process cache. A single RWMutex guards both
// stores; contention is negligible at this service's request rates.
type LocalCache struct {
	mu     sync.RWMutex
	kv     map[string]record
	sorted map[string][]scoredMember // each slice kept in descending score order

	gcInterval time.Duration
	stopGC     chan struct{}
}

// NewCache creates a LocalCache and starts its expiry sweeper.
func NewCache(cfg Config) (*LocalCache, error) {
	interval := cfg.GCInterval
	if interval <= 0 {
		interval = 30 * time.Second
	}
	c := &LocalCache{
		kv:         make(map[string]record),
		sorted:     make(map[string][]scoredMember),
		gcInterval: interval,
		stopGC:     make(chan struct{}),
	}
	go c.sweep()
	return c, nil
}

// Close stops the expiry sweeper.
func (c *LocalCache) Close() {
	close(c.stopGC)
}

func (c *LocalCache) sweep() {
	ticker := time.NewTicker(c.gcInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			now := time.Now()
			c.mu.Lock()
			for k, r := range c.kv {
				if r.expired(now) {
					delete(c.kv, k)
				}
			}
			c.mu.Unlock()
		case <-c.stopGC:
			return
		}
	}
}

func (c *LocalCache) Get(_ context.Context, key string) (string, error) {
	c.mu.RLock()
	r, ok := c.kv[key]
	c.mu.RUnlock()
	if !ok || r.expired(time.Now()) {
		return "", ErrNotFound
	}
	return r.value, nil
}

func (c *LocalCache) Set(_ context.Context, key, value string, ttl time.Duration) error {
	r := record{value: value}
	if ttl > 0 {
		r.deadline = time.Now().Add(ttl)
	}
	c.mu.Lock()
	c.kv[key] = r
	c.mu.Unlock()
	return nil
}

func (c *LocalCache) Del(_ context.Context, keys ...string) error {
	c.mu.Lock()
	for _, k := range keys {
		delete(c.kv, k)
		delete(c.sorted, k)
	}
	c.mu.Unlock()
	return nil
}

func (c *LocalCache) Exists(_ context.Context, key string) (bool, error) {
	c.mu.RLock()
	r, ok := c.kv[key]
	c.mu.RUnlock()
	return ok && !r.expired(time.Now()), nil
}

func (c *LocalCache) SetNX(_ context.Context, key, value string, ttl time.Duration) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if r, ok := c.kv[key]; ok && !r.expired(time.Now()) {
		return false, nil
	}
	r := record{value: value}
	if ttl > 0 {
		r.deadline = time.Now().Add(ttl)
	}
	c.kv[key] = r
	return true, nil
}

func (c *LocalCache) Expire(_ context.Context, key string, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	r, ok := c.kv[key]
	if !ok || r.expired(time.Now()) {
		delete(c.kv, key)
		return ErrNotFound
	}
	r.deadline = time.Now().Add(ttl)
	c.kv[key] = r
	return nil
}

func (c *LocalCache) ZAdd(_ context.Context, key string, score float64, member string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	members := c.sorted[key]
	found := false
	for i := range members {
		if members[i].member == member {
			members[i].score = score
			found = true
			break
		}
	}
	if !found {
		members = append(members, scoredMember{member: member, score: score})
	}
	sort.SliceStable(members, func(a, b int) bool { return members[a].score > members[b].score })
	c.sorted[key] = members
	return nil
}

func (c *LocalCache) ZRevRange(_ context.Context, key string, start, stop int64) ([]string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	members := c.sorted[key]
	n := int64(len(members))
	if start >= n {
		return nil, nil
	}
	if stop < 0 || stop >= n {
		stop = n - 1
	}
	out := make([]string, 0, stop-start+1)
	for i := start; i <= stop; i++ {
		out = append(out, members[i].member)
	}
	return out, nil
}

func (c *LocalCache) ZScore(_ context.Context, key, member string) (float64, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, m := range c.sorted[key] {
		if m.member == member {
			return m.score, nil
		}
	}
	return 0, ErrNotFound
}
