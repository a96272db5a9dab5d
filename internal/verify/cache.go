// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 OnlineModeVerify Contributors

package verify

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jellydator/ttlcache/v3"
)

// DefaultExpiry is how long an entry survives without being read.
const DefaultExpiry = 7 * 24 * time.Hour

// Cache remembers whether an account is premium. It is safe for concurrent use.
//
// Expiry counts from the last access, not the last write: every hit pushes
// the entry's deadline out by the full expiry span. Expired entries are never
// returned; Start runs a background sweep that also frees their memory.
type Cache struct {
	items *ttlcache.Cache[uuid.UUID, bool]
	sweep time.Duration

	mu   sync.Mutex
	stop chan struct{}
	wg   sync.WaitGroup
}

// maxSweepInterval bounds how long an expired entry may hold memory.
const maxSweepInterval = time.Minute

// NewCache creates an empty cache. A non-positive expiry selects DefaultExpiry.
func NewCache(expiry time.Duration) *Cache {
	if expiry <= 0 {
		expiry = DefaultExpiry
	}
	return &Cache{
		items: ttlcache.New[uuid.UUID, bool](
			ttlcache.WithTTL[uuid.UUID, bool](expiry),
		),
		sweep: min(expiry, maxSweepInterval),
	}
}

// Get returns the cached outcome for id and refreshes its expiry.
func (c *Cache) Get(id uuid.UUID) (premium, ok bool) {
	item := c.items.Get(id)
	if item == nil {
		return false, false
	}
	return item.Value(), true
}

// Set stores the outcome for id.
func (c *Cache) Set(id uuid.UUID, premium bool) {
	c.items.Set(id, premium, ttlcache.DefaultTTL)
}

// Delete drops the outcome for id, if any.
func (c *Cache) Delete(id uuid.UUID) {
	c.items.Delete(id)
}

// Len returns the number of stored entries.
func (c *Cache) Len() int {
	return c.items.Len()
}

// Start launches the background sweep of expired entries.
// Calling Start on a running cache does nothing.
func (c *Cache) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stop != nil {
		return
	}
	stop := make(chan struct{})
	c.stop = stop
	c.wg.Add(1)
	go c.sweepLoop(stop)
}

// Stop ends the background sweep and waits for it to exit. It is safe to
// call at any time, including right after Start. Stored entries are kept.
func (c *Cache) Stop() {
	c.mu.Lock()
	stop := c.stop
	c.stop = nil
	c.mu.Unlock()
	if stop == nil {
		return
	}
	close(stop)
	c.wg.Wait()
}

func (c *Cache) sweepLoop(stop <-chan struct{}) {
	defer c.wg.Done()
	ticker := time.NewTicker(c.sweep)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			c.items.DeleteExpired()
		}
	}
}
