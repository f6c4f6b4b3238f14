// Copyright 2025 Tom Barlow
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package gateway

import (
	"container/list"
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	gwerrors "github.com/ciscops/cml-mcp-gateway/pkg/errors"
)

// poolKey identifies one pooled Client by its normalized upstream URL and the
// TLS verification setting the caller requested for it. Two requests for the
// same URL with different tls_verification flags get distinct clients,
// because they carry distinct certificate trust policies.
type poolKey struct {
	url             string
	tlsVerification bool
}

type pooledEntry struct {
	key            poolKey
	client         *Client
	lastUsed       time.Time
	activeRequests int
}

// Pool is a thread-safe, LRU-ordered, TTL-evicting pool of upstream Clients,
// keyed by (normalized_url, tls_verification). It enforces a per-key
// concurrent lease cap and a total pool size bound.
//
// Pool satisfies the same Lease/Release contract as the degenerate stdio
// pool in pool_stdio.go, so the ingress middleware can use either
// interchangeably depending on transport mode.
type Pool struct {
	maxSize       int
	ttl           time.Duration
	maxPerKey     int
	policy        Policy
	mode          TransportMode
	logger        *slog.Logger

	mu      sync.Mutex
	order   *list.List // front = least recently used, back = most recently used
	entries map[poolKey]*list.Element
}

// PoolConfig configures a Pool.
type PoolConfig struct {
	MaxSize   int
	TTL       time.Duration
	MaxPerKey int
	Policy    Policy
}

// NewPool constructs an empty Pool.
func NewPool(cfg PoolConfig, logger *slog.Logger) *Pool {
	p := &Pool{
		maxSize:   cfg.MaxSize,
		ttl:       cfg.TTL,
		maxPerKey: cfg.MaxPerKey,
		policy:    cfg.Policy,
		mode:      TransportHTTP,
		logger:    logger,
		order:     list.New(),
		entries:   make(map[poolKey]*list.Element),
	}
	logger.Info("client pool initialized",
		"max_size", cfg.MaxSize, "ttl_seconds", int(cfg.TTL.Seconds()), "max_per_key", cfg.MaxPerKey)
	return p
}

// Lease validates url against the pool's policy, then returns a Client bound
// to (normalized_url, tlsVerification) with username/password rebound to the
// caller's credentials. A reused entry always has its token and admin cache
// cleared by Rebind before it is handed back, so a previous caller's session
// never leaks to a new one.
//
// The caller MUST call Release with the same url and tlsVerification exactly
// once, in a defer, regardless of how the leased client was subsequently
// used.
func (p *Pool) Lease(ctx context.Context, url, username, password string, tlsVerification bool) (*Client, error) {
	normalized, err := Validate(url, p.policy)
	if err != nil {
		return nil, err
	}
	key := poolKey{url: normalized, tlsVerification: tlsVerification}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.evictExpiredLocked()

	if elem, ok := p.entries[key]; ok {
		entry := elem.Value.(*pooledEntry)

		if entry.activeRequests >= p.maxPerKey {
			p.logger.Warn("per-key lease limit reached", "upstream", normalized, "max_per_key", p.maxPerKey)
			return nil, &gwerrors.PolicyError{URL: url, Reason: fmt.Sprintf("too many concurrent requests (max %d)", p.maxPerKey), Code: CodePerKeyLimit}
		}

		p.order.MoveToBack(elem)
		entry.client.Rebind(username, password)
		entry.lastUsed = time.Now()
		entry.activeRequests++
		p.logger.Debug("reusing pooled client", "upstream", normalized, "active_requests", entry.activeRequests)
		return entry.client, nil
	}

	if len(p.entries) >= p.maxSize {
		p.evictLRULocked()
	}

	client, err := NewClient(normalized, username, password, tlsVerification, p.mode, p.logger)
	if err != nil {
		return nil, err
	}
	entry := &pooledEntry{key: key, client: client, lastUsed: time.Now(), activeRequests: 1}
	elem := p.order.PushBack(entry)
	p.entries[key] = elem

	p.logger.Info("created new pooled client", "upstream", normalized)
	return client, nil
}

// Release decrements the active-lease count for (url, tlsVerification).
// Calling Release for a key not currently in the pool (e.g. it was evicted
// while leased) is a no-op.
func (p *Pool) Release(url string, tlsVerification bool) {
	normalized, err := Normalize(url)
	if err != nil {
		return
	}
	key := poolKey{url: normalized, tlsVerification: tlsVerification}

	p.mu.Lock()
	defer p.mu.Unlock()

	elem, ok := p.entries[key]
	if !ok {
		return
	}
	entry := elem.Value.(*pooledEntry)
	if entry.activeRequests > 0 {
		entry.activeRequests--
	}
	p.logger.Debug("released pooled client", "upstream", normalized, "active_requests", entry.activeRequests)
}

// evictExpiredLocked evicts every idle (zero active-lease) entry whose
// last-used time exceeds the pool's TTL. Callers must hold p.mu.
func (p *Pool) evictExpiredLocked() {
	now := time.Now()
	var next *list.Element
	for elem := p.order.Front(); elem != nil; elem = next {
		next = elem.Next()
		entry := elem.Value.(*pooledEntry)
		if entry.activeRequests == 0 && now.Sub(entry.lastUsed) > p.ttl {
			p.removeLocked(elem)
			p.logger.Info("evicted expired client", "upstream", entry.key.url)
		}
	}
}

// evictLRULocked evicts the least-recently-used idle entry to make room for
// a new one. If every entry currently has active leases, it force-evicts the
// single oldest entry anyway rather than let the pool grow unbounded.
// Callers must hold p.mu.
func (p *Pool) evictLRULocked() {
	for elem := p.order.Front(); elem != nil; elem = elem.Next() {
		entry := elem.Value.(*pooledEntry)
		if entry.activeRequests == 0 {
			p.removeLocked(elem)
			p.logger.Info("evicted lru client", "upstream", entry.key.url)
			return
		}
	}

	if front := p.order.Front(); front != nil {
		entry := front.Value.(*pooledEntry)
		p.removeLocked(front)
		p.logger.Warn("force-evicted active client under pressure", "upstream", entry.key.url, "active_requests", entry.activeRequests)
	}
}

func (p *Pool) removeLocked(elem *list.Element) {
	entry := elem.Value.(*pooledEntry)
	entry.client.Close()
	delete(p.entries, entry.key)
	p.order.Remove(elem)
}

// CloseAll closes every pooled client and empties the pool. Call during
// shutdown.
func (p *Pool) CloseAll() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for elem := p.order.Front(); elem != nil; elem = elem.Next() {
		elem.Value.(*pooledEntry).client.Close()
	}
	p.order.Init()
	p.entries = make(map[poolKey]*list.Element)
	p.logger.Info("closed all pooled clients")
}

// PoolStats summarizes pool occupancy for monitoring.
type PoolStats struct {
	TotalClients int
	MaxSize      int
	Clients      []ClientStats
}

// ClientStats summarizes one pooled entry.
type ClientStats struct {
	URL             string
	TLSVerification bool
	ActiveRequests  int
	IdleSeconds     int
}

// Stats returns a point-in-time snapshot of pool occupancy.
func (p *Pool) Stats() PoolStats {
	p.mu.Lock()
	defer p.mu.Unlock()

	stats := PoolStats{TotalClients: len(p.entries), MaxSize: p.maxSize}
	now := time.Now()
	for elem := p.order.Front(); elem != nil; elem = elem.Next() {
		entry := elem.Value.(*pooledEntry)
		stats.Clients = append(stats.Clients, ClientStats{
			URL:             entry.key.url,
			TLSVerification: entry.key.tlsVerification,
			ActiveRequests:  entry.activeRequests,
			IdleSeconds:     int(now.Sub(entry.lastUsed).Seconds()),
		})
	}
	return stats
}
