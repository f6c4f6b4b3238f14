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
	"context"
	"sync"
)

// StdioPool is the degenerate single-client pool used for the stdio
// transport: one process, one operator-supplied set of credentials, no
// eviction, no per-key limit. It exposes the same Lease/Release contract as
// Pool so callers (the dispatch shell in particular) do not need to know
// which transport mode they are running under.
type StdioPool struct {
	mu     sync.Mutex
	client *Client
}

// NewStdioPool constructs a StdioPool around a single Client, which need not
// be logged in yet: every Lease calls EnsureAuthenticated on it. The Client's
// transport mode should be TransportStdio.
func NewStdioPool(client *Client) *StdioPool {
	return &StdioPool{client: client}
}

// Lease returns the single client, ignoring url/username/password/
// tlsVerification: stdio mode has exactly one upstream target and one
// identity, fixed at process startup.
func (p *StdioPool) Lease(ctx context.Context, url, username, password string, tlsVerification bool) (*Client, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.client.EnsureAuthenticated(ctx); err != nil {
		return nil, err
	}
	return p.client, nil
}

// Release is a no-op: there is no lease accounting to unwind for a pool of
// size one with no concurrency cap.
func (p *StdioPool) Release(url string, tlsVerification bool) {}

// CloseAll closes the single underlying client.
func (p *StdioPool) CloseAll() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.client.Close()
}

// Stats reports a size and capacity of one, for parity with Pool.Stats. It
// carries no per-entry detail (lease count, idle time).
func (p *StdioPool) Stats() PoolStats {
	return PoolStats{TotalClients: 1, MaxSize: 1}
}

// Leaser is satisfied by both Pool and StdioPool, letting the ingress
// middleware and dispatch shell stay agnostic to transport mode.
type Leaser interface {
	Lease(ctx context.Context, url, username, password string, tlsVerification bool) (*Client, error)
	Release(url string, tlsVerification bool)
	CloseAll()
	Stats() PoolStats
}

var (
	_ Leaser = (*Pool)(nil)
	_ Leaser = (*StdioPool)(nil)
)
