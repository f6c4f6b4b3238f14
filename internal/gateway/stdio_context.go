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
	"log/slog"
)

// StdioContext leases pool's single fixed client and installs it as the
// request state for ctx, the stdio-transport counterpart to Middleware's
// per-request leasing. There is no release: the stdio pool's Release is a
// no-op and the client lives for the process lifetime.
func StdioContext(ctx context.Context, pool *StdioPool, url, username, password string, tlsVerify bool, logger *slog.Logger) (context.Context, error) {
	client, err := pool.Lease(ctx, url, username, password, tlsVerify)
	if err != nil {
		return nil, err
	}

	normalized, err := Normalize(url)
	if err != nil {
		return nil, err
	}

	state := &requestState{
		client:    client,
		url:       normalized,
		tlsVerify: tlsVerify,
		username:  username,
		logger:    logger,
	}
	return withRequestState(ctx, state), nil
}
