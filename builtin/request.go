// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package builtin

import "context"

// Request stamps an operation submitted as a signed request.
// An operation run with a stamped context is admitted once per (caller, Nonce),
// and only until ExpiresAt.
type Request struct {
	Nonce     uint64
	ExpiresAt uint64
}

type requestKey struct{}

// WithRequest returns a copy of ctx stamped with r.
func WithRequest(ctx context.Context, r Request) context.Context {
	return context.WithValue(ctx, requestKey{}, r)
}

func requestFrom(ctx context.Context) (Request, bool) {
	r, ok := ctx.Value(requestKey{}).(Request)
	return r, ok
}
