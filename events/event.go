// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package events

import (
	"context"
	"fmt"

	"github.com/shadefi/shade/shade"
)

// Kind names the operation that produced an event.
type Kind string

const (
	KindProtocolInitialized  Kind = "ProtocolInitialized"
	KindFeeUpdated           Kind = "FeeUpdated"
	KindTiersUpdated         Kind = "TiersUpdated"
	KindCapLimitsUpdated     Kind = "CapLimitsUpdated"
	KindStaked               Kind = "Staked"
	KindUnstaked             Kind = "Unstaked"
	KindPoolCreated          Kind = "PoolCreated"
	KindDeposited            Kind = "Deposited"
	KindAuthorizationCreated Kind = "AuthorizationCreated"
	KindAuthorizationRevoked Kind = "AuthorizationRevoked"
	KindSpent                Kind = "Spent"
	KindFeesDistributed      Kind = "FeesDistributed"
	KindRewardsClaimed       Kind = "RewardsClaimed"
	KindCredited             Kind = "Credited"
)

// Change is a before/after pair of a single record field.
type Change struct {
	Field  string `json:"field"`
	Before string `json:"before"`
	After  string `json:"after"`
}

// Event is the notification record of one successful state change.
// Seq is assigned by the ledger when the unit of work commits.
type Event struct {
	Seq     uint64        `json:"seq"`
	Kind    Kind          `json:"kind"`
	Subject shade.Bytes32 `json:"subject"`
	Actor   shade.Address `json:"actor"`
	Time    int64         `json:"time"`
	Changes []Change      `json:"changes"`
}

// New creates an event without sequence and time.
func New(kind Kind, subject shade.Bytes32, actor shade.Address) *Event {
	return &Event{Kind: kind, Subject: subject, Actor: actor}
}

// With records a field change and returns the event for chaining.
func (e *Event) With(field string, before, after any) *Event {
	e.Changes = append(e.Changes, Change{
		Field:  field,
		Before: fmt.Sprint(before),
		After:  fmt.Sprint(after),
	})
	return e
}

// Sink consumes committed events in sequence order.
type Sink interface {
	Publish(ctx context.Context, evs []*Event) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, evs []*Event) error

func (f SinkFunc) Publish(ctx context.Context, evs []*Event) error { return f(ctx, evs) }
