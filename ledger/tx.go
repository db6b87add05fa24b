// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package ledger

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/shadefi/shade/events"
	"github.com/shadefi/shade/stackedmap"
)

// ErrReadOnly is returned when writing inside a read-only view.
var ErrReadOnly = errors.New("ledger: write in read-only view")

// Tx is the context of one unit of work.
// Reads observe the writes staged earlier in the same unit.
type Tx struct {
	ctx      context.Context
	now      time.Time
	readOnly bool
	state    *stackedmap.StackedMap[string, []byte]
	events   []*events.Event
}

func (l *Ledger) newTx(ctx context.Context, readOnly bool) *Tx {
	return &Tx{
		ctx:      ctx,
		now:      l.clock.Now(),
		readOnly: readOnly,
		state: stackedmap.New(func(key string) ([]byte, bool, error) {
			val, err := l.load(key)
			if err != nil {
				return nil, false, err
			}
			return val, val != nil, nil
		}),
	}
}

// Context returns the context the unit of work runs with.
func (tx *Tx) Context() context.Context {
	return tx.ctx
}

// Now returns the time the unit of work started at.
func (tx *Tx) Now() time.Time {
	return tx.now
}

// Emit queues an event to be numbered and published on commit.
func (tx *Tx) Emit(ev *events.Event) {
	if tx.readOnly {
		return
	}
	tx.events = append(tx.events, ev)
}

func (tx *Tx) get(key []byte) ([]byte, error) {
	val, _, err := tx.state.Get(string(key))
	return val, err
}

func (tx *Tx) put(key, val []byte) error {
	if tx.readOnly {
		return ErrReadOnly
	}
	tx.state.Put(string(key), val)
	return nil
}
