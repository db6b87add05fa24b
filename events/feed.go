// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package events

import (
	"context"
	"sync"

	"github.com/ethereum/go-ethereum/event"
)

var _ Sink = (*Feed)(nil)

// Feed fans committed events out to in-process subscribers.
// Publish blocks until every subscriber received the event, so
// subscribers should use buffered channels and drain them continuously.
type Feed struct {
	feed  event.Feed
	scope event.SubscriptionScope
}

// Subscribe registers ch to receive events.
func (f *Feed) Subscribe(ch chan *Event) event.Subscription {
	return f.scope.Track(f.feed.Subscribe(ch))
}

// Publish implements Sink.
func (f *Feed) Publish(_ context.Context, evs []*Event) error {
	for _, ev := range evs {
		f.feed.Send(ev)
	}
	return nil
}

// Close unsubscribes all subscribers.
func (f *Feed) Close() {
	f.scope.Close()
}

var _ Sink = (*Recorder)(nil)

// Recorder keeps every published event in memory.
type Recorder struct {
	lock sync.Mutex
	evs  []*Event
}

// Publish implements Sink.
func (r *Recorder) Publish(_ context.Context, evs []*Event) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.evs = append(r.evs, evs...)
	return nil
}

// Events returns a copy of recorded events.
func (r *Recorder) Events() []*Event {
	r.lock.Lock()
	defer r.lock.Unlock()
	return append([]*Event(nil), r.evs...)
}

// Last returns the most recent event, or nil.
func (r *Recorder) Last() *Event {
	r.lock.Lock()
	defer r.lock.Unlock()
	if len(r.evs) == 0 {
		return nil
	}
	return r.evs[len(r.evs)-1]
}
