// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package ledger

import (
	"context"
	"encoding/binary"
	"sync"

	"github.com/jonboulle/clockwork"
	"github.com/pkg/errors"

	"github.com/shadefi/shade/cache"
	"github.com/shadefi/shade/events"
	"github.com/shadefi/shade/kv"
	"github.com/shadefi/shade/log"
)

var logger = log.WithContext("pkg", "ledger")

const defaultCacheSize = 4096

var (
	metaBucket = kv.Bucket("m")
	seqKey     = metaBucket.Key([]byte("event-seq"))
)

// Options options for creating a ledger.
type Options struct {
	// CacheSize is the number of raw records kept in memory.
	CacheSize int
	// Clock supplies the current time of every unit of work.
	Clock clockwork.Clock
}

// Ledger executes units of work against a kv store.
// Units of work are serialized, read-only views may run concurrently.
type Ledger struct {
	store kv.Store
	cache *cache.Records
	clock clockwork.Clock
	lock  sync.RWMutex

	sinksLock sync.RWMutex
	sinks     []events.Sink

	// commits with events take a ticket under lock and publish in ticket order
	// after lock is released.
	tickets   uint64
	published uint64
	pubLock   sync.Mutex
	pubCond   *sync.Cond
}

// New creates a ledger on the given store.
func New(store kv.Store, opts Options) (*Ledger, error) {
	size := opts.CacheSize
	if size <= 0 {
		size = defaultCacheSize
	}
	c, err := cache.NewRecords(size)
	if err != nil {
		return nil, errors.Wrap(err, "new ledger cache")
	}
	clock := opts.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	l := &Ledger{
		store: store,
		cache: c,
		clock: clock,
	}
	l.pubCond = sync.NewCond(&l.pubLock)
	return l, nil
}

// Clock returns the clock of the ledger.
func (l *Ledger) Clock() clockwork.Clock {
	return l.clock
}

// CacheStats returns the lookup stats of the record cache.
func (l *Ledger) CacheStats() *cache.Stats {
	return l.cache.Stats()
}

// AddSink registers a sink that receives events after each commit.
func (l *Ledger) AddSink(sink events.Sink) {
	l.sinksLock.Lock()
	defer l.sinksLock.Unlock()
	l.sinks = append(l.sinks, sink)
}

// LastSeq returns the sequence number of the last committed event.
func (l *Ledger) LastSeq() (uint64, error) {
	l.lock.RLock()
	defer l.lock.RUnlock()
	return l.loadSeq()
}

// Execute runs fn as one unit of work.
// Writes made through tx are committed atomically if fn returns nil, and
// discarded otherwise. Committed events are published after the ledger is
// unlocked, in commit order, and Execute returns once every sink received them.
func (l *Ledger) Execute(ctx context.Context, fn func(tx *Tx) error) error {
	committed, ticket, err := l.execute(ctx, fn)
	if err != nil {
		return err
	}
	if len(committed) == 0 {
		return nil
	}

	l.pubLock.Lock()
	defer l.pubLock.Unlock()
	for l.published != ticket {
		l.pubCond.Wait()
	}
	l.publish(context.WithoutCancel(ctx), committed)
	l.published++
	l.pubCond.Broadcast()
	return nil
}

func (l *Ledger) execute(ctx context.Context, fn func(tx *Tx) error) ([]*events.Event, uint64, error) {
	l.lock.Lock()
	defer l.lock.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}

	tx := l.newTx(ctx, false)
	if err := fn(tx); err != nil {
		return nil, 0, err
	}

	committed, err := l.commit(tx)
	if err != nil {
		return nil, 0, err
	}
	ticket := l.tickets
	if len(committed) > 0 {
		l.tickets++
	}
	return committed, ticket, nil
}

// View runs fn against a read-only snapshot of committed state.
func (l *Ledger) View(ctx context.Context, fn func(tx *Tx) error) error {
	l.lock.RLock()
	defer l.lock.RUnlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	return fn(l.newTx(ctx, true))
}

func (l *Ledger) commit(tx *Tx) ([]*events.Event, error) {
	batch := l.store.NewBatch()
	written := make(map[string][]byte)

	var putErr error
	tx.state.Journal(func(key string, val []byte) bool {
		if putErr = batch.Put([]byte(key), val); putErr != nil {
			return false
		}
		written[key] = val
		return true
	})
	if putErr != nil {
		return nil, errors.Wrap(putErr, "stage record")
	}

	var seq uint64
	if len(tx.events) > 0 {
		var err error
		if seq, err = l.loadSeq(); err != nil {
			return nil, err
		}
		now := tx.now.Unix()
		for _, ev := range tx.events {
			seq++
			ev.Seq = seq
			ev.Time = now
		}
		if err := batch.Put(seqKey, encodeSeq(seq)); err != nil {
			return nil, errors.Wrap(err, "stage event seq")
		}
	}

	if err := batch.Write(); err != nil {
		return nil, errors.Wrap(err, "commit")
	}

	for key, val := range written {
		l.cache.Store(key, val)
	}
	if len(tx.events) > 0 {
		l.cache.Store(string(seqKey), encodeSeq(seq))
	}
	if rate, moved := l.cache.Stats().HitRate(); moved {
		logger.Debug("record cache", "hitrate", rate, "size", l.cache.Len())
	}
	return tx.events, nil
}

func (l *Ledger) publish(ctx context.Context, evs []*events.Event) {
	if len(evs) == 0 {
		return
	}
	l.sinksLock.RLock()
	defer l.sinksLock.RUnlock()
	for _, sink := range l.sinks {
		if err := sink.Publish(ctx, evs); err != nil {
			logger.Warn("failed to publish events", "first", evs[0].Seq, "count", len(evs), "err", err)
		}
	}
}

// load reads a raw record from the cache or the store. A nil value means absent.
func (l *Ledger) load(key string) ([]byte, error) {
	val, err := l.cache.Load(key, func(key string) ([]byte, error) {
		val, err := l.store.Get([]byte(key))
		if err != nil {
			if l.store.IsNotFound(err) {
				return nil, nil
			}
			return nil, err
		}
		return val, nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "load record")
	}
	return val, nil
}

func (l *Ledger) loadSeq() (uint64, error) {
	raw, err := l.load(string(seqKey))
	if err != nil {
		return 0, err
	}
	if len(raw) == 0 {
		return 0, nil
	}
	return binary.BigEndian.Uint64(raw), nil
}

func encodeSeq(seq uint64) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], seq)
	return b[:]
}
