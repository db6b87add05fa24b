// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package ledger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shadefi/shade/events"
	"github.com/shadefi/shade/kv"
	"github.com/shadefi/shade/lvldb"
	"github.com/shadefi/shade/shade"
)

type record struct {
	Owner  shade.Address
	Amount uint64
	Label  string
}

var testBucket = kv.Bucket("r")

func newTestLedger(t *testing.T) (*Ledger, *lvldb.LevelDB, *clockwork.FakeClock) {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	clock := clockwork.NewFakeClockAt(time.Unix(1_700_000_000, 0))
	l, err := New(db, Options{CacheSize: 16, Clock: clock})
	require.NoError(t, err)
	return l, db, clock
}

func TestExecuteCommits(t *testing.T) {
	l, db, _ := newTestLedger(t)
	key := shade.Blake2b([]byte("k"))

	err := l.Execute(context.Background(), func(tx *Tx) error {
		m := NewMapping[shade.Bytes32, *record](tx, testBucket)
		if err := m.Insert(key, &record{Amount: 1, Label: "a"}); err != nil {
			return err
		}
		// staged writes are visible in the same unit
		r, err := m.Get(key)
		if err != nil {
			return err
		}
		r.Amount++
		return m.Update(key, r)
	})
	require.NoError(t, err)

	has, err := db.Has(testBucket.Key(key.Bytes()))
	require.NoError(t, err)
	assert.True(t, has)

	require.NoError(t, l.View(context.Background(), func(tx *Tx) error {
		r, err := NewMapping[shade.Bytes32, *record](tx, testBucket).Get(key)
		require.NoError(t, err)
		assert.Equal(t, &record{Amount: 2, Label: "a"}, r)
		return nil
	}))
}

func TestExecuteDiscardsOnError(t *testing.T) {
	l, db, _ := newTestLedger(t)
	key := shade.Blake2b([]byte("k"))
	rec := &events.Recorder{}
	l.AddSink(rec)

	boom := errors.New("boom")
	err := l.Execute(context.Background(), func(tx *Tx) error {
		if err := NewMapping[shade.Bytes32, *record](tx, testBucket).Insert(key, &record{Amount: 1}); err != nil {
			return err
		}
		tx.Emit(events.New(events.KindStaked, key, shade.Address{}))
		return boom
	})
	assert.Equal(t, boom, err)

	has, err := db.Has(testBucket.Key(key.Bytes()))
	require.NoError(t, err)
	assert.False(t, has)
	assert.Empty(t, rec.Events())

	seq, err := l.LastSeq()
	require.NoError(t, err)
	assert.Zero(t, seq)

	require.NoError(t, l.View(context.Background(), func(tx *Tx) error {
		r, err := NewMapping[shade.Bytes32, *record](tx, testBucket).Get(key)
		require.NoError(t, err)
		assert.Nil(t, r)
		return nil
	}))
}

func TestEventsNumberedOnCommit(t *testing.T) {
	l, _, clock := newTestLedger(t)
	rec := &events.Recorder{}
	l.AddSink(rec)

	emit := func(n int) {
		require.NoError(t, l.Execute(context.Background(), func(tx *Tx) error {
			for range n {
				tx.Emit(events.New(events.KindDeposited, shade.Bytes32{}, shade.Address{}))
			}
			return nil
		}))
	}
	emit(2)
	clock.Advance(time.Minute)
	emit(1)

	evs := rec.Events()
	require.Len(t, evs, 3)
	for i, ev := range evs {
		assert.Equal(t, uint64(i+1), ev.Seq)
	}
	assert.Equal(t, clock.Now().Unix(), evs[2].Time)
	assert.Equal(t, evs[0].Time+60, evs[2].Time)

	seq, err := l.LastSeq()
	require.NoError(t, err)
	assert.Equal(t, uint64(3), seq)
}

func TestViewIsReadOnly(t *testing.T) {
	l, _, _ := newTestLedger(t)
	err := l.View(context.Background(), func(tx *Tx) error {
		return NewRaw[uint64](tx, testBucket, "counter").Upsert(1)
	})
	assert.ErrorIs(t, err, ErrReadOnly)
}

func TestExecuteCanceled(t *testing.T) {
	l, _, _ := newTestLedger(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := l.Execute(ctx, func(*Tx) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}

func TestPersistAcrossLedgers(t *testing.T) {
	l, db, _ := newTestLedger(t)
	require.NoError(t, l.Execute(context.Background(), func(tx *Tx) error {
		return NewRaw[uint64](tx, testBucket, "counter").Upsert(42)
	}))

	reopened, err := New(db, Options{})
	require.NoError(t, err)
	require.NoError(t, reopened.View(context.Background(), func(tx *Tx) error {
		v, err := NewRaw[uint64](tx, testBucket, "counter").Get()
		require.NoError(t, err)
		assert.Equal(t, uint64(42), v)
		return nil
	}))
}

func TestCommittedRecordsAreCached(t *testing.T) {
	l, db, _ := newTestLedger(t)
	key := shade.Blake2b([]byte("k"))

	require.NoError(t, l.Execute(context.Background(), func(tx *Tx) error {
		return NewMapping[shade.Bytes32, *record](tx, testBucket).Insert(key, &record{Amount: 7})
	}))
	hits := l.CacheStats().Hits()

	// reads after commit are served by the cache, not the store
	require.NoError(t, db.Delete(testBucket.Key(key.Bytes())))
	require.NoError(t, l.View(context.Background(), func(tx *Tx) error {
		r, err := NewMapping[shade.Bytes32, *record](tx, testBucket).Get(key)
		require.NoError(t, err)
		assert.Equal(t, uint64(7), r.Amount)
		return nil
	}))
	assert.Equal(t, hits+1, l.CacheStats().Hits())
}

func TestStalledSinkDoesNotBlockLedger(t *testing.T) {
	l, _, _ := newTestLedger(t)
	var feed events.Feed
	defer feed.Close()
	l.AddSink(&feed)
	rec := &events.Recorder{}
	l.AddSink(rec)

	// nobody reads ch until the end
	ch := make(chan *events.Event)
	sub := feed.Subscribe(ch)
	defer sub.Unsubscribe()

	emit := func(kind events.Kind) <-chan error {
		done := make(chan error, 1)
		go func() {
			done <- l.Execute(context.Background(), func(tx *Tx) error {
				tx.Emit(events.New(kind, shade.Bytes32{}, shade.Address{}))
				return nil
			})
		}()
		return done
	}
	first := emit(events.KindStaked)
	assert.Eventually(t, func() bool {
		seq, err := l.LastSeq()
		return err == nil && seq == 1
	}, time.Second, 5*time.Millisecond)

	viewed := make(chan error, 1)
	go func() {
		viewed <- l.View(context.Background(), func(tx *Tx) error {
			_, err := NewRaw[uint64](tx, testBucket, "counter").Get()
			return err
		})
	}()
	select {
	case err := <-viewed:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("view blocked by a stalled subscriber")
	}

	// later commits still go through, their events queue behind the first batch
	second := emit(events.KindUnstaked)
	assert.Eventually(t, func() bool {
		seq, err := l.LastSeq()
		return err == nil && seq == 2
	}, time.Second, 5*time.Millisecond)
	require.NoError(t, l.Execute(context.Background(), func(tx *Tx) error {
		return NewRaw[uint64](tx, testBucket, "counter").Upsert(1)
	}))

	assert.Equal(t, uint64(1), (<-ch).Seq)
	require.NoError(t, <-first)
	assert.Equal(t, uint64(2), (<-ch).Seq)
	require.NoError(t, <-second)

	evs := rec.Events()
	require.Len(t, evs, 2)
	assert.Equal(t, events.KindStaked, evs[0].Kind)
	assert.Equal(t, events.KindUnstaked, evs[1].Kind)
}
