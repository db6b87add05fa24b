// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package ledgertest builds in-memory ledgers for tests.
package ledgertest

import (
	"context"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"

	"github.com/shadefi/shade/ledger"
	"github.com/shadefi/shade/lvldb"
)

// Genesis is the time every test ledger starts at.
var Genesis = time.Unix(1_700_000_000, 0)

// New returns a ledger on an in-memory leveldb with a fake clock set to Genesis.
func New(t testing.TB) (*ledger.Ledger, *clockwork.FakeClock) {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	clock := clockwork.NewFakeClockAt(Genesis)
	l, err := ledger.New(db, ledger.Options{Clock: clock})
	require.NoError(t, err)
	return l, clock
}

// Exec runs fn as one unit of work.
func Exec(t testing.TB, l *ledger.Ledger, fn func(tx *ledger.Tx) error) error {
	t.Helper()
	return l.Execute(context.Background(), fn)
}

// MustExec runs fn as one unit of work and requires it to succeed.
func MustExec(t testing.TB, l *ledger.Ledger, fn func(tx *ledger.Tx) error) {
	t.Helper()
	require.NoError(t, Exec(t, l, fn))
}
