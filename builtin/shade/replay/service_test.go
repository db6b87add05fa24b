// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package replay

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shadefi/shade/builtin/reverts"
	"github.com/shadefi/shade/ledger"
	"github.com/shadefi/shade/ledger/ledgertest"
	"github.com/shadefi/shade/shade"
)

var (
	alice = shade.BytesToAddress([]byte("alice"))
	bob   = shade.BytesToAddress([]byte("bob"))
	now   = uint64(ledgertest.Genesis.Unix())
)

func TestKey(t *testing.T) {
	assert.Equal(t, Key(alice, 1), Key(alice, 1))
	assert.NotEqual(t, Key(alice, 1), Key(alice, 2))
	assert.NotEqual(t, Key(alice, 1), Key(bob, 1))
}

func TestConsume(t *testing.T) {
	l, clock := ledgertest.New(t)
	consume := func(caller shade.Address, nonce, expiresAt uint64) error {
		return ledgertest.Exec(t, l, func(tx *ledger.Tx) error {
			return New(tx).Consume(caller, nonce, expiresAt)
		})
	}

	require.NoError(t, consume(alice, 1, now+60))
	assert.ErrorIs(t, consume(alice, 1, now+60), reverts.NonceUsed)
	assert.ErrorIs(t, consume(alice, 1, now+120), reverts.NonceUsed)

	// nonces are per caller
	require.NoError(t, consume(bob, 1, now+60))
	require.NoError(t, consume(alice, 2, now))

	tests := []struct {
		name      string
		expiresAt uint64
		want      error
	}{
		{"expired", now - 1, reverts.RequestExpired},
		{"too far", now + MaxLifetime + 1, reverts.InvalidExpiry},
		{"max lifetime", now + MaxLifetime, nil},
	}
	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := consume(alice, uint64(10+i), tt.expiresAt)
			if tt.want == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.want)
			}
		})
	}

	clock.Advance(2 * time.Minute)
	assert.ErrorIs(t, consume(alice, 99, now+60), reverts.RequestExpired)
}

func TestConsumeRollsBackWithOperation(t *testing.T) {
	l, _ := ledgertest.New(t)
	boom := errors.New("boom")

	err := ledgertest.Exec(t, l, func(tx *ledger.Tx) error {
		if err := New(tx).Consume(alice, 1, now+60); err != nil {
			return err
		}
		return boom
	})
	assert.Equal(t, boom, err)

	require.NoError(t, l.View(t.Context(), func(tx *ledger.Tx) error {
		r, err := New(tx).Get(alice, 1)
		require.NoError(t, err)
		assert.Nil(t, r)
		return nil
	}))
	ledgertest.MustExec(t, l, func(tx *ledger.Tx) error {
		return New(tx).Consume(alice, 1, now+60)
	})
}
