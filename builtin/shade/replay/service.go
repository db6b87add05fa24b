// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package replay admits each signed request once.
package replay

import (
	"encoding/binary"

	"github.com/pkg/errors"

	"github.com/shadefi/shade/builtin/reverts"
	"github.com/shadefi/shade/kv"
	"github.com/shadefi/shade/ledger"
	"github.com/shadefi/shade/shade"
)

var bucket = kv.Bucket("n")

// MaxLifetime is the furthest a request may expire from now, in seconds.
const MaxLifetime = 3600

// Record marks a consumed (caller, nonce) pair.
type Record struct {
	ExpiresAt uint64
	UsedAt    uint64
}

// Key returns the record key of the request (caller, nonce).
func Key(caller shade.Address, nonce uint64) shade.Bytes32 {
	var n [8]byte
	binary.BigEndian.PutUint64(n[:], nonce)
	return shade.Blake2b([]byte("request"), caller.Bytes(), n[:])
}

type Service struct {
	tx      *ledger.Tx
	records *ledger.Mapping[shade.Bytes32, *Record]
}

func New(tx *ledger.Tx) *Service {
	return &Service{
		tx:      tx,
		records: ledger.NewMapping[shade.Bytes32, *Record](tx, bucket),
	}
}

// Get returns the record of (caller, nonce), or nil.
func (s *Service) Get(caller shade.Address, nonce uint64) (*Record, error) {
	r, err := s.records.Get(Key(caller, nonce))
	if err != nil {
		return nil, errors.Wrap(err, "failed to get request")
	}
	return r, nil
}

// Consume admits the request (caller, nonce) if it has not expired and was
// never admitted before. The record is written in the current unit of work, so a
// request whose operation fails stays unused.
func (s *Service) Consume(caller shade.Address, nonce, expiresAt uint64) error {
	now := uint64(s.tx.Now().Unix())
	if now > expiresAt {
		return reverts.Newf(reverts.RequestExpired, "expired at %d, now %d", expiresAt, now)
	}
	if expiresAt-now > MaxLifetime {
		return reverts.Newf(reverts.InvalidExpiry, "expires at %d, more than %ds from now", expiresAt, MaxLifetime)
	}

	key := Key(caller, nonce)
	used, err := s.records.Exists(key)
	if err != nil {
		return errors.Wrap(err, "failed to get request")
	}
	if used {
		return reverts.Newf(reverts.NonceUsed, "nonce %d of %v", nonce, caller)
	}
	if err := s.records.Insert(key, &Record{ExpiresAt: expiresAt, UsedAt: now}); err != nil {
		return errors.Wrap(err, "failed to set request")
	}
	return nil
}
