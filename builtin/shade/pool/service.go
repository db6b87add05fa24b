// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package pool

import (
	"github.com/pkg/errors"

	"github.com/shadefi/shade/amount"
	"github.com/shadefi/shade/asset"
	"github.com/shadefi/shade/builtin/reverts"
	"github.com/shadefi/shade/events"
	"github.com/shadefi/shade/kv"
	"github.com/shadefi/shade/ledger"
	"github.com/shadefi/shade/shade"
)

var bucket = kv.Bucket("p")

type Service struct {
	tx    *ledger.Tx
	bank  asset.Transferrer
	pools *ledger.Mapping[shade.Bytes32, *Pool]
}

func New(tx *ledger.Tx, bank asset.Transferrer) *Service {
	return &Service{
		tx:    tx,
		bank:  bank,
		pools: ledger.NewMapping[shade.Bytes32, *Pool](tx, bucket),
	}
}

// Get returns the pool stored under key, or nil.
func (s *Service) Get(key shade.Bytes32) (*Pool, error) {
	p, err := s.pools.Get(key)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get pool")
	}
	return p, nil
}

// GetExisting returns the pool stored under key, failing with NotFound if absent.
func (s *Service) GetExisting(key shade.Bytes32) (*Pool, error) {
	p, err := s.Get(key)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, reverts.Newf(reverts.NotFound, "pool %v", key)
	}
	return p, nil
}

// Set persists the pool.
func (s *Service) Set(p *Pool) error {
	if err := s.pools.Upsert(Key(p.Seed), p); err != nil {
		return errors.Wrap(err, "failed to set pool")
	}
	return nil
}

// Create creates the pool of seed with controller as its controller.
func (s *Service) Create(controller shade.Address, seed shade.Bytes32) (*Pool, error) {
	key := Key(seed)
	exists, err := s.pools.Exists(key)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get pool")
	}
	if exists {
		return nil, reverts.Newf(reverts.AlreadyExists, "pool %v", key)
	}

	p := &Pool{
		Seed:       seed,
		Controller: controller,
		Vault:      VaultOf(seed),
	}
	if err := s.Set(p); err != nil {
		return nil, err
	}

	s.tx.Emit(events.New(events.KindPoolCreated, key, controller).
		With("controller", shade.Address{}, controller).
		With("vault", shade.Address{}, p.Vault))
	return p, nil
}

// Deposit moves value from depositor into the pool vault. Anyone may deposit.
func (s *Service) Deposit(depositor shade.Address, seed shade.Bytes32, value uint64) (*Pool, error) {
	if value == 0 {
		return nil, reverts.New(reverts.InvalidAmount, "deposit of zero")
	}
	key := Key(seed)
	p, err := s.GetExisting(key)
	if err != nil {
		return nil, err
	}
	total, err := amount.Add(p.TotalDeposited, value)
	if err != nil {
		return nil, err
	}
	if err := s.bank.Transfer(s.tx, depositor, p.Vault, value); err != nil {
		return nil, err
	}

	s.tx.Emit(events.New(events.KindDeposited, key, depositor).
		With("totalDeposited", p.TotalDeposited, total))

	p.TotalDeposited = total
	if err := s.Set(p); err != nil {
		return nil, err
	}
	return p, nil
}
