// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package genesis describes and applies the initial state of a ledger.
package genesis

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/shadefi/shade/builtin"
	"github.com/shadefi/shade/builtin/shade/tier"
	"github.com/shadefi/shade/identity"
	"github.com/shadefi/shade/log"
	"github.com/shadefi/shade/shade"
)

var logger = log.WithContext("pkg", "genesis")

// Genesis is the initial state of a ledger.
type Genesis struct {
	Admin          shade.Address    `yaml:"admin"`
	FeeBasisPoints uint64           `yaml:"fee-basis-points"`
	Thresholds     *tier.Thresholds `yaml:"thresholds"` // defaults to tier.DefaultThresholds
	CapLimits      *tier.CapLimits  `yaml:"cap-limits"` // defaults to tier.DefaultCapLimits
	Accounts       []Account        `yaml:"accounts"`
	Pools          []Pool           `yaml:"pools"`
}

// Account is an initial asset balance.
type Account struct {
	Address shade.Address `yaml:"address"`
	Balance uint64        `yaml:"balance"`
}

// Pool is a pool created at genesis and funded by its controller.
type Pool struct {
	Seed       shade.Bytes32 `yaml:"seed"`
	Controller shade.Address `yaml:"controller"`
	Deposit    uint64        `yaml:"deposit"`
}

// Load reads a YAML genesis file.
func Load(path string) (*Genesis, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read genesis")
	}
	return Parse(data)
}

// Parse decodes a YAML genesis. Unknown fields are rejected.
func Parse(data []byte) (*Genesis, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var gen Genesis
	if err := dec.Decode(&gen); err != nil {
		return nil, errors.Wrap(err, "decode genesis")
	}
	if err := gen.Validate(); err != nil {
		return nil, err
	}
	return &gen, nil
}

// Validate checks the genesis for errors that would otherwise surface half way through Apply.
func (g *Genesis) Validate() error {
	if g.Admin.IsZero() {
		return errors.New("admin must be set")
	}
	if g.FeeBasisPoints > shade.MaxFeeBasisPoints {
		return fmt.Errorf("fee-basis-points: %d exceeds %d", g.FeeBasisPoints, shade.MaxFeeBasisPoints)
	}
	if g.Thresholds != nil {
		if err := g.Thresholds.Validate(); err != nil {
			return errors.WithMessage(err, "thresholds")
		}
	}
	if g.CapLimits != nil {
		if err := g.CapLimits.Validate(); err != nil {
			return errors.WithMessage(err, "cap-limits")
		}
	}
	seen := make(map[shade.Address]bool)
	for _, a := range g.Accounts {
		if a.Address.IsZero() {
			return errors.New("accounts: address must be set")
		}
		if a.Balance == 0 {
			return fmt.Errorf("accounts: %v: balance must be a non-zero integer", a.Address)
		}
		if seen[a.Address] {
			return fmt.Errorf("accounts: %v: duplicated", a.Address)
		}
		seen[a.Address] = true
	}
	seeds := make(map[shade.Bytes32]bool)
	for _, p := range g.Pools {
		if p.Controller.IsZero() {
			return fmt.Errorf("pools: %v: controller must be set", p.Seed)
		}
		if seeds[p.Seed] {
			return fmt.Errorf("pools: %v: duplicated seed", p.Seed)
		}
		seeds[p.Seed] = true
	}
	return nil
}

// ID identifies the deployment the genesis creates. It is the tag signed
// operation requests are bound to.
func (g *Genesis) ID() shade.Bytes32 {
	thresholds, capLimits := tier.DefaultThresholds, tier.DefaultCapLimits
	if g.Thresholds != nil {
		thresholds = *g.Thresholds
	}
	if g.CapLimits != nil {
		capLimits = *g.CapLimits
	}
	return shade.Blake2bFn(func(w io.Writer) {
		// all fields are fixed-size or slices of them
		_ = rlp.Encode(w, []any{
			g.Admin,
			g.FeeBasisPoints,
			&thresholds,
			&capLimits,
			g.Accounts,
			g.Pools,
		})
	})
}

// Apply writes the genesis through s. A ledger that already holds state is
// left untouched and Apply reports false.
func (g *Genesis) Apply(ctx context.Context, s *builtin.Shade) (bool, error) {
	seq, err := s.Ledger().LastSeq()
	if err != nil {
		return false, err
	}
	if seq > 0 {
		logger.Debug("ledger not empty, genesis skipped", "seq", seq)
		return false, nil
	}

	for _, a := range g.Accounts {
		if err := s.Credit(ctx, a.Address, a.Balance); err != nil {
			return false, errors.WithMessagef(err, "credit %v", a.Address)
		}
	}

	thresholds := tier.DefaultThresholds
	if g.Thresholds != nil {
		thresholds = *g.Thresholds
	}
	admin := identity.Trusted(g.Admin)
	if _, err := s.Initialize(ctx, admin, g.FeeBasisPoints, thresholds); err != nil {
		return false, errors.WithMessage(err, "initialize")
	}
	if g.CapLimits != nil {
		if _, err := s.UpdateCapLimits(ctx, admin, *g.CapLimits); err != nil {
			return false, errors.WithMessage(err, "cap limits")
		}
	}

	for _, p := range g.Pools {
		controller := identity.Trusted(p.Controller)
		if _, err := s.CreatePool(ctx, controller, p.Seed); err != nil {
			return false, errors.WithMessagef(err, "create pool %v", p.Seed)
		}
		if p.Deposit > 0 {
			if _, err := s.Deposit(ctx, controller, p.Seed, p.Deposit); err != nil {
				return false, errors.WithMessagef(err, "deposit pool %v", p.Seed)
			}
		}
	}
	logger.Info("genesis applied", "admin", g.Admin, "accounts", len(g.Accounts), "pools", len(g.Pools))
	return true, nil
}
