// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package genesis_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shadefi/shade/builtin"
	"github.com/shadefi/shade/builtin/shade/tier"
	"github.com/shadefi/shade/genesis"
	"github.com/shadefi/shade/ledger/ledgertest"
	"github.com/shadefi/shade/shade"
)

const genesisYAML = `
admin: "0x00000000000000000000000000000061646d696e"
fee-basis-points: 25
thresholds:
  bronze: 10
  silver: 20
  gold: 30
cap-limits:
  base-cap: 1000
  none: 10
  bronze: 20
  silver: 30
  gold: 40
accounts:
  - address: "0x00000000000000000000000000000061646d696e"
    balance: 5000
  - address: "0x0000000000000000000000000000000000616c69"
    balance: 700
pools:
  - seed: "0x0000000000000000000000000000000000000000000000000000000000000001"
    controller: "0x00000000000000000000000000000061646d696e"
    deposit: 3000
`

var admin = shade.MustParseAddress("0x00000000000000000000000000000061646d696e")

func TestParse(t *testing.T) {
	gen, err := genesis.Parse([]byte(genesisYAML))
	require.NoError(t, err)

	assert.Equal(t, admin, gen.Admin)
	assert.Equal(t, uint64(25), gen.FeeBasisPoints)
	assert.Equal(t, &tier.Thresholds{Bronze: 10, Silver: 20, Gold: 30}, gen.Thresholds)
	assert.Equal(t, &tier.CapLimits{BaseCap: 1000, None: 10, Bronze: 20, Silver: 30, Gold: 40}, gen.CapLimits)
	require.Len(t, gen.Accounts, 2)
	assert.Equal(t, uint64(700), gen.Accounts[1].Balance)
	require.Len(t, gen.Pools, 1)
	assert.Equal(t, shade.BytesToBytes32([]byte{1}), gen.Pools[0].Seed)
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"unknown field", "admin: \"0x00000000000000000000000000000061646d696e\"\nfoo: 1\n"},
		{"no admin", "fee-basis-points: 1\n"},
		{"fee too high", "admin: \"0x00000000000000000000000000000061646d696e\"\nfee-basis-points: 1001\n"},
		{"bad thresholds", "admin: \"0x00000000000000000000000000000061646d696e\"\nthresholds: {bronze: 2, silver: 1, gold: 3}\n"},
		{"zero balance", "admin: \"0x00000000000000000000000000000061646d696e\"\naccounts: [{address: \"0x00000000000000000000000000000061646d696e\", balance: 0}]\n"},
		{"bad address", "admin: \"0x1234\"\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := genesis.Parse([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "genesis.yaml")
	require.NoError(t, os.WriteFile(path, []byte(genesisYAML), 0o600))

	gen, err := genesis.Load(path)
	require.NoError(t, err)
	assert.Equal(t, admin, gen.Admin)

	_, err = genesis.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestApply(t *testing.T) {
	l, _ := ledgertest.New(t)
	s := builtin.New(l)
	ctx := context.Background()

	gen, err := genesis.Parse([]byte(genesisYAML))
	require.NoError(t, err)

	applied, err := gen.Apply(ctx, s)
	require.NoError(t, err)
	assert.True(t, applied)

	cfg, err := s.Config(ctx)
	require.NoError(t, err)
	assert.Equal(t, admin, cfg.Admin)
	assert.Equal(t, uint64(25), cfg.FeeBasisPoints)
	assert.Equal(t, *gen.CapLimits, cfg.CapLimits)

	p, err := s.Pool(ctx, gen.Pools[0].Seed)
	require.NoError(t, err)
	assert.Equal(t, uint64(3000), p.TotalDeposited)

	bal, err := s.Balance(ctx, admin)
	require.NoError(t, err)
	assert.Equal(t, uint64(2000), bal)

	// a second run leaves the ledger alone
	applied, err = gen.Apply(ctx, s)
	require.NoError(t, err)
	assert.False(t, applied)
}

func TestDevnet(t *testing.T) {
	gen := genesis.NewDevnet()
	require.NoError(t, gen.Validate())
	assert.Equal(t, genesis.DevAccounts()[0].Address, gen.Admin)
	assert.Len(t, gen.Accounts, len(genesis.DevAccounts()))

	l, _ := ledgertest.New(t)
	s := builtin.New(l)
	applied, err := gen.Apply(context.Background(), s)
	require.NoError(t, err)
	assert.True(t, applied)

	cfg, err := s.Config(context.Background())
	require.NoError(t, err)
	assert.Equal(t, tier.DefaultThresholds, cfg.Thresholds)
	assert.Equal(t, tier.DefaultCapLimits, cfg.CapLimits)
}

func TestID(t *testing.T) {
	gene, err := genesis.Parse([]byte(genesisYAML))
	require.NoError(t, err)

	again, err := genesis.Parse([]byte(genesisYAML))
	require.NoError(t, err)
	assert.Equal(t, gene.ID(), again.ID())
	assert.False(t, gene.ID().IsZero())

	again.FeeBasisPoints++
	assert.NotEqual(t, gene.ID(), again.ID())

	// unset thresholds are the defaults
	dev := genesis.NewDevnet()
	withDefaults := *dev
	withDefaults.Thresholds = &tier.DefaultThresholds
	assert.Equal(t, dev.ID(), withDefaults.ID())
}
