// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package genesis

import (
	"crypto/ecdsa"
	"sync"

	"github.com/ethereum/go-ethereum/crypto"

	"github.com/shadefi/shade/amount"
	"github.com/shadefi/shade/identity"
	"github.com/shadefi/shade/shade"
)

// DevAccount account for development.
type DevAccount struct {
	Address    shade.Address
	PrivateKey *ecdsa.PrivateKey
}

// DevAccounts returns pre-funded accounts of the dev genesis.
var DevAccounts = sync.OnceValue(func() []DevAccount {
	privKeys := []string{
		"dce1443bd2ef0c2631adc1c67e5c93f13dc23a41c18b536effbbdcbcdb96fb65",
		"321d6443bc6177273b5abf54210fe806d451d6b7973bccc2384ef78bbcd0bf51",
		"2d7c882bad2a01105e36dda3646693bc1aaaa45b0ed63fb0ce23c060294f3af2",
		"593537225b037191d322c3b1df585fb1e5100811b71a6f7fc7e29cca1333483e",
		"ca7b25fc980c759df5f3ce17a3d881d6e19a38e651fc4315fc08917edab41058",
	}
	accs := make([]DevAccount, 0, len(privKeys))
	for _, str := range privKeys {
		pk, err := crypto.HexToECDSA(str)
		if err != nil {
			panic(err)
		}
		accs = append(accs, DevAccount{identity.AddressOf(pk), pk})
	}
	return accs
})

// DevPoolSeed is the seed of the pool created by the dev genesis.
var DevPoolSeed = shade.Blake2b([]byte("dev-pool"))

// NewDevnet creates the genesis used when no genesis file is given.
// The first dev account is admin and controls a pool funded with 100,000 tokens.
func NewDevnet() *Genesis {
	accs := DevAccounts()
	gen := &Genesis{
		Admin:          accs[0].Address,
		FeeBasisPoints: 10,
		Pools: []Pool{{
			Seed:       DevPoolSeed,
			Controller: accs[0].Address,
			Deposit:    amount.Tokens(100_000),
		}},
	}
	for _, acc := range accs {
		gen.Accounts = append(gen.Accounts, Account{acc.Address, amount.Tokens(1_000_000)})
	}
	return gen
}
