// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package amount implements checked arithmetic on fixed-point token amounts.
// Amounts are uint64 base units; any result that would wrap is an Overflow revert.
package amount

import (
	"math/bits"
	"strconv"
	"strings"

	"github.com/holiman/uint256"

	"github.com/shadefi/shade/builtin/reverts"
)

// Decimals is the number of fractional digits of the reference deployment.
const Decimals = 6

// Unit is one whole token in base units.
const Unit uint64 = 1_000_000

// Add returns a + b.
func Add(a, b uint64) (uint64, error) {
	sum, carry := bits.Add64(a, b, 0)
	if carry != 0 {
		return 0, reverts.Newf(reverts.Overflow, "%d + %d", a, b)
	}
	return sum, nil
}

// Sub returns a - b.
func Sub(a, b uint64) (uint64, error) {
	diff, borrow := bits.Sub64(a, b, 0)
	if borrow != 0 {
		return 0, reverts.Newf(reverts.Overflow, "%d - %d", a, b)
	}
	return diff, nil
}

// MulDiv returns floor(a * b / d) using a 256-bit intermediate product.
func MulDiv(a, b, d uint64) (uint64, error) {
	if d == 0 {
		return 0, reverts.New(reverts.Overflow, "division by zero")
	}
	x := new(uint256.Int).Mul(uint256.NewInt(a), uint256.NewInt(b))
	x.Div(x, uint256.NewInt(d))
	if !x.IsUint64() {
		return 0, reverts.Newf(reverts.Overflow, "%d * %d / %d", a, b, d)
	}
	return x.Uint64(), nil
}

// Format renders base units as a decimal token amount, e.g. 1500000 -> "1.5".
// Only for display; the protocol never formats amounts.
func Format(v uint64) string {
	whole := strconv.FormatUint(v/Unit, 10)
	frac := v % Unit
	if frac == 0 {
		return whole
	}
	s := strconv.FormatUint(frac, 10)
	s = strings.Repeat("0", Decimals-len(s)) + s
	return whole + "." + strings.TrimRight(s, "0")
}

// Tokens converts whole tokens into base units, panic on overflow.
func Tokens(n uint64) uint64 {
	hi, lo := bits.Mul64(n, Unit)
	if hi != 0 {
		panic("amount: token count overflows")
	}
	return lo
}
