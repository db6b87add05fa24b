// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package eventdb

import (
	"github.com/shadefi/shade/events"
	"github.com/shadefi/shade/shade"
)

type Order string

const (
	ASC  Order = "asc"
	DESC Order = "desc"
)

// Range is an inclusive sequence range. A zero To means unbounded.
type Range struct {
	From uint64 `json:"from"`
	To   uint64 `json:"to"`
}

type Options struct {
	Offset uint64 `json:"offset"`
	Limit  uint64 `json:"limit"`
}

// Filter selects events. Nil fields match everything.
type Filter struct {
	Kind    *events.Kind   `json:"kind"`
	Subject *shade.Bytes32 `json:"subject"`
	Actor   *shade.Address `json:"actor"`
	Range   *Range         `json:"range"`
	Order   Order          `json:"order"` // default asc
	Options *Options       `json:"options"`
}
