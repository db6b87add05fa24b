// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package kv

// Reader reads records by key.
type Reader interface {
	Get(key []byte) ([]byte, error)
	Has(key []byte) (bool, error)
	IsNotFound(err error) bool
}

// Batch buffers writes until Write applies them in one atomic step.
type Batch interface {
	Put(key, val []byte) error
	Delete(key []byte) error
	Len() int
	Write() error
}

// Store is the record store under a ledger.
type Store interface {
	Reader
	NewBatch() Batch
}
