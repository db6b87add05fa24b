// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package ledger

import (
	"reflect"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/pkg/errors"

	"github.com/shadefi/shade/kv"
)

type Key interface {
	Bytes() []byte
}

// Mapping is a typed key/value view over one bucket, values are RLP encoded.
// V is expected to be a pointer type, Get returns nil for absent keys.
type Mapping[K Key, V any] struct {
	tx     *Tx
	bucket kv.Bucket
}

func NewMapping[K Key, V any](tx *Tx, bucket kv.Bucket) *Mapping[K, V] {
	return &Mapping[K, V]{tx: tx, bucket: bucket}
}

func (m *Mapping[K, V]) Get(key K) (value V, err error) {
	return decode[V](m.tx, m.bucket.Key(key.Bytes()))
}

// Exists reports whether a value is stored under key.
func (m *Mapping[K, V]) Exists(key K) (bool, error) {
	raw, err := m.tx.get(m.bucket.Key(key.Bytes()))
	if err != nil {
		return false, err
	}
	return len(raw) > 0, nil
}

// Insert stores a new value, failing if the key is already taken.
func (m *Mapping[K, V]) Insert(key K, value V) error {
	exists, err := m.Exists(key)
	if err != nil {
		return err
	}
	if exists {
		return errors.Errorf("insert %x: key already exists", key.Bytes())
	}
	return m.Upsert(key, value)
}

// Update overwrites an existing value, failing if the key is absent.
func (m *Mapping[K, V]) Update(key K, value V) error {
	exists, err := m.Exists(key)
	if err != nil {
		return err
	}
	if !exists {
		return errors.Errorf("update %x: key not found", key.Bytes())
	}
	return m.Upsert(key, value)
}

func (m *Mapping[K, V]) Upsert(key K, value V) error {
	return encode(m.tx, m.bucket.Key(key.Bytes()), value)
}

// Raw is a single typed value stored under a fixed key.
type Raw[V any] struct {
	tx  *Tx
	key []byte
}

func NewRaw[V any](tx *Tx, bucket kv.Bucket, name string) *Raw[V] {
	return &Raw[V]{tx: tx, key: bucket.Key([]byte(name))}
}

func (r *Raw[V]) Get() (V, error) {
	return decode[V](r.tx, r.key)
}

func (r *Raw[V]) Upsert(value V) error {
	return encode(r.tx, r.key, value)
}

func decode[V any](tx *Tx, key []byte) (value V, err error) {
	raw, err := tx.get(key)
	if err != nil {
		return value, err
	}
	if len(raw) == 0 {
		return value, nil
	}
	if t := reflect.TypeOf(value); t != nil && t.Kind() == reflect.Ptr {
		value = reflect.New(t.Elem()).Interface().(V)
		if err := rlp.DecodeBytes(raw, value); err != nil {
			return value, errors.Wrapf(err, "decode %x", key)
		}
		return value, nil
	}
	if err := rlp.DecodeBytes(raw, &value); err != nil {
		return value, errors.Wrapf(err, "decode %x", key)
	}
	return value, nil
}

func encode[V any](tx *Tx, key []byte, value V) error {
	raw, err := rlp.EncodeToBytes(value)
	if err != nil {
		return errors.Wrapf(err, "encode %x", key)
	}
	return tx.put(key, raw)
}
