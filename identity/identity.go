// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package identity asserts who is calling an operation.
package identity

import (
	"crypto/ecdsa"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"

	"github.com/shadefi/shade/shade"
)

// ErrSignerMismatch is returned when the recovered signer is not the claimed caller.
var ErrSignerMismatch = errors.New("signer mismatch")

// Verified is a caller identity that passed verification.
// The zero value verifies nobody and is rejected by operations.
type Verified struct {
	addr shade.Address
}

// Address returns the verified address.
func (v Verified) Address() shade.Address {
	return v.addr
}

// IsZero returns whether v carries no identity.
func (v Verified) IsZero() bool {
	return v.addr.IsZero()
}

func (v Verified) String() string {
	return v.addr.String()
}

// Trusted vouches for addr without verification.
// Reserved for genesis and in-process callers that hold authority already.
func Trusted(addr shade.Address) Verified {
	return Verified{addr}
}

// Verifier turns a claimed identity plus proof into a Verified caller.
type Verifier interface {
	Verify(claimed shade.Address, msg, sig []byte) (Verified, error)
}

var _ Verifier = SignatureVerifier{}

// SignatureVerifier checks secp256k1 signatures over the Blake2b digest of the message.
type SignatureVerifier struct{}

// Verify recovers the signer of msg and compares it to claimed.
func (SignatureVerifier) Verify(claimed shade.Address, msg, sig []byte) (Verified, error) {
	digest := shade.Blake2b(msg)
	pub, err := crypto.SigToPub(digest.Bytes(), sig)
	if err != nil {
		return Verified{}, errors.Wrap(err, "recover signer")
	}
	signer := shade.Address(crypto.PubkeyToAddress(*pub))
	if signer != claimed {
		return Verified{}, errors.WithMessagef(ErrSignerMismatch, "claimed %v, signed by %v", claimed, signer)
	}
	return Verified{signer}, nil
}

// Sign signs the Blake2b digest of msg with key.
func Sign(msg []byte, key *ecdsa.PrivateKey) ([]byte, error) {
	digest := shade.Blake2b(msg)
	return crypto.Sign(digest.Bytes(), key)
}

// AddressOf returns the address controlled by key.
func AddressOf(key *ecdsa.PrivateKey) shade.Address {
	return shade.Address(crypto.PubkeyToAddress(key.PublicKey))
}
