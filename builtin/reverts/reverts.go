// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package reverts

import (
	"errors"
	"fmt"
)

// Kind classifies a revert. A Kind is itself an error so callers can match with errors.Is.
type Kind string

func (k Kind) Error() string {
	return string(k)
}

const (
	InvalidAmount         Kind = "InvalidAmount"
	InsufficientStake     Kind = "InsufficientStake"
	Unauthorized          Kind = "Unauthorized"
	AuthorizationInactive Kind = "AuthorizationInactive"
	AuthorizationExpired  Kind = "AuthorizationExpired"
	ExceedsSpendingCap    Kind = "ExceedsSpendingCap"
	ExceedsTierLimit      Kind = "ExceedsTierLimit"
	InvalidExpiry         Kind = "InvalidExpiry"
	PurposeTooLong        Kind = "PurposeTooLong"
	FeeTooHigh            Kind = "FeeTooHigh"
	InvalidThresholds     Kind = "InvalidThresholds"
	NoRewardsToClaim      Kind = "NoRewardsToClaim"
	Overflow              Kind = "Overflow"
	AlreadyInitialized    Kind = "AlreadyInitialized"
	NotInitialized        Kind = "NotInitialized"
	AlreadyExists         Kind = "AlreadyExists"
	NotFound              Kind = "NotFound"
	InsufficientFunds     Kind = "InsufficientFunds"
	NonceUsed             Kind = "NonceUsed"
	RequestExpired        Kind = "RequestExpired"
)

// ErrRevert is a domain failure. The operation that produced it made no state change.
type ErrRevert struct {
	kind    Kind
	message string
}

func New(kind Kind, message string) *ErrRevert {
	return &ErrRevert{
		kind:    kind,
		message: message,
	}
}

func Newf(kind Kind, format string, args ...any) *ErrRevert {
	return New(kind, fmt.Sprintf(format, args...))
}

func (e *ErrRevert) Kind() Kind {
	return e.kind
}

func (e *ErrRevert) Message() string {
	return e.message
}

func (e *ErrRevert) Error() string {
	if e.message == "" {
		return string(e.kind)
	}
	return string(e.kind) + ": " + e.message
}

// Is reports a match against the revert kind.
func (e *ErrRevert) Is(target error) bool {
	if k, ok := target.(Kind); ok {
		return e.kind == k
	}
	return false
}

func IsRevertErr(err any) bool {
	if err == nil {
		return false
	}
	e, ok := err.(error)
	if !ok {
		return false
	}
	var ve *ErrRevert
	if errors.As(e, &ve) {
		return ve != nil
	}
	return false
}

// KindOf returns the kind of the revert wrapped in err, if any.
func KindOf(err error) (Kind, bool) {
	var ve *ErrRevert
	if errors.As(err, &ve) && ve != nil {
		return ve.kind, true
	}
	return "", false
}
