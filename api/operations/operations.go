// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package operations executes signed operation requests against the protocol.
package operations

import (
	"bytes"
	"context"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/shadefi/shade/api/utils"
	"github.com/shadefi/shade/builtin"
	"github.com/shadefi/shade/identity"
	"github.com/shadefi/shade/shade"
)

type handler func(ctx context.Context, caller identity.Verified, args []byte) (any, error)

type Operations struct {
	shade    *builtin.Shade
	verifier identity.Verifier
	tag      shade.Bytes32
	handlers map[string]handler
}

// New creates the operations API. Envelopes must be signed for the deployment tag.
func New(s *builtin.Shade, verifier identity.Verifier, tag shade.Bytes32) *Operations {
	o := &Operations{shade: s, verifier: verifier, tag: tag}
	o.handlers = map[string]handler{
		builtin.OpInitialize: func(ctx context.Context, caller identity.Verified, raw []byte) (any, error) {
			var args InitializeArgs
			if err := parseArgs(raw, &args); err != nil {
				return nil, err
			}
			return s.Initialize(ctx, caller, args.FeeBasisPoints, args.Thresholds)
		},
		builtin.OpUpdateFee: func(ctx context.Context, caller identity.Verified, raw []byte) (any, error) {
			var args UpdateFeeArgs
			if err := parseArgs(raw, &args); err != nil {
				return nil, err
			}
			return s.UpdateFee(ctx, caller, args.FeeBasisPoints)
		},
		builtin.OpUpdateTiers: func(ctx context.Context, caller identity.Verified, raw []byte) (any, error) {
			var args UpdateTiersArgs
			if err := parseArgs(raw, &args); err != nil {
				return nil, err
			}
			return s.UpdateTiers(ctx, caller, args.Thresholds)
		},
		builtin.OpUpdateCapLimits: func(ctx context.Context, caller identity.Verified, raw []byte) (any, error) {
			var args UpdateCapLimitsArgs
			if err := parseArgs(raw, &args); err != nil {
				return nil, err
			}
			return s.UpdateCapLimits(ctx, caller, args.CapLimits)
		},
		builtin.OpStake: func(ctx context.Context, caller identity.Verified, raw []byte) (any, error) {
			var args AmountArgs
			if err := parseArgs(raw, &args); err != nil {
				return nil, err
			}
			return s.Stake(ctx, caller, args.Amount)
		},
		builtin.OpUnstake: func(ctx context.Context, caller identity.Verified, raw []byte) (any, error) {
			var args AmountArgs
			if err := parseArgs(raw, &args); err != nil {
				return nil, err
			}
			return s.Unstake(ctx, caller, args.Amount)
		},
		builtin.OpCreatePool: func(ctx context.Context, caller identity.Verified, raw []byte) (any, error) {
			var args CreatePoolArgs
			if err := parseArgs(raw, &args); err != nil {
				return nil, err
			}
			return s.CreatePool(ctx, caller, args.Seed)
		},
		builtin.OpDeposit: func(ctx context.Context, caller identity.Verified, raw []byte) (any, error) {
			var args DepositArgs
			if err := parseArgs(raw, &args); err != nil {
				return nil, err
			}
			return s.Deposit(ctx, caller, args.Seed, args.Amount)
		},
		builtin.OpCreateAuthorization: func(ctx context.Context, caller identity.Verified, raw []byte) (any, error) {
			var args CreateAuthorizationArgs
			if err := parseArgs(raw, &args); err != nil {
				return nil, err
			}
			key, a, err := s.CreateAuthorization(ctx, caller, args.grant())
			if err != nil {
				return nil, err
			}
			return &CreateAuthorizationResult{Key: key, Authorization: a}, nil
		},
		builtin.OpRevokeAuthorization: func(ctx context.Context, caller identity.Verified, raw []byte) (any, error) {
			var args RevokeAuthorizationArgs
			if err := parseArgs(raw, &args); err != nil {
				return nil, err
			}
			return s.RevokeAuthorization(ctx, caller, args.Authorization)
		},
		builtin.OpSpend: func(ctx context.Context, caller identity.Verified, raw []byte) (any, error) {
			var args SpendArgs
			if err := parseArgs(raw, &args); err != nil {
				return nil, err
			}
			return s.Spend(ctx, caller, args.Authorization, args.Amount, args.Recipient)
		},
		builtin.OpDistributeFees: func(ctx context.Context, caller identity.Verified, raw []byte) (any, error) {
			var args DistributeFeesArgs
			if err := parseArgs(raw, &args); err != nil {
				return nil, err
			}
			share, err := s.DistributeFees(ctx, caller, args.Owner)
			if err != nil {
				return nil, err
			}
			return &AmountResult{share}, nil
		},
		builtin.OpClaimRewards: func(ctx context.Context, caller identity.Verified, raw []byte) (any, error) {
			var args ClaimRewardsArgs
			if err := parseArgs(raw, &args); err != nil {
				return nil, err
			}
			claimed, err := s.ClaimRewards(ctx, caller, args.Recipient)
			if err != nil {
				return nil, err
			}
			return &AmountResult{claimed}, nil
		},
	}
	return o
}

func parseArgs(raw []byte, v any) error {
	if err := utils.ParseJSON(bytes.NewReader(raw), v); err != nil {
		return utils.BadRequest(errors.WithMessage(err, "args"))
	}
	return nil
}

func (o *Operations) handleExecute(w http.ResponseWriter, req *http.Request) error {
	var env Envelope
	if err := utils.ParseJSON(req.Body, &env); err != nil {
		return utils.BadRequest(errors.WithMessage(err, "body"))
	}
	h, ok := o.handlers[env.Kind]
	if !ok {
		return utils.BadRequest(fmt.Errorf("kind: unknown operation %q", env.Kind))
	}
	if len(env.Signature) == 0 {
		return utils.BadRequest(errors.New("signature: missing"))
	}

	caller, err := o.verifier.Verify(env.Caller, env.SigningMessage(o.tag), env.Signature)
	if err != nil {
		if errors.Is(err, identity.ErrSignerMismatch) {
			return utils.Forbidden(err)
		}
		return utils.BadRequest(errors.WithMessage(err, "signature"))
	}

	ctx := builtin.WithRequest(req.Context(), builtin.Request{Nonce: env.Nonce, ExpiresAt: env.ExpiresAt})
	result, err := h(ctx, caller, env.Args)
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, result)
}

func (o *Operations) handleGetTag(w http.ResponseWriter, _ *http.Request) error {
	return utils.WriteJSON(w, &Tag{Tag: o.tag})
}

func (o *Operations) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("/tag").
		Methods(http.MethodGet).
		Name("GET /operations/tag").
		HandlerFunc(utils.WrapHandlerFunc(o.handleGetTag))

	sub.Path("").
		Methods(http.MethodPost).
		Name("POST /operations").
		HandlerFunc(utils.WrapHandlerFunc(o.handleExecute))
}
