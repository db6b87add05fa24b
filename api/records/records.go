// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package records serves the protocol records by key.
package records

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/shadefi/shade/api/utils"
	"github.com/shadefi/shade/builtin"
	"github.com/shadefi/shade/shade"
)

type Records struct {
	shade *builtin.Shade
}

func New(s *builtin.Shade) *Records {
	return &Records{s}
}

func (r *Records) handleGetConfig(w http.ResponseWriter, req *http.Request) error {
	cfg, err := r.shade.Config(req.Context())
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, cfg)
}

func (r *Records) handleGetPool(w http.ResponseWriter, req *http.Request) error {
	seed, err := shade.ParseBytes32(mux.Vars(req)["seed"])
	if err != nil {
		return utils.BadRequest(errors.WithMessage(err, "seed"))
	}
	p, err := r.shade.Pool(req.Context(), seed)
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, p)
}

func (r *Records) handleGetStaker(w http.ResponseWriter, req *http.Request) error {
	owner, err := shade.ParseAddress(mux.Vars(req)["owner"])
	if err != nil {
		return utils.BadRequest(errors.WithMessage(err, "owner"))
	}
	st, err := r.shade.Staker(req.Context(), owner)
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, st)
}

func (r *Records) handleGetTier(w http.ResponseWriter, req *http.Request) error {
	owner, err := shade.ParseAddress(mux.Vars(req)["owner"])
	if err != nil {
		return utils.BadRequest(errors.WithMessage(err, "owner"))
	}
	info, err := r.shade.TierOf(req.Context(), owner)
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, &Tier{
		Tier:         info.Tier.String(),
		StakedAmount: info.StakedAmount,
		MaxCap:       info.MaxCap,
	})
}

func (r *Records) handleGetAuthorization(w http.ResponseWriter, req *http.Request) error {
	key, err := shade.ParseBytes32(mux.Vars(req)["key"])
	if err != nil {
		return utils.BadRequest(errors.WithMessage(err, "key"))
	}
	a, err := r.shade.Authorization(req.Context(), key)
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, a)
}

func (r *Records) handleGetBalance(w http.ResponseWriter, req *http.Request) error {
	addr, err := shade.ParseAddress(mux.Vars(req)["address"])
	if err != nil {
		return utils.BadRequest(errors.WithMessage(err, "address"))
	}
	bal, err := r.shade.Balance(req.Context(), addr)
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, &Balance{Address: addr, Balance: bal})
}

// Mount registers the record routes on root.
func (r *Records) Mount(root *mux.Router) {
	root.Path("/config").Methods(http.MethodGet).Name("GET /config").
		HandlerFunc(utils.WrapHandlerFunc(r.handleGetConfig))
	root.Path("/pools/{seed}").Methods(http.MethodGet).Name("GET /pools/{seed}").
		HandlerFunc(utils.WrapHandlerFunc(r.handleGetPool))
	root.Path("/stakers/{owner}").Methods(http.MethodGet).Name("GET /stakers/{owner}").
		HandlerFunc(utils.WrapHandlerFunc(r.handleGetStaker))
	root.Path("/stakers/{owner}/tier").Methods(http.MethodGet).Name("GET /stakers/{owner}/tier").
		HandlerFunc(utils.WrapHandlerFunc(r.handleGetTier))
	root.Path("/authorizations/{key}").Methods(http.MethodGet).Name("GET /authorizations/{key}").
		HandlerFunc(utils.WrapHandlerFunc(r.handleGetAuthorization))
	root.Path("/balances/{address}").Methods(http.MethodGet).Name("GET /balances/{address}").
		HandlerFunc(utils.WrapHandlerFunc(r.handleGetBalance))
}
